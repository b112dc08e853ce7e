// Package submission decides which text of a submission gets graded.
package submission

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/open-lms-tools/gradeassist/internal/coursework"
	"github.com/open-lms-tools/gradeassist/internal/extract"
)

// FileLister is the slice of the coursework store the resolver needs.
type FileLister interface {
	SubmissionFiles(ctx context.Context, submissionID string) ([]coursework.SubmissionFile, error)
}

// BlobOpener reads stored file content by key.
type BlobOpener interface {
	Get(key string) (io.ReadCloser, error)
}

type Resolver struct {
	files     FileLister
	blobs     BlobOpener
	extractor *extract.Service
}

func NewResolver(files FileLister, blobs BlobOpener, extractor *extract.Service) *Resolver {
	return &Resolver{files: files, blobs: blobs, extractor: extractor}
}

// ResolveText returns the text to grade for a submission: inline online text
// first, otherwise the first attached file (in sort order, then ID) whose
// format is supported and whose extraction yields non-empty text. An empty
// return marks the submission non-gradable; the caller tallies it as failed.
func (r *Resolver) ResolveText(ctx context.Context, sub coursework.Submission) string {
	if text := strings.TrimSpace(extract.StripHTML(sub.OnlineHTML)); text != "" {
		return text
	}

	files, err := r.files.SubmissionFiles(ctx, sub.ID)
	if err != nil {
		log.Printf("resolver: list files for submission %s: %v", sub.ID, err)
		return ""
	}
	for _, f := range files {
		if !r.supports(f) {
			continue
		}
		rc, err := r.blobs.Get(f.BlobKey)
		if err != nil {
			log.Printf("resolver: open %s (%s): %v", f.Filename, f.BlobKey, err)
			continue
		}
		res := r.extractor.ExtractFile(ctx, rc, f.Filename, f.MimeType)
		rc.Close()
		if !res.OK {
			log.Printf("resolver: extract %s: %s", f.Filename, res.Err)
			continue
		}
		if text := strings.TrimSpace(res.Text); text != "" {
			return text
		}
	}
	return ""
}

func (r *Resolver) supports(f coursework.SubmissionFile) bool {
	return r.extractor.Supports(f.MimeType) || extract.FormatFromName(f.Filename) != extract.FormatUnknown
}
