// Package extract converts stored submission files (PDF, DOCX, legacy DOC,
// plain text, HTML) into plain text suitable for grading.
package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// TruncationNotice is appended when extracted text exceeds the configured limit.
const TruncationNotice = "\n[... text truncated ...]"

// Format identifies a supported document format.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDOCX
	FormatDOC
	FormatTXT
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatDOC:
		return "doc"
	case FormatTXT:
		return "txt"
	case FormatHTML:
		return "html"
	default:
		return "unknown"
	}
}

// FormatFromMIME maps a MIME type to a Format.
func FormatFromMIME(mime string) Format {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "application/pdf":
		return FormatPDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatDOCX
	case "application/msword":
		return FormatDOC
	case "text/plain":
		return FormatTXT
	case "text/html":
		return FormatHTML
	default:
		return FormatUnknown
	}
}

// FormatFromName maps a filename extension to a Format.
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".doc":
		return FormatDOC
	case ".txt":
		return FormatTXT
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatUnknown
	}
}

// Result is the outcome of one extraction. A failed Result always carries
// empty Text and a non-empty Err.
type Result struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
	Err  string `json:"error,omitempty"`
}

func failure(format string, err error) Result {
	return Result{Err: format + ": " + err.Error()}
}

type strategy func(ctx context.Context, r io.Reader) (string, error)

// Service dispatches extraction by format.
type Service struct {
	maxChars   int
	strategies map[Format]strategy
}

// NewService builds a Service with all built-in format strategies.
// maxChars bounds the returned text length; <=0 means a 15000-char default.
func NewService(maxChars int) *Service {
	if maxChars <= 0 {
		maxChars = 15000
	}
	s := &Service{maxChars: maxChars}
	s.strategies = map[Format]strategy{
		FormatPDF:  extractPDF,
		FormatDOCX: extractDOCX,
		FormatDOC:  extractDOC,
		FormatTXT:  extractTXT,
		FormatHTML: extractHTML,
	}
	return s
}

// Supports reports whether the MIME type has an extraction strategy.
func (s *Service) Supports(mime string) bool {
	_, ok := s.strategies[FormatFromMIME(mime)]
	return ok
}

// Extract runs the strategy for the given MIME type over r.
// Unsupported formats fail immediately; no strategy error escapes as a panic.
func (s *Service) Extract(ctx context.Context, r io.Reader, mime string) Result {
	format := FormatFromMIME(mime)
	fn, ok := s.strategies[format]
	if !ok {
		return Result{Err: fmt.Sprintf("unsupported file type %q (supported: pdf, docx, doc, txt, html)", mime)}
	}
	text, err := fn(ctx, r)
	if err != nil {
		return failure(format.String(), err)
	}
	text = s.postProcess(text)
	return Result{OK: true, Text: text}
}

// ExtractFile is Extract with the format taken from the filename when the
// stored MIME type is missing or unrecognized.
func (s *Service) ExtractFile(ctx context.Context, r io.Reader, name, mime string) Result {
	if FormatFromMIME(mime) == FormatUnknown {
		switch FormatFromName(name) {
		case FormatPDF:
			mime = "application/pdf"
		case FormatDOCX:
			mime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		case FormatDOC:
			mime = "application/msword"
		case FormatTXT:
			mime = "text/plain"
		case FormatHTML:
			mime = "text/html"
		}
	}
	return s.Extract(ctx, r, mime)
}

func (s *Service) postProcess(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > s.maxChars {
		text = strings.TrimSpace(string(runes[:s.maxChars])) + TruncationNotice
	}
	return text
}
