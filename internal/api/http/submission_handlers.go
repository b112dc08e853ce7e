package api

import (
	"encoding/json"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	auth "github.com/open-lms-tools/gradeassist/internal/auth/middleware"
	"github.com/open-lms-tools/gradeassist/internal/coursework"
	"github.com/open-lms-tools/gradeassist/internal/storage"
)

const maxUploadBytes = 32 << 20

// CreateSubmissionHandler records (or replaces) the caller's submission for
// an assignment. The user comes from the token, never the body.
// POST /assignments/{assignmentID}/submissions
func CreateSubmissionHandler(store coursework.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "no subject", http.StatusUnauthorized)
			return
		}
		var req struct {
			AttemptNo  int    `json:"attempt_no"`
			Status     string `json:"status"`
			OnlineHTML string `json:"online_html"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Status == "" {
			req.Status = "draft"
		}
		if req.Status != "draft" && req.Status != "submitted" {
			http.Error(w, "status must be draft or submitted", http.StatusBadRequest)
			return
		}
		if req.AttemptNo <= 0 {
			req.AttemptNo = 1
		}
		sub := coursework.Submission{
			ID:           uuid.NewString(),
			AssignmentID: chi.URLParam(r, "assignmentID"),
			UserID:       userID,
			AttemptNo:    req.AttemptNo,
			Status:       req.Status,
			OnlineHTML:   req.OnlineHTML,
		}
		if err := store.PutSubmission(r.Context(), sub); err != nil {
			http.Error(w, "store submission: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

// UploadSubmissionFileHandler attaches one file to a submission. The blob key
// is opaque to clients; downloads go through the files route.
// POST /submissions/{submissionID}/files  (multipart, field "file")
func UploadSubmissionFileHandler(store coursework.Store, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionID := chi.URLParam(r, "submissionID")
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "bad multipart form", http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer f.Close()

		name := path.Base(hdr.Filename)
		key := "submissions/" + submissionID + "/" + uuid.NewString() + "-" + name
		key, err = blobs.Put(key, io.LimitReader(f, maxUploadBytes))
		if err != nil {
			http.Error(w, "store blob: "+err.Error(), http.StatusInternalServerError)
			return
		}

		sortOrder, _ := strconv.Atoi(r.FormValue("sort_order"))
		rec := coursework.SubmissionFile{
			ID:           uuid.NewString(),
			SubmissionID: submissionID,
			Filename:     name,
			MimeType:     strings.TrimSpace(hdr.Header.Get("Content-Type")),
			BlobKey:      key,
			SortOrder:    sortOrder,
		}
		if err := store.AddSubmissionFile(r.Context(), rec); err != nil {
			// Don't leave an orphaned blob behind.
			_ = blobs.Delete(key)
			http.Error(w, "store file: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// DownloadSubmissionFileHandler streams a stored blob back.
// GET /files/*
func DownloadSubmissionFileHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		rc, err := blobs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	}
}
