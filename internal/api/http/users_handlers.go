package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	auth "github.com/open-lms-tools/gradeassist/internal/auth/middleware"
)

// UpsertUserHandler creates or updates an account. Admin only.
// POST /users
func UpsertUserHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password are required", http.StatusBadRequest)
			return
		}
		if err := auth.UpsertUser(r.Context(), db, req.Username, req.Password, req.Role); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
