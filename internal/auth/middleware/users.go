package auth

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// SQLCredentials backs CredentialLookup with the users table.
func SQLCredentials(db *sql.DB) CredentialLookup {
	return func(username string) (string, string, bool) {
		var hash, role string
		err := db.QueryRow(`SELECT pass_hash, role FROM users WHERE username=$1`, username).Scan(&hash, &role)
		if err != nil {
			return "", "", false
		}
		return hash, role, true
	}
}

// BootstrapAdmin creates the initial admin account when the users table is
// empty. A no-op on every later start.
func BootstrapAdmin(ctx context.Context, db *sql.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO users (username, pass_hash, role) VALUES ($1, $2, $3)`,
		username, string(hash), "admin")
	return err
}

// UpsertUser creates or updates one account. Used by the admin user endpoint.
func UpsertUser(ctx context.Context, db *sql.DB, username, password, role string) error {
	switch role {
	case "student", "teacher", "admin":
	default:
		return errors.New("role must be student, teacher or admin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO users (username, pass_hash, role) VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET pass_hash=EXCLUDED.pass_hash, role=EXCLUDED.role`,
		username, string(hash), role)
	return err
}
