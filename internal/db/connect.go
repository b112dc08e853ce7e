package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:gradeassist.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/gradeassist?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL,
  title TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  slot INTEGER NOT NULL,
  qtype TEXT NOT NULL,            -- essay, mcq_single, ...
  name TEXT NOT NULL DEFAULT '',
  question_html TEXT NOT NULL,
  max_grade REAL NOT NULL,
  grader_info TEXT NOT NULL DEFAULT '',
  rubric TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL,           -- in_progress|finished
  finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS attempt_answers (
  attempt_id TEXT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  answer_html TEXT NOT NULL DEFAULT '',
  needs_grading INTEGER NOT NULL DEFAULT 0,
  grade REAL NOT NULL DEFAULT -1, -- negative = not yet graded
  feedback TEXT NOT NULL DEFAULT '',
  graded_at INTEGER,
  PRIMARY KEY (attempt_id, question_id)
);

CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL,
  name TEXT NOT NULL,
  intro_html TEXT NOT NULL DEFAULT '',
  grader_info TEXT NOT NULL DEFAULT '',
  rubric TEXT NOT NULL DEFAULT '',
  max_grade REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  attempt_no INTEGER NOT NULL DEFAULT 1,
  status TEXT NOT NULL,           -- draft|submitted
  online_html TEXT NOT NULL DEFAULT '',
  grade REAL NOT NULL DEFAULT -1, -- negative = not yet graded
  feedback TEXT NOT NULL DEFAULT '',
  graded_at INTEGER
);

CREATE TABLE IF NOT EXISTS submission_files (
  id TEXT PRIMARY KEY,
  submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
  filename TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  blob_key TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS gradebook_sync (
  submission_id TEXT PRIMARY KEY,
  status TEXT NOT NULL,           -- pending|ok|failed
  last_error TEXT NOT NULL DEFAULT '',
  retries INTEGER NOT NULL DEFAULT 0,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assignment_lineitems (
  assignment_id TEXT PRIMARY KEY,
  lineitem_url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS platform_user_map (
  local_user_id TEXT PRIMARY KEY,
  platform_sub TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  username TEXT PRIMARY KEY,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL              -- student|teacher|admin
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL,
  title TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  slot INTEGER NOT NULL,
  qtype TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  question_html TEXT NOT NULL,
  max_grade DOUBLE PRECISION NOT NULL,
  grader_info TEXT NOT NULL DEFAULT '',
  rubric TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL,
  finished_at BIGINT
);

CREATE TABLE IF NOT EXISTS attempt_answers (
  attempt_id TEXT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  answer_html TEXT NOT NULL DEFAULT '',
  needs_grading BOOLEAN NOT NULL DEFAULT FALSE,
  grade DOUBLE PRECISION NOT NULL DEFAULT -1,
  feedback TEXT NOT NULL DEFAULT '',
  graded_at BIGINT,
  PRIMARY KEY (attempt_id, question_id)
);

CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL,
  name TEXT NOT NULL,
  intro_html TEXT NOT NULL DEFAULT '',
  grader_info TEXT NOT NULL DEFAULT '',
  rubric TEXT NOT NULL DEFAULT '',
  max_grade DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  attempt_no INTEGER NOT NULL DEFAULT 1,
  status TEXT NOT NULL,
  online_html TEXT NOT NULL DEFAULT '',
  grade DOUBLE PRECISION NOT NULL DEFAULT -1,
  feedback TEXT NOT NULL DEFAULT '',
  graded_at BIGINT
);

CREATE TABLE IF NOT EXISTS submission_files (
  id TEXT PRIMARY KEY,
  submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
  filename TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  blob_key TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS gradebook_sync (
  submission_id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  last_error TEXT NOT NULL DEFAULT '',
  retries INTEGER NOT NULL DEFAULT 0,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS assignment_lineitems (
  assignment_id TEXT PRIMARY KEY,
  lineitem_url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS platform_user_map (
  local_user_id TEXT PRIMARY KEY,
  platform_sub TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  username TEXT PRIMARY KEY,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL
);
`
