// Package sqlite implements the placement repositories on SQLite
// (modernc.org/sqlite, pure Go). It backs local development and tests;
// production runs on the postgres package.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
)

// DB wraps a SQLite handle.
type DB struct {
	db *sql.DB
}

// Open opens (and creates) the database at dsn and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, dsn string) (*DB, error) {
	memory := dsn == ":memory:"
	if !memory && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if memory {
		// Each connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if err := initSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	return &DB{db: sqlDB}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Repositories wires every placement repository to d.
func (d *DB) Repositories() placement.Repositories {
	return placement.Repositories{
		Students:     &StudentRepository{db: d.db},
		Internships:  &InternshipRepository{db: d.db},
		Applications: &ApplicationRepository{db: d.db},
		Documents:    &DocumentRepository{db: d.db},
		Directory:    &DirectoryRepository{db: d.db},
	}
}

// Notifications returns the notification store and reminder ledger.
func (d *DB) Notifications() *NotificationRepository {
	return &NotificationRepository{db: d.db}
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email));

CREATE TABLE IF NOT EXISTS universities (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS organizations (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS supervisors (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    university_id TEXT,
    department TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    university_id TEXT,
    supervisor_id TEXT,
    field_of_study TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS internships (
    id TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    field TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    duration TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL DEFAULT '',
    spots_available INTEGER NOT NULL DEFAULT 1,
    status TEXT NOT NULL DEFAULT 'active',
    created_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_internships_status ON internships(status);

CREATE TABLE IF NOT EXISTS applications (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL,
    internship_id TEXT,
    organization_id TEXT,
    status TEXT NOT NULL DEFAULT 'pending',
    applied_at DATETIME NOT NULL,
    reviewed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_applications_student ON applications(student_id);
CREATE INDEX IF NOT EXISTS idx_applications_internship ON applications(internship_id);

CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL,
    type TEXT NOT NULL,
    file_name TEXT NOT NULL DEFAULT '',
    uploaded_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_student ON documents(student_id);

CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    is_read INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS deadline_reminders (
    internship_id TEXT NOT NULL,
    student_id TEXT NOT NULL,
    days_left INTEGER NOT NULL,
    sent_at DATETIME NOT NULL,
    PRIMARY KEY (internship_id, student_id, days_left)
);
`

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
