package postgres

import (
	"context"
	"fmt"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// DocumentRepository implements placement.DocumentRepository for PostgreSQL.
type DocumentRepository struct {
	conn *Connection
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(conn *Connection) *DocumentRepository {
	return &DocumentRepository{conn: conn}
}

// GetByStudent returns the documents uploaded by a student.
func (r *DocumentRepository) GetByStudent(ctx context.Context, studentID string) ([]*placement.Document, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, student_id, type, file_name, uploaded_at
		FROM documents
		WHERE student_id = $1
		ORDER BY uploaded_at
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*placement.Document
	for rows.Next() {
		var d placement.Document
		var docType string
		if err := rows.Scan(&d.ID, &d.StudentID, &docType, &d.FileName, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.Type = placement.DocumentType(docType)
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// DirectoryRepository implements placement.DirectoryRepository for PostgreSQL.
type DirectoryRepository struct {
	conn *Connection
}

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(conn *Connection) *DirectoryRepository {
	return &DirectoryRepository{conn: conn}
}

// GetUser returns a user by ID.
func (r *DirectoryRepository) GetUser(ctx context.Context, id string) (*placement.User, error) {
	var u placement.User
	err := r.conn.QueryRow(ctx,
		`SELECT id, email, first_name, last_name FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName)
	if IsNoRows(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email, ignoring case.
func (r *DirectoryRepository) GetUserByEmail(ctx context.Context, email string) (*placement.User, error) {
	var u placement.User
	err := r.conn.QueryRow(ctx,
		`SELECT id, email, first_name, last_name FROM users WHERE LOWER(email) = LOWER($1)`, email,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName)
	if IsNoRows(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// GetUniversity returns a university by ID.
func (r *DirectoryRepository) GetUniversity(ctx context.Context, id string) (*placement.University, error) {
	var u placement.University
	err := r.conn.QueryRow(ctx,
		`SELECT id, name, location FROM universities WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Location)
	if IsNoRows(err) {
		return nil, shared.ErrUniversityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get university: %w", err)
	}
	return &u, nil
}

// GetOrganization returns an organization by ID.
func (r *DirectoryRepository) GetOrganization(ctx context.Context, id string) (*placement.Organization, error) {
	var o placement.Organization
	err := r.conn.QueryRow(ctx,
		`SELECT id, name, email FROM organizations WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.Email)
	if IsNoRows(err) {
		return nil, shared.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &o, nil
}

// GetSupervisor returns a supervisor by ID.
func (r *DirectoryRepository) GetSupervisor(ctx context.Context, id string) (*placement.Supervisor, error) {
	var s placement.Supervisor
	var universityID *string
	err := r.conn.QueryRow(ctx,
		`SELECT id, user_id, university_id, department FROM supervisors WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &universityID, &s.Department)
	if IsNoRows(err) {
		return nil, shared.ErrSupervisorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supervisor: %w", err)
	}
	s.UniversityID = deref(universityID)
	return &s, nil
}
