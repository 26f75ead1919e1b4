package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements placement.StudentRepository.
type StudentRepository struct {
	db *sql.DB
}

const studentColumns = `id, user_id, university_id, supervisor_id, field_of_study`

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*placement.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	return scanStudent(row)
}

func (r *StudentRepository) GetAll(ctx context.Context) ([]*placement.Student, error) {
	return r.list(ctx, `SELECT `+studentColumns+` FROM students ORDER BY rowid`)
}

func (r *StudentRepository) GetByUniversity(ctx context.Context, universityID string) ([]*placement.Student, error) {
	return r.list(ctx, `SELECT `+studentColumns+` FROM students WHERE university_id = ? ORDER BY rowid`, universityID)
}

func (r *StudentRepository) AssignSupervisor(ctx context.Context, studentID, supervisorID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE students SET supervisor_id = ? WHERE id = ?`, supervisorID, studentID)
	if err != nil {
		return fmt.Errorf("sqlite: assign supervisor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return shared.ErrStudentNotFound
	}
	return nil
}

func (r *StudentRepository) list(ctx context.Context, query string, args ...any) ([]*placement.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query students: %w", err)
	}
	defer rows.Close()

	var out []*placement.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanStudent(row rowScanner) (*placement.Student, error) {
	var s placement.Student
	var universityID, supervisorID sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &universityID, &supervisorID, &s.FieldOfStudy)
	if isNoRows(err) {
		return nil, shared.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan student: %w", err)
	}
	s.UniversityID = universityID.String
	s.SupervisorID = supervisorID.String
	return &s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNSHIPS
// ══════════════════════════════════════════════════════════════════════════════

// InternshipRepository implements placement.InternshipRepository.
type InternshipRepository struct {
	db *sql.DB
}

const internshipColumns = `id, organization_id, title, description, field, location, duration,
	start_date, spots_available, status, created_at`

func (r *InternshipRepository) GetByID(ctx context.Context, id string) (*placement.Internship, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+internshipColumns+` FROM internships WHERE id = ?`, id)
	return scanInternship(row)
}

// GetByStatus returns internships with the status in creation order.
func (r *InternshipRepository) GetByStatus(ctx context.Context, status placement.InternshipStatus) ([]*placement.Internship, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+internshipColumns+` FROM internships WHERE status = ? ORDER BY rowid`, string(status))
	if err != nil {
		return nil, fmt.Errorf("sqlite: query internships: %w", err)
	}
	defer rows.Close()

	var out []*placement.Internship
	for rows.Next() {
		in, err := scanInternship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *InternshipRepository) UpdateStatus(ctx context.Context, id string, status placement.InternshipStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("internship", "UpdateStatus", shared.ErrInvalidInput, "unknown internship status "+string(status))
	}
	res, err := r.db.ExecContext(ctx, `UPDATE internships SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("sqlite: update internship status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return shared.ErrInternshipNotFound
	}
	return nil
}

func scanInternship(row rowScanner) (*placement.Internship, error) {
	var in placement.Internship
	var status string
	var createdAt sql.NullTime
	err := row.Scan(
		&in.ID,
		&in.OrganizationID,
		&in.Title,
		&in.Description,
		&in.Field,
		&in.Location,
		&in.Duration,
		&in.StartDate,
		&in.SpotsAvailable,
		&status,
		&createdAt,
	)
	if isNoRows(err) {
		return nil, shared.ErrInternshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan internship: %w", err)
	}
	in.Status = placement.InternshipStatus(status)
	in.CreatedAt = timePtr(createdAt)
	return &in, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATIONS
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationRepository implements placement.ApplicationRepository.
type ApplicationRepository struct {
	db *sql.DB
}

const applicationColumns = `id, student_id, internship_id, organization_id, status, applied_at, reviewed_at`

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*placement.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	return scanApplication(row)
}

func (r *ApplicationRepository) GetByStudent(ctx context.Context, studentID string) ([]*placement.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE student_id = ? ORDER BY applied_at, rowid`, studentID)
}

func (r *ApplicationRepository) GetByInternship(ctx context.Context, internshipID string) ([]*placement.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE internship_id = ? ORDER BY applied_at, rowid`, internshipID)
}

// GetByStatus matches the status case-insensitively.
func (r *ApplicationRepository) GetByStatus(ctx context.Context, status placement.ApplicationStatus) ([]*placement.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE LOWER(status) = ? ORDER BY applied_at, rowid`,
		strings.ToLower(string(status)))
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status placement.ApplicationStatus, reviewedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, reviewed_at = ? WHERE id = ?`,
		string(status), reviewedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: update application status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return shared.ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) list(ctx context.Context, query string, args ...any) ([]*placement.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query applications: %w", err)
	}
	defer rows.Close()

	var out []*placement.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanApplication(row rowScanner) (*placement.Application, error) {
	var a placement.Application
	var internshipID, organizationID sql.NullString
	var status string
	var reviewedAt sql.NullTime
	err := row.Scan(&a.ID, &a.StudentID, &internshipID, &organizationID, &status, &a.AppliedAt, &reviewedAt)
	if isNoRows(err) {
		return nil, shared.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan application: %w", err)
	}
	a.InternshipID = internshipID.String
	a.OrganizationID = organizationID.String
	a.Status = placement.ApplicationStatus(status)
	a.ReviewedAt = timePtr(reviewedAt)
	return &a, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENTS & DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

// DocumentRepository implements placement.DocumentRepository.
type DocumentRepository struct {
	db *sql.DB
}

func (r *DocumentRepository) GetByStudent(ctx context.Context, studentID string) ([]*placement.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, type, file_name, uploaded_at
		FROM documents
		WHERE student_id = ?
		ORDER BY uploaded_at, rowid
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query documents: %w", err)
	}
	defer rows.Close()

	var docs []*placement.Document
	for rows.Next() {
		var d placement.Document
		var docType string
		if err := rows.Scan(&d.ID, &d.StudentID, &docType, &d.FileName, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan document: %w", err)
		}
		d.Type = placement.DocumentType(docType)
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// DirectoryRepository implements placement.DirectoryRepository.
type DirectoryRepository struct {
	db *sql.DB
}

func (r *DirectoryRepository) GetUser(ctx context.Context, id string) (*placement.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, first_name, last_name FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *DirectoryRepository) GetUserByEmail(ctx context.Context, email string) (*placement.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name FROM users WHERE LOWER(email) = LOWER(?)`, email)
	return scanUser(row)
}

func (r *DirectoryRepository) GetUniversity(ctx context.Context, id string) (*placement.University, error) {
	var u placement.University
	err := r.db.QueryRowContext(ctx, `SELECT id, name, location FROM universities WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Location)
	if isNoRows(err) {
		return nil, shared.ErrUniversityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get university: %w", err)
	}
	return &u, nil
}

func (r *DirectoryRepository) GetOrganization(ctx context.Context, id string) (*placement.Organization, error) {
	var o placement.Organization
	err := r.db.QueryRowContext(ctx, `SELECT id, name, email FROM organizations WHERE id = ?`, id).
		Scan(&o.ID, &o.Name, &o.Email)
	if isNoRows(err) {
		return nil, shared.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get organization: %w", err)
	}
	return &o, nil
}

func (r *DirectoryRepository) GetSupervisor(ctx context.Context, id string) (*placement.Supervisor, error) {
	var s placement.Supervisor
	var universityID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, university_id, department FROM supervisors WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &universityID, &s.Department)
	if isNoRows(err) {
		return nil, shared.ErrSupervisorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get supervisor: %w", err)
	}
	s.UniversityID = universityID.String
	return &s, nil
}

func scanUser(row rowScanner) (*placement.User, error) {
	var u placement.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName)
	if isNoRows(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get user: %w", err)
	}
	return &u, nil
}
