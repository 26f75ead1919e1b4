package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationRepository implements placement.ApplicationRepository for PostgreSQL.
type ApplicationRepository struct {
	conn *Connection
}

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(conn *Connection) *ApplicationRepository {
	return &ApplicationRepository{conn: conn}
}

const applicationColumns = `id, student_id, internship_id, organization_id, status, applied_at, reviewed_at`

// GetByID returns an application by ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*placement.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplication(r.conn.QueryRow(ctx, query, id))
}

// GetByStudent returns a student's applications, oldest first.
func (r *ApplicationRepository) GetByStudent(ctx context.Context, studentID string) ([]*placement.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE student_id = $1 ORDER BY applied_at`
	return r.list(ctx, query, studentID)
}

// GetByInternship returns the applications to an internship.
func (r *ApplicationRepository) GetByInternship(ctx context.Context, internshipID string) ([]*placement.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE internship_id = $1 ORDER BY applied_at`
	return r.list(ctx, query, internshipID)
}

// GetByStatus returns applications in a status, matched case-insensitively.
func (r *ApplicationRepository) GetByStatus(ctx context.Context, status placement.ApplicationStatus) ([]*placement.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE LOWER(status) = $1 ORDER BY applied_at`
	return r.list(ctx, query, strings.ToLower(string(status)))
}

// UpdateStatus records the review decision.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status placement.ApplicationStatus, reviewedAt time.Time) error {
	tag, err := r.conn.Exec(ctx,
		`UPDATE applications SET status = $1, reviewed_at = $2 WHERE id = $3`,
		string(status), reviewedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*placement.Application, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
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

func scanApplication(row pgx.Row) (*placement.Application, error) {
	var a placement.Application
	var internshipID, organizationID *string
	var status string

	err := row.Scan(&a.ID, &a.StudentID, &internshipID, &organizationID, &status, &a.AppliedAt, &a.ReviewedAt)
	if IsNoRows(err) {
		return nil, shared.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}

	a.InternshipID = deref(internshipID)
	a.OrganizationID = deref(organizationID)
	a.Status = placement.ApplicationStatus(status)
	return &a, nil
}
