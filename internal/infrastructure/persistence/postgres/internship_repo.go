package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERNSHIP REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InternshipRepository implements placement.InternshipRepository for PostgreSQL.
type InternshipRepository struct {
	conn *Connection
}

// NewInternshipRepository creates a new InternshipRepository.
func NewInternshipRepository(conn *Connection) *InternshipRepository {
	return &InternshipRepository{conn: conn}
}

const internshipColumns = `id, organization_id, title, description, field, location, duration,
	start_date, spots_available, status, created_at`

// GetByID returns an internship by ID.
func (r *InternshipRepository) GetByID(ctx context.Context, id string) (*placement.Internship, error) {
	query := `SELECT ` + internshipColumns + ` FROM internships WHERE id = $1`
	return scanInternship(r.conn.QueryRow(ctx, query, id))
}

// GetByStatus returns internships with the status in creation order.
func (r *InternshipRepository) GetByStatus(ctx context.Context, status placement.InternshipStatus) ([]*placement.Internship, error) {
	query := `SELECT ` + internshipColumns + ` FROM internships WHERE status = $1 ORDER BY seq`
	rows, err := r.conn.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query internships: %w", err)
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

// UpdateStatus persists a new status.
func (r *InternshipRepository) UpdateStatus(ctx context.Context, id string, status placement.InternshipStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("internship", "UpdateStatus", shared.ErrInvalidInput, "unknown internship status "+string(status))
	}
	tag, err := r.conn.Exec(ctx, `UPDATE internships SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update internship status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrInternshipNotFound
	}
	return nil
}

func scanInternship(row pgx.Row) (*placement.Internship, error) {
	var in placement.Internship
	var status string
	var createdAt *time.Time

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
	if IsNoRows(err) {
		return nil, shared.ErrInternshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan internship: %w", err)
	}

	in.Status = placement.InternshipStatus(status)
	in.CreatedAt = createdAt
	return &in, nil
}
