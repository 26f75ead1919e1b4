package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements placement.StudentRepository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const studentColumns = `id, user_id, university_id, supervisor_id, field_of_study`

// GetByID returns a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*placement.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return scanStudent(r.conn.QueryRow(ctx, query, id))
}

// GetAll returns every student in creation order.
func (r *StudentRepository) GetAll(ctx context.Context) ([]*placement.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY seq`
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	return scanStudents(rows)
}

// GetByUniversity returns the students of a university.
func (r *StudentRepository) GetByUniversity(ctx context.Context, universityID string) ([]*placement.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE university_id = $1 ORDER BY seq`
	rows, err := r.conn.Query(ctx, query, universityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query students by university: %w", err)
	}
	return scanStudents(rows)
}

// AssignSupervisor sets the student's supervisor.
func (r *StudentRepository) AssignSupervisor(ctx context.Context, studentID, supervisorID string) error {
	tag, err := r.conn.Exec(ctx, `UPDATE students SET supervisor_id = $1 WHERE id = $2`, supervisorID, studentID)
	if err != nil {
		return fmt.Errorf("failed to assign supervisor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStudentNotFound
	}
	return nil
}

func scanStudent(row pgx.Row) (*placement.Student, error) {
	var s placement.Student
	var universityID, supervisorID *string

	err := row.Scan(&s.ID, &s.UserID, &universityID, &supervisorID, &s.FieldOfStudy)
	if IsNoRows(err) {
		return nil, shared.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	s.UniversityID = deref(universityID)
	s.SupervisorID = deref(supervisorID)
	return &s, nil
}

func scanStudents(rows pgx.Rows) ([]*placement.Student, error) {
	defer rows.Close()

	var students []*placement.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// deref maps a NULL text column to "".
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
