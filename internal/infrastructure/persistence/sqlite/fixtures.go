package sqlite

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

// Fixtures is a directory snapshot used to seed a development database.
type Fixtures struct {
	Users         []FixtureUser         `yaml:"users"`
	Universities  []FixtureUniversity   `yaml:"universities"`
	Organizations []FixtureOrganization `yaml:"organizations"`
	Supervisors   []FixtureSupervisor   `yaml:"supervisors"`
	Students      []FixtureStudent      `yaml:"students"`
	Internships   []FixtureInternship   `yaml:"internships"`
	Applications  []FixtureApplication  `yaml:"applications"`
	Documents     []FixtureDocument     `yaml:"documents"`
}

type FixtureUser struct {
	ID        string `yaml:"id"`
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type FixtureUniversity struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

type FixtureOrganization struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type FixtureSupervisor struct {
	ID           string `yaml:"id"`
	UserID       string `yaml:"user_id"`
	UniversityID string `yaml:"university_id"`
	Department   string `yaml:"department"`
}

type FixtureStudent struct {
	ID           string `yaml:"id"`
	UserID       string `yaml:"user_id"`
	UniversityID string `yaml:"university_id"`
	SupervisorID string `yaml:"supervisor_id"`
	FieldOfStudy string `yaml:"field_of_study"`
}

type FixtureInternship struct {
	ID             string     `yaml:"id"`
	OrganizationID string     `yaml:"organization_id"`
	Title          string     `yaml:"title"`
	Description    string     `yaml:"description"`
	Field          string     `yaml:"field"`
	Location       string     `yaml:"location"`
	Duration       string     `yaml:"duration"`
	StartDate      string     `yaml:"start_date"`
	SpotsAvailable int        `yaml:"spots_available"`
	Status         string     `yaml:"status"`
	CreatedAt      *time.Time `yaml:"created_at"`
}

type FixtureApplication struct {
	ID             string     `yaml:"id"`
	StudentID      string     `yaml:"student_id"`
	InternshipID   string     `yaml:"internship_id"`
	OrganizationID string     `yaml:"organization_id"`
	Status         string     `yaml:"status"`
	AppliedAt      time.Time  `yaml:"applied_at"`
	ReviewedAt     *time.Time `yaml:"reviewed_at"`
}

type FixtureDocument struct {
	ID         string    `yaml:"id"`
	StudentID  string    `yaml:"student_id"`
	Type       string    `yaml:"type"`
	FileName   string    `yaml:"file_name"`
	UploadedAt time.Time `yaml:"uploaded_at"`
}

// LoadFixtures reads a YAML fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("sqlite: parse fixtures: %w", err)
	}
	return &f, nil
}

// Seed inserts the fixtures in one transaction. Rows are inserted in slice
// order, which is the creation order the repositories report.
func (d *DB) Seed(ctx context.Context, f *Fixtures) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	exec := func(query string, args ...any) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sqlite: seed: %w", err)
		}
		return nil
	}

	for _, u := range f.Users {
		if err := exec(`INSERT INTO users (id, email, first_name, last_name) VALUES (?, ?, ?, ?)`,
			u.ID, u.Email, u.FirstName, u.LastName); err != nil {
			return err
		}
	}
	for _, u := range f.Universities {
		if err := exec(`INSERT INTO universities (id, name, location) VALUES (?, ?, ?)`,
			u.ID, u.Name, u.Location); err != nil {
			return err
		}
	}
	for _, o := range f.Organizations {
		if err := exec(`INSERT INTO organizations (id, name, email) VALUES (?, ?, ?)`,
			o.ID, o.Name, o.Email); err != nil {
			return err
		}
	}
	for _, s := range f.Supervisors {
		if err := exec(`INSERT INTO supervisors (id, user_id, university_id, department) VALUES (?, ?, ?, ?)`,
			s.ID, s.UserID, nullString(s.UniversityID), s.Department); err != nil {
			return err
		}
	}
	for _, s := range f.Students {
		if err := exec(`INSERT INTO students (`+studentColumns+`) VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.UserID, nullString(s.UniversityID), nullString(s.SupervisorID), s.FieldOfStudy); err != nil {
			return err
		}
	}
	for _, in := range f.Internships {
		status := in.Status
		if status == "" {
			status = string(placement.InternshipActive)
		}
		if err := exec(`INSERT INTO internships (`+internshipColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ID, in.OrganizationID, in.Title, in.Description, in.Field, in.Location, in.Duration,
			in.StartDate, in.SpotsAvailable, status, nullTime(in.CreatedAt)); err != nil {
			return err
		}
	}
	for _, a := range f.Applications {
		status := a.Status
		if status == "" {
			status = string(placement.ApplicationPending)
		}
		if err := exec(`INSERT INTO applications (`+applicationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.StudentID, nullString(a.InternshipID), nullString(a.OrganizationID), status,
			a.AppliedAt.UTC(), nullTime(a.ReviewedAt)); err != nil {
			return err
		}
	}
	for _, doc := range f.Documents {
		if err := exec(`INSERT INTO documents (id, student_id, type, file_name, uploaded_at) VALUES (?, ?, ?, ?, ?)`,
			doc.ID, doc.StudentID, doc.Type, doc.FileName, doc.UploadedAt.UTC()); err != nil {
			return err
		}
	}

	return tx.Commit()
}
