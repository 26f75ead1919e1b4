package placement

import (
	"strings"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// StartDateLayout is the only accepted shape of Internship.StartDate.
const StartDateLayout = "2006-01-02"

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// InternshipStatus is the lifecycle state of an internship posting.
type InternshipStatus string

const (
	// InternshipActive - the posting accepts applications.
	InternshipActive InternshipStatus = "active"
	// InternshipExpired - the start date has passed. Terminal.
	InternshipExpired InternshipStatus = "expired"
)

// IsValid reports whether the status is known.
func (s InternshipStatus) IsValid() bool {
	return s == InternshipActive || s == InternshipExpired
}

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// ParseApplicationStatus matches a status case-insensitively.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch ApplicationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ApplicationPending:
		return ApplicationPending, nil
	case ApplicationAccepted:
		return ApplicationAccepted, nil
	case ApplicationRejected:
		return ApplicationRejected, nil
	default:
		return "", shared.ErrInvalidStatus
	}
}

// DocumentType identifies an uploaded document. Values other than the
// required ones are stored as-is.
type DocumentType string

const (
	DocumentCV                 DocumentType = "cv"
	DocumentIntroductionLetter DocumentType = "introduction_letter"
)

// RequiredDocuments lists the documents an accepted student must upload, in reminder order.
var RequiredDocuments = []DocumentType{DocumentCV, DocumentIntroductionLetter}

// DisplayName returns the human label used in reminders.
func (t DocumentType) DisplayName() string {
	switch DocumentType(strings.ToLower(string(t))) {
	case DocumentCV:
		return "CV/Resume"
	case DocumentIntroductionLetter:
		return "University Introduction Letter"
	default:
		return string(t)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// User is an account that can receive notifications.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// FullName returns "First Last".
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// University sends students to internships.
type University struct {
	ID       string
	Name     string
	Location string
}

// Supervisor is a university staff member assigned to students.
type Supervisor struct {
	ID           string
	UserID       string
	UniversityID string
	Department   string
}

// Organization publishes internships. Its account is the User sharing its Email.
type Organization struct {
	ID    string
	Name  string
	Email string
}

// Student is a university student looking for an internship.
type Student struct {
	ID           string
	UserID       string
	UniversityID string // empty when not enrolled
	SupervisorID string // empty when unassigned
	FieldOfStudy string
}

// HasSupervisor reports whether a supervisor is assigned.
func (s *Student) HasSupervisor() bool {
	return s.SupervisorID != ""
}

// Internship is a posting by an organization.
type Internship struct {
	ID             string
	OrganizationID string
	Title          string
	Description    string
	Field          string
	Location       string
	Duration       string
	StartDate      string
	SpotsAvailable int
	Status         InternshipStatus
	CreatedAt      *time.Time
}

// IsActive reports whether the internship accepts applications.
func (i *Internship) IsActive() bool {
	return i.Status == InternshipActive
}

// StartsAt parses StartDate as midnight of that day in loc.
func (i *Internship) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(StartDateLayout, strings.TrimSpace(i.StartDate), loc)
	if err != nil {
		return time.Time{}, shared.WrapError("internship", "StartsAt", shared.ErrInvalidStartDate,
			"cannot parse start date of "+i.ID, err)
	}
	return t, nil
}

// Expire moves the internship to the terminal expired state.
func (i *Internship) Expire() {
	i.Status = InternshipExpired
}

// Application links a student to an internship, or directly to an organization.
type Application struct {
	ID             string
	StudentID      string
	InternshipID   string // empty for a direct application
	OrganizationID string // set for direct applications
	Status         ApplicationStatus
	AppliedAt      time.Time
	ReviewedAt     *time.Time
}

// IsDirect reports whether the application targets an organization without a posting.
func (a *Application) IsDirect() bool {
	return a.InternshipID == ""
}

// IsAccepted matches the accepted status case-insensitively.
func (a *Application) IsAccepted() bool {
	return strings.EqualFold(string(a.Status), string(ApplicationAccepted))
}

// Document is a file uploaded by a student.
type Document struct {
	ID         string
	StudentID  string
	Type       DocumentType
	FileName   string
	UploadedAt time.Time
}

// MissingDocuments returns the required types absent from docs, in RequiredDocuments order.
func MissingDocuments(docs []*Document) []DocumentType {
	have := make(map[DocumentType]bool, len(docs))
	for _, d := range docs {
		have[DocumentType(strings.ToLower(string(d.Type)))] = true
	}

	var missing []DocumentType
	for _, t := range RequiredDocuments {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
