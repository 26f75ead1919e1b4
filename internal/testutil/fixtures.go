// Package testutil builds seeded in-memory stores for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/islandscholars/placement-hub/internal/infrastructure/persistence/sqlite"
	"github.com/islandscholars/placement-hub/pkg/timeutil"
)

// Now is the fixed clock every fixture is relative to.
var Now = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// Fixture IDs.
const (
	UserAlice = "u-alice"
	UserBob   = "u-bob"
	UserOrg   = "u-acme"
	UserSup   = "u-sarah"

	University = "uni-nairobi"

	OrgAcme  = "org-acme"
	OrgGhost = "org-ghost"

	Supervisor = "sup-sarah"

	StudentAlice = "st-alice"
	StudentBob   = "st-bob"

	InternshipSE       = "in-se"
	InternshipData     = "in-data"
	InternshipPast     = "in-past"
	InternshipFrontend = "in-frontend"
	InternshipLegal    = "in-legal"
	InternshipApplied  = "in-backend"
	InternshipExpired  = "in-expired"

	AppAlicePending = "app-alice-backend"
	AppBobDirect    = "app-bob-direct"
	AppBobAccepted  = "app-bob-legal"
)

func daysFrom(now time.Time, d int) string {
	return timeutil.FormatDate(now.AddDate(0, 0, d), time.UTC)
}

func ago(now time.Time, d int) *time.Time {
	t := now.AddDate(0, 0, -d)
	return &t
}

// PlacementFixtures returns a small campus relative to now.
//
// For Alice (Computer Science, Nairobi, applied to a Software posting) the
// expected ranking is in-se 16, in-past 10, in-frontend 10, in-legal 4, in-data 1.
func PlacementFixtures(now time.Time) *sqlite.Fixtures {
	return &sqlite.Fixtures{
		Users: []sqlite.FixtureUser{
			{ID: UserAlice, Email: "alice@uni.example", FirstName: "Alice", LastName: "Wanjiru"},
			{ID: UserBob, Email: "bob@uni.example", FirstName: "Bob", LastName: "Otieno"},
			{ID: UserOrg, Email: "hr@acme.example", FirstName: "Acme", LastName: "HR"},
			{ID: UserSup, Email: "sarah@uni.example", FirstName: "Sarah", LastName: "Kamau"},
		},
		Universities: []sqlite.FixtureUniversity{
			{ID: University, Name: "University of Nairobi", Location: "Nairobi"},
		},
		Organizations: []sqlite.FixtureOrganization{
			{ID: OrgAcme, Name: "Acme Ltd", Email: "HR@Acme.example"},
			{ID: OrgGhost, Name: "Ghost Chambers", Email: "nobody@ghost.example"},
		},
		Supervisors: []sqlite.FixtureSupervisor{
			{ID: Supervisor, UserID: UserSup, UniversityID: University, Department: "Computer Science"},
		},
		Students: []sqlite.FixtureStudent{
			{ID: StudentAlice, UserID: UserAlice, UniversityID: University, FieldOfStudy: "Computer Science"},
			{ID: StudentBob, UserID: UserBob, FieldOfStudy: "Law"},
		},
		Internships: []sqlite.FixtureInternship{
			{ID: InternshipSE, OrganizationID: OrgAcme, Title: "Software Engineer Intern",
				Field: "Computer Science", Location: "Nairobi, Kenya", StartDate: daysFrom(now, 3),
				SpotsAvailable: 3, CreatedAt: ago(now, 2)},
			{ID: InternshipData, OrganizationID: OrgAcme, Title: "Data Analyst Intern",
				Field: "Data Science", Location: "Mombasa", StartDate: daysFrom(now, 7),
				SpotsAvailable: 1, CreatedAt: ago(now, 10)},
			{ID: InternshipPast, OrganizationID: OrgAcme, Title: "Winter Intern",
				Field: "Computer Science", Location: "Remote", StartDate: daysFrom(now, -2),
				SpotsAvailable: 1, CreatedAt: ago(now, 60)},
			{ID: InternshipFrontend, OrganizationID: OrgAcme, Title: "Frontend Intern",
				Field: "Software", Location: "Nairobi", StartDate: daysFrom(now, 14),
				SpotsAvailable: 1, CreatedAt: ago(now, 5)},
			{ID: InternshipLegal, OrganizationID: OrgGhost, Title: "Legal Intern",
				Field: "Law", Location: "Nairobi CBD", StartDate: daysFrom(now, 20),
				SpotsAvailable: 2, CreatedAt: ago(now, 40)},
			{ID: InternshipApplied, OrganizationID: OrgAcme, Title: "Backend Intern",
				Field: "Software", Location: "Nairobi", StartDate: daysFrom(now, 30),
				SpotsAvailable: 2, CreatedAt: ago(now, 1)},
			{ID: InternshipExpired, OrganizationID: OrgAcme, Title: "Old Posting",
				Field: "Computer Science", Location: "Nairobi", StartDate: daysFrom(now, 3),
				SpotsAvailable: 5, Status: "expired", CreatedAt: ago(now, 1)},
		},
		Applications: []sqlite.FixtureApplication{
			{ID: AppAlicePending, StudentID: StudentAlice, InternshipID: InternshipApplied,
				AppliedAt: now.Add(-time.Hour)},
			{ID: AppBobDirect, StudentID: StudentBob, OrganizationID: OrgAcme,
				AppliedAt: now.Add(-2 * time.Hour)},
			{ID: AppBobAccepted, StudentID: StudentBob, InternshipID: InternshipLegal,
				Status: "Accepted", AppliedAt: now.AddDate(0, 0, -3), ReviewedAt: ago(now, 1)},
		},
		Documents: []sqlite.FixtureDocument{
			{ID: "doc-bob-cv", StudentID: StudentBob, Type: "cv", FileName: "bob.pdf", UploadedAt: now.AddDate(0, 0, -2)},
		},
	}
}

// OpenStore opens an in-memory database seeded with f and closes it with the test.
func OpenStore(t testing.TB, f *sqlite.Fixtures) *sqlite.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	if f != nil {
		require.NoError(t, db.Seed(ctx, f))
	}
	return db
}
