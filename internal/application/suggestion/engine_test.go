package suggestion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
	"github.com/islandscholars/placement-hub/internal/infrastructure/persistence/sqlite"
	"github.com/islandscholars/placement-hub/internal/testutil"
	"github.com/islandscholars/placement-hub/pkg/logger"
	"github.com/islandscholars/placement-hub/pkg/timeutil"
)

func newTestEngine(t *testing.T, f *sqlite.Fixtures) *Engine {
	t.Helper()
	db := testutil.OpenStore(t, f)
	return NewEngine(db.Repositories(), Config{Clock: timeutil.Fixed(testutil.Now)}, logger.Discard())
}

func ids(ranked []Scored) []string {
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Internship.ID
	}
	return out
}

func TestEngine_Rank(t *testing.T) {
	engine := newTestEngine(t, testutil.PlacementFixtures(testutil.Now))

	ranked, err := engine.Rank(context.Background(), testutil.StudentAlice)
	require.NoError(t, err)

	assert.Equal(t, []string{
		testutil.InternshipSE,
		testutil.InternshipPast,
		testutil.InternshipFrontend,
		testutil.InternshipLegal,
		testutil.InternshipData,
	}, ids(ranked))

	scores := make([]int, len(ranked))
	for i, s := range ranked {
		scores[i] = s.Score
	}
	assert.Equal(t, []int{16, 10, 10, 4, 1}, scores)
}

func TestEngine_ExcludesAppliedAndInactive(t *testing.T) {
	engine := newTestEngine(t, testutil.PlacementFixtures(testutil.Now))

	got, err := engine.Suggest(context.Background(), testutil.StudentAlice)
	require.NoError(t, err)

	for _, in := range got {
		assert.NotEqual(t, testutil.InternshipApplied, in.ID)
		assert.NotEqual(t, testutil.InternshipExpired, in.ID)
		assert.True(t, in.IsActive())
	}
}

func TestEngine_StudentWithoutUniversity(t *testing.T) {
	engine := newTestEngine(t, testutil.PlacementFixtures(testutil.Now))

	ranked, err := engine.Rank(context.Background(), testutil.StudentBob)
	require.NoError(t, err)

	// Bob applied to the Law posting; the direct application excludes nothing.
	assert.Equal(t, []string{
		testutil.InternshipSE,
		testutil.InternshipApplied,
		testutil.InternshipFrontend,
		testutil.InternshipData,
		testutil.InternshipPast,
	}, ids(ranked))
}

func TestEngine_AtMostSixNonIncreasing(t *testing.T) {
	now := testutil.Now
	f := &sqlite.Fixtures{
		Users:    []sqlite.FixtureUser{{ID: "u1", Email: "s@x.example"}},
		Students: []sqlite.FixtureStudent{{ID: "s1", UserID: "u1", FieldOfStudy: "Biology"}},
	}
	for i := 0; i < 10; i++ {
		created := now.AddDate(0, 0, -i*5)
		field := "History"
		if i%3 == 0 {
			field = "Marine Biology"
		}
		f.Internships = append(f.Internships, sqlite.FixtureInternship{
			ID:             fmt.Sprintf("in-%02d", i),
			OrganizationID: "org",
			Title:          fmt.Sprintf("Posting %d", i),
			Field:          field,
			StartDate:      timeutil.FormatDate(now.AddDate(0, 1, 0), time.UTC),
			SpotsAvailable: i % 3,
			CreatedAt:      &created,
		})
	}
	engine := newTestEngine(t, f)

	ranked, err := engine.Rank(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, ranked, MaxSuggestions)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
	assert.Equal(t, "in-00", ranked[0].Internship.ID)
}

func TestEngine_TiesKeepCreationOrder(t *testing.T) {
	f := &sqlite.Fixtures{
		Users:    []sqlite.FixtureUser{{ID: "u1", Email: "s@x.example"}},
		Students: []sqlite.FixtureStudent{{ID: "s1", UserID: "u1"}},
		Internships: []sqlite.FixtureInternship{
			{ID: "c", OrganizationID: "o", Title: "C", StartDate: "2030-01-01"},
			{ID: "a", OrganizationID: "o", Title: "A", StartDate: "2030-01-01"},
			{ID: "b", OrganizationID: "o", Title: "B", StartDate: "2030-01-01"},
		},
	}
	engine := newTestEngine(t, f)

	ranked, err := engine.Rank(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(ranked))
	for _, s := range ranked {
		assert.Zero(t, s.Score)
	}
}

func TestEngine_UnknownStudent(t *testing.T) {
	engine := newTestEngine(t, testutil.PlacementFixtures(testutil.Now))

	_, err := engine.Suggest(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrStudentNotFound))
}

func TestEngine_NoActiveInternships(t *testing.T) {
	f := &sqlite.Fixtures{
		Users:    []sqlite.FixtureUser{{ID: "u1", Email: "s@x.example"}},
		Students: []sqlite.FixtureStudent{{ID: "s1", UserID: "u1"}},
	}
	engine := newTestEngine(t, f)

	got, err := engine.Suggest(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScore(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	fresh := now.AddDate(0, 0, -3)
	month := now.AddDate(0, 0, -20)
	stale := now.AddDate(0, 0, -45)

	tests := []struct {
		name    string
		profile Profile
		in      placement.Internship
		want    int
	}{
		{
			name:    "field of study is case-insensitive substring",
			profile: Profile{FieldOfStudy: "computer science"},
			in:      placement.Internship{Field: "Applied Computer Science"},
			want:    WeightFieldOfStudy,
		},
		{
			name:    "applied field matches exactly",
			profile: Profile{AppliedFields: map[string]bool{"Finance": true}},
			in:      placement.Internship{Field: "Finance"},
			want:    WeightAppliedField,
		},
		{
			name:    "location affinity",
			profile: Profile{UniversityLocation: "kisumu"},
			in:      placement.Internship{Location: "Kisumu West"},
			want:    WeightLocationAffinity,
		},
		{
			name: "fresh week",
			in:   placement.Internship{CreatedAt: &fresh},
			want: WeightFreshWeek,
		},
		{
			name: "fresh month",
			in:   placement.Internship{CreatedAt: &month},
			want: WeightFreshMonth,
		},
		{
			name: "stale",
			in:   placement.Internship{CreatedAt: &stale},
			want: 0,
		},
		{
			name: "spare spots",
			in:   placement.Internship{SpotsAvailable: 2},
			want: WeightSpareSpots,
		},
		{
			name:    "missing data scores nothing",
			profile: Profile{FieldOfStudy: "Law", UniversityLocation: "Nairobi"},
			in:      placement.Internship{SpotsAvailable: 1},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			assert.Equal(t, tt.want, Score(tt.profile, &in, now, time.UTC))
		})
	}
}
