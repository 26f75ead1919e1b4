// Package suggestion ранжирует активные стажировки для студента.
//
// Счёт складывается из фиксированных весов:
//
//	+10  направление студента входит в поле стажировки (без учёта регистра)
//	 +5  поле стажировки совпадает с полем уже поданной заявки
//	 +3  локация стажировки содержит локацию университета
//	 +2  стажировка создана меньше 7 дней назад, иначе +1 если меньше 30
//	 +1  свободных мест больше одного
//
// Стажировки, на которые студент уже подал заявку, исключаются.
package suggestion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/pkg/timeutil"
)

// Веса факторов.
const (
	WeightFieldOfStudy     = 10
	WeightAppliedField     = 5
	WeightLocationAffinity = 3
	WeightFreshWeek        = 2
	WeightFreshMonth       = 1
	WeightSpareSpots       = 1

	// MaxSuggestions - размер выдачи.
	MaxSuggestions = 6
)

// Scored - стажировка со своим счётом.
type Scored struct {
	Internship *placement.Internship `json:"internship"`
	Score      int                   `json:"score"`
}

// Profile - то, что известно о студенте для подсчёта.
type Profile struct {
	FieldOfStudy       string
	UniversityLocation string
	AppliedFields      map[string]bool
}

// Engine считает рекомендации. Только чтение, безопасен для параллельных вызовов.
type Engine struct {
	repos  placement.Repositories
	clock  timeutil.Clock
	loc    *time.Location
	logger *slog.Logger
}

// Config содержит параметры движка.
type Config struct {
	Clock    timeutil.Clock
	Location *time.Location
}

// NewEngine создаёт движок рекомендаций.
func NewEngine(repos placement.Repositories, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.SystemClock
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{
		repos:  repos,
		clock:  cfg.Clock,
		loc:    cfg.Location,
		logger: logger.With("component", "suggestion_engine"),
	}
}

// Suggest возвращает до шести стажировок, самые подходящие первыми.
// Неизвестный студент - ErrStudentNotFound.
func (e *Engine) Suggest(ctx context.Context, studentID string) ([]*placement.Internship, error) {
	ranked, err := e.Rank(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]*placement.Internship, len(ranked))
	for i, s := range ranked {
		out[i] = s.Internship
	}
	return out, nil
}

// Rank - то же, что Suggest, но со счётом каждой позиции.
func (e *Engine) Rank(ctx context.Context, studentID string) ([]Scored, error) {
	student, err := e.repos.Students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	active, err := e.repos.Internships.GetByStatus(ctx, placement.InternshipActive)
	if err != nil {
		return nil, fmt.Errorf("list active internships: %w", err)
	}

	applied, appliedFields, err := e.appliedInternships(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	profile := Profile{
		FieldOfStudy:  student.FieldOfStudy,
		AppliedFields: appliedFields,
	}
	if student.UniversityID != "" {
		uni, err := e.repos.Directory.GetUniversity(ctx, student.UniversityID)
		if err != nil {
			e.logger.Warn("university lookup failed, skipping location factor",
				"student_id", student.ID,
				"university_id", student.UniversityID,
				"error", err,
			)
		} else {
			profile.UniversityLocation = uni.Location
		}
	}

	now := e.clock()
	candidates := make([]Scored, 0, len(active))
	for _, in := range active {
		if applied[in.ID] {
			continue
		}
		candidates = append(candidates, Scored{
			Internship: in,
			Score:      Score(profile, in, now, e.loc),
		})
	}

	// Stable: equal scores keep repository (creation) order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > MaxSuggestions {
		candidates = candidates[:MaxSuggestions]
	}

	e.logger.Debug("suggestions ranked",
		"student_id", student.ID,
		"active", len(active),
		"returned", len(candidates),
	)

	return candidates, nil
}

// appliedInternships собирает ID стажировок с заявками и их поля.
func (e *Engine) appliedInternships(ctx context.Context, studentID string) (map[string]bool, map[string]bool, error) {
	apps, err := e.repos.Applications.GetByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, fmt.Errorf("list student applications: %w", err)
	}

	applied := make(map[string]bool, len(apps))
	fields := make(map[string]bool)
	for _, app := range apps {
		if app.IsDirect() || applied[app.InternshipID] {
			continue
		}
		applied[app.InternshipID] = true

		in, err := e.repos.Internships.GetByID(ctx, app.InternshipID)
		if err != nil {
			e.logger.Warn("applied internship lookup failed",
				"application_id", app.ID,
				"internship_id", app.InternshipID,
				"error", err,
			)
			continue
		}
		if in.Field != "" {
			fields[in.Field] = true
		}
	}
	return applied, fields, nil
}

// appliedIDs - только ID стажировок с заявками, одним запросом.
func (e *Engine) appliedIDs(ctx context.Context, studentID string) (map[string]bool, error) {
	apps, err := e.repos.Applications.GetByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}
	applied := make(map[string]bool, len(apps))
	for _, app := range apps {
		if !app.IsDirect() {
			applied[app.InternshipID] = true
		}
	}
	return applied, nil
}

// Score считает счёт одной стажировки. Отсутствующие данные дают 0 по фактору.
func Score(p Profile, in *placement.Internship, now time.Time, loc *time.Location) int {
	score := 0

	if p.FieldOfStudy != "" && in.Field != "" &&
		strings.Contains(strings.ToLower(in.Field), strings.ToLower(p.FieldOfStudy)) {
		score += WeightFieldOfStudy
	}

	if in.Field != "" && p.AppliedFields[in.Field] {
		score += WeightAppliedField
	}

	if p.UniversityLocation != "" && in.Location != "" &&
		strings.Contains(strings.ToLower(in.Location), strings.ToLower(p.UniversityLocation)) {
		score += WeightLocationAffinity
	}

	if in.CreatedAt != nil {
		switch days := timeutil.DaysSince(*in.CreatedAt, now, loc); {
		case days < 7:
			score += WeightFreshWeek
		case days < 30:
			score += WeightFreshMonth
		}
	}

	if in.SpotsAvailable > 1 {
		score += WeightSpareSpots
	}

	return score
}
