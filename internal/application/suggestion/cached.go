package suggestion

import (
	"context"
	"log/slog"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
)

// Cache хранит готовые рейтинги по студентам.
type Cache interface {
	// GetSuggestions возвращает рейтинг и true, если он есть в кеше.
	GetSuggestions(ctx context.Context, studentID string) ([]Scored, bool, error)
	SetSuggestions(ctx context.Context, studentID string, ranked []Scored) error
	InvalidateStudent(ctx context.Context, studentID string) error
	InvalidateAll(ctx context.Context) error
}

// Ranker - общий контракт Engine и CachedEngine.
type Ranker interface {
	Suggest(ctx context.Context, studentID string) ([]*placement.Internship, error)
	Rank(ctx context.Context, studentID string) ([]Scored, error)
}

// CachedEngine кеширует результат Engine. Ошибки кеша не ломают выдачу:
// при недоступном кеше рейтинг считается заново.
type CachedEngine struct {
	engine *Engine
	cache  Cache
	logger *slog.Logger
}

// NewCachedEngine оборачивает движок кешем.
func NewCachedEngine(engine *Engine, cache Cache, logger *slog.Logger) *CachedEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEngine{
		engine: engine,
		cache:  cache,
		logger: logger.With("component", "suggestion_cache"),
	}
}

// Suggest возвращает рекомендации из кеша или считает их.
func (c *CachedEngine) Suggest(ctx context.Context, studentID string) ([]*placement.Internship, error) {
	ranked, err := c.Rank(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]*placement.Internship, len(ranked))
	for i, s := range ranked {
		out[i] = s.Internship
	}
	return out, nil
}

// Rank возвращает рейтинг со счётом из кеша или считает его.
func (c *CachedEngine) Rank(ctx context.Context, studentID string) ([]Scored, error) {
	ranked, ok, err := c.cache.GetSuggestions(ctx, studentID)
	switch {
	case err != nil:
		c.logger.Warn("cache read failed", "student_id", studentID, "error", err)
	case ok:
		stale, err := c.appliedSince(ctx, studentID, ranked)
		if err != nil {
			return nil, err
		}
		if !stale {
			return ranked, nil
		}
		c.logger.Debug("cached ranking lists an applied internship, recomputing", "student_id", studentID)
	}

	ranked, err = c.engine.Rank(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetSuggestions(ctx, studentID, ranked); err != nil {
		c.logger.Warn("cache write failed", "student_id", studentID, "error", err)
	}
	return ranked, nil
}

// appliedSince сверяет закешированный рейтинг с текущими заявками студента.
// Запись рейтинга могла лечь в кеш уже после сброса по новой заявке, поэтому
// попадание в кеш не доказывает, что заявленные стажировки исключены.
func (c *CachedEngine) appliedSince(ctx context.Context, studentID string, ranked []Scored) (bool, error) {
	applied, err := c.engine.appliedIDs(ctx, studentID)
	if err != nil {
		return false, err
	}
	for _, s := range ranked {
		if applied[s.Internship.ID] {
			return true, nil
		}
	}
	return false, nil
}

// InvalidateStudent сбрасывает рейтинг студента.
func (c *CachedEngine) InvalidateStudent(ctx context.Context, studentID string) error {
	return c.cache.InvalidateStudent(ctx, studentID)
}

// InvalidateAll сбрасывает все рейтинги.
func (c *CachedEngine) InvalidateAll(ctx context.Context) error {
	return c.cache.InvalidateAll(ctx)
}
