package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW APPLICATION COMMAND
// Организация принимает или отклоняет заявку студента.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewApplicationCommand содержит решение по заявке.
type ReviewApplicationCommand struct {
	ApplicationID string
	Status        string

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет команду и возвращает нормализованный статус.
func (c ReviewApplicationCommand) Validate() (placement.ApplicationStatus, error) {
	if c.ApplicationID == "" {
		return "", shared.NewDomainError("application", "Review", shared.ErrInvalidInput, "application_id is required")
	}
	status, err := placement.ParseApplicationStatus(c.Status)
	if err != nil {
		return "", err
	}
	if status == placement.ApplicationPending {
		return "", shared.NewDomainError("application", "Review", shared.ErrInvalidInput,
			"a review must accept or reject")
	}
	return status, nil
}

// ReviewApplicationResult - итог команды.
type ReviewApplicationResult struct {
	ApplicationID string                      `json:"application_id"`
	Status        placement.ApplicationStatus `json:"status"`
	ReviewedAt    time.Time                   `json:"reviewed_at"`

	// Published - событие доставлено подписчикам без ошибок.
	Published bool `json:"published"`
}

// ReviewApplicationHandler обрабатывает ReviewApplicationCommand.
type ReviewApplicationHandler struct {
	applications placement.ApplicationRepository
	publisher    shared.EventPublisher
	now          func() time.Time
	logger       *slog.Logger
}

// NewReviewApplicationHandler создаёт обработчик.
func NewReviewApplicationHandler(
	applications placement.ApplicationRepository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *ReviewApplicationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewApplicationHandler{
		applications: applications,
		publisher:    publisher,
		now:          time.Now,
		logger:       logger.With("command", "review_application"),
	}
}

// Handle сохраняет решение и публикует ApplicationStatusChangedEvent.
// Ошибка публикации не откатывает решение: оно уже сохранено.
func (h *ReviewApplicationHandler) Handle(ctx context.Context, cmd ReviewApplicationCommand) (*ReviewApplicationResult, error) {
	status, err := cmd.Validate()
	if err != nil {
		return nil, fmt.Errorf("review_application: %w", err)
	}

	reviewedAt := h.now()
	if err := h.applications.UpdateStatus(ctx, cmd.ApplicationID, status, reviewedAt); err != nil {
		return nil, fmt.Errorf("review_application: %w", err)
	}

	result := &ReviewApplicationResult{
		ApplicationID: cmd.ApplicationID,
		Status:        status,
		ReviewedAt:    reviewedAt,
		Published:     true,
	}

	event := shared.NewApplicationStatusChangedEvent(cmd.ApplicationID, string(status))
	event.Correlation = cmd.CorrelationID
	if err := h.publisher.Publish(ctx, event); err != nil {
		result.Published = false
		h.logger.Warn("status change saved but event handling failed",
			"application_id", cmd.ApplicationID,
			"error", err,
		)
	}

	return result, nil
}
