package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGN SUPERVISOR COMMAND
// Университет назначает студенту руководителя практики.
// ══════════════════════════════════════════════════════════════════════════════

// AssignSupervisorCommand содержит назначение.
type AssignSupervisorCommand struct {
	StudentID     string
	SupervisorID  string
	CorrelationID string
}

// Validate проверяет команду.
func (c AssignSupervisorCommand) Validate() error {
	if c.StudentID == "" || c.SupervisorID == "" {
		return shared.NewDomainError("student", "AssignSupervisor", shared.ErrInvalidInput,
			"student_id and supervisor_id are required")
	}
	return nil
}

// AssignSupervisorHandler обрабатывает AssignSupervisorCommand.
type AssignSupervisorHandler struct {
	students  placement.StudentRepository
	directory placement.DirectoryRepository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewAssignSupervisorHandler создаёт обработчик.
func NewAssignSupervisorHandler(repos placement.Repositories, publisher shared.EventPublisher, logger *slog.Logger) *AssignSupervisorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssignSupervisorHandler{
		students:  repos.Students,
		directory: repos.Directory,
		publisher: publisher,
		logger:    logger.With("command", "assign_supervisor"),
	}
}

// Handle проверяет руководителя, сохраняет назначение и публикует
// SupervisorAssignedEvent. Возвращает true, если событие обработано без ошибок.
func (h *AssignSupervisorHandler) Handle(ctx context.Context, cmd AssignSupervisorCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, fmt.Errorf("assign_supervisor: %w", err)
	}

	if _, err := h.directory.GetSupervisor(ctx, cmd.SupervisorID); err != nil {
		return false, fmt.Errorf("assign_supervisor: %w", err)
	}
	if err := h.students.AssignSupervisor(ctx, cmd.StudentID, cmd.SupervisorID); err != nil {
		return false, fmt.Errorf("assign_supervisor: %w", err)
	}

	event := shared.NewSupervisorAssignedEvent(cmd.StudentID, cmd.SupervisorID)
	event.Correlation = cmd.CorrelationID
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("assignment saved but event handling failed",
			"student_id", cmd.StudentID,
			"supervisor_id", cmd.SupervisorID,
			"error", err,
		)
		return false, nil
	}
	return true, nil
}
