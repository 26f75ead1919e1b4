// Package automation содержит триггеры жизненного цикла размещения.
// Триггеры вызываются синхронно сразу после фиксации изменения в CRUD-слое
// и превращают переходы состояний в уведомления.
//
// Правила:
//   - сущность не найдена - ошибка возвращается вызывающему;
//   - уведомление не сохранилось - ошибка логируется и проглатывается,
//     исходное изменение уже зафиксировано.
package automation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// NotificationSender отправляет готовый шаблон получателю.
type NotificationSender interface {
	Send(ctx context.Context, recipientUserID string, c notification.Content) (*notification.Notification, error)
}

// SuggestionInvalidator сбрасывает закешированные рекомендации студента.
type SuggestionInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string) error
}

// Engine реагирует на доменные события.
type Engine struct {
	repos       placement.Repositories
	sender      NotificationSender
	invalidator SuggestionInvalidator
	logger      *slog.Logger
}

// NewEngine создаёт движок триггеров. invalidator может быть nil.
func NewEngine(repos placement.Repositories, sender NotificationSender, invalidator SuggestionInvalidator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repos:       repos,
		sender:      sender,
		invalidator: invalidator,
		logger:      logger.With("component", "automation_engine"),
	}
}

// Subscribe регистрирует обработчики всех триггеров на шине.
func (e *Engine) Subscribe(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventApplicationCreated,
		shared.EventApplicationStatusChanged,
		shared.EventSupervisorAssigned,
	} {
		if err := bus.Subscribe(t, e.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle направляет событие в нужный триггер.
// Реализует shared.EventHandler.
func (e *Engine) Handle(ctx context.Context, event shared.Event) error {
	switch ev := event.(type) {
	case shared.ApplicationCreatedEvent:
		return e.OnApplicationCreated(ctx, ev.ApplicationID)
	case shared.ApplicationStatusChangedEvent:
		return e.OnApplicationStatusChanged(ctx, ev.ApplicationID, ev.NewStatus)
	case shared.SupervisorAssignedEvent:
		return e.OnSupervisorAssigned(ctx, ev.StudentID, ev.SupervisorID)
	default:
		e.logger.Warn("unsupported event", "event_type", event.EventType())
		return nil
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// APPLICATION CREATED
// ═══════════════════════════════════════════════════════════════════════════

// OnApplicationCreated уведомляет аккаунт организации о новой заявке.
// Если у организации нет аккаунта с её email, ничего не происходит.
func (e *Engine) OnApplicationCreated(ctx context.Context, applicationID string) error {
	app, err := e.repos.Applications.GetByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("get application: %w", err)
	}

	student, err := e.repos.Students.GetByID(ctx, app.StudentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	studentUser, err := e.repos.Directory.GetUser(ctx, student.UserID)
	if err != nil {
		return fmt.Errorf("get student user: %w", err)
	}

	if e.invalidator != nil {
		if err := e.invalidator.InvalidateStudent(ctx, student.ID); err != nil {
			e.logger.Warn("failed to invalidate suggestions", "student_id", student.ID, "error", err)
		}
	}

	orgID := app.OrganizationID
	internshipTitle := ""
	if !app.IsDirect() {
		internship, err := e.repos.Internships.GetByID(ctx, app.InternshipID)
		if err != nil {
			return fmt.Errorf("get internship: %w", err)
		}
		orgID = internship.OrganizationID
		internshipTitle = internship.Title
	}
	if orgID == "" {
		e.logger.Warn("application has no organization", "application_id", app.ID)
		return nil
	}

	org, err := e.repos.Directory.GetOrganization(ctx, orgID)
	if err != nil {
		return fmt.Errorf("get organization: %w", err)
	}

	orgUser, err := e.repos.Directory.GetUserByEmail(ctx, org.Email)
	if err != nil {
		if shared.IsNotFound(err) {
			e.logger.Debug("organization has no user account, skipping",
				"organization_id", org.ID,
			)
			return nil
		}
		return fmt.Errorf("get organization user: %w", err)
	}

	e.send(ctx, orgUser.ID, notification.NewApplicationContent(studentUser.FullName(), internshipTitle),
		"application_id", app.ID)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// APPLICATION STATUS CHANGED
// ═══════════════════════════════════════════════════════════════════════════

// OnApplicationStatusChanged уведомляет студента о принятии заявки.
// Отклонение и прочие статусы уведомлений не создают.
func (e *Engine) OnApplicationStatusChanged(ctx context.Context, applicationID, newStatus string) error {
	app, err := e.repos.Applications.GetByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("get application: %w", err)
	}

	status, err := placement.ParseApplicationStatus(newStatus)
	if err != nil || status != placement.ApplicationAccepted {
		e.logger.Debug("status change does not notify",
			"application_id", app.ID,
			"new_status", newStatus,
		)
		return nil
	}

	student, err := e.repos.Students.GetByID(ctx, app.StudentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}

	orgName, err := e.organizationName(ctx, app)
	if err != nil {
		return err
	}

	e.send(ctx, student.UserID, notification.ApplicationStatusContent(orgName, string(status)),
		"application_id", app.ID)
	return nil
}

// organizationName берёт организацию стажировки, иначе прямую организацию заявки.
func (e *Engine) organizationName(ctx context.Context, app *placement.Application) (string, error) {
	orgID := app.OrganizationID
	if !app.IsDirect() {
		internship, err := e.repos.Internships.GetByID(ctx, app.InternshipID)
		if err != nil {
			return "", fmt.Errorf("get internship: %w", err)
		}
		orgID = internship.OrganizationID
	}
	if orgID == "" {
		return "", shared.WrapError("application", "ResolveOrganization", shared.ErrNotFound,
			"application has no organization", nil)
	}
	org, err := e.repos.Directory.GetOrganization(ctx, orgID)
	if err != nil {
		return "", fmt.Errorf("get organization: %w", err)
	}
	return org.Name, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// SUPERVISOR ASSIGNED
// ═══════════════════════════════════════════════════════════════════════════

// OnSupervisorAssigned сообщает студенту имя и кафедру руководителя.
func (e *Engine) OnSupervisorAssigned(ctx context.Context, studentID, supervisorID string) error {
	student, err := e.repos.Students.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}

	supervisor, err := e.repos.Directory.GetSupervisor(ctx, supervisorID)
	if err != nil {
		return fmt.Errorf("get supervisor: %w", err)
	}
	supervisorUser, err := e.repos.Directory.GetUser(ctx, supervisor.UserID)
	if err != nil {
		return fmt.Errorf("get supervisor user: %w", err)
	}

	e.send(ctx, student.UserID, notification.SupervisorAssignmentContent(
		supervisorUser.FirstName, supervisorUser.LastName, supervisor.Department),
		"student_id", student.ID)
	return nil
}

// send отправляет уведомление; ошибка не критична и только логируется.
func (e *Engine) send(ctx context.Context, userID string, c notification.Content, attrs ...any) {
	n, err := e.sender.Send(ctx, userID, c)
	if err != nil {
		e.logger.Error("failed to dispatch notification",
			append([]any{"user_id", userID, "type", c.Type, "error", err}, attrs...)...,
		)
		return
	}
	e.logger.Info("notification sent",
		append([]any{"notification_id", n.ID, "user_id", userID, "type", c.Type}, attrs...)...,
	)
}
