// Package notification содержит доменную модель уведомлений Island Scholars.
// Уведомления сохраняются в хранилище; клиенты забирают их опросом.
package notification

import (
	"context"
	"strings"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ИДЕНТИФИКАТОРЫ И ТИПЫ
// ══════════════════════════════════════════════════════════════════════════════

type NotificationID string

func (id NotificationID) IsValid() bool { return id != "" }
func (id NotificationID) String() string { return string(id) }

// RecipientID - пользователь, которому адресовано уведомление.
// Строка из одних пробелов считается пустой.
type RecipientID string

func (id RecipientID) IsValid() bool { return strings.TrimSpace(string(id)) != "" }
func (id RecipientID) String() string { return string(id) }

// NotificationType - повод уведомления, хранится строкой в колонке type.
type NotificationType string

const (
	// NotificationTypeApplicationStatus - заявку студента рассмотрели.
	NotificationTypeApplicationStatus NotificationType = "application_status"

	// NotificationTypeSupervisorAssignment - студенту назначен руководитель.
	NotificationTypeSupervisorAssignment NotificationType = "supervisor_assignment"

	// NotificationTypeDocumentReminder - принятому студенту не хватает документов.
	NotificationTypeDocumentReminder NotificationType = "document_reminder"

	// NotificationTypeDeadlineReminder - до начала стажировки осталось 7, 3 или 1 день.
	NotificationTypeDeadlineReminder NotificationType = "deadline_reminder"

	// NotificationTypeNewApplication - организация получила заявку.
	NotificationTypeNewApplication NotificationType = "new_application"
)

// IsValid требует непустую метку. Набор меток открыт: константы выше
// покрывают уведомления самого хаба, вызывающие могут передать свои.
func (t NotificationType) IsValid() bool { return strings.TrimSpace(string(t)) != "" }

func (t NotificationType) String() string { return string(t) }

// ══════════════════════════════════════════════════════════════════════════════
// УВЕДОМЛЕНИЕ
// ══════════════════════════════════════════════════════════════════════════════

// Notification - сохранённое сообщение для пользователя.
type Notification struct {
	ID        NotificationID   `json:"id"`
	UserID    RecipientID      `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewNotificationParams - входные данные NewNotification. Нулевой
// CreatedAt заменяется текущим временем.
type NewNotificationParams struct {
	ID        NotificationID
	UserID    RecipientID
	Title     string
	Message   string
	Type      NotificationType
	CreatedAt time.Time
}

// NewNotification создаёт непрочитанное уведомление.
func NewNotification(params NewNotificationParams) (*Notification, error) {
	if !params.ID.IsValid() {
		return nil, shared.NewDomainError("notification", "New", shared.ErrInvalidID, "notification id is required")
	}
	if !params.UserID.IsValid() {
		return nil, shared.ErrEmptyRecipient
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, shared.ErrEmptyTitle
	}
	if !params.Type.IsValid() {
		return nil, shared.NewDomainError("notification", "New", shared.ErrEmptyValue, "notification type is required")
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &Notification{
		ID:        params.ID,
		UserID:    params.UserID,
		Title:     params.Title,
		Message:   params.Message,
		Type:      params.Type,
		IsRead:    false,
		CreatedAt: createdAt,
	}, nil
}

// MarkRead помечает уведомление прочитанным.
func (n *Notification) MarkRead() {
	n.IsRead = true
}

// ══════════════════════════════════════════════════════════════════════════════
// ЖУРНАЛ НАПОМИНАНИЙ
// ══════════════════════════════════════════════════════════════════════════════

// DeadlineReminder - запись об отправленном напоминании о дедлайне.
// Тройка (InternshipID, StudentID, DaysLeft) уникальна.
type DeadlineReminder struct {
	InternshipID string
	StudentID    string
	DaysLeft     int
	SentAt       time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ХРАНИЛИЩА
// ══════════════════════════════════════════════════════════════════════════════

// Store сохраняет и возвращает уведомления.
type Store interface {
	// Save сохраняет новое уведомление.
	Save(ctx context.Context, n *Notification) error

	// GetByID возвращает уведомление.
	// Возвращает ErrNotificationNotFound, если уведомление не найдено.
	GetByID(ctx context.Context, id NotificationID) (*Notification, error)

	// GetByUser возвращает уведомления пользователя, новые первыми.
	GetByUser(ctx context.Context, userID RecipientID, unreadOnly bool) ([]*Notification, error)

	// MarkRead помечает одно уведомление прочитанным.
	// Возвращает ErrNotificationNotFound, если уведомление не найдено.
	MarkRead(ctx context.Context, id NotificationID) error

	// MarkAllRead помечает все уведомления пользователя прочитанными и
	// возвращает число изменённых.
	MarkAllRead(ctx context.Context, userID RecipientID) (int64, error)
}

// ReminderLedger хранит отправленные напоминания о дедлайнах.
type ReminderLedger interface {
	// Record сохраняет запись и возвращает true, если её ещё не было.
	Record(ctx context.Context, r DeadlineReminder) (bool, error)

	// Forget удаляет запись, чтобы следующий проход повторил отправку.
	Forget(ctx context.Context, r DeadlineReminder) error
}
