// Package notify содержит диспетчер уведомлений: единственную точку,
// через которую движок создаёт и сохраняет уведомления.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// IDGenerator выдаёт идентификаторы новых уведомлений.
type IDGenerator func() string

// NewUUID - генератор по умолчанию.
func NewUUID() string {
	return uuid.New().String()
}

// Dispatcher создаёт уведомления и сохраняет их в Store.
// Дедупликации и ограничения частоты нет: каждый вызов - новая запись.
type Dispatcher struct {
	store  notification.Store
	newID  IDGenerator
	now    func() time.Time
	logger *slog.Logger
}

// Option настраивает Dispatcher.
type Option func(*Dispatcher)

// WithIDGenerator подменяет генератор ID.
func WithIDGenerator(gen IDGenerator) Option {
	return func(d *Dispatcher) { d.newID = gen }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher создаёт диспетчер.
func NewDispatcher(store notification.Store, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		store:  store,
		newID:  NewUUID,
		now:    time.Now,
		logger: logger.With("component", "notification_dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch создаёт непрочитанное уведомление и сохраняет его.
// Ошибка сохранения возвращается вызывающему.
func (d *Dispatcher) Dispatch(ctx context.Context, recipientUserID, title, message string, notifType notification.NotificationType) (*notification.Notification, error) {
	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:        notification.NotificationID(d.newID()),
		UserID:    notification.RecipientID(recipientUserID),
		Title:     title,
		Message:   message,
		Type:      notifType,
		CreatedAt: d.now(),
	})
	if err != nil {
		return nil, err
	}

	if err := d.store.Save(ctx, n); err != nil {
		return nil, fmt.Errorf("save notification: %w", err)
	}

	d.logger.Debug("notification dispatched",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
	)

	return n, nil
}

// Send - Dispatch для готового шаблона.
func (d *Dispatcher) Send(ctx context.Context, recipientUserID string, c notification.Content) (*notification.Notification, error) {
	return d.Dispatch(ctx, recipientUserID, c.Title, c.Message, c.Type)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ListForUser возвращает уведомления пользователя, новые первыми.
func (d *Dispatcher) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*notification.Notification, error) {
	return d.store.GetByUser(ctx, notification.RecipientID(userID), unreadOnly)
}

// MarkRead помечает уведомление прочитанным. Чужое уведомление
// считается не найденным.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, id string) error {
	n, err := d.store.GetByID(ctx, notification.NotificationID(id))
	if err != nil {
		return err
	}
	if n.UserID.String() != userID {
		return shared.ErrNotificationNotFound
	}
	if n.IsRead {
		return nil
	}
	return d.store.MarkRead(ctx, n.ID)
}

// MarkAllRead помечает прочитанными все уведомления пользователя.
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return d.store.MarkAllRead(ctx, notification.RecipientID(userID))
}
