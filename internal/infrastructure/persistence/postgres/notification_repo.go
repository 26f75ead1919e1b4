package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Store and
// notification.ReminderLedger for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

const notificationColumns = `id, user_id, title, message, type, is_read, created_at`

// Save inserts a notification.
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		n.ID.String(),
		n.UserID.String(),
		n.Title,
		n.Message,
		n.Type.String(),
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("notification", "Save", shared.ErrAlreadyExists, "notification already exists")
		}
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// GetByID returns a notification by ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id notification.NotificationID) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	return scanNotification(r.conn.QueryRow(ctx, query, id.String()))
}

// GetByUser returns a user's notifications, newest first.
func (r *NotificationRepository) GetByUser(ctx context.Context, userID notification.RecipientID, unreadOnly bool) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead marks a single notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id notification.NotificationID) error {
	tag, err := r.conn.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of a user as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID notification.RecipientID) (int64, error) {
	tag, err := r.conn.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Record inserts a reminder record; false means it already existed.
func (r *NotificationRepository) Record(ctx context.Context, rem notification.DeadlineReminder) (bool, error) {
	tag, err := r.conn.Exec(ctx, `
		INSERT INTO deadline_reminders (internship_id, student_id, days_left, sent_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (internship_id, student_id, days_left) DO NOTHING
	`, rem.InternshipID, rem.StudentID, rem.DaysLeft, rem.SentAt)
	if err != nil {
		return false, fmt.Errorf("failed to record reminder: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Forget removes a reminder record.
func (r *NotificationRepository) Forget(ctx context.Context, rem notification.DeadlineReminder) error {
	_, err := r.conn.Exec(ctx, `
		DELETE FROM deadline_reminders
		WHERE internship_id = $1 AND student_id = $2 AND days_left = $3
	`, rem.InternshipID, rem.StudentID, rem.DaysLeft)
	if err != nil {
		return fmt.Errorf("failed to forget reminder: %w", err)
	}
	return nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var id, userID, notifType string

	err := row.Scan(&id, &userID, &n.Title, &n.Message, &notifType, &n.IsRead, &n.CreatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	n.ID = notification.NotificationID(id)
	n.UserID = notification.RecipientID(userID)
	n.Type = notification.NotificationType(notifType)
	return &n, nil
}
