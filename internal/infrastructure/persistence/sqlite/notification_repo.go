package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
)

// NotificationRepository implements notification.Store and notification.ReminderLedger.
type NotificationRepository struct {
	db *sql.DB
}

const notificationColumns = `id, user_id, title, message, type, is_read, created_at`

func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID.String(), n.UserID.String(), n.Title, n.Message, n.Type.String(), n.IsRead, n.CreatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return shared.NewDomainError("notification", "Save", shared.ErrAlreadyExists, "notification already exists")
		}
		return fmt.Errorf("sqlite: save notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id notification.NotificationID) (*notification.Notification, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id.String())
	return scanNotification(row)
}

// GetByUser returns a user's notifications, newest first.
func (r *NotificationRepository) GetByUser(ctx context.Context, userID notification.RecipientID, unreadOnly bool) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: query notifications: %w", err)
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

func (r *NotificationRepository) MarkRead(ctx context.Context, id notification.NotificationID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("sqlite: mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return shared.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID notification.RecipientID) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID.String())
	if err != nil {
		return 0, fmt.Errorf("sqlite: mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

// Record inserts a reminder record; false means it already existed.
func (r *NotificationRepository) Record(ctx context.Context, rem notification.DeadlineReminder) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO deadline_reminders (internship_id, student_id, days_left, sent_at)
		VALUES (?, ?, ?, ?)
	`, rem.InternshipID, rem.StudentID, rem.DaysLeft, rem.SentAt.UTC())
	if err != nil {
		return false, fmt.Errorf("sqlite: record reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *NotificationRepository) Forget(ctx context.Context, rem notification.DeadlineReminder) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM deadline_reminders WHERE internship_id = ? AND student_id = ? AND days_left = ?`,
		rem.InternshipID, rem.StudentID, rem.DaysLeft)
	if err != nil {
		return fmt.Errorf("sqlite: forget reminder: %w", err)
	}
	return nil
}

func scanNotification(row rowScanner) (*notification.Notification, error) {
	var n notification.Notification
	var id, userID, notifType string
	err := row.Scan(&id, &userID, &n.Title, &n.Message, &notifType, &n.IsRead, &n.CreatedAt)
	if isNoRows(err) {
		return nil, shared.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan notification: %w", err)
	}
	n.ID = notification.NotificationID(id)
	n.UserID = notification.RecipientID(userID)
	n.Type = notification.NotificationType(notifType)
	return &n, nil
}
