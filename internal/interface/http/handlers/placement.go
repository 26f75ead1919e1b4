package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/islandscholars/placement-hub/internal/application/suggestion"
	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/placement"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVICES
// ══════════════════════════════════════════════════════════════════════════════

// SuggestionService ranks internships for a student.
type SuggestionService interface {
	Rank(ctx context.Context, studentID string) ([]suggestion.Scored, error)
}

// StudentLookup resolves the account that owns a student profile.
type StudentLookup interface {
	GetByID(ctx context.Context, id string) (*placement.Student, error)
}

// NotificationService serves a user's notification inbox.
type NotificationService interface {
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUGGESTIONS
// ══════════════════════════════════════════════════════════════════════════════

// InternshipResponse is a suggested internship as exposed by the API.
type InternshipResponse struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Field          string     `json:"field"`
	Location       string     `json:"location"`
	Duration       string     `json:"duration"`
	StartDate      string     `json:"start_date"`
	SpotsAvailable int        `json:"spots_available"`
	Status         string     `json:"status"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	Score          int        `json:"score"`
}

// GetSuggestions serves GET /suggestions/students/:studentId to the
// student's own account only.
func GetSuggestions(students StudentLookup, svc SuggestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		student, err := students.GetByID(c.Request.Context(), c.Param("studentId"))
		if err != nil {
			FailErr(c, err)
			return
		}
		if student.UserID != GetUserID(c) {
			Fail(c, http.StatusForbidden, "forbidden", "suggestions belong to another student")
			return
		}

		ranked, err := svc.Rank(c.Request.Context(), student.ID)
		if err != nil {
			FailErr(c, err)
			return
		}

		out := make([]InternshipResponse, 0, len(ranked))
		for _, s := range ranked {
			in := s.Internship
			out = append(out, InternshipResponse{
				ID:             in.ID,
				OrganizationID: in.OrganizationID,
				Title:          in.Title,
				Description:    in.Description,
				Field:          in.Field,
				Location:       in.Location,
				Duration:       in.Duration,
				StartDate:      in.StartDate,
				SpotsAvailable: in.SpotsAvailable,
				Status:         string(in.Status),
				CreatedAt:      in.CreatedAt,
				Score:          s.Score,
			})
		}
		List(c, out, len(out))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

// ListNotifications serves GET /notifications[?unread=true].
func ListNotifications(svc NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		unreadOnly := c.Query("unread") == "true" || c.Query("unread") == "1"
		items, err := svc.ListForUser(c.Request.Context(), GetUserID(c), unreadOnly)
		if err != nil {
			FailErr(c, err)
			return
		}
		if items == nil {
			items = []*notification.Notification{}
		}
		List(c, items, len(items))
	}
}

// MarkNotificationRead serves PUT /notifications/:id/read.
func MarkNotificationRead(svc NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := svc.MarkRead(c.Request.Context(), GetUserID(c), id); err != nil {
			FailErr(c, err)
			return
		}
		OK(c, http.StatusOK, gin.H{"id": id, "is_read": true})
	}
}

// MarkAllNotificationsRead serves PUT /notifications/read-all.
func MarkAllNotificationsRead(svc NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.MarkAllRead(c.Request.Context(), GetUserID(c))
		if err != nil {
			FailErr(c, err)
			return
		}
		OK(c, http.StatusOK, gin.H{"updated": n})
	}
}
