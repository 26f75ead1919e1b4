package notification

import (
	"fmt"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATES
// Фиксированные тексты уведомлений для каждого триггера.
// ══════════════════════════════════════════════════════════════════════════════

// Content - заголовок, текст и тип уведомления до сохранения.
type Content struct {
	Title   string
	Message string
	Type    NotificationType
}

// ApplicationStatusContent описывает решение по заявке.
func ApplicationStatusContent(organizationName, status string) Content {
	if strings.EqualFold(status, "accepted") {
		return Content{
			Title:   "Application Accepted!",
			Message: fmt.Sprintf("Congratulations! Your application to %s has been accepted.", organizationName),
			Type:    NotificationTypeApplicationStatus,
		}
	}
	return Content{
		Title:   "Application Update",
		Message: fmt.Sprintf("Your application to %s has been %s.", organizationName, strings.ToLower(status)),
		Type:    NotificationTypeApplicationStatus,
	}
}

// SupervisorAssignmentContent сообщает студенту о назначенном руководителе.
func SupervisorAssignmentContent(firstName, lastName, department string) Content {
	return Content{
		Title:   "Supervisor Assigned",
		Message: fmt.Sprintf("You have been assigned a supervisor: %s %s from %s department.", firstName, lastName, department),
		Type:    NotificationTypeSupervisorAssignment,
	}
}

// DocumentReminderContent перечисляет недостающие документы через запятую.
func DocumentReminderContent(missing []string) Content {
	return Content{
		Title:   "Documents Required",
		Message: fmt.Sprintf("Please upload the following required documents: %s", strings.Join(missing, ", ")),
		Type:    NotificationTypeDocumentReminder,
	}
}

// DeadlineReminderContent напоминает о приближающейся дате начала.
func DeadlineReminderContent(internshipTitle string, daysLeft int) Content {
	return Content{
		Title:   "Application Deadline Approaching",
		Message: fmt.Sprintf("The application deadline for '%s' is in %d days. Don't miss out!", internshipTitle, daysLeft),
		Type:    NotificationTypeDeadlineReminder,
	}
}

// NewApplicationContent сообщает организации о новой заявке.
// Пустой internshipTitle означает прямую заявку.
func NewApplicationContent(studentName, internshipTitle string) Content {
	msg := fmt.Sprintf("New direct application from %s", studentName)
	if internshipTitle != "" {
		msg = fmt.Sprintf("New application from %s for '%s'", studentName, internshipTitle)
	}
	return Content{
		Title:   "New Application Received",
		Message: msg,
		Type:    NotificationTypeNewApplication,
	}
}
