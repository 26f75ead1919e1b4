package shared

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// СОБЫТИЯ
// CRUD-слой публикует их после коммита. Движок автоматизации подписан на
// каждый тип и реагирует уведомлениями.
// ══════════════════════════════════════════════════════════════════════════════

// EventType - метка варианта события.
type EventType string

const (
	EventApplicationCreated       EventType = "application.created"
	EventApplicationStatusChanged EventType = "application.status_changed"
	EventSupervisorAssigned       EventType = "student.supervisor_assigned"
)

// Event - общее поведение всех вариантов. Обработчик различает их
// по конкретному типу через type switch.
type Event interface {
	EventType() EventType
	AggregateID() string
	OccurredAt() time.Time
	CorrelationID() string
}

// EventMeta - служебные поля, встраиваемые в каждый вариант.
type EventMeta struct {
	Type        EventType `json:"type"`
	Aggregate   string    `json:"aggregate_id"`
	At          time.Time `json:"occurred_at"`
	Correlation string    `json:"correlation_id,omitempty"`
}

func (m EventMeta) EventType() EventType { return m.Type }
func (m EventMeta) AggregateID() string { return m.Aggregate }
func (m EventMeta) OccurredAt() time.Time { return m.At }
func (m EventMeta) CorrelationID() string { return m.Correlation }

func newMeta(t EventType, aggregateID string) EventMeta {
	return EventMeta{Type: t, Aggregate: aggregateID, At: time.Now()}
}

// ApplicationCreatedEvent - студент подал заявку.
type ApplicationCreatedEvent struct {
	EventMeta
	ApplicationID string `json:"application_id"`
}

func NewApplicationCreatedEvent(applicationID string) ApplicationCreatedEvent {
	return ApplicationCreatedEvent{
		EventMeta:     newMeta(EventApplicationCreated, applicationID),
		ApplicationID: applicationID,
	}
}

// ApplicationStatusChangedEvent - организация рассмотрела заявку.
// NewStatus хранится как пришёл, сравнение без учёта регистра.
type ApplicationStatusChangedEvent struct {
	EventMeta
	ApplicationID string `json:"application_id"`
	NewStatus     string `json:"new_status"`
}

func NewApplicationStatusChangedEvent(applicationID, newStatus string) ApplicationStatusChangedEvent {
	return ApplicationStatusChangedEvent{
		EventMeta:     newMeta(EventApplicationStatusChanged, applicationID),
		ApplicationID: applicationID,
		NewStatus:     newStatus,
	}
}

// SupervisorAssignedEvent - университет назначил студенту руководителя.
type SupervisorAssignedEvent struct {
	EventMeta
	StudentID    string `json:"student_id"`
	SupervisorID string `json:"supervisor_id"`
}

func NewSupervisorAssignedEvent(studentID, supervisorID string) SupervisorAssignedEvent {
	return SupervisorAssignedEvent{
		EventMeta:    newMeta(EventSupervisorAssigned, studentID),
		StudentID:    studentID,
		SupervisorID: supervisorID,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ШИНА
// ══════════════════════════════════════════════════════════════════════════════

// EventHandler обрабатывает одно событие. Ошибка возвращается издателю.
type EventHandler func(ctx context.Context, event Event) error

// EventPublisher доставляет событие подписчикам и возвращает их ошибки.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventSubscriber регистрирует обработчик на тип события.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
}
