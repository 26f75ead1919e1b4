package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/islandscholars/placement-hub/internal/application/command"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
	"github.com/islandscholars/placement-hub/internal/infrastructure/scheduler"
)

// JobRunner exposes the sweep scheduler.
type JobRunner interface {
	ListJobs() []scheduler.JobInfo
	RunNow(ctx context.Context, jobName string) (*scheduler.JobResult, error)
	GetMetrics() *scheduler.SchedulerMetrics
}

// ApplicationReviewer records review decisions.
type ApplicationReviewer interface {
	Handle(ctx context.Context, cmd command.ReviewApplicationCommand) (*command.ReviewApplicationResult, error)
}

// SupervisorAssigner records supervisor assignments.
type SupervisorAssigner interface {
	Handle(ctx context.Context, cmd command.AssignSupervisorCommand) (bool, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT TRIGGERS
// ══════════════════════════════════════════════════════════════════════════════

type applicationCreatedRequest struct {
	ApplicationID string `json:"application_id" binding:"required"`
}

type applicationStatusRequest struct {
	ApplicationID string `json:"application_id" binding:"required"`
	NewStatus     string `json:"new_status" binding:"required"`
}

type supervisorAssignedRequest struct {
	StudentID    string `json:"student_id" binding:"required"`
	SupervisorID string `json:"supervisor_id" binding:"required"`
}

// ApplicationCreated serves POST /internal/events/application-created.
func ApplicationCreated(bus shared.EventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req applicationCreatedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		event := shared.NewApplicationCreatedEvent(req.ApplicationID)
		event.Correlation = GetRequestID(c)
		publish(c, bus, event)
	}
}

// ApplicationStatusChanged serves POST /internal/events/application-status-changed.
func ApplicationStatusChanged(bus shared.EventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req applicationStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		event := shared.NewApplicationStatusChangedEvent(req.ApplicationID, req.NewStatus)
		event.Correlation = GetRequestID(c)
		publish(c, bus, event)
	}
}

// SupervisorAssigned serves POST /internal/events/supervisor-assigned.
func SupervisorAssigned(bus shared.EventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req supervisorAssignedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		event := shared.NewSupervisorAssignedEvent(req.StudentID, req.SupervisorID)
		event.Correlation = GetRequestID(c)
		publish(c, bus, event)
	}
}

func publish(c *gin.Context, bus shared.EventPublisher, event shared.Event) {
	if err := bus.Publish(c.Request.Context(), event); err != nil {
		FailErr(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{
		"event":        event.EventType(),
		"aggregate_id": event.AggregateID(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

type reviewRequest struct {
	Status string `json:"status" binding:"required"`
}

type assignSupervisorRequest struct {
	SupervisorID string `json:"supervisor_id" binding:"required"`
}

// ReviewApplication serves PUT /internal/applications/:id/status.
func ReviewApplication(h ApplicationReviewer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		result, err := h.Handle(c.Request.Context(), command.ReviewApplicationCommand{
			ApplicationID: c.Param("id"),
			Status:        req.Status,
			CorrelationID: GetRequestID(c),
		})
		if err != nil {
			FailErr(c, err)
			return
		}
		OK(c, http.StatusOK, result)
	}
}

// AssignSupervisor serves PUT /internal/students/:studentId/supervisor.
func AssignSupervisor(h SupervisorAssigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assignSupervisorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		studentID := c.Param("studentId")
		published, err := h.Handle(c.Request.Context(), command.AssignSupervisorCommand{
			StudentID:     studentID,
			SupervisorID:  req.SupervisorID,
			CorrelationID: GetRequestID(c),
		})
		if err != nil {
			FailErr(c, err)
			return
		}
		OK(c, http.StatusOK, gin.H{
			"student_id":    studentID,
			"supervisor_id": req.SupervisorID,
			"published":     published,
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// JOBS
// ══════════════════════════════════════════════════════════════════════════════

// ListJobs serves GET /internal/jobs.
func ListJobs(runner JobRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs := runner.ListJobs()
		List(c, jobs, len(jobs))
	}
}

// JobMetrics serves GET /internal/jobs/metrics.
func JobMetrics(runner JobRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		OK(c, http.StatusOK, runner.GetMetrics().Snapshot())
	}
}

// RunJob serves POST /internal/jobs/:name/run. The run outlives a dropped client.
func RunJob(runner JobRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithoutCancel(c.Request.Context())
		result, err := runner.RunNow(ctx, c.Param("name"))
		if result == nil && err != nil {
			FailErr(c, err)
			return
		}
		OK(c, http.StatusOK, result)
	}
}
