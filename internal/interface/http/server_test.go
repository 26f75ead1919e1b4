package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandscholars/placement-hub/internal/application/automation"
	"github.com/islandscholars/placement-hub/internal/application/command"
	"github.com/islandscholars/placement-hub/internal/application/notify"
	"github.com/islandscholars/placement-hub/internal/application/suggestion"
	"github.com/islandscholars/placement-hub/internal/infrastructure/messaging"
	"github.com/islandscholars/placement-hub/internal/infrastructure/scheduler"
	httpapi "github.com/islandscholars/placement-hub/internal/interface/http"
	"github.com/islandscholars/placement-hub/internal/interface/http/handlers"
	"github.com/islandscholars/placement-hub/internal/testutil"
	"github.com/islandscholars/placement-hub/pkg/logger"
	"github.com/islandscholars/placement-hub/pkg/timeutil"
)

const (
	jwtSecret = "test-secret"
	apiKey    = "internal-key"
)

type noopJob struct{ runs atomic.Int32 }

func (j *noopJob) Name() string        { return "noop" }
func (j *noopJob) Description() string { return "does nothing" }
func (j *noopJob) Run(context.Context) error {
	j.runs.Add(1)
	return nil
}

type testEnv struct {
	handler http.Handler
	job     *noopJob
	healthy atomic.Bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.OpenStore(t, testutil.PlacementFixtures(testutil.Now))
	repos := db.Repositories()
	log := logger.Discard()

	dispatcher := notify.NewDispatcher(db.Notifications(), log)
	engine := suggestion.NewEngine(repos, suggestion.Config{Clock: timeutil.Fixed(testutil.Now)}, log)

	bus := messaging.NewInMemoryEventBus(log)
	t.Cleanup(func() { _ = bus.Close() })
	require.NoError(t, automation.NewEngine(repos, dispatcher, nil, log).Subscribe(bus))

	env := &testEnv{job: &noopJob{}}
	env.healthy.Store(true)

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{Logger: log})
	require.NoError(t, sched.Register(env.job, scheduler.Every(time.Hour)))

	health := handlers.NewHealthChecker("placement-hub", "test")
	health.AddCheck("database", func(context.Context) error {
		if env.healthy.Load() {
			return nil
		}
		return errors.New("connection refused")
	})

	hash, err := handlers.HashAPIKey(apiKey)
	require.NoError(t, err)

	server := httpapi.NewServer(httpapi.Config{
		JWTSecret:          jwtSecret,
		InternalAPIKeyHash: hash,
	}, httpapi.Dependencies{
		Students:          repos.Students,
		Suggestions:       engine,
		Notifications:     dispatcher,
		Events:            bus,
		ReviewApplication: command.NewReviewApplicationHandler(repos.Applications, bus, log),
		AssignSupervisor:  command.NewAssignSupervisorHandler(repos, bus, log),
		Jobs:              sched,
		Health:            health,
		Logger:            log,
	})
	env.handler = server.Handler()
	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header http.Header) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func asUser(t *testing.T, userID string) http.Header {
	t.Helper()
	token, err := handlers.GenerateJWT(jwtSecret, userID, "", time.Hour)
	require.NoError(t, err)
	return http.Header{"Authorization": {"Bearer " + token}}
}

func internal() http.Header {
	return http.Header{handlers.HeaderAPIKey: {apiKey}}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.healthy.Store(false)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	status := decode[handlers.HealthStatus](t, rec.Body.Bytes())
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, status.Checks["database"].Healthy)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/v1/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "not_found", body.Error.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUGGESTIONS
// ══════════════════════════════════════════════════════════════════════════════

func TestSuggestions(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v1/suggestions/students/" + testutil.StudentAlice

	code, _ := env.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(t, http.MethodGet, path, nil, http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := env.do(t, http.MethodGet, path, nil, asUser(t, testutil.UserAlice))
	require.Equal(t, http.StatusOK, code)
	assert.True(t, body.Success)

	items := decode[[]handlers.InternshipResponse](t, body.Data)
	require.Len(t, items, 5)
	assert.Equal(t, testutil.InternshipSE, items[0].ID)
	assert.Equal(t, 16, items[0].Score)
	for _, it := range items {
		assert.NotEqual(t, testutil.InternshipApplied, it.ID)
	}

	code, _ = env.do(t, http.MethodGet, "/api/v1/suggestions/students/st-none", nil, asUser(t, testutil.UserAlice))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSuggestions_OtherStudentForbidden(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/v1/suggestions/students/"+testutil.StudentAlice, nil, asUser(t, testutil.UserBob))
	assert.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "forbidden", body.Error.Code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/suggestions/students/"+testutil.StudentBob, nil, asUser(t, testutil.UserBob))
	assert.Equal(t, http.StatusOK, code)
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNAL EVENTS & NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

func TestInternalAuth(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{"application_id": testutil.AppAlicePending}

	code, _ := env.do(t, http.MethodPost, "/api/v1/internal/events/application-created", body, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/internal/events/application-created", body,
		http.Header{handlers.HeaderAPIKey: {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, code)

	// A user token does not open the internal surface.
	code, _ = env.do(t, http.MethodPost, "/api/v1/internal/events/application-created", body, asUser(t, testutil.UserOrg))
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestApplicationCreatedFlow(t *testing.T) {
	env := newTestEnv(t)
	org := asUser(t, testutil.UserOrg)

	code, _ := env.do(t, http.MethodPost, "/api/v1/internal/events/application-created",
		map[string]string{}, internal())
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/internal/events/application-created",
		map[string]string{"application_id": "app-none"}, internal())
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/internal/events/application-created",
		map[string]string{"application_id": testutil.AppAlicePending}, internal())
	require.Equal(t, http.StatusOK, code)

	code, body := env.do(t, http.MethodGet, "/api/v1/notifications?unread=true", nil, org)
	require.Equal(t, http.StatusOK, code)
	inbox := decode[[]map[string]any](t, body.Data)
	require.Len(t, inbox, 1)
	assert.Equal(t, "New application from Alice Wanjiru for 'Backend Intern'", inbox[0]["message"])
	id, _ := inbox[0]["id"].(string)
	require.NotEmpty(t, id)

	// Someone else's notification is invisible.
	code, _ = env.do(t, http.MethodPut, "/api/v1/notifications/"+id+"/read", nil, asUser(t, testutil.UserBob))
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPut, "/api/v1/notifications/"+id+"/read", nil, org)
	assert.Equal(t, http.StatusOK, code)

	_, body = env.do(t, http.MethodGet, "/api/v1/notifications?unread=true", nil, org)
	assert.Empty(t, decode[[]map[string]any](t, body.Data))

	code, body = env.do(t, http.MethodPut, "/api/v1/notifications/read-all", nil, org)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), decode[map[string]any](t, body.Data)["updated"])
}

func TestStatusChangedEvent(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodPost, "/api/v1/internal/events/application-status-changed",
		map[string]string{"application_id": testutil.AppAlicePending, "new_status": "Accepted"}, internal())
	require.Equal(t, http.StatusOK, code)

	_, body := env.do(t, http.MethodGet, "/api/v1/notifications", nil, asUser(t, testutil.UserAlice))
	assert.Len(t, decode[[]map[string]any](t, body.Data), 1)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func TestReviewApplicationEndpoint(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v1/internal/applications/" + testutil.AppAlicePending + "/status"

	code, _ := env.do(t, http.MethodPut, path, map[string]string{"status": "maybe"}, internal())
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPut, "/api/v1/internal/applications/app-none/status",
		map[string]string{"status": "accepted"}, internal())
	assert.Equal(t, http.StatusNotFound, code)

	code, body := env.do(t, http.MethodPut, path, map[string]string{"status": "accepted"}, internal())
	require.Equal(t, http.StatusOK, code)
	result := decode[command.ReviewApplicationResult](t, body.Data)
	assert.True(t, result.Published)

	_, body = env.do(t, http.MethodGet, "/api/v1/notifications", nil, asUser(t, testutil.UserAlice))
	inbox := decode[[]map[string]any](t, body.Data)
	require.Len(t, inbox, 1)
	assert.Equal(t, "application_status", inbox[0]["type"])
}

func TestAssignSupervisorEndpoint(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v1/internal/students/" + testutil.StudentBob + "/supervisor"

	code, _ := env.do(t, http.MethodPut, path, map[string]string{}, internal())
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := env.do(t, http.MethodPut, path, map[string]string{"supervisor_id": testutil.Supervisor}, internal())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, decode[map[string]any](t, body.Data)["published"])

	_, body = env.do(t, http.MethodGet, "/api/v1/notifications", nil, asUser(t, testutil.UserBob))
	inbox := decode[[]map[string]any](t, body.Data)
	require.Len(t, inbox, 1)
	assert.Equal(t,
		"You have been assigned a supervisor: Sarah Kamau from Computer Science department.",
		inbox[0]["message"])
}

// ══════════════════════════════════════════════════════════════════════════════
// JOBS
// ══════════════════════════════════════════════════════════════════════════════

func TestJobsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/v1/internal/jobs", nil, internal())
	require.Equal(t, http.StatusOK, code)
	jobs := decode[[]scheduler.JobInfo](t, body.Data)
	require.Len(t, jobs, 1)
	assert.Equal(t, "noop", jobs[0].Name)

	code, body = env.do(t, http.MethodPost, "/api/v1/internal/jobs/noop/run", nil, internal())
	require.Equal(t, http.StatusOK, code)
	result := decode[scheduler.JobResult](t, body.Data)
	assert.True(t, result.Success)
	assert.True(t, result.Manual)
	assert.Equal(t, int32(1), env.job.runs.Load())

	code, _ = env.do(t, http.MethodPost, "/api/v1/internal/jobs/missing/run", nil, internal())
	assert.Equal(t, http.StatusNotFound, code)

	code, body = env.do(t, http.MethodGet, "/api/v1/internal/jobs/metrics", nil, internal())
	require.Equal(t, http.StatusOK, code)
	metrics := decode[scheduler.MetricsSnapshot](t, body.Data)
	assert.Equal(t, int64(1), metrics.TotalExecutions)
	assert.Equal(t, float64(1), metrics.SuccessRate)
}
