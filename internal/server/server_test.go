package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicAgent/internal/jobs"
	"clinicAgent/internal/logger"
	"clinicAgent/internal/metrics"
)

const sheetURL = "https://docs.google.com/spreadsheets/d/1AbCdEfGhIjKlMnOpQrStUv/edit#gid=0"

// blockingRunner работает, пока задачу не остановят.
type blockingRunner struct{}

func (blockingRunner) CheckAccess(context.Context, *jobs.Job) error { return nil }

func (blockingRunner) Run(ctx context.Context, j *jobs.Job) error {
	select {
	case <-j.Control.Done():
		return jobs.ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newTestServer(t *testing.T) (*jobs.Manager, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := jobs.NewManager(context.Background(), blockingRunner{}, jobs.ControlOptions{}, logger.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})

	reg := prometheus.NewRegistry()
	metrics.New(reg)
	return m, New(":0", m, reg, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func startJob(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/start", "application/json", `{"sheet_url":"`+sheetURL+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		JobID string `json:"job_id"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.JobID)
	return resp.JobID
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/_healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestStartRejectsInvalidLink(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/start", "application/json", `{"sheet_url":"https://example.com/sheet"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/start", "application/json", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartForm(t *testing.T) {
	m, h := newTestServer(t)

	form := url.Values{"sheet_url": {sheetURL}}.Encode()
	w := do(t, h, http.MethodPost, "/start", "application/x-www-form-urlencoded", form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, m.List(), 1)
}

func TestJobLifecycle(t *testing.T) {
	m, h := newTestServer(t)
	id := startJob(t, h)

	w := do(t, h, http.MethodGet, "/status/"+id, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap jobs.Snapshot
	decode(t, w, &snap)
	assert.Equal(t, id, snap.JobID)
	assert.Equal(t, sheetURL, snap.SheetURL)
	assert.Equal(t, 80, snap.Stats.BatchLimit)

	w = do(t, h, http.MethodPost, "/pause/"+id, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	decode(t, do(t, h, http.MethodGet, "/status/"+id, "", ""), &snap)
	assert.Equal(t, jobs.StatusPaused, snap.Status)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/resume/"+id, "", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/stop/"+id, "", "").Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	final, err := m.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusStopped, final.Status)

	decode(t, do(t, h, http.MethodGet, "/status/"+id, "", ""), &snap)
	assert.Equal(t, jobs.StatusStopped, snap.Status)
}

func TestUnknownJob(t *testing.T) {
	_, h := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/status/nope", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/pause/nope", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/stop/nope", "", "").Code)
}

func TestListJobs(t *testing.T) {
	_, h := newTestServer(t)
	first := startJob(t, h)
	second := startJob(t, h)

	w := do(t, h, http.MethodGet, "/jobs", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []jobSummary
	decode(t, w, &list)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].JobID)
	assert.Equal(t, second, list[1].JobID)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clinic_agent_jobs_running")
}
