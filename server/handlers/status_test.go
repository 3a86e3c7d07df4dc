package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nomis52/netactivity/buildinfo"
	"github.com/nomis52/netactivity/indicator"
	"github.com/nomis52/netactivity/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStatusProvider struct {
	counter   *indicator.Counter
	recorder  *indicator.Recorder
	nextProbe *time.Time
	lastProbe *time.Time
	results   []probe.Result
}

func (m *mockStatusProvider) Counter() *indicator.Counter   { return m.counter }
func (m *mockStatusProvider) Recorder() *indicator.Recorder { return m.recorder }
func (m *mockStatusProvider) NextProbe() *time.Time         { return m.nextProbe }
func (m *mockStatusProvider) LastProbe() *time.Time         { return m.lastProbe }
func (m *mockStatusProvider) ProbeResults() []probe.Result  { return m.results }

func newMockStatusProvider() *mockStatusProvider {
	rec := indicator.NewRecorder(10)
	return &mockStatusProvider{
		counter:  indicator.New(indicator.WithIndicator(rec)),
		recorder: rec,
	}
}

func serveStatus(t *testing.T, provider StatusProvider) StatusResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()

	NewStatusHandler(provider).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestStatusHandler_Idle(t *testing.T) {
	resp := serveStatus(t, newMockStatusProvider())

	assert.Equal(t, "idle", resp.State)
	assert.Equal(t, 0, resp.Count)
	assert.False(t, resp.Visible)
	assert.Nil(t, resp.LastChange)
	assert.Empty(t, resp.Transitions)
	assert.Nil(t, resp.NextProbe)
	assert.Nil(t, resp.LastProbe)
	assert.Empty(t, resp.Probes)
	assert.Equal(t, buildinfo.Get(), resp.Build)
}

func TestStatusHandler_Active(t *testing.T) {
	provider := newMockStatusProvider()
	provider.counter.Increment()
	provider.counter.Increment()
	next := time.Date(2030, 1, 1, 2, 0, 0, 0, time.UTC)
	provider.nextProbe = &next

	resp := serveStatus(t, provider)

	assert.Equal(t, "active", resp.State)
	assert.Equal(t, 2, resp.Count)
	assert.True(t, resp.Visible)
	require.NotNil(t, resp.LastChange)
	require.Len(t, resp.Transitions, 1)
	assert.True(t, resp.Transitions[0].Visible)
	require.NotNil(t, resp.NextProbe)
	assert.True(t, next.Equal(*resp.NextProbe))
}

func TestStatusHandler_ProbeResults(t *testing.T) {
	provider := newMockStatusProvider()
	provider.results = []probe.Result{
		{Target: "https://a.example", StatusCode: 200, Duration: 15 * time.Millisecond},
		{Target: "https://b.example", Err: errors.New("connection refused")},
	}

	resp := serveStatus(t, provider)

	require.Len(t, resp.Probes, 2)
	assert.Equal(t, ProbeResult{Target: "https://a.example", OK: true, StatusCode: 200, DurationMS: 15}, resp.Probes[0])
	assert.False(t, resp.Probes[1].OK)
	assert.Equal(t, "connection refused", resp.Probes[1].Error)
}
