package handlers

import (
	"net/http"
	"time"

	"github.com/nomis52/netactivity/buildinfo"
	"github.com/nomis52/netactivity/indicator"
	"github.com/nomis52/netactivity/probe"
)

// ProbeResult is the JSON form of one probe outcome.
type ProbeResult struct {
	Target     string `json:"target"`
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// StatusResponse is the JSON response for /api/status.
type StatusResponse struct {
	State       string                 `json:"state"`
	Count       int                    `json:"count"`
	Visible     bool                   `json:"visible"`
	LastChange  *time.Time             `json:"last_change,omitempty"`
	Transitions []indicator.Transition `json:"transitions"`
	NextProbe   *time.Time             `json:"next_probe,omitempty"`
	LastProbe   *time.Time             `json:"last_probe,omitempty"`
	Probes      []ProbeResult          `json:"probes,omitempty"`
	Build       buildinfo.Properties   `json:"build"`
}

// StatusProvider aggregates everything the status endpoint reports.
type StatusProvider interface {
	Counter() *indicator.Counter
	Recorder() *indicator.Recorder
	NextProbe() *time.Time
	LastProbe() *time.Time
	ProbeResults() []probe.Result
}

// StatusHandler handles requests for the indicator status endpoint.
type StatusHandler struct {
	provider StatusProvider
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(provider StatusProvider) *StatusHandler {
	return &StatusHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	counter := h.provider.Counter()
	rec := h.provider.Recorder()

	resp := StatusResponse{
		State:       counter.State().String(),
		Count:       counter.Count(),
		Visible:     rec.Visible(),
		Transitions: rec.Transitions(),
		NextProbe:   h.provider.NextProbe(),
		LastProbe:   h.provider.LastProbe(),
		Build:       buildinfo.Get(),
	}
	if last := rec.LastChange(); !last.IsZero() {
		resp.LastChange = &last
	}
	for _, res := range h.provider.ProbeResults() {
		pr := ProbeResult{
			Target:     res.Target,
			OK:         res.OK(),
			StatusCode: res.StatusCode,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			pr.Error = res.Err.Error()
		}
		resp.Probes = append(resp.Probes, pr)
	}

	writeJSON(w, http.StatusOK, resp)
}
