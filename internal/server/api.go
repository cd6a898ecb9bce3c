// Package server exposes the engine's four operations as a JSON HTTP API.
//
// Every response is HTTP 200 with an optional "error" field, matching the
// result records, so clients render "no error" and "error with message"
// the same way. Only transport problems use other status codes: wrong
// method, a kill request that is not a JSON body, and encode failures.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-port-killer/internal/metrics"
	"github.com/randomizedcoder/go-port-killer/internal/model"
	"github.com/randomizedcoder/go-port-killer/internal/stats"
)

const maxBodyBytes = 1 << 12

// Operations is the upstream boundary served by the API.
type Operations interface {
	CheckPort(ctx context.Context, port string) model.PortQueryResult
	SearchByName(ctx context.Context, name string) model.NameQueryResult
	Detail(ctx context.Context, pid string) model.DetailResult
	Kill(ctx context.Context, pid string, force bool) model.KillResult
	ToolLatency() []stats.ToolLatency
}

// API serves the JSON endpoints.
type API struct {
	ops      Operations
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewAPI creates the API handler. When g is non-nil, /api/stats also
// reports every counter in it.
func NewAPI(ops Operations, g prometheus.Gatherer, logger *slog.Logger) *API {
	a := &API{
		ops:      ops,
		gatherer: g,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	a.mux.HandleFunc("GET /api/port", a.handlePort)
	a.mux.HandleFunc("GET /api/name", a.handleName)
	a.mux.HandleFunc("GET /api/detail", a.handleDetail)
	a.mux.HandleFunc("POST /api/kill", a.handleKill)
	a.mux.HandleFunc("GET /api/stats", a.handleStats)
	return a
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) handlePort(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, a.ops.CheckPort(r.Context(), r.URL.Query().Get("port")))
}

func (a *API) handleName(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, a.ops.SearchByName(r.Context(), r.URL.Query().Get("name")))
}

func (a *API) handleDetail(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, a.ops.Detail(r.Context(), r.URL.Query().Get("pid")))
}

// killRequest is the POST /api/kill body.
type killRequest struct {
	PID   string `json:"pid"`
	Force bool   `json:"force"`
}

// handleKill only accepts an application/json body. Browsers cannot send
// that content type cross-site without a CORS preflight, which this
// server never answers, so a foreign page cannot trigger a kill.
func (a *API) handleKill(w http.ResponseWriter, r *http.Request) {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		writeStatus(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req killRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	a.writeJSON(w, a.ops.Kill(r.Context(), req.PID, req.Force))
}

type statsResponse struct {
	Tools    []stats.ToolLatency `json:"tools"`
	Counters map[string]float64  `json:"counters,omitempty"`
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Tools: a.ops.ToolLatency()}
	if resp.Tools == nil {
		resp.Tools = []stats.ToolLatency{}
	}
	if a.gatherer != nil {
		totals, err := metrics.CounterTotals(a.gatherer)
		if err != nil {
			a.logger.Error("failed to gather counters", "error", err)
			writeError(w, err)
			return
		}
		resp.Counters = totals
	}
	a.writeJSON(w, resp)
}

func writeError(w http.ResponseWriter, err error) {
	writeStatus(w, http.StatusInternalServerError, err.Error())
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	w.Write([]byte(msg)) //nolint:errcheck
}

func (a *API) writeJSON(w http.ResponseWriter, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("failed to marshal", "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(out) //nolint:errcheck
}
