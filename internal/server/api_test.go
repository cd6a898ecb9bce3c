package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-port-killer/internal/metrics"
	"github.com/randomizedcoder/go-port-killer/internal/model"
	"github.com/randomizedcoder/go-port-killer/internal/stats"
)

type mockOps struct {
	lastPort, lastName, lastPID string
	lastForce                   bool
	killCalls                   int
	latency                     []stats.ToolLatency
}

func (m *mockOps) CheckPort(_ context.Context, port string) model.PortQueryResult {
	m.lastPort = port
	if port == "bad" {
		return model.PortQueryResult{Processes: []model.ProcessRecord{}, Error: "Invalid port number"}
	}
	return model.PortQueryResult{
		Occupied:  true,
		Processes: []model.ProcessRecord{{PID: "1234", Name: "node", Port: port}},
	}
}

func (m *mockOps) SearchByName(_ context.Context, name string) model.NameQueryResult {
	m.lastName = name
	return model.NameQueryResult{Processes: []model.ProcessRecord{{PID: "1", Name: name, Port: model.UnknownPort}}}
}

func (m *mockOps) Detail(_ context.Context, pid string) model.DetailResult {
	m.lastPID = pid
	return model.DetailResult{Detail: &model.ProcessDetail{PID: pid, Name: "node", Port: "3000"}}
}

func (m *mockOps) Kill(_ context.Context, pid string, force bool) model.KillResult {
	m.killCalls++
	m.lastPID, m.lastForce = pid, force
	return model.KillResult{Message: "Process " + pid + " force killed successfully"}
}

func (m *mockOps) ToolLatency() []stats.ToolLatency {
	return m.latency
}

func newTestAPI(ops *mockOps) *API {
	return NewAPI(ops, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestAPI_Port(t *testing.T) {
	ops := &mockOps{}
	rec := do(t, newTestAPI(ops), http.MethodGet, "/api/port?port=3000")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	res := decode[model.PortQueryResult](t, rec)
	if !res.Occupied || len(res.Processes) != 1 || res.Processes[0].Port != "3000" {
		t.Errorf("result = %+v", res)
	}
	if ops.lastPort != "3000" {
		t.Errorf("port passed = %q", ops.lastPort)
	}
}

func TestAPI_ErrorsAreInBand(t *testing.T) {
	rec := do(t, newTestAPI(&mockOps{}), http.MethodGet, "/api/port?port=bad")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with error field", rec.Code)
	}
	res := decode[model.PortQueryResult](t, rec)
	if res.Error != "Invalid port number" || res.Occupied {
		t.Errorf("result = %+v", res)
	}
}

func TestAPI_NameAndDetail(t *testing.T) {
	ops := &mockOps{}
	api := newTestAPI(ops)

	names := decode[model.NameQueryResult](t, do(t, api, http.MethodGet, "/api/name?name=node"))
	if len(names.Processes) != 1 || ops.lastName != "node" {
		t.Errorf("name result = %+v, name passed %q", names, ops.lastName)
	}

	detail := decode[model.DetailResult](t, do(t, api, http.MethodGet, "/api/detail?pid=42"))
	if detail.Detail == nil || detail.Detail.PID != "42" {
		t.Errorf("detail result = %+v", detail)
	}
}

func postKill(t *testing.T, h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/kill", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Kill(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantForce   bool
	}{
		{name: "default graceful", contentType: "application/json", body: `{"pid":"7"}`},
		{name: "force", contentType: "application/json", body: `{"pid":"7","force":true}`, wantForce: true},
		{name: "charset parameter", contentType: "application/json; charset=utf-8", body: `{"pid":"7","force":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := &mockOps{}
			rec := postKill(t, newTestAPI(ops), tt.contentType, tt.body)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			res := decode[model.KillResult](t, rec)
			if res.Error != "" {
				t.Errorf("Error = %q", res.Error)
			}
			if ops.killCalls != 1 || ops.lastPID != "7" {
				t.Errorf("kill calls = %d pid = %q, want 1 call for 7", ops.killCalls, ops.lastPID)
			}
			if ops.lastForce != tt.wantForce {
				t.Errorf("force = %v, want %v", ops.lastForce, tt.wantForce)
			}
		})
	}
}

func TestAPI_KillRejectsNonJSON(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		wantCode    int
	}{
		{
			name:     "query string form",
			target:   "/api/kill?pid=7&force=true",
			wantCode: http.StatusUnsupportedMediaType,
		},
		{
			name:        "html form post",
			target:      "/api/kill",
			contentType: "application/x-www-form-urlencoded",
			body:        "pid=7&force=true",
			wantCode:    http.StatusUnsupportedMediaType,
		},
		{
			name:        "text plain json",
			target:      "/api/kill",
			contentType: "text/plain",
			body:        `{"pid":"7","force":true}`,
			wantCode:    http.StatusUnsupportedMediaType,
		},
		{
			name:        "malformed body",
			target:      "/api/kill",
			contentType: "application/json",
			body:        `{"pid":7`,
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "force not a bool",
			target:      "/api/kill",
			contentType: "application/json",
			body:        `{"pid":"7","force":"maybe"}`,
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "unknown field",
			target:      "/api/kill",
			contentType: "application/json",
			body:        `{"pid":"7","signal":"HUP"}`,
			wantCode:    http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := &mockOps{}
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			newTestAPI(ops).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if ops.killCalls != 0 {
				t.Errorf("kill ran %d times, want 0", ops.killCalls)
			}
		})
	}
}

func TestAPI_KillRequiresPost(t *testing.T) {
	ops := &mockOps{}
	rec := do(t, newTestAPI(ops), http.MethodGet, "/api/kill?pid=7")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if ops.killCalls != 0 {
		t.Error("GET must not kill")
	}
}

func TestAPI_Stats(t *testing.T) {
	empty := decode[struct {
		Tools []stats.ToolLatency `json:"tools"`
	}](t, do(t, newTestAPI(&mockOps{}), http.MethodGet, "/api/stats"))
	if empty.Tools == nil || len(empty.Tools) != 0 {
		t.Errorf("tools = %v, want empty list", empty.Tools)
	}

	ops := &mockOps{latency: []stats.ToolLatency{{Tool: "lsof", Count: 2, P50: time.Millisecond}}}
	got := decode[struct {
		Tools []stats.ToolLatency `json:"tools"`
	}](t, do(t, newTestAPI(ops), http.MethodGet, "/api/stats"))
	if len(got.Tools) != 1 || got.Tools[0].Tool != "lsof" || got.Tools[0].P50 != time.Millisecond {
		t.Errorf("tools = %+v", got.Tools)
	}
}

func TestAPI_StatsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCollectorWithRegistry(reg)
	m.RecordOperation("terminate", metrics.OutcomeOK, time.Millisecond)
	m.RecordSignal("TERM")

	api := NewAPI(&mockOps{}, reg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got := decode[statsResponse](t, do(t, api, http.MethodGet, "/api/stats"))

	if v := got.Counters[`port_killer_operations_total{operation="terminate",outcome="ok"}`]; v != 1 {
		t.Errorf("terminate ok = %v, want 1 (counters %v)", v, got.Counters)
	}
	if len(got.Tools) != 0 {
		t.Errorf("tools = %v, want empty", got.Tools)
	}
}
