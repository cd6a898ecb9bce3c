package metrics

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

func TestNewCollectorWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWithRegistry(reg)
	if c == nil {
		t.Fatal("NewCollectorWithRegistry returned nil")
	}

	// Registering twice on the same registry must panic.
	defer func() {
		if recover() == nil {
			t.Error("second registration should panic")
		}
	}()
	NewCollectorWithRegistry(reg)
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.RecordOperation("query_by_port", OutcomeOK, time.Millisecond)
	c.RecordMatches("query_by_port", 3)
	c.RecordTool("lsof", ToolOK, time.Millisecond)
	c.RecordSignal("KILL")
}

func TestCounterTotals(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWithRegistry(reg)

	c.RecordOperation("query_by_port", OutcomeOK, 10*time.Millisecond)
	c.RecordOperation("query_by_port", OutcomeOK, 20*time.Millisecond)
	c.RecordOperation("query_by_name", OutcomeToolFail, time.Millisecond)
	c.RecordMatches("query_by_port", 2)
	c.RecordMatches("query_by_port", 0) // ignored
	c.RecordTool("ps", ToolExitNonZero, time.Millisecond)
	c.RecordSignal("TERM")

	totals, err := CounterTotals(reg)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]float64{
		`port_killer_operations_total{operation="query_by_port",outcome="ok"}`:           2,
		`port_killer_operations_total{operation="query_by_name",outcome="tool_failure"}`: 1,
		`port_killer_processes_matched_total{operation="query_by_port"}`:                 2,
		`port_killer_tool_invocations_total{result="exit_nonzero",tool="ps"}`:            1,
		`port_killer_signals_sent_total{signal="TERM"}`:                                  1,
	}
	for key, v := range want {
		if totals[key] != v {
			t.Errorf("%s = %v, want %v", key, totals[key], v)
		}
	}
	if len(totals) != len(want) {
		t.Errorf("got %d counters, want %d: %v", len(totals), len(want), totals)
	}
}

func TestWriteText_RoundTrip(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWithRegistry(reg)
	c.RecordOperation("terminate", OutcomeOK, 5*time.Millisecond)
	c.RecordSignal("KILL")

	var buf bytes.Buffer
	if err := WriteText(&buf, reg); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	text := buf.String()
	for _, want := range []string{
		"# TYPE port_killer_operations_total counter",
		`port_killer_signals_sent_total{signal="KILL"} 1`,
		"port_killer_operation_duration_seconds_bucket",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}

	// Decode it back the way a scraper would.
	dec := expfmt.NewDecoder(&buf, expfmt.FmtText)
	families := make(map[string]*dto.MetricFamily)
	for {
		mf := &dto.MetricFamily{}
		if err := dec.Decode(mf); err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("Decode() error = %v", err)
		}
		families[mf.GetName()] = mf
	}

	hist, ok := families["port_killer_operation_duration_seconds"]
	if !ok {
		t.Fatal("histogram family missing after decode")
	}
	if got := hist.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestOperationCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWithRegistry(reg)
	c.RecordOperation("terminate", OutcomeOK, time.Millisecond)
	c.RecordOperation("terminate", OutcomeOK, time.Millisecond)
	c.RecordOperation("detail", OutcomeInvalid, time.Millisecond)
	c.RecordSignal("KILL")

	counts, err := OperationCounts(reg)
	if err != nil {
		t.Fatal(err)
	}
	if counts["terminate/ok"] != 2 || counts["detail/invalid"] != 1 || len(counts) != 2 {
		t.Errorf("counts = %v", counts)
	}
}
