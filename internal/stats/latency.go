// Package stats tracks latency percentiles of external tool invocations.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// digestCompression keeps roughly 100 centroids (~10KB) per tool.
const digestCompression = 100

// ToolLatency summarizes invocations of a single tool.
type ToolLatency struct {
	Tool  string        `json:"tool"`
	Count int64         `json:"count"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

type toolDigest struct {
	digest *tdigest.TDigest
	count  int64
	max    time.Duration
}

// LatencyTracker records per-tool latency in t-digests.
// Safe for concurrent use.
type LatencyTracker struct {
	mu    sync.Mutex
	tools map[string]*toolDigest
}

// NewLatencyTracker creates an empty tracker.
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{
		tools: make(map[string]*toolDigest),
	}
}

// Record adds one observation for tool.
func (t *LatencyTracker) Record(tool string, d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	td, ok := t.tools[tool]
	if !ok {
		td = &toolDigest{digest: tdigest.NewWithCompression(digestCompression)}
		t.tools[tool] = td
	}
	td.digest.Add(float64(d), 1)
	td.count++
	if d > td.max {
		td.max = d
	}
}

// Summary returns one entry per tool, sorted by tool name.
func (t *LatencyTracker) Summary() []ToolLatency {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ToolLatency, 0, len(t.tools))
	for name, td := range t.tools {
		out = append(out, ToolLatency{
			Tool:  name,
			Count: td.count,
			P50:   time.Duration(td.digest.Quantile(0.50)),
			P95:   time.Duration(td.digest.Quantile(0.95)),
			P99:   time.Duration(td.digest.Quantile(0.99)),
			Max:   td.max,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Tool < out[j].Tool
	})
	return out
}
