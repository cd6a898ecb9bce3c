// This file implements the exit summary printed when a long-running session
// (API server) stops, or after a one-shot action with -v.

package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// Duration is the total run duration
	Duration time.Duration

	// ListenAddr is the API address, empty if none was served
	ListenAddr string

	// Operations maps "operation/outcome" to a count.
	Operations map[string]int64
}

// FormatExitSummary formats tool latency and operation counts for display at
// program exit.
func FormatExitSummary(latency []ToolLatency, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n═══════════════════════════════════════════════════════════════\n")
	b.WriteString("                   go-port-killer Summary\n")
	b.WriteString("═══════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(&b, "Run Duration:       %s\n", FormatDuration(cfg.Duration))
	if cfg.ListenAddr != "" {
		fmt.Fprintf(&b, "API:                http://%s/api/\n", cfg.ListenAddr)
	}

	if len(cfg.Operations) > 0 {
		b.WriteString("\nOperations:\n")
		keys := make([]string, 0, len(cfg.Operations))
		for k := range cfg.Operations {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %-32s %8s\n", k, FormatNumber(cfg.Operations[k]))
		}
	}

	b.WriteString("\nTool Latency:\n")
	if len(latency) == 0 {
		b.WriteString("  (no tool calls)\n")
	} else {
		fmt.Fprintf(&b, "  %-8s %8s %10s %10s %10s %10s\n", "tool", "calls", "p50", "p95", "p99", "max")
		for _, l := range latency {
			fmt.Fprintf(&b, "  %-8s %8s %10s %10s %10s %10s\n",
				l.Tool, FormatNumber(l.Count),
				FormatMs(l.P50), FormatMs(l.P95), FormatMs(l.P99), FormatMs(l.Max))
		}
	}

	b.WriteString("═══════════════════════════════════════════════════════════════\n")
	return b.String()
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatNumber formats a number with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatMs formats a duration as milliseconds.
func FormatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		// Sub-millisecond, show microseconds
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}
