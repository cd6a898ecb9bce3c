package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// WriteText writes every metric family from g in the text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// CounterTotals returns every counter value in g keyed by name and labels.
// Keys look like `port_killer_operations_total{operation="query_by_port",outcome="ok"}`.
func CounterTotals(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	totals := make(map[string]float64)
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			totals[counterKey(mf.GetName(), m)] += m.GetCounter().GetValue()
		}
	}
	return totals, nil
}

func counterKey(name string, m *dto.Metric) string {
	labels := m.GetLabel()
	if len(labels) == 0 {
		return name
	}
	sorted := make([]*dto.LabelPair, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].GetName() < sorted[j].GetName()
	})
	parts := make([]string, len(sorted))
	for i, lp := range sorted {
		parts[i] = fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}

// OperationCounts returns the operations counter keyed "operation/outcome".
func OperationCounts(g prometheus.Gatherer) (map[string]int64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	counts := make(map[string]int64)
	for _, mf := range families {
		if mf.GetName() != namespace+"_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var op, outcome string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "operation":
					op = lp.GetValue()
				case "outcome":
					outcome = lp.GetValue()
				}
			}
			counts[op+"/"+outcome] += int64(m.GetCounter().GetValue())
		}
	}
	return counts, nil
}
