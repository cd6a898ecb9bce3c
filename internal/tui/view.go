package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-port-killer/internal/stats"
)

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		headerStyle.Render("go-port-killer"),
		m.renderInput(),
		m.renderProcessTable(),
	}
	if m.detail != nil {
		sections = append(sections, m.renderDetail())
	}
	if s := m.renderStatus(); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderInput() string {
	cursor := ""
	if m.editing {
		cursor = "█"
	}
	label := mutedStyle.Render(fmt.Sprintf("%s > ", m.mode))
	return label + inputStyle.Render(m.input+cursor)
}

func (m Model) renderProcessTable() string {
	if m.loading {
		return mutedStyle.Render("Running...")
	}
	if len(m.processes) == 0 {
		return dimStyle.Render("No processes")
	}

	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(fmt.Sprintf("  %-8s %-24s %s", "PID", "NAME", "PORT")))
	for i, p := range m.processes {
		line := fmt.Sprintf("%-8s %-24s %s", p.PID, truncate(p.Name, 24), p.Port)
		b.WriteString("\n")
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render("> " + line))
		} else {
			b.WriteString(rowStyle.Render("  " + line))
		}
	}
	return b.String()
}

func (m Model) renderDetail() string {
	d := m.detail
	lines := []string{
		RenderKeyValue("PID", d.PID),
		RenderKeyValue("Name", d.Name),
		RenderKeyValue("User", optional(d.User)),
		RenderKeyValue("Ports", d.Port),
		RenderKeyValue("CPU", optional(d.CPUUsage)),
		RenderKeyValue("Memory", optional(d.MemoryUsage)),
		RenderKeyValue("Started", optional(d.StartTime)),
		RenderKeyValue("Command", truncate(optional(d.Command), max(m.width-22, 20))),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	if m.confirm != nil {
		verb := "Terminate"
		if m.confirm.force {
			verb = "Force kill"
		}
		return statusWarning.Render(fmt.Sprintf("%s %s (PID %s)? [y/N]", verb, m.confirm.name, m.confirm.pid))
	}
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return statusError.Render(m.status)
	}
	return statusOK.Render(m.status)
}

func (m Model) renderFooter() string {
	var keys string
	if m.editing {
		keys = "enter: search  tab: port/name  esc: browse  ctrl+c: quit"
	} else {
		keys = "↑/↓: select  d: detail  t: terminate  K: force kill  r: refresh  /: search  q: quit"
	}

	var lat []string
	if m.engine != nil {
		for _, l := range m.engine.ToolLatency() {
			lat = append(lat, fmt.Sprintf("%s p50 %s", l.Tool, stats.FormatMs(l.P50)))
		}
	}
	if len(lat) == 0 {
		return footerStyle.Render(keys)
	}
	return footerStyle.Render(keys + "\n" + dimStyle.Render(strings.Join(lat, "  ")))
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
