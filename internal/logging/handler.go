package logging

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	// MaxLineLength is the maximum length of a single log line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the maximum number of lines kept per handler.
	MaxBufferedLines = 100
)

// StderrHandler handles stderr output from an external tool.
// It keeps recent lines for diagnostics and logs each one at a level
// derived from its content.
type StderrHandler struct {
	tool   string
	logger *slog.Logger

	// Circular buffer for recent lines
	buffer []string
	bufIdx int
	mu     sync.Mutex
}

// NewStderrHandler creates a new stderr handler for a tool.
func NewStderrHandler(tool string, logger *slog.Logger) *StderrHandler {
	return &StderrHandler{
		tool:   tool,
		logger: logger,
		buffer: make([]string, MaxBufferedLines),
	}
}

// HandleReader reads from an io.Reader and processes each line.
func (h *StderrHandler) HandleReader(r io.Reader) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, MaxLineLength)
	scanner.Buffer(buf, MaxLineLength)

	for scanner.Scan() {
		h.HandleLine(scanner.Text())
	}
}

// HandleLine processes a single line of stderr output.
func (h *StderrHandler) HandleLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	h.mu.Lock()
	h.buffer[h.bufIdx] = line
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	h.mu.Unlock()

	h.logger.Log(context.Background(), classifyLine(line), "tool_stderr",
		"tool", h.tool,
		"line", line,
	)
}

// classifyLine determines the log level for a line based on content.
func classifyLine(line string) slog.Level {
	lower := strings.ToLower(line)

	// Permission problems are what users most often need to see
	if strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "operation not permitted") {
		return slog.LevelWarn
	}

	// Usage errors mean the tool on this platform takes different flags
	if strings.Contains(lower, "illegal option") ||
		strings.Contains(lower, "unknown option") ||
		strings.Contains(lower, "usage:") {
		return slog.LevelWarn
	}

	// Expected outcomes of racing against exiting processes
	if strings.Contains(lower, "no such process") {
		return slog.LevelInfo
	}

	return slog.LevelDebug
}

// RecentLines returns up to n of the most recent lines, oldest first.
func (h *StderrHandler) RecentLines(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		if h.buffer[idx] != "" {
			lines = append(lines, h.buffer[idx])
		}
	}

	return lines
}
