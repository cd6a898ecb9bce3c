package parser

import (
	"strings"

	"github.com/randomizedcoder/go-port-killer/internal/model"
)

// ParseProcessList filters a global "pid command" listing by name.
//
// Example input ("ps -axo pid=,comm="):
//
//	 1234 nodejs
//	 5678 node-server
//	 9999 chrome
//
// Only the first token after the PID is treated as the name, so arguments
// never participate in matching. Matching is a case-insensitive substring
// test. A blank search matches nothing. Every record carries
// model.UnknownPort.
func ParseProcessList(output, search string) []model.ProcessRecord {
	records := make([]model.ProcessRecord, 0)
	if strings.TrimSpace(search) == "" {
		return records
	}
	needle := strings.ToLower(search)

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, name := fields[0], fields[1]
		if !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		records = append(records, model.ProcessRecord{
			PID:  pid,
			Name: name,
			Port: model.UnknownPort,
		})
	}

	return records
}

// Identity holds the required fields of a detail lookup.
type Identity struct {
	PID     string
	Name    string
	User    string
	Command string // full argument line, may be empty
}

// ParseIdentity parses "ps -p PID -o pid=,user=,args=" output.
//
//	 1234 alice    /usr/local/bin/node server.js --port 3000
//
// PID and user are required; ok is false if either is missing. The
// argument line is the rest of the line with its inner spacing kept.
// Name is left empty: it comes from ParseCommandName.
func ParseIdentity(output string) (id Identity, ok bool) {
	line := firstLine(output)
	pid, rest := cutField(line)
	user, rest := cutField(rest)
	if pid == "" || user == "" {
		return Identity{}, false
	}
	return Identity{
		PID:     pid,
		User:    user,
		Command: strings.TrimSpace(rest),
	}, true
}

// ParseCommandName parses "ps -p PID -o comm=" output. The whole trimmed
// line is the name, spaces included ("Web Content").
func ParseCommandName(output string) (string, bool) {
	name := strings.TrimSpace(firstLine(output))
	return name, name != ""
}

// ParseResources parses "ps -p PID -o pid=,%cpu=,%mem=" output.
//
//	 1234   5.2  1.3
//
// Values are returned verbatim with a "%" suffix ("5.2%").
func ParseResources(output string) (cpu, mem string, ok bool) {
	fields := firstLineFields(output)
	if len(fields) < 3 {
		return "", "", false
	}
	return fields[1] + "%", fields[2] + "%", true
}

// ParseStartTime parses "ps -p PID -o pid=,lstart=" output.
//
//	 1234 Mon Jan 15 10:30:00 2024
//
// The timestamp is returned as printed, with runs of spaces collapsed.
func ParseStartTime(output string) (string, bool) {
	fields := firstLineFields(output)
	if len(fields) < 2 {
		return "", false
	}
	return strings.Join(fields[1:], " "), true
}

// firstLine returns the first non-blank line.
func firstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// cutField splits off the first whitespace-separated field.
func cutField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// firstLineFields returns the fields of the first non-blank line.
func firstLineFields(output string) []string {
	for _, line := range strings.Split(output, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			return fields
		}
	}
	return nil
}
