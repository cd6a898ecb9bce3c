// Package parser converts the semi-structured text printed by process and
// socket introspection tools into normalized records.
//
// All parsers are pure functions over text. Malformed lines are skipped
// silently; a parse never fails as a whole.
//
// This file handles lsof output. Example for "lsof -n -P -iTCP:3000 -sTCP:LISTEN":
//
//	COMMAND   PID    USER   FD   TYPE             DEVICE SIZE/OFF NODE NAME
//	node     1234 testuser   20u  IPv4 0x1234567890abcdef      0t0  TCP *:3000 (LISTEN)
//	node     1234 testuser   21u  IPv6 0x1234567890abcdef      0t0  TCP *:3000 (LISTEN)
//
// The same process appears once per address family, so records are
// deduplicated by PID.
package parser

import (
	"strconv"
	"strings"

	"github.com/randomizedcoder/go-port-killer/internal/model"
)

// ParseListeners parses a listening-socket listing restricted to one port.
//
// The first line is a header and is discarded. Column 0 is the command name,
// column 1 the PID. Only the first record per PID is kept, in first-seen
// order. Every record is stamped with portLabel, which the caller knows from
// the query rather than from parsed content.
func ParseListeners(output, portLabel string) []model.ProcessRecord {
	records := make([]model.ProcessRecord, 0)
	seen := make(map[string]struct{})

	for i, line := range strings.Split(output, "\n") {
		if i == 0 {
			continue // header
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name, pid := fields[0], fields[1]
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		records = append(records, model.ProcessRecord{
			PID:  pid,
			Name: name,
			Port: portLabel,
		})
	}

	return records
}

// ExtractPorts scans a per-process TCP socket listing for address:port
// fields and returns every distinct port in first-seen order.
//
// For connected sockets ("127.0.0.1:5000->127.0.0.1:61234") only the local
// side is considered. Suffixes that do not parse as a 16-bit port are
// ignored.
func ExtractPorts(output string) []string {
	ports := make([]string, 0)
	seen := make(map[uint16]struct{})

	for i, line := range strings.Split(output, "\n") {
		if i == 0 {
			continue // header
		}
		for _, field := range strings.Fields(line) {
			local, _, _ := strings.Cut(field, "->")
			idx := strings.LastIndex(local, ":")
			if idx < 0 {
				continue
			}
			n, err := strconv.ParseUint(local[idx+1:], 10, 16)
			if err != nil {
				continue
			}
			port := uint16(n)
			if _, dup := seen[port]; dup {
				continue
			}
			seen[port] = struct{}{}
			ports = append(ports, strconv.Itoa(int(port)))
		}
	}

	return ports
}

// JoinPorts renders ports as "3000, 8080", or model.UnknownPort if empty.
func JoinPorts(ports []string) string {
	if len(ports) == 0 {
		return model.UnknownPort
	}
	return strings.Join(ports, ", ")
}
