package model

import "strconv"

// ParsePort validates a port string as an unsigned 16-bit integer.
func ParsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, &Error{Kind: KindValueValidation, Op: "parse_port", Message: "Invalid port number", Err: err}
	}
	return uint16(n), nil
}

// ParsePID validates a process id string as an unsigned 32-bit integer.
func ParsePID(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, &Error{Kind: KindValueValidation, Op: "parse_pid", Message: "Invalid PID format: " + strconv.Quote(s), Err: err}
	}
	return uint32(n), nil
}
