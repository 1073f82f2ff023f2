// Package persistence implements the on-disk durability layer of GrafoDB:
// an append-only command log (AOF), a lazy batching wrapper around it, a
// RESP-style command codec, and a CRC-checked binary frame format used for
// snapshot files.
package persistence

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Command is a single logged operation: an upper-case name plus binary-safe
// arguments. The engine writes NADD, NDEL, LINK and UNLINK commands.
type Command struct {
	Name string
	Args [][]byte
}

// FormatCommand serializes a command in the RESP-style wire format used by
// the AOF:
//
//	*<argc>\r\n$<len>\r\n<name>\r\n$<len>\r\n<arg>\r\n...
//
// Length-prefixed arguments keep the log binary safe regardless of content.
func FormatCommand(name string, args ...[]byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d\r\n", len(args)+1)
	fmt.Fprintf(&sb, "$%d\r\n%s\r\n", len(name), name)
	for _, arg := range args {
		fmt.Fprintf(&sb, "$%d\r\n", len(arg))
		sb.Write(arg)
		sb.WriteString("\r\n")
	}
	return sb.String()
}

// ParseCommand reads the next command from the reader.
// It returns io.EOF when the log is cleanly exhausted; any other error means
// the log is truncated or corrupt at the current position.
func ParseCommand(r *bufio.Reader) (*Command, error) {
	header, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(header) < 2 || header[0] != '*' {
		return nil, fmt.Errorf("malformed command header %q", header)
	}
	argc, err := strconv.Atoi(header[1:])
	if err != nil || argc < 1 {
		return nil, fmt.Errorf("invalid argument count in header %q", header)
	}

	parts := make([][]byte, 0, argc)
	for i := 0; i < argc; i++ {
		part, err := readBulk(r)
		if err != nil {
			// A partial command means the process died mid-write; the
			// caller decides whether to stop or fail loudly.
			return nil, fmt.Errorf("truncated command: %w", err)
		}
		parts = append(parts, part)
	}

	return &Command{
		Name: strings.ToUpper(string(parts[0])),
		Args: parts[1:],
	}, nil
}

// readBulk reads one length-prefixed argument: $<len>\r\n<payload>\r\n.
func readBulk(r *bufio.Reader) ([]byte, error) {
	header, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(header) < 2 || header[0] != '$' {
		return nil, fmt.Errorf("malformed bulk header %q", header)
	}
	size, err := strconv.Atoi(header[1:])
	if err != nil || size < 0 {
		return nil, fmt.Errorf("invalid bulk length in header %q", header)
	}

	payload := make([]byte, size+2) // payload + trailing \r\n
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if payload[size] != '\r' || payload[size+1] != '\n' {
		return nil, fmt.Errorf("bulk payload missing terminator")
	}
	return payload[:size], nil
}

// readLine reads up to \r\n and strips the terminator.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			return "", io.EOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
