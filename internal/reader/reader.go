// Package reader pulls scanned RFID tags from hardware readers and feeds
// them into bulk scans.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Reader returns the tags currently in range.
type Reader interface {
	// Name returns the reader identifier.
	Name() string

	// Read performs one sweep.
	Read(ctx context.Context) ([]string, error)
}

// Command is a Reader backed by an external program that prints tag ids
// separated by whitespace or commas.
type Command struct {
	cmd     string
	args    []string
	timeout time.Duration
}

// NewCommand creates a command reader. timeout <= 0 means 30 seconds.
func NewCommand(cmd string, args []string, timeout time.Duration) *Command {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Command{cmd: cmd, args: args, timeout: timeout}
}

// Name returns the reader identifier.
func (c *Command) Name() string {
	return "command:" + c.cmd
}

// Read runs the command once and parses its stdout.
func (c *Command) Read(ctx context.Context) ([]string, error) {
	if c.cmd == "" {
		return nil, fmt.Errorf("no reader command configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	execCmd := exec.CommandContext(ctx, c.cmd, c.args...)
	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	if err := execCmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("reader exited with %d: %s", exitError.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("exec reader: %w", err)
	}
	return ParseTags(stdout.String()), nil
}

// ParseTags splits reader output into unique tag ids in first-seen order.
func ParseTags(out string) []string {
	fields := strings.FieldsFunc(out, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	tags := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		tags = append(tags, f)
	}
	return tags
}

// Static is a Reader that always returns the same tags.
type Static []string

func (s Static) Name() string { return "static" }

func (s Static) Read(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}
