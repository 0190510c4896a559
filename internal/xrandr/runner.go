// Package xrandr drives the xrandr command-line tool and parses its listing.
package xrandr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrToolNotFound is returned when the tool binary cannot be started.
	ErrToolNotFound = errors.New("xrandr: tool not found")
	// ErrToolFailed is matched by every *ToolError.
	ErrToolFailed = errors.New("xrandr: tool failed")
	// ErrTimeout is returned when an invocation outlives the runner timeout.
	ErrTimeout = errors.New("xrandr: timed out")
)

// Result is the outcome of one tool invocation.
type Result struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// ToolError reports a non-zero exit.
type ToolError struct {
	Result Result
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("xrandr %s: exit status %d", strings.Join(e.Result.Args, " "), e.Result.ExitCode)
	if e.Result.Stderr != "" {
		msg += ": " + e.Result.Stderr
	}
	return msg
}

func (e *ToolError) Is(target error) bool {
	return target == ErrToolFailed
}

// Runner executes the tool with a bounded run time.
type Runner struct {
	Path    string
	Timeout time.Duration
}

// NewRunner returns a Runner for the binary at path.
func NewRunner(path string, timeout time.Duration) *Runner {
	return &Runner{Path: path, Timeout: timeout}
}

// Run executes the tool and waits for it to exit.
// The Result is filled in as far as the invocation got, even on error.
func (r *Runner) Run(ctx context.Context, args ...string) (Result, error) {
	res := Result{Args: args, ExitCode: -1}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = strings.TrimSpace(stderr.String())

	if err == nil {
		res.ExitCode = 0
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w after %s: %s %s", ErrTimeout, r.Timeout, r.Path, strings.Join(args, " "))
		}
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ToolError{Result: res}
	}

	return res, fmt.Errorf("%w: %s: %v", ErrToolNotFound, r.Path, err)
}
