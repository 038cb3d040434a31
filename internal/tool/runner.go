package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single external command when the caller does not
// provide its own deadline.
const DefaultTimeout = 30 * time.Second

// ToolInvocationError reports a failed external command. It carries the raw
// stderr so callers can surface the tool's own diagnostic verbatim.
type ToolInvocationError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ToolInvocationError) Error() string {
	msg := fmt.Sprintf("tool invocation failed: %s", e.Command)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }

// Runner executes an external command and returns its stdout. Implementations
// must not retry; error handling is a caller concern.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec with a bounding timeout applied
// when the context has no deadline of its own.
type ExecRunner struct {
	Timeout time.Duration
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{Timeout: DefaultTimeout}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := r.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ToolInvocationError{
			Command: strings.Join(append([]string{name}, args...), " "),
			Stderr:  stderr.String(),
			Err:     err,
		}
	}
	return stdout.Bytes(), nil
}
