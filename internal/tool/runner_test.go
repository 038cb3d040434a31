package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolInvocationErrorPrefersStderr(t *testing.T) {
	err := &ToolInvocationError{
		Command: "xcrun simctl boot SIM-1",
		Stderr:  "Unable to boot device in current state: Booted\n",
		Err:     errors.New("exit status 149"),
	}
	assert.Equal(t, "tool invocation failed: xcrun simctl boot SIM-1: Unable to boot device in current state: Booted", err.Error())
}

func TestToolInvocationErrorFallsBackToErr(t *testing.T) {
	err := &ToolInvocationError{
		Command: "idb ui tap --udid SIM-1 10 10",
		Err:     errors.New("executable file not found in $PATH"),
	}
	assert.Contains(t, err.Error(), "executable file not found")
}

func TestToolInvocationErrorUnwrap(t *testing.T) {
	inner := errors.New("exit status 1")
	err := &ToolInvocationError{Command: "xcrun simctl list", Err: inner}
	assert.ErrorIs(t, err, inner)
}

func TestExecRunnerCapturesStdout(t *testing.T) {
	r := NewExecRunner()

	out, err := r.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestExecRunnerReportsFailure(t *testing.T) {
	r := NewExecRunner()

	_, err := r.Run(context.Background(), "false")
	var toolErr *ToolInvocationError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "false", toolErr.Command)
}
