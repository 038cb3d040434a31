package utilities

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosctl/iosctl/internal/session"
	"github.com/iosctl/iosctl/internal/validate"
)

type fakeRunner struct {
	mu     sync.Mutex
	output string
	calls  []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	out := r.output
	r.mu.Unlock()
	return []byte(out), nil
}

func fixture() (*fakeRunner, *Manager) {
	runner := &fakeRunner{}
	return runner, NewManager(session.NewResolver(nil), runner)
}

func TestOpenURL(t *testing.T) {
	runner, m := fixture()

	require.NoError(t, m.OpenURL(context.Background(), "SIM-1", "https://example.com"))
	assert.Equal(t, []string{"xcrun simctl openurl SIM-1 https://example.com"}, runner.calls)
}

func TestOpenURLRejectsSchemelessURL(t *testing.T) {
	runner, m := fixture()

	err := m.OpenURL(context.Background(), "SIM-1", "example.com")
	var ve *validate.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, runner.calls)
}

func TestSetPermission(t *testing.T) {
	runner, m := fixture()

	require.NoError(t, m.SetPermission(context.Background(), "SIM-1", "com.example.app", "photos", "grant"))
	assert.Equal(t, []string{"xcrun simctl privacy SIM-1 grant photos com.example.app"}, runner.calls)
}

func TestSetPermissionValidatesInputs(t *testing.T) {
	runner, m := fixture()
	ctx := context.Background()

	var ve *validate.ValidationError
	require.ErrorAs(t, m.SetPermission(ctx, "SIM-1", "bad id", "photos", "grant"), &ve)
	require.ErrorAs(t, m.SetPermission(ctx, "SIM-1", "com.example.app", "bluetooth", "grant"), &ve)
	require.ErrorAs(t, m.SetPermission(ctx, "SIM-1", "com.example.app", "photos", "allow"), &ve)
	assert.Empty(t, runner.calls)
}

func TestResetPermissions(t *testing.T) {
	runner, m := fixture()

	require.NoError(t, m.ResetPermissions(context.Background(), "SIM-1", "com.example.app"))
	assert.Equal(t, []string{"xcrun simctl privacy SIM-1 reset all com.example.app"}, runner.calls)
}

func TestClearKeychain(t *testing.T) {
	runner, m := fixture()

	require.NoError(t, m.ClearKeychain(context.Background(), "SIM-1"))
	assert.Equal(t, []string{"xcrun simctl keychain SIM-1 reset"}, runner.calls)
}

func TestFocus(t *testing.T) {
	runner, m := fixture()

	require.NoError(t, m.Focus(context.Background(), "SIM-1"))
	assert.Equal(t, []string{"open -a Simulator"}, runner.calls)
}

func TestRecentLogsDefaultWindow(t *testing.T) {
	runner, m := fixture()
	runner.output = "log line\n"

	out, err := m.RecentLogs(context.Background(), "SIM-1", "")
	require.NoError(t, err)
	assert.Equal(t, "log line\n", out)
	assert.Equal(t, []string{"xcrun simctl spawn SIM-1 log show --style compact --last 5m"}, runner.calls)
}

func TestRecentLogsExplicitWindow(t *testing.T) {
	runner, m := fixture()

	_, err := m.RecentLogs(context.Background(), "SIM-1", "1h")
	require.NoError(t, err)
	assert.Contains(t, runner.calls[0], "--last 1h")
}
