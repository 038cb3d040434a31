package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosctl/iosctl/internal/device"
	"github.com/iosctl/iosctl/internal/session"
	"github.com/iosctl/iosctl/internal/validate"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	r.mu.Unlock()
	return nil, nil
}

type fakeDevices struct {
	devices map[string]device.Device
}

func (f *fakeDevices) Discover(ctx context.Context, forceRefresh bool) ([]device.Device, error) {
	var out []device.Device
	for _, d := range f.devices {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDevices) Get(ctx context.Context, udid string) (device.Device, error) {
	d, ok := f.devices[udid]
	if !ok {
		return device.Device{}, &device.NotFoundError{Query: udid}
	}
	return d, nil
}

func (f *fakeDevices) WaitUntilAvailable(ctx context.Context, udid string, timeout time.Duration) bool {
	d, ok := f.devices[udid]
	return ok && d.State.Usable()
}

func fixture() (*fakeRunner, *Controller) {
	runner := &fakeRunner{}
	devices := &fakeDevices{devices: map[string]device.Device{
		"SIM-1": {UDID: "SIM-1", Kind: device.KindSimulator, State: device.StateBooted},
		"SIM-2": {UDID: "SIM-2", Kind: device.KindSimulator, State: device.StateShutdown},
	}}
	return runner, NewController(session.NewResolver(nil), runner, devices)
}

func TestTap(t *testing.T) {
	runner, c := fixture()

	require.NoError(t, c.Tap(context.Background(), "SIM-1", 100, 250))
	assert.Equal(t, []string{"idb ui tap --udid SIM-1 100 250"}, runner.calls)
}

func TestTapRejectsNegativeCoordinates(t *testing.T) {
	runner, c := fixture()

	err := c.Tap(context.Background(), "SIM-1", -5, 10)
	var ve *validate.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, runner.calls)
}

func TestSwipeDuration(t *testing.T) {
	runner, c := fixture()

	require.NoError(t, c.Swipe(context.Background(), "SIM-1", 0, 500, 0, 100, 250))
	assert.Equal(t, []string{"idb ui swipe --udid SIM-1 --duration 0.25 0 500 0 100"}, runner.calls)
}

func TestSwipeDefaultDuration(t *testing.T) {
	runner, c := fixture()

	require.NoError(t, c.Swipe(context.Background(), "SIM-1", 0, 500, 0, 100, 0))
	assert.Contains(t, runner.calls[0], "--duration 0.10")
}

func TestTypeText(t *testing.T) {
	runner, c := fixture()

	require.NoError(t, c.TypeText(context.Background(), "SIM-1", "hello world"))
	assert.Equal(t, []string{"idb ui text --udid SIM-1 hello world"}, runner.calls)
}

func TestPressButton(t *testing.T) {
	runner, c := fixture()

	require.NoError(t, c.PressButton(context.Background(), "SIM-1", "HOME"))
	assert.Equal(t, []string{"idb ui button --udid SIM-1 HOME"}, runner.calls)

	err := c.PressButton(context.Background(), "SIM-1", "VOLUME_UP")
	var ve *validate.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestScreenshot(t *testing.T) {
	runner, c := fixture()

	require.NoError(t, c.Screenshot(context.Background(), "SIM-1", "/tmp/shot.png"))
	assert.Equal(t, []string{"xcrun simctl io SIM-1 screenshot /tmp/shot.png"}, runner.calls)
}

func TestGesturesRequireBootedDevice(t *testing.T) {
	runner, c := fixture()

	err := c.Tap(context.Background(), "SIM-2", 10, 10)
	var na *device.NotAvailableError
	require.ErrorAs(t, err, &na)
	assert.Empty(t, runner.calls)
}
