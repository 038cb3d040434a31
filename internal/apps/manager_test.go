package apps

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
	mu      sync.Mutex
	outputs map[string]string
	calls   []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := name + " " + strings.Join(args, " ")
	r.mu.Lock()
	r.calls = append(r.calls, key)
	out := r.outputs[key]
	r.mu.Unlock()
	return []byte(out), nil
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

func fixture() (*fakeRunner, *Manager) {
	runner := &fakeRunner{outputs: make(map[string]string)}
	devices := &fakeDevices{devices: map[string]device.Device{
		"SIM-1": {UDID: "SIM-1", Name: "iPhone 15", Kind: device.KindSimulator, State: device.StateBooted},
		"DEV-1": {UDID: "DEV-1", Name: "Dev iPhone", Kind: device.KindReal, State: device.StateConnected},
	}}
	return runner, NewManager(session.NewResolver(nil), runner, devices)
}

func TestInstallRoutesByDeviceKind(t *testing.T) {
	runner, m := fixture()
	ctx := context.Background()

	require.NoError(t, m.Install(ctx, "SIM-1", "/tmp/My.app"))
	assert.Equal(t, "xcrun simctl install SIM-1 /tmp/My.app", runner.calls[len(runner.calls)-1])

	require.NoError(t, m.Install(ctx, "DEV-1", "/tmp/My.app"))
	assert.Equal(t, "xcrun devicectl device install app --device DEV-1 /tmp/My.app", runner.calls[len(runner.calls)-1])
}

func TestLaunchValidatesBundleID(t *testing.T) {
	runner, m := fixture()

	err := m.Launch(context.Background(), "SIM-1", "not a bundle id")
	var ve *validate.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, runner.calls)
}

func TestLaunchWithArguments(t *testing.T) {
	runner, m := fixture()

	require.NoError(t, m.Launch(context.Background(), "SIM-1", "com.example.app", "-flag", "value"))
	assert.Equal(t, "xcrun simctl launch SIM-1 com.example.app -flag value", runner.calls[0])
}

func TestTerminateApp(t *testing.T) {
	runner, m := fixture()

	require.NoError(t, m.Terminate(context.Background(), "SIM-1", "com.example.app"))
	assert.Equal(t, "xcrun simctl terminate SIM-1 com.example.app", runner.calls[0])
}

const listAppsOutput = `{
    "com.apple.Bridge" =     {
        ApplicationType = System;
        CFBundleDisplayName = Watch;
        CFBundleIdentifier = "com.apple.Bridge";
    };
    "com.example.todo" =     {
        ApplicationType = User;
        CFBundleDisplayName = "Todo";
        CFBundleName = TodoApp;
    };
    "org.demo.kiosk" =     {
        ApplicationType = User;
        CFBundleName = Kiosk;
    };
}`

func TestListFiltersSystemApps(t *testing.T) {
	runner, m := fixture()
	runner.outputs["xcrun simctl listapps SIM-1"] = listAppsOutput

	apps, err := m.List(context.Background(), "SIM-1", true)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "com.example.todo", apps[0].BundleID)
	assert.Equal(t, "Todo", apps[0].Name)
	assert.Equal(t, "User", apps[0].Type)
	assert.Equal(t, "org.demo.kiosk", apps[1].BundleID)
	assert.Equal(t, "Kiosk", apps[1].Name)
}

func TestListIncludesSystemAppsWhenAsked(t *testing.T) {
	runner, m := fixture()
	runner.outputs["xcrun simctl listapps SIM-1"] = listAppsOutput

	apps, err := m.List(context.Background(), "SIM-1", false)
	require.NoError(t, err)
	assert.Len(t, apps, 3)
}

func TestUnknownDevice(t *testing.T) {
	_, m := fixture()

	err := m.Install(context.Background(), "GHOST", "/tmp/My.app")
	var notFound *device.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
