// Package apps installs, launches and inspects applications on a resolved
// device. Every operation is a single external command; there is no retry and
// no state beyond the injected collaborators.
package apps

import (
	"bufio"
	"context"
	"regexp"
	"strings"

	"github.com/iosctl/iosctl/internal/device"
	"github.com/iosctl/iosctl/internal/session"
	"github.com/iosctl/iosctl/internal/tool"
	"github.com/iosctl/iosctl/internal/validate"
)

// App describes one installed application.
type App struct {
	BundleID string
	Name     string
	Type     string // System or User
}

type Manager struct {
	resolver *session.Resolver
	runner   tool.Runner
	devices  session.DeviceProvider
}

func NewManager(resolver *session.Resolver, runner tool.Runner, devices session.DeviceProvider) *Manager {
	return &Manager{resolver: resolver, runner: runner, devices: devices}
}

// Install installs the app bundle at path. Simulators go through simctl,
// physical devices through devicectl.
func (m *Manager) Install(ctx context.Context, target, appPath string) error {
	udid, dev, err := m.resolveDevice(ctx, target)
	if err != nil {
		return err
	}
	if dev.Kind == device.KindReal {
		_, err = m.runner.Run(ctx, "xcrun", "devicectl", "device", "install", "app", "--device", udid, appPath)
		return err
	}
	_, err = m.runner.Run(ctx, "xcrun", "simctl", "install", udid, appPath)
	return err
}

func (m *Manager) Uninstall(ctx context.Context, target, bundleID string) error {
	if err := validate.BundleID(bundleID); err != nil {
		return err
	}
	udid, dev, err := m.resolveDevice(ctx, target)
	if err != nil {
		return err
	}
	if dev.Kind == device.KindReal {
		_, err = m.runner.Run(ctx, "xcrun", "devicectl", "device", "uninstall", "app", "--device", udid, bundleID)
		return err
	}
	_, err = m.runner.Run(ctx, "xcrun", "simctl", "uninstall", udid, bundleID)
	return err
}

func (m *Manager) Launch(ctx context.Context, target, bundleID string, args ...string) error {
	if err := validate.BundleID(bundleID); err != nil {
		return err
	}
	udid, dev, err := m.resolveDevice(ctx, target)
	if err != nil {
		return err
	}
	if dev.Kind == device.KindReal {
		cmdArgs := append([]string{"devicectl", "device", "process", "launch", "--device", udid, bundleID}, args...)
		_, err = m.runner.Run(ctx, "xcrun", cmdArgs...)
		return err
	}
	cmdArgs := append([]string{"simctl", "launch", udid, bundleID}, args...)
	_, err = m.runner.Run(ctx, "xcrun", cmdArgs...)
	return err
}

func (m *Manager) Terminate(ctx context.Context, target, bundleID string) error {
	if err := validate.BundleID(bundleID); err != nil {
		return err
	}
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, "xcrun", "simctl", "terminate", udid, bundleID)
	return err
}

// List returns installed apps. With userOnly, apps under the com.apple
// namespace are filtered out.
func (m *Manager) List(ctx context.Context, target string, userOnly bool) ([]App, error) {
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return nil, err
	}
	out, err := m.runner.Run(ctx, "xcrun", "simctl", "listapps", udid)
	if err != nil {
		return nil, err
	}

	apps := parseListApps(string(out))
	if !userOnly {
		return apps, nil
	}
	var user []App
	for _, a := range apps {
		if !strings.HasPrefix(a.BundleID, "com.apple.") {
			user = append(user, a)
		}
	}
	return user, nil
}

func (m *Manager) resolveDevice(ctx context.Context, target string) (string, device.Device, error) {
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return "", device.Device{}, err
	}
	dev, err := m.devices.Get(ctx, udid)
	if err != nil {
		return "", device.Device{}, err
	}
	return udid, dev, nil
}

var (
	bundleHeaderPattern = regexp.MustCompile(`^\s*"?([a-zA-Z0-9.\-]+)"?\s*=\s*\{`)
	plistFieldPattern   = regexp.MustCompile(`^\s*(\w+)\s*=\s*"?([^";]*)"?;`)
)

// parseListApps scans simctl's NeXTSTEP-plist listapps output. Only the
// fields we surface are pulled out; everything else is skipped.
func parseListApps(out string) []App {
	var apps []App
	var current *App

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if mm := bundleHeaderPattern.FindStringSubmatch(line); mm != nil && strings.Contains(mm[1], ".") {
			if current != nil {
				apps = append(apps, *current)
			}
			current = &App{BundleID: mm[1]}
			continue
		}
		if current == nil {
			continue
		}
		if mm := plistFieldPattern.FindStringSubmatch(line); mm != nil {
			switch mm[1] {
			case "CFBundleDisplayName", "CFBundleName":
				if current.Name == "" || mm[1] == "CFBundleDisplayName" {
					current.Name = mm[2]
				}
			case "ApplicationType":
				current.Type = mm[2]
			}
		}
	}
	if current != nil {
		apps = append(apps, *current)
	}
	return apps
}
