// Package utilities collects the small device conveniences: opening URLs,
// permission management, keychain reset, window focus and log reading.
package utilities

import (
	"context"

	"github.com/iosctl/iosctl/internal/session"
	"github.com/iosctl/iosctl/internal/tool"
	"github.com/iosctl/iosctl/internal/validate"
)

type Manager struct {
	resolver *session.Resolver
	runner   tool.Runner
}

func NewManager(resolver *session.Resolver, runner tool.Runner) *Manager {
	return &Manager{resolver: resolver, runner: runner}
}

// OpenURL opens a URL (any scheme the device understands) on the target.
func (m *Manager) OpenURL(ctx context.Context, target, url string) error {
	if err := validate.URL(url); err != nil {
		return err
	}
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, "xcrun", "simctl", "openurl", udid, url)
	return err
}

// SetPermission grants, revokes or resets one permission service for an app.
func (m *Manager) SetPermission(ctx context.Context, target, bundleID, service, action string) error {
	if err := validate.BundleID(bundleID); err != nil {
		return err
	}
	if err := validate.PermissionService(service); err != nil {
		return err
	}
	if err := validate.PermissionAction(action); err != nil {
		return err
	}
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, "xcrun", "simctl", "privacy", udid, action, service, bundleID)
	return err
}

// ResetPermissions resets every permission service for an app.
func (m *Manager) ResetPermissions(ctx context.Context, target, bundleID string) error {
	return m.SetPermission(ctx, target, bundleID, "all", "reset")
}

// ClearKeychain resets the device keychain.
func (m *Manager) ClearKeychain(ctx context.Context, target string) error {
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, "xcrun", "simctl", "keychain", udid, "reset")
	return err
}

// Focus brings the Simulator app window to the foreground. The target is
// resolved first so a stale session id still fails loudly.
func (m *Manager) Focus(ctx context.Context, target string) error {
	if _, err := m.resolver.Resolve(target); err != nil {
		return err
	}
	_, err := m.runner.Run(ctx, "open", "-a", "Simulator")
	return err
}

// RecentLogs returns the device's unified log for the given window, e.g.
// "5m" or "1h".
func (m *Manager) RecentLogs(ctx context.Context, target, window string) (string, error) {
	if window == "" {
		window = "5m"
	}
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return "", err
	}
	out, err := m.runner.Run(ctx, "xcrun", "simctl", "spawn", udid,
		"log", "show", "--style", "compact", "--last", window)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
