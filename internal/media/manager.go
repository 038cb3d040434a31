// Package media adds photos and videos to a resolved device and controls its
// simulated location.
package media

import (
	"context"
	"fmt"
	"os"

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

// Add imports the given media files into the device's library. All paths must
// exist before any command is issued.
func (m *Manager) Add(ctx context.Context, target string, paths ...string) error {
	if len(paths) == 0 {
		return &validate.ValidationError{Field: "media paths", Reason: "at least one file required"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return &validate.ValidationError{Field: "media path", Reason: fmt.Sprintf("%s does not exist", p)}
		}
	}
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return err
	}
	args := append([]string{"simctl", "addmedia", udid}, paths...)
	_, err = m.runner.Run(ctx, "xcrun", args...)
	return err
}

// SetLocation overrides the device's reported location.
func (m *Manager) SetLocation(ctx context.Context, target string, lat, long float64) error {
	if err := validate.LatLong(lat, long); err != nil {
		return err
	}
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, "xcrun", "simctl", "location", udid, "set",
		fmt.Sprintf("%f,%f", lat, long))
	return err
}

// ClearLocation removes any location override.
func (m *Manager) ClearLocation(ctx context.Context, target string) error {
	udid, err := m.resolver.Resolve(target)
	if err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, "xcrun", "simctl", "location", udid, "clear")
	return err
}
