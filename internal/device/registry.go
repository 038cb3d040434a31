package device

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/iosctl/iosctl/internal/tool"
)

// DefaultCacheTTL bounds how stale a discovery snapshot may be before the
// next Discover call re-runs the external listing commands.
const DefaultCacheTTL = 30 * time.Second

const runtimePrefix = "com.apple.CoreSimulator.SimRuntime."

// Registry discovers devices by shelling out to simctl and devicectl and
// caches the flattened result for a short TTL. The cache is advisory; callers
// that need fresh state pass forceRefresh.
type Registry struct {
	runner tool.Runner
	ttl    time.Duration

	mu       sync.Mutex
	cached   []Device
	cachedAt time.Time
}

func NewRegistry(runner tool.Runner, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Registry{runner: runner, ttl: ttl}
}

// Discover returns a snapshot of all known devices. Simulator discovery
// failure is fatal; the physical-device leg is best-effort because devicectl
// is not present on every host.
func (r *Registry) Discover(ctx context.Context, forceRefresh bool) ([]Device, error) {
	r.mu.Lock()
	if !forceRefresh && r.cached != nil && time.Since(r.cachedAt) < r.ttl {
		devices := r.cached
		r.mu.Unlock()
		return devices, nil
	}
	r.mu.Unlock()

	simulators, err := r.discoverSimulators(ctx)
	if err != nil {
		return nil, err
	}

	devices := simulators
	physical, err := r.discoverPhysical(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("physical device discovery failed")
	} else {
		devices = append(devices, physical...)
	}

	r.mu.Lock()
	r.cached = devices
	r.cachedAt = time.Now()
	r.mu.Unlock()

	return devices, nil
}

// Get returns the descriptor for one device, or NotFoundError.
func (r *Registry) Get(ctx context.Context, udid string) (Device, error) {
	devices, err := r.Discover(ctx, false)
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.UDID == udid {
			return d, nil
		}
	}
	return Device{}, &NotFoundError{Query: udid}
}

// WaitUntilAvailable polls discovery at one-second intervals until the device
// reports a usable state or the timeout elapses. Timeout is not an error.
func (r *Registry) WaitUntilAvailable(ctx context.Context, udid string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		d, err := r.Get(ctx, udid)
		if err == nil && d.State.Usable() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Second):
		}
		// Drop the cache so the next Get sees live state.
		if _, err := r.Discover(ctx, true); err != nil {
			log.Debug().Err(err).Str("udid", udid).Msg("discovery refresh failed while waiting")
		}
	}
}

type simctlList struct {
	Devices map[string][]simctlDevice `json:"devices"`
}

type simctlDevice struct {
	UDID                 string `json:"udid"`
	Name                 string `json:"name"`
	State                string `json:"state"`
	IsAvailable          bool   `json:"isAvailable"`
	DeviceTypeIdentifier string `json:"deviceTypeIdentifier"`
}

func (r *Registry) discoverSimulators(ctx context.Context) ([]Device, error) {
	out, err := r.runner.Run(ctx, "xcrun", "simctl", "list", "devices", "--json")
	if err != nil {
		return nil, err
	}

	var list simctlList
	if err := json.Unmarshal(out, &list); err != nil {
		return nil, &tool.ToolInvocationError{
			Command: "xcrun simctl list devices --json",
			Stderr:  "unparsable device list output",
			Err:     errors.Wrap(err, "decode simctl list"),
		}
	}

	var devices []Device
	for runtimeID, group := range list.Devices {
		osVersion := osVersionFromRuntime(runtimeID)
		for _, sd := range group {
			state := StateShutdown
			if sd.State == "Booted" {
				state = StateBooted
			}
			devices = append(devices, Device{
				UDID:       sd.UDID,
				Name:       sd.Name,
				Kind:       KindSimulator,
				State:      state,
				OSVersion:  osVersion,
				Model:      sd.DeviceTypeIdentifier,
				Connection: "simulator",
				Available:  sd.IsAvailable,
			})
		}
	}
	return devices, nil
}

type devicectlList struct {
	Result struct {
		Devices []struct {
			Identifier       string `json:"identifier"`
			DeviceProperties struct {
				Name            string `json:"name"`
				OSVersionNumber string `json:"osVersionNumber"`
			} `json:"deviceProperties"`
			HardwareProperties struct {
				MarketingName string `json:"marketingName"`
				CPUType       struct {
					Name string `json:"name"`
				} `json:"cpuType"`
			} `json:"hardwareProperties"`
			ConnectionProperties struct {
				TransportType string `json:"transportType"`
			} `json:"connectionProperties"`
		} `json:"devices"`
	} `json:"result"`
}

func (r *Registry) discoverPhysical(ctx context.Context) ([]Device, error) {
	out, err := r.runner.Run(ctx, "xcrun", "devicectl", "list", "devices", "--json-output", "-")
	if err != nil {
		return nil, err
	}

	var list devicectlList
	if err := json.Unmarshal(out, &list); err != nil {
		return nil, errors.Wrap(err, "decode devicectl list")
	}

	var devices []Device
	for _, pd := range list.Result.Devices {
		state := StateDisconnected
		transport := strings.ToLower(pd.ConnectionProperties.TransportType)
		if transport != "" {
			state = StateConnected
		}
		connection := "usb"
		if strings.Contains(transport, "network") || strings.Contains(transport, "wifi") {
			connection = "wifi"
		}
		devices = append(devices, Device{
			UDID:         pd.Identifier,
			Name:         pd.DeviceProperties.Name,
			Kind:         KindReal,
			State:        state,
			OSVersion:    pd.DeviceProperties.OSVersionNumber,
			Model:        pd.HardwareProperties.MarketingName,
			Connection:   connection,
			Architecture: pd.HardwareProperties.CPUType.Name,
			Available:    state == StateConnected,
		})
	}
	return devices, nil
}

// osVersionFromRuntime maps "com.apple.CoreSimulator.SimRuntime.iOS-17-0"
// to "iOS 17.0".
func osVersionFromRuntime(runtimeID string) string {
	cleaned := strings.TrimPrefix(runtimeID, runtimePrefix)
	parts := strings.Split(cleaned, "-")
	if len(parts) >= 3 {
		return parts[0] + " " + parts[1] + "." + parts[2]
	}
	return cleaned
}
