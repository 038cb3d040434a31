package device

import "fmt"

// Kind distinguishes simulators from physical hardware. The string values are
// part of the persisted session format and must not change.
type Kind string

const (
	KindSimulator Kind = "simulator"
	KindReal      Kind = "real_device"
)

// ParseKind validates a persisted or user-supplied kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSimulator, KindReal:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown device kind: %q", s)
}

// State is a point-in-time power/connection state. The authoritative source is
// always a fresh discovery call; cached copies are advisory.
type State string

const (
	StateBooted       State = "Booted"
	StateShutdown     State = "Shutdown"
	StateConnected    State = "Connected"
	StateDisconnected State = "Disconnected"
	StateUnknown      State = "Unknown"
)

// Usable reports whether a device in this state can accept commands.
func (s State) Usable() bool {
	return s == StateBooted || s == StateConnected
}

// Device is a snapshot of one controllable endpoint. Values are never mutated
// in place; a fresh descriptor replaces a stale one on rediscovery.
type Device struct {
	UDID         string
	Name         string
	Kind         Kind
	State        State
	OSVersion    string
	Model        string
	Connection   string // simulator, usb, wifi
	Architecture string
	Available    bool
}

// NotFoundError: no device matches the given identity or selection criteria.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("device not found: %s", e.Query)
}

// NotAvailableError: a device exists but could not be brought to a usable
// state within the allowed time.
type NotAvailableError struct {
	UDID   string
	Reason string
}

func (e *NotAvailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("device not available: %s: %s", e.UDID, e.Reason)
	}
	return fmt.Sprintf("device not available: %s", e.UDID)
}

// Capabilities reports what operations a device supports. Simulators expose
// the full surface; physical devices are restricted by the platform.
func Capabilities(d Device) map[string]bool {
	if d.Kind == KindSimulator {
		return map[string]bool{
			"install_apps":      true,
			"simulate_location": true,
			"add_media":         true,
			"clear_keychain":    true,
			"erase_device":      true,
			"set_permissions":   true,
		}
	}
	return map[string]bool{
		"install_apps":      true,
		"simulate_location": true,
		"add_media":         true,
		"clear_keychain":    false,
		"erase_device":      false,
		"set_permissions":   false,
	}
}
