package session

import (
	"fmt"
	"regexp"
	"time"

	"github.com/iosctl/iosctl/internal/device"
)

// Config holds the selection criteria and options used to create a session.
// It is stored on the session record for audit and for cleanup decisions.
type Config struct {
	DeviceName        string            `json:"device_name,omitempty"`
	DeviceUDID        string            `json:"device_udid,omitempty"`
	DeviceKind        device.Kind       `json:"device_type,omitempty"`
	OSVersion         string            `json:"os_version,omitempty"` // substring match
	AutoBoot          bool              `json:"autoboot"`
	WaitForConnection bool              `json:"wait_for_connection"`
	PreferAvailable   bool              `json:"prefer_available"`
	SessionName       string            `json:"session_name,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Session is the reservation of one device for a caller's logical use. Only
// the Store mutates sessions; everything handed out is a copy.
type Session struct {
	ID        string
	DeviceID  string
	Kind      device.Kind // kind at creation; survives the device disappearing
	CreatedAt time.Time
	Config    Config

	// Device facts captured at creation, kept for display when the live
	// descriptor is gone.
	DeviceName string
	OSVersion  string
	Model      string
	Connection string
}

// View joins a stored session with freshly queried device state. Age and
// availability are computed at call time, never cached.
type View struct {
	Session
	Age          time.Duration
	CurrentState device.State
	IsAvailable  bool
	Capabilities map[string]bool
}

// NotFoundError: the session id has no live record. It either never existed,
// was terminated, or expired and was reaped.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// CapacityExceededError: creation was rejected because the store is full even
// after an expiry sweep. Live sessions are never evicted to make room.
type CapacityExceededError struct {
	Max int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("maximum sessions (%d) reached, terminate existing sessions first", e.Max)
}

// Session ids have the shape <label>_<unixSeconds>_<8 hex chars>. The shape
// lets capability modules accept either a session id or a raw device UDID
// through the same parameter.
var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*_[0-9]{9,11}_[0-9a-f]{8}$`)

// IsSessionID reports whether target is structurally a session id rather than
// a raw device identifier.
func IsSessionID(target string) bool {
	return sessionIDPattern.MatchString(target)
}
