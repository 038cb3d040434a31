package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosctl/iosctl/internal/device"
)

func TestResolveRawUDIDPassthrough(t *testing.T) {
	// Raw device identifiers bypass the store entirely; a nil store proves
	// the lookup is never consulted.
	r := NewResolver(nil)

	for _, udid := range []string{
		"5EA60616-3C4C-4B5B-9A1D-355C0D937AF0",
		"00008120-001A09E23C8A401E",
		"booted",
	} {
		got, err := r.Resolve(udid)
		require.NoError(t, err)
		assert.Equal(t, udid, got)
	}
}

func TestResolveSessionID(t *testing.T) {
	fleet := newFakeFleet(simDevice("SIM-1", "iPhone 15", device.StateBooted))
	store := newTestStore(t, fleet, Options{})
	r := NewResolver(store)

	id, err := store.Create(context.Background(), Config{DeviceName: "iPhone 15", PreferAvailable: true})
	require.NoError(t, err)

	got, err := r.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, "SIM-1", got)
}

func TestResolveUnknownSessionFails(t *testing.T) {
	fleet := newFakeFleet(simDevice("SIM-1", "iPhone 15", device.StateBooted))
	store := newTestStore(t, fleet, Options{})
	r := NewResolver(store)

	// Session-shaped but unknown: a single explicit error, no guessing.
	_, err := r.Resolve("session_1700000000_0badf00d")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestIsSessionID(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"session_1700000000_a1b2c3d4", true},
		{"automation_1700000000_deadbeef", true},
		{"my-run_1700000000_00000000", true},
		{"smoke_test_1700000000_abcdef01", true},
		{"5EA60616-3C4C-4B5B-9A1D-355C0D937AF0", false},
		{"00008120-001A09E23C8A401E", false},
		{"booted", false},
		{"session_notatime_a1b2c3d4", false},
		{"session_1700000000_ZZZZZZZZ", false},
		{"session_1700000000", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSessionID(tt.target))
		})
	}
}
