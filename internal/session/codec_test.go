package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosctl/iosctl/internal/device"
)

func TestCodecRoundTrip(t *testing.T) {
	created := time.Date(2026, 8, 30, 11, 30, 0, 0, time.UTC)
	sess := Session{
		ID:        "session_1788089400_a1b2c3d4",
		DeviceID:  "5EA60616-3C4C-4B5B-9A1D-355C0D937AF0",
		Kind:      device.KindSimulator,
		CreatedAt: created,
		Config: Config{
			DeviceName:      "iPhone 15",
			AutoBoot:        true,
			PreferAvailable: true,
			Metadata:        map[string]string{"purpose": "smoke"},
		},
		DeviceName: "iPhone 15",
		OSVersion:  "iOS 17.0",
		Model:      "iPhone15,2",
		Connection: "simulator",
	}

	data, err := encodeSession(sess)
	require.NoError(t, err)

	decoded, err := decodeSession(data)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, decoded.ID)
	assert.Equal(t, sess.DeviceID, decoded.DeviceID)
	assert.Equal(t, sess.Kind, decoded.Kind)
	assert.True(t, sess.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, sess.Config, decoded.Config)
	assert.Equal(t, sess.OSVersion, decoded.OSVersion)
}

func TestEncodeMatchesWireFormat(t *testing.T) {
	sess := Session{
		ID:        "session_1788089400_a1b2c3d4",
		DeviceID:  "SIM-1",
		Kind:      device.KindReal,
		CreatedAt: time.Date(2026, 8, 30, 11, 30, 0, 0, time.UTC),
	}
	data, err := encodeSession(sess)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "session_1788089400_a1b2c3d4", m["session_id"])
	assert.Equal(t, "SIM-1", m["device_udid"])
	assert.Equal(t, "real_device", m["device_type"])
	assert.Equal(t, "2026-08-30T11:30:00Z", m["created_at"])
	meta, ok := m["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, meta, "config")
	assert.Contains(t, meta, "custom_metadata")
}

func TestDecodeRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing session_id", `{"device_udid":"X","device_type":"simulator","created_at":"2026-08-30T11:30:00Z"}`},
		{"missing device_type", `{"session_id":"s","device_udid":"X","created_at":"2026-08-30T11:30:00Z"}`},
		{"unknown device_type", `{"session_id":"s","device_udid":"X","device_type":"toaster","created_at":"2026-08-30T11:30:00Z"}`},
		{"bad timestamp", `{"session_id":"s","device_udid":"X","device_type":"simulator","created_at":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeSession([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
