package session

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/iosctl/iosctl/internal/device"
)

// record is the on-disk session format. Save and load share this one codec so
// enum and timestamp handling cannot drift between the two paths.
type record struct {
	SessionID  string         `json:"session_id"`
	DeviceUDID string         `json:"device_udid"`
	DeviceType string         `json:"device_type"`
	CreatedAt  string         `json:"created_at"`
	Metadata   recordMetadata `json:"metadata"`
}

type recordMetadata struct {
	DeviceName     string            `json:"device_name"`
	OSVersion      string            `json:"os_version"`
	Model          string            `json:"model"`
	ConnectionType string            `json:"connection_type"`
	Config         Config            `json:"config"`
	CustomMetadata map[string]string `json:"custom_metadata"`
}

func encodeSession(s Session) ([]byte, error) {
	rec := record{
		SessionID:  s.ID,
		DeviceUDID: s.DeviceID,
		DeviceType: string(s.Kind),
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		Metadata: recordMetadata{
			DeviceName:     s.DeviceName,
			OSVersion:      s.OSVersion,
			Model:          s.Model,
			ConnectionType: s.Connection,
			Config:         s.Config,
			CustomMetadata: s.Config.Metadata,
		},
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal session record")
	}
	return data, nil
}

// decodeSession rejects records with missing required fields, an unparsable
// timestamp or an unknown device type. Callers delete such records outright.
func decodeSession(data []byte) (Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Session{}, errors.Wrap(err, "unmarshal session record")
	}

	if rec.SessionID == "" || rec.DeviceUDID == "" || rec.DeviceType == "" || rec.CreatedAt == "" {
		return Session{}, errors.New("session record missing required fields")
	}

	kind, err := device.ParseKind(rec.DeviceType)
	if err != nil {
		return Session{}, err
	}

	createdAt, err := time.Parse(time.RFC3339, rec.CreatedAt)
	if err != nil {
		return Session{}, errors.Wrapf(err, "invalid created_at %q", rec.CreatedAt)
	}

	return Session{
		ID:         rec.SessionID,
		DeviceID:   rec.DeviceUDID,
		Kind:       kind,
		CreatedAt:  createdAt,
		Config:     rec.Metadata.Config,
		DeviceName: rec.Metadata.DeviceName,
		OSVersion:  rec.Metadata.OSVersion,
		Model:      rec.Metadata.Model,
		Connection: rec.Metadata.ConnectionType,
	}, nil
}
