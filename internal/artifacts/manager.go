// Package artifacts manages capture output at ~/.iosctl/artifacts/: default
// destinations for screenshots and video recordings, grouped per device.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
)

// Manager hands out capture paths under the artifacts directory.
type Manager struct {
	dir string
}

// NewManager creates the artifacts directory if needed.
func NewManager() (*Manager, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".iosctl", "artifacts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	return &Manager{dir: dir}, nil
}

// NewManagerAt is the injectable variant used by tests and callers that keep
// artifacts outside the home directory.
func NewManagerAt(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the artifacts directory.
func (m *Manager) Dir() string {
	return m.dir
}

// ScreenshotPath returns a fresh timestamped PNG path for the device, creating
// the per-device directory on the way.
func (m *Manager) ScreenshotPath(udid string) (string, error) {
	return m.capturePath(udid, "screenshot", "png")
}

// RecordingPath returns a fresh timestamped MP4 path for the device.
func (m *Manager) RecordingPath(udid string) (string, error) {
	return m.capturePath(udid, "recording", "mp4")
}

func (m *Manager) capturePath(udid, kind, ext string) (string, error) {
	deviceDir := filepath.Join(m.dir, udid)
	if err := os.MkdirAll(deviceDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create device artifacts directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.%s", kind, time.Now().Format("20060102_150405"), ext)
	return filepath.Join(deviceDir, name), nil
}

// List returns capture files for one device, or for every device when udid is
// empty. Paths are absolute.
func (m *Manager) List(udid string) ([]string, error) {
	root := m.dir
	if udid != "" {
		root = filepath.Join(m.dir, udid)
		if _, err := os.Stat(root); os.IsNotExist(err) {
			return nil, nil
		}
	}

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return files, nil
}

// Clean removes all captured artifacts.
func (m *Manager) Clean() error {
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to clean artifacts: %w", err)
	}
	return os.MkdirAll(m.dir, 0755)
}
