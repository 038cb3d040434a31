package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/iosctl/iosctl/internal/device"
)

const (
	DefaultMaxSessions     = 10
	DefaultAutoExpireAfter = 6 * time.Hour

	// aggressiveReapAge is the shorter threshold tried once when Create finds
	// the store at capacity, before giving up with CapacityExceededError.
	aggressiveReapAge = time.Hour

	defaultIDLabel = "session"
)

// DeviceProvider is the Store's view of the device registry.
type DeviceProvider interface {
	Discover(ctx context.Context, forceRefresh bool) ([]device.Device, error)
	Get(ctx context.Context, udid string) (device.Device, error)
	WaitUntilAvailable(ctx context.Context, udid string, timeout time.Duration) bool
}

// DeviceLifecycle boots, shuts down and erases devices on the Store's behalf.
type DeviceLifecycle interface {
	Boot(ctx context.Context, udid string, timeout time.Duration) error
	Shutdown(ctx context.Context, udid string) error
	Erase(ctx context.Context, udid string) error
}

// Options configures a Store. Zero values fall back to defaults.
type Options struct {
	Dir             string
	MaxSessions     int
	AutoExpireAfter time.Duration
	BootTimeout     time.Duration
	WaitTimeout     time.Duration

	Devices   DeviceProvider
	Lifecycle DeviceLifecycle

	// External is an optional secondary persistence collaborator. All calls
	// to it are best-effort.
	External External
}

// Store owns the session table and its persistence. Mutating operations
// (Create, Terminate, ReapExpired) are serialized by one mutex held for the
// full operation, including any boot/shutdown inside it; those external calls
// carry their own timeouts so the lock is never held indefinitely.
type Store struct {
	opts Options
	dir  string

	mu       sync.Mutex
	sessions map[string]Session
}

// DefaultDir returns ~/.iosctl/sessions.
func DefaultDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, ".iosctl", "sessions"), nil
}

// NewStore builds a store and synchronously recovers persisted sessions.
// Recovery discards and deletes malformed or expired records, moves
// unparsable files aside for postmortem inspection, and admits records
// oldest-first up to MaxSessions so the store never starts over capacity.
func NewStore(opts Options) (*Store, error) {
	if opts.Dir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		opts.Dir = dir
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.AutoExpireAfter <= 0 {
		opts.AutoExpireAfter = DefaultAutoExpireAfter
	}
	if opts.BootTimeout <= 0 {
		opts.BootTimeout = device.DefaultBootTimeout
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = device.DefaultBootTimeout
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create sessions directory")
	}

	s := &Store{
		opts:     opts,
		dir:      opts.Dir,
		sessions: make(map[string]Session),
	}
	s.loadSessions()
	return s, nil
}

// Create resolves a device for the given config, reserves it under a fresh
// session id, persists the record and returns the id.
func (s *Store) Create(ctx context.Context, cfg Config) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reapLocked(ctx, s.opts.AutoExpireAfter)

	if len(s.sessions) >= s.opts.MaxSessions {
		s.reapLocked(ctx, aggressiveReapAge)
		if len(s.sessions) >= s.opts.MaxSessions {
			return "", &CapacityExceededError{Max: s.opts.MaxSessions}
		}
	}

	dev, err := s.selectDevice(ctx, cfg)
	if err != nil {
		return "", err
	}

	id := s.generateIDLocked(cfg.SessionName)

	sess := Session{
		ID:         id,
		DeviceID:   dev.UDID,
		Kind:       dev.Kind,
		CreatedAt:  time.Now(),
		Config:     cfg,
		DeviceName: dev.Name,
		OSVersion:  dev.OSVersion,
		Model:      dev.Model,
		Connection: dev.Connection,
	}

	if err := s.saveSession(sess); err != nil {
		return "", err
	}
	s.sessions[id] = sess

	if s.opts.External != nil {
		if _, err := s.opts.External.Allocate(ctx, id, s.opts.AutoExpireAfter, cfg.Metadata); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("external allocation failed")
		}
	}

	log.Info().Str("session", id).Str("device", dev.Name).
		Int("active", len(s.sessions)).Int("max", s.opts.MaxSessions).
		Msg("session created")
	return id, nil
}

// Terminate removes a session. An id with no in-memory record but a leftover
// file on disk is treated as an orphan: the file is removed and the call
// succeeds. Anything else unknown is a NotFoundError.
func (s *Store) Terminate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		path := s.sessionPath(id)
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				return errors.Wrap(err, "remove orphaned session file")
			}
			// The orphan may still hold an external allocation from the
			// process that wrote the file.
			if s.opts.External != nil {
				if err := s.opts.External.Delete(ctx, id); err != nil {
					log.Warn().Err(err).Str("session", id).Msg("external delete failed")
				}
			}
			log.Info().Str("session", id).Msg("cleaned up orphaned session file")
			return nil
		}
		return &NotFoundError{ID: id}
	}

	s.terminateLocked(ctx, sess)
	return nil
}

// Get returns a read model joining the session with live device state.
func (s *Store) Get(ctx context.Context, id string) (View, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return View{}, &NotFoundError{ID: id}
	}

	view := View{
		Session:      sess,
		Age:          time.Since(sess.CreatedAt),
		CurrentState: device.StateUnknown,
	}
	if dev, err := s.opts.Devices.Get(ctx, sess.DeviceID); err == nil {
		view.CurrentState = dev.State
		view.IsAvailable = dev.State.Usable() && dev.Available
		view.Capabilities = device.Capabilities(dev)
	}
	return view, nil
}

// DeviceID returns the device bound to a session without touching the device
// registry. This is the resolver's fast path.
func (s *Store) DeviceID(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", &NotFoundError{ID: id}
	}
	return sess.DeviceID, nil
}

// List returns all live session ids, oldest first.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	return ids
}

// SessionsForDevice returns ids of all sessions bound to a device. Multiple
// sessions may share one device; exclusivity is not enforced.
func (s *Store) SessionsForDevice(udid string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, sess := range s.sessions {
		if sess.DeviceID == udid {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ReapExpired terminates all sessions older than maxAge (the store's
// AutoExpireAfter when maxAge <= 0) and returns their ids.
func (s *Store) ReapExpired(ctx context.Context, maxAge time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxAge <= 0 {
		maxAge = s.opts.AutoExpireAfter
	}
	return s.reapLocked(ctx, maxAge)
}

// Stats summarizes the session table.
type Stats struct {
	Total       int
	Simulators  int
	RealDevices int
	MaxSessions int
	OldestAge   time.Duration
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Total: len(s.sessions), MaxSessions: s.opts.MaxSessions}
	for _, sess := range s.sessions {
		switch sess.Kind {
		case device.KindSimulator:
			st.Simulators++
		case device.KindReal:
			st.RealDevices++
		}
		if age := time.Since(sess.CreatedAt); age > st.OldestAge {
			st.OldestAge = age
		}
	}
	return st
}

// Dir returns the session storage directory.
func (s *Store) Dir() string { return s.dir }

// Devices exposes the store's device provider so transport code shares one
// registry (and one discovery cache) with the store.
func (s *Store) Devices() DeviceProvider { return s.opts.Devices }

// Lifecycle exposes the store's device lifecycle operator.
func (s *Store) Lifecycle() DeviceLifecycle { return s.opts.Lifecycle }

func (s *Store) reapLocked(ctx context.Context, maxAge time.Duration) []string {
	var reaped []string
	for id, sess := range s.sessions {
		if time.Since(sess.CreatedAt) > maxAge {
			s.terminateLocked(ctx, sess)
			reaped = append(reaped, id)
		}
	}
	if len(reaped) > 0 {
		log.Info().Strs("sessions", reaped).Msg("reaped expired sessions")
	}
	return reaped
}

// terminateLocked runs the device-type-conditional shutdown, then removes the
// in-memory and persisted record. Shutdown failures never block removal.
func (s *Store) terminateLocked(ctx context.Context, sess Session) {
	if sess.Config.AutoBoot && sess.Kind == device.KindSimulator && s.opts.Lifecycle != nil {
		if err := s.opts.Lifecycle.Shutdown(ctx, sess.DeviceID); err != nil {
			log.Warn().Err(err).Str("session", sess.ID).Str("device", sess.DeviceID).
				Msg("shutdown of auto-booted simulator failed")
		}
	}

	delete(s.sessions, sess.ID)
	if err := os.Remove(s.sessionPath(sess.ID)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("session", sess.ID).Msg("failed to delete session file")
	}

	if s.opts.External != nil {
		if err := s.opts.External.Delete(ctx, sess.ID); err != nil {
			log.Warn().Err(err).Str("session", sess.ID).Msg("external delete failed")
		}
	}

	log.Info().Str("session", sess.ID).Msg("session terminated")
}

// selectDevice resolves the target device for a new session per the config,
// preparing it (boot / wait for connection) when needed.
func (s *Store) selectDevice(ctx context.Context, cfg Config) (device.Device, error) {
	if cfg.DeviceUDID != "" {
		dev, err := s.opts.Devices.Get(ctx, cfg.DeviceUDID)
		if err != nil {
			return device.Device{}, err
		}
		if cfg.DeviceKind != "" && dev.Kind != cfg.DeviceKind {
			return device.Device{}, &device.NotFoundError{
				Query: fmt.Sprintf("%s (kind %s)", cfg.DeviceUDID, cfg.DeviceKind),
			}
		}
		return s.prepareDevice(ctx, dev, cfg)
	}

	devices, err := s.opts.Devices.Discover(ctx, false)
	if err != nil {
		return device.Device{}, err
	}

	var candidates []device.Device
	for _, d := range devices {
		if cfg.DeviceName != "" && d.Name != cfg.DeviceName {
			continue
		}
		if cfg.DeviceKind != "" && d.Kind != cfg.DeviceKind {
			continue
		}
		if cfg.OSVersion != "" && !strings.Contains(d.OSVersion, cfg.OSVersion) {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return device.Device{}, &device.NotFoundError{Query: describeCriteria(cfg)}
	}

	if cfg.PreferAvailable {
		for _, d := range candidates {
			if d.State.Usable() {
				return d, nil
			}
		}
	}
	return s.prepareDevice(ctx, candidates[0], cfg)
}

func (s *Store) prepareDevice(ctx context.Context, dev device.Device, cfg Config) (device.Device, error) {
	if dev.State.Usable() {
		return dev, nil
	}

	switch {
	case dev.Kind == device.KindSimulator && cfg.AutoBoot:
		log.Info().Str("device", dev.Name).Msg("booting simulator")
		if err := s.opts.Lifecycle.Boot(ctx, dev.UDID, s.opts.BootTimeout); err != nil {
			return device.Device{}, err
		}
	case dev.Kind == device.KindReal && cfg.WaitForConnection:
		log.Info().Str("device", dev.Name).Msg("waiting for device connection")
		if !s.opts.Devices.WaitUntilAvailable(ctx, dev.UDID, s.opts.WaitTimeout) {
			return device.Device{}, &device.NotAvailableError{UDID: dev.UDID, Reason: "not connected"}
		}
	default:
		return device.Device{}, &device.NotAvailableError{UDID: dev.UDID, Reason: "not booted or connected"}
	}

	return s.opts.Devices.Get(ctx, dev.UDID)
}

// generateIDLocked builds <label>_<unixSeconds>_<8 hex> ids. Collisions are
// practically impossible but membership is still checked before accepting.
func (s *Store) generateIDLocked(label string) string {
	label = sanitizeLabel(label)
	for {
		entropy := uuid.NewString()[:8]
		id := fmt.Sprintf("%s_%d_%s", label, time.Now().Unix(), entropy)
		if _, taken := s.sessions[id]; !taken {
			return id
		}
	}
}

var labelInvalidRuns = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sanitizeLabel coerces a caller-supplied label into the id alphabet so every
// generated id keeps the <label>_<ts>_<hex> shape that IsSessionID recognizes
// and stays a plain file name. Invalid runs collapse to one dash; a label not
// starting with a letter gets the default prefix.
func sanitizeLabel(label string) string {
	label = labelInvalidRuns.ReplaceAllString(label, "-")
	label = strings.Trim(label, "-_")
	if label == "" {
		return defaultIDLabel
	}
	if c := label[0]; !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return defaultIDLabel + "-" + label
	}
	return label
}

func (s *Store) sessionPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) saveSession(sess Session) error {
	data, err := encodeSession(sess)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.sessionPath(sess.ID), data, 0644); err != nil {
		return errors.Wrap(err, "write session file")
	}
	return nil
}

// loadSessions recovers persisted records at construction time, before any
// caller can observe the store.
func (s *Store) loadSessions() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", s.dir).Msg("failed to read sessions directory")
		return
	}

	cutoff := time.Now().Add(-s.opts.AutoExpireAfter)
	var recovered []Session

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("failed to read session file")
			continue
		}

		sess, err := decodeSession(data)
		if err != nil {
			if isSyntaxError(err) {
				s.quarantine(path)
			} else {
				log.Warn().Err(err).Str("file", entry.Name()).Msg("deleting invalid session record")
				_ = os.Remove(path)
			}
			continue
		}

		if sess.CreatedAt.Before(cutoff) {
			_ = os.Remove(path)
			continue
		}

		recovered = append(recovered, sess)
	}

	// Oldest first, truncated at capacity; the remainder is removed so the
	// next start does not reconsider it.
	sort.Slice(recovered, func(i, j int) bool {
		return recovered[i].CreatedAt.Before(recovered[j].CreatedAt)
	})
	for i, sess := range recovered {
		if i >= s.opts.MaxSessions {
			log.Warn().Str("session", sess.ID).Msg("over capacity on load, discarding")
			_ = os.Remove(s.sessionPath(sess.ID))
			continue
		}
		s.sessions[sess.ID] = sess
	}

	if len(s.sessions) > 0 {
		log.Info().Int("count", len(s.sessions)).Msg("recovered sessions from disk")
	}
}

// isSyntaxError distinguishes files that are not JSON at all (quarantined for
// inspection) from well-formed records with bad contents (deleted).
func isSyntaxError(err error) bool {
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr)
}

func describeCriteria(cfg Config) string {
	var parts []string
	if cfg.DeviceName != "" {
		parts = append(parts, "name="+cfg.DeviceName)
	}
	if cfg.DeviceKind != "" {
		parts = append(parts, "kind="+string(cfg.DeviceKind))
	}
	if cfg.OSVersion != "" {
		parts = append(parts, "os="+cfg.OSVersion)
	}
	if len(parts) == 0 {
		return "any device"
	}
	return strings.Join(parts, " ")
}

// quarantine moves an unparsable file into a corrupted/ side area instead of
// deleting it, to allow postmortem inspection.
func (s *Store) quarantine(path string) {
	dir := filepath.Join(s.dir, "corrupted")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warn().Err(err).Msg("failed to create corrupted directory")
		return
	}
	dest := filepath.Join(dir, fmt.Sprintf("%s.%d.bak", filepath.Base(path), time.Now().Unix()))
	if err := os.Rename(path, dest); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to quarantine corrupted session file")
		return
	}
	log.Warn().Str("file", dest).Msg("moved corrupted session file aside")
}
