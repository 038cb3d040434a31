package session

import (
	"sync"

	"github.com/iosctl/iosctl/internal/config"
	"github.com/iosctl/iosctl/internal/device"
	"github.com/iosctl/iosctl/internal/tool"
)

// The process must hold exactly one authoritative store: a session created
// through one store handle and looked up through a second, independently
// constructed store would be reported as not found even though it is alive.
// Every resolution path goes through Canonical (or an explicitly injected
// store); nothing constructs a private store of its own.
var (
	canonicalMu  sync.Mutex
	canonical    *Store
	canonicalErr error
)

// Canonical returns the process-wide store, constructing it from the loaded
// configuration on first use. The result is fixed for the process lifetime.
func Canonical() (*Store, error) {
	canonicalMu.Lock()
	defer canonicalMu.Unlock()

	if canonical != nil || canonicalErr != nil {
		return canonical, canonicalErr
	}

	cfg, err := config.Load()
	if err != nil {
		canonicalErr = err
		return nil, err
	}

	runner := &tool.ExecRunner{Timeout: cfg.Tool.Timeout}
	registry := device.NewRegistry(runner, cfg.Device.CacheTTL)
	operator := device.NewOperator(runner, registry)

	canonical, canonicalErr = NewStore(Options{
		Dir:             cfg.Session.Dir,
		MaxSessions:     cfg.Session.MaxSessions,
		AutoExpireAfter: cfg.Session.AutoExpire,
		BootTimeout:     cfg.Device.BootTimeout,
		WaitTimeout:     cfg.Device.WaitTimeout,
		Devices:         registry,
		Lifecycle:       operator,
	})
	return canonical, canonicalErr
}

// SetCanonical fixes the canonical store explicitly. Call it once at process
// start when wiring dependencies by hand (or from tests); later Canonical
// calls return exactly this store.
func SetCanonical(s *Store) {
	canonicalMu.Lock()
	defer canonicalMu.Unlock()
	canonical = s
	canonicalErr = nil
}
