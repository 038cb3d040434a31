package device

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iosctl/iosctl/internal/tool"
)

// DefaultBootTimeout bounds how long Boot waits for a simulator to come up.
const DefaultBootTimeout = 30 * time.Second

// Operator boots, shuts down and erases devices. All operations are
// idempotent: acting on a device already in the target state is a no-op.
type Operator struct {
	runner   tool.Runner
	registry *Registry
}

func NewOperator(runner tool.Runner, registry *Registry) *Operator {
	return &Operator{runner: runner, registry: registry}
}

// Boot starts a simulator and waits until the registry reports it usable.
func (o *Operator) Boot(ctx context.Context, udid string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultBootTimeout
	}

	d, err := o.registry.Get(ctx, udid)
	if err != nil {
		return err
	}
	if d.State.Usable() {
		return nil
	}

	if _, err := o.runner.Run(ctx, "xcrun", "simctl", "boot", udid); err != nil {
		if !alreadyInState(err) {
			return err
		}
	}

	if !o.registry.WaitUntilAvailable(ctx, udid, timeout) {
		return &NotAvailableError{UDID: udid, Reason: "did not boot within " + timeout.String()}
	}
	log.Debug().Str("udid", udid).Msg("device booted")
	return nil
}

// Shutdown stops a simulator. Already-shut-down errors are swallowed; all
// others propagate.
func (o *Operator) Shutdown(ctx context.Context, udid string) error {
	if _, err := o.runner.Run(ctx, "xcrun", "simctl", "shutdown", udid); err != nil {
		if alreadyInState(err) {
			return nil
		}
		return err
	}
	log.Debug().Str("udid", udid).Msg("device shut down")
	return nil
}

// Erase resets a simulator to factory state. The device must be shut down
// first; a best-effort shutdown is issued before erasing.
func (o *Operator) Erase(ctx context.Context, udid string) error {
	if err := o.Shutdown(ctx, udid); err != nil {
		log.Warn().Err(err).Str("udid", udid).Msg("shutdown before erase failed")
	}
	_, err := o.runner.Run(ctx, "xcrun", "simctl", "erase", udid)
	return err
}

// alreadyInState detects simctl's "Unable to boot device in current state:
// Booted" class of errors, which make boot/shutdown idempotent.
func alreadyInState(err error) bool {
	var te *tool.ToolInvocationError
	if !errors.As(err, &te) {
		return false
	}
	msg := strings.ToLower(te.Stderr)
	return strings.Contains(msg, "current state: booted") ||
		strings.Contains(msg, "current state: shutdown")
}
