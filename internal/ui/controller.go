// Package ui drives gestures, text entry and screen capture on a resolved
// device through idb and simctl io.
package ui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/iosctl/iosctl/internal/device"
	"github.com/iosctl/iosctl/internal/session"
	"github.com/iosctl/iosctl/internal/tool"
	"github.com/iosctl/iosctl/internal/validate"
)

// Hardware buttons idb understands.
var buttons = map[string]bool{
	"APPLE_PAY": true, "HOME": true, "LOCK": true,
	"SIDE_BUTTON": true, "SIRI": true,
}

type Controller struct {
	resolver *session.Resolver
	runner   tool.Runner
	devices  session.DeviceProvider
}

func NewController(resolver *session.Resolver, runner tool.Runner, devices session.DeviceProvider) *Controller {
	return &Controller{resolver: resolver, runner: runner, devices: devices}
}

func (c *Controller) Tap(ctx context.Context, target string, x, y int) error {
	if err := validate.Coordinates(x, y); err != nil {
		return err
	}
	udid, err := c.resolveBooted(ctx, target)
	if err != nil {
		return err
	}
	_, err = c.runner.Run(ctx, "idb", "ui", "tap", "--udid", udid,
		strconv.Itoa(x), strconv.Itoa(y))
	return err
}

func (c *Controller) Swipe(ctx context.Context, target string, x1, y1, x2, y2, durationMS int) error {
	if err := validate.Coordinates(x1, y1); err != nil {
		return err
	}
	if err := validate.Coordinates(x2, y2); err != nil {
		return err
	}
	udid, err := c.resolveBooted(ctx, target)
	if err != nil {
		return err
	}
	if durationMS <= 0 {
		durationMS = 100
	}
	_, err = c.runner.Run(ctx, "idb", "ui", "swipe", "--udid", udid,
		"--duration", fmt.Sprintf("%.2f", float64(durationMS)/1000),
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2))
	return err
}

func (c *Controller) TypeText(ctx context.Context, target, text string) error {
	udid, err := c.resolveBooted(ctx, target)
	if err != nil {
		return err
	}
	_, err = c.runner.Run(ctx, "idb", "ui", "text", "--udid", udid, text)
	return err
}

func (c *Controller) PressButton(ctx context.Context, target, button string) error {
	if !buttons[button] {
		return &validate.ValidationError{Field: "button", Reason: fmt.Sprintf("unknown button %q", button)}
	}
	udid, err := c.resolveBooted(ctx, target)
	if err != nil {
		return err
	}
	_, err = c.runner.Run(ctx, "idb", "ui", "button", "--udid", udid, button)
	return err
}

// Screenshot captures the screen to outputPath as PNG.
func (c *Controller) Screenshot(ctx context.Context, target, outputPath string) error {
	udid, err := c.resolveBooted(ctx, target)
	if err != nil {
		return err
	}
	_, err = c.runner.Run(ctx, "xcrun", "simctl", "io", udid, "screenshot", outputPath)
	return err
}

// RecordVideo records until ctx is done; callers bound it with a deadline.
func (c *Controller) RecordVideo(ctx context.Context, target, outputPath string) error {
	udid, err := c.resolveBooted(ctx, target)
	if err != nil {
		return err
	}
	_, err = c.runner.Run(ctx, "xcrun", "simctl", "io", udid, "recordVideo", "--force", outputPath)
	return err
}

// resolveBooted resolves the target and requires the device to be in a usable
// state; gestures against a shut-down simulator fail opaquely otherwise.
func (c *Controller) resolveBooted(ctx context.Context, target string) (string, error) {
	udid, err := c.resolver.Resolve(target)
	if err != nil {
		return "", err
	}
	dev, err := c.devices.Get(ctx, udid)
	if err != nil {
		return "", err
	}
	if !dev.State.Usable() {
		return "", &device.NotAvailableError{UDID: udid, Reason: "device is not booted"}
	}
	return udid, nil
}
