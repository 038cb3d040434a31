package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iosctl/iosctl/internal/artifacts"
	"github.com/iosctl/iosctl/internal/ui"
)

var swipeDurationMS int

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Drive the UI of a session's device",
}

var uiTapCmd = &cobra.Command{
	Use:   "tap <session-or-udid> <x> <y>",
	Short: "Tap at screen coordinates",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := uiController()
		if err != nil {
			return err
		}
		x, y, err := parsePoint(args[1], args[2])
		if err != nil {
			return err
		}
		return c.Tap(cmd.Context(), args[0], x, y)
	},
}

var uiSwipeCmd = &cobra.Command{
	Use:   "swipe <session-or-udid> <x1> <y1> <x2> <y2>",
	Short: "Swipe between two points",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := uiController()
		if err != nil {
			return err
		}
		x1, y1, err := parsePoint(args[1], args[2])
		if err != nil {
			return err
		}
		x2, y2, err := parsePoint(args[3], args[4])
		if err != nil {
			return err
		}
		return c.Swipe(cmd.Context(), args[0], x1, y1, x2, y2, swipeDurationMS)
	},
}

var uiTypeCmd = &cobra.Command{
	Use:   "type <session-or-udid> <text>",
	Short: "Type text into the focused field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := uiController()
		if err != nil {
			return err
		}
		return c.TypeText(cmd.Context(), args[0], args[1])
	},
}

var uiButtonCmd = &cobra.Command{
	Use:   "button <session-or-udid> <button>",
	Short: "Press a hardware button (HOME, LOCK, SIRI, ...)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := uiController()
		if err != nil {
			return err
		}
		return c.PressButton(cmd.Context(), args[0], args[1])
	},
}

var uiScreenshotCmd = &cobra.Command{
	Use:   "screenshot <session-or-udid> [output-path]",
	Short: "Capture the screen as PNG",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeps()
		if err != nil {
			return err
		}
		output, err := captureOutput(d, args, artifactScreenshot)
		if err != nil {
			return err
		}
		c := ui.NewController(d.resolver, d.runner, d.devices)
		if err := c.Screenshot(cmd.Context(), args[0], output); err != nil {
			return err
		}
		fmt.Printf("Screenshot saved to %s\n", output)
		return nil
	},
}

var recordDurationSec int

var uiRecordCmd = &cobra.Command{
	Use:   "record <session-or-udid> [output-path]",
	Short: "Record the screen to MP4 for a fixed duration",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeps()
		if err != nil {
			return err
		}
		output, err := captureOutput(d, args, artifactRecording)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(recordDurationSec)*time.Second)
		defer cancel()

		c := ui.NewController(d.resolver, d.runner, d.devices)
		// recordVideo runs until the deadline stops it; that is the intended
		// way to bound the capture.
		err = c.RecordVideo(ctx, args[0], output)
		if err != nil && ctx.Err() == nil {
			return err
		}
		fmt.Printf("Recording saved to %s\n", output)
		return nil
	},
}

type artifactKind int

const (
	artifactScreenshot artifactKind = iota
	artifactRecording
)

// captureOutput picks the destination path: the explicit second argument when
// given, otherwise a timestamped file under the artifacts directory.
func captureOutput(d *deps, args []string, kind artifactKind) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	udid, err := d.resolver.Resolve(args[0])
	if err != nil {
		return "", err
	}
	store, err := artifacts.NewManager()
	if err != nil {
		return "", err
	}
	if kind == artifactRecording {
		return store.RecordingPath(udid)
	}
	return store.ScreenshotPath(udid)
}

func init() {
	uiSwipeCmd.Flags().IntVar(&swipeDurationMS, "duration", 100, "swipe duration in milliseconds")
	uiRecordCmd.Flags().IntVar(&recordDurationSec, "duration", 10, "recording duration in seconds")

	uiCmd.AddCommand(uiTapCmd, uiSwipeCmd, uiTypeCmd, uiButtonCmd, uiScreenshotCmd, uiRecordCmd)
	rootCmd.AddCommand(uiCmd)
}

func uiController() (*ui.Controller, error) {
	d, err := loadDeps()
	if err != nil {
		return nil, err
	}
	return ui.NewController(d.resolver, d.runner, d.devices), nil
}

func parsePoint(xs, ys string) (int, int, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x coordinate %q", xs)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y coordinate %q", ys)
	}
	return x, y, nil
}
