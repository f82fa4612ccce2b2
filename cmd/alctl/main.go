// Command alctl is an operator CLI for exercising the audio engine core
// end to end: enumerating backends/devices, and opening a loopback device
// with an attribute list and one playing source. No audio frames are
// rendered.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HuxyUK/openal-soft/alcore"
	"github.com/HuxyUK/openal-soft/internal/config"
	"github.com/HuxyUK/openal-soft/internal/logging"
)

type rootFlags struct {
	driverOrder  string
	logLevel     string
	configPath   string
	deviceConfig string
}

func main() {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:   "alctl",
		Short: "Operator CLI for the audio engine core",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			_ = level.UnmarshalText([]byte(strings.ToUpper(flags.logLevel)))
			logging.Init(logging.Config{Level: level})
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&flags.driverOrder, "drivers", "", "backend driver order override, e.g. \"malgo,-null\"")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to alsoft config directory")
	rootCmd.PersistentFlags().StringVar(&flags.deviceConfig, "device-config", "", "path to a per-device YAML override fragment")

	rootCmd.AddCommand(newBackendsCommand())
	rootCmd.AddCommand(newDevicesCommand(&flags))
	rootCmd.AddCommand(newRenderCommand(&flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List compiled-in backend adaptors",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, b := range alcore.AvailableBackends() {
				fmt.Println(b.Name())
			}
			return nil
		},
	}
}

func newDevicesCommand(flags *rootFlags) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Enumerate devices across the configured driver order",
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceKind := parseKind(kind)
			order := resolveDriverOrder(flags)
			for _, b := range alcore.SelectBackend(order) {
				names, err := b.Enumerate(deviceKind)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %s\n", b.Name(), err.Error())
					continue
				}
				fmt.Printf("%s:\n", b.Name())
				for i, n := range names {
					marker := " "
					if i == 0 {
						marker = "*"
					}
					fmt.Printf("  %s %s\n", marker, n)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "playback", "device type: playback, capture, loopback")
	return cmd
}

func newRenderCommand(flags *rootFlags) *cobra.Command {
	var seconds int
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Open a loopback device, start one source, and print the negotiated rate (renders no frames)",
		RunE: func(cmd *cobra.Command, args []string) error {
			global, dev := resolveConfig(flags)
			var order []string
			if global != nil {
				order = global.Drivers
			}
			d, err := alcore.OpenDevice("", alcore.Loopback, order, 0)
			if err != nil {
				return err
			}
			defer func() { _ = d.CloseDevice(0) }()
			d.SetConfig(global, dev)

			attrs := alcore.AttrList{
				{Token: alcore.TokenFormatChannels, Value: int32(alcore.ChannelStereo)},
				{Token: alcore.TokenFormatType, Value: int32(alcore.SampleFloat)},
				{Token: alcore.TokenFrequency, Value: 48000},
			}
			ctx, cerr := alcore.CreateContext(d, attrs, 0)
			if cerr != nil {
				return cerr
			}
			defer func() { _ = alcore.DestroyContext(ctx, 0) }()

			src := ctx.CreateSource()
			src.SetGain(0.8)
			src.SetState(alcore.SourcePlaying)
			ctx.Process()

			fmt.Printf("%d source(s) playing at %d Hz; no frames rendered (--seconds=%d)\n", 1, d.Format.Frequency, seconds)
			return nil
		},
	}
	cmd.Flags().IntVar(&seconds, "seconds", 1, "duration echoed in the summary line; no frames are rendered")
	return cmd
}

func parseKind(s string) alcore.DeviceType {
	switch strings.ToLower(s) {
	case "capture":
		return alcore.Capture
	case "loopback":
		return alcore.Loopback
	default:
		return alcore.Playback
	}
}

// resolveConfig loads the global config (and, if given, a per-device
// override fragment) the way the real engine does at device-open time
// (spec.md §4.F step 3), so the CLI exercises the same priority chain
// UpdateDeviceParams applies for library callers.
func resolveConfig(flags *rootFlags) (*config.Global, *config.DeviceOverride) {
	var paths []string
	if flags.configPath != "" {
		paths = append(paths, flags.configPath)
	}
	g, err := config.Load(paths...)
	if err != nil {
		g = nil
	}
	if flags.driverOrder != "" {
		var base []string
		if g != nil {
			base = g.Drivers
		}
		order := config.ApplyDriverOverride(base, flags.driverOrder)
		if g == nil {
			g = &config.Global{}
		}
		g.Drivers = order
	}

	var dev *config.DeviceOverride
	if flags.deviceConfig != "" {
		dev, err = config.LoadDeviceOverride(flags.deviceConfig)
		if err != nil {
			dev = nil
		}
	}
	return g, dev
}

func resolveDriverOrder(flags *rootFlags) []string {
	g, _ := resolveConfig(flags)
	if g == nil {
		return nil
	}
	return g.Drivers
}
