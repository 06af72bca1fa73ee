// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"spectra/internal/config"
	"spectra/pkg/build"
)

// Commands that run instead of the visualizer.
const (
	CommandList = "list"
	CommandPick = "pick"
)

// options mirrors the flags. Only the ones the user set are copied into
// the loaded configuration.
type options struct {
	configPath string

	deviceID        int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool

	frameSize   int
	window      string
	fps         int
	columns     int
	scale       string
	compression string
	tone        []float64

	record  bool
	output  string
	verbose bool
}

// ParseArgs parses the command line and returns the effective configuration.
func ParseArgs() (*config.Config, error) {
	return parseArgs(os.Args[1:])
}

func parseArgs(args []string) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		opts    options
		command string
		ran     bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ran = true
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandList,
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			command, ran = CommandList, true
		},
	})

	// Pick command
	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandPick,
		Short: "Choose an input device interactively, then start the analyzer",
		Run: func(cmd *cobra.Command, args []string) {
			command, ran = CommandPick, true
		},
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"Path to a YAML configuration file (default ./config.yaml if present)")

	// Audio Device Configuration
	flags.IntVarP(&opts.deviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.IntVarP(&opts.channels, "channels", "c", config.DefaultChannels,
		"Number of input channels (1=mono, 2=stereo), mixed down to mono for analysis")
	flags.Float64VarP(&opts.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&opts.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	flags.BoolVarP(&opts.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	flags.Float64SliceVar(&opts.tone, "tone", nil,
		"Analyze a built-in tone with these partials in Hz instead of a device")

	// Analysis Configuration
	flags.IntVarP(&opts.frameSize, "frame-size", "n", config.DefaultFrameSize,
		"FFT frame size in samples, a power of two")
	flags.StringVarP(&opts.window, "window", "w", config.DefaultWindow,
		"Analysis window (hann, hamming, blackman, blackmannuttall, bartletthann, lanczos, nuttall, rectangular)")

	// Display Configuration
	flags.IntVar(&opts.fps, "fps", config.DefaultFPS, "Redraw rate of the bar graph")
	flags.IntVar(&opts.columns, "columns", 0, "Number of bars, 0 fits the terminal width")
	flags.StringVar(&opts.scale, "scale", config.DefaultScale, "Frequency axis (linear, log)")
	flags.StringVar(&opts.compression, "compression", config.DefaultCompression,
		"Bar height compression (none, sqrt, log)")

	// Recording Configuration
	flags.BoolVarP(&opts.record, "record", "r", false,
		"Record audio from the specified input device")
	flags.StringVarP(&opts.output, "output", "o", "",
		"Output file name. Default is spectra-YYYYMMDD-HHMMSS.wav in the recording directory")

	// Debug Configuration
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if !ran {
		// --help or --version was handled by cobra.
		return nil, nil
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	opts.apply(cfg, flags)
	cfg.Command = command

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// apply copies the flags the user set over cfg.
func (o *options) apply(cfg *config.Config, flags *pflag.FlagSet) {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	set("device", func() { cfg.Audio.InputDevice = o.deviceID })
	set("channels", func() { cfg.Audio.InputChannels = o.channels })
	set("sample-rate", func() { cfg.Audio.SampleRate = o.sampleRate })
	set("frames-per-buffer", func() { cfg.Audio.FramesPerBuffer = o.framesPerBuffer })
	set("low-latency", func() { cfg.Audio.LowLatency = o.lowLatency })
	set("tone", func() {
		cfg.Audio.Source = config.SourceTone
		cfg.Audio.ToneFrequencies = o.tone
	})

	set("frame-size", func() { cfg.Analysis.FrameSize = o.frameSize })
	set("window", func() { cfg.Analysis.Window = o.window })

	set("fps", func() { cfg.Display.FPS = o.fps })
	set("columns", func() { cfg.Display.Columns = o.columns })
	set("scale", func() { cfg.Display.Scale = o.scale })
	set("compression", func() { cfg.Display.Compression = o.compression })

	set("record", func() { cfg.Recording.Enabled = o.record })
	set("output", func() {
		cfg.Recording.OutputFile = o.output
		cfg.Recording.Enabled = true
	})

	set("verbose", func() { cfg.Debug = o.verbose })
}
