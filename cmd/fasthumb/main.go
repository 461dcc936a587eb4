// Package main provides the CLI entry point for fasthumb.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/fasthumb/pkg/adapters/filesink"
	"github.com/user/fasthumb/pkg/adapters/jpegcompressor"
	"github.com/user/fasthumb/pkg/adapters/logger"
	"github.com/user/fasthumb/pkg/adapters/nullsink"
	"github.com/user/fasthumb/pkg/adapters/osfilesystem"
	"github.com/user/fasthumb/pkg/adapters/smartdecoder"
	"github.com/user/fasthumb/pkg/adapters/tsprobe"
	"github.com/user/fasthumb/pkg/config"
	"github.com/user/fasthumb/pkg/orchestrator"
	"github.com/user/fasthumb/pkg/ports"
	"github.com/user/fasthumb/pkg/stages/decode"
	"github.com/user/fasthumb/pkg/stages/extract"
	"github.com/user/fasthumb/pkg/stages/sheet"
	"github.com/user/fasthumb/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Failure! Reason: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "fasthumb",
		Usage:     l10n.T("Extract sampled keyframe thumbnails from an MPEG transport stream"),
		UsageText: "fasthumb [options] <input.ts> [stream-id]",
		Version:   version,
		Flags:     runFlags(),
		Action:    runAction,
		Commands: []*cli.Command{
			{
				Name:      "probe",
				Usage:     l10n.T("List the elementary streams of a transport stream"),
				ArgsUsage: "<input.ts>",
				Action:    probeAction,
			},
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Directory for thumbnails (default: current directory)")},
		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Thumbnail width (default: 240)")},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Thumbnail height (default: 192)")},
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: l10n.T("Minimum time between sampled keyframes (default: 10s)")},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("JPEG quality 1-100 (default: 75)")},
		&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Usage: l10n.T("Decode engine: auto, nvdec or ffmpeg")},
		&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to the ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)")},
		&cli.IntFlag{Name: "device", Usage: l10n.T("CUDA device ordinal")},
		&cli.BoolFlag{Name: "sheet", Usage: l10n.T("Also write a contact sheet of all thumbnails")},
		&cli.IntFlag{Name: "sheet-columns", Usage: l10n.T("Contact sheet columns (default: 4)")},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a Markdown run summary to this path")},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output (sampled stream, segments)")},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output")},
	}
}

// loadConfig builds a Config from the optional file and the flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}

	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("interval") {
		cfg.Interval = config.Duration(c.Duration("interval"))
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("device") {
		cfg.Device = c.Int("device")
	}
	if c.IsSet("sheet") {
		cfg.Sheet.Enabled = c.Bool("sheet")
	}
	if c.IsSet("sheet-columns") {
		cfg.Sheet.Columns = c.Int("sheet-columns")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if c.Args().Len() > 1 {
		id, err := strconv.ParseUint(c.Args().Get(1), 10, 13)
		if err != nil {
			return cfg, fmt.Errorf("invalid stream id %q: %w", c.Args().Get(1), err)
		}
		cfg.StreamID = uint16(id)
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(cfg.Level())
}

// runAction executes the thumbnail pipeline.
func runAction(c *cli.Context) error {
	if c.Args().Len() < 1 {
		cli.ShowAppHelp(c)
		return fmt.Errorf("missing input file")
	}
	input := c.Args().Get(0)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
	}()

	// Create adapters
	fs := osfilesystem.New()
	engine, info, err := smartdecoder.New(cfg.DecoderOptions(), log)
	if err != nil {
		return fmt.Errorf("select decoder: %w", err)
	}
	log.Info(l10n.F("Decoding with %s", info.Backend))

	// Create debug sink
	var sink ports.DebugSink
	if dir := c.String("debug-dir"); dir != "" {
		if err := fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(dir, fs)
	} else {
		sink = nullsink.New()
	}

	// Create stages
	extractStage := extract.NewStage(fs, tsprobe.New(fs, log), log)
	decodeStage := decode.NewStage(engine, jpegcompressor.New(), fs, log)
	sheetStage := sheet.NewStage(fs, log)

	orch := orchestrator.New(extractStage, decodeStage, sheetStage, sink, log)
	orchConfig := cfg.ToOrchestratorConfig(input)

	result, err := orch.Run(ctx, orchConfig)
	if err != nil {
		return err
	}

	log.Info(l10n.F("Summary: %d packets scanned, %d on stream %d, %d keyframes sampled, %d pictures decoded, %d thumbnails written",
		result.Packets, result.MatchedPackets, result.StreamID, result.Segments, result.Decoded, len(result.Thumbnails)))

	if path := c.String("summary"); path != "" {
		summary := summarizer.NewBuilder().
			WithInput(input, result.StreamID, result.Probed).
			WithSampling(result.Packets, result.MatchedPackets, result.Segments, int64(result.BufferBytes)).
			WithSettings(summarizer.Settings{
				Backend:  string(info.Backend),
				Interval: orchConfig.Interval,
				Width:    cfg.Width,
				Height:   cfg.Height,
				Quality:  cfg.Quality,
			}).
			WithOutput(summarizer.OutputInfo{
				Decoded:    result.Decoded,
				Thumbnails: result.Thumbnails,
				OutputDir:  cfg.OutputDir,
				SheetPath:  result.SheetPath,
			}).
			Build()

		formatter := summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		)
		if err := summarizer.NewWriter(formatter, fs).Write(path, summary); err != nil {
			return err
		}
		log.Info(l10n.F("Summary saved to %s", path))
	}

	return nil
}

// probeAction lists the streams found in the program tables.
func probeAction(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("missing input file")
	}

	fs := osfilesystem.New()
	streams, err := tsprobe.New(fs, logger.NewNoop()).Streams(c.Args().Get(0))
	if err != nil {
		return err
	}
	for _, s := range streams {
		fmt.Fprintf(c.App.Writer, "%d\t%s\n", s.PID, s.Codec)
	}
	return nil
}
