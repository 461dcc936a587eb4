// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"path/filepath"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/user/fasthumb/pkg/pipeline"
	"github.com/user/fasthumb/pkg/ports"
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Input
	InputPath string
	StreamID  uint16 // 0 probes for the first H.264 stream

	// Sampling
	Interval time.Duration

	// Thumbnails
	Width     int
	Height    int
	Quality   int
	OutputDir string

	// Contact sheet
	SheetEnabled    bool
	SheetColumns    int
	SheetName       string // Relative to OutputDir
	SheetBackground color.Color
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Interval:  10 * time.Second,
		Width:     240,
		Height:    192,
		Quality:   75,
		OutputDir: ".",

		SheetColumns:    4,
		SheetName:       "sheet.jpg",
		SheetBackground: color.Black,
	}
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	extractStage pipeline.Stage[pipeline.ExtractInput, pipeline.ExtractResult]
	decodeStage  pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult]
	sheetStage   pipeline.Stage[pipeline.SheetInput, pipeline.SheetResult]
	sink         ports.DebugSink
	logger       ports.Logger
}

// New creates a new Orchestrator.
func New(
	extractStage pipeline.Stage[pipeline.ExtractInput, pipeline.ExtractResult],
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult],
	sheetStage pipeline.Stage[pipeline.SheetInput, pipeline.SheetResult],
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		extractStage: extractStage,
		decodeStage:  decodeStage,
		sheetStage:   sheetStage,
		sink:         sink,
		logger:       logger,
	}
}

// Run executes the complete pipeline.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	o.logger.Info(l10n.T("Starting pipeline"))

	// 1. Sample keyframes
	o.logger.Info(l10n.F("Scanning %s", config.InputPath))
	extracted, err := o.extractStage.Execute(ctx, pipeline.ExtractInput{
		InputPath: config.InputPath,
		StreamID:  config.StreamID,
		Interval:  config.Interval,
	})
	if err != nil {
		o.logger.Error(l10n.F("Failed to extract keyframes: %s", err))
		return RunResult{}, fmt.Errorf("extract stage: %w", err)
	}
	if extracted.Probed {
		o.logger.Info(l10n.F("Using video stream %d", extracted.StreamID))
	}
	buf := extracted.Buffer
	o.logger.Info(l10n.F("Sampled %d keyframes (%d bytes) from %d packets", len(buf.Segments), buf.Len(), buf.Stats.Packets))

	result := RunResult{
		StreamID:       extracted.StreamID,
		Probed:         extracted.Probed,
		Packets:        buf.Stats.Packets,
		MatchedPackets: buf.Stats.MatchedPackets,
		Segments:       len(buf.Segments),
		BufferBytes:    buf.Len(),
	}
	if len(buf.Segments) == 0 {
		o.logger.Warn(l10n.F("No keyframes found on stream %d", extracted.StreamID))
	}

	// Save sampled keyframes debug output
	if o.sink.Enabled() {
		o.sink.SaveKeyframes(buf.Data)
		if data, err := json.MarshalIndent(buf.Segments, "", "  "); err == nil {
			o.sink.SaveSegmentsJSON(data)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// 2. Decode into thumbnails
	o.logger.Info(l10n.F("Decoding thumbnails at %dx%d", config.Width, config.Height))
	decoded, err := o.decodeStage.Execute(ctx, pipeline.DecodeInput{
		Buffer:    buf,
		Width:     config.Width,
		Height:    config.Height,
		OutputDir: config.OutputDir,
		Quality:   config.Quality,
	})
	result.Decoded = decoded.Decoded
	result.Thumbnails = decoded.Thumbnails
	if err != nil {
		o.logger.Error(l10n.F("Failed to decode thumbnails: %s", err))
		return result, fmt.Errorf("decode stage: %w", err)
	}
	o.logger.Info(l10n.F("Wrote %d thumbnails", len(decoded.Thumbnails)))

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// 3. Contact sheet (optional)
	if config.SheetEnabled && len(decoded.Thumbnails) > 0 {
		sheet, err := o.sheetStage.Execute(ctx, pipeline.SheetInput{
			Thumbnails: decoded.Thumbnails,
			OutputPath: filepath.Join(config.OutputDir, config.SheetName),
			Columns:    config.SheetColumns,
			Quality:    config.Quality,
			Background: config.SheetBackground,
		})
		if err != nil {
			o.logger.Error(l10n.F("Failed to write contact sheet: %s", err))
			return result, fmt.Errorf("sheet stage: %w", err)
		}
		result.SheetPath = sheet.Path
		o.logger.Info(l10n.F("Contact sheet saved to %s", sheet.Path))
	}

	// Save run result debug output
	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(result, "", "  "); err == nil {
			o.sink.SaveRunJSON(data)
		}
	}

	o.logger.Info(l10n.T("Pipeline completed successfully"))
	return result, nil
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	// Demux information
	StreamID       uint16
	Probed         bool
	Packets        int
	MatchedPackets int
	Segments       int
	BufferBytes    int

	// Decode information
	Decoded    int
	Thumbnails []string

	// Contact sheet, empty when disabled
	SheetPath string
}
