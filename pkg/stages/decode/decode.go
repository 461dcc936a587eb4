// Package decode implements the thumbnail decoding stage.
package decode

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/fasthumb/pkg/pipeline"
	"github.com/user/fasthumb/pkg/ports"
	"github.com/user/fasthumb/pkg/session"
	"github.com/user/fasthumb/pkg/thumbnail"
)

// Stage decodes a keyframe buffer and writes one JPEG per displayed picture.
type Stage struct {
	engine     ports.HardwareDecoder
	compressor ports.JPEGCompressor
	fs         ports.FileSystem
	logger     ports.Logger
}

// NewStage creates a new decode stage.
func NewStage(engine ports.HardwareDecoder, compressor ports.JPEGCompressor, fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		engine:     engine,
		compressor: compressor,
		fs:         fs,
		logger:     logger,
	}
}

// Execute runs one decode session over the buffer. The session is torn
// down on every path; a teardown failure is reported alongside any
// earlier error.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecodeInput) (result pipeline.DecodeResult, err error) {
	if input.Buffer == nil || input.Buffer.Len() == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if input.OutputDir != "" {
		if err := s.fs.MkdirAll(input.OutputDir); err != nil {
			return result, &ports.IOError{Op: "mkdir", Path: input.OutputDir, Err: err}
		}
	}

	encoder := thumbnail.New(s.compressor, s.fs, s.logger, thumbnail.Options{
		Dir:     input.OutputDir,
		Quality: input.Quality,
	})
	coord := session.New(s.engine, encoder, s.logger, session.DefaultOptions(input.Width, input.Height))
	defer func() {
		if cerr := coord.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close session: %w", cerr))
		}
		result.Decoded = coord.FrameCount()
		result.Thumbnails = encoder.Written()
		result.Format = coord.Format()
	}()

	if err := coord.Initialize(); err != nil {
		return result, fmt.Errorf("initialize session: %w", err)
	}
	// The engine runs every callback before Submit returns; it cannot be
	// interrupted part way.
	if err := coord.Submit(input.Buffer.Data); err != nil {
		return result, fmt.Errorf("submit %d bytes: %w", input.Buffer.Len(), err)
	}
	return result, nil
}
