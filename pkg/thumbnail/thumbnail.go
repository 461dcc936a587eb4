// Package thumbnail compresses planar frames to JPEG and stores them under
// sequential names.
package thumbnail

import (
	"fmt"
	"path/filepath"

	"github.com/user/fasthumb/pkg/ports"
	"github.com/user/fasthumb/pkg/reformat"
)

const (
	// DefaultQuality is the JPEG quality used when none is configured.
	DefaultQuality = 75
)

// Options configures an Encoder.
type Options struct {
	Dir     string
	Quality int
}

// Encoder writes one JPEG file per frame.
type Encoder struct {
	compressor ports.JPEGCompressor
	fs         ports.FileSystem
	logger     ports.Logger
	opts       Options

	written []string
}

// New creates an Encoder.
func New(compressor ports.JPEGCompressor, fs ports.FileSystem, logger ports.Logger, opts Options) *Encoder {
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	return &Encoder{
		compressor: compressor,
		fs:         fs,
		logger:     logger.WithComponent("thumbnail"),
		opts:       opts,
	}
}

// Path returns the file name used for the frame with the given index.
func (e *Encoder) Path(index int) string {
	return filepath.Join(e.opts.Dir, fmt.Sprintf("%d.jpg", index))
}

// Encode compresses frame at 4:2:0 with the fast DCT and writes it to
// Path(index).
func (e *Encoder) Encode(frame reformat.PlanarFrame, index int) error {
	data, err := e.compressor.CompressFromPlanar(frame.Data, frame.Width, frame.Height,
		ports.Sampling420, e.opts.Quality, ports.FlagFastDCT)
	if err != nil {
		return fmt.Errorf("compress frame %d: %w", index, err)
	}

	path := e.Path(index)
	if err := e.fs.WriteFile(path, data); err != nil {
		return &ports.IOError{Op: "write", Path: path, Err: err}
	}

	e.written = append(e.written, path)
	e.logger.Debug("Wrote %s (%d bytes)", path, len(data))
	return nil
}

// Written returns the paths written so far, in order.
func (e *Encoder) Written() []string {
	return e.written
}
