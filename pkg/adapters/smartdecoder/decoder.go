// Package smartdecoder selects the decode engine for a run: NVDEC when it
// was compiled in and a CUDA device is present, ffmpeg otherwise.
package smartdecoder

import (
	"errors"
	"fmt"

	"github.com/user/fasthumb/pkg/adapters/ffmpegdecoder"
	"github.com/user/fasthumb/pkg/adapters/nvdec"
	"github.com/user/fasthumb/pkg/ports"
)

// Backend names a decode engine.
type Backend string

const (
	// BackendAuto picks the first available engine.
	BackendAuto Backend = "auto"
	// BackendNVDEC represents NVIDIA hardware decoding.
	BackendNVDEC Backend = "nvdec"
	// BackendFFmpeg represents software decoding through ffmpeg.
	BackendFFmpeg Backend = "ffmpeg"
)

// ParseBackend parses a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendAuto, BackendNVDEC, BackendFFmpeg:
		return b, nil
	case "":
		return BackendAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Info contains information about the selected engine.
type Info struct {
	// Backend is the engine being used.
	Backend Backend
	// Fallback is set when auto selection skipped NVDEC.
	Fallback bool
}

// Options configures the selection.
type Options struct {
	Backend Backend
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// Device is the CUDA device ordinal.
	Device int
}

var (
	// ErrUnknownBackend is returned for an unrecognised backend name.
	ErrUnknownBackend = errors.New("smartdecoder: unknown backend")
	// ErrNoDecoderAvailable is returned when no engine can be created.
	ErrNoDecoderAvailable = errors.New("smartdecoder: no decoder available")
)

// Engine constructors, replaced in tests.
var (
	nvdecAvailable = nvdec.Available
	newNVDEC       = func(opts Options, logger ports.Logger) (ports.HardwareDecoder, error) {
		return nvdec.New(nvdec.Options{Device: opts.Device}, logger)
	}
	newFFmpeg = func(opts Options, logger ports.Logger) (ports.HardwareDecoder, error) {
		if opts.FFmpegPath != "" {
			ffmpegdecoder.SetFFmpegPath(opts.FFmpegPath)
		}
		return ffmpegdecoder.New(logger)
	}
)

// New creates the engine named by opts.Backend.
//
// The selection flow for BackendAuto:
//   - NVDEC: when built with the nvdec tag and a device answers
//   - FFmpeg: otherwise, when an ffmpeg binary can be found
func New(opts Options, logger ports.Logger) (ports.HardwareDecoder, Info, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendAuto
	}

	switch backend {
	case BackendNVDEC:
		engine, err := newNVDEC(opts, logger)
		if err != nil {
			return nil, Info{}, err
		}
		return engine, Info{Backend: BackendNVDEC}, nil

	case BackendFFmpeg:
		engine, err := newFFmpeg(opts, logger)
		if err != nil {
			return nil, Info{}, err
		}
		return engine, Info{Backend: BackendFFmpeg}, nil

	case BackendAuto:
		if nvdecAvailable() {
			engine, err := newNVDEC(opts, logger)
			if err == nil {
				return engine, Info{Backend: BackendNVDEC}, nil
			}
			logger.Warn("NVDEC unavailable (%v), falling back to ffmpeg", err)
		}
		engine, err := newFFmpeg(opts, logger)
		if err != nil {
			return nil, Info{}, fmt.Errorf("%w: %v", ErrNoDecoderAvailable, err)
		}
		return engine, Info{Backend: BackendFFmpeg, Fallback: true}, nil

	default:
		return nil, Info{}, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
