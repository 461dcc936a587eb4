// Package extract implements the keyframe sampling stage.
package extract

import (
	"context"
	"fmt"

	"github.com/user/fasthumb/pkg/demux"
	"github.com/user/fasthumb/pkg/pipeline"
	"github.com/user/fasthumb/pkg/ports"
)

// PIDProber finds the video stream of a file when none is given.
type PIDProber interface {
	VideoPID(path string) (uint16, error)
}

// Stage samples keyframes from a transport stream file.
type Stage struct {
	fs     ports.FileSystem
	prober PIDProber
	logger ports.Logger
}

// NewStage creates a new extract stage. prober may be nil when the caller
// always supplies a stream id.
func NewStage(fs ports.FileSystem, prober PIDProber, logger ports.Logger) *Stage {
	return &Stage{
		fs:     fs,
		prober: prober,
		logger: logger,
	}
}

// Execute resolves the stream id and runs the demuxer over the input.
func (s *Stage) Execute(ctx context.Context, input pipeline.ExtractInput) (pipeline.ExtractResult, error) {
	result := pipeline.ExtractResult{StreamID: input.StreamID}

	if input.StreamID == 0 {
		if s.prober == nil {
			return result, fmt.Errorf("no stream id given and no prober configured")
		}
		pid, err := s.prober.VideoPID(input.InputPath)
		if err != nil {
			return result, fmt.Errorf("probe video stream: %w", err)
		}
		result.StreamID = pid
		result.Probed = true
	}

	d := demux.New(demux.NewConfig(result.StreamID, input.Interval), s.fs, s.logger)
	buf, err := d.ExtractFile(ctx, input.InputPath)
	if err != nil {
		return result, err
	}

	result.Buffer = buf
	return result, nil
}
