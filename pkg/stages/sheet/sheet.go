// Package sheet implements the contact sheet stage.
package sheet

import (
	"context"

	"github.com/user/fasthumb/pkg/adapters/contactsheet"
	"github.com/user/fasthumb/pkg/pipeline"
	"github.com/user/fasthumb/pkg/ports"
)

// Stage lays the written thumbnails out on one JPEG grid.
type Stage struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// NewStage creates a new sheet stage.
func NewStage(fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		fs:     fs,
		logger: logger,
	}
}

// Execute renders the sheet. An empty thumbnail list writes nothing.
func (s *Stage) Execute(ctx context.Context, input pipeline.SheetInput) (pipeline.SheetResult, error) {
	result := pipeline.SheetResult{}

	if len(input.Thumbnails) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	opts := contactsheet.DefaultOptions()
	if input.Columns > 0 {
		opts.Columns = input.Columns
	}
	if input.Quality > 0 {
		opts.Quality = input.Quality
	}
	if input.Background != nil {
		opts.Background = input.Background
	}

	if err := contactsheet.New(s.fs, s.logger, opts).Write(input.Thumbnails, input.OutputPath); err != nil {
		return result, err
	}

	result.Path = input.OutputPath
	result.Images = len(input.Thumbnails)
	return result, nil
}
