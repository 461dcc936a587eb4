// Package contactsheet lays written thumbnails out on one labelled grid
// image using the gg library.
package contactsheet

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/fasthumb/pkg/ports"
)

// ErrNoImages is returned when there is nothing to lay out.
var ErrNoImages = errors.New("contactsheet: no images")

// Options configures the grid.
type Options struct {
	Columns    int
	Gap        int
	Quality    int
	Labels     bool
	Background color.Color
}

// DefaultOptions returns a four column grid with labels.
func DefaultOptions() Options {
	return Options{
		Columns:    4,
		Gap:        4,
		Quality:    75,
		Labels:     true,
		Background: color.Black,
	}
}

// Sheet renders contact sheets from JPEG files.
type Sheet struct {
	fs     ports.FileSystem
	logger ports.Logger
	opts   Options
}

// New creates a Sheet. Zero option fields take their defaults; a negative
// Gap lays cells edge to edge.
func New(fs ports.FileSystem, logger ports.Logger, opts Options) *Sheet {
	def := DefaultOptions()
	if opts.Columns <= 0 {
		opts.Columns = def.Columns
	}
	switch {
	case opts.Gap == 0:
		opts.Gap = def.Gap
	case opts.Gap < 0:
		opts.Gap = 0
	}
	if opts.Quality == 0 {
		opts.Quality = def.Quality
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	return &Sheet{fs: fs, logger: logger.WithComponent("sheet"), opts: opts}
}

// Render loads every image and draws them left to right, top to bottom.
// Each cell has the size of the first image; others are scaled to fit.
func (s *Sheet) Render(paths []string) (image.Image, error) {
	if len(paths) == 0 {
		return nil, ErrNoImages
	}

	images := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		img, err := s.load(path)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	cell := images[0].Bounds().Size()
	cols := s.opts.Columns
	if len(images) < cols {
		cols = len(images)
	}
	rows := (len(images) + cols - 1) / cols
	gap := s.opts.Gap

	dc := gg.NewContext(cols*cell.X+(cols+1)*gap, rows*cell.Y+(rows+1)*gap)
	dc.SetColor(s.opts.Background)
	dc.Clear()

	for i, img := range images {
		x := gap + (i%cols)*(cell.X+gap)
		y := gap + (i/cols)*(cell.Y+gap)

		if img.Bounds().Size() != cell {
			dst := image.NewRGBA(image.Rect(0, 0, cell.X, cell.Y))
			draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
			img = dst
		}
		dc.DrawImage(img, x, y)

		if s.opts.Labels {
			drawLabel(dc, label(paths[i]), x, y)
		}
	}

	s.logger.Debug("Laid out %d images on a %dx%d grid", len(images), cols, rows)
	return dc.Image(), nil
}

// drawLabel draws text in a dark box at the top-left corner of a cell.
func drawLabel(dc *gg.Context, text string, x, y int) {
	w, h := dc.MeasureString(text)
	dc.SetColor(color.RGBA{A: 160})
	dc.DrawRectangle(float64(x), float64(y), w+8, h+6)
	dc.Fill()
	dc.SetColor(color.White)
	dc.DrawStringAnchored(text, float64(x)+4, float64(y)+3+h/2, 0, 0.5)
}

func label(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Write renders the sheet and stores it as a JPEG at out.
func (s *Sheet) Write(paths []string, out string) error {
	img, err := s.Render(paths)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.opts.Quality}); err != nil {
		return fmt.Errorf("encode contact sheet: %w", err)
	}
	if err := s.fs.WriteFile(out, buf.Bytes()); err != nil {
		return &ports.IOError{Op: "write", Path: out, Err: err}
	}

	b := img.Bounds()
	s.logger.Debug("Wrote %s (%dx%d, %d bytes)", out, b.Dx(), b.Dy(), buf.Len())
	return nil
}

func (s *Sheet) load(path string) (image.Image, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, &ports.IOError{Op: "read", Path: path, Err: err}
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
