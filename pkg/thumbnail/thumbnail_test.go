package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/user/fasthumb/pkg/adapters/jpegcompressor"
	"github.com/user/fasthumb/pkg/adapters/logger"
	"github.com/user/fasthumb/pkg/mocks"
	"github.com/user/fasthumb/pkg/ports"
	"github.com/user/fasthumb/pkg/reformat"
)

func testFrame(width, height int) reformat.PlanarFrame {
	data := make([]byte, reformat.PlanarSize(width, height))
	for i := range data {
		data[i] = byte(i)
	}
	return reformat.PlanarFrame{Data: data, Width: width, Height: height}
}

func TestEncoder_Encode(t *testing.T) {
	fs := mocks.NewFileSystem()
	enc := New(jpegcompressor.New(), fs, logger.NewNoop(), Options{Dir: "out"})

	for i := 0; i < 2; i++ {
		if err := enc.Encode(testFrame(240, 192), i); err != nil {
			t.Fatalf("Encode(%d) failed: %v", i, err)
		}
	}

	for i := 0; i < 2; i++ {
		path := filepath.Join("out", fmt.Sprintf("%d.jpg", i))
		data, ok := fs.GetFile(path)
		if !ok {
			t.Fatalf("expected %s to be written", path)
		}
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s is not a JPEG: %v", path, err)
		}
		if cfg.Width != 240 || cfg.Height != 192 {
			t.Errorf("%s: expected 240x192, got %dx%d", path, cfg.Width, cfg.Height)
		}
	}

	if got := enc.Written(); len(got) != 2 || got[1] != filepath.Join("out", "1.jpg") {
		t.Errorf("unexpected written list %v", got)
	}
}

func TestEncoder_UsesFixedSettings(t *testing.T) {
	comp := &mocks.JPEGCompressor{}
	enc := New(comp, mocks.NewFileSystem(), logger.NewNoop(), Options{})

	if err := enc.Encode(testFrame(16, 16), 3); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if len(comp.Calls) != 1 {
		t.Fatalf("expected 1 compress call, got %d", len(comp.Calls))
	}
	call := comp.Calls[0]
	if call.Quality != 75 || call.Sampling != ports.Sampling420 || call.Flags&ports.FlagFastDCT == 0 {
		t.Errorf("unexpected compress settings %+v", call)
	}
	if enc.Path(3) != "3.jpg" {
		t.Errorf("expected default dir to give 3.jpg, got %s", enc.Path(3))
	}
}

func TestEncoder_Deterministic(t *testing.T) {
	fs := mocks.NewFileSystem()
	enc := New(jpegcompressor.New(), fs, logger.NewNoop(), Options{})

	frame := testFrame(64, 48)
	if err := enc.Encode(frame, 0); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := enc.Encode(frame, 1); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	a, _ := fs.GetFile("0.jpg")
	b, _ := fs.GetFile("1.jpg")
	if !bytes.Equal(a, b) {
		t.Error("encoding the same frame twice produced different bytes")
	}
}

func TestEncoder_WriteFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error {
		return errors.New("disk full")
	}
	enc := New(jpegcompressor.New(), fs, logger.NewNoop(), Options{})

	err := enc.Encode(testFrame(16, 16), 0)
	if !errors.Is(err, ports.ErrIO) {
		t.Fatalf("expected an I/O error, got %v", err)
	}
	if len(enc.Written()) != 0 {
		t.Error("failed write should not be recorded")
	}
}

func TestEncoder_CompressFailure(t *testing.T) {
	comp := &mocks.JPEGCompressor{
		CompressFunc: func(buf []byte, width, height int, sampling ports.ChromaSampling, quality int, flags ports.CompressFlags) ([]byte, error) {
			return nil, errors.New("boom")
		},
	}
	fs := mocks.NewFileSystem()
	enc := New(comp, fs, logger.NewNoop(), Options{})

	if err := enc.Encode(testFrame(16, 16), 0); err == nil {
		t.Fatal("expected error")
	}
	if len(fs.Writes) != 0 {
		t.Error("nothing should be written when compression fails")
	}
}
