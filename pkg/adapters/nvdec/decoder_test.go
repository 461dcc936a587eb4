package nvdec

import (
	"testing"

	"github.com/user/fasthumb/pkg/adapters/logger"
	"github.com/user/fasthumb/pkg/mocks"
	"github.com/user/fasthumb/pkg/ports"
)

// sequenceRecorder counts sequence callbacks and ignores pictures.
type sequenceRecorder struct {
	sequences int
}

func (r *sequenceRecorder) OnSequence(*ports.VideoFormat) error { r.sequences++; return nil }
func (r *sequenceRecorder) OnDecode(*ports.PictureParams) error { return nil }
func (r *sequenceRecorder) OnDisplay(*ports.DisplayInfo) error  { return nil }

func TestNew_WithoutDevice(t *testing.T) {
	if Available() {
		t.Skip("CUDA device present")
	}
	if _, err := New(Options{}, logger.NewNoop()); err == nil {
		t.Error("expected New to fail without a CUDA device")
	}
}

func TestNew_DeviceOutOfRange(t *testing.T) {
	if !Available() {
		t.Skip("NVDEC not available")
	}
	if _, err := New(Options{Device: 1 << 20}, logger.NewNoop()); err != ErrNoDevice {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
}

func TestDecoder_ContextLifecycle(t *testing.T) {
	if !Available() {
		t.Skip("NVDEC not available")
	}
	d, err := New(Options{}, logger.NewNoop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, err := d.CreateContext()
	if err != nil {
		t.Fatalf("CreateContext failed: %v", err)
	}
	buf, err := d.AllocHost(4096)
	if err != nil {
		t.Fatalf("AllocHost failed: %v", err)
	}
	if len(buf) != 4096 {
		t.Errorf("expected 4096 byte buffer, got %d", len(buf))
	}
	if err := d.FreeHost(buf); err != nil {
		t.Errorf("FreeHost failed: %v", err)
	}
	if err := d.DestroyDecoder(0); err != nil {
		t.Errorf("destroying the null decoder should succeed: %v", err)
	}
	if err := d.DestroyContext(ctx); err != nil {
		t.Errorf("DestroyContext failed: %v", err)
	}
}

func TestDecoder_TeardownInSessionOrder(t *testing.T) {
	if !Available() {
		t.Skip("NVDEC not available")
	}
	d, err := New(Options{}, logger.NewNoop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, err := d.CreateContext()
	if err != nil {
		t.Fatalf("CreateContext failed: %v", err)
	}
	buf, err := d.AllocHost(4096)
	if err != nil {
		t.Fatalf("AllocHost failed: %v", err)
	}

	// Parser, decoder, context, then the host buffer.
	if err := d.DestroyParser(0); err != nil {
		t.Errorf("DestroyParser failed: %v", err)
	}
	if err := d.DestroyDecoder(0); err != nil {
		t.Errorf("DestroyDecoder failed: %v", err)
	}
	if err := d.DestroyContext(ctx); err != nil {
		t.Errorf("DestroyContext failed: %v", err)
	}
	if err := d.FreeHost(buf); err != nil {
		t.Errorf("freeing a buffer released with its context should succeed: %v", err)
	}
}

func TestDecoder_ParseVideoDataWithPayload(t *testing.T) {
	if !Available() {
		t.Skip("NVDEC not available")
	}
	d, err := New(Options{}, logger.NewNoop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx, err := d.CreateContext()
	if err != nil {
		t.Fatalf("CreateContext failed: %v", err)
	}
	defer d.DestroyContext(ctx)

	rec := &sequenceRecorder{}
	parser, err := d.CreateParser(ctx, ports.ParserConfig{Codec: ports.CodecH264, MaxDisplayDelay: 1, MaxDecodeSurfaces: 4}, rec)
	if err != nil {
		t.Fatalf("CreateParser failed: %v", err)
	}
	defer d.DestroyParser(parser)

	// A Go-allocated payload crosses into the parser.
	if err := d.ParseVideoData(parser, ports.SourcePacket{Payload: mocks.IDRAccessUnit(0xAA, 64)}); err != nil {
		t.Fatalf("ParseVideoData failed: %v", err)
	}
	if err := d.ParseVideoData(parser, ports.SourcePacket{Flags: ports.FlagEndOfStream}); err != nil {
		t.Fatalf("end of stream failed: %v", err)
	}
	if rec.sequences == 0 {
		t.Error("expected a sequence callback")
	}
}
