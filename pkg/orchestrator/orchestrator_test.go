package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/fasthumb/pkg/adapters/logger"
	"github.com/user/fasthumb/pkg/demux"
	"github.com/user/fasthumb/pkg/mocks"
	"github.com/user/fasthumb/pkg/pipeline"
	"github.com/user/fasthumb/pkg/stages/decode"
	"github.com/user/fasthumb/pkg/stages/extract"
	"github.com/user/fasthumb/pkg/stages/sheet"
)

// mockExtractStage is a mock for the extract stage.
type mockExtractStage struct {
	result pipeline.ExtractResult
	err    error
}

func (m *mockExtractStage) Execute(ctx context.Context, input pipeline.ExtractInput) (pipeline.ExtractResult, error) {
	if m.err != nil {
		return pipeline.ExtractResult{}, m.err
	}
	return m.result, nil
}

// mockDecodeStage is a mock for the decode stage.
type mockDecodeStage struct {
	result pipeline.DecodeResult
	err    error
	called bool
}

func (m *mockDecodeStage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	m.called = true
	return m.result, m.err
}

// mockSheetStage is a mock for the sheet stage.
type mockSheetStage struct {
	input  pipeline.SheetInput
	err    error
	called bool
}

func (m *mockSheetStage) Execute(ctx context.Context, input pipeline.SheetInput) (pipeline.SheetResult, error) {
	m.called = true
	m.input = input
	if m.err != nil {
		return pipeline.SheetResult{}, m.err
	}
	return pipeline.SheetResult{Path: input.OutputPath, Images: len(input.Thumbnails)}, nil
}

// tenPacketStream holds ten packets on stream 101: keyframe units at t=0
// and t=200000 with non-keyframe units around them.
func tenPacketStream() *mocks.TSBuilder {
	b := mocks.NewTSBuilder()
	b.Unit(101, 0, mocks.IDRAccessUnit(0x10, 48))
	for i := int64(1); i <= 4; i++ {
		b.Unit(101, i*3003, mocks.NonIDRAccessUnit(byte(i), 48))
	}
	b.Unit(101, 200000, mocks.IDRAccessUnit(0x20, 48))
	for i := int64(1); i <= 4; i++ {
		b.Unit(101, 200000+i*3003, mocks.NonIDRAccessUnit(byte(i), 48))
	}
	return b
}

func TestOrchestrator_EndToEnd(t *testing.T) {
	stream := tenPacketStream()
	if stream.Packets() != 10 {
		t.Fatalf("expected 10 packets, built %d", stream.Packets())
	}

	fs := mocks.NewFileSystem()
	fs.AddFile("in.ts", stream.Bytes())
	engine := mocks.NewHardwareDecoder(320, 240)
	log := logger.NewNoop()

	orch := New(
		extract.NewStage(fs, nil, log),
		decode.NewStage(engine, &mocks.JPEGCompressor{}, fs, log),
		sheet.NewStage(fs, log),
		mocks.NewDebugSink(false),
		log,
	)

	config := DefaultConfig()
	config.InputPath = "in.ts"
	config.StreamID = 101
	config.Interval = time.Second

	result, err := orch.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Packets != 10 || result.MatchedPackets != 10 {
		t.Errorf("expected 10 scanned and matched packets, got %d/%d", result.Packets, result.MatchedPackets)
	}
	if result.Segments != 2 {
		t.Errorf("expected 2 segments, got %d", result.Segments)
	}
	if result.Decoded != 2 {
		t.Errorf("expected 2 decoded pictures, got %d", result.Decoded)
	}
	if len(result.Thumbnails) != 2 || result.Thumbnails[0] != "0.jpg" || result.Thumbnails[1] != "1.jpg" {
		t.Errorf("expected 0.jpg and 1.jpg, got %v", result.Thumbnails)
	}
	for _, name := range []string{"0.jpg", "1.jpg"} {
		if _, ok := fs.GetFile(name); !ok {
			t.Errorf("%s was not written", name)
		}
	}
	if len(fs.Writes) != 2 {
		t.Errorf("expected exactly 2 files written, got %v", fs.Writes)
	}
	if result.SheetPath != "" {
		t.Errorf("expected no contact sheet, got %s", result.SheetPath)
	}
}

func TestOrchestrator_SheetEnabled(t *testing.T) {
	decodeStage := &mockDecodeStage{result: pipeline.DecodeResult{Decoded: 2, Thumbnails: []string{"out/0.jpg", "out/1.jpg"}}}
	sheetStage := &mockSheetStage{}
	sink := mocks.NewDebugSink(true)

	orch := New(
		&mockExtractStage{result: pipeline.ExtractResult{StreamID: 256, Probed: true, Buffer: &demux.KeyframeBuffer{Data: []byte{1}}}},
		decodeStage,
		sheetStage,
		sink,
		logger.NewNoop(),
	)

	config := DefaultConfig()
	config.InputPath = "in.ts"
	config.OutputDir = "out"
	config.SheetEnabled = true
	config.SheetColumns = 2

	result, err := orch.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StreamID != 256 {
		t.Errorf("expected probed stream 256, got %d", result.StreamID)
	}
	if !sheetStage.called || sheetStage.input.OutputPath != "out/sheet.jpg" || sheetStage.input.Columns != 2 {
		t.Errorf("unexpected sheet input %+v", sheetStage.input)
	}
	if result.SheetPath != "out/sheet.jpg" {
		t.Errorf("expected sheet path, got %q", result.SheetPath)
	}
	if len(sink.Keyframes) != 1 || len(sink.SegmentsJSON) == 0 || len(sink.RunJSON) == 0 {
		t.Error("expected debug output to be saved")
	}
}

func TestOrchestrator_ExtractError(t *testing.T) {
	extractErr := errors.New("bad stream")
	decodeStage := &mockDecodeStage{}

	orch := New(&mockExtractStage{err: extractErr}, decodeStage, &mockSheetStage{}, mocks.NewDebugSink(false), logger.NewNoop())

	_, err := orch.Run(context.Background(), DefaultConfig())
	if !errors.Is(err, extractErr) {
		t.Errorf("expected extract error, got %v", err)
	}
	if decodeStage.called {
		t.Error("decode stage should not run after an extract failure")
	}
}

func TestOrchestrator_DecodeErrorKeepsPartialResult(t *testing.T) {
	decodeErr := errors.New("decoder failed")
	sheetStage := &mockSheetStage{}
	sink := mocks.NewDebugSink(false)

	orch := New(
		&mockExtractStage{result: pipeline.ExtractResult{StreamID: 101, Buffer: &demux.KeyframeBuffer{}}},
		&mockDecodeStage{result: pipeline.DecodeResult{Decoded: 1, Thumbnails: []string{"0.jpg"}}, err: decodeErr},
		sheetStage,
		sink,
		logger.NewNoop(),
	)

	config := DefaultConfig()
	config.SheetEnabled = true

	result, err := orch.Run(context.Background(), config)
	if !errors.Is(err, decodeErr) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if len(result.Thumbnails) != 1 {
		t.Errorf("expected the written thumbnail to be reported, got %v", result.Thumbnails)
	}
	if sheetStage.called {
		t.Error("sheet stage should not run after a decode failure")
	}
}

func TestOrchestrator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	decodeStage := &mockDecodeStage{}
	orch := New(
		&mockExtractStage{result: pipeline.ExtractResult{StreamID: 101, Buffer: &demux.KeyframeBuffer{}}},
		decodeStage,
		&mockSheetStage{},
		mocks.NewDebugSink(false),
		logger.NewNoop(),
	)

	if _, err := orch.Run(ctx, DefaultConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if decodeStage.called {
		t.Error("decode stage should not run after cancellation")
	}
}
