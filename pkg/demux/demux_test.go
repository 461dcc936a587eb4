package demux

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/fasthumb/pkg/adapters/logger"
	"github.com/user/fasthumb/pkg/mocks"
	"github.com/user/fasthumb/pkg/ports"
)

const testPID = 101

func newTestDemuxer(interval time.Duration) *Demuxer {
	return New(NewConfig(testPID, interval), mocks.NewFileSystem(), logger.NewNoop())
}

func extract(t *testing.T, d *Demuxer, data []byte) *KeyframeBuffer {
	t.Helper()
	buf, err := d.Extract(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return buf
}

func segmentPTS(buf *KeyframeBuffer) []uint64 {
	var pts []uint64
	for _, s := range buf.Segments {
		pts = append(pts, s.PTS)
	}
	return pts
}

func TestIntervalTicks(t *testing.T) {
	if got := IntervalTicks(10*time.Second, TicksPerSecond); got != 900000 {
		t.Errorf("10s: expected 900000 ticks, got %d", got)
	}
	if got := IntervalTicks(1500*time.Millisecond, TicksPerSecond); got != 135000 {
		t.Errorf("1.5s: expected 135000 ticks, got %d", got)
	}
	if got := IntervalTicks(0, TicksPerSecond); got != 0 {
		t.Errorf("0s: expected 0 ticks, got %d", got)
	}
}

func TestParsePTS(t *testing.T) {
	for _, pts := range []int64{0, 1, 90000, 200000, 1<<33 - 1, 0x1_2345_6789 & (1<<33 - 1)} {
		hdr := mocks.PESHeader(pts)
		p, ok := parsePESHeader(hdr)
		if !ok {
			t.Fatalf("pts %d: header not parsed", pts)
		}
		if !p.hasPTS || p.pts != uint64(pts) {
			t.Errorf("pts %d: got %d (has=%v)", pts, p.pts, p.hasPTS)
		}
		if p.dataOffset != len(hdr) {
			t.Errorf("pts %d: data offset %d, expected %d", pts, p.dataOffset, len(hdr))
		}
	}
}

func TestExtract_SamplingGate(t *testing.T) {
	b := mocks.NewTSBuilder()
	for _, pts := range []int64{0, 45000, 100000, 150000, 200000, 300000} {
		b.Unit(testPID, pts, mocks.IDRAccessUnit(0xAA, 40))
	}

	buf := extract(t, newTestDemuxer(time.Second), b.Bytes())

	expected := []uint64{0, 100000, 200000, 300000}
	got := segmentPTS(buf)
	if len(got) != len(expected) {
		t.Fatalf("expected accepted PTS %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("segment %d: expected PTS %d, got %d", i, expected[i], got[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i]-got[i-1] <= 90000 {
			t.Errorf("segments %d and %d are only %d ticks apart", i-1, i, got[i]-got[i-1])
		}
	}
}

func TestExtract_GapEqualToIntervalIsRejected(t *testing.T) {
	b := mocks.NewTSBuilder().
		Unit(testPID, 0, mocks.IDRAccessUnit(0xAA, 10)).
		Unit(testPID, 90000, mocks.IDRAccessUnit(0xAA, 10)).
		Unit(testPID, 180001, mocks.IDRAccessUnit(0xAA, 10))

	got := segmentPTS(extract(t, newTestDemuxer(time.Second), b.Bytes()))
	if len(got) != 2 || got[0] != 0 || got[1] != 180001 {
		t.Errorf("expected [0 180001], got %v", got)
	}
}

func TestExtract_PatternDetection(t *testing.T) {
	d := newTestDemuxer(0)

	idr := mocks.NewTSBuilder().Unit(testPID, 0, []byte{0xAB, 0x00, 0x00, 0x01, 0x65, 0x88, 0x84})
	if n := len(extract(t, d, idr.Bytes()).Segments); n != 1 {
		t.Errorf("00 00 01 65: expected 1 segment, got %d", n)
	}

	nonIDR := mocks.NewTSBuilder().Unit(testPID, 0, []byte{0xAB, 0x00, 0x00, 0x01, 0x41, 0x9A, 0x02})
	if n := len(extract(t, d, nonIDR.Bytes()).Segments); n != 0 {
		t.Errorf("00 00 01 41: expected no segment, got %d", n)
	}

	// nal_ref_idc bits do not matter, only the low five bits.
	lowRef := mocks.NewTSBuilder().Unit(testPID, 0, []byte{0x00, 0x00, 0x01, 0x25, 0x88})
	if n := len(extract(t, d, lowRef.Bytes()).Segments); n != 1 {
		t.Errorf("00 00 01 25: expected 1 segment, got %d", n)
	}
}

func TestExtract_StartCodeSplitAcrossPacketsIsNotDetected(t *testing.T) {
	// First packet: PES header with PTS (14 bytes) + 168 filler bytes + 00 00
	// so the start code prefix ends exactly at the packet boundary.
	first := mocks.PESHeader(0)
	first = append(first, bytes.Repeat([]byte{0xAA}, 184-len(first)-2)...)
	first = append(first, 0x00, 0x00)
	if len(first) != 184 {
		t.Fatalf("first payload is %d bytes", len(first))
	}
	second := append([]byte{0x01, 0x65, 0x88}, bytes.Repeat([]byte{0xAA}, 50)...)

	b := mocks.NewTSBuilder().
		Packet(testPID, true, first).
		Packet(testPID, false, second)

	buf := extract(t, newTestDemuxer(time.Second), b.Bytes())
	if len(buf.Segments) != 0 {
		t.Errorf("split start code should not be detected, got %d segments", len(buf.Segments))
	}
	if buf.Len() != 0 {
		t.Errorf("expected empty buffer, got %d bytes", buf.Len())
	}
}

func TestExtract_AppendsWholeUnitAndFiltersPID(t *testing.T) {
	au := mocks.IDRAccessUnit(0xAA, 300) // 325 bytes over three packets
	b := mocks.NewTSBuilder().
		Packet(0x0000, true, []byte{0x00, 0xB0, 0x0D}).
		Unit(testPID, 0, au[:200]).
		Packet(200, false, bytes.Repeat([]byte{0xCC}, 184)).
		Packet(testPID, false, au[200:]).
		Unit(testPID, 3000, mocks.NonIDRAccessUnit(0xBB, 30))

	buf := extract(t, newTestDemuxer(time.Second), b.Bytes())

	if len(buf.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(buf.Segments))
	}
	if !bytes.Equal(buf.Data, au) {
		t.Errorf("buffer does not hold exactly the keyframe unit: %d bytes vs %d", len(buf.Data), len(au))
	}
	if bytes.Contains(buf.Data, []byte{0xCC}) || bytes.Contains(buf.Data, []byte{0xBB}) {
		t.Error("buffer holds bytes from another PID or a rejected unit")
	}
	if buf.Segments[0].Offset != 0 || buf.Segments[0].Length != len(au) {
		t.Errorf("segment = %+v, expected offset 0 length %d", buf.Segments[0], len(au))
	}
	if buf.Stats.Packets != b.Packets() {
		t.Errorf("expected %d packets scanned, got %d", b.Packets(), buf.Stats.Packets)
	}
}

func TestExtract_LeadingBytesBeforeStartCodeAreKept(t *testing.T) {
	es := append([]byte{0x09, 0xF0, 0x12}, mocks.IDRAccessUnit(0xAA, 10)...)
	b := mocks.NewTSBuilder().Unit(testPID, 0, es)

	buf := extract(t, newTestDemuxer(time.Second), b.Bytes())
	if !bytes.Equal(buf.Data, es) {
		t.Errorf("expected whole PES payload to be kept, got % X", buf.Data)
	}
}

func TestExtract_NoTimestamps(t *testing.T) {
	b := mocks.NewTSBuilder()
	for i := 0; i < 3; i++ {
		b.Unit(testPID, mocks.NoPTS, mocks.IDRAccessUnit(0xAA, 10))
	}

	buf := extract(t, newTestDemuxer(time.Second), b.Bytes())
	if len(buf.Segments) != 1 {
		t.Fatalf("expected only the first unit to be accepted, got %d", len(buf.Segments))
	}
	if buf.Segments[0].HasPTS {
		t.Error("segment should not carry a PTS")
	}
}

func TestExtract_UnitWithoutPTSAfterTimestampedUnits(t *testing.T) {
	b := mocks.NewTSBuilder().
		Unit(testPID, 0, mocks.IDRAccessUnit(0xAA, 10)).
		Unit(testPID, 200000, mocks.NonIDRAccessUnit(0xBB, 10)).
		Unit(testPID, mocks.NoPTS, mocks.IDRAccessUnit(0xCC, 10))

	buf := extract(t, newTestDemuxer(time.Second), b.Bytes())
	if len(buf.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(buf.Segments))
	}
	if !buf.Segments[0].HasPTS {
		t.Error("first segment should carry its PTS")
	}
	if buf.Segments[1].HasPTS {
		t.Errorf("second segment has no PTS of its own, got %+v", buf.Segments[1])
	}
}

func TestExtract_PTSRollover(t *testing.T) {
	b := mocks.NewTSBuilder().
		Unit(testPID, 1<<33-1000, mocks.IDRAccessUnit(0xAA, 10)).
		Unit(testPID, 50000, mocks.IDRAccessUnit(0xAA, 10)).
		Unit(testPID, 100000, mocks.IDRAccessUnit(0xAA, 10))

	got := segmentPTS(extract(t, newTestDemuxer(time.Second), b.Bytes()))
	if len(got) != 2 || got[1] != 100000 {
		t.Errorf("expected rollover to count forward, got %v", got)
	}
}

func TestExtract_ShortInput(t *testing.T) {
	d := newTestDemuxer(time.Second)

	_, err := d.Extract(context.Background(), bytes.NewReader(make([]byte, 100)))
	if !errors.Is(err, ports.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}

	_, err = d.Extract(context.Background(), bytes.NewReader(nil))
	var fe *ports.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *ports.FormatError for empty input, got %v", err)
	}
}

func TestExtract_LostSync(t *testing.T) {
	b := mocks.NewTSBuilder().Unit(testPID, 0, mocks.IDRAccessUnit(0xAA, 10))
	data := append(b.Bytes(), make([]byte, PacketSize)...)

	_, err := newTestDemuxer(time.Second).Extract(context.Background(), bytes.NewReader(data))
	var fe *ports.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *ports.FormatError, got %v", err)
	}
	if fe.Offset != PacketSize {
		t.Errorf("expected offset %d, got %d", PacketSize, fe.Offset)
	}
}

func TestExtract_TrailingPartialPacket(t *testing.T) {
	b := mocks.NewTSBuilder().Unit(testPID, 0, mocks.IDRAccessUnit(0xAA, 10)).Raw([]byte{0x47, 0x01, 0x02})

	buf := extract(t, newTestDemuxer(time.Second), b.Bytes())
	if buf.Stats.TrailingBytes != 3 {
		t.Errorf("expected 3 trailing bytes, got %d", buf.Stats.TrailingBytes)
	}
	if len(buf.Segments) != 1 {
		t.Errorf("expected 1 segment, got %d", len(buf.Segments))
	}
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := mocks.NewTSBuilder().Unit(testPID, 0, mocks.IDRAccessUnit(0xAA, 10))
	_, err := newTestDemuxer(time.Second).Extract(ctx, bytes.NewReader(b.Bytes()))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExtractFile(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("in.ts", mocks.NewTSBuilder().Unit(testPID, 0, mocks.IDRAccessUnit(0xAA, 10)).Bytes())

	d := New(NewConfig(testPID, time.Second), fs, logger.NewNoop())
	buf, err := d.ExtractFile(context.Background(), "in.ts")
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if len(buf.Segments) != 1 {
		t.Errorf("expected 1 segment, got %d", len(buf.Segments))
	}

	_, err = d.ExtractFile(context.Background(), "missing.ts")
	var ioErr *ports.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *ports.IOError, got %v", err)
	}
	if ioErr.Path != "missing.ts" {
		t.Errorf("expected path in error, got %q", ioErr.Path)
	}
}
