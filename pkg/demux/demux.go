// Package demux pulls sampled keyframes out of an MPEG transport stream.
//
// The demuxer never reassembles access units. It walks the stream one
// 188-byte packet at a time, watches a single PID, and copies the payload of
// every packet that belongs to an accepted keyframe unit into one contiguous
// elementary-stream buffer that can be handed to a decoder in a single call.
package demux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/user/fasthumb/pkg/ports"
)

const (
	// PacketSize is the fixed transport packet length.
	PacketSize = 188
	// SyncByte starts every transport packet.
	SyncByte = 0x47

	// TicksPerSecond is the PES presentation clock rate.
	TicksPerSecond = 90000
	// NALTypeIDR is the H.264 NAL type of an IDR slice.
	NALTypeIDR = 5

	ptsMask = 1<<33 - 1
)

// Config holds the per-run demux parameters.
type Config struct {
	// PID is the elementary stream to extract.
	PID uint16
	// IntervalTicks is the minimum PTS gap between accepted keyframes.
	IntervalTicks uint64
	// KeyframeNALType is the NAL unit type that starts a keyframe.
	KeyframeNALType byte
}

// NewConfig builds a Config for H.264 IDR sampling at the given spacing.
func NewConfig(pid uint16, interval time.Duration) Config {
	return Config{
		PID:             pid,
		IntervalTicks:   IntervalTicks(interval, TicksPerSecond),
		KeyframeNALType: NALTypeIDR,
	}
}

// IntervalTicks converts a duration into clock ticks at tickRate.
func IntervalTicks(d time.Duration, tickRate uint64) uint64 {
	if d <= 0 {
		return 0
	}
	sec := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return sec*tickRate + rem*tickRate/uint64(time.Second)
}

// Segment is one accepted keyframe unit inside a KeyframeBuffer. HasPTS
// reports whether the unit's own header carried a timestamp; without one,
// PTS holds the last timestamp seen on the stream.
type Segment struct {
	PTS    uint64
	HasPTS bool
	Offset int
	Length int
}

// Stats counts what the demuxer saw.
type Stats struct {
	Packets        int
	MatchedPackets int
	Units          int
	TrailingBytes  int
}

// KeyframeBuffer is the elementary stream of every accepted keyframe, in
// stream order.
type KeyframeBuffer struct {
	Data     []byte
	Segments []Segment
	Stats    Stats
}

// Len returns the number of buffered bytes.
func (b *KeyframeBuffer) Len() int { return len(b.Data) }

// Demuxer extracts sampled keyframes from a transport stream.
type Demuxer struct {
	cfg    Config
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a Demuxer.
func New(cfg Config, fs ports.FileSystem, logger ports.Logger) *Demuxer {
	if cfg.KeyframeNALType == 0 {
		cfg.KeyframeNALType = NALTypeIDR
	}
	return &Demuxer{
		cfg:    cfg,
		fs:     fs,
		logger: logger.WithComponent("demux"),
	}
}

// ExtractFile opens path and runs Extract over it.
func (d *Demuxer) ExtractFile(ctx context.Context, path string) (*KeyframeBuffer, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return nil, &ports.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	buf, err := d.Extract(ctx, f)
	var ioErr *ports.IOError
	if errors.As(err, &ioErr) && ioErr.Path == "" {
		ioErr.Path = path
	}
	return buf, err
}

// Extract scans r packet by packet and returns the accepted keyframe bytes.
//
// A stream shorter than one packet or a packet without the sync byte is a
// *ports.FormatError. A trailing partial packet is dropped.
func (d *Demuxer) Extract(ctx context.Context, r io.Reader) (*KeyframeBuffer, error) {
	br := bufio.NewReaderSize(r, PacketSize*1024)
	out := &KeyframeBuffer{}
	s := scanner{cfg: d.cfg, out: out}

	pkt := make([]byte, PacketSize)
	var offset int64
	for {
		if out.Stats.Packets%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		n, err := io.ReadFull(br, pkt)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			if out.Stats.Packets == 0 {
				return nil, &ports.FormatError{Offset: offset, Reason: fmt.Sprintf("stream holds %d bytes, less than one packet", n)}
			}
			out.Stats.TrailingBytes = n
			d.logger.Warn("Dropping %d trailing bytes after packet %d", n, out.Stats.Packets)
			break
		}
		if err != nil {
			return nil, &ports.IOError{Op: "read", Err: err}
		}
		if pkt[0] != SyncByte {
			return nil, &ports.FormatError{Offset: offset, Reason: fmt.Sprintf("sync byte 0x%02X, expected 0x%02X", pkt[0], SyncByte)}
		}

		s.packet(pkt)
		offset += PacketSize
	}

	if out.Stats.Packets == 0 {
		return nil, &ports.FormatError{Offset: 0, Reason: "empty stream"}
	}

	d.logger.Debug("Scanned %d packets, %d on PID %d, %d units, %d keyframes accepted (%d bytes)",
		out.Stats.Packets, out.Stats.MatchedPackets, d.cfg.PID, out.Stats.Units, len(out.Segments), len(out.Data))
	return out, nil
}

// scanner holds the sampling state carried from packet to packet.
type scanner struct {
	cfg Config
	out *KeyframeBuffer

	insideKeyframe bool
	currentPTS     uint64
	previousPTS    uint64
	accepted       bool
}

func (s *scanner) packet(pkt []byte) {
	s.out.Stats.Packets++

	h := parseHeader(pkt)
	if h.pid != s.cfg.PID {
		return
	}
	s.out.Stats.MatchedPackets++

	payload := h.payloadOffset
	if h.unitStart {
		s.out.Stats.Units++
		s.insideKeyframe = false

		pes, ok := parsePESHeader(pkt[h.payloadOffset:])
		if ok {
			payload = h.payloadOffset + pes.dataOffset
			if pes.hasPTS {
				s.currentPTS = pes.pts
			}
			if s.gateOpen() && containsStartCode(pkt, payload, s.cfg.KeyframeNALType) {
				s.insideKeyframe = true
				s.previousPTS = s.currentPTS
				s.accepted = true
				s.out.Segments = append(s.out.Segments, Segment{
					PTS:    s.currentPTS,
					HasPTS: pes.hasPTS,
					Offset: len(s.out.Data),
				})
			}
		}
	}

	if s.insideKeyframe && payload < PacketSize {
		s.out.Data = append(s.out.Data, pkt[payload:]...)
		s.out.Segments[len(s.out.Segments)-1].Length += PacketSize - payload
	}
}

// gateOpen reports whether enough presentation time has passed since the
// last accepted keyframe. The difference is taken modulo 2^33 so a PTS
// rollover still counts forward.
func (s *scanner) gateOpen() bool {
	if !s.accepted {
		return true
	}
	return (s.currentPTS-s.previousPTS)&ptsMask > s.cfg.IntervalTicks
}
