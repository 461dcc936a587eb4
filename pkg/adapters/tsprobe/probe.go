// Package tsprobe discovers the elementary streams of a transport stream
// from its program tables.
package tsprobe

import (
	"errors"
	"io"

	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"

	"github.com/user/fasthumb/pkg/ports"
)

// ErrNoVideoStream is returned when the program tables list no H.264 stream.
var ErrNoVideoStream = errors.New("tsprobe: no H.264 video stream found")

// Stream describes one elementary stream listed in the PMT.
type Stream struct {
	PID   uint16
	Codec string
}

// IsH264 reports whether the stream carries H.264 video.
func (s Stream) IsH264() bool {
	return s.Codec == "h264"
}

// Prober reads program tables through a FileSystem.
type Prober struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a Prober.
func New(fs ports.FileSystem, logger ports.Logger) *Prober {
	return &Prober{fs: fs, logger: logger.WithComponent("probe")}
}

// Streams lists the elementary streams of the file at path.
func (p *Prober) Streams(path string) ([]Stream, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return nil, &ports.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	streams, err := Streams(f)
	if err != nil {
		return nil, err
	}
	for _, s := range streams {
		p.logger.Debug("Stream %d: %s", s.PID, s.Codec)
	}
	return streams, nil
}

// VideoPID returns the PID of the first H.264 stream of the file at path.
func (p *Prober) VideoPID(path string) (uint16, error) {
	streams, err := p.Streams(path)
	if err != nil {
		return 0, err
	}
	for _, s := range streams {
		if s.IsH264() {
			return s.PID, nil
		}
	}
	return 0, ErrNoVideoStream
}

// Streams reads r until the PAT and PMT have been seen and returns the
// streams they describe.
func Streams(r io.Reader) ([]Stream, error) {
	reader := &mpegts.Reader{R: r}
	if err := reader.Initialize(); err != nil {
		return nil, &ports.FormatError{Reason: "reading program tables: " + err.Error()}
	}

	tracks := reader.Tracks()
	streams := make([]Stream, 0, len(tracks))
	for _, track := range tracks {
		streams = append(streams, Stream{PID: track.PID, Codec: codecName(track.Codec)})
	}
	return streams, nil
}

func codecName(c mpegts.Codec) string {
	switch c.(type) {
	case *mpegts.CodecH264:
		return "h264"
	case *mpegts.CodecH265:
		return "h265"
	case *mpegts.CodecMPEG1Video:
		return "mpeg2video"
	case *mpegts.CodecMPEG4Video:
		return "mpeg4"
	case *mpegts.CodecMPEG4Audio:
		return "aac"
	case *mpegts.CodecMPEG1Audio:
		return "mp3"
	case *mpegts.CodecAC3:
		return "ac3"
	case *mpegts.CodecOpus:
		return "opus"
	default:
		return "unsupported"
	}
}
