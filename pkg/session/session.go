// Package session drives a decode engine over a keyframe buffer and turns
// every displayed picture into a thumbnail.
//
// The engine calls back into the Coordinator synchronously from inside
// Submit: OnSequence once the stream format is known, OnDecode per coded
// picture, OnDisplay per picture in display order. A Coordinator is not safe
// for concurrent use.
package session

import (
	"errors"
	"fmt"

	"github.com/user/fasthumb/pkg/ports"
	"github.com/user/fasthumb/pkg/reformat"
)

var (
	// ErrNotInitialized is returned by Submit before Initialize.
	ErrNotInitialized = errors.New("session: not initialized")
	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("session: already initialized")
	// ErrSessionClosed is returned after Close.
	ErrSessionClosed = errors.New("session: closed")
	// ErrNoDecoder is returned when a picture arrives before any sequence.
	ErrNoDecoder = errors.New("session: picture before sequence header")
)

// FrameSink consumes planar frames in display order.
type FrameSink interface {
	Encode(frame reformat.PlanarFrame, index int) error
}

// Options configures a Coordinator.
type Options struct {
	TargetWidth  int
	TargetHeight int

	// Parser settings.
	MaxDisplayDelay   int
	MaxDecodeSurfaces int

	// Decoder settings.
	NumDecodeSurfaces int
	NumOutputSurfaces int
}

// DefaultOptions returns the settings used for thumbnail extraction.
func DefaultOptions(width, height int) Options {
	return Options{
		TargetWidth:       width,
		TargetHeight:      height,
		MaxDisplayDelay:   1,
		MaxDecodeSurfaces: 4,
		NumDecodeSurfaces: 20,
		NumOutputSurfaces: 1,
	}
}

type state int

const (
	stateUninitialized state = iota
	stateReady
	stateDrained
	stateClosed
)

// Coordinator owns one decode session.
type Coordinator struct {
	engine ports.HardwareDecoder
	sink   FrameSink
	logger ports.Logger
	opts   Options

	state   state
	context ports.ContextHandle
	parser  ports.ParserHandle
	decoder ports.DecoderHandle

	hostBuf []byte

	format     *ports.VideoFormat
	frameCount int
	displayed  int

	callbackErr error
}

// New creates a Coordinator. No engine resources are acquired until
// Initialize.
func New(engine ports.HardwareDecoder, sink FrameSink, logger ports.Logger, opts Options) *Coordinator {
	return &Coordinator{
		engine: engine,
		sink:   sink,
		logger: logger.WithComponent("session"),
		opts:   opts,
	}
}

// Initialize creates the decoding context and the H.264 parser.
func (c *Coordinator) Initialize() error {
	switch c.state {
	case stateClosed:
		return ErrSessionClosed
	case stateUninitialized:
	default:
		return ErrAlreadyInitialized
	}

	ctx, err := c.engine.CreateContext()
	if err != nil {
		return fmt.Errorf("create context: %w", err)
	}
	c.context = ctx

	cfg := ports.ParserConfig{
		Codec:             ports.CodecH264,
		MaxDisplayDelay:   c.opts.MaxDisplayDelay,
		MaxDecodeSurfaces: c.opts.MaxDecodeSurfaces,
	}
	parser, err := c.engine.CreateParser(ctx, cfg, c)
	if err != nil {
		return fmt.Errorf("create parser: %w", err)
	}
	c.parser = parser

	c.state = stateReady
	c.logger.Debug("Session ready (display delay %d, %d decode surfaces)", cfg.MaxDisplayDelay, cfg.MaxDecodeSurfaces)
	return nil
}

// Submit hands the whole buffer to the parser in one packet, then signals
// end of stream so pictures held for reordering are displayed. It returns
// after every callback for the buffer has run.
func (c *Coordinator) Submit(data []byte) error {
	switch c.state {
	case stateClosed:
		return ErrSessionClosed
	case stateUninitialized:
		return ErrNotInitialized
	}

	c.callbackErr = nil

	if err := c.parse(ports.SourcePacket{Payload: data}); err != nil {
		return err
	}
	if err := c.parse(ports.SourcePacket{Flags: ports.FlagEndOfStream}); err != nil {
		return err
	}

	c.state = stateDrained
	c.logger.Debug("Submitted %d bytes: %d pictures decoded, %d displayed", len(data), c.frameCount, c.displayed)
	return nil
}

func (c *Coordinator) parse(pkt ports.SourcePacket) error {
	err := c.engine.ParseVideoData(c.parser, pkt)
	if c.callbackErr != nil {
		return c.callbackErr
	}
	if err != nil {
		return fmt.Errorf("parse video data: %w", err)
	}
	return nil
}

// fail records the first callback error so Submit can report it once the
// engine unwinds.
func (c *Coordinator) fail(err error) error {
	if c.callbackErr == nil {
		c.callbackErr = err
	}
	return err
}

// OnSequence creates the decoder on the first sequence header. Later
// headers keep the existing decoder; its output size is fixed by Options.
func (c *Coordinator) OnSequence(format *ports.VideoFormat) error {
	if c.decoder != 0 {
		c.logger.Debug("Sequence %dx%d seen again, keeping decoder", format.CodedWidth, format.CodedHeight)
		return nil
	}

	info := ports.DecoderCreateInfo{
		Codec:             format.Codec,
		CodedWidth:        format.CodedWidth,
		CodedHeight:       format.CodedHeight,
		TargetWidth:       c.opts.TargetWidth,
		TargetHeight:      c.opts.TargetHeight,
		ChromaFormat:      ports.Chroma420,
		OutputFormat:      ports.SurfaceNV12,
		BitDepthMinus8:    format.BitDepthLumaMinus8,
		NumDecodeSurfaces: c.opts.NumDecodeSurfaces,
		NumOutputSurfaces: c.opts.NumOutputSurfaces,
		Deinterlace:       ports.DeinterlaceWeave,
	}

	decoder, err := c.engine.CreateDecoder(c.context, info)
	if err != nil {
		return c.fail(fmt.Errorf("create decoder: %w", err))
	}
	c.decoder = decoder
	f := *format
	c.format = &f

	c.logger.Debug("Decoder created: coded %dx%d, output %dx%d", format.CodedWidth, format.CodedHeight, c.opts.TargetWidth, c.opts.TargetHeight)
	return nil
}

// OnDecode forwards one coded picture to the decoder.
func (c *Coordinator) OnDecode(picture *ports.PictureParams) error {
	if c.decoder == 0 {
		return c.fail(ErrNoDecoder)
	}
	if err := c.engine.DecodePicture(c.decoder, picture); err != nil {
		return c.fail(fmt.Errorf("decode picture %d: %w", picture.PictureIndex, err))
	}
	c.frameCount++
	return nil
}

// OnDisplay copies the decoded picture to the host, converts it to planar
// layout and passes it to the sink.
func (c *Coordinator) OnDisplay(info *ports.DisplayInfo) (err error) {
	if c.decoder == 0 {
		return c.fail(ErrNoDecoder)
	}

	frame, stride, err := c.engine.MapFrame(c.decoder, info)
	if err != nil {
		return c.fail(fmt.Errorf("map frame %d: %w", info.PictureIndex, err))
	}
	defer func() {
		if uerr := c.engine.UnmapFrame(c.decoder, frame); uerr != nil && err == nil {
			err = c.fail(fmt.Errorf("unmap frame %d: %w", info.PictureIndex, uerr))
		}
	}()

	// Sized from the first frame's pitch; each copy uses its own frame's size.
	size := reformat.SemiPlanarSize(stride, c.opts.TargetHeight)
	if c.hostBuf == nil {
		buf, err := c.engine.AllocHost(size)
		if err != nil {
			return c.fail(fmt.Errorf("allocate host buffer: %w", err))
		}
		c.hostBuf = buf
		c.logger.Debug("Allocated %d byte host buffer (pitch %d)", size, stride)
	} else if size > len(c.hostBuf) {
		return c.fail(fmt.Errorf("frame pitch %d exceeds host buffer of %d bytes", stride, len(c.hostBuf)))
	}

	if err := c.engine.CopyToHost(c.hostBuf[:size], frame); err != nil {
		return c.fail(fmt.Errorf("copy frame %d to host: %w", info.PictureIndex, err))
	}

	planar, err := reformat.ToPlanar(c.hostBuf[:size], stride, c.opts.TargetWidth, c.opts.TargetHeight)
	if err != nil {
		return c.fail(err)
	}
	if err := c.sink.Encode(planar, c.displayed); err != nil {
		return c.fail(err)
	}
	c.displayed++
	return nil
}

// Close releases the parser, the decoder, the context and the host buffer,
// in that order. Resources never acquired are skipped; calling Close again
// does nothing.
func (c *Coordinator) Close() error {
	if c.state == stateClosed {
		return nil
	}
	c.state = stateClosed

	var errs []error
	if c.parser != 0 {
		if err := c.engine.DestroyParser(c.parser); err != nil {
			errs = append(errs, fmt.Errorf("destroy parser: %w", err))
		}
		c.parser = 0
	}
	if c.decoder != 0 {
		if err := c.engine.DestroyDecoder(c.decoder); err != nil {
			errs = append(errs, fmt.Errorf("destroy decoder: %w", err))
		}
		c.decoder = 0
	}
	if c.context != 0 {
		if err := c.engine.DestroyContext(c.context); err != nil {
			errs = append(errs, fmt.Errorf("destroy context: %w", err))
		}
		c.context = 0
	}
	if c.hostBuf != nil {
		if err := c.engine.FreeHost(c.hostBuf); err != nil {
			errs = append(errs, fmt.Errorf("free host buffer: %w", err))
		}
		c.hostBuf = nil
	}
	return errors.Join(errs...)
}

// FrameCount returns the number of pictures decoded.
func (c *Coordinator) FrameCount() int { return c.frameCount }

// Displayed returns the number of pictures handed to the sink.
func (c *Coordinator) Displayed() int { return c.displayed }

// Format returns the negotiated sequence format, or nil before the first
// sequence header.
func (c *Coordinator) Format() *ports.VideoFormat { return c.format }

var _ ports.DecodeCallbacks = (*Coordinator)(nil)
