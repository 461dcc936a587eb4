package ffmpegdecoder

import (
	"fmt"

	"github.com/user/fasthumb/pkg/ports"
)

// surface is one decoded NV12 picture held in host memory.
type surface struct {
	data  []byte
	pitch int
}

type decoder struct {
	info     ports.DecoderCreateInfo
	surfaces map[int]*surface
}

// Decoder implements ports.HardwareDecoder in software. Callbacks run on the
// goroutine calling ParseVideoData; a Decoder is not safe for concurrent
// use.
type Decoder struct {
	logger ports.Logger
	decode PictureDecoder

	next     uintptr
	contexts map[ports.ContextHandle]struct{}
	parsers  map[ports.ParserHandle]*parser
	decoders map[ports.DecoderHandle]*decoder
	mapped   map[ports.DevicePtr]*surface
}

// New creates a Decoder that runs ffmpeg for every picture.
func New(logger ports.Logger) (*Decoder, error) {
	path, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}
	return NewWithPictureDecoder(ffmpegPicture(path), logger), nil
}

// NewWithPictureDecoder creates a Decoder that decodes pictures with fn.
func NewWithPictureDecoder(fn PictureDecoder, logger ports.Logger) *Decoder {
	return &Decoder{
		logger:   logger.WithComponent("ffmpeg"),
		decode:   fn,
		contexts: make(map[ports.ContextHandle]struct{}),
		parsers:  make(map[ports.ParserHandle]*parser),
		decoders: make(map[ports.DecoderHandle]*decoder),
		mapped:   make(map[ports.DevicePtr]*surface),
	}
}

func (d *Decoder) handle() uintptr {
	d.next++
	return d.next
}

func (d *Decoder) CreateContext() (ports.ContextHandle, error) {
	h := ports.ContextHandle(d.handle())
	d.contexts[h] = struct{}{}
	return h, nil
}

func (d *Decoder) CreateParser(ctx ports.ContextHandle, cfg ports.ParserConfig, callbacks ports.DecodeCallbacks) (ports.ParserHandle, error) {
	if _, ok := d.contexts[ctx]; !ok {
		return 0, fmt.Errorf("%w: context %d", ErrInvalidHandle, ctx)
	}
	if cfg.Codec != ports.CodecH264 {
		return 0, &ports.DecoderError{Op: "create parser", Reason: fmt.Sprintf("unsupported codec %s", cfg.Codec)}
	}
	h := ports.ParserHandle(d.handle())
	d.parsers[h] = newParser(cfg, callbacks, d.logger)
	return h, nil
}

func (d *Decoder) ParseVideoData(parser ports.ParserHandle, packet ports.SourcePacket) error {
	p, ok := d.parsers[parser]
	if !ok {
		return fmt.Errorf("%w: parser %d", ErrInvalidHandle, parser)
	}
	return p.parse(packet)
}

func (d *Decoder) CreateDecoder(ctx ports.ContextHandle, info ports.DecoderCreateInfo) (ports.DecoderHandle, error) {
	if _, ok := d.contexts[ctx]; !ok {
		return 0, fmt.Errorf("%w: context %d", ErrInvalidHandle, ctx)
	}
	if info.OutputFormat != ports.SurfaceNV12 {
		return 0, &ports.DecoderError{Op: "create decoder", Reason: "only NV12 output is supported"}
	}
	if info.BitDepthMinus8 != 0 {
		return 0, &ports.DecoderError{Op: "create decoder", Reason: fmt.Sprintf("unsupported bit depth %d", info.BitDepthMinus8+8)}
	}
	if info.TargetWidth == 0 || info.TargetHeight == 0 {
		info.TargetWidth, info.TargetHeight = info.CodedWidth, info.CodedHeight
	}
	if info.TargetWidth%2 != 0 || info.TargetHeight%2 != 0 {
		return 0, &ports.DecoderError{Op: "create decoder", Reason: fmt.Sprintf("odd target size %dx%d", info.TargetWidth, info.TargetHeight)}
	}

	h := ports.DecoderHandle(d.handle())
	d.decoders[h] = &decoder{info: info, surfaces: make(map[int]*surface)}
	d.logger.Debug("Decoder created: coded %dx%d, output %dx%d", info.CodedWidth, info.CodedHeight, info.TargetWidth, info.TargetHeight)
	return h, nil
}

func (d *Decoder) DecodePicture(dec ports.DecoderHandle, picture *ports.PictureParams) error {
	dd, ok := d.decoders[dec]
	if !ok {
		return fmt.Errorf("%w: decoder %d", ErrInvalidHandle, dec)
	}
	if len(picture.Bitstream) == 0 {
		return &ports.DecoderError{Op: "decode picture", Reason: "empty bitstream"}
	}

	img, err := d.decode(picture.Bitstream)
	if err != nil {
		return &ports.DecoderError{Op: "decode picture", Reason: err.Error()}
	}

	pitch := alignPitch(dd.info.TargetWidth)
	dd.surfaces[picture.PictureIndex] = &surface{
		data:  toNV12(img, dd.info.TargetWidth, dd.info.TargetHeight, pitch),
		pitch: pitch,
	}
	return nil
}

func (d *Decoder) MapFrame(dec ports.DecoderHandle, info *ports.DisplayInfo) (ports.DevicePtr, int, error) {
	dd, ok := d.decoders[dec]
	if !ok {
		return 0, 0, fmt.Errorf("%w: decoder %d", ErrInvalidHandle, dec)
	}
	s, ok := dd.surfaces[info.PictureIndex]
	if !ok {
		return 0, 0, &ports.DecoderError{Op: "map frame", Reason: fmt.Sprintf("picture %d was never decoded", info.PictureIndex)}
	}
	ptr := ports.DevicePtr(d.handle())
	d.mapped[ptr] = s
	return ptr, s.pitch, nil
}

func (d *Decoder) UnmapFrame(dec ports.DecoderHandle, frame ports.DevicePtr) error {
	if _, ok := d.mapped[frame]; !ok {
		return fmt.Errorf("%w: frame %d", ErrInvalidHandle, frame)
	}
	delete(d.mapped, frame)
	return nil
}

func (d *Decoder) CopyToHost(dst []byte, src ports.DevicePtr) error {
	s, ok := d.mapped[src]
	if !ok {
		return fmt.Errorf("%w: frame %d", ErrInvalidHandle, src)
	}
	if len(dst) > len(s.data) {
		return &ports.DecoderError{Op: "copy to host", Reason: fmt.Sprintf("requested %d bytes from a %d byte surface", len(dst), len(s.data))}
	}
	copy(dst, s.data)
	return nil
}

func (d *Decoder) AllocHost(size int) ([]byte, error) {
	if size <= 0 {
		return nil, &ports.DecoderError{Op: "alloc host", Reason: fmt.Sprintf("invalid size %d", size)}
	}
	return make([]byte, size), nil
}

func (d *Decoder) FreeHost(buf []byte) error {
	return nil
}

func (d *Decoder) DestroyParser(parser ports.ParserHandle) error {
	if parser == 0 {
		return nil
	}
	if _, ok := d.parsers[parser]; !ok {
		return fmt.Errorf("%w: parser %d", ErrInvalidHandle, parser)
	}
	delete(d.parsers, parser)
	return nil
}

func (d *Decoder) DestroyDecoder(dec ports.DecoderHandle) error {
	if dec == 0 {
		return nil
	}
	if _, ok := d.decoders[dec]; !ok {
		return fmt.Errorf("%w: decoder %d", ErrInvalidHandle, dec)
	}
	delete(d.decoders, dec)
	return nil
}

func (d *Decoder) DestroyContext(ctx ports.ContextHandle) error {
	if ctx == 0 {
		return nil
	}
	if _, ok := d.contexts[ctx]; !ok {
		return fmt.Errorf("%w: context %d", ErrInvalidHandle, ctx)
	}
	delete(d.contexts, ctx)
	return nil
}

var _ ports.HardwareDecoder = (*Decoder)(nil)
