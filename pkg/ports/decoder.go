package ports

// ContextHandle identifies a decoding context owned by a HardwareDecoder.
// The zero value is the null sentinel.
type ContextHandle uintptr

// ParserHandle identifies a bitstream parser instance.
type ParserHandle uintptr

// DecoderHandle identifies a decoder instance sized for one coded sequence.
type DecoderHandle uintptr

// DevicePtr refers to a mapped, decoder-owned output surface.
type DevicePtr uintptr

// CodecType identifies the coded video format.
type CodecType int

const (
	// CodecH264 is H.264/AVC in Annex B byte-stream framing.
	CodecH264 CodecType = iota
)

// String returns the codec name.
func (c CodecType) String() string {
	switch c {
	case CodecH264:
		return "h264"
	default:
		return "unknown"
	}
}

// ChromaFormat is the chroma subsampling of a coded or decoded picture.
type ChromaFormat int

const (
	ChromaMonochrome ChromaFormat = iota
	Chroma420
	Chroma422
	Chroma444
)

// SurfaceFormat is the memory layout of decoder output surfaces.
type SurfaceFormat int

const (
	// SurfaceNV12 is semi-planar 4:2:0: a luma plane followed by one
	// plane of interleaved U/V samples, both sharing the same pitch.
	SurfaceNV12 SurfaceFormat = iota
)

// DeinterlaceMode selects how interlaced content is turned into frames.
type DeinterlaceMode int

const (
	DeinterlaceWeave DeinterlaceMode = iota
	DeinterlaceBob
	DeinterlaceAdaptive
)

// Packet flags for SourcePacket.
const (
	// FlagEndOfStream tells the parser no more data follows and any
	// pictures held for display reordering must be emitted.
	FlagEndOfStream uint32 = 1 << 0
	// FlagTimestamp marks SourcePacket.Timestamp as valid.
	FlagTimestamp uint32 = 1 << 1
)

// ParserConfig configures a bitstream parser.
type ParserConfig struct {
	Codec CodecType
	// MaxDisplayDelay is the number of decoded pictures held back before
	// display callbacks start firing.
	MaxDisplayDelay int
	// MaxDecodeSurfaces bounds the picture indices handed to OnDecode.
	MaxDecodeSurfaces int
}

// SourcePacket is one chunk of elementary stream handed to the parser.
type SourcePacket struct {
	Payload   []byte
	Flags     uint32
	Timestamp int64
}

// VideoFormat is the format negotiated by the parser at a sequence start.
type VideoFormat struct {
	Codec              CodecType
	CodedWidth         int
	CodedHeight        int
	ChromaFormat       ChromaFormat
	BitDepthLumaMinus8 int
	Progressive        bool
}

// DecoderCreateInfo describes the decoder instance to create.
type DecoderCreateInfo struct {
	Codec             CodecType
	CodedWidth        int
	CodedHeight       int
	TargetWidth       int
	TargetHeight      int
	ChromaFormat      ChromaFormat
	OutputFormat      SurfaceFormat
	BitDepthMinus8    int
	NumDecodeSurfaces int
	NumOutputSurfaces int
	Deinterlace       DeinterlaceMode
}

// PictureParams describes one coded picture ready for decoding.
type PictureParams struct {
	// PictureIndex is the decode surface the picture is written to.
	PictureIndex int
	// IntraPicture is true when the picture references no other picture.
	IntraPicture bool
	// Bitstream holds the coded slices when the engine exposes them.
	Bitstream []byte
	// Native is an engine-owned reference to its own picture description.
	Native uintptr
}

// DisplayInfo describes a decoded picture ready for output in display order.
type DisplayInfo struct {
	PictureIndex     int
	ProgressiveFrame bool
	TopFieldFirst    bool
	RepeatFirstField int
	Timestamp        int64
}

// DecodeCallbacks receives parser events. All three run synchronously on
// the goroutine that called ParseVideoData. Returning an error makes the
// parser abort the current submission.
type DecodeCallbacks interface {
	// OnSequence fires when a new coded sequence format is seen.
	OnSequence(format *VideoFormat) error
	// OnDecode fires once per coded picture in decode order.
	OnDecode(picture *PictureParams) error
	// OnDisplay fires once per decoded picture in display order.
	OnDisplay(info *DisplayInfo) error
}

// HardwareDecoder is the external video decode engine.
//
// Destroy methods accept the null handle and do nothing for it, so callers
// can tear down partially constructed sessions unconditionally.
type HardwareDecoder interface {
	CreateContext() (ContextHandle, error)
	CreateParser(ctx ContextHandle, cfg ParserConfig, callbacks DecodeCallbacks) (ParserHandle, error)
	ParseVideoData(parser ParserHandle, packet SourcePacket) error

	CreateDecoder(ctx ContextHandle, info DecoderCreateInfo) (DecoderHandle, error)
	DecodePicture(decoder DecoderHandle, picture *PictureParams) error

	// MapFrame maps the decoded picture and returns its surface and row pitch.
	MapFrame(decoder DecoderHandle, info *DisplayInfo) (DevicePtr, int, error)
	UnmapFrame(decoder DecoderHandle, frame DevicePtr) error
	// CopyToHost copies len(dst) bytes of a mapped surface into dst.
	CopyToHost(dst []byte, src DevicePtr) error

	AllocHost(size int) ([]byte, error)
	FreeHost(buf []byte) error

	DestroyParser(parser ParserHandle) error
	DestroyDecoder(decoder DecoderHandle) error
	DestroyContext(ctx ContextHandle) error
}
