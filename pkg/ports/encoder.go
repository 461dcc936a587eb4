package ports

// ChromaSampling is the chroma subsampling used inside a JPEG.
type ChromaSampling int

const (
	Sampling444 ChromaSampling = iota
	Sampling422
	Sampling420
	SamplingGray
)

// CompressFlags tune the JPEG compressor.
type CompressFlags uint32

const (
	// FlagFastDCT selects the fastest available DCT.
	FlagFastDCT CompressFlags = 1 << 0
)

// JPEGCompressor compresses raw planar YUV images.
type JPEGCompressor interface {
	// CompressFromPlanar compresses a planar Y,U,V buffer of the given
	// dimensions laid out with the given chroma sampling.
	CompressFromPlanar(buf []byte, width, height int, sampling ChromaSampling, quality int, flags CompressFlags) ([]byte, error)
}
