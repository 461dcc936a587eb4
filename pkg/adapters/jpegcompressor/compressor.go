// Package jpegcompressor compresses planar YUV buffers with image/jpeg.
package jpegcompressor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/user/fasthumb/pkg/ports"
	"github.com/user/fasthumb/pkg/reformat"
)

// ErrBufferSize is returned when the buffer does not match the dimensions.
var ErrBufferSize = errors.New("jpegcompressor: buffer size does not match dimensions")

// Compressor implements ports.JPEGCompressor.
//
// image/jpeg always uses its integer DCT, so FlagFastDCT is accepted and
// has no further effect. Output is deterministic for identical input.
type Compressor struct{}

// New creates a Compressor.
func New() *Compressor {
	return &Compressor{}
}

// CompressFromPlanar compresses buf, laid out as consecutive Y, U and V planes.
func (c *Compressor) CompressFromPlanar(buf []byte, width, height int, sampling ports.ChromaSampling, quality int, flags ports.CompressFlags) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("jpegcompressor: invalid dimensions %dx%d", width, height)
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpegcompressor: quality %d out of range", quality)
	}

	img, err := wrapPlanar(buf, width, height, sampling)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode JPEG: %w", err)
	}
	return out.Bytes(), nil
}

func wrapPlanar(buf []byte, width, height int, sampling ports.ChromaSampling) (image.Image, error) {
	rect := image.Rect(0, 0, width, height)
	lumaSize := width * height

	if sampling == ports.SamplingGray {
		if len(buf) < lumaSize {
			return nil, fmt.Errorf("%w: %d < %d", ErrBufferSize, len(buf), lumaSize)
		}
		return &image.Gray{Pix: buf[:lumaSize], Stride: width, Rect: rect}, nil
	}

	var ratio image.YCbCrSubsampleRatio
	cw, ch := width, height
	switch sampling {
	case ports.Sampling420:
		ratio = image.YCbCrSubsampleRatio420
		cw, ch = width/2, height/2
	case ports.Sampling422:
		ratio = image.YCbCrSubsampleRatio422
		cw = width / 2
	case ports.Sampling444:
		ratio = image.YCbCrSubsampleRatio444
	default:
		return nil, fmt.Errorf("jpegcompressor: unsupported chroma sampling %d", sampling)
	}
	if (sampling == ports.Sampling420 && height%2 != 0) || (sampling != ports.Sampling444 && width%2 != 0) {
		return nil, fmt.Errorf("jpegcompressor: %dx%d cannot be chroma subsampled", width, height)
	}

	chromaSize := cw * ch
	need := lumaSize + 2*chromaSize
	if len(buf) < need {
		return nil, fmt.Errorf("%w: %d < %d", ErrBufferSize, len(buf), need)
	}
	if sampling == ports.Sampling420 {
		return reformat.PlanarFrame{Data: buf[:need], Width: width, Height: height}.Image(), nil
	}

	return &image.YCbCr{
		Y:              buf[:lumaSize],
		Cb:             buf[lumaSize : lumaSize+chromaSize],
		Cr:             buf[lumaSize+chromaSize : lumaSize+2*chromaSize],
		YStride:        width,
		CStride:        cw,
		SubsampleRatio: ratio,
		Rect:           rect,
	}, nil
}

var _ ports.JPEGCompressor = (*Compressor)(nil)
