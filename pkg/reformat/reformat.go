// Package reformat converts decoder output surfaces into planar frames.
package reformat

import (
	"fmt"
	"image"
)

// PlanarFrame is a planar 4:2:0 picture: the luma plane, then the U plane,
// then the V plane, each without row padding.
type PlanarFrame struct {
	Data   []byte
	Width  int
	Height int
}

// PlanarSize returns the byte size of a planar 4:2:0 frame.
func PlanarSize(width, height int) int {
	return width*height + 2*(width/2)*(height/2)
}

// SemiPlanarSize returns the byte size of an NV12 surface with the given pitch.
func SemiPlanarSize(stride, height int) int {
	return stride * height * 3 / 2
}

// Y returns the luma plane.
func (f PlanarFrame) Y() []byte {
	return f.Data[:f.Width*f.Height]
}

// U returns the Cb plane.
func (f PlanarFrame) U() []byte {
	off := f.Width * f.Height
	return f.Data[off : off+(f.Width/2)*(f.Height/2)]
}

// V returns the Cr plane.
func (f PlanarFrame) V() []byte {
	off := f.Width*f.Height + (f.Width/2)*(f.Height/2)
	return f.Data[off : off+(f.Width/2)*(f.Height/2)]
}

// Image wraps the frame as an image.YCbCr without copying.
func (f PlanarFrame) Image() *image.YCbCr {
	return &image.YCbCr{
		Y:              f.Y(),
		Cb:             f.U(),
		Cr:             f.V(),
		YStride:        f.Width,
		CStride:        f.Width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, f.Width, f.Height),
	}
}

// ToPlanar converts an NV12 surface into a planar frame. src holds height
// luma rows of stride bytes followed by height/2 rows of interleaved U/V
// samples with the same stride; bytes past width in each row are padding.
func ToPlanar(src []byte, stride, width, height int) (PlanarFrame, error) {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return PlanarFrame{}, fmt.Errorf("reformat: invalid dimensions %dx%d", width, height)
	}
	if stride < width {
		return PlanarFrame{}, fmt.Errorf("reformat: stride %d smaller than width %d", stride, width)
	}
	if need := SemiPlanarSize(stride, height); len(src) < need {
		return PlanarFrame{}, fmt.Errorf("reformat: surface holds %d bytes, need %d", len(src), need)
	}

	out := make([]byte, PlanarSize(width, height))
	chromaW := width / 2
	chromaH := height / 2

	y := out[:width*height]
	u := out[width*height : width*height+chromaW*chromaH]
	v := out[width*height+chromaW*chromaH:]

	for row := 0; row < height; row++ {
		copy(y[row*width:(row+1)*width], src[row*stride:row*stride+width])
	}

	uv := src[stride*height:]
	for row := 0; row < chromaH; row++ {
		line := uv[row*stride : row*stride+width]
		base := row * chromaW
		for i := 0; i < chromaW; i++ {
			u[base+i] = line[2*i]
			v[base+i] = line[2*i+1]
		}
	}

	return PlanarFrame{Data: out, Width: width, Height: height}, nil
}
