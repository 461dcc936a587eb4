package ffmpegdecoder

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// pitchAlignment matches the row alignment of hardware decoder surfaces.
const pitchAlignment = 256

func alignPitch(width int) int {
	return (width + pitchAlignment - 1) &^ (pitchAlignment - 1)
}

// toNV12 scales img to width x height and lays it out as NV12 with the
// given row pitch.
func toNV12(img image.Image, width, height, pitch int) []byte {
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := make([]byte, pitch*height*3/2)
	uv := out[pitch*height:]

	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x += 2 {
			var cbSum, crSum int
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					i := rgba.PixOffset(x+dx, y+dy)
					yy, cb, cr := color.RGBToYCbCr(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
					out[(y+dy)*pitch+x+dx] = yy
					cbSum += int(cb)
					crSum += int(cr)
				}
			}
			row := (y / 2) * pitch
			uv[row+x] = byte((cbSum + 2) / 4)
			uv[row+x+1] = byte((crSum + 2) / 4)
		}
	}
	return out
}
