package mocks

import "github.com/user/fasthumb/pkg/ports"

// JPEGCompressor is a mock implementation of ports.JPEGCompressor.
type JPEGCompressor struct {
	CompressFunc func(buf []byte, width, height int, sampling ports.ChromaSampling, quality int, flags ports.CompressFlags) ([]byte, error)

	// Recorded calls for verification
	Calls []CompressCall
}

// CompressCall records a call to CompressFromPlanar.
type CompressCall struct {
	Size     int
	Width    int
	Height   int
	Sampling ports.ChromaSampling
	Quality  int
	Flags    ports.CompressFlags
}

func (m *JPEGCompressor) CompressFromPlanar(buf []byte, width, height int, sampling ports.ChromaSampling, quality int, flags ports.CompressFlags) ([]byte, error) {
	m.Calls = append(m.Calls, CompressCall{
		Size:     len(buf),
		Width:    width,
		Height:   height,
		Sampling: sampling,
		Quality:  quality,
		Flags:    flags,
	})
	if m.CompressFunc != nil {
		return m.CompressFunc(buf, width, height, sampling, quality, flags)
	}
	// Return minimal JPEG SOI/EOI
	return []byte{0xFF, 0xD8, 0xFF, 0xD9}, nil
}

var _ ports.JPEGCompressor = (*JPEGCompressor)(nil)
