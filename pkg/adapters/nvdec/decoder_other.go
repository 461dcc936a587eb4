//go:build !(nvdec && linux && cgo)

package nvdec

import "github.com/user/fasthumb/pkg/ports"

// Decoder is a placeholder for builds without NVDEC.
type Decoder struct {
	ports.HardwareDecoder
}

// New always fails with ErrPlatformNotSupported.
func New(opts Options, logger ports.Logger) (*Decoder, error) {
	return nil, ErrPlatformNotSupported
}

// Available returns false for builds without NVDEC.
func Available() bool {
	return false
}
