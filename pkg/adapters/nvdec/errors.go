// Package nvdec provides the NVIDIA NVDEC decode engine through the CUDA
// driver API and the nvcuvid video parser.
//
// The cgo implementation is compiled only with the "nvdec" build tag on
// Linux. Other builds get a stub whose constructor fails, so callers can
// fall back to another engine.
package nvdec

import "errors"

var (
	// ErrPlatformNotSupported is returned when the package was built without
	// NVDEC support.
	ErrPlatformNotSupported = errors.New("nvdec: not built with NVDEC support")

	// ErrNoDevice is returned when no CUDA device is present.
	ErrNoDevice = errors.New("nvdec: no CUDA device found")

	// ErrInvalidHandle is returned for handles this engine never issued.
	ErrInvalidHandle = errors.New("nvdec: invalid handle")
)

// Options configures the engine.
type Options struct {
	// Device is the CUDA device ordinal.
	Device int
}
