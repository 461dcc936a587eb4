package ports

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("malformed input")
	// ErrIO matches every *IOError.
	ErrIO = errors.New("i/o failure")
	// ErrDecoder matches every *DecoderError.
	ErrDecoder = errors.New("decoder call failed")
)

// FormatError reports container input that cannot be scanned at all.
type FormatError struct {
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error at byte %d: %s", e.Offset, e.Reason)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// IOError reports a failed read of input or write of output.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is reports whether target is ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// DecoderError reports a non-success result from a decoder engine call.
type DecoderError struct {
	Op     string
	Code   int
	Reason string
}

func (e *DecoderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s failed (%d): %s", e.Op, e.Code, e.Reason)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Reason)
}

// Is reports whether target is ErrDecoder.
func (e *DecoderError) Is(target error) bool { return target == ErrDecoder }
