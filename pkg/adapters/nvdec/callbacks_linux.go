//go:build nvdec && linux && cgo

package nvdec

/*
#include <cuda.h>
#include <nvcuvid.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/user/fasthumb/pkg/ports"
)

// The parser invokes these from inside cuvidParseVideoData. A zero return
// aborts parsing; the error is kept on the parser state for ParseVideoData.

func parserFor(user unsafe.Pointer) *parserState {
	return cgo.Handle(uintptr(user)).Value().(*parserState)
}

//export fasthumbSequence
func fasthumbSequence(user unsafe.Pointer, format *C.CUVIDEOFORMAT) C.int {
	state := parserFor(user)
	f := ports.VideoFormat{
		Codec:              ports.CodecH264,
		CodedWidth:         int(format.coded_width),
		CodedHeight:        int(format.coded_height),
		ChromaFormat:       ports.ChromaFormat(format.chroma_format),
		BitDepthLumaMinus8: int(format.bit_depth_luma_minus8),
		Progressive:        format.progressive_sequence != 0,
	}
	if err := state.callbacks.OnSequence(&f); err != nil {
		state.err = err
		return 0
	}
	return 1
}

//export fasthumbDecode
func fasthumbDecode(user unsafe.Pointer, picture *C.CUVIDPICPARAMS) C.int {
	state := parserFor(user)
	p := ports.PictureParams{
		PictureIndex: int(picture.CurrPicIdx),
		IntraPicture: picture.intra_pic_flag != 0,
		Native:       uintptr(unsafe.Pointer(picture)),
	}
	if err := state.callbacks.OnDecode(&p); err != nil {
		state.err = err
		return 0
	}
	return 1
}

//export fasthumbDisplay
func fasthumbDisplay(user unsafe.Pointer, info *C.CUVIDPARSERDISPINFO) C.int {
	state := parserFor(user)
	if info == nil {
		// End-of-stream marker.
		return 1
	}
	d := ports.DisplayInfo{
		PictureIndex:     int(info.picture_index),
		ProgressiveFrame: info.progressive_frame != 0,
		TopFieldFirst:    info.top_field_first != 0,
		RepeatFirstField: int(info.repeat_first_field),
		Timestamp:        int64(info.timestamp),
	}
	if err := state.callbacks.OnDisplay(&d); err != nil {
		state.err = err
		return 0
	}
	return 1
}
