//go:build nvdec && linux && cgo

package nvdec

/*
#cgo LDFLAGS: -lcuda -lnvcuvid

#include <stdint.h>
#include <cuda.h>
#include <nvcuvid.h>

extern int fasthumbSequence(void *user, CUVIDEOFORMAT *format);
extern int fasthumbDecode(void *user, CUVIDPICPARAMS *picture);
extern int fasthumbDisplay(void *user, CUVIDPARSERDISPINFO *info);

static void setCallbacks(CUVIDPARSERPARAMS *p, uintptr_t user) {
    p->pUserData = (void *)user;
    p->pfnSequenceCallback = (PFNVIDSEQUENCECALLBACK)fasthumbSequence;
    p->pfnDecodePicture = (PFNVIDDECODECALLBACK)fasthumbDecode;
    p->pfnDisplayPicture = (PFNVIDDISPLAYCALLBACK)fasthumbDisplay;
}

static const char *errorString(CUresult r) {
    const char *s = NULL;
    if (cuGetErrorString(r, &s) != CUDA_SUCCESS || s == NULL) {
        return "unknown error";
    }
    return s;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/cgo"
	"unsafe"

	"github.com/user/fasthumb/pkg/ports"
)

func check(op string, r C.CUresult) error {
	if r == C.CUDA_SUCCESS {
		return nil
	}
	return &ports.DecoderError{Op: op, Code: int(r), Reason: C.GoString(C.errorString(r))}
}

// parserState is reachable from C through a cgo.Handle passed as user data.
type parserState struct {
	parser    C.CUvideoparser
	handle    cgo.Handle
	callbacks ports.DecodeCallbacks
	err       error
}

type decoderState struct {
	decoder C.CUvideodecoder
	ctx     C.CUcontext
}

// Decoder implements ports.HardwareDecoder on top of NVDEC. A Decoder is not
// safe for concurrent use.
type Decoder struct {
	device C.CUdevice
	logger ports.Logger

	next     uintptr
	contexts map[ports.ContextHandle]C.CUcontext
	parsers  map[ports.ParserHandle]*parserState
	decoders map[ports.DecoderHandle]*decoderState
	hostBufs *hostRegistry
}

// Available reports whether the driver loads and at least one CUDA device
// is present.
func Available() bool {
	if C.cuInit(0) != C.CUDA_SUCCESS {
		return false
	}
	var n C.int
	return C.cuDeviceGetCount(&n) == C.CUDA_SUCCESS && n > 0
}

// New initialises the driver and selects the CUDA device.
func New(opts Options, logger ports.Logger) (*Decoder, error) {
	if err := check("cuInit", C.cuInit(0)); err != nil {
		return nil, err
	}
	var n C.int
	if err := check("cuDeviceGetCount", C.cuDeviceGetCount(&n)); err != nil {
		return nil, err
	}
	if int(n) <= opts.Device {
		return nil, ErrNoDevice
	}

	var dev C.CUdevice
	if err := check("cuDeviceGet", C.cuDeviceGet(&dev, C.int(opts.Device))); err != nil {
		return nil, err
	}
	return &Decoder{
		device:   dev,
		logger:   logger.WithComponent("nvdec"),
		contexts: make(map[ports.ContextHandle]C.CUcontext),
		parsers:  make(map[ports.ParserHandle]*parserState),
		decoders: make(map[ports.DecoderHandle]*decoderState),
		hostBufs: newHostRegistry(),
	}, nil
}

func (d *Decoder) handle() uintptr {
	d.next++
	return d.next
}

func popContext() {
	C.cuCtxPopCurrent_v2(nil)
}

// withContext runs fn with ctx current on the calling thread.
func withContext(ctx C.CUcontext, fn func() error) error {
	return pinnedCall(func() error {
		return check("cuCtxPushCurrent", C.cuCtxPushCurrent_v2(ctx))
	}, popContext, fn)
}

// anyContext returns a live context for calls that are not tied to one.
func (d *Decoder) anyContext() (ports.ContextHandle, C.CUcontext, bool) {
	for h, ctx := range d.contexts {
		return h, ctx, true
	}
	return 0, nil, false
}

func (d *Decoder) CreateContext() (ports.ContextHandle, error) {
	var ctx C.CUcontext
	// cuCtxCreate leaves the context current; contexts are pushed per call.
	err := pinnedCall(func() error {
		return check("cuCtxCreate", C.cuCtxCreate_v2(&ctx, 0, d.device))
	}, popContext, func() error { return nil })
	if err != nil {
		return 0, err
	}

	h := ports.ContextHandle(d.handle())
	d.contexts[h] = ctx
	return h, nil
}

func (d *Decoder) CreateParser(ctx ports.ContextHandle, cfg ports.ParserConfig, callbacks ports.DecodeCallbacks) (ports.ParserHandle, error) {
	if _, ok := d.contexts[ctx]; !ok {
		return 0, fmt.Errorf("%w: context %d", ErrInvalidHandle, ctx)
	}
	if cfg.Codec != ports.CodecH264 {
		return 0, &ports.DecoderError{Op: "cuvidCreateVideoParser", Reason: fmt.Sprintf("unsupported codec %s", cfg.Codec)}
	}

	state := &parserState{callbacks: callbacks}
	state.handle = cgo.NewHandle(state)

	var params C.CUVIDPARSERPARAMS
	params.CodecType = C.cudaVideoCodec_H264
	params.ulMaxNumDecodeSurfaces = C.uint(cfg.MaxDecodeSurfaces)
	params.ulMaxDisplayDelay = C.uint(cfg.MaxDisplayDelay)
	C.setCallbacks(&params, C.uintptr_t(state.handle))

	if err := check("cuvidCreateVideoParser", C.cuvidCreateVideoParser(&state.parser, &params)); err != nil {
		state.handle.Delete()
		return 0, err
	}

	h := ports.ParserHandle(d.handle())
	d.parsers[h] = state
	return h, nil
}

func (d *Decoder) ParseVideoData(parser ports.ParserHandle, packet ports.SourcePacket) error {
	state, ok := d.parsers[parser]
	if !ok {
		return fmt.Errorf("%w: parser %d", ErrInvalidHandle, parser)
	}

	var pkt C.CUVIDSOURCEDATAPACKET
	if packet.Flags&ports.FlagEndOfStream != 0 {
		pkt.flags |= C.CUVID_PKT_ENDOFSTREAM
	}
	if packet.Flags&ports.FlagTimestamp != 0 {
		pkt.flags |= C.CUVID_PKT_TIMESTAMP
		pkt.timestamp = C.CUvideotimestamp(packet.Timestamp)
	}
	// pkt is Go memory holding a pointer to the payload, so the payload
	// must be pinned for the duration of the call.
	var pin runtime.Pinner
	defer pin.Unpin()
	if len(packet.Payload) > 0 {
		pin.Pin(&packet.Payload[0])
		pkt.payload = (*C.uchar)(unsafe.Pointer(&packet.Payload[0]))
		pkt.payload_size = C.ulong(len(packet.Payload))
	}

	state.err = nil
	r := C.cuvidParseVideoData(state.parser, &pkt)
	if state.err != nil {
		return state.err
	}
	return check("cuvidParseVideoData", r)
}

func (d *Decoder) CreateDecoder(ctx ports.ContextHandle, info ports.DecoderCreateInfo) (ports.DecoderHandle, error) {
	cuCtx, ok := d.contexts[ctx]
	if !ok {
		return 0, fmt.Errorf("%w: context %d", ErrInvalidHandle, ctx)
	}

	var ci C.CUVIDDECODECREATEINFO
	ci.CodecType = C.cudaVideoCodec_H264
	ci.ulWidth = C.ulong(info.CodedWidth)
	ci.ulHeight = C.ulong(info.CodedHeight)
	ci.ulTargetWidth = C.ulong(info.TargetWidth)
	ci.ulTargetHeight = C.ulong(info.TargetHeight)
	ci.ulNumDecodeSurfaces = C.ulong(info.NumDecodeSurfaces)
	ci.ulNumOutputSurfaces = C.ulong(info.NumOutputSurfaces)
	ci.ChromaFormat = chromaFormat(info.ChromaFormat)
	ci.OutputFormat = C.cudaVideoSurfaceFormat_NV12
	ci.DeinterlaceMode = deinterlaceMode(info.Deinterlace)
	ci.bitDepthMinus8 = C.ulong(info.BitDepthMinus8)
	ci.ulCreationFlags = C.cudaVideoCreate_PreferCUVID
	ci.vidLock = nil

	state := &decoderState{ctx: cuCtx}
	err := withContext(cuCtx, func() error {
		return check("cuvidCreateDecoder", C.cuvidCreateDecoder(&state.decoder, &ci))
	})
	if err != nil {
		return 0, err
	}

	h := ports.DecoderHandle(d.handle())
	d.decoders[h] = state
	d.logger.Debug("Decoder created: coded %dx%d, output %dx%d", info.CodedWidth, info.CodedHeight, info.TargetWidth, info.TargetHeight)
	return h, nil
}

func chromaFormat(c ports.ChromaFormat) C.cudaVideoChromaFormat {
	switch c {
	case ports.ChromaMonochrome:
		return C.cudaVideoChromaFormat_Monochrome
	case ports.Chroma422:
		return C.cudaVideoChromaFormat_422
	case ports.Chroma444:
		return C.cudaVideoChromaFormat_444
	default:
		return C.cudaVideoChromaFormat_420
	}
}

func deinterlaceMode(m ports.DeinterlaceMode) C.cudaVideoDeinterlaceMode {
	switch m {
	case ports.DeinterlaceBob:
		return C.cudaVideoDeinterlaceMode_Bob
	case ports.DeinterlaceAdaptive:
		return C.cudaVideoDeinterlaceMode_Adaptive
	default:
		return C.cudaVideoDeinterlaceMode_Weave
	}
}

func (d *Decoder) DecodePicture(dec ports.DecoderHandle, picture *ports.PictureParams) error {
	state, ok := d.decoders[dec]
	if !ok {
		return fmt.Errorf("%w: decoder %d", ErrInvalidHandle, dec)
	}
	if picture.Native == 0 {
		return &ports.DecoderError{Op: "cuvidDecodePicture", Reason: "picture did not come from the nvcuvid parser"}
	}
	params := (*C.CUVIDPICPARAMS)(unsafe.Pointer(picture.Native))
	return withContext(state.ctx, func() error {
		return check("cuvidDecodePicture", C.cuvidDecodePicture(state.decoder, params))
	})
}

func (d *Decoder) MapFrame(dec ports.DecoderHandle, info *ports.DisplayInfo) (ports.DevicePtr, int, error) {
	state, ok := d.decoders[dec]
	if !ok {
		return 0, 0, fmt.Errorf("%w: decoder %d", ErrInvalidHandle, dec)
	}

	var proc C.CUVIDPROCPARAMS
	proc.progressive_frame = boolInt(info.ProgressiveFrame)
	proc.top_field_first = boolInt(info.TopFieldFirst)
	proc.unpaired_field = boolInt(info.RepeatFirstField < 0)

	var ptr C.ulonglong
	var pitch C.uint
	err := withContext(state.ctx, func() error {
		return check("cuvidMapVideoFrame", C.cuvidMapVideoFrame64(state.decoder, C.int(info.PictureIndex), &ptr, &pitch, &proc))
	})
	if err != nil {
		return 0, 0, err
	}
	return ports.DevicePtr(ptr), int(pitch), nil
}

func boolInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func (d *Decoder) UnmapFrame(dec ports.DecoderHandle, frame ports.DevicePtr) error {
	state, ok := d.decoders[dec]
	if !ok {
		return fmt.Errorf("%w: decoder %d", ErrInvalidHandle, dec)
	}
	return withContext(state.ctx, func() error {
		return check("cuvidUnmapVideoFrame", C.cuvidUnmapVideoFrame64(state.decoder, C.ulonglong(frame)))
	})
}

func (d *Decoder) CopyToHost(dst []byte, src ports.DevicePtr) error {
	if len(dst) == 0 {
		return nil
	}
	_, ctx, ok := d.anyContext()
	if !ok {
		return fmt.Errorf("%w: no context", ErrInvalidHandle)
	}
	return withContext(ctx, func() error {
		return check("cuMemcpyDtoH", C.cuMemcpyDtoH_v2(unsafe.Pointer(&dst[0]), C.CUdeviceptr(src), C.size_t(len(dst))))
	})
}

// AllocHost allocates page-locked host memory owned by a live context.
func (d *Decoder) AllocHost(size int) ([]byte, error) {
	owner, ctx, ok := d.anyContext()
	if !ok {
		return nil, fmt.Errorf("%w: no context", ErrInvalidHandle)
	}
	var p unsafe.Pointer
	err := withContext(ctx, func() error {
		return check("cuMemAllocHost", C.cuMemAllocHost_v2(&p, C.size_t(size)))
	})
	if err != nil {
		return nil, err
	}
	buf := unsafe.Slice((*byte)(p), size)
	d.hostBufs.add(buf, owner, p)
	return buf, nil
}

// FreeHost frees a host buffer. Buffers whose context was destroyed first
// were freed with it, and freeing them here does nothing.
func (d *Decoder) FreeHost(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	b, err := d.hostBufs.take(buf)
	if err != nil || b.ptr == nil {
		return err
	}
	cuCtx, ok := d.contexts[b.owner]
	if !ok {
		return fmt.Errorf("%w: context %d", ErrInvalidHandle, b.owner)
	}
	return withContext(cuCtx, func() error {
		return check("cuMemFreeHost", C.cuMemFreeHost(b.ptr))
	})
}

func (d *Decoder) DestroyParser(parser ports.ParserHandle) error {
	if parser == 0 {
		return nil
	}
	state, ok := d.parsers[parser]
	if !ok {
		return fmt.Errorf("%w: parser %d", ErrInvalidHandle, parser)
	}
	delete(d.parsers, parser)
	err := check("cuvidDestroyVideoParser", C.cuvidDestroyVideoParser(state.parser))
	state.handle.Delete()
	return err
}

func (d *Decoder) DestroyDecoder(dec ports.DecoderHandle) error {
	if dec == 0 {
		return nil
	}
	state, ok := d.decoders[dec]
	if !ok {
		return fmt.Errorf("%w: decoder %d", ErrInvalidHandle, dec)
	}
	delete(d.decoders, dec)
	return withContext(state.ctx, func() error {
		return check("cuvidDestroyDecoder", C.cuvidDestroyDecoder(state.decoder))
	})
}

func (d *Decoder) DestroyContext(ctx ports.ContextHandle) error {
	if ctx == 0 {
		return nil
	}
	cuCtx, ok := d.contexts[ctx]
	if !ok {
		return fmt.Errorf("%w: context %d", ErrInvalidHandle, ctx)
	}
	delete(d.contexts, ctx)

	var errs []error
	if ptrs := d.hostBufs.release(ctx); len(ptrs) > 0 {
		err := withContext(cuCtx, func() error {
			var ferrs []error
			for _, p := range ptrs {
				ferrs = append(ferrs, check("cuMemFreeHost", C.cuMemFreeHost(p)))
			}
			return errors.Join(ferrs...)
		})
		errs = append(errs, err)
	}
	errs = append(errs, check("cuCtxDestroy", C.cuCtxDestroy_v2(cuCtx)))
	return errors.Join(errs...)
}

var _ ports.HardwareDecoder = (*Decoder)(nil)
