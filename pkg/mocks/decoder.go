package mocks

import (
	"errors"
	"fmt"

	"github.com/user/fasthumb/pkg/ports"
)

// ErrCallbackAborted is returned by ParseVideoData when a callback fails.
var ErrCallbackAborted = errors.New("mock decoder: callback aborted parsing")

// HardwareDecoder is a stub ports.HardwareDecoder. Its parser treats every
// IDR slice start code in the submitted bytes as one picture and fires
// OnDecode then OnDisplay for it immediately. OnSequence fires before the
// first picture.
type HardwareDecoder struct {
	CodedWidth  int
	CodedHeight int
	// Stride is the surface pitch reported by MapFrame. Defaults to the
	// target width rounded up to 256.
	Stride int
	// Strides overrides Stride for picture n when it has an entry.
	Strides []int
	// Fill returns the value of byte i of the surface for picture n.
	Fill func(picture, i int) byte

	// Errors injects a failure for the named method.
	Errors map[string]error

	// Calls records every method call in order.
	Calls []string

	callbacks ports.DecodeCallbacks
	cfg       ports.ParserConfig
	create    ports.DecoderCreateInfo
	sequenced bool
	pictures  int
	mapped    map[ports.DevicePtr]int
	nextPtr   ports.DevicePtr

	// Copies holds the destination length of each CopyToHost call.
	Copies []int
	// Decoded holds the bitstream handed to each DecodePicture call.
	Decoded [][]byte
	// Created holds the last DecoderCreateInfo.
	Created ports.DecoderCreateInfo
	// Parser holds the last ParserConfig.
	Parser ports.ParserConfig
}

// NewHardwareDecoder creates a stub decoder reporting the given coded size.
func NewHardwareDecoder(codedWidth, codedHeight int) *HardwareDecoder {
	return &HardwareDecoder{
		CodedWidth:  codedWidth,
		CodedHeight: codedHeight,
		Errors:      make(map[string]error),
		mapped:      make(map[ports.DevicePtr]int),
	}
}

func (m *HardwareDecoder) call(name string) error {
	m.Calls = append(m.Calls, name)
	if err := m.Errors[name]; err != nil {
		return err
	}
	return nil
}

func (m *HardwareDecoder) CreateContext() (ports.ContextHandle, error) {
	if err := m.call("CreateContext"); err != nil {
		return 0, err
	}
	return 1, nil
}

func (m *HardwareDecoder) CreateParser(ctx ports.ContextHandle, cfg ports.ParserConfig, callbacks ports.DecodeCallbacks) (ports.ParserHandle, error) {
	if err := m.call("CreateParser"); err != nil {
		return 0, err
	}
	m.callbacks = callbacks
	m.cfg = cfg
	m.Parser = cfg
	return 1, nil
}

func (m *HardwareDecoder) ParseVideoData(parser ports.ParserHandle, packet ports.SourcePacket) error {
	if err := m.call("ParseVideoData"); err != nil {
		return err
	}

	starts := idrStarts(packet.Payload)
	for i, start := range starts {
		end := len(packet.Payload)
		if i+1 < len(starts) {
			end = starts[i+1]
		}

		if !m.sequenced {
			m.sequenced = true
			format := &ports.VideoFormat{
				Codec:        ports.CodecH264,
				CodedWidth:   m.CodedWidth,
				CodedHeight:  m.CodedHeight,
				ChromaFormat: ports.Chroma420,
				Progressive:  true,
			}
			if err := m.callbacks.OnSequence(format); err != nil {
				return fmt.Errorf("%w: %v", ErrCallbackAborted, err)
			}
		}

		surfaces := m.cfg.MaxDecodeSurfaces
		if surfaces <= 0 {
			surfaces = 1
		}
		pic := &ports.PictureParams{
			PictureIndex: m.pictures % surfaces,
			IntraPicture: true,
			Bitstream:    packet.Payload[start:end],
		}
		m.pictures++
		if err := m.callbacks.OnDecode(pic); err != nil {
			return fmt.Errorf("%w: %v", ErrCallbackAborted, err)
		}
		if err := m.callbacks.OnDisplay(&ports.DisplayInfo{PictureIndex: pic.PictureIndex, ProgressiveFrame: true}); err != nil {
			return fmt.Errorf("%w: %v", ErrCallbackAborted, err)
		}
	}
	return nil
}

// idrStarts returns the offsets of every 00 00 01 start code introducing an
// IDR slice with first_mb_in_slice == 0.
func idrStarts(data []byte) []int {
	var starts []int
	for i := 0; i+4 < len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 && data[i+3]&0x1F == 5 && data[i+4]&0x80 != 0 {
			starts = append(starts, i)
		}
	}
	return starts
}

func (m *HardwareDecoder) CreateDecoder(ctx ports.ContextHandle, info ports.DecoderCreateInfo) (ports.DecoderHandle, error) {
	if err := m.call("CreateDecoder"); err != nil {
		return 0, err
	}
	m.create = info
	m.Created = info
	return 1, nil
}

func (m *HardwareDecoder) DecodePicture(decoder ports.DecoderHandle, picture *ports.PictureParams) error {
	if err := m.call("DecodePicture"); err != nil {
		return err
	}
	m.Decoded = append(m.Decoded, picture.Bitstream)
	return nil
}

func (m *HardwareDecoder) stride(picture int) int {
	if picture >= 0 && picture < len(m.Strides) {
		return m.Strides[picture]
	}
	if m.Stride > 0 {
		return m.Stride
	}
	return (m.create.TargetWidth + 255) &^ 255
}

func (m *HardwareDecoder) MapFrame(decoder ports.DecoderHandle, info *ports.DisplayInfo) (ports.DevicePtr, int, error) {
	if err := m.call("MapFrame"); err != nil {
		return 0, 0, err
	}
	m.nextPtr++
	picture := len(m.Decoded) - 1
	m.mapped[m.nextPtr] = picture
	return m.nextPtr, m.stride(picture), nil
}

func (m *HardwareDecoder) UnmapFrame(decoder ports.DecoderHandle, frame ports.DevicePtr) error {
	if err := m.call("UnmapFrame"); err != nil {
		return err
	}
	if _, ok := m.mapped[frame]; !ok {
		return fmt.Errorf("mock decoder: frame %d not mapped", frame)
	}
	delete(m.mapped, frame)
	return nil
}

func (m *HardwareDecoder) CopyToHost(dst []byte, src ports.DevicePtr) error {
	if err := m.call("CopyToHost"); err != nil {
		return err
	}
	picture, ok := m.mapped[src]
	if !ok {
		return fmt.Errorf("mock decoder: frame %d not mapped", src)
	}
	m.Copies = append(m.Copies, len(dst))
	for i := range dst {
		if m.Fill != nil {
			dst[i] = m.Fill(picture, i)
		} else {
			dst[i] = byte(picture*31 + i)
		}
	}
	return nil
}

func (m *HardwareDecoder) AllocHost(size int) ([]byte, error) {
	if err := m.call("AllocHost"); err != nil {
		return nil, err
	}
	return make([]byte, size), nil
}

func (m *HardwareDecoder) FreeHost(buf []byte) error {
	return m.call("FreeHost")
}

func (m *HardwareDecoder) DestroyParser(parser ports.ParserHandle) error {
	return m.call("DestroyParser")
}

func (m *HardwareDecoder) DestroyDecoder(decoder ports.DecoderHandle) error {
	return m.call("DestroyDecoder")
}

func (m *HardwareDecoder) DestroyContext(ctx ports.ContextHandle) error {
	return m.call("DestroyContext")
}

// Mapped returns the number of frames currently mapped.
func (m *HardwareDecoder) Mapped() int {
	return len(m.mapped)
}

// Count returns how many times the named method was called.
func (m *HardwareDecoder) Count(name string) int {
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

var _ ports.HardwareDecoder = (*HardwareDecoder)(nil)
