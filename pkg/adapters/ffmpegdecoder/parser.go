package ffmpegdecoder

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/avc"

	"github.com/user/fasthumb/pkg/ports"
)

var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// parser groups NAL units into access units and replays the callback
// sequence a hardware parser would: sequence on a new SPS, decode per
// picture, display once the reorder queue exceeds the display delay.
type parser struct {
	cfg       ports.ParserConfig
	callbacks ports.DecodeCallbacks
	logger    ports.Logger

	sps    []byte
	pps    []byte
	format *ports.VideoFormat

	au        [][]byte
	intra     bool
	timestamp int64

	pictures int
	queue    []ports.DisplayInfo
}

func newParser(cfg ports.ParserConfig, callbacks ports.DecodeCallbacks, logger ports.Logger) *parser {
	return &parser{cfg: cfg, callbacks: callbacks, logger: logger}
}

func (p *parser) parse(pkt ports.SourcePacket) error {
	for _, nalu := range avc.ExtractNalusFromByteStream(pkt.Payload) {
		if len(nalu) == 0 {
			continue
		}
		switch avc.GetNaluType(nalu[0]) {
		case avc.NALU_SPS:
			if err := p.endPicture(); err != nil {
				return err
			}
			p.sps = append([]byte(nil), nalu...)
		case avc.NALU_PPS:
			if err := p.endPicture(); err != nil {
				return err
			}
			p.pps = append([]byte(nil), nalu...)
		case avc.NALU_AUD:
			if err := p.endPicture(); err != nil {
				return err
			}
		case avc.NALU_IDR, avc.NALU_NON_IDR:
			if len(p.au) > 0 && firstMbInSlice(nalu) {
				if err := p.endPicture(); err != nil {
					return err
				}
			}
			if len(p.au) == 0 {
				p.timestamp = pkt.Timestamp
			}
			p.au = append(p.au, nalu)
			if avc.GetNaluType(nalu[0]) == avc.NALU_IDR {
				p.intra = true
			}
		}
	}

	if pkt.Flags&ports.FlagEndOfStream != 0 {
		if err := p.endPicture(); err != nil {
			return err
		}
		return p.flush()
	}
	return nil
}

// firstMbInSlice reports whether the slice starts a new picture.
// first_mb_in_slice is the leading ue(v) field, which is zero exactly when
// its first bit is set.
func firstMbInSlice(nalu []byte) bool {
	return len(nalu) > 1 && nalu[1]&0x80 != 0
}

// endPicture completes the pending access unit, if any.
func (p *parser) endPicture() error {
	if len(p.au) == 0 {
		return nil
	}
	slices := p.au
	intra := p.intra
	p.au = nil
	p.intra = false

	if p.sps == nil || p.pps == nil {
		p.logger.Debug("Skipping picture without parameter sets")
		return nil
	}

	if err := p.sequence(); err != nil {
		return err
	}

	surfaces := p.cfg.MaxDecodeSurfaces
	if surfaces <= 0 {
		surfaces = 1
	}
	picture := &ports.PictureParams{
		PictureIndex: p.pictures % surfaces,
		IntraPicture: intra,
		Bitstream:    p.annexB(slices),
	}
	p.pictures++

	if err := p.callbacks.OnDecode(picture); err != nil {
		return fmt.Errorf("decode callback: %w", err)
	}

	p.queue = append(p.queue, ports.DisplayInfo{
		PictureIndex:     picture.PictureIndex,
		ProgressiveFrame: p.format.Progressive,
		TopFieldFirst:    !p.format.Progressive,
		Timestamp:        p.timestamp,
	})
	for len(p.queue) > p.cfg.MaxDisplayDelay {
		if err := p.display(); err != nil {
			return err
		}
	}
	return nil
}

// sequence announces the stream format when it is first seen or changes.
func (p *parser) sequence() error {
	sps, err := avc.ParseSPSNALUnit(p.sps, false)
	if err != nil {
		return &ports.DecoderError{Op: "parse SPS", Reason: err.Error()}
	}

	// chroma_format_idc is absent below High profile and inferred as 4:2:0.
	chroma := ports.ChromaFormat(sps.ChromaFormatIDC)
	if sps.Profile < 100 && chroma == ports.ChromaMonochrome {
		chroma = ports.Chroma420
	}
	format := ports.VideoFormat{
		Codec:              ports.CodecH264,
		CodedWidth:         int(sps.Width),
		CodedHeight:        int(sps.Height),
		ChromaFormat:       chroma,
		BitDepthLumaMinus8: int(sps.BitDepthLumaMinus8),
		Progressive:        sps.FrameMbsOnlyFlag,
	}
	if p.format != nil && *p.format == format {
		return nil
	}
	p.format = &format

	p.logger.Debug("Sequence %dx%d, chroma %d, bit depth %d", format.CodedWidth, format.CodedHeight, format.ChromaFormat, format.BitDepthLumaMinus8+8)
	if err := p.callbacks.OnSequence(&format); err != nil {
		return fmt.Errorf("sequence callback: %w", err)
	}
	return nil
}

func (p *parser) display() error {
	info := p.queue[0]
	p.queue = p.queue[1:]
	if err := p.callbacks.OnDisplay(&info); err != nil {
		return fmt.Errorf("display callback: %w", err)
	}
	return nil
}

// flush displays every queued picture.
func (p *parser) flush() error {
	for len(p.queue) > 0 {
		if err := p.display(); err != nil {
			return err
		}
	}
	return nil
}

// annexB prefixes the current parameter sets to the slices so every picture
// decodes on its own.
func (p *parser) annexB(slices [][]byte) []byte {
	var buf bytes.Buffer
	for _, nalu := range append([][]byte{p.sps, p.pps}, slices...) {
		buf.Write(startCode)
		buf.Write(nalu)
	}
	return buf.Bytes()
}
