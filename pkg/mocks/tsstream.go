package mocks

// TSBuilder assembles synthetic MPEG transport streams for tests.
type TSBuilder struct {
	data []byte
	cc   map[uint16]byte
}

// NewTSBuilder creates an empty stream builder.
func NewTSBuilder() *TSBuilder {
	return &TSBuilder{cc: make(map[uint16]byte)}
}

// NoPTS marks a unit without a presentation timestamp.
const NoPTS int64 = -1

// Bytes returns the stream built so far.
func (b *TSBuilder) Bytes() []byte {
	return b.data
}

// Packets returns the number of whole packets built so far.
func (b *TSBuilder) Packets() int {
	return len(b.data) / 188
}

// Packet appends one packet. payload longer than 184 bytes is truncated;
// shorter payloads are padded with adaptation-field stuffing.
func (b *TSBuilder) Packet(pid uint16, unitStart bool, payload []byte) *TSBuilder {
	if len(payload) > 184 {
		payload = payload[:184]
	}

	pkt := make([]byte, 188)
	pkt[0] = 0x47
	pkt[1] = byte(pid>>8) & 0x1F
	if unitStart {
		pkt[1] |= 0x40
	}
	pkt[2] = byte(pid)

	cc := b.cc[pid]
	b.cc[pid] = (cc + 1) & 0x0F

	offset := 4
	if stuff := 184 - len(payload); stuff > 0 {
		pkt[3] = 0x30 | cc
		pkt[4] = byte(stuff - 1)
		if stuff > 1 {
			pkt[5] = 0x00
			for i := 6; i < 4+stuff; i++ {
				pkt[i] = 0xFF
			}
		}
		offset += stuff
	} else {
		pkt[3] = 0x10 | cc
	}
	copy(pkt[offset:], payload)

	b.data = append(b.data, pkt...)
	return b
}

// Raw appends bytes verbatim.
func (b *TSBuilder) Raw(data []byte) *TSBuilder {
	b.data = append(b.data, data...)
	return b
}

// Unit appends a PES unit carrying es, split across as many packets as
// needed. pts < 0 omits the timestamp.
func (b *TSBuilder) Unit(pid uint16, pts int64, es []byte) *TSBuilder {
	pes := append(PESHeader(pts), es...)
	first := true
	for first || len(pes) > 0 {
		n := len(pes)
		if n > 184 {
			n = 184
		}
		b.Packet(pid, first, pes[:n])
		pes = pes[n:]
		first = false
	}
	return b
}

// PESHeader returns a video PES header, with a PTS field when pts >= 0.
func PESHeader(pts int64) []byte {
	if pts < 0 {
		return []byte{0x00, 0x00, 0x01, 0xE0, 0x00, 0x00, 0x80, 0x00, 0x00}
	}
	p := uint64(pts)
	return []byte{
		0x00, 0x00, 0x01, 0xE0, 0x00, 0x00, 0x80, 0x80, 0x05,
		0x21 | byte(p>>29)&0x0E,
		byte(p >> 22),
		byte(p>>14)&0xFE | 0x01,
		byte(p >> 7),
		byte(p<<1)&0xFE | 0x01,
	}
}

// SPS is a baseline profile sequence parameter set for 320x240 progressive
// 4:2:0 video.
var SPS = []byte{0x67, 0x42, 0xC0, 0x1E, 0xDA, 0x05, 0x07, 0xE4}

// PPS is the picture parameter set matching SPS.
var PPS = []byte{0x68, 0xCE, 0x3C, 0x80}

// IDRAccessUnit returns a minimal Annex B access unit: SPS, PPS and one IDR
// slice whose body is filled with tag.
func IDRAccessUnit(tag byte, bodyLen int) []byte {
	au := []byte{0x00, 0x00, 0x00, 0x01}
	au = append(au, SPS...)
	au = append(au, 0x00, 0x00, 0x00, 0x01)
	au = append(au, PPS...)
	au = append(au, 0x00, 0x00, 0x01, 0x65, 0x88)
	for i := 0; i < bodyLen; i++ {
		au = append(au, tag)
	}
	return au
}

// NonIDRAccessUnit returns a minimal access unit holding one non-IDR slice.
func NonIDRAccessUnit(tag byte, bodyLen int) []byte {
	au := []byte{0x00, 0x00, 0x01, 0x41, 0x9A}
	for i := 0; i < bodyLen; i++ {
		au = append(au, tag)
	}
	return au
}
