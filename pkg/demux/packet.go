package demux

type header struct {
	pid           uint16
	unitStart     bool
	payloadOffset int
}

// parseHeader decodes the 4-byte packet header and skips any adaptation
// field. payloadOffset is PacketSize when the packet carries no payload.
func parseHeader(pkt []byte) header {
	h := header{
		pid:           uint16(pkt[1]&0x1F)<<8 | uint16(pkt[2]),
		unitStart:     pkt[1]&0x40 != 0,
		payloadOffset: 4,
	}

	hasAdaptation := pkt[3]&0x20 != 0
	hasPayload := pkt[3]&0x10 != 0

	if hasAdaptation {
		h.payloadOffset = 5 + int(pkt[4])
	}
	if !hasPayload || h.payloadOffset > PacketSize {
		h.payloadOffset = PacketSize
	}
	return h
}

type pesHeader struct {
	pts        uint64
	hasPTS     bool
	dataOffset int
}

// parsePESHeader reads the PES header at the start of a unit's payload.
// ok is false when the payload does not begin with a complete PES header;
// such a unit is never treated as a keyframe.
func parsePESHeader(b []byte) (pesHeader, bool) {
	if len(b) < 9 || b[0] != 0x00 || b[1] != 0x00 || b[2] != 0x01 {
		return pesHeader{}, false
	}

	p := pesHeader{dataOffset: 9 + int(b[8])}
	if p.dataOffset > len(b) {
		return pesHeader{}, false
	}

	if b[7]&0x80 != 0 && len(b) >= 14 {
		p.pts = parsePTS(b[9:14])
		p.hasPTS = true
	}
	return p, true
}

// parsePTS extracts the 33-bit timestamp from the 5-byte marker-bit encoding.
func parsePTS(b []byte) uint64 {
	return uint64(b[0]>>1&0x07)<<30 |
		uint64(b[1])<<22 |
		uint64(b[2]>>1)<<15 |
		uint64(b[3])<<7 |
		uint64(b[4]>>1)
}

// containsStartCode reports whether pkt[from:] holds 00 00 01 followed by a
// byte whose low five bits equal nalType. The search stops at the packet
// end, so a start code split across two packets is not found.
func containsStartCode(pkt []byte, from int, nalType byte) bool {
	for i := from; i+3 < len(pkt); i++ {
		if pkt[i] == 0 && pkt[i+1] == 0 && pkt[i+2] == 1 && pkt[i+3]&0x1F == nalType {
			return true
		}
	}
	return false
}
