package protocol

import (
	"encoding/binary"
	"unicode/utf8"
)

// cursor walks one unescaped frame. Reads that run past the end report !ok
// and leave the decode aborted; the caller maps that to Packet.Valid=false.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) next() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	b := c.buf[c.pos]
	c.pos++
	return b, true
}

func (c *cursor) take(n int) ([]byte, bool) {
	if c.remaining() < n {
		return nil, false
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, true
}

func (c *cursor) u16le() (uint16, bool) {
	b, ok := c.take(2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

func (c *cursor) u32le() (uint32, bool) {
	b, ok := c.take(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// mac reads six wire-order address bytes and flips them into display order.
func (c *cursor) mac() (MAC, bool) {
	raw, ok := c.take(6)
	if !ok {
		return MAC{}, false
	}
	var m MAC
	for i, b := range raw {
		m[5-i] = b
	}
	return m, true
}

// Decode interprets one fully delimited, unescaped frame. It never fails with
// an error: any structural problem yields a Packet with Valid=false, and
// consumers discard those without inspecting other fields.
//
// Frame layout (offsets match raw firmware captures, which carry one reserved
// byte after the packet id and one extra byte after the link-layer length —
// see decodeLinkLayer for the latter):
//
//	0     header length, must equal HeaderLength
//	1     payload length (structural only)
//	2     protocol version
//	3-4   packet counter, LE
//	5     packet id
//	6     reserved (board id slot)
//	7     metadata byte
//	8     channel index
//	9     RSSI magnitude
//	10-11 event counter, LE
//	12-15 elapsed microseconds delta, LE
//	16+   link layer
func Decode(frame []byte) Packet {
	var p Packet
	cur := cursor{buf: frame}

	hlen, ok := cur.next()
	if !ok || hlen != HeaderLength {
		return p
	}
	if _, ok := cur.next(); !ok { // payload length, not stored
		return p
	}
	if p.ProtocolVersion, ok = cur.next(); !ok {
		return p
	}
	if p.PacketCounter, ok = cur.u16le(); !ok {
		return p
	}
	if p.PacketID, ok = cur.next(); !ok {
		return p
	}
	if _, ok := cur.next(); !ok { // reserved board id byte
		return p
	}
	if !decodeHeader(&cur, &p) {
		return p
	}
	if !decodeLinkLayer(&cur, &p) {
		return p
	}
	p.Valid = true
	return p
}

func decodeHeader(cur *cursor, p *Packet) bool {
	meta, ok := cur.next()
	if !ok {
		return false
	}
	p.Header.CRCOk = meta&0x01 == 0x01
	p.Header.PHY = (meta >> 4) & 0x07
	switch p.PacketID {
	case EventPacketDataPDU:
		p.Header.Meta = &DataMetadata{
			DirectionToPeripheral: meta&0x02 != 0,
			Encrypted:             meta&0x04 != 0,
			MICOk:                 meta&0x08 != 0,
		}
	case EventPacketAdvPDU:
		p.Header.Meta = &AdvMetadata{
			AuxType:         (meta >> 1) & 0x03,
			AddressResolved: meta&0x08 != 0,
		}
	}

	if p.Header.ChannelIndex, ok = cur.next(); !ok {
		return false
	}
	mag, ok := cur.next()
	if !ok {
		return false
	}
	// The wire carries a positive magnitude; stored RSSI is its negation.
	p.Header.RSSI = -int16(mag)
	if p.Header.EventCounter, ok = cur.u16le(); !ok {
		return false
	}
	p.Header.DeltaTimeUS, ok = cur.u32le()
	return ok
}

func decodeLinkLayer(cur *cursor, p *Packet) bool {
	ll := &p.LinkLayer
	var ok bool
	if ll.AccessAddress, ok = cur.u32le(); !ok {
		return false
	}

	hdr, ok := cur.next()
	if !ok {
		return false
	}
	ll.PDUType = hdr & 0x0F
	ll.ChannelSelect = (hdr >> 5) & 0x01
	ll.TxAddressPublic = hdr&0x40 == 0
	ll.RxAddressPublic = hdr&0x80 == 0

	payloadLen, ok := cur.next()
	if !ok {
		return false
	}
	// Raw captures carry one extra byte between the length and the payload
	// that the documented protocol does not mention. The firmware emits it
	// unconditionally, so consume and discard it here or every following
	// field lands one byte off.
	if _, ok := cur.next(); !ok {
		return false
	}
	if ll.PDUType == AdvTypeScanReq && payloadLen != ScanReqPayloadLen {
		return false
	}

	switch ll.PDUType {
	case AdvTypeAdvNonConnInd:
		msg := &NonConnInd{}
		if msg.AdvertisingMAC, ok = cur.mac(); !ok {
			return false
		}
		budget := int(payloadLen) - 6
		decodeADStructures(cur, msg, budget)
		ll.Payload = msg
	case AdvTypeScanReq:
		msg := &ScanRequest{}
		if msg.ScanningMAC, ok = cur.mac(); !ok {
			return false
		}
		if msg.AdvertisingMAC, ok = cur.mac(); !ok {
			return false
		}
		ll.Payload = msg
	}
	// Other PDU types: payload skipped, not interpreted. Bytes past the
	// declared payload budget are ignored for every PDU type.
	return true
}

// decodeADStructures walks the advertising data TLVs.  budget is the
// link-layer payload length minus the MAC already consumed; the walk is
// bounded by both the budget and the bytes physically left in the frame, so a
// frame cut short mid-payload still decodes (matching firmware tolerance).
func decodeADStructures(cur *cursor, msg *NonConnInd, budget int) {
	for budget > 0 && cur.remaining() > 0 {
		declared, _ := cur.next()
		budget--
		if declared == 0 {
			// Malformed: a zero length cannot cover its own type byte.
			// Stop interpreting; the rest of the budget is opaque.
			return
		}
		if budget <= 0 || cur.remaining() == 0 {
			return
		}
		adType, _ := cur.next()
		budget--
		msg.ADTypes = append(msg.ADTypes, adType)

		valueLen := int(declared) - 1
		n := valueLen
		if n > budget {
			n = budget
		}
		if n > cur.remaining() {
			n = cur.remaining()
		}
		value, _ := cur.take(n)
		budget -= n
		complete := n == valueLen

		switch adType {
		case ADTypeFlags:
			if len(value) > 0 {
				msg.Flags = parseFlags(value[len(value)-1])
			}
		case ADTypeCompleteName:
			if complete && len(value) > 0 && utf8.Valid(value) {
				name := string(value)
				msg.LocalName = &name
			}
		case ADTypeTxPowerLevel:
			if len(value) > 0 {
				level := int8(value[len(value)-1])
				msg.TxPowerLevel = &level
			}
		case ADTypeManufacturerData:
			if complete && len(value) > 0 {
				msg.ManufacturerData = parseManufacturerData(value)
			}
		}
	}
}

func parseFlags(b byte) *Flags {
	return &Flags{
		LELimitedDiscoverable:  b&0x01 != 0,
		LEGeneralDiscoverable:  b&0x02 != 0,
		BREDRSupport:           b&0x04 != 0,
		SimultaneousController: b&0x08 != 0,
		SimultaneousHost:       b&0x10 != 0,
	}
}

func parseManufacturerData(value []byte) *ManufacturerData {
	md := &ManufacturerData{CompanyID: uint16(value[0])}
	if len(value) > 1 {
		md.CompanyID |= uint16(value[1]) << 8
	}
	if len(value) > 2 {
		md.Data = append([]byte(nil), value[2:]...)
	}
	return md
}
