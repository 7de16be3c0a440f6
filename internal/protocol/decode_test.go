package protocol

import (
	"bytes"
	"testing"
)

// rawFrame builds an unescaped advertising-event frame up to the link-layer
// MAC, matching raw firmware captures: reserved byte at offset 6, extra byte
// after the link-layer length at offset 22.
func rawFrame(pduHeader, llLen byte, wireMAC []byte, payload []byte) []byte {
	f := make([]byte, 23)
	f[0] = HeaderLength
	f[2] = ProtoVerV3
	f[5] = EventPacketAdvPDU
	f[20] = pduHeader
	f[21] = llLen
	f = append(f, wireMAC...)
	return append(f, payload...)
}

func nonConnFrame(adPayload []byte) []byte {
	return rawFrame(AdvTypeAdvNonConnInd, byte(6+len(adPayload)), make([]byte, 6), adPayload)
}

func mustNonConn(t *testing.T, p Packet) *NonConnInd {
	t.Helper()
	if !p.Valid {
		t.Fatalf("packet not valid")
	}
	msg, ok := p.LinkLayer.Payload.(*NonConnInd)
	if !ok {
		t.Fatalf("payload is %T, want *NonConnInd", p.LinkLayer.Payload)
	}
	return msg
}

func TestDecodeRejectsBadHeaderLength(t *testing.T) {
	frames := [][]byte{
		{0x05},
		{0x07, 0x00, 0x03},
		append([]byte{0x00}, make([]byte, 40)...),
	}
	for _, f := range frames {
		if p := Decode(f); p.Valid {
			t.Fatalf("frame % X decoded valid", f)
		}
	}
}

func TestDecodeTruncatedFixedRegionInvalid(t *testing.T) {
	full := nonConnFrame(nil)
	for cut := 0; cut < len(full); cut++ {
		if p := Decode(full[:cut]); p.Valid {
			t.Fatalf("truncated frame of %d bytes decoded valid", cut)
		}
	}
	if p := Decode(full); !p.Valid {
		t.Fatalf("full frame did not decode valid")
	}
}

func TestDecodeHeaderFields(t *testing.T) {
	f := nonConnFrame(nil)
	f[2] = ProtoVerV2
	f[3], f[4] = 0x34, 0x12 // packet counter LE
	f[7] = 0x29             // crc ok, aux 0, resolved, coded PHY
	f[8] = 37
	f[9] = 42
	f[10], f[11] = 0x01, 0x02 // event counter LE
	f[12], f[13], f[14], f[15] = 0x10, 0x20, 0x30, 0x40
	f[16], f[17], f[18], f[19] = 0xD6, 0xBE, 0x89, 0x8E

	p := Decode(f)
	if !p.Valid {
		t.Fatalf("packet not valid")
	}
	if p.ProtocolVersion != ProtoVerV2 {
		t.Fatalf("version = %d", p.ProtocolVersion)
	}
	if p.PacketCounter != 0x1234 {
		t.Fatalf("packet counter = %#x", p.PacketCounter)
	}
	if p.PacketID != EventPacketAdvPDU {
		t.Fatalf("packet id = %#x", p.PacketID)
	}
	if !p.Header.CRCOk {
		t.Fatalf("crc not ok")
	}
	if p.Header.PHY != PHYCoded {
		t.Fatalf("phy = %d", p.Header.PHY)
	}
	if p.Header.ChannelIndex != 37 {
		t.Fatalf("channel = %d", p.Header.ChannelIndex)
	}
	if p.Header.RSSI != -42 {
		t.Fatalf("rssi = %d", p.Header.RSSI)
	}
	if p.Header.EventCounter != 0x0201 {
		t.Fatalf("event counter = %#x", p.Header.EventCounter)
	}
	if p.Header.DeltaTimeUS != 0x40302010 {
		t.Fatalf("delta = %#x", p.Header.DeltaTimeUS)
	}
	if p.LinkLayer.AccessAddress != 0x8E89BED6 {
		t.Fatalf("access address = %#x", p.LinkLayer.AccessAddress)
	}
	meta, ok := p.Header.Meta.(*AdvMetadata)
	if !ok {
		t.Fatalf("meta is %T, want *AdvMetadata", p.Header.Meta)
	}
	if meta.AuxType != AuxAdvInd || !meta.AddressResolved {
		t.Fatalf("adv metadata = %+v", meta)
	}
}

func TestDecodeDataMetadata(t *testing.T) {
	f := rawFrame(0, 0, make([]byte, 6), nil)
	f[5] = EventPacketDataPDU
	f[7] = 0x0E // direction, encrypted, mic ok
	p := Decode(f)
	if !p.Valid {
		t.Fatalf("packet not valid")
	}
	meta, ok := p.Header.Meta.(*DataMetadata)
	if !ok {
		t.Fatalf("meta is %T, want *DataMetadata", p.Header.Meta)
	}
	if !meta.DirectionToPeripheral || !meta.Encrypted || !meta.MICOk {
		t.Fatalf("data metadata = %+v", meta)
	}
}

func TestDecodeNoMetadataForOtherPacketIDs(t *testing.T) {
	f := rawFrame(0, 0, make([]byte, 6), nil)
	f[5] = PingResp
	f[7] = 0xFF
	p := Decode(f)
	if !p.Valid {
		t.Fatalf("packet not valid")
	}
	if p.Header.Meta != nil {
		t.Fatalf("meta = %+v, want nil", p.Header.Meta)
	}
}

func TestDecodePDUHeaderBits(t *testing.T) {
	f := rawFrame(AdvTypeAdvNonConnInd|0x20|0x40, 6, make([]byte, 6), nil)
	p := Decode(f)
	ll := p.LinkLayer
	if ll.PDUType != AdvTypeAdvNonConnInd {
		t.Fatalf("pdu type = %#x", ll.PDUType)
	}
	if ll.ChannelSelect != 1 {
		t.Fatalf("channel select = %d", ll.ChannelSelect)
	}
	if ll.TxAddressPublic {
		t.Fatalf("tx address should be random")
	}
	if !ll.RxAddressPublic {
		t.Fatalf("rx address should be public")
	}
}

func TestDecodeMACByteOrder(t *testing.T) {
	f := rawFrame(AdvTypeAdvNonConnInd, 6, []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}, nil)
	msg := mustNonConn(t, Decode(f))
	if got := msg.AdvertisingMAC.String(); got != "66:55:44:33:22:11" {
		t.Fatalf("mac = %s", got)
	}
}

func TestDecodeScanRequest(t *testing.T) {
	scanner := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	advertiser := []byte{0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6}
	f := rawFrame(AdvTypeScanReq, ScanReqPayloadLen, scanner, advertiser)
	p := Decode(f)
	if !p.Valid {
		t.Fatalf("packet not valid")
	}
	msg, ok := p.LinkLayer.Payload.(*ScanRequest)
	if !ok {
		t.Fatalf("payload is %T, want *ScanRequest", p.LinkLayer.Payload)
	}
	if got := msg.ScanningMAC.String(); got != "06:05:04:03:02:01" {
		t.Fatalf("scanning mac = %s", got)
	}
	if got := msg.AdvertisingMAC.String(); got != "A6:A5:A4:A3:A2:A1" {
		t.Fatalf("advertising mac = %s", got)
	}
}

func TestDecodeScanRequestLengthMismatch(t *testing.T) {
	for _, llLen := range []byte{0, 6, 11, 13, 0xFF} {
		f := rawFrame(AdvTypeScanReq, llLen, make([]byte, 6), make([]byte, 6))
		if p := Decode(f); p.Valid {
			t.Fatalf("scan request with payload length %d decoded valid", llLen)
		}
	}
}

func TestDecodeADTypeSequence(t *testing.T) {
	ad := []byte{
		0x02, 0x01, 0x06, // Flags
		0x03, 0x19, 0x00, 0x00, // Appearance (unrecognized)
		0x02, 0x0A, 0x04, // TX power
	}
	msg := mustNonConn(t, Decode(nonConnFrame(ad)))
	want := []uint8{0x01, 0x19, 0x0A}
	if len(msg.ADTypes) != len(want) {
		t.Fatalf("ad types = %v, want %v", msg.ADTypes, want)
	}
	for i := range want {
		if msg.ADTypes[i] != want[i] {
			t.Fatalf("ad types = %v, want %v", msg.ADTypes, want)
		}
	}
}

func TestDecodeFlagsLastWriteWins(t *testing.T) {
	ad := []byte{
		0x02, 0x01, 0x1F,
		0x02, 0x01, 0x02,
	}
	msg := mustNonConn(t, Decode(nonConnFrame(ad)))
	if msg.Flags == nil {
		t.Fatalf("flags not set")
	}
	got := *msg.Flags
	want := Flags{LEGeneralDiscoverable: true}
	if got != want {
		t.Fatalf("flags = %+v, want %+v", got, want)
	}
}

func TestDecodeFlagsBits(t *testing.T) {
	msg := mustNonConn(t, Decode(nonConnFrame([]byte{0x02, 0x01, 0x15})))
	want := Flags{
		LELimitedDiscoverable: true,
		BREDRSupport:          true,
		SimultaneousHost:      true,
	}
	if *msg.Flags != want {
		t.Fatalf("flags = %+v, want %+v", *msg.Flags, want)
	}
}

func TestDecodeCompleteLocalName(t *testing.T) {
	name := "thermo-7"
	ad := append([]byte{byte(1 + len(name)), 0x09}, name...)
	msg := mustNonConn(t, Decode(nonConnFrame(ad)))
	if msg.LocalName == nil || *msg.LocalName != name {
		t.Fatalf("local name = %v", msg.LocalName)
	}
}

func TestDecodeInvalidNameDroppedPacketStaysValid(t *testing.T) {
	ad := []byte{0x03, 0x09, 0xFF, 0xFE} // not UTF-8
	p := Decode(nonConnFrame(ad))
	msg := mustNonConn(t, p)
	if msg.LocalName != nil {
		t.Fatalf("local name = %q, want unset", *msg.LocalName)
	}
	if len(msg.ADTypes) != 1 || msg.ADTypes[0] != 0x09 {
		t.Fatalf("ad types = %v", msg.ADTypes)
	}
}

func TestDecodeTxPowerLevel(t *testing.T) {
	msg := mustNonConn(t, Decode(nonConnFrame([]byte{0x02, 0x0A, 0xF4})))
	if msg.TxPowerLevel == nil || *msg.TxPowerLevel != -12 {
		t.Fatalf("tx power = %v", msg.TxPowerLevel)
	}
}

func TestDecodeManufacturerData(t *testing.T) {
	ad := []byte{0x06, 0xFF, 0x4C, 0x00, 0x02, 0x15, 0x77}
	msg := mustNonConn(t, Decode(nonConnFrame(ad)))
	md := msg.ManufacturerData
	if md == nil {
		t.Fatalf("manufacturer data not set")
	}
	if md.CompanyID != 0x004C {
		t.Fatalf("company id = %#x", md.CompanyID)
	}
	if !bytes.Equal(md.Data, []byte{0x02, 0x15, 0x77}) {
		t.Fatalf("data = % X", md.Data)
	}
}

func TestDecodeZeroLengthADStopsWalk(t *testing.T) {
	ad := []byte{
		0x02, 0x01, 0x06,
		0x00,             // malformed
		0x02, 0x0A, 0x04, // unreachable
	}
	msg := mustNonConn(t, Decode(nonConnFrame(ad)))
	if len(msg.ADTypes) != 1 || msg.ADTypes[0] != 0x01 {
		t.Fatalf("ad types = %v", msg.ADTypes)
	}
	if msg.TxPowerLevel != nil {
		t.Fatalf("tx power parsed past malformed structure")
	}
}

func TestDecodePayloadCutShortStillValid(t *testing.T) {
	// Declared budget covers a name the frame does not fully carry.
	f := rawFrame(AdvTypeAdvNonConnInd, 6+10, make([]byte, 6), []byte{0x09, 0x09, 'p', 'a', 'r'})
	p := Decode(f)
	msg := mustNonConn(t, p)
	if msg.LocalName != nil {
		t.Fatalf("incomplete name should not be set")
	}
	if len(msg.ADTypes) != 1 || msg.ADTypes[0] != 0x09 {
		t.Fatalf("ad types = %v", msg.ADTypes)
	}
}

func TestDecodeTrailingBytesBeyondBudgetIgnored(t *testing.T) {
	ad := append([]byte{0x02, 0x01, 0x06}, 0xDE, 0xAD, 0xBE, 0xEF)
	f := rawFrame(AdvTypeAdvNonConnInd, 6+3, make([]byte, 6), ad)
	msg := mustNonConn(t, Decode(f))
	if len(msg.ADTypes) != 1 {
		t.Fatalf("ad types = %v", msg.ADTypes)
	}
}

func TestDecodeOtherPDUTypesSkipPayload(t *testing.T) {
	f := rawFrame(AdvTypeAdvInd, 10, make([]byte, 6), []byte{1, 2, 3, 4})
	p := Decode(f)
	if !p.Valid {
		t.Fatalf("packet not valid")
	}
	if p.LinkLayer.Payload != nil {
		t.Fatalf("payload = %T, want nil", p.LinkLayer.Payload)
	}
}
