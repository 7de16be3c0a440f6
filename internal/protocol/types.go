package protocol

import "fmt"

// MAC is a Bluetooth device address in conventional display order. The wire
// carries the bytes reversed; the decoder flips them while copying.
type MAC [6]byte

func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Packet is the decode result for one unescaped frame. No field other than
// Valid may be trusted when Valid is false.
type Packet struct {
	Valid           bool
	ProtocolVersion uint8
	PacketCounter   uint16
	PacketID        uint8
	Header          Header
	LinkLayer       LinkLayer
}

// Header carries the per-packet radio metadata from the sniffer firmware.
// Meta holds the packet-id-specific sub-record: *AdvMetadata for
// EventPacketAdvPDU, *DataMetadata for EventPacketDataPDU, nil otherwise.
type Header struct {
	CRCOk        bool
	PHY          uint8
	ChannelIndex uint8
	RSSI         int16
	EventCounter uint16
	DeltaTimeUS  uint32
	Meta         HeaderMeta
}

// HeaderMeta is the discriminated per-packet-type metadata variant.
type HeaderMeta interface {
	isHeaderMeta()
}

// AdvMetadata is the advertising-event sub-record.
type AdvMetadata struct {
	AuxType         uint8
	AddressResolved bool
}

// DataMetadata is the data-event sub-record.
type DataMetadata struct {
	DirectionToPeripheral bool
	Encrypted             bool
	MICOk                 bool
}

func (*AdvMetadata) isHeaderMeta()  {}
func (*DataMetadata) isHeaderMeta() {}

// LinkLayer holds the over-the-air BLE fields. Payload is the
// PDU-type-specific variant: *NonConnInd, *ScanRequest, or nil for PDU types
// decoded only through the link-layer header.
type LinkLayer struct {
	AccessAddress   uint32
	PDUType         uint8
	ChannelSelect   uint8
	TxAddressPublic bool
	RxAddressPublic bool
	Payload         LLPayload
}

// LLPayload is the discriminated per-PDU-type payload variant.
type LLPayload interface {
	isLLPayload()
}

// NonConnInd is a decoded ADV_NONCONN_IND advertisement. ADTypes records
// every AD structure type code seen, in payload order. The optional fields
// hold the last AD structure of that type; the format leaves duplicate
// semantics undefined, so last-write-wins.
type NonConnInd struct {
	AdvertisingMAC   MAC
	ADTypes          []uint8
	Flags            *Flags
	LocalName        *string
	TxPowerLevel     *int8
	ManufacturerData *ManufacturerData
}

// ScanRequest is a decoded SCAN_REQ PDU.
type ScanRequest struct {
	ScanningMAC    MAC
	AdvertisingMAC MAC
}

func (*NonConnInd) isLLPayload()  {}
func (*ScanRequest) isLLPayload() {}

// Flags is the AD type 0x01 discoverability bit set.
type Flags struct {
	LELimitedDiscoverable  bool
	LEGeneralDiscoverable  bool
	BREDRSupport           bool
	SimultaneousController bool
	SimultaneousHost       bool
}

// ManufacturerData is the AD type 0xFF payload.
type ManufacturerData struct {
	CompanyID uint16
	Data      []byte
}
