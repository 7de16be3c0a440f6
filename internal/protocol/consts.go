package protocol

// Target hardware: Nordic nRF52832 running the nRF Sniffer UART firmware.
// Packet ids below are the firmware's UART protocol opcode table; ids the
// firmware emits are events, ids the host sends are requests.
const (
	ProtoVerV1 uint8 = 1
	ProtoVerV2 uint8 = 2
	ProtoVerV3 uint8 = 3

	// HeaderLength is the fixed UART header length byte every frame opens
	// with. The transport has no checksum; this is the integrity check.
	HeaderLength uint8 = 6
)

// UART packet ids.
const (
	ReqFollow               uint8 = 0x00
	EventFollow             uint8 = 0x01
	EventPacketAdvPDU       uint8 = 0x02
	EventConnect            uint8 = 0x05
	EventPacketDataPDU      uint8 = 0x06
	ReqScanCont             uint8 = 0x07
	EventDisconnect         uint8 = 0x09
	SetTemporaryKey         uint8 = 0x0C
	PingReq                 uint8 = 0x0D
	PingResp                uint8 = 0x0E
	SwitchBaudRateReq       uint8 = 0x13
	SwitchBaudRateResp      uint8 = 0x14
	SetAdvChannelHopSeq     uint8 = 0x17
	SetPrivateKey           uint8 = 0x18
	SetLegacyLongTermKey    uint8 = 0x19
	SetSCLongTermKey        uint8 = 0x1A
	ReqVersion              uint8 = 0x1B
	RespVersion             uint8 = 0x1C
	ReqTimestamp            uint8 = 0x1D
	RespTimestamp           uint8 = 0x1E
	SetIdentityResolvingKey uint8 = 0x1F
	GoIdle                  uint8 = 0xFE
)

// Advertising PDU types, Bluetooth Core v5.4 Vol 6 Part B 2.3.
const (
	AdvTypeAdvInd        uint8 = 0x0
	AdvTypeAdvDirectInd  uint8 = 0x1
	AdvTypeAdvNonConnInd uint8 = 0x2
	AdvTypeScanReq       uint8 = 0x3
	AdvTypeScanRsp       uint8 = 0x4
	AdvTypeConnectReq    uint8 = 0x5
	AdvTypeAdvScanInd    uint8 = 0x6
	AdvTypeAdvExtInd     uint8 = 0x7
)

// Auxiliary PDU types reported in the advertising event metadata.
const (
	AuxAdvInd   uint8 = 0
	AuxChainInd uint8 = 1
	AuxSyncInd  uint8 = 2
	AuxScanRsp  uint8 = 3
)

// PHY selector values.
const (
	PHY1M    uint8 = 0
	PHY2M    uint8 = 1
	PHYCoded uint8 = 2
)

// AD structure type codes the decoder recognizes.
const (
	ADTypeFlags            uint8 = 0x01
	ADTypeCompleteName     uint8 = 0x09
	ADTypeTxPowerLevel     uint8 = 0x0A
	ADTypeManufacturerData uint8 = 0xFF
)

// ScanReqPayloadLen is the only legal link-layer payload length for a
// SCAN_REQ PDU: ScanA(6) + AdvA(6), no extension.
const ScanReqPayloadLen = 12
