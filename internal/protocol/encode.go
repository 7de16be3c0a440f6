package protocol

import "github.com/blecap/blecap/internal/protocol/slip"

// encodeCommand builds one outgoing request frame: the standard six byte
// header (fixed header length, payload length, protocol version 1, LE packet
// counter, packet id) followed by the payload, all SLIP framed.
func encodeCommand(id uint8, payload []byte, counter uint16) []byte {
	raw := make([]byte, 0, 6+len(payload))
	raw = append(raw,
		HeaderLength,
		uint8(len(payload)),
		ProtoVerV1,
		uint8(counter&0xFF),
		uint8(counter>>8),
		id,
	)
	raw = append(raw, payload...)
	return slip.Encode(raw)
}

// EncodeScanFollow builds the REQ_SCAN_CONT command. The flag byte packs
// "report scan responses", "follow auxiliary PDUs" and "scan on coded PHY"
// into bits 0-2.
func EncodeScanFollow(findScanRsp, findAux, scanCoded bool, counter uint16) []byte {
	var flags uint8
	if findScanRsp {
		flags |= 1 << 0
	}
	if findAux {
		flags |= 1 << 1
	}
	if scanCoded {
		flags |= 1 << 2
	}
	return encodeCommand(ReqScanCont, []byte{flags}, counter)
}

// EncodeTemporaryKey builds the SET_TEMPORARY_KEY command. The firmware takes
// a 16 byte key; the sniffer always sends an all-equal block.
func EncodeTemporaryKey(tk byte, counter uint16) []byte {
	payload := make([]byte, 16)
	for i := range payload {
		payload[i] = tk
	}
	return encodeCommand(SetTemporaryKey, payload, counter)
}

// EncodePing builds the PING_REQ command (empty payload).
func EncodePing(counter uint16) []byte {
	return encodeCommand(PingReq, nil, counter)
}

// EncodeVersionReq builds the REQ_VERSION command (empty payload).
func EncodeVersionReq(counter uint16) []byte {
	return encodeCommand(ReqVersion, nil, counter)
}
