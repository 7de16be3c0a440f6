// Package protocol owns the sniffer UART wire contract.
//
// Ownership boundary:
// - UART header + BLE link-layer cursor decoder
// - AD structure (TLV) parsing
// - outgoing command frame encoding
//
// Framing (SLIP byte stuffing) lives in the slip subpackage.
package protocol
