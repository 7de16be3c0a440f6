// Package sniffer owns the ingestion pipeline.
//
// Ownership boundary:
// - serial connection lifecycle (open, retry with backoff, close)
// - initial scan-follow / temporary-key configuration commands
// - byte pump: serial reads -> slip decoder -> packet decode -> publish
// - cooperative stop, polled once per read iteration
//
// The worker owns the serial handle exclusively; consumers see only the
// packet channel.
package sniffer
