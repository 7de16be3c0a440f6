package console

import (
	"github.com/rs/zerolog"

	"github.com/blecap/blecap/internal/protocol"
)

// deviceRecord is the last rendered state for one advertiser.
type deviceRecord struct {
	name      string
	companyID uint16
	hasMfg    bool
}

// Printer renders decoded packets, one line per advertiser. A device is
// reported when first seen and again whenever its name or manufacturer
// data changes, so a steady advertiser does not flood the output.
type Printer struct {
	log  zerolog.Logger
	seen map[protocol.MAC]deviceRecord
}

func NewPrinter(log zerolog.Logger) *Printer {
	return &Printer{
		log:  log,
		seen: make(map[protocol.MAC]deviceRecord),
	}
}

// Handle renders one packet. Not safe for concurrent use; the pipeline
// delivers packets from a single consumer goroutine.
func (p *Printer) Handle(pkt protocol.Packet) {
	switch msg := pkt.LinkLayer.Payload.(type) {
	case *protocol.NonConnInd:
		p.handleAdvertisement(pkt, msg)
	case *protocol.ScanRequest:
		p.log.Debug().
			Str("scanner", msg.ScanningMAC.String()).
			Str("advertiser", msg.AdvertisingMAC.String()).
			Msg("scan request")
	}
}

func (p *Printer) handleAdvertisement(pkt protocol.Packet, msg *protocol.NonConnInd) {
	rec := deviceRecord{}
	if msg.LocalName != nil {
		rec.name = *msg.LocalName
	}
	if msg.ManufacturerData != nil {
		rec.companyID = msg.ManufacturerData.CompanyID
		rec.hasMfg = true
	}
	if prev, ok := p.seen[msg.AdvertisingMAC]; ok && prev == rec {
		return
	}
	p.seen[msg.AdvertisingMAC] = rec

	evt := p.log.Info().
		Str("mac", msg.AdvertisingMAC.String()).
		Int16("rssi", pkt.Header.RSSI).
		Uint8("channel", pkt.Header.ChannelIndex)
	if rec.name != "" {
		evt = evt.Str("name", rec.name)
	}
	if rec.hasMfg {
		evt = evt.Uint16("company_id", rec.companyID)
	}
	if msg.TxPowerLevel != nil {
		evt = evt.Int8("tx_power", *msg.TxPowerLevel)
	}
	evt.Msg("advertiser")
}
