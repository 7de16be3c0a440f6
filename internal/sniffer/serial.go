package sniffer

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// SerialDialer dials the sniffer board over a serial device. A read
// timeout is set on the port so Read returns (0, nil) periodically and the
// worker's stop poll stays responsive even on a silent radio.
func SerialDialer(device string, baudRate int, readTimeout time.Duration) Dialer {
	return func() (io.ReadWriteCloser, error) {
		port, err := serial.Open(device, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", device, err)
		}
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", device, err)
		}
		return port, nil
	}
}
