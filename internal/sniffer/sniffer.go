package sniffer

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/blecap/blecap/internal/observability"
	"github.com/blecap/blecap/internal/protocol"
	"github.com/blecap/blecap/internal/protocol/slip"
)

// Dialer opens the sniffer transport. The worker calls it from the
// connecting state and again after losing a connection.
type Dialer func() (io.ReadWriteCloser, error)

// Config tunes one ingestion worker.
type Config struct {
	FindScanRsp  bool
	FindAux      bool
	ScanCoded    bool
	TemporaryKey byte

	// ChannelBuffer bounds the packet channel; publishes beyond it apply
	// backpressure rather than dropping.
	ChannelBuffer int
	ReadBuffer    int
	// ReadRetryDelay paces the loop after a failed read so a dead device
	// does not spin the worker.
	ReadRetryDelay time.Duration
	Backoff        BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		ChannelBuffer:  256,
		ReadBuffer:     1024,
		ReadRetryDelay: 100 * time.Millisecond,
		Backoff: BackoffConfig{
			InitialDelay: 500 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// Worker pumps sniffer frames from the serial transport to the packet
// channel. One goroutine runs Run; the consumer reads Packets until it is
// closed, and requests shutdown through Stop.
type Worker struct {
	cfg  Config
	dial Dialer
	log  zerolog.Logger
	rng  *rand.Rand

	packets  chan protocol.Packet
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	counter uint16
}

func New(cfg Config, dial Dialer, log zerolog.Logger) *Worker {
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = DefaultConfig().ChannelBuffer
	}
	if cfg.ReadBuffer <= 0 {
		cfg.ReadBuffer = DefaultConfig().ReadBuffer
	}
	return &Worker{
		cfg:     cfg,
		dial:    dial,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		packets: make(chan protocol.Packet, cfg.ChannelBuffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Packets is the worker->consumer channel. It is closed once the worker
// reaches the stopped state, so consumers may range over it.
func (w *Worker) Packets() <-chan protocol.Packet {
	return w.packets
}

// Stop requests a graceful stop. Safe to call more than once and from any
// goroutine; the worker observes it at the next poll point.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Done is closed when the worker has reached the stopped state.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Run drives the connecting -> streaming -> stopped state machine. It
// returns only after a stop request.
func (w *Worker) Run() {
	defer close(w.done)
	defer close(w.packets)

	attempt := 0
	for {
		if w.stopRequested() {
			return
		}
		conn, err := w.dial()
		if err != nil {
			attempt++
			observability.RecordReconnectAttempt()
			delay := NextBackoffDelay(w.cfg.Backoff, attempt, w.rng)
			w.log.Warn().Err(err).Dur("retry_in", delay).Msg("sniffer open failed")
			if !w.sleep(delay) {
				return
			}
			continue
		}
		attempt = 0
		w.log.Info().Msg("sniffer connected")
		w.stream(conn)
		if err := conn.Close(); err != nil {
			w.log.Warn().Err(err).Msg("sniffer close failed")
		}
	}
}

// stream configures the radio, then pumps bytes until a stop request. The
// stop channel is polled once per read iteration: bytes already read in the
// current pass always finish draining through the decoder first.
func (w *Worker) stream(conn io.ReadWriter) {
	commands := [][]byte{
		protocol.EncodeScanFollow(w.cfg.FindScanRsp, w.cfg.FindAux, w.cfg.ScanCoded, w.nextCounter()),
		protocol.EncodeTemporaryKey(w.cfg.TemporaryKey, w.nextCounter()),
	}
	for _, cmd := range commands {
		if _, err := conn.Write(cmd); err != nil {
			w.log.Warn().Err(err).Msg("sniffer command write failed")
		}
	}

	var dec slip.Decoder
	buf := make([]byte, w.cfg.ReadBuffer)
	for {
		if w.stopRequested() {
			return
		}
		n, err := conn.Read(buf)
		if err != nil {
			// Timed-out reads surface as (0, nil); an error means the
			// device is gone. Drop back to the connecting state.
			observability.RecordReadError()
			w.log.Warn().Err(err).Msg("sniffer read failed")
			w.sleep(w.cfg.ReadRetryDelay)
			return
		}
		for _, b := range buf[:n] {
			frame, ok := dec.Feed(b)
			if !ok {
				continue
			}
			pkt := protocol.Decode(frame)
			observability.RecordFrame(pkt.Valid)
			if !pkt.Valid {
				continue
			}
			w.packets <- pkt
			observability.RecordPublish()
		}
	}
}

func (w *Worker) stopRequested() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

// sleep waits for d or a stop request, reporting false on stop.
func (w *Worker) sleep(d time.Duration) bool {
	if d <= 0 {
		return !w.stopRequested()
	}
	select {
	case <-w.stop:
		return false
	case <-time.After(d):
		return true
	}
}

func (w *Worker) nextCounter() uint16 {
	c := w.counter
	w.counter++
	return c
}
