// Package slip implements the sniffer UART byte-stuffing framing.
//
// Frames are delimited by distinguished START and END bytes. A payload byte
// that collides with START, END or ESC travels as ESC followed by the value
// plus one; the decoder maps the escape code back to the literal.
package slip

// Framing byte values from the sniffer UART protocol.
const (
	Start byte = 0xAB
	End   byte = 0xBC
	Esc   byte = 0xCD

	escStart = Start + 1
	escEnd   = End + 1
	escEsc   = Esc + 1
)

// Encode wraps payload in START/END delimiters, escaping every literal
// START, END and ESC byte inside it. Encoding is total: any payload is legal.
func Encode(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+2)
	out = append(out, Start)
	for _, b := range payload {
		switch b {
		case Start, End, Esc:
			out = append(out, Esc, b+1)
		default:
			out = append(out, b)
		}
	}
	return append(out, End)
}

// Decoder extracts delimited, unescaped frames from a continuous byte
// stream. State persists across calls, so a frame may span any number of
// underlying reads. The zero value is ready to use.
//
// The decoder imposes no frame length limit; the caller bounds buffer
// growth by resetting between devices.
type Decoder struct {
	inFrame bool
	escaped bool
	buf     []byte
}

// Feed consumes one stream byte. When b completes a frame, Feed returns the
// unescaped payload and true; the returned slice is owned by the caller.
// Bytes ahead of the first START are discarded.
func (d *Decoder) Feed(b byte) ([]byte, bool) {
	if !d.inFrame {
		if b == Start {
			d.inFrame = true
			d.escaped = false
			d.buf = d.buf[:0]
		}
		return nil, false
	}

	if d.escaped {
		d.escaped = false
		switch b {
		case escStart:
			d.buf = append(d.buf, Start)
		case escEnd:
			d.buf = append(d.buf, End)
		case escEsc:
			d.buf = append(d.buf, Esc)
		default:
			d.buf = append(d.buf, b)
		}
		return nil, false
	}

	switch b {
	case End:
		d.inFrame = false
		frame := make([]byte, len(d.buf))
		copy(frame, d.buf)
		d.buf = d.buf[:0]
		return frame, true
	case Esc:
		d.escaped = true
		return nil, false
	default:
		d.buf = append(d.buf, b)
		return nil, false
	}
}

// Reset drops any partial frame and returns to the awaiting-start state.
func (d *Decoder) Reset() {
	d.inFrame = false
	d.escaped = false
	d.buf = d.buf[:0]
}
