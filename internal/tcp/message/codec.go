package message

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

// Encode writes the header then the payload verbatim.
func Encode(m Message) []byte {
	h := m.Header()
	buf := make([]byte, defs.HeaderSize+m.PayloadLen())
	putHeader(buf, h)
	copy(buf[defs.HeaderSize:], m.Payload())
	return buf
}

func putHeader(buf []byte, h Header) {
	binary.BigEndian.PutUint32(buf[0:4], uint32(h.Version))
	binary.BigEndian.PutUint32(buf[4:8], uint32(h.Magic))
	binary.BigEndian.PutUint32(buf[8:12], uint32(h.SenderID))
	binary.BigEndian.PutUint32(buf[12:16], uint32(h.Type))
	binary.BigEndian.PutUint32(buf[16:20], uint32(h.Value))
}

// DecodeHeader parses and validates a header. The parsed header is
// returned along with the error so callers can report what the peer sent.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < defs.HeaderSize {
		return Header{}, ErrShortHeader
	}
	h := Header{
		Version:  int32(binary.BigEndian.Uint32(buf[0:4])),
		Magic:    int32(binary.BigEndian.Uint32(buf[4:8])),
		SenderID: int32(binary.BigEndian.Uint32(buf[8:12])),
		Type:     defs.MsgType(binary.BigEndian.Uint32(buf[12:16])),
		Value:    int32(binary.BigEndian.Uint32(buf[16:20])),
	}
	if h.Version != defs.Version {
		return h, fmt.Errorf("%w: got %d want %d", ErrVersionMismatch, h.Version, defs.Version)
	}
	if h.Magic != Magic() {
		return h, fmt.Errorf("%w: got %d want %d", ErrMagicMismatch, h.Magic, Magic())
	}
	if !h.Type.IsValid() {
		return h, fmt.Errorf("%w: %w %d", ErrInvalid, ErrUnknownType, int32(h.Type))
	}
	if h.Type.IsData() {
		if h.Value <= 0 {
			return h, fmt.Errorf("%w: %w for %s", ErrInvalid, ErrEmptyPayload, h.Type)
		}
		if h.Value > defs.MaxDataSize {
			return h, fmt.Errorf("%w: %w: %s declares %d bytes", ErrInvalid, ErrPayloadTooLarge, h.Type, h.Value)
		}
	}
	return h, nil
}

// Decode parses a whole message. It never fails: protocol problems come
// back as MsgVersionMismatch, MsgMagicMismatch or MsgInvalid messages.
func Decode(buf []byte) Message {
	h, err := DecodeHeader(buf)
	if err != nil {
		return classify(h, err)
	}
	if !h.Type.IsData() {
		if len(buf) != defs.HeaderSize {
			return Invalid()
		}
		return &Control{base: base{hdr: h}}
	}
	if len(buf) != defs.HeaderSize+int(h.Value) {
		return Invalid()
	}
	payload := make([]byte, h.Value)
	copy(payload, buf[defs.HeaderSize:])
	return &Data{base: base{hdr: h}, payload: payload}
}

// classify turns a header error into the message the connection handler
// acts on. Mismatch messages carry the peer's value so it can be logged.
func classify(h Header, err error) *Control {
	switch {
	case errors.Is(err, ErrVersionMismatch):
		c := &Control{base: base{hdr: newHeader(defs.MsgVersionMismatch, h.Version)}}
		c.hdr.SenderID = h.SenderID
		return c
	case errors.Is(err, ErrMagicMismatch):
		c := &Control{base: base{hdr: newHeader(defs.MsgMagicMismatch, h.Magic)}}
		c.hdr.SenderID = h.SenderID
		return c
	default:
		return Invalid()
	}
}

// Read reads one message from r. Only I/O failures are returned as errors.
// On a classified protocol error the payload is not consumed, the stream
// is no longer framed and the caller is expected to close it.
func Read(r io.Reader) (Message, error) {
	hb := make([]byte, defs.HeaderSize)
	if _, err := io.ReadFull(r, hb); err != nil {
		return nil, err
	}
	h, err := DecodeHeader(hb)
	if err != nil {
		return classify(h, err), nil
	}
	if !h.Type.IsData() {
		return &Control{base: base{hdr: h}}, nil
	}
	payload := make([]byte, h.Value)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read %s payload: %w", h.Type, err)
	}
	return &Data{base: base{hdr: h}, payload: payload}, nil
}

// Write encodes m onto w in a single write.
func Write(w io.Writer, m Message) error {
	if _, err := w.Write(Encode(m)); err != nil {
		return fmt.Errorf("write %s: %w", m.Type(), err)
	}
	return nil
}
