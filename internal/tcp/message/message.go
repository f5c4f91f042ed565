package message

import (
	"errors"
	"fmt"
	"sync/atomic"

	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

var (
	ErrShortHeader     = errors.New("message: short header")
	ErrVersionMismatch = errors.New("message: version mismatch")
	ErrMagicMismatch   = errors.New("message: magic mismatch")
	ErrInvalid         = errors.New("message: invalid")
	ErrUnknownType     = errors.New("message: unknown type")
	ErrControlType     = errors.New("message: type does not carry a payload")
	ErrDataType        = errors.New("message: type requires a payload")
	ErrEmptyPayload    = errors.New("message: empty payload")
	ErrPayloadTooLarge = errors.New("message: payload too large")
	ErrNoPayload       = errors.New("message: no payload to decode")
)

var magic atomic.Int32

func init() {
	magic.Store(defs.DefaultMagic)
}

// SetMagic changes the compatibility token expected from peers and
// stamped on outgoing messages.
func SetMagic(v int32) { magic.Store(v) }

// Magic returns the current compatibility token.
func Magic() int32 { return magic.Load() }

// Header is the fixed part of every message. For data messages Value is
// the payload length, for control messages it is an optional integer
// argument such as an id.
type Header struct {
	Version  int32
	Magic    int32
	SenderID int32
	Type     defs.MsgType
	Value    int32
}

// Message is either a *Control or a *Data.
type Message interface {
	Header() Header
	Type() defs.MsgType
	Payload() []byte
	PayloadLen() int
	Route() *Route
	String() string
}

type base struct {
	hdr   Header
	route Route
}

func (b *base) Header() Header       { return b.hdr }
func (b *base) Type() defs.MsgType   { return b.hdr.Type }
func (b *base) Route() *Route        { return &b.route }
func (b *base) SetSenderID(id int32) { b.hdr.SenderID = id }

// Control is a header-only message.
type Control struct {
	base
}

func (c *Control) Payload() []byte { return nil }
func (c *Control) PayloadLen() int { return 0 }

// Value returns the integer argument carried in the header.
func (c *Control) Value() int32 { return c.hdr.Value }

func (c *Control) String() string {
	return fmt.Sprintf("%s(%d) sid=%d", c.hdr.Type, c.hdr.Value, c.hdr.SenderID)
}

// Data carries a non-empty payload.
type Data struct {
	base
	payload []byte
}

func (d *Data) Payload() []byte { return d.payload }
func (d *Data) PayloadLen() int { return len(d.payload) }

func (d *Data) String() string {
	return fmt.Sprintf("%s[%d bytes] sid=%d", d.hdr.Type, len(d.payload), d.hdr.SenderID)
}

func newHeader(t defs.MsgType, value int32) Header {
	return Header{Version: defs.Version, Magic: Magic(), Type: t, Value: value}
}

// NewControl builds a header-only message of type t.
func NewControl(t defs.MsgType, value int32) (*Control, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
	if t.IsData() {
		return nil, fmt.Errorf("%w: %s", ErrDataType, t)
	}
	return &Control{base: base{hdr: newHeader(t, value)}}, nil
}

// NewData builds a payload message of type t. The payload is copied.
func NewData(t defs.MsgType, payload []byte) (*Data, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
	if !t.IsData() {
		return nil, fmt.Errorf("%w: %s", ErrControlType, t)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPayload, t)
	}
	if len(payload) > defs.MaxDataSize {
		return nil, fmt.Errorf("%w: %s %d bytes", ErrPayloadTooLarge, t, len(payload))
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return &Data{base: base{hdr: newHeader(t, int32(len(buf)))}, payload: buf}, nil
}

// New builds a message from a type and an optional payload. A combination
// that breaks the payload rules yields an Invalid control message.
func New(t defs.MsgType, payload []byte) Message {
	if t.IsValid() && !t.IsData() {
		if len(payload) != 0 {
			return Invalid()
		}
		c, _ := NewControl(t, 0)
		return c
	}
	d, err := NewData(t, payload)
	if err != nil {
		return Invalid()
	}
	return d
}

// Invalid returns a fresh MsgInvalid control message.
func Invalid() *Control {
	return &Control{base: base{hdr: newHeader(defs.MsgInvalid, 0)}}
}

// IsInvalid reports whether m is nil or of type MsgInvalid.
func IsInvalid(m Message) bool {
	return m == nil || m.Type() == defs.MsgInvalid
}

// Route holds the destinations of an outbound message and its delivery
// outcome.
type Route struct {
	address    domain.Address
	addresses  []domain.Address
	receiving  bool
	sendFailed atomic.Bool
}

// SetAddress sets the single destination.
func (r *Route) SetAddress(a domain.Address) { r.address = a }

// AddAddress appends a fan-out destination.
func (r *Route) AddAddress(a domain.Address) { r.addresses = append(r.addresses, a) }

// SetAddresses replaces the fan-out destinations.
func (r *Route) SetAddresses(as []domain.Address) {
	r.addresses = append(r.addresses[:0:0], as...)
}

// Targets returns the single destination followed by the fan-out list.
func (r *Route) Targets() []domain.Address {
	out := make([]domain.Address, 0, len(r.addresses)+1)
	if !r.address.IsEmpty() {
		out = append(out, r.address)
	}
	for _, a := range r.addresses {
		if !a.IsEmpty() {
			out = append(out, a)
		}
	}
	return out
}

func (r *Route) IsEmpty() bool { return len(r.Targets()) == 0 }

// SetReceiving marks that the sender expects a reply on the same connection.
func (r *Route) SetReceiving(v bool) { r.receiving = v }
func (r *Route) IsReceiving() bool   { return r.receiving }

// SetSendFailed records a delivery failure. Safe for concurrent use.
func (r *Route) SetSendFailed()      { r.sendFailed.Store(true) }
func (r *Route) WasSendFailed() bool { return r.sendFailed.Load() }
