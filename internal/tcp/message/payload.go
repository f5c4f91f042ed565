package message

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

// encMode uses Core Deterministic Encoding so equal payloads encode to
// equal bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("message: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("message: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v as the payload of a new data message of type t.
func Marshal(t defs.MsgType, v any) (*Data, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return NewData(t, b)
}

// Unmarshal decodes the payload of m into v.
func Unmarshal(m Message, v any) error {
	if m == nil || m.PayloadLen() == 0 {
		return ErrNoPayload
	}
	if err := decMode.Unmarshal(m.Payload(), v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type(), err)
	}
	return nil
}
