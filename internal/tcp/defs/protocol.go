package defs

import "time"

// Protocol constants
const (
	// Version is the protocol version this server speaks. Peers with a
	// different version get MsgVersionMismatch.
	Version int32 = 2

	// DefaultMagic is the compatibility token used until MsgMagicNumber
	// changes it.
	DefaultMagic int32 = 1

	// HeaderSize is five big endian int32 fields: version, magic, sender
	// id, type and value (payload length for data messages).
	HeaderSize = 20

	// MaxDataSize bounds the payload a header may declare.
	MaxDataSize = 1 << 24

	// Configuration constants
	InitialRegistrationTimeout = 30 * time.Second
	ConnectionRetryDelay       = 1 * time.Second
	WriteTimeout               = 10 * time.Second
)
