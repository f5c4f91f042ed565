package domain

import "github.com/google/uuid"

// ClientKind tells what a connection registered as.
type ClientKind int

const (
	ClientUnknown ClientKind = iota
	ClientRender
	ClientMonitor
	ClientTalk
)

func (k ClientKind) String() string {
	switch k {
	case ClientRender:
		return "render"
	case ClientMonitor:
		return "monitor"
	case ClientTalk:
		return "talk"
	default:
		return "unknown"
	}
}

// Address routes outbound messages to a live connection.
type Address struct {
	ConnID uuid.UUID `json:"conn_id"`
	Remote string    `json:"remote"`
}

func (a Address) IsEmpty() bool { return a.ConnID == uuid.Nil }

func (a Address) String() string {
	if a.IsEmpty() {
		return "<none>"
	}
	return a.Remote
}
