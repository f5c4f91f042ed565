package primary

import (
	"context"

	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

// Peer is the client connection a message arrived on.
type Peer interface {
	Address() domain.Address
	// Reply queues m back to this connection.
	Reply(m message.Message) bool
	// Bind records what the connection registered as.
	Bind(kind domain.ClientKind, id int32)
	Client() (domain.ClientKind, int32)
}

// MessageHandler defines an interface for handling different message types
type MessageHandler interface {
	HandleMessage(ctx context.Context, peer Peer, msg message.Message) error
}
