package secondary

import (
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

// Dispatcher queues an outbound message for its route. It never blocks;
// failures are recorded on the message and reported elsewhere.
type Dispatcher interface {
	Dispatch(m message.Message)
}

// Notifier collects monitor events.
type Notifier interface {
	AddEvent(e domain.Event)
}
