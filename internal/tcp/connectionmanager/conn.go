package connectionmanager

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gitlab.com/renderfarm.net/internal/adapter/metrics"
	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

// FailureHandler is told about every message a connection failed to send.
type FailureHandler func(m message.Message, addr domain.Address, err error)

var _ primary.Peer = (*Connection)(nil)

// Connection is one client socket with its outbound queue. A single writer
// goroutine owns writes to the socket.
type Connection struct {
	id     uuid.UUID
	conn   net.Conn
	remote string
	out    chan message.Message
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	broken atomic.Bool

	mu       sync.Mutex
	kind     domain.ClientKind
	clientID int32

	writeTimeout time.Duration
	onFailure    FailureHandler
	logger       primary.Logger
}

func newConnection(conn net.Conn, outboxSize int, onFailure FailureHandler, logger primary.Logger) *Connection {
	if outboxSize < 1 {
		outboxSize = 1
	}
	c := &Connection{
		id:           uuid.New(),
		conn:         conn,
		remote:       conn.RemoteAddr().String(),
		out:          make(chan message.Message, outboxSize),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		writeTimeout: defs.WriteTimeout,
		onFailure:    onFailure,
		logger:       logger,
	}
	go c.writeLoop()
	return c
}

func (c *Connection) ID() uuid.UUID { return c.id }
func (c *Connection) Conn() net.Conn { return c.conn }

// Address is the routing identity of the connection
func (c *Connection) Address() domain.Address {
	return domain.Address{ConnID: c.id, Remote: c.remote}
}

// Bind records what the client registered as
func (c *Connection) Bind(kind domain.ClientKind, id int32) {
	c.mu.Lock()
	c.kind, c.clientID = kind, id
	c.mu.Unlock()
}

// Client returns the bound client kind and id
func (c *Connection) Client() (domain.ClientKind, int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind, c.clientID
}

// Enqueue queues m for the writer without blocking. It fails once the
// connection is closed or a write on it failed.
func (c *Connection) Enqueue(m message.Message) error {
	if c.broken.Load() {
		return errs.ErrConnectionClosed
	}
	select {
	case <-c.quit:
		return errs.ErrConnectionClosed
	default:
	}
	select {
	case c.out <- m:
		return nil
	default:
		return errs.ErrOutboxFull
	}
}

// Reply sends m back on this connection
func (c *Connection) Reply(m message.Message) bool {
	m.Route().SetAddress(c.Address())
	if err := c.Enqueue(m); err != nil {
		c.fail(m, err)
		return false
	}
	return true
}

func (c *Connection) fail(m message.Message, err error) {
	m.Route().SetSendFailed()
	if c.onFailure != nil {
		c.onFailure(m, c.Address(), err)
	}
}

func (c *Connection) writeLoop() {
	defer close(c.done)
	for {
		select {
		case m := <-c.out:
			if !c.write(m) {
				c.dropQueued()
				return
			}
		case <-c.quit:
			// flush what was queued before the close
			for {
				select {
				case m := <-c.out:
					if !c.write(m) {
						c.dropQueued()
						return
					}
				default:
					return
				}
			}
		}
	}
}

// dropQueued reports messages left in the outbox after the writer stopped.
func (c *Connection) dropQueued() {
	for {
		select {
		case m := <-c.out:
			c.fail(m, errs.ErrConnectionClosed)
		default:
			return
		}
	}
}

func (c *Connection) write(m message.Message) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		c.broken.Store(true)
		c.fail(m, err)
		return false
	}
	if err := message.Write(c.conn, m); err != nil {
		c.logger.Error("Failed to write message", "conn", c.id, "remote", c.remote, "type", m.Type().String(), "error", err)
		c.broken.Store(true)
		c.fail(m, err)
		_ = c.conn.Close()
		return false
	}
	return true
}

// Close stops accepting messages, lets the writer drain the queue and
// closes the socket.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		close(c.quit)
		select {
		case <-c.done:
		case <-time.After(c.writeTimeout):
			c.logger.Warn("Connection writer did not drain in time", "conn", c.id, "remote", c.remote)
		}
		err = c.conn.Close()
	})
	return err
}

// ConnectionManager tracks client connections by id
type ConnectionManager struct {
	Connections map[uuid.UUID]*Connection
	ConnMutex   sync.RWMutex
	Logger      primary.Logger
	outboxSize  int
	onFailure   FailureHandler
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(logger primary.Logger, outboxSize int) *ConnectionManager {
	return &ConnectionManager{
		Connections: make(map[uuid.UUID]*Connection),
		Logger:      logger,
		outboxSize:  outboxSize,
	}
}

// SetFailureHandler sets where write failures of new connections go
func (cm *ConnectionManager) SetFailureHandler(fn FailureHandler) {
	cm.ConnMutex.Lock()
	cm.onFailure = fn
	cm.ConnMutex.Unlock()
}

// Add starts tracking a socket
func (cm *ConnectionManager) Add(conn net.Conn) *Connection {
	cm.ConnMutex.Lock()
	c := newConnection(conn, cm.outboxSize, cm.onFailure, cm.Logger)
	cm.Connections[c.id] = c
	cm.ConnMutex.Unlock()
	metrics.RecordConnectionOpened()
	return c
}

// Get returns the connection for an id
func (cm *ConnectionManager) Get(id uuid.UUID) (*Connection, bool) {
	cm.ConnMutex.RLock()
	defer cm.ConnMutex.RUnlock()
	c, ok := cm.Connections[id]
	return c, ok
}

// Remove closes a connection and forgets it
func (cm *ConnectionManager) Remove(id uuid.UUID) {
	cm.ConnMutex.Lock()
	c, ok := cm.Connections[id]
	delete(cm.Connections, id)
	cm.ConnMutex.Unlock()
	if !ok {
		return
	}
	metrics.RecordConnectionClosed()
	if err := c.Close(); err != nil {
		cm.Logger.Debug("Connection close", "conn", id, "error", err)
	}
}

// CloseAll closes every connection
func (cm *ConnectionManager) CloseAll() {
	cm.ConnMutex.RLock()
	ids := make([]uuid.UUID, 0, len(cm.Connections))
	for id := range cm.Connections {
		ids = append(ids, id)
	}
	cm.ConnMutex.RUnlock()
	for _, id := range ids {
		cm.Remove(id)
	}
}

// Count returns the number of open connections
func (cm *ConnectionManager) Count() int {
	cm.ConnMutex.RLock()
	defer cm.ConnMutex.RUnlock()
	return len(cm.Connections)
}
