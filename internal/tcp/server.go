// package internal
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"gitlab.com/renderfarm.net/internal/adapter/metrics"
	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/connectionmanager"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/handlers"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

const defaultOutboxSize = 256

// TCPServer handles TCP connections from renders, monitors and tools
type TCPServer struct {
	address             string
	engine              handlers.Engine
	logger              primary.Logger
	listener            net.Listener
	connectionMgr       *connectionmanager.ConnectionManager
	registrationTimeout time.Duration
	handlers            map[defs.MsgType]primary.MessageHandler

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// TCPServerOption configures a TCPServer
type TCPServerOption func(*TCPServer)

// WithAddress sets the server address
func WithAddress(address string) TCPServerOption {
	return func(s *TCPServer) {
		s.address = address
	}
}

// WithConnectionManager shares a connection manager with the dispatcher
func WithConnectionManager(cm *connectionmanager.ConnectionManager) TCPServerOption {
	return func(s *TCPServer) {
		s.connectionMgr = cm
	}
}

// WithRegistrationTimeout bounds how long an unregistered connection may
// stay silent
func WithRegistrationTimeout(d time.Duration) TCPServerOption {
	return func(s *TCPServer) {
		s.registrationTimeout = d
	}
}

// NewTCPServer creates a new TCP server
func NewTCPServer(engine handlers.Engine, logger primary.Logger, options ...TCPServerOption) *TCPServer {
	ctx, cancel := context.WithCancel(context.Background())
	server := &TCPServer{
		address:             ":9000", // Default address
		engine:              engine,
		logger:              logger,
		registrationTimeout: defs.InitialRegistrationTimeout,
		ctx:                 ctx,
		cancel:              cancel,
	}

	// Apply options
	for _, option := range options {
		option(server)
	}
	if server.connectionMgr == nil {
		server.connectionMgr = connectionmanager.NewConnectionManager(logger, defaultOutboxSize)
	}

	// Register message handlers
	server.setupMessageHandlers()

	return server
}

// setupMessageHandlers registers all message handlers
func (s *TCPServer) setupMessageHandlers() {
	renderList := &handlers.RendersListHandler{Engine: s.engine, Logger: s.logger}
	renderInfo := &handlers.RenderInfoHandler{Engine: s.engine, Logger: s.logger}
	taskUpdate := &handlers.TaskUpdateHandler{Engine: s.engine, Logger: s.logger}
	subscribe := &handlers.MonitorSubscribeHandler{Engine: s.engine, Logger: s.logger}
	jobIDs := &handlers.MonitorJobIDsHandler{Engine: s.engine, Logger: s.logger}
	confirm := &handlers.ConfirmHandler{}

	s.handlers = map[defs.MsgType]primary.MessageHandler{
		defs.MsgNull:                    confirm,
		defs.MsgConfirm:                 confirm,
		defs.MsgMagicNumber:             &handlers.MagicNumberHandler{Logger: s.logger},
		defs.MsgRenderRegister:          &handlers.RenderRegistrationHandler{Engine: s.engine, Logger: s.logger},
		defs.MsgRenderUpdate:            &handlers.RenderUpdateHandler{Engine: s.engine, Logger: s.logger},
		defs.MsgRenderDeregister:        &handlers.RenderDeregisterHandler{Engine: s.engine, Logger: s.logger},
		defs.MsgTaskUpdateState:         taskUpdate,
		defs.MsgTaskUpdatePercent:       taskUpdate,
		defs.MsgRendersListRequest:      renderList,
		defs.MsgRendersListRequestIds:   renderList,
		defs.MsgRendersUpdateRequestIds: renderList,
		defs.MsgRenderLogRequestId:      renderInfo,
		defs.MsgRenderTasksLogRequestId: renderInfo,
		defs.MsgRenderInfoRequestId:     renderInfo,
		defs.MsgMonitorRegister:         &handlers.MonitorRegistrationHandler{Engine: s.engine, Logger: s.logger},
		defs.MsgMonitorDeregister:       &handlers.MonitorDeregisterHandler{Engine: s.engine, Logger: s.logger},
		defs.MsgMonitorSubscribe:        subscribe,
		defs.MsgMonitorUnsubscribe:      subscribe,
		defs.MsgMonitorJobsIdsAdd:       jobIDs,
		defs.MsgMonitorJobsIdsSet:       jobIDs,
		defs.MsgMonitorJobsIdsDel:       jobIDs,
		defs.MsgMonitorsListRequest:     &handlers.MonitorsListHandler{Engine: s.engine, Logger: s.logger},
		defs.MsgJobRegister:             &handlers.JobRegistrationHandler{Engine: s.engine, Logger: s.logger},
		defs.MsgJobDelete:               &handlers.JobDeleteHandler{Engine: s.engine, Logger: s.logger},
	}

	action := &handlers.RenderActionHandler{Engine: s.engine, Logger: s.logger}
	for _, t := range handlers.RenderActionTypes {
		s.handlers[t] = action
	}
}

// ConnectionManager returns the connections of the server
func (s *TCPServer) ConnectionManager() *connectionmanager.ConnectionManager {
	return s.connectionMgr
}

// Start starts the TCP server
func (s *TCPServer) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}
	s.Serve(listener)
	return nil
}

// Serve accepts connections on an existing listener
func (s *TCPServer) Serve(listener net.Listener) {
	s.listener = listener
	s.logger.Info("TCP server listening", "address", listener.Addr().String())

	// Accept connections in a goroutine
	s.wg.Add(1)
	go s.acceptConnections()
}

// Addr returns the listening address once started
func (s *TCPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops accepting, closes every connection and waits for the
// connection goroutines until ctx is done
func (s *TCPServer) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.cancel()

		// Close listener
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				s.logger.Error("Failed to close listener", "error", err)
			}
		}

		// Close all connections
		s.connectionMgr.CloseAll()
	})

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *TCPServer) stopping() bool {
	return s.ctx.Err() != nil
}

// acceptConnections accepts incoming connections
func (s *TCPServer) acceptConnections() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				return
			}
			s.logger.Error("Failed to accept connection", "error", err)
			time.Sleep(defs.ConnectionRetryDelay) // Avoid tight loop on error
			continue
		}

		// Handle connection in a goroutine
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.HandleConnection(conn)
		}()
	}
}

// HandleConnection reads and routes messages until the peer goes away
// or sends something the server cannot frame.
func (s *TCPServer) HandleConnection(conn net.Conn) {
	c := s.connectionMgr.Add(conn)
	defer s.disconnect(c)

	for {
		// Unregistered connections have to speak up in time
		if kind, _ := c.Client(); kind == domain.ClientUnknown {
			_ = conn.SetReadDeadline(time.Now().Add(s.registrationTimeout))
		} else {
			_ = conn.SetReadDeadline(time.Time{})
		}

		msg, err := message.Read(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && !s.stopping() {
				s.logger.Warn("Failed to read message", "remote", c.Address().String(), "error", err)
			}
			return
		}
		metrics.RecordMessageReceived(msg.Type())

		switch msg.Type() {
		case defs.MsgVersionMismatch:
			s.logger.Warn("Protocol version mismatch", "remote", c.Address().String(),
				"version", msg.Header().Value, "expected", defs.Version)
			s.replyControl(c, defs.MsgVersionMismatch, defs.Version)
			return
		case defs.MsgMagicMismatch:
			s.logger.Warn("Magic number mismatch", "remote", c.Address().String(), "magic", msg.Header().Value)
			s.replyControl(c, defs.MsgMagicMismatch, 0)
			return
		case defs.MsgInvalid:
			s.logger.Warn("Invalid message", "remote", c.Address().String())
			return
		}

		handler, exists := s.handlers[msg.Type()]
		if !exists {
			s.logger.Warn("Unknown message type", "type", msg.Type().String(), "remote", c.Address().String())
			continue
		}

		if err := handler.HandleMessage(s.ctx, c, msg); err != nil {
			if errors.Is(err, errs.ErrEngineStopped) || s.stopping() {
				return
			}
			s.logger.Error("Error handling message", "type", msg.Type().String(), "remote", c.Address().String(), "error", err)
			return
		}
	}
}

func (s *TCPServer) replyControl(c *connectionmanager.Connection, t defs.MsgType, value int32) {
	if m, err := message.NewControl(t, value); err == nil {
		c.Reply(m)
	}
}

// disconnect takes the client of a closed connection offline and forgets
// the connection
func (s *TCPServer) disconnect(c *connectionmanager.Connection) {
	defer s.connectionMgr.Remove(c.ID())

	kind, id := c.Client()
	addr := c.Address()
	var fn func()
	switch kind {
	case domain.ClientRender:
		fn = func() { s.engine.Renders().DeregisterAddress(id, addr) }
	case domain.ClientMonitor:
		fn = func() { s.engine.Monitors().DeregisterAddress(id, addr) }
	default:
		return
	}
	s.logger.Info("Client disconnected", "kind", kind.String(), "id", id, "remote", addr.String())

	if err := s.engine.Post(context.Background(), fn); err != nil {
		s.logger.Debug("Disconnect not applied", "kind", kind.String(), "id", id, "error", err)
	}
}
