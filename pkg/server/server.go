// Package server implements the connection state machine and packet
// handlers of the status/login protocol engine: accept a connection,
// dispatch packets by (state, packet id), and tear it down on any
// error or graceful close.
package server

import (
	"net"

	"github.com/sirupsen/logrus"

	"github.com/StoreStation/statuscraft/pkg/config"
)

// Server listens for connections and serves the handshake/status/login
// exchange against a live config.Store snapshot.
type Server struct {
	addr     string
	store    *config.Store
	listener net.Listener
	stopCh   chan struct{}
}

// New creates a Server bound to addr once Start is called, serving
// responses built from store's current snapshot.
func New(addr string, store *config.Store) *Server {
	return &Server{
		addr:   addr,
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start binds the listener and begins accepting connections in the
// background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	logrus.WithField("addr", ln.Addr().String()).Info("listening")
	go s.acceptLoop()
	return nil
}

// Addr returns the address the listener actually bound to (useful when
// addr was ":0").
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener. In-flight connection handlers are left to
// expire via their own read/write timeouts — there is no external
// cancellation channel for an individual connection.
func (s *Server) Stop() {
	close(s.stopCh)
	if s.listener != nil {
		s.listener.Close()
	}
}

// StopChan is closed once Stop has been called, for callers that want
// to select on server shutdown.
func (s *Server) StopChan() <-chan struct{} {
	return s.stopCh
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				logrus.WithError(err).Warn("accept error")
				continue
			}
		}
		go s.handleConnection(conn)
	}
}
