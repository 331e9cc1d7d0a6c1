package server

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/StoreStation/statuscraft/pkg/protocol"
)

// ioTimeout bounds every read and write on a connection's transport.
// Expiry surfaces as an IOError and ends the connection.
const ioTimeout = 5 * time.Second

// Player is the state of one connection, owned exclusively by the
// goroutine serving it — never shared, never locked.
type Player struct {
	Conn      net.Conn
	PeerAddr  net.Addr
	State     protocol.ConnectionState
	Handshake *protocol.HandshakeInfo
}

// handleConnection runs the full lifecycle of one accepted connection:
// read a frame, dispatch it by (state, packet id), repeat until a
// handler says the exchange is done or a non-recoverable error occurs.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	player := &Player{
		// Use the peer's address, not the listener's bound address.
		Conn:     conn,
		PeerAddr: conn.RemoteAddr(),
		State:    protocol.StateHandshaking,
	}
	log := logrus.WithField("peer", player.PeerAddr)

	for {
		conn.SetReadDeadline(time.Now().Add(ioTimeout))
		conn.SetWriteDeadline(time.Now().Add(ioTimeout))

		frame, legacy, err := protocol.ReadFrame(conn, player.State)
		if err != nil {
			logClosure(log, err)
			return
		}
		if legacy {
			if err := s.handleLegacyPing(player); err != nil {
				log.WithError(err).Warn("legacy ping failed")
			}
			return
		}

		done, err := s.dispatch(player, frame, log)
		if err != nil {
			logClosure(log, err)
			return
		}
		if done {
			return
		}
	}
}

func logClosure(log *logrus.Entry, err error) {
	if protocol.IsClosed(err) {
		log.Debug("connection closed")
		return
	}
	log.WithError(err).Warn("connection terminated")
}

// dispatch routes one decoded frame per the connection state machine:
// Handshaking accepts only the handshake packet; Status answers status
// requests and pings (a ping ends the exchange); Login answers
// login-start (which always ends the exchange); Transfer is reachable
// but never advanced further by this server.
func (s *Server) dispatch(player *Player, frame *protocol.Frame, log *logrus.Entry) (done bool, err error) {
	switch player.State {
	case protocol.StateHandshaking:
		if frame.ID != 0 {
			log.WithField("packet_id", frame.ID).Info("ignoring packet before handshake")
			return false, nil
		}
		return false, s.handleHandshake(player, frame)

	case protocol.StateStatus:
		switch frame.ID {
		case 0:
			return false, s.handleStatusRequest(player)
		case 1:
			return true, s.handlePing(player, frame)
		default:
			log.WithField("packet_id", frame.ID).Info("ignoring unknown status packet")
			return false, nil
		}

	case protocol.StateLogin:
		if frame.ID != 0 {
			log.WithField("packet_id", frame.ID).Info("ignoring unknown login packet")
			return false, nil
		}
		return true, s.handleLoginStart(player, frame)

	case protocol.StateTransfer:
		log.WithField("packet_id", frame.ID).Info("ignoring packet in Transfer state")
		return false, nil

	default:
		return true, nil
	}
}

// shutdownBoth closes both halves of the transport when a handler needs
// to abort immediately rather than waiting for the deferred Close in
// handleConnection.
func shutdownBoth(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.CloseRead()
		tcp.CloseWrite()
		return
	}
	conn.Close()
}
