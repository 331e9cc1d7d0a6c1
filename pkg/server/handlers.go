package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/StoreStation/statuscraft/pkg/protocol"
)

// handleHandshake decodes the handshake packet, stores its fields on
// the connection, and advances the state machine per the intent field.
func (s *Server) handleHandshake(player *Player, frame *protocol.Frame) error {
	r := bytes.NewReader(frame.Body)

	protocolVersion, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return err
	}
	addr, err := protocol.ReadString(r)
	if err != nil {
		return err
	}
	port, err := protocol.ReadUint16(r)
	if err != nil {
		return err
	}
	intent, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return err
	}

	nextState, err := protocol.StateFromIntent(intent)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"peer":   player.PeerAddr,
			"intent": intent,
		}).Warn("invalid handshake intent")
		return err
	}

	player.Handshake = &protocol.HandshakeInfo{
		Protocol:   uint16(protocolVersion),
		ServerAddr: addr,
		ServerPort: port,
	}
	player.State = nextState
	return nil
}

// statusResponse mirrors the JSON shape from the status response
// design: field order here is the emission order (not semantically
// required, but kept for parity with real server listings).
type statusResponse struct {
	Version            statusVersion `json:"version"`
	Players            statusPlayers `json:"players"`
	Description        interface{}   `json:"description"`
	Favicon            *string       `json:"favicon"`
	EnforcesSecureChat bool          `json:"enforcesSecureChat"`
}

type statusVersion struct {
	Name     string `json:"name"`
	Protocol uint16 `json:"protocol"`
}

type statusPlayers struct {
	Max    int32          `json:"max"`
	Online int32          `json:"online"`
	Sample []statusSample `json:"sample"`
}

type statusSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// resolveProtocol implements the fallback chain: configured protocol,
// else the protocol captured during handshake, else 127.
func resolveProtocol(configured *uint16, player *Player) uint16 {
	if configured != nil {
		return *configured
	}
	if player.Handshake != nil {
		return player.Handshake.Protocol
	}
	return 127
}

// motdValue attempts to parse motd as a JSON chat component; on failure,
// or when motd plainly isn't JSON, it is embedded as a plain string. The
// leading-character gate keeps a numeric-looking MOTD like "123" a JSON
// string instead of silently becoming the JSON number 123.
func motdValue(motd string) interface{} {
	if len(motd) == 0 {
		return motd
	}
	switch motd[0] {
	case '[', '{':
		var v interface{}
		if err := json.Unmarshal([]byte(motd), &v); err == nil {
			return v
		}
	}
	return motd
}

func (s *Server) handleStatusRequest(player *Player) error {
	snap := s.store.Current()
	cfg := snap.Config

	sample := make([]statusSample, len(cfg.PlayerList))
	for i, entry := range cfg.PlayerList {
		sample[i] = statusSample{Name: entry.Name, ID: entry.UUID.String()}
	}

	var favicon *string
	if snap.HasIcon {
		f := "data:image/png;base64," + snap.Icon
		favicon = &f
	}

	resp := statusResponse{
		Version: statusVersion{
			Name:     cfg.Version,
			Protocol: resolveProtocol(cfg.Protocol, player),
		},
		Players: statusPlayers{
			Max:    cfg.MaxPlayers,
			Online: cfg.OnlinePlayers,
			Sample: sample,
		},
		Description:        motdValue(cfg.MOTD),
		Favicon:            favicon,
		EnforcesSecureChat: false,
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	var payload bytes.Buffer
	if err := protocol.WriteString(&payload, string(body)); err != nil {
		return err
	}
	return protocol.WritePacket(player.Conn, 0x00, payload.Bytes())
}

func (s *Server) handlePing(player *Player, frame *protocol.Frame) error {
	r := bytes.NewReader(frame.Body)
	token, err := protocol.ReadInt64(r)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	protocol.WriteInt64(&body, token)
	return protocol.WritePacket(player.Conn, 0x01, body.Bytes())
}

const maxLoginNameLen = 16

func (s *Server) handleLoginStart(player *Player, frame *protocol.Frame) error {
	r := bytes.NewReader(frame.Body)

	nameLen, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return err
	}
	if nameLen <= 0 || nameLen > maxLoginNameLen {
		logrus.WithFields(logrus.Fields{
			"peer":     player.PeerAddr,
			"name_len": nameLen,
		}).Warn("rejecting login with invalid name length")
		shutdownBoth(player.Conn)
		return &protocol.PacketError{Kind: protocol.KindDataError, Bytes: []byte(fmt.Sprintf("%d", nameLen))}
	}

	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return &protocol.PacketError{Kind: protocol.KindIOError, Bytes: nil}
	}
	if !utf8.Valid(nameBuf) {
		return &protocol.PacketError{Kind: protocol.KindInvalidString, Bytes: nameBuf}
	}
	name := string(nameBuf)

	if _, err := protocol.ReadUUID(r); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"peer": player.PeerAddr, "name": name}).Info("login rejected")

	snap := s.store.Current()
	kick := kickMessage(snap.Config.KickMessage)

	var payload bytes.Buffer
	if err := protocol.WriteString(&payload, kick); err != nil {
		return err
	}
	return protocol.WritePacket(player.Conn, 0x00, payload.Bytes())
}

// kickMessage returns the configured kick text as-is if it already
// parses as JSON (a chat component), or wraps it as a JSON string
// literal otherwise. Interior quotes/backslashes are not escaped when
// wrapping — a config author relying on the wrapped form is expected to
// supply an already-safe string.
func kickMessage(configured string) string {
	var v interface{}
	if json.Unmarshal([]byte(configured), &v) == nil {
		return configured
	}
	return fmt.Sprintf(`"%s"`, configured)
}
