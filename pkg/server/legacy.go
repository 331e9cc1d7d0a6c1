package server

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/sirupsen/logrus"

	"github.com/StoreStation/statuscraft/pkg/protocol"
)

// legacyPingHeader is U+00A7 U+0031 NUL — the fixed prefix every legacy
// ping response carries after the 0xFF sentinel and length.
var legacyPingHeader = [3]uint16{0x00A7, 0x0031, 0x0000}

const maxLegacyStringLen = 255

// handleLegacyPing serves the pre-modern client's ping format. The
// frame layer has already consumed the 0xFE/0x01 sentinel bytes as the
// varint total-length 254; everything from here on is read directly
// from the transport, since legacy framing is incompatible with the
// varint-prefixed scheme used everywhere else.
func (s *Server) handleLegacyPing(player *Player) error {
	conn := player.Conn
	log := logrus.WithField("peer", player.PeerAddr)

	packetIdentifier, err := readByte(conn)
	if err != nil {
		return err
	}
	if packetIdentifier != 0xFA {
		log.WithField("byte", packetIdentifier).Warn("unexpected legacy ping packet identifier")
	}

	pingHost, err := readUTF16String(conn)
	if err != nil {
		return err
	}
	if pingHost != "MC|PingHost" {
		log.WithField("string", pingHost).Warn("unexpected legacy ping string")
	}

	if _, err := readUint16(conn); err != nil { // payload length, unused
		return err
	}
	clientProtocol, err := readByte(conn)
	if err != nil {
		return err
	}
	if _, err := readUTF16String(conn); err != nil { // hostname, unused
		return err
	}
	if _, err := readUint32(conn); err != nil { // port, unused
		return err
	}

	snap := s.store.Current()
	cfg := snap.Config
	protocolVersion := uint16(clientProtocol)
	if cfg.Protocol != nil {
		protocolVersion = *cfg.Protocol
	}

	response := fmt.Sprintf("%d\x00%s\x00%s\x00%d\x00%d\x00",
		protocolVersion, cfg.Version, cfg.MOTD, cfg.OnlinePlayers, cfg.MaxPlayers)
	units := utf16.Encode([]rune(response))

	responseChars := uint16(len(legacyPingHeader) + len(units))

	if _, err := conn.Write([]byte{0xFF}); err != nil {
		return err
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], responseChars)
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return err
	}
	if err := writeUTF16Units(conn, legacyPingHeader[:]); err != nil {
		return err
	}
	return writeUTF16Units(conn, units)
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// readUTF16String reads a u16-BE length prefix (in code units, not
// bytes) followed by that many UTF-16BE code units.
func readUTF16String(r io.Reader) (string, error) {
	length, err := readUint16(r)
	if err != nil {
		return "", err
	}
	if length > maxLegacyStringLen {
		return "", &protocol.PacketError{Kind: protocol.KindDataError, Bytes: []byte{byte(length >> 8), byte(length)}}
	}
	units := make([]uint16, length)
	for i := range units {
		u, err := readUint16(r)
		if err != nil {
			return "", err
		}
		units[i] = u
	}
	if !validUTF16(units) {
		return "", &protocol.PacketError{Kind: protocol.KindInvalidString}
	}
	return string(utf16.Decode(units)), nil
}

// validUTF16 reports whether units is a well-formed UTF-16 sequence:
// every high surrogate is immediately followed by a low surrogate, and
// no low surrogate appears unpaired. utf16.Decode never errors on its
// own — it silently replaces malformed surrogates with U+FFFD — so this
// check runs first to catch what it would otherwise paper over.
func validUTF16(units []uint16) bool {
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+1 >= len(units) {
				return false
			}
			next := units[i+1]
			if next < 0xDC00 || next > 0xDFFF {
				return false
			}
			i++
		case u >= 0xDC00 && u <= 0xDFFF:
			return false
		}
	}
	return true
}

func writeUTF16Units(w io.Writer, units []uint16) error {
	buf := make([]byte, 2*len(units))
	for i, u := range units {
		binary.BigEndian.PutUint16(buf[2*i:], u)
	}
	_, err := w.Write(buf)
	return err
}
