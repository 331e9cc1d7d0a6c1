package protocol

import (
	"encoding/binary"
	"io"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ReadString reads a varint-length-prefixed UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", newDataError(nil)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", newIOError(err)
	}
	if !utf8.Valid(buf) {
		return "", newInvalidString(errInvalidUTF8)
	}
	return string(buf), nil
}

// WriteString writes s varint-length-prefixed.
func WriteString(w io.Writer, s string) error {
	b := []byte(s)
	if _, err := WriteVarInt(w, int32(len(b))); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return newIOError(err)
	}
	return nil
}

// ReadUint16 reads a big-endian u16.
func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, newIOError(err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteUint16 writes v big-endian.
func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return newIOError(err)
	}
	return nil
}

// ReadInt64 reads a big-endian signed 64-bit integer.
func ReadInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, newIOError(err)
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

// WriteInt64 writes v big-endian.
func WriteInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	if _, err := w.Write(buf[:]); err != nil {
		return newIOError(err)
	}
	return nil
}

// ReadUUID reads a 128-bit UUID, big-endian, as sent by the login-start
// packet.
func ReadUUID(r io.Reader) (uuid.UUID, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return uuid.Nil, newIOError(err)
	}
	id, err := uuid.FromBytes(buf[:])
	if err != nil {
		return uuid.Nil, newInvalidString(err)
	}
	return id, nil
}

var errInvalidUTF8 = invalidUTF8Error{}

type invalidUTF8Error struct{}

func (invalidUTF8Error) Error() string { return "not valid UTF-8" }
