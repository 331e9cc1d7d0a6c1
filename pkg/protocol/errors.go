package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// PacketError is the sum of everything that can end a connection while
// decoding or dispatching a packet. Handlers and the frame layer return
// one of these instead of a bare error so the per-connection loop can
// tell a clean close apart from a real fault.
type PacketError struct {
	Kind  PacketErrorKind
	Bytes []byte
	cause error
}

// PacketErrorKind distinguishes the ways a connection can end:
// IOError, MalformedVarint, InvalidString, DataError, ClosedError.
type PacketErrorKind int

const (
	KindIOError PacketErrorKind = iota
	KindMalformedVarint
	KindInvalidString
	KindDataError
	KindClosedError
)

func (k PacketErrorKind) String() string {
	switch k {
	case KindIOError:
		return "IOError"
	case KindMalformedVarint:
		return "MalformedVarint"
	case KindInvalidString:
		return "InvalidString"
	case KindDataError:
		return "DataError"
	case KindClosedError:
		return "ClosedError"
	default:
		return "UnknownError"
	}
}

func (e *PacketError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	if e.Bytes != nil {
		return fmt.Sprintf("%s: %x", e.Kind, e.Bytes)
	}
	return e.Kind.String()
}

// Unwrap exposes the wrapped cause so errors.Is/As keep working across
// the IOError boundary.
func (e *PacketError) Unwrap() error { return e.cause }

// IsClosed reports whether err represents a clean, non-fatal connection
// end (peer close or an out-of-bounds frame length) rather than a
// protocol fault.
func IsClosed(err error) bool {
	var pe *PacketError
	return errors.As(err, &pe) && pe.Kind == KindClosedError
}

func newIOError(cause error) *PacketError {
	return &PacketError{Kind: KindIOError, cause: errors.Wrap(cause, "transport I/O")}
}

func newMalformedVarint() *PacketError {
	return &PacketError{Kind: KindMalformedVarint}
}

func newInvalidString(cause error) *PacketError {
	return &PacketError{Kind: KindInvalidString, cause: cause}
}

func newDataError(b []byte) *PacketError {
	return &PacketError{Kind: KindDataError, Bytes: b}
}

func newClosedError() *PacketError {
	return &PacketError{Kind: KindClosedError}
}
