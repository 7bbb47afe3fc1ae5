package errors

import (
	"fmt"
	"io"
)

type Underflow struct {
	MessageName string
	MsgSize     int
	MinimumSize int
}

func (e *Underflow) Error() string {
	return fmt.Sprintf("Message parsing underflowed (type=%s), provided %d bytes, needed at least %d", e.MessageName, e.MsgSize, e.MinimumSize)
}

type InvalidEnumValue struct {
	EnumName string
	IntValue int32
}

func (e *InvalidEnumValue) Error() string {
	return fmt.Sprintf("Invalid enum value=%d (enum: %s)", e.IntValue, e.EnumName)
}

type InvalidHandshake struct {
	Field string
	Value int32
}

func (e *InvalidHandshake) Error() string {
	return fmt.Sprintf("Invalid handshake value %s=%d", e.Field, e.Value)
}

// ConnectionError is a transport-level connect/send/receive failure.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Connection error during %s (addr=%s)", e.Op, e.Addr)
	}
	return fmt.Sprintf("Connection error during %s (addr=%s): %s", e.Op, e.Addr, e.Err.Error())
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// EndOfStreamError means the peer hung up cleanly before any byte of the
// next frame arrived. It unwraps to a *ConnectionError wrapping io.EOF.
type EndOfStreamError struct {
	Addr string
}

func (e *EndOfStreamError) Error() string {
	return fmt.Sprintf("Server closed connection (addr=%s)", e.Addr)
}

func (e *EndOfStreamError) Unwrap() error {
	return &ConnectionError{
		Op:   "recv",
		Addr: e.Addr,
		Err:  io.EOF,
	}
}

type NotConnectedError struct {
	Operation string
	State     string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("Cannot %s: not connected (state=%s)", e.Operation, e.State)
}

type IndexOutOfBoundsError struct {
	Index int
	Size  int
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("Not in bounds: %d (size=%d)", e.Index, e.Size)
}

type MissingFieldError struct {
	MessageName string
	FieldName   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing field %s in message type %s", e.FieldName, e.MessageName)
}

type InvalidTransport struct {
	Name string
}

func (e *InvalidTransport) Error() string {
	return fmt.Sprintf("Unknown transport '%s'", e.Name)
}
