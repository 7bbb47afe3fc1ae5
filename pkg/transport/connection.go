package transport

import (
	goerrs "errors"
	"io"

	"github.com/russellsayshi/visualsort/pkg/errors"
	"github.com/russellsayshi/visualsort/pkg/message/wire"
)

const (
	Transport_Tcp       = "tcp"
	Transport_Websocket = "websocket"
)

// Connection is an ordered stream of 4-byte integer frames to one server.
// It is owned by exactly one caller and is not safe for concurrent use.
type Connection interface {
	// Send writes pre-encoded frames as a single transport write.
	Send(frames []byte) error
	SendInt(v int32) error
	// RecvInt blocks until a full frame, a clean hangup (*errors.EndOfStreamError)
	// or a transport failure (*errors.ConnectionError).
	RecvInt() (int32, error)
	// Close shuts the stream down in both directions. It sends nothing itself.
	Close() error
	RemoteAddr() string
}

// readFrame fills one frame from r and classifies the failure modes.
func readFrame(r io.Reader, addr string) (int32, error) {
	var buf [wire.FrameSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if n == 0 && goerrs.Is(err, io.EOF) {
			return 0, &errors.EndOfStreamError{Addr: addr}
		}
		return 0, &errors.ConnectionError{
			Op:   "recv",
			Addr: addr,
			Err:  err,
		}
	}

	return wire.Decode(buf[:])
}
