package visualarr

import (
	"time"

	"github.com/russellsayshi/visualsort/internal/mirror"
	"github.com/russellsayshi/visualsort/pkg/errors"
	visualarrmsg "github.com/russellsayshi/visualsort/pkg/message/visualarr"
	"go.uber.org/zap"
)

// handshake runs once per connection:
//
//	client -> server: magic
//	server -> client: update delay ms, point delay ms
//	client -> server: mode
//	pull: server -> client: length, length x value
//	push: client -> server: length, length x value
//
// Receive failures are always returned. Send failures are returned only when
// strict; otherwise the array is flagged degraded and the handshake stops
// where the failed send left it.
func (a *VisualArray) handshake(initial []int32, strict bool) error {
	if err := a.conn.Send(a.serializer.SerializeHandshake()); err != nil {
		return a.handshakeSendFailed("Failed to handshake with server", err, strict, initial)
	}

	updateDelayMs, err := a.conn.RecvInt()
	if err != nil {
		return err
	}
	pointDelayMs, err := a.conn.RecvInt()
	if err != nil {
		return err
	}
	a.pacing = Pacing{
		UpdateDelay: time.Duration(updateDelayMs) * time.Millisecond,
		PointDelay:  time.Duration(pointDelayMs) * time.Millisecond,
	}

	if len(initial) == 0 {
		return a.pullArray(strict)
	}
	return a.pushArray(initial, strict)
}

const maxPullPrealloc = 1 << 16

func (a *VisualArray) pullArray(strict bool) error {
	if err := a.conn.Send(a.serializer.SerializeMode(visualarrmsg.Mode_Pull)); err != nil {
		if err := a.handshakeSendFailed("Could not send pull mode", err, strict, nil); err != nil {
			return err
		}
	}

	length, err := a.conn.RecvInt()
	if err != nil {
		return err
	}
	if length < 0 {
		return &errors.InvalidHandshake{Field: "length", Value: length}
	}

	// The announced length only sizes the first allocation; the rest grows
	// as elements actually arrive.
	values := make([]int32, 0, min(int(length), maxPullPrealloc))
	for i := int32(0); i < length; i++ {
		v, err := a.conn.RecvInt()
		if err != nil {
			return err
		}
		values = append(values, v)
	}

	a.mirror = mirror.New(values)
	return nil
}

func (a *VisualArray) pushArray(initial []int32, strict bool) error {
	a.mirror = mirror.New(initial)

	if err := a.conn.Send(a.serializer.SerializeMode(visualarrmsg.Mode_Push)); err != nil {
		if err := a.handshakeSendFailed("Could not send push mode", err, strict, initial); err != nil {
			return err
		}
	}

	if err := a.conn.Send(a.serializer.SerializePushArray(initial)); err != nil {
		return a.handshakeSendFailed("Array failed to send", err, strict, initial)
	}
	return nil
}

// handshakeSendFailed returns err when strict. Otherwise it flags the array
// degraded, makes sure a mirror exists and returns nil.
func (a *VisualArray) handshakeSendFailed(msg string, err error, strict bool, initial []int32) error {
	if strict {
		return err
	}

	a.log.Warn(msg, zap.Error(err))
	a.degraded = true
	if a.mirror == nil {
		a.mirror = mirror.New(initial)
	}
	return nil
}
