package visualarr

import (
	"context"
	"testing"
	"time"

	"github.com/russellsayshi/visualsort/pkg/errors"
	"github.com/russellsayshi/visualsort/pkg/message/wire"
	"github.com/russellsayshi/visualsort/pkg/transport"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeConn records sent integers and replays scripted replies.
type fakeConn struct {
	sent       []int32
	sendCalls  int
	failSend   func(call int) bool
	replies    []int32
	closeCalls int
}

func (c *fakeConn) Send(frames []byte) error {
	c.sendCalls++
	if c.failSend != nil && c.failSend(c.sendCalls) {
		return &errors.ConnectionError{Op: "send", Addr: "fake"}
	}
	for len(frames) >= wire.FrameSize {
		v, _ := wire.Decode(frames)
		c.sent = append(c.sent, v)
		frames = frames[wire.FrameSize:]
	}
	return nil
}

func (c *fakeConn) SendInt(v int32) error {
	return c.Send(wire.Encode(v))
}

func (c *fakeConn) RecvInt() (int32, error) {
	if len(c.replies) == 0 {
		return 0, &errors.EndOfStreamError{Addr: "fake"}
	}
	v := c.replies[0]
	c.replies = c.replies[1:]
	return v, nil
}

func (c *fakeConn) Close() error {
	c.closeCalls++
	return nil
}

func (c *fakeConn) RemoteAddr() string {
	return "fake"
}

// sleepRecorder stands in for time.Sleep.
type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) Sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func openFake(t *testing.T, conn *fakeConn, params VisualArrayParams) (*VisualArray, error) {
	t.Helper()
	params.Logger = zaptest.NewLogger(t)
	params.Dial = func(ctx context.Context) (transport.Connection, error) {
		return conn, nil
	}
	return Open(context.Background(), params)
}

// mustOpenPulled opens an array whose contents come from the fake server.
func mustOpenPulled(t *testing.T, values ...int32) (*VisualArray, *fakeConn, *sleepRecorder) {
	t.Helper()
	conn := &fakeConn{replies: append([]int32{0, 0, int32(len(values))}, values...)}
	sleeper := &sleepRecorder{}
	a, err := openFake(t, conn, VisualArrayParams{Sleep: sleeper.Sleep})
	require.NoError(t, err)
	return a, conn, sleeper
}
