package visualarr

import (
	"context"
	"testing"
	"time"

	"github.com/russellsayshi/visualsort/internal/testserver"
	visualarrmsg "github.com/russellsayshi/visualsort/pkg/message/visualarr"
	"github.com/russellsayshi/visualsort/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startSession(t *testing.T, transportName string, session *testserver.Session) *testserver.Server {
	t.Helper()
	srv, err := testserver.Start(testserver.Params{
		Transport: transportName,
		Logger:    zaptest.NewLogger(t),
		Handler:   session.Handler(),
	})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func openAgainst(t *testing.T, transportName string, srv *testserver.Server, initial []int32) *VisualArray {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, err := Open(ctx, VisualArrayParams{
		Host:              srv.Host(),
		Port:              srv.Port(),
		Transport:         transportName,
		WebsocketEndpoint: srv.Endpoint(),
		InitialArray:      initial,
		Logger:            zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return a
}

var allTransports = []string{transport.Transport_Tcp, transport.Transport_Websocket}

func TestEndToEndPush(t *testing.T) {
	for _, transportName := range allTransports {
		t.Run(transportName, func(t *testing.T) {
			session := &testserver.Session{}
			srv := startSession(t, transportName, session)

			a := openAgainst(t, transportName, srv, []int32{5, 3, 1, 2})
			assert.Equal(t, 4, a.Len())

			require.NoError(t, a.Swap(0, 2))
			require.NoError(t, a.Mark(1))
			require.NoError(t, a.Point(3))
			require.NoError(t, a.ClearMark())
			require.NoError(t, a.Close())

			require.NoError(t, srv.Wait(5*time.Second))
			assert.Equal(t, []int32{
				5309352, 1, 4, 5, 3, 1, 2,
				1, 0, 1,
				1, 2, 5,
				2, 1, 2,
				4, 3,
				3,
				0,
			}, srv.Received())
			assert.Equal(t, visualarrmsg.Mode_Push, session.Mode())
			assert.Equal(t, []int32{5, 3, 1, 2}, session.Initial())
			assert.Equal(t, a.Snapshot(), session.Array())
			assert.True(t, session.GotShutdown())
		})
	}
}

func TestEndToEndPull(t *testing.T) {
	for _, transportName := range allTransports {
		t.Run(transportName, func(t *testing.T) {
			session := &testserver.Session{PullArray: []int32{7, 8, 9}}
			srv := startSession(t, transportName, session)

			a := openAgainst(t, transportName, srv, nil)
			assert.Equal(t, []int32{7, 8, 9}, a.Snapshot())
			assert.Equal(t, 3, a.Len())

			require.NoError(t, a.Set(2, 1))
			require.NoError(t, a.Close())
			require.NoError(t, srv.Wait(5*time.Second))

			assert.Equal(t, []int32{5309352, 0, 1, 2, 1, 0}, srv.Received())
			assert.Equal(t, []int32{7, 8, 1}, session.Array())
		})
	}
}

func TestEndToEndPacing(t *testing.T) {
	session := &testserver.Session{UpdateDelayMs: 20, PointDelayMs: 10, PullArray: []int32{1, 2}}
	srv := startSession(t, transport.Transport_Tcp, session)

	a := openAgainst(t, transport.Transport_Tcp, srv, nil)
	defer a.Close()

	start := time.Now()
	require.NoError(t, a.Set(0, 2))
	require.NoError(t, a.Point(1))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestEndToEndServerHangsUpDuringHandshake(t *testing.T) {
	srv, err := testserver.Start(testserver.Params{
		Logger: zaptest.NewLogger(t),
		Handler: func(c *testserver.Conn) error {
			_, err := c.RecvInt()
			return err
		},
	})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	a, err := Open(context.Background(), VisualArrayParams{
		Host:   srv.Host(),
		Port:   srv.Port(),
		Logger: zaptest.NewLogger(t),
	})
	assert.Nil(t, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed connection")
}
