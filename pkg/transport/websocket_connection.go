package transport

import (
	"context"
	goerrs "errors"
	"io"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/russellsayshi/visualsort/pkg/errors"
	"github.com/russellsayshi/visualsort/pkg/message/wire"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type WebsocketConnectionParams struct {
	Host     string
	Port     int
	Endpoint string

	HandshakeTimeout time.Duration

	Logger *zap.Logger
}

// WebsocketConnection carries the integer stream over binary WebSocket
// messages. A frame may be split across messages.
type WebsocketConnection struct {
	conn   *websocket.Conn
	addr   string
	closed bool

	reader io.Reader

	log *zap.Logger
}

var expectedCloseErrors = []int{websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived}

func DialWebsocket(ctx context.Context, params WebsocketConnectionParams) (*WebsocketConnection, error) {
	logger := params.Logger
	if logger == nil {
		logger = zap.Must(zap.NewDevelopment())
	}

	endpoint := params.Endpoint
	if endpoint == "" {
		endpoint = "/ws"
	}
	handshakeTimeout := params.HandshakeTimeout
	if handshakeTimeout == 0 {
		handshakeTimeout = 10 * time.Second
	}

	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(params.Host, strconv.Itoa(params.Port)),
		Path:   endpoint,
	}
	addr := u.String()
	log := logger.With(zap.String("handler", "websocketConnection"), zap.String("addr", addr))

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		if resp != nil {
			log.Error("WebSocket upgrade refused", zap.Int("status", resp.StatusCode), zap.Error(err))
		} else {
			log.Error("Failed to connect to server", zap.Error(err))
		}
		return nil, &errors.ConnectionError{
			Op:   "connect",
			Addr: addr,
			Err:  err,
		}
	}

	log.Debug("Connected to server")

	c := &WebsocketConnection{
		conn: conn,
		addr: addr,
		log:  log,
	}
	c.reader = NewMessageStreamReader(conn, log)
	return c, nil
}

func (c *WebsocketConnection) Send(frames []byte) error {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frames); err != nil {
		return &errors.ConnectionError{
			Op:   "send",
			Addr: c.addr,
			Err:  err,
		}
	}
	return nil
}

func (c *WebsocketConnection) SendInt(v int32) error {
	return c.Send(wire.Encode(v))
}

func (c *WebsocketConnection) RecvInt() (int32, error) {
	return readFrame(c.reader, c.addr)
}

func (c *WebsocketConnection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := multierr.Combine(
		c.conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second)),
		c.conn.Close(),
	)
	if err != nil {
		c.log.Warn("Unclean WebSocket shutdown", zap.Error(err))
		return &errors.ConnectionError{
			Op:   "close",
			Addr: c.addr,
			Err:  err,
		}
	}

	c.log.Debug("WebSocket shut down")
	return nil
}

func (c *WebsocketConnection) RemoteAddr() string {
	return c.addr
}

// NewMessageStreamReader flattens consecutive binary messages on conn into
// one byte stream. Text messages are skipped and a normal close from the
// peer reads as io.EOF. Both ends of a connection use it.
func NewMessageStreamReader(conn *websocket.Conn, log *zap.Logger) io.Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &messageStreamReader{conn: conn, log: log}
}

type messageStreamReader struct {
	conn    *websocket.Conn
	current io.Reader
	log     *zap.Logger
}

func (r *messageStreamReader) Read(p []byte) (int, error) {
	for {
		if r.current == nil {
			msgType, reader, err := r.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, expectedCloseErrors...) {
					return 0, io.EOF
				}
				return 0, err
			}
			if msgType != websocket.BinaryMessage {
				r.log.Info("Received non-binary message, ignoring")
				continue
			}
			r.current = reader
		}

		n, err := r.current.Read(p)
		if goerrs.Is(err, io.EOF) {
			r.current = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}
