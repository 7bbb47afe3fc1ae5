package transport

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/russellsayshi/visualsort/pkg/errors"
	"github.com/russellsayshi/visualsort/pkg/message/wire"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type TcpConnectionParams struct {
	Host string
	Port int

	// Zero means no timeout beyond the one carried by the dial context.
	DialTimeout time.Duration

	Logger *zap.Logger
}

type TcpConnection struct {
	conn   *net.TCPConn
	addr   string
	closed bool

	log *zap.Logger
}

func DialTcp(ctx context.Context, params TcpConnectionParams) (*TcpConnection, error) {
	logger := params.Logger
	if logger == nil {
		logger = zap.Must(zap.NewDevelopment())
	}

	addr := net.JoinHostPort(params.Host, strconv.Itoa(params.Port))
	log := logger.With(zap.String("handler", "tcpConnection"), zap.String("addr", addr))

	dialer := net.Dialer{Timeout: params.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.Error("Failed to connect to server", zap.Error(err))
		return nil, &errors.ConnectionError{
			Op:   "connect",
			Addr: addr,
			Err:  err,
		}
	}

	log.Debug("Connected to server")

	return &TcpConnection{
		conn: conn.(*net.TCPConn),
		addr: addr,
		log:  log,
	}, nil
}

func (c *TcpConnection) Send(frames []byte) error {
	if _, err := c.conn.Write(frames); err != nil {
		return &errors.ConnectionError{
			Op:   "send",
			Addr: c.addr,
			Err:  err,
		}
	}
	return nil
}

func (c *TcpConnection) SendInt(v int32) error {
	return c.Send(wire.Encode(v))
}

func (c *TcpConnection) RecvInt() (int32, error) {
	return readFrame(c.conn, c.addr)
}

func (c *TcpConnection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := multierr.Combine(
		c.conn.CloseWrite(),
		c.conn.CloseRead(),
		c.conn.Close(),
	)
	if err != nil {
		c.log.Warn("Unclean socket shutdown", zap.Error(err))
		return &errors.ConnectionError{
			Op:   "close",
			Addr: c.addr,
			Err:  err,
		}
	}

	c.log.Debug("Socket shut down")
	return nil
}

func (c *TcpConnection) RemoteAddr() string {
	return c.addr
}
