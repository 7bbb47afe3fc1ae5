// Package testserver is an in-process peer for the visualization protocol.
// It accepts a single client over TCP or WebSocket, runs a scripted handler
// against it and records every integer the client sent.
package testserver

import (
	"context"
	goerrs "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/russellsayshi/visualsort/pkg/message/wire"
	"github.com/russellsayshi/visualsort/pkg/transport"
	"go.uber.org/zap"
)

type Handler func(c *Conn) error

type Params struct {
	Transport string
	Endpoint  string
	Logger    *zap.Logger
	Handler   Handler
}

type Server struct {
	params Params
	log    *zap.Logger

	host string
	port int

	listener   net.Listener
	httpServer *httptest.Server

	once sync.Once
	done chan struct{}
	err  error

	mut_received sync.Mutex
	received     []int32
}

// Conn is the server side of one client connection.
type Conn struct {
	server *Server
	r      io.Reader
	w      io.Writer
}

func Start(params Params) (*Server, error) {
	logger := params.Logger
	if logger == nil {
		logger = zap.Must(zap.NewDevelopment())
	}
	if params.Transport == "" {
		params.Transport = transport.Transport_Tcp
	}
	if params.Endpoint == "" {
		params.Endpoint = "/ws"
	}

	s := &Server{
		params: params,
		log:    logger.With(zap.String("handler", "testServer"), zap.String("transport", params.Transport)),
		done:   make(chan struct{}),
	}

	switch params.Transport {
	case transport.Transport_Tcp:
		return s, s.startTcp()
	case transport.Transport_Websocket:
		return s, s.startWebsocket()
	}

	return nil, fmt.Errorf("unknown transport %q", params.Transport)
}

func (s *Server) startTcp() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	s.listener = listener
	tcpAddr := listener.Addr().(*net.TCPAddr)
	s.host = tcpAddr.IP.String()
	s.port = tcpAddr.Port

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			s.finish(err)
			return
		}
		defer conn.Close()

		s.finish(s.run(&Conn{server: s, r: conn, w: conn}))
	}()

	return nil
}

func (s *Server) startWebsocket() error {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.params.Endpoint, func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Error("Failed to upgrade HTTP request to WebSocket connection", zap.Error(err))
			s.finish(err)
			return
		}
		defer c.Close()

		err = s.run(&Conn{server: s, r: transport.NewMessageStreamReader(c, s.log), w: &wsMessageWriter{conn: c}})
		c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.finish(err)
	})

	s.httpServer = httptest.NewServer(mux)
	u, err := url.Parse(s.httpServer.URL)
	if err != nil {
		return err
	}
	s.host = u.Hostname()
	s.port, err = strconv.Atoi(u.Port())
	return err
}

func (s *Server) run(c *Conn) error {
	s.log.Debug("Client connected")
	if s.params.Handler == nil {
		return nil
	}
	return s.params.Handler(c)
}

func (s *Server) finish(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

func (s *Server) Host() string {
	return s.host
}

func (s *Server) Port() int {
	return s.port
}

func (s *Server) Endpoint() string {
	return s.params.Endpoint
}

// Wait blocks until the handler for the accepted client returns.
func (s *Server) Wait(timeout time.Duration) error {
	select {
	case <-s.done:
		return s.err
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

// Received returns every integer read from the client so far, in wire order.
func (s *Server) Received() []int32 {
	s.mut_received.Lock()
	defer s.mut_received.Unlock()

	out := make([]int32, len(s.received))
	copy(out, s.received)
	return out
}

func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	if s.httpServer != nil {
		s.httpServer.CloseClientConnections()
		s.httpServer.Close()
	}
}

func (c *Conn) RecvInt() (int32, error) {
	var buf [wire.FrameSize]byte
	if _, err := io.ReadFull(c.r, buf[:]); err != nil {
		return 0, err
	}

	v, err := wire.Decode(buf[:])
	if err != nil {
		return 0, err
	}

	c.server.mut_received.Lock()
	c.server.received = append(c.server.received, v)
	c.server.mut_received.Unlock()
	return v, nil
}

// Send writes all values as one transport write.
func (c *Conn) Send(values ...int32) error {
	out := make([]byte, 0, len(values)*wire.FrameSize)
	for _, v := range values {
		out = wire.AppendInt32(out, v)
	}
	_, err := c.w.Write(out)
	return err
}

// Drain reads until the client hangs up.
func (c *Conn) Drain() error {
	for {
		if _, err := c.RecvInt(); err != nil {
			if goerrs.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

type wsMessageWriter struct {
	conn *websocket.Conn
}

func (w *wsMessageWriter) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SendRaw writes bytes as-is, for tests that split frames on purpose.
func (c *Conn) SendRaw(p []byte) error {
	_, err := c.w.Write(p)
	return err
}
