// Package visualarr is an int32 array whose writes and annotations are
// mirrored to a visualization server as they happen.
//
// A VisualArray serves every read from its local mirror. Every Set first
// sends an Update message and then updates the mirror, so the server's copy
// never runs ahead of the client's. The protocol is a single ordered stream
// and a VisualArray must be driven by one goroutine.
package visualarr

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/russellsayshi/visualsort/internal/mirror"
	"github.com/russellsayshi/visualsort/pkg/errors"
	visualarrmsg "github.com/russellsayshi/visualsort/pkg/message/visualarr"
	"github.com/russellsayshi/visualsort/pkg/transport"
	"go.uber.org/zap"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 25671
)

type State int32

const (
	State_Disconnected State = iota
	State_Connected
	State_Ready
	State_Closed
)

func (s State) String() string {
	switch s {
	case State_Disconnected:
		return "Disconnected"
	case State_Connected:
		return "Connected"
	case State_Ready:
		return "Ready"
	case State_Closed:
		return "Closed"
	}

	return "Unknown"
}

// Pacing is the server-supplied throttle applied after writes and points.
type Pacing struct {
	UpdateDelay time.Duration
	PointDelay  time.Duration
}

type VisualArrayParams struct {
	Host string
	Port int

	// Transport is transport.Transport_Tcp (default) or transport.Transport_Websocket.
	Transport         string
	WebsocketEndpoint string
	DialTimeout       time.Duration

	// InitialArray selects push mode when non-empty; otherwise the array is
	// pulled from the server.
	InitialArray []int32

	// StrictHandshake makes any failed handshake send abort Open. By default
	// the failure is logged, the array is flagged Degraded and Open succeeds.
	StrictHandshake bool

	Logger *zap.Logger

	// Dial replaces the transport dial. Used for connect retries.
	Dial func(ctx context.Context) (transport.Connection, error)
	// Sleep replaces time.Sleep for pacing.
	Sleep func(time.Duration)
}

type VisualArray struct {
	conn       transport.Connection
	serializer visualarrmsg.Serializer

	state     State
	connected bool
	degraded  bool

	mirror *mirror.Mirror
	pacing Pacing
	sleep  func(time.Duration)

	sessionId string
	log       *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the server and runs the handshake. On success the array
// is Ready; the caller must Close it.
func Open(ctx context.Context, params VisualArrayParams) (*VisualArray, error) {
	logger := params.Logger
	if logger == nil {
		logger = zap.Must(zap.NewDevelopment())
	}
	if params.Host == "" {
		params.Host = DefaultHost
	}
	if params.Port == 0 {
		params.Port = DefaultPort
	}
	if params.Transport == "" {
		params.Transport = transport.Transport_Tcp
	}
	sleep := params.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	sessionId := uuid.NewString()
	log := logger.With(zap.String("handler", "visualArray"), zap.String("sessionId", sessionId))

	dial := params.Dial
	if dial == nil {
		dial = DialFunc(params, logger)
	}

	conn, err := dial(ctx)
	if err != nil {
		log.Error("Failed to connect to server", zap.Error(err))
		return nil, err
	}

	a := &VisualArray{
		conn:      conn,
		state:     State_Connected,
		connected: true,
		sleep:     sleep,
		sessionId: sessionId,
		log:       log.With(zap.String("addr", conn.RemoteAddr())),
	}

	if err := a.handshake(params.InitialArray, params.StrictHandshake); err != nil {
		a.log.Error("Handshake failed", zap.Error(err))
		a.Close()
		return nil, err
	}

	a.state = State_Ready
	a.log.Info("Visual array ready",
		zap.Int("size", a.mirror.Len()),
		zap.Duration("updateDelay", a.pacing.UpdateDelay),
		zap.Duration("pointDelay", a.pacing.PointDelay),
		zap.Bool("degraded", a.degraded))

	return a, nil
}

// DialFunc returns the transport dial Open would use for params.
func DialFunc(params VisualArrayParams, logger *zap.Logger) func(ctx context.Context) (transport.Connection, error) {
	return func(ctx context.Context) (transport.Connection, error) {
		switch params.Transport {
		case transport.Transport_Websocket:
			return transport.DialWebsocket(ctx, transport.WebsocketConnectionParams{
				Host:             params.Host,
				Port:             params.Port,
				Endpoint:         params.WebsocketEndpoint,
				HandshakeTimeout: params.DialTimeout,
				Logger:           logger,
			})
		case transport.Transport_Tcp, "":
			return transport.DialTcp(ctx, transport.TcpConnectionParams{
				Host:        params.Host,
				Port:        params.Port,
				DialTimeout: params.DialTimeout,
				Logger:      logger,
			})
		}

		return nil, &errors.InvalidTransport{Name: params.Transport}
	}
}

func (a *VisualArray) State() State {
	return a.state
}

// Connected reports whether the transport connection is up. It stays true
// after a failed handshake send; see Degraded.
func (a *VisualArray) Connected() bool {
	return a.connected
}

// Degraded reports whether any send has failed. Once set, the server's copy
// of the array may differ from the mirror.
func (a *VisualArray) Degraded() bool {
	return a.degraded
}

func (a *VisualArray) Pacing() Pacing {
	return a.pacing
}

func (a *VisualArray) SessionId() string {
	return a.sessionId
}

func (a *VisualArray) Len() int {
	if a.mirror == nil {
		return 0
	}
	return a.mirror.Len()
}

// Snapshot copies the mirror. It does no network traffic.
func (a *VisualArray) Snapshot() []int32 {
	if a.mirror == nil {
		return []int32{}
	}
	return a.mirror.Snapshot()
}

func (a *VisualArray) Get(i int) (int32, error) {
	if err := a.checkIndex("get", i); err != nil {
		return 0, err
	}
	return a.mirror.Get(i), nil
}

// Set sends Update(i, v), then stores v in the mirror and waits out the
// update delay. A failed send still updates the mirror and is returned.
func (a *VisualArray) Set(i int, v int32) error {
	if err := a.checkIndex("set", i); err != nil {
		return err
	}

	err := a.send(&visualarrmsg.VisualArrayMessage{
		Opcode: visualarrmsg.Opcode_Update,
		Update: &visualarrmsg.Update{Index: int32(i), Value: v},
	})
	a.mirror.Set(i, v)
	a.pace(a.pacing.UpdateDelay)

	return err
}

// Swap exchanges two elements with two Sets.
func (a *VisualArray) Swap(i, j int) error {
	vi, err := a.Get(i)
	if err != nil {
		return err
	}
	vj, err := a.Get(j)
	if err != nil {
		return err
	}

	errI := a.Set(i, vj)
	errJ := a.Set(j, vi)
	if errI != nil {
		return errI
	}
	return errJ
}

// MarkRange highlights [start, end) on the server.
func (a *VisualArray) MarkRange(start, end int) error {
	if err := a.checkReady("mark"); err != nil {
		return err
	}
	if err := a.checkWireRange(start); err != nil {
		return err
	}
	if err := a.checkWireRange(end); err != nil {
		return err
	}

	return a.send(&visualarrmsg.VisualArrayMessage{
		Opcode:    visualarrmsg.Opcode_MarkRange,
		MarkRange: &visualarrmsg.MarkRange{Start: int32(start), End: int32(end)},
	})
}

func (a *VisualArray) Mark(i int) error {
	return a.MarkRange(i, i+1)
}

// Point moves the server's scan cursor to i and waits out the point delay.
func (a *VisualArray) Point(i int) error {
	if err := a.checkReady("point"); err != nil {
		return err
	}
	if err := a.checkWireRange(i); err != nil {
		return err
	}

	err := a.send(&visualarrmsg.VisualArrayMessage{
		Opcode: visualarrmsg.Opcode_Point,
		Point:  &visualarrmsg.Point{Index: int32(i)},
	})
	a.pace(a.pacing.PointDelay)

	return err
}

func (a *VisualArray) ClearMark() error {
	if err := a.checkReady("clear mark"); err != nil {
		return err
	}

	return a.send(&visualarrmsg.VisualArrayMessage{Opcode: visualarrmsg.Opcode_ClearMark})
}

// Close sends Shutdown and shuts the connection down. Only the first call
// does anything; later calls return the first result.
func (a *VisualArray) Close() error {
	a.closeOnce.Do(func() {
		prevState := a.state
		a.state = State_Closed
		if !a.connected {
			return
		}
		a.connected = false

		if err := a.send(&visualarrmsg.VisualArrayMessage{Opcode: visualarrmsg.Opcode_Shutdown}); err != nil {
			a.log.Warn("Failed to send shutdown message", zap.Error(err))
		}
		a.closeErr = a.conn.Close()

		a.log.Info("Visual array closed", zap.Stringer("previousState", prevState), zap.Bool("degraded", a.degraded))
	})

	return a.closeErr
}

func (a *VisualArray) checkReady(op string) error {
	if a.state != State_Ready {
		return &errors.NotConnectedError{
			Operation: op,
			State:     a.state.String(),
		}
	}
	return nil
}

func (a *VisualArray) checkIndex(op string, i int) error {
	if err := a.checkReady(op); err != nil {
		return err
	}
	if !a.mirror.InBounds(i) {
		return &errors.IndexOutOfBoundsError{
			Index: i,
			Size:  a.mirror.Len(),
		}
	}
	return nil
}

// checkWireRange rejects annotation operands that do not fit an int32 frame.
// Annotations are not bounds-checked against the array itself.
func (a *VisualArray) checkWireRange(i int) error {
	if i < math.MinInt32 || i > math.MaxInt32 {
		return &errors.IndexOutOfBoundsError{
			Index: i,
			Size:  a.mirror.Len(),
		}
	}
	return nil
}

func (a *VisualArray) send(msg *visualarrmsg.VisualArrayMessage) error {
	frames, err := a.serializer.SerializeMessage(msg)
	if err != nil {
		return err
	}

	if err := a.conn.Send(frames); err != nil {
		a.markDegraded(msg.Opcode.String(), err)
		return err
	}
	return nil
}

func (a *VisualArray) markDegraded(what string, err error) {
	if !a.degraded {
		a.log.Warn("Send failed, server state may diverge from mirror", zap.String("message", what), zap.Error(err))
	}
	a.degraded = true
}

func (a *VisualArray) pace(d time.Duration) {
	if d > 0 {
		a.sleep(d)
	}
}
