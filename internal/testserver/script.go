package testserver

import (
	goerrs "errors"
	"fmt"
	"io"
	"sync"

	"github.com/russellsayshi/visualsort/pkg/message/visualarr"
)

// Session is the server-side view of one scripted protocol run.
type Session struct {
	UpdateDelayMs int32
	PointDelayMs  int32
	// PullArray is served to clients that select pull mode.
	PullArray []int32

	mut      sync.Mutex
	mode     visualarr.Mode
	initial  []int32
	array    []int32
	messages []*visualarr.VisualArrayMessage
	shutdown bool
}

// Handler speaks the full protocol: magic, delays, initial array in the
// direction the client picks, then steady-state messages until Shutdown or
// hangup. Updates are applied to the server's own copy of the array.
func (s *Session) Handler() Handler {
	return func(c *Conn) error {
		magic, err := c.RecvInt()
		if err != nil {
			return err
		}
		if magic != visualarr.HandshakeMagic {
			return fmt.Errorf("bad handshake magic %d", magic)
		}

		if err := c.Send(s.UpdateDelayMs, s.PointDelayMs); err != nil {
			return err
		}

		mode, err := c.RecvInt()
		if err != nil {
			return err
		}

		var arr []int32
		switch visualarr.Mode(mode) {
		case visualarr.Mode_Pull:
			arr = append([]int32{}, s.PullArray...)
			if err := c.Send(append([]int32{int32(len(arr))}, arr...)...); err != nil {
				return err
			}
		case visualarr.Mode_Push:
			length, err := c.RecvInt()
			if err != nil {
				return err
			}
			arr = make([]int32, length)
			for i := range arr {
				if arr[i], err = c.RecvInt(); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("bad mode %d", mode)
		}

		s.mut.Lock()
		s.mode = visualarr.Mode(mode)
		s.initial = append([]int32{}, arr...)
		s.array = arr
		s.mut.Unlock()

		serializer := visualarr.Serializer{}
		for {
			msg, err := serializer.Parse(c.RecvInt)
			if err != nil {
				if goerrs.Is(err, io.EOF) {
					return nil
				}
				return err
			}

			s.mut.Lock()
			s.messages = append(s.messages, msg)
			if msg.Opcode == visualarr.Opcode_Update {
				s.array[msg.Update.Index] = msg.Update.Value
			}
			if msg.Opcode == visualarr.Opcode_Shutdown {
				s.shutdown = true
			}
			s.mut.Unlock()

			if msg.Opcode == visualarr.Opcode_Shutdown {
				return nil
			}
		}
	}
}

func (s *Session) Mode() visualarr.Mode {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.mode
}

func (s *Session) Initial() []int32 {
	s.mut.Lock()
	defer s.mut.Unlock()
	return append([]int32{}, s.initial...)
}

func (s *Session) Array() []int32 {
	s.mut.Lock()
	defer s.mut.Unlock()
	return append([]int32{}, s.array...)
}

func (s *Session) Messages() []*visualarr.VisualArrayMessage {
	s.mut.Lock()
	defer s.mut.Unlock()
	return append([]*visualarr.VisualArrayMessage{}, s.messages...)
}

func (s *Session) GotShutdown() bool {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.shutdown
}
