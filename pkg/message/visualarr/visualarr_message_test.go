package visualarr

import (
	goerrs "errors"
	"io"
	"testing"

	"github.com/russellsayshi/visualsort/pkg/errors"
	"github.com/russellsayshi/visualsort/pkg/message/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(values ...int32) []byte {
	out := []byte{}
	for _, v := range values {
		out = wire.AppendInt32(out, v)
	}
	return out
}

// intSource replays a fixed slice of integers, then io.EOF.
func intSource(values ...int32) func() (int32, error) {
	return func() (int32, error) {
		if len(values) == 0 {
			return 0, io.EOF
		}
		v := values[0]
		values = values[1:]
		return v, nil
	}
}

func TestSerializeMessage(t *testing.T) {
	s := Serializer{}

	tests := []struct {
		name string
		msg  *VisualArrayMessage
		want []byte
	}{
		{"shutdown", &VisualArrayMessage{Opcode: Opcode_Shutdown}, frames(0)},
		{"update", &VisualArrayMessage{Opcode: Opcode_Update, Update: &Update{Index: 3, Value: -9}}, frames(1, 3, -9)},
		{"mark range", &VisualArrayMessage{Opcode: Opcode_MarkRange, MarkRange: &MarkRange{Start: 2, End: 6}}, frames(2, 2, 6)},
		{"clear mark", &VisualArrayMessage{Opcode: Opcode_ClearMark}, frames(3)},
		{"point", &VisualArrayMessage{Opcode: Opcode_Point, Point: &Point{Index: 11}}, frames(4, 11)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SerializeMessage(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerializeMessageMissingOperands(t *testing.T) {
	s := Serializer{}

	for _, op := range []Opcode{Opcode_Update, Opcode_MarkRange, Opcode_Point} {
		_, err := s.SerializeMessage(&VisualArrayMessage{Opcode: op})
		var missing *errors.MissingFieldError
		assert.True(t, goerrs.As(err, &missing), "opcode %s", op)
	}

	_, err := s.SerializeMessage(&VisualArrayMessage{Opcode: Opcode_NONE})
	var invalid *errors.InvalidEnumValue
	assert.True(t, goerrs.As(err, &invalid))
}

func TestParse(t *testing.T) {
	s := Serializer{}
	next := intSource(1, 0, 5, 2, 1, 3, 3, 4, 7, 0)

	msg, err := s.Parse(next)
	require.NoError(t, err)
	assert.Equal(t, Opcode_Update, msg.Opcode)
	assert.Equal(t, &Update{Index: 0, Value: 5}, msg.Update)

	msg, err = s.Parse(next)
	require.NoError(t, err)
	assert.Equal(t, &MarkRange{Start: 1, End: 3}, msg.MarkRange)

	msg, err = s.Parse(next)
	require.NoError(t, err)
	assert.Equal(t, Opcode_ClearMark, msg.Opcode)

	msg, err = s.Parse(next)
	require.NoError(t, err)
	assert.Equal(t, &Point{Index: 7}, msg.Point)

	msg, err = s.Parse(next)
	require.NoError(t, err)
	assert.Equal(t, Opcode_Shutdown, msg.Opcode)

	_, err = s.Parse(next)
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseErrors(t *testing.T) {
	s := Serializer{}

	_, err := s.Parse(intSource(9))
	var invalid *errors.InvalidEnumValue
	require.True(t, goerrs.As(err, &invalid))
	assert.Equal(t, int32(9), invalid.IntValue)

	_, err = s.Parse(intSource(-1))
	assert.True(t, goerrs.As(err, &invalid))

	// Truncated operands surface the source error.
	_, err = s.Parse(intSource(1, 4))
	assert.ErrorIs(t, err, io.EOF)
}

func TestHandshakeFrames(t *testing.T) {
	s := Serializer{}

	assert.Equal(t, frames(5309352), s.SerializeHandshake())
	assert.Equal(t, frames(0), s.SerializeMode(Mode_Pull))
	assert.Equal(t, frames(1), s.SerializeMode(Mode_Push))
	assert.Equal(t, frames(4, 5, 3, 1, 2), s.SerializePushArray([]int32{5, 3, 1, 2}))
	assert.Equal(t, frames(0), s.SerializePushArray(nil))
}
