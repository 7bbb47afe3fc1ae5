// Package wire holds the only wire type of the visualization protocol: a
// signed 32-bit integer in network byte order.
package wire

import (
	"encoding/binary"

	"github.com/russellsayshi/visualsort/pkg/errors"
)

const FrameSize = 4

func Encode(v int32) []byte {
	return AppendInt32(make([]byte, 0, FrameSize), v)
}

func AppendInt32(out []byte, v int32) []byte {
	return binary.BigEndian.AppendUint32(out, uint32(v))
}

func Decode(frame []byte) (int32, error) {
	if len(frame) < FrameSize {
		return 0, &errors.Underflow{
			MessageName: "Int32",
			MsgSize:     len(frame),
			MinimumSize: FrameSize,
		}
	}

	return int32(binary.BigEndian.Uint32(frame[0:FrameSize])), nil
}
