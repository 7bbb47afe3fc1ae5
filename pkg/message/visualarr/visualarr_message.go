package visualarr

import (
	"github.com/russellsayshi/visualsort/pkg/errors"
	"github.com/russellsayshi/visualsort/pkg/message/wire"
)

// HandshakeMagic is the first integer a client sends on a new connection.
const HandshakeMagic int32 = 5309352

type Mode int32

const (
	Mode_Pull Mode = iota
	Mode_Push
)

type Opcode int32

const (
	Opcode_Shutdown Opcode = iota
	Opcode_Update
	Opcode_MarkRange
	Opcode_ClearMark
	Opcode_Point

	Opcode_NONE
)

func (o Opcode) String() string {
	switch o {
	case Opcode_Shutdown:
		return "Shutdown"
	case Opcode_Update:
		return "Update"
	case Opcode_MarkRange:
		return "MarkRange"
	case Opcode_ClearMark:
		return "ClearMark"
	case Opcode_Point:
		return "Point"
	}

	return "NONE"
}

func opcodeFromWire(v int32) Opcode {
	if v < 0 || v >= int32(Opcode_NONE) {
		return Opcode_NONE
	}
	return Opcode(v)
}

type Update struct {
	Index int32
	Value int32
}

type MarkRange struct {
	Start int32
	End   int32
}

type Point struct {
	Index int32
}

// VisualArrayMessage is one steady-state message. Exactly one of the operand
// fields is set, matching Opcode; Shutdown and ClearMark carry none.
type VisualArrayMessage struct {
	Opcode    Opcode
	Update    *Update
	MarkRange *MarkRange
	Point     *Point
}

type Serializer struct{}

func (s Serializer) SerializeMessage(msg *VisualArrayMessage) ([]byte, error) {
	out := make([]byte, 0, 3*wire.FrameSize)
	out = wire.AppendInt32(out, int32(msg.Opcode))

	switch msg.Opcode {
	case Opcode_Shutdown, Opcode_ClearMark:
		break
	case Opcode_Update:
		if msg.Update == nil {
			return nil, &errors.MissingFieldError{
				MessageName: "VisualArrayMessage",
				FieldName:   "Update",
			}
		}
		out = wire.AppendInt32(out, msg.Update.Index)
		out = wire.AppendInt32(out, msg.Update.Value)
	case Opcode_MarkRange:
		if msg.MarkRange == nil {
			return nil, &errors.MissingFieldError{
				MessageName: "VisualArrayMessage",
				FieldName:   "MarkRange",
			}
		}
		out = wire.AppendInt32(out, msg.MarkRange.Start)
		out = wire.AppendInt32(out, msg.MarkRange.End)
	case Opcode_Point:
		if msg.Point == nil {
			return nil, &errors.MissingFieldError{
				MessageName: "VisualArrayMessage",
				FieldName:   "Point",
			}
		}
		out = wire.AppendInt32(out, msg.Point.Index)
	default:
		return nil, &errors.InvalidEnumValue{
			EnumName: "VisualArrayMessage::Opcode",
			IntValue: int32(msg.Opcode),
		}
	}

	return out, nil
}

// Parse reads one steady-state message, pulling integers from next.
func (s Serializer) Parse(next func() (int32, error)) (*VisualArrayMessage, error) {
	raw, err := next()
	if err != nil {
		return nil, err
	}

	msg := &VisualArrayMessage{Opcode: opcodeFromWire(raw)}

	switch msg.Opcode {
	case Opcode_Shutdown, Opcode_ClearMark:
		break
	case Opcode_Update:
		operands, err := readOperands(next, 2)
		if err != nil {
			return nil, err
		}
		msg.Update = &Update{Index: operands[0], Value: operands[1]}
	case Opcode_MarkRange:
		operands, err := readOperands(next, 2)
		if err != nil {
			return nil, err
		}
		msg.MarkRange = &MarkRange{Start: operands[0], End: operands[1]}
	case Opcode_Point:
		operands, err := readOperands(next, 1)
		if err != nil {
			return nil, err
		}
		msg.Point = &Point{Index: operands[0]}
	default:
		return nil, &errors.InvalidEnumValue{
			EnumName: "VisualArrayMessage::Opcode",
			IntValue: raw,
		}
	}

	return msg, nil
}

func readOperands(next func() (int32, error), n int) ([]int32, error) {
	operands := make([]int32, n)
	for i := range operands {
		v, err := next()
		if err != nil {
			return nil, err
		}
		operands[i] = v
	}
	return operands, nil
}

// SerializeHandshake builds the magic frame that opens every connection.
func (s Serializer) SerializeHandshake() []byte {
	return wire.Encode(HandshakeMagic)
}

func (s Serializer) SerializeMode(mode Mode) []byte {
	return wire.Encode(int32(mode))
}

// SerializePushArray builds the length frame followed by one frame per
// element, in index order.
func (s Serializer) SerializePushArray(arr []int32) []byte {
	out := make([]byte, 0, (len(arr)+1)*wire.FrameSize)
	out = wire.AppendInt32(out, int32(len(arr)))
	for _, v := range arr {
		out = wire.AppendInt32(out, v)
	}
	return out
}
