// Package protocol implements the client wire format: opcode tables,
// outgoing messages, incoming frames and the codec between them.
package protocol

import (
	"math"

	"github.com/go-faster/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// MaxFrameSize bounds both encoded and accepted frames (1 MiB).
const MaxFrameSize = 1 << 20

// Encode serializes op followed by fields in order.
//
// Wire format:
//
//	frame  := opcode field*
//	opcode := varint (zig-zag)
//	field  := tag value   ; tag field number = Kind
//	int    := varint (zig-zag)
//	string := varint length + bytes
//	bool   := varint 0 or 1
//
// Tags and varints are protobuf wire primitives, so any protowire-aware
// tool can inspect a frame.
func Encode(op Opcode, fields []Field) ([]byte, error) {
	b := make([]byte, 0, 8+8*len(fields))
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(op)))

	for i, f := range fields {
		switch f.Kind {
		case KindInt:
			b = protowire.AppendTag(b, protowire.Number(KindInt), protowire.VarintType)
			b = protowire.AppendVarint(b, protowire.EncodeZigZag(f.Int))
		case KindString:
			b = protowire.AppendTag(b, protowire.Number(KindString), protowire.BytesType)
			b = protowire.AppendString(b, f.Str)
		case KindBool:
			b = protowire.AppendTag(b, protowire.Number(KindBool), protowire.VarintType)
			b = protowire.AppendVarint(b, protowire.EncodeBool(f.Bool))
		default:
			return nil, errors.Errorf("failed to encode field %d of opcode %d: unknown kind %d", i, op, f.Kind)
		}
	}

	if len(b) > MaxFrameSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "failed to encode opcode %d: %d bytes", op, len(b))
	}
	return b, nil
}

// Decode parses a raw frame into its opcode and typed arguments.
// Any malformed input yields a *DecodeError; Decode never panics on
// untrusted bytes.
func Decode(raw []byte) (*Frame, error) {
	if len(raw) == 0 {
		return nil, &DecodeError{Reason: "empty frame"}
	}
	if len(raw) > MaxFrameSize {
		return nil, &DecodeError{Reason: "frame exceeds maximum size", Err: ErrFrameTooLarge}
	}

	v, n := protowire.ConsumeVarint(raw)
	if n < 0 {
		return nil, &DecodeError{Reason: "unreadable opcode", Err: protowire.ParseError(n)}
	}
	rawOp := protowire.DecodeZigZag(v)
	if rawOp < math.MinInt32 || rawOp > math.MaxInt32 {
		return nil, &DecodeError{Reason: "opcode out of range"}
	}

	frame := &Frame{Opcode: Opcode(rawOp)}
	pos := n
	for pos < len(raw) {
		num, typ, n := protowire.ConsumeTag(raw[pos:])
		if n < 0 {
			return nil, &DecodeError{Offset: pos, Reason: "unreadable field tag", Err: protowire.ParseError(n)}
		}
		kind := Kind(num)
		if num > protowire.Number(KindBool) {
			kind = KindInvalid
		}
		valuePos := pos + n

		switch kind {
		case KindInt, KindBool:
			if typ != protowire.VarintType {
				return nil, &DecodeError{Offset: pos, Reason: "wire type mismatch for " + kind.String()}
			}
			v, m := protowire.ConsumeVarint(raw[valuePos:])
			if m < 0 {
				return nil, &DecodeError{Offset: valuePos, Reason: "truncated " + kind.String(), Err: protowire.ParseError(m)}
			}
			if kind == KindInt {
				frame.args = append(frame.args, Field{Kind: KindInt, Int: protowire.DecodeZigZag(v)})
			} else {
				if v > 1 {
					return nil, &DecodeError{Offset: valuePos, Reason: "invalid bool value"}
				}
				frame.args = append(frame.args, Field{Kind: KindBool, Bool: v == 1})
			}
			pos = valuePos + m
		case KindString:
			if typ != protowire.BytesType {
				return nil, &DecodeError{Offset: pos, Reason: "wire type mismatch for string"}
			}
			s, m := protowire.ConsumeString(raw[valuePos:])
			if m < 0 {
				return nil, &DecodeError{Offset: valuePos, Reason: "truncated string", Err: protowire.ParseError(m)}
			}
			frame.args = append(frame.args, Field{Kind: KindString, Str: s})
			pos = valuePos + m
		default:
			return nil, &DecodeError{Offset: pos, Reason: "unknown field kind"}
		}
	}

	return frame, nil
}
