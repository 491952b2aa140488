package protocol

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for errors.Is checks.
var (
	ErrDecode            = errors.New("protocol: decode error")
	ErrProtocolViolation = errors.New("protocol: violation")
	ErrFrameTooLarge     = errors.New("protocol: frame too large")
)

// DecodeError reports a malformed frame. Offset is the byte position at
// which decoding stopped.
type DecodeError struct {
	Offset int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("failed to decode frame at offset %d: %s", e.Offset, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes every DecodeError match ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ProtocolViolation reports a handler reading a frame in a way the payload
// does not support: past the last argument, or as the wrong kind.
type ProtocolViolation struct {
	Opcode Opcode
	Index  int
	Want   Kind
	Got    Kind // KindInvalid when reading past the end
}

func (e *ProtocolViolation) Error() string {
	if e.Got == KindInvalid {
		return fmt.Sprintf("opcode %d: read %s at argument %d past end of frame", e.Opcode, e.Want, e.Index)
	}
	return fmt.Sprintf("opcode %d: read %s at argument %d, frame has %s", e.Opcode, e.Want, e.Index, e.Got)
}

// Is makes every ProtocolViolation match ErrProtocolViolation.
func (e *ProtocolViolation) Is(target error) bool {
	return target == ErrProtocolViolation
}
