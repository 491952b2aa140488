package protocol

// Frame is one decoded server message. Arguments are read strictly in the
// order they were written through NextInt, NextString and NextBool; there is
// no access by name. A Frame is consumed by a single handler and then
// discarded, so it is not safe for concurrent use.
type Frame struct {
	Opcode Opcode
	args   []Field
	pos    int
}

// NewFrame builds a frame from already-typed arguments.
func NewFrame(op Opcode, args ...Field) *Frame {
	return &Frame{Opcode: op, args: args}
}

// Len returns the total number of arguments.
func (f *Frame) Len() int {
	return len(f.args)
}

// Remaining returns the number of unread arguments.
func (f *Frame) Remaining() int {
	return len(f.args) - f.pos
}

// Args returns a copy of all arguments regardless of the cursor.
func (f *Frame) Args() []Field {
	out := make([]Field, len(f.args))
	copy(out, f.args)
	return out
}

// NextInt reads the next argument as an integer.
func (f *Frame) NextInt() (int, error) {
	field, err := f.next(KindInt)
	if err != nil {
		return 0, err
	}
	return int(field.Int), nil
}

// NextString reads the next argument as a string.
func (f *Frame) NextString() (string, error) {
	field, err := f.next(KindString)
	if err != nil {
		return "", err
	}
	return field.Str, nil
}

// NextBool reads the next argument as a boolean.
func (f *Frame) NextBool() (bool, error) {
	field, err := f.next(KindBool)
	if err != nil {
		return false, err
	}
	return field.Bool, nil
}

// next advances the cursor only on success, so a failed read leaves the
// frame where it was.
func (f *Frame) next(want Kind) (Field, error) {
	if f.pos >= len(f.args) {
		return Field{}, &ProtocolViolation{Opcode: f.Opcode, Index: f.pos, Want: want}
	}
	field := f.args[f.pos]
	if field.Kind != want {
		return Field{}, &ProtocolViolation{Opcode: f.Opcode, Index: f.pos, Want: want, Got: field.Kind}
	}
	f.pos++
	return field, nil
}
