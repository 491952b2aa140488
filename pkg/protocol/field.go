package protocol

import "strconv"

// Kind is the type of a single message field. The set is closed: int,
// string and bool. On the wire the kind doubles as the protobuf field
// number of the value, so it must never be renumbered.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindString
	KindBool
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Field is one typed value of a message. Only the member matching Kind is
// meaningful.
type Field struct {
	Kind Kind
	Int  int64
	Str  string
	Bool bool
}

// Int returns an integer field.
func Int(v int) Field {
	return Field{Kind: KindInt, Int: int64(v)}
}

// String returns a string field.
func String(v string) Field {
	return Field{Kind: KindString, Str: v}
}

// Bool returns a boolean field.
func Bool(v bool) Field {
	return Field{Kind: KindBool, Bool: v}
}

// GoString renders the field for test failure output.
func (f Field) GoString() string {
	switch f.Kind {
	case KindInt:
		return "Int(" + strconv.FormatInt(f.Int, 10) + ")"
	case KindString:
		return "String(" + strconv.Quote(f.Str) + ")"
	case KindBool:
		return "Bool(" + strconv.FormatBool(f.Bool) + ")"
	default:
		return "Field(invalid)"
	}
}
