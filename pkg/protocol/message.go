package protocol

// OutgoingMessage is a client intent: an opcode and an ordered, append-only
// list of fields. Build it with the Append methods, hand it to Encode or a
// sender, then drop it. It must not be modified after it has been sent.
type OutgoingMessage struct {
	opcode Opcode
	fields []Field
}

// NewOutgoingMessage starts a message for op.
func NewOutgoingMessage(op Opcode) *OutgoingMessage {
	return &OutgoingMessage{opcode: op}
}

// Opcode returns the message opcode.
func (m *OutgoingMessage) Opcode() Opcode {
	return m.opcode
}

// Name returns the client-table name of the message opcode.
func (m *OutgoingMessage) Name() string {
	return m.opcode.ClientName()
}

// Fields returns a copy of the fields in declaration order.
func (m *OutgoingMessage) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// AppendInt appends an integer field.
func (m *OutgoingMessage) AppendInt(v int) *OutgoingMessage {
	m.fields = append(m.fields, Int(v))
	return m
}

// AppendString appends a string field.
func (m *OutgoingMessage) AppendString(v string) *OutgoingMessage {
	m.fields = append(m.fields, String(v))
	return m
}

// AppendBool appends a boolean field.
func (m *OutgoingMessage) AppendBool(v bool) *OutgoingMessage {
	m.fields = append(m.fields, Bool(v))
	return m
}

// Encode serializes the message to a wire payload.
func (m *OutgoingMessage) Encode() ([]byte, error) {
	return Encode(m.opcode, m.fields)
}
