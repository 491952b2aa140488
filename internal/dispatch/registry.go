// Package dispatch routes decoded server frames to their handlers.
package dispatch

import (
	"context"
	"sort"

	"github.com/go-faster/errors"

	"github.com/omochice/bobba-client/pkg/protocol"
)

// Registry construction errors.
var (
	ErrDuplicateOpcode = errors.New("dispatch: opcode already registered")
	ErrNilHandler      = errors.New("dispatch: nil handler")
	ErrInvalidOpcode   = errors.New("dispatch: not a server opcode")
)

// Handler consumes one decoded frame. It may only read the frame; it is
// free to mutate collaborator state and to send new messages.
type Handler interface {
	Handle(ctx context.Context, frame *protocol.Frame) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, frame *protocol.Frame) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, frame *protocol.Frame) error {
	return f(ctx, frame)
}

// Entry binds a server opcode to its handler. Name is used in logs, metrics
// and traces.
type Entry struct {
	Opcode  protocol.Opcode
	Name    string
	Handler Handler
}

// Registry maps server opcodes to handlers. It is populated once by
// NewRegistry and never changes afterwards, so it needs no locking.
type Registry struct {
	entries map[protocol.Opcode]Entry
}

// NewRegistry builds a registry from a fixed table. Registering the same
// opcode twice, a nil handler or an opcode missing from the server table
// is a configuration error.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[protocol.Opcode]Entry, len(entries)),
	}

	for _, e := range entries {
		if !protocol.IsServerOpcode(e.Opcode) {
			return nil, errors.Wrapf(ErrInvalidOpcode, "opcode %d", e.Opcode)
		}
		if e.Handler == nil {
			return nil, errors.Wrapf(ErrNilHandler, "opcode %d", e.Opcode)
		}
		if existing, exists := r.entries[e.Opcode]; exists {
			return nil, errors.Wrapf(ErrDuplicateOpcode, "opcode %d (%s and %s)", e.Opcode, existing.Name, e.Name)
		}
		if e.Name == "" {
			e.Name = e.Opcode.ServerName()
		}
		r.entries[e.Opcode] = e
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error. It is meant for
// package-level tables that are fixed at compile time.
func MustNewRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the entry for op. A missing opcode is not an error.
func (r *Registry) Lookup(op protocol.Opcode) (Entry, bool) {
	e, ok := r.entries[op]
	return e, ok
}

// Len returns the number of registered opcodes.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Opcodes returns the registered opcodes in ascending order.
func (r *Registry) Opcodes() []protocol.Opcode {
	ops := make([]protocol.Opcode, 0, len(r.entries))
	for op := range r.entries {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
