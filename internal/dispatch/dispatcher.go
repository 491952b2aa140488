package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/omochice/bobba-client/internal/metrics"
	"github.com/omochice/bobba-client/pkg/protocol"
)

const tracerName = "github.com/omochice/bobba-client/internal/dispatch"

// unknownOpcode labels frames that never reached a handler. Opcodes chosen
// by the server are not used as label values.
const unknownOpcode = "unknown"

// Dispatch errors.
var (
	ErrUnroutableOpcode = errors.New("dispatch: no handler for opcode")
	ErrHandlerFailure   = errors.New("dispatch: handler failed")
)

// HandlerFailure wraps an error returned, or a panic raised, by a handler.
type HandlerFailure struct {
	Opcode  protocol.Opcode
	Handler string
	Err     error
	Stack   []byte // set when the handler panicked
}

func (e *HandlerFailure) Error() string {
	return fmt.Sprintf("handler %s (opcode %d) failed: %v", e.Handler, e.Opcode, e.Err)
}

// Is makes every HandlerFailure match ErrHandlerFailure.
func (e *HandlerFailure) Is(target error) bool {
	return target == ErrHandlerFailure
}

func (e *HandlerFailure) Unwrap() error {
	return e.Err
}

// Dispatcher decodes raw frames and invokes the registered handler on the
// calling goroutine. It owns no goroutines: callers feed it one frame at a
// time, in arrival order, which is what keeps handlers from ever running
// concurrently.
//
// Decode errors, unroutable opcodes and handler failures are logged,
// counted and returned, but never stop the caller's loop.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithTracer sets the tracer used for per-frame spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// New creates a dispatcher over registry.
func New(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = metrics.New(nil)
	}
	d.logger = d.logger.Named("dispatch")
	return d
}

// Route decodes raw and dispatches the resulting frame.
func (d *Dispatcher) Route(ctx context.Context, raw []byte) error {
	frame, err := protocol.Decode(raw)
	if err != nil {
		d.logger.Warn("Dropped malformed frame", zap.Int("bytes", len(raw)), zap.Error(err))
		d.metrics.FramesDispatched.WithLabelValues(unknownOpcode, metrics.ResultDecodeError).Inc()
		return err
	}
	return d.RouteFrame(ctx, frame)
}

// RouteFrame dispatches an already decoded frame.
func (d *Dispatcher) RouteFrame(ctx context.Context, frame *protocol.Frame) error {
	op := frame.Opcode
	label := op.String()

	entry, ok := d.registry.Lookup(op)
	if !ok {
		d.logger.Info("No handler for opcode", zap.Int32("opcode", int32(op)))
		d.metrics.FramesDispatched.WithLabelValues(unknownOpcode, metrics.ResultUnroutable).Inc()
		return errors.Wrapf(ErrUnroutableOpcode, "opcode %d", op)
	}

	ctx, span := d.tracer.Start(ctx, "dispatch "+entry.Name,
		trace.WithAttributes(attribute.Int("bobba.opcode", int(op))))
	defer span.End()

	start := time.Now()
	err := d.invoke(ctx, entry, frame)
	d.metrics.HandlerDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn("Handler failed",
			zap.Int32("opcode", int32(op)),
			zap.String("handler", entry.Name),
			zap.Error(err),
		)
		d.metrics.FramesDispatched.WithLabelValues(label, metrics.ResultHandlerError).Inc()
		return err
	}

	if n := frame.Remaining(); n > 0 {
		d.logger.Debug("Handler left arguments unread",
			zap.String("handler", entry.Name),
			zap.Int("remaining", n),
		)
	}
	d.logger.Debug("Handled", zap.Int32("opcode", int32(op)), zap.String("handler", entry.Name))
	d.metrics.FramesDispatched.WithLabelValues(label, metrics.ResultHandled).Inc()
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, entry Entry, frame *protocol.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerFailure{
				Opcode:  entry.Opcode,
				Handler: entry.Name,
				Err:     fmt.Errorf("panic: %v", r),
				Stack:   debug.Stack(),
			}
		}
	}()

	if herr := entry.Handler.Handle(ctx, frame); herr != nil {
		return &HandlerFailure{Opcode: entry.Opcode, Handler: entry.Name, Err: herr}
	}
	return nil
}
