package notify

import (
	"context"

	"github.com/atrium-access/atrium-core/internal/infrastructure/logging"
)

// Message is one raw delivery from the bus transport.
type Message struct {
	Topic   string
	Payload []byte
}

// Listener drains bus messages from a channel into the pipeline, one
// at a time. A single listener per process keeps ingestion serial so
// feed and audit ordering match delivery order.
type Listener struct {
	pipeline *Pipeline
	messages chan Message
	logger   *logging.Logger
	done     chan struct{}
}

// NewListener creates a listener with an internal buffer of size
// buffer. The transport's delivery callback should hand messages to
// Enqueue and return immediately.
func NewListener(pipeline *Pipeline, buffer int, logger *logging.Logger) *Listener {
	return &Listener{
		pipeline: pipeline,
		messages: make(chan Message, buffer),
		logger:   logger.With("component", "listener"),
		done:     make(chan struct{}),
	}
}

// Enqueue hands a raw delivery to the listener. When the buffer is
// full the message is dropped and a diagnostic logged; blocking the
// transport callback would stall the bus client's network loop.
func (l *Listener) Enqueue(topic string, payload []byte) {
	select {
	case l.messages <- Message{Topic: topic, Payload: payload}:
	default:
		l.logger.Warn("ingestion buffer full, message dropped", "topic", topic)
	}
}

// Run consumes messages until ctx is cancelled. It is intended to be
// launched once as a background goroutine.
func (l *Listener) Run(ctx context.Context) {
	defer close(l.done)
	l.logger.Info("ingestion listener started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("ingestion listener stopping")
			return
		case msg := <-l.messages:
			l.pipeline.Consume(ctx, msg.Topic, msg.Payload)
		}
	}
}

// Done is closed when Run has returned, for shutdown sequencing.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}
