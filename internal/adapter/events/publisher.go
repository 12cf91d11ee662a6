// Package events forwards ledger events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/domain"
	"github.com/MagicCL33/Dashboard/internal/observability"
)

const (
	DefaultSubjectPrefix = "dashboard.ledger.events"
	DefaultStream        = "DASHBOARD_LEDGER_EVENTS"
	DefaultBuffer        = 256
)

// streamPublisher is the part of jetstream.JetStream the publisher needs
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamPublisher queues events and publishes them from Run.
// Events published after a successful mutation are best effort: a full queue drops them.
type JetStreamPublisher struct {
	js      streamPublisher
	prefix  string
	queue   chan domain.Event
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewJetStreamPublisher(js streamPublisher, prefix string, buffer int, logger zerolog.Logger, metrics *observability.Metrics) *JetStreamPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &JetStreamPublisher{
		js:      js,
		prefix:  prefix,
		queue:   make(chan domain.Event, buffer),
		logger:  logger,
		metrics: metrics,
	}
}

// Publish never blocks
func (p *JetStreamPublisher) Publish(_ context.Context, evt domain.Event) {
	select {
	case p.queue <- evt:
	default:
		p.metrics.EventPublished("dropped")
		p.logger.Warn().Str("type", evt.Type).Str("subject", evt.Subject).Msg("event queue full, dropping event")
	}
}

// Run publishes queued events until ctx is cancelled
func (p *JetStreamPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-p.queue:
			if err := p.publish(ctx, evt); err != nil {
				p.metrics.EventPublished("error")
				p.logger.Warn().Err(err).Str("type", evt.Type).Msg("event publish failed")
				continue
			}
			p.metrics.EventPublished("ok")
		}
	}
}

func (p *JetStreamPublisher) publish(ctx context.Context, evt domain.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = p.js.Publish(ctx, p.Subject(evt), data)
	return err
}

// Subject is prefix.type
func (p *JetStreamPublisher) Subject(evt domain.Event) string {
	return p.prefix + "." + evt.Type
}

// EnsureStream creates or updates the stream that captures every subject under prefix
func EnsureStream(ctx context.Context, js jetstream.JetStream, name, prefix string) error {
	if name == "" {
		name = DefaultStream
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{prefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure event stream %s: %w", name, err)
	}
	return nil
}
