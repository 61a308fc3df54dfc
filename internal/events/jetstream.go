package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jobtrail/internal/shared"
	"github.com/nats-io/nats.go"
)

const (
	defaultStream = "JOBTRAIL"
	defaultPrefix = "jobtrail"
)

// JetStreamPublisher wraps NATS JetStream for publishing events
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	stream string
	prefix string
}

// NewJetStreamPublisher connects to the configured server. An empty URL is a config error.
func NewJetStreamPublisher(cfg shared.EventsConfig) (*JetStreamPublisher, error) {
	if cfg.NATSURL == "" {
		return nil, fmt.Errorf("%w: events.nats_url is empty", shared.ErrMissingConfig)
	}

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("jobtrail"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, stream: cfg.Stream, prefix: cfg.SubjectPrefix}
	if p.stream == "" {
		p.stream = defaultStream
	}
	if p.prefix == "" {
		p.prefix = defaultPrefix
	}
	return p, nil
}

// EnsureStream creates the stream covering "<prefix>.>" if it does not exist yet.
func (p *JetStreamPublisher) EnsureStream(ctx context.Context) error {
	if info, err := p.js.StreamInfo(p.stream, nats.Context(ctx)); err == nil && info != nil {
		return nil
	}

	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:       p.stream,
		Subjects:   []string{p.prefix + ".>"},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		Duplicates: 10 * time.Minute,
		MaxAge:     30 * 24 * time.Hour,
	}, nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil
		}
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Publish sends e with its ID as the deduplication key.
func (p *JetStreamPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := Payload(e)
	if err != nil {
		return err
	}
	if _, err := p.js.Publish(Subject(p.prefix, e), payload, nats.MsgId(e.ID), nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close closes the NATS connection
func (p *JetStreamPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
