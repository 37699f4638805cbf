// Package notify forwards run events to external consumers over NATS.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/espdocs/internal/eventstore"
	"git.home.luguber.info/inful/espdocs/internal/logfields"
)

const publishTimeout = 5 * time.Second

// Sink receives run events.
type Sink interface {
	Record(ctx context.Context, e eventstore.Event) error
}

// Envelope is the JSON document published for each event.
type Envelope struct {
	RunID     string            `json:"run_id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Data      json.RawMessage   `json:"data"`
}

// NewEnvelope wraps an event for publishing.
func NewEnvelope(e eventstore.Event) Envelope {
	return Envelope{
		RunID:     e.RunID(),
		Type:      e.Type(),
		Timestamp: e.Timestamp(),
		Metadata:  e.Metadata(),
		Data:      json.RawMessage(e.Payload()),
	}
}

type publishFunc func(ctx context.Context, subject string, data []byte) error

// Publisher publishes events to a NATS subject suffixed with the event type.
type Publisher struct {
	conn    *nats.Conn
	subject string
	publish publishFunc
}

// NewPublisher connects to url. With useJetStream the events are published
// through JetStream and acknowledged by the stream owning subject.
func NewPublisher(url, subject string, useJetStream bool) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("espdocs"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p := &Publisher{conn: conn, subject: subject}
	if useJetStream {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		p.publish = func(ctx context.Context, subj string, data []byte) error {
			_, err := js.Publish(ctx, subj, data)
			return err
		}
	} else {
		p.publish = func(_ context.Context, subj string, data []byte) error {
			return conn.Publish(subj, data)
		}
	}

	slog.Info("NATS publisher initialized", logfields.URL(url), slog.String("subject", subject), slog.Bool("jetstream", useJetStream))
	return p, nil
}

// Subject returns the subject an event of the given type is published on.
func (p *Publisher) Subject(eventType string) string {
	return p.subject + "." + eventType
}

// Record publishes e.
func (p *Publisher) Record(ctx context.Context, e eventstore.Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	data, err := json.Marshal(NewEnvelope(e))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.publish(ctx, p.Subject(e.Type()), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	slog.Debug("Published run event", logfields.RunID(e.RunID()), slog.String("type", e.Type()))
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// Fanout records every event to all sinks and joins their errors.
type Fanout []Sink

func (f Fanout) Record(ctx context.Context, e eventstore.Event) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
