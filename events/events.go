// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects
const (
	SubjectProjectCreated  = "streetcred.project.created"
	SubjectProjectUpdated  = "streetcred.project.updated"
	SubjectProjectDeleted  = "streetcred.project.deleted"
	SubjectProjectFeatured = "streetcred.project.featured"
	SubjectRatingSubmitted = "streetcred.rating.submitted"
	SubjectUserCreated     = "streetcred.user.created"
	SubjectUserUpdated     = "streetcred.user.updated"
)

// Event is the envelope written to every subject
type Event struct {
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// Publisher sends domain events
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// Nop drops every event
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
func (Nop) Close() error                                       { return nil }

// Sender is the raw publish call shared by *nats.Conn and the embedded broker
type Sender interface {
	Publish(subject string, data []byte) error
}

// NATS publishes JSON envelopes through a Sender
type NATS struct {
	sender Sender
	// owned is set when Connect dialed the connection
	owned *nats.Conn
}

// NewNATS publishes through an existing sender; Close leaves it open.
func NewNATS(sender Sender) *NATS {
	return &NATS{sender: sender}
}

// Connect dials url and owns the resulting connection
func Connect(url string) (*NATS, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("streetcred-backend"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return &NATS{sender: nc, owned: nc}, nil
}

func (p *NATS) Publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(Event{
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}
	if err := p.sender.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *NATS) Close() error {
	if p.owned == nil {
		return nil
	}
	if err := p.owned.Drain(); err != nil {
		p.owned.Close()
		return err
	}
	return nil
}
