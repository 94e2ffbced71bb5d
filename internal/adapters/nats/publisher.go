// Package natsadapter relays route snapshots between the editing API and
// whatever map surfaces are watching a session (the WebSocket handler
// subscribes on the other side). Snapshots are ephemeral UI state, so this
// uses plain core NATS publishes — no JetStream persistence.
package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Runscount/RunScout/internal/core/domain"
)

// SessionSubject returns the subject route snapshots for a session are
// published on.
func SessionSubject(sessionID string) string {
	return "routes.session." + sessionID
}

// Publisher implements ports.RoutePublisher over NATS.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// PublishSnapshot pushes a route snapshot to the session's subject.
func (p *Publisher) PublishSnapshot(ctx context.Context, snap *domain.RouteSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.conn.Publish(SessionSubject(snap.SessionID), data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect creates a plain NATS connection, also used by the WebSocket relay
// for subscribing.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
