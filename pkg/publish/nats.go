package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject snapshots are published to unless
// configured otherwise.
const DefaultSubject = "glcollect.snapshots"

// Message is the envelope published for each fresh snapshot.
type Message struct {
	RepoURL  string          `json:"repo_url"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// NATS publishes snapshots to a NATS subject.
type NATS struct {
	conn    *nats.Conn
	subject string
}

// NewNATS connects to the given NATS server. An empty subject selects
// [DefaultSubject].
func NewNATS(serverURL, subject string) (*NATS, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(serverURL)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATS{conn: conn, subject: subject}, nil
}

// Publish sends one snapshot envelope.
func (n *NATS) Publish(ctx context.Context, repoURL string, snapshot []byte) error {
	data, err := json.Marshal(Message{RepoURL: repoURL, Snapshot: snapshot})
	if err != nil {
		return fmt.Errorf("marshal snapshot message: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// Ensure NATS implements Publisher.
var _ Publisher = (*NATS)(nil)
