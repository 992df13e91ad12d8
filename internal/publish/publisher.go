package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/ppiankov/donotmiss/internal/model"
)

// DefaultSubject is where detection events go unless configured otherwise
const DefaultSubject = "donotmiss.tasks.detected"

// Conn is the subset of *nats.Conn the publisher needs
type Conn interface {
	Publish(subj string, data []byte) error
}

// Event is one detection result handed to the storage collaborator
type Event struct {
	ID          string       `json:"id"`
	Source      string       `json:"source"`
	URL         string       `json:"url,omitempty"`
	Count       int          `json:"count"`
	Tasks       []model.Task `json:"tasks"`
	PublishedAt time.Time    `json:"published_at"`
}

// Publisher sends detection events over NATS
type Publisher struct {
	conn    Conn
	subject string
	logger  *zap.Logger
	now     func() time.Time
}

// NewPublisher wraps an established connection
func NewPublisher(conn Conn, subject string, logger *zap.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
		now:     time.Now,
	}
}

// Connect dials the configured NATS server. It returns nil, nil when no
// server is configured.
func Connect(cfg model.PublishConfig, logger *zap.Logger) (*Publisher, *nats.Conn, error) {
	if cfg.NatsURL == "" {
		return nil, nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []nats.Option{
		nats.Name("donotmiss"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
	}
	if cfg.NatsToken != "" {
		opts = append(opts, nats.Token(cfg.NatsToken))
	}

	nc, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}

	return NewPublisher(nc, cfg.Subject, logger), nc, nil
}

// Publish sends one event for tasks detected in ec. Empty results are not sent.
func (p *Publisher) Publish(ctx context.Context, ec model.ExtractionContext, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	source := ec.Source
	if source == "" {
		source = tasks[0].Source
	}

	event := Event{
		ID:          uuid.NewString(),
		Source:      source,
		URL:         ec.URL,
		Count:       len(tasks),
		Tasks:       tasks,
		PublishedAt: p.now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}

	p.logger.Debug("published detection event",
		zap.String("id", event.ID),
		zap.String("subject", p.subject),
		zap.Int("count", event.Count))
	return nil
}

// Close drains and closes nc; a nil connection is a no-op
func Close(nc *nats.Conn) error {
	if nc == nil {
		return nil
	}
	return nc.Drain()
}
