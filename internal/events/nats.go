package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fmuoria/resmo/internal/events")

// NATSPublisher publishes events as JSON messages on NATS subjects
type NATSPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewNATSPublisher connects to NATS, reconnecting forever on connection loss
func NewNATSPublisher(url string, timeout time.Duration, logger *zap.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("resmo"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, logger: logger}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	_, span := tracer.Start(ctx, "nats.Publish")
	defer span.End()

	data, err := json.Marshal(e)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := e.Subject()
	span.SetAttributes(
		attribute.String("nats.subject", subject),
		attribute.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish event",
			zap.String("candidate_id", e.CandidateID),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("candidate_id", e.CandidateID),
		zap.String("subject", subject))
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}
