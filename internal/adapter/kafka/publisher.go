package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/neighborhood-report-builder/internal/config"
	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	defaultBuffer       = 1024
	defaultMaxAttempts  = 3
	initialBackoff      = 200 * time.Millisecond
	maxBackoff          = 5 * time.Second
	shutdownFlushWindow = 5 * time.Second
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher batches report events onto a Kafka topic.
// It implements report.EventSink.
type Publisher struct {
	writer        messageWriter
	events        chan domain.ReportEvent
	batchSize     int
	flushInterval time.Duration
	maxAttempts   int
	backoff       time.Duration
	clock         clockwork.Clock
	metrics       *observability.Metrics
	logger        *slog.Logger
	running       atomic.Bool
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return newPublisher(w, cfg.BatchSize, cfg.BatchFlushInterval, defaultBuffer, metrics, logger)
}

func newPublisher(w messageWriter, batchSize int, flushInterval time.Duration, buffer int, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer:        w,
		events:        make(chan domain.ReportEvent, buffer),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		maxAttempts:   defaultMaxAttempts,
		backoff:       initialBackoff,
		clock:         clockwork.NewRealClock(),
		metrics:       metrics,
		logger:        logger,
	}
}

// Publish enqueues an event without blocking. Events are dropped when the
// buffer is full.
func (p *Publisher) Publish(event domain.ReportEvent) {
	select {
	case p.events <- event:
	default:
		p.metrics.EventsDropped.Inc()
		p.logger.Warn("event buffer full, dropping report event",
			"kind", event.Kind, "session_id", event.SessionID)
	}
}

// CheckReadiness returns nil once Run is consuming the buffer.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("event publisher is not running")
	}
	return nil
}

// Run drains the buffer in batches until the context is cancelled. A batch is
// written when it reaches batchSize or when the flush interval elapses.
// Buffered events are flushed once more on shutdown.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("event publisher started", "batch_size", p.batchSize, "flush_interval", p.flushInterval)
	p.running.Store(true)
	defer p.running.Store(false)

	ticker := p.clock.NewTicker(p.flushInterval)
	defer ticker.Stop()

	batch := make([]domain.ReportEvent, 0, p.batchSize)
	for {
		select {
		case <-ctx.Done():
			batch = p.drain(batch)
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushWindow)
			p.flush(flushCtx, batch)
			cancel()
			p.logger.Info("event publisher stopping", "reason", ctx.Err())
			return nil
		case ev := <-p.events:
			batch = append(batch, ev)
			if len(batch) >= p.batchSize {
				p.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.Chan():
			if len(batch) > 0 {
				p.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) drain(batch []domain.ReportEvent) []domain.ReportEvent {
	for {
		select {
		case ev := <-p.events:
			batch = append(batch, ev)
		default:
			return batch
		}
	}
}

// flush serializes and writes one batch, retrying with exponential backoff.
// A batch that still fails after maxAttempts is dropped.
func (p *Publisher) flush(ctx context.Context, batch []domain.ReportEvent) {
	if len(batch) == 0 {
		return
	}
	msgs := make([]kafkago.Message, 0, len(batch))
	for i := range batch {
		msg, err := serializeToMessage(batch[i])
		if err != nil {
			p.logger.Error("serialize report event failed", "error", err, "kind", batch[i].Kind)
			p.metrics.PublishErrors.Inc()
			continue
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return
	}

	backoff := p.backoff
	for attempt := 1; ; attempt++ {
		err := p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			p.metrics.EventsPublished.Add(float64(len(msgs)))
			return
		}
		p.logger.Error("write event batch failed", "error", err, "attempt", attempt, "batch_size", len(msgs))
		if attempt >= p.maxAttempts || !p.sleep(ctx, backoff) {
			p.metrics.PublishErrors.Inc()
			return
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (p *Publisher) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

// serializeToMessage marshals a ReportEvent into a Kafka message keyed by
// session so one session's events stay ordered within a partition.
func serializeToMessage(event domain.ReportEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(event.Kind)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
