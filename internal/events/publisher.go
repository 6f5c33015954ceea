// Package events publishes user domain events to the message queue.
//
// Publishing is best effort: the outcome of a registration is decided by the
// store before an event is sent, so a broker failure is logged (and the
// envelope optionally spooled to object storage for replay) but never
// reported to the caller.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/usersoap/usersvc/config"
	"github.com/usersoap/usersvc/internal/metrics"
	"github.com/usersoap/usersvc/internal/storage"
	"github.com/usersoap/usersvc/types"
)

const (
	spoolPrefix     = "events/"
	contentTypeJSON = "application/json"
	attrEvent       = "event"
)

// ErrNoSpool is returned by Replay when no spool is configured.
var ErrNoSpool = errors.New("event spool is not configured")

// Broker is the publish side of a message queue backend.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Publisher sends event envelopes to a durable queue.
type Publisher struct {
	broker  Broker
	queue   string
	timeout time.Duration
	spool   storage.ObjectStorage
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewPublisher constructs a Publisher. spool and m may be nil.
func NewPublisher(broker Broker, cfg config.EventsConfig, spool storage.ObjectStorage, m *metrics.Metrics, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		broker:  broker,
		queue:   cfg.Queue,
		timeout: cfg.PublishTimeout,
		spool:   spool,
		metrics: m,
		logger:  logger.With("component", "events", "queue", cfg.Queue),
		now:     time.Now,
	}
}

// Publish wraps data in an envelope of the given kind and sends it to the
// queue. It never fails: errors are logged, counted and, when a spool is
// configured, the envelope is kept for a later Replay.
//
// The attempt is detached from ctx cancellation so a client hanging up after
// the store committed does not drop the event, and is bounded by the
// configured publish timeout.
func (p *Publisher) Publish(ctx context.Context, kind types.EventKind, data any) {
	event := types.Event{
		Event:     kind,
		Data:      data,
		Timestamp: p.now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode event failed", "event", kind, "error", err)
		p.metrics.ObservePublish(string(kind), metrics.ResultFailed)
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	messageID, err := p.broker.Publish(publishCtx, p.queue, body, map[string]string{attrEvent: string(kind)})
	if err != nil {
		p.logger.ErrorContext(ctx, "publish event failed", "event", kind, "error", err)
		p.metrics.ObservePublish(string(kind), metrics.ResultFailed)
		p.spoolEvent(ctx, kind, event.Timestamp, body)
		return
	}

	p.metrics.ObservePublish(string(kind), metrics.ResultOK)
	p.logger.InfoContext(ctx, "event published", "event", kind, "message_id", messageID)
}

func (p *Publisher) spoolEvent(ctx context.Context, kind types.EventKind, ts time.Time, body []byte) {
	if p.spool == nil {
		return
	}

	spoolCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	key := spoolKey(kind, ts)
	if err := p.spool.Put(spoolCtx, key, bytes.NewReader(body), int64(len(body)), contentTypeJSON); err != nil {
		p.logger.ErrorContext(ctx, "spool event failed", "event", kind, "error", err)
		return
	}
	p.metrics.ObserveSpooled(string(kind))
	p.logger.WarnContext(ctx, "event spooled for replay", "event", kind, "key", key)
}

// Replay republishes spooled envelopes oldest first, deleting each one once
// the broker accepted it. It stops at the first failure and reports how many
// envelopes were replayed.
func (p *Publisher) Replay(ctx context.Context) (int, error) {
	if p.spool == nil {
		return 0, ErrNoSpool
	}

	keys, err := p.spool.List(ctx, spoolPrefix)
	if err != nil {
		return 0, fmt.Errorf("list spool: %w", err)
	}
	sort.Slice(keys, func(i, j int) bool {
		return path.Base(keys[i]) < path.Base(keys[j])
	})

	replayed := 0
	for _, key := range keys {
		body, err := p.readSpooled(ctx, key)
		if err != nil {
			return replayed, err
		}

		publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
		_, err = p.broker.Publish(publishCtx, p.queue, body, map[string]string{attrEvent: kindFromKey(key)})
		cancel()
		if err != nil {
			return replayed, fmt.Errorf("republish %s: %w", key, err)
		}

		if err := p.spool.Delete(ctx, key); err != nil {
			return replayed, fmt.Errorf("delete %s: %w", key, err)
		}
		replayed++
		p.logger.InfoContext(ctx, "spooled event replayed", "key", key)
	}
	return replayed, nil
}

func (p *Publisher) readSpooled(ctx context.Context, key string) ([]byte, error) {
	reader, err := p.spool.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return body, nil
}

// spoolKey sorts lexically by publish time within and across kinds.
func spoolKey(kind types.EventKind, ts time.Time) string {
	return fmt.Sprintf("%s%s/%s-%s.json", spoolPrefix, kind, ts.UTC().Format("20060102T150405.000000000Z"), uuid.NewString())
}

func kindFromKey(key string) string {
	rest := strings.TrimPrefix(key, spoolPrefix)
	kind, _, _ := strings.Cut(rest, "/")
	return kind
}
