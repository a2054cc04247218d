// Package events publishes render audit events. Publishing is detached from
// the request: a slow or failing sink never delays or alters a response.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/render-gateway/internal/clock/system"
	"github.com/JakeFAU/render-gateway/internal/telemetry"
)

// RenderEvent describes one document rewritten for a crawler.
type RenderEvent struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id,omitempty"`
	Path      string    `json:"path"`
	Category  string    `json:"category"`
	Crawler   string    `json:"crawler,omitempty"`
	Decision  string    `json:"decision"`
	Enriched  bool      `json:"enriched"`
	At        time.Time `json:"at"`
}

// Publisher delivers a payload to a topic and returns the sink's message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// IDGenerator produces event IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Clock stamps events.
type Clock interface {
	Now() time.Time
}

// Emitter publishes events asynchronously. A nil *Emitter discards events.
type Emitter struct {
	publisher Publisher
	topic     string
	timeout   time.Duration
	ids       IDGenerator
	clock     Clock
	logger    *zap.Logger
	inflight  sync.WaitGroup
}

// NewEmitter builds an Emitter. Each publish gets its own timeout. A nil clock
// uses the system clock.
func NewEmitter(
	publisher Publisher,
	topic string,
	timeout time.Duration,
	ids IDGenerator,
	clock Clock,
	logger *zap.Logger,
) *Emitter {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if clock == nil {
		clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		publisher: publisher,
		topic:     topic,
		timeout:   timeout,
		ids:       ids,
		clock:     clock,
		logger:    logger.Named("events"),
	}
}

// Emit stamps ev with an ID and timestamp when missing and publishes it in
// the background.
func (e *Emitter) Emit(ev RenderEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	if ev.ID == "" && e.ids != nil {
		id, err := e.ids.NewID()
		if err != nil {
			e.logger.Warn("event id generation failed", zap.Error(err))
		}
		ev.ID = id
	}
	if ev.At.IsZero() {
		ev.At = e.clock.Now()
	}

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		start := time.Now()
		msgID, err := e.publisher.Publish(ctx, e.topic, ev)
		telemetry.ObserveDependency(telemetry.DependencyEvents, publishCause(err), time.Since(start))
		if err != nil {
			e.logger.Warn("render event publish failed",
				zap.String("event_id", ev.ID),
				zap.String("product_id", ev.ProductID),
				zap.Error(err),
			)
			return
		}
		e.logger.Debug("render event published",
			zap.String("event_id", ev.ID),
			zap.String("message_id", msgID),
		)
	}()
}

// Wait blocks until every in-flight publish finished or ctx is done.
func (e *Emitter) Wait(ctx context.Context) error {
	if e == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publishCause labels a publish outcome for metrics. Empty means success.
func publishCause(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "publish"
	}
}
