package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/render-gateway/internal/events"
	"github.com/JakeFAU/render-gateway/internal/events/memory"
)

type fixedIDs struct{}

func (fixedIDs) NewID() (string, error) { return "evt-1", nil }

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return fixedTime }

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, any) (string, error) {
	return "", errors.New("sink unavailable")
}

type blockingPublisher struct{}

func (blockingPublisher) Publish(ctx context.Context, _ string, _ any) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// publishFailures reads the events failure counter for cause from the default
// registry.
func publishFailures(t *testing.T, cause string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "gateway_dependency_failures_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["dependency"] == "events" && labels["cause"] == cause {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

type deadlinePublisher struct {
	deadline chan time.Time
}

func (p deadlinePublisher) Publish(ctx context.Context, _ string, _ any) (string, error) {
	d, _ := ctx.Deadline()
	p.deadline <- d
	return "ok", nil
}

func TestEmitterPublishes(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	em := events.NewEmitter(pub, "render-events", time.Second, fixedIDs{}, fixedClock{}, zap.NewNop())
	em.Emit(events.RenderEvent{ProductID: "abc123", Path: "/product/abc123", Decision: "rewritten"})
	require.NoError(t, em.Wait(context.Background()))

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "render-events", msgs[0].Topic)
	ev, ok := msgs[0].Payload.(events.RenderEvent)
	require.True(t, ok)
	require.Equal(t, "evt-1", ev.ID)
	require.Equal(t, "abc123", ev.ProductID)
	require.Equal(t, fixedTime, ev.At)
}

func TestEmitterSwallowsFailures(t *testing.T) {
	t.Parallel()

	em := events.NewEmitter(failingPublisher{}, "t", time.Second, nil, nil, nil)
	em.Emit(events.RenderEvent{Path: "/"})
	require.NoError(t, em.Wait(context.Background()))
}

func TestEmitterUsesDetachedTimeout(t *testing.T) {
	t.Parallel()

	pub := deadlinePublisher{deadline: make(chan time.Time, 1)}
	em := events.NewEmitter(pub, "t", 500*time.Millisecond, nil, nil, nil)
	em.Emit(events.RenderEvent{})
	require.NoError(t, em.Wait(context.Background()))

	d := <-pub.deadline
	require.WithinDuration(t, time.Now().Add(500*time.Millisecond), d, 500*time.Millisecond)
}

func TestNilEmitter(t *testing.T) {
	t.Parallel()

	var em *events.Emitter
	em.Emit(events.RenderEvent{})
	require.NoError(t, em.Wait(context.Background()))
}

func TestEmitterRecordsPublishFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		publisher events.Publisher
		cause     string
	}{
		{name: "sink error", publisher: failingPublisher{}, cause: "publish"},
		{name: "deadline", publisher: blockingPublisher{}, cause: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			before := publishFailures(t, tt.cause)
			em := events.NewEmitter(tt.publisher, "t", 20*time.Millisecond, nil, nil, nil)
			em.Emit(events.RenderEvent{Path: "/product/abc123"})
			require.NoError(t, em.Wait(context.Background()))
			require.GreaterOrEqual(t, publishFailures(t, tt.cause), before+1)
		})
	}
}
