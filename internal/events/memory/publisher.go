// Package memory contains an in-memory event publisher for tests and local
// runs without a message broker.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// DefaultLimit bounds the messages retained by New.
const DefaultLimit = 1000

// Publisher stores the most recent published payloads for inspection. Older
// messages are discarded once the limit is reached.
type Publisher struct {
	mu       sync.RWMutex
	messages []PublishedMessage
	limit    int
	total    int
	err      error
}

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	Topic   string
	Payload any
}

// New returns a memory Publisher retaining DefaultLimit messages.
func New() *Publisher {
	return NewBounded(DefaultLimit)
}

// NewBounded returns a memory Publisher retaining at most limit messages. A
// non-positive limit uses DefaultLimit.
func NewBounded(limit int) *Publisher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Publisher{limit: limit}
}

// FailWith makes subsequent publishes return err. Nil restores success.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the message and returns a pseudo ID.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", fmt.Errorf("publish to %s: %w", topic, p.err)
	}
	msg := PublishedMessage{Topic: topic, Payload: payload}
	if len(p.messages) < p.limit {
		p.messages = append(p.messages, msg)
	} else {
		copy(p.messages, p.messages[1:])
		p.messages[len(p.messages)-1] = msg
	}
	p.total++
	return fmt.Sprintf("memory-%d", p.total), nil
}

// Total reports how many messages were accepted, including discarded ones.
func (p *Publisher) Total() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.total
}

// Messages returns a copy of the retained publishes, oldest first.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}
