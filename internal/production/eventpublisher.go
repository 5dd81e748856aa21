package production

import (
	"context"
	"sync"

	"github.com/comalice/commanderx/internal/core"
)

// ChannelPublisher is a stdlib-only implementation that forwards status
// snapshots to a Go channel. Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	mu      sync.Mutex
	ch      chan<- core.StatusSnapshot
	closed  bool
	dropped uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- core.StatusSnapshot) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, snapshot core.StatusSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case p.ch <- snapshot:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.dropped++
		return nil // Non-blocking drop
	}
}

// Dropped counts snapshots discarded because the subscriber was behind.
func (p *ChannelPublisher) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

// FanoutPublisher publishes to every wrapped publisher and returns the first
// error.
type FanoutPublisher []core.StatusPublisher

func (f FanoutPublisher) Publish(ctx context.Context, snapshot core.StatusSnapshot) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, snapshot); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f FanoutPublisher) Close() error {
	var first error
	for _, p := range f {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
