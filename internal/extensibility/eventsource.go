package extensibility

import (
	"sync"
	"time"

	"github.com/comalice/commanderx/internal/core"
	"github.com/comalice/commanderx/internal/primitives"
)

// ChannelEventSource is an EventSource implementation backed by a Go channel.
// Provides a simple way to feed operator requests into Commander.Run.
type ChannelEventSource struct {
	ch chan primitives.Event
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// NewChannelEventSource creates a new ChannelEventSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// TimerEventSource emits tick events so the navigation state is re-evaluated
// ahead of every actuator output cycle.
type TimerEventSource struct {
	ch     chan primitives.Event
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// NewTimerEventSource creates a TimerEventSource that emits a tick every d.
func NewTimerEventSource(d time.Duration) *TimerEventSource {
	t := &TimerEventSource{
		ch:     make(chan primitives.Event, 10),
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerEventSource) run() {
	for {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- primitives.Tick():
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Events returns the event channel.
func (t *TimerEventSource) Events() <-chan primitives.Event {
	return t.ch
}

// Stop stops the ticker and closes the channel. Safe to call twice.
func (t *TimerEventSource) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// MergedEventSource fans several sources into one channel. The merged channel
// closes once every input has closed.
type MergedEventSource struct {
	ch chan primitives.Event
}

func NewMergedEventSource(sources ...core.EventSource) *MergedEventSource {
	m := &MergedEventSource{ch: make(chan primitives.Event, 16)}
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(in <-chan primitives.Event) {
			defer wg.Done()
			for ev := range in {
				m.ch <- ev
			}
		}(src.Events())
	}
	go func() {
		wg.Wait()
		close(m.ch)
	}()
	return m
}

func (m *MergedEventSource) Events() <-chan primitives.Event {
	return m.ch
}
