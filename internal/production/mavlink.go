package production

import (
	"sync"
	"unicode/utf8"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/hashicorp/go-hclog"

	"github.com/comalice/commanderx/internal/primitives"
)

// statusTextLen is the STATUSTEXT payload size.
const statusTextLen = 50

// MessageWriter is satisfied by *gomavlib.Node.
type MessageWriter interface {
	WriteMessageAll(m message.Message) error
}

func mavSeverity(s primitives.Severity) common.MAV_SEVERITY {
	switch s {
	case primitives.SeverityCritical:
		return common.MAV_SEVERITY_CRITICAL
	case primitives.SeverityWarning:
		return common.MAV_SEVERITY_WARNING
	default:
		return common.MAV_SEVERITY_INFO
	}
}

func statusText(d primitives.Diagnostic) *common.MessageStatustext {
	text := d.Text
	if len(text) > statusTextLen {
		n := statusTextLen
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n]
	}
	return &common.MessageStatustext{
		Severity: mavSeverity(d.Severity),
		Text:     text,
	}
}

// MAVLinkSink sends diagnostics to ground stations as STATUSTEXT. Emit only
// enqueues; a background writer drains the queue and drops on overflow.
type MAVLinkSink struct {
	w     MessageWriter
	l     hclog.Logger
	queue chan primitives.Diagnostic
	done  chan struct{}
	once  sync.Once

	mu      sync.Mutex
	dropped uint64
}

func NewMAVLinkSink(w MessageWriter, l hclog.Logger, queueSize int) *MAVLinkSink {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	if queueSize <= 0 {
		queueSize = 32
	}
	s := &MAVLinkSink{
		w:     w,
		l:     l,
		queue: make(chan primitives.Diagnostic, queueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *MAVLinkSink) Emit(d primitives.Diagnostic) {
	select {
	case s.queue <- d:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	}
}

func (s *MAVLinkSink) run() {
	defer close(s.done)
	for d := range s.queue {
		if err := s.w.WriteMessageAll(statusText(d)); err != nil {
			s.l.Error("statustext write failed", "text", d.Text, "error", err)
		}
	}
}

// Dropped counts diagnostics discarded on a full queue.
func (s *MAVLinkSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close drains pending diagnostics and stops the writer. Emit must not be
// called after Close.
func (s *MAVLinkSink) Close() error {
	s.once.Do(func() { close(s.queue) })
	<-s.done
	return nil
}
