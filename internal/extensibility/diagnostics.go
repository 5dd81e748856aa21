package extensibility

import (
	"github.com/hashicorp/go-hclog"

	"github.com/comalice/commanderx/internal/core"
	"github.com/comalice/commanderx/internal/primitives"
)

// LoggingSink writes diagnostics to a logger, graded by severity.
type LoggingSink struct {
	l hclog.Logger
}

// NewLoggingSink creates a LoggingSink. A nil logger discards everything.
func NewLoggingSink(l hclog.Logger) *LoggingSink {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &LoggingSink{l: l}
}

func (s *LoggingSink) Emit(d primitives.Diagnostic) {
	switch d.Severity {
	case primitives.SeverityCritical:
		s.l.Error(d.Text, "severity", d.Severity)
	case primitives.SeverityWarning:
		s.l.Warn(d.Text, "severity", d.Severity)
	default:
		s.l.Info(d.Text, "severity", d.Severity)
	}
}

// MultiSink forwards every diagnostic to each wrapped sink in order. A sink
// that panics is skipped without affecting the others.
type MultiSink struct {
	sinks []core.DiagnosticSink
	l     hclog.Logger
}

func NewMultiSink(l hclog.Logger, sinks ...core.DiagnosticSink) *MultiSink {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &MultiSink{sinks: sinks, l: l}
}

func (m *MultiSink) Emit(d primitives.Diagnostic) {
	for _, s := range m.sinks {
		m.emitOne(s, d)
	}
}

func (m *MultiSink) emitOne(s core.DiagnosticSink, d primitives.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			m.l.Error("diagnostic sink panicked", "sink", hclog.Fmt("%T", s), "panic", r)
		}
	}()
	s.Emit(d)
}
