package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/sasha-s/go-deadlock"

	"github.com/comalice/commanderx/internal/primitives"
)

var (
	ErrUnknownEvent = errors.New("unknown event type")
	ErrBadPayload   = errors.New("unexpected event payload")
	ErrNoPersister  = errors.New("no persister configured")
)

// Commander owns the vehicle status record. Every mutation runs inside one
// short critical section so readers never see armed outputs without the
// matching arming state. Diagnostics, publishing and persistence happen after
// the lock is released.
// Safe for concurrent use from the control loop, command handlers and
// telemetry handlers.
type Commander struct {
	mu     deadlock.RWMutex
	status primitives.VehicleStatus
	safety primitives.SafetyStatus
	armed  primitives.ActuatorArmed
	seq    uint64

	vehicleID   string
	session     string
	since       func() time.Duration
	autoStandby bool

	l          hclog.Logger
	sink       DiagnosticSink
	devices    Devices
	publisher  StatusPublisher
	persister  Persister
	visualizer Visualizer

	saveMu   sync.Mutex
	savedSeq uint64
	pending  sync.WaitGroup
}

// commit is a snapshot taken inside the critical section with its sequence.
type commit struct {
	snap StatusSnapshot
	seq  uint64
}

// NewCommander creates a Commander in ARMING_STATE_INIT, MANUAL, HIL off.
func NewCommander(opts ...Option) *Commander {
	boot := time.Now()
	c := &Commander{
		status: primitives.VehicleStatus{
			ArmingState: primitives.ArmingInit,
			MainState:   primitives.MainManual,
			NavState:    primitives.NavManual,
			HILState:    primitives.HILOff,
		},
		vehicleID: "vehicle",
		session:   uuid.NewString(),
		since:     func() time.Duration { return time.Since(boot) },
		l:         hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns a copy of the vehicle status.
func (c *Commander) Status() primitives.VehicleStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Armed returns a copy of the actuator armed contract.
func (c *Commander) Armed() primitives.ActuatorArmed {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.armed
}

// Snapshot returns status, safety and armed outputs read under one lock.
func (c *Commander) Snapshot() StatusSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return StatusSnapshot{
		VehicleID: c.vehicleID,
		Session:   c.session,
		Status:    c.status,
		Safety:    c.safety,
		Armed:     c.armed,
		Timestamp: time.Now(),
	}
}

func (c *Commander) Safety() primitives.SafetyStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.safety
}

// IsSafe reports whether actuators are unable to produce physical output.
func (c *Commander) IsSafe() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return IsSafe(c.safety, c.armed)
}

func (c *Commander) Session() string { return c.session }

func (c *Commander) VehicleID() string { return c.vehicleID }

// RequestArming asks for a new arming state.
func (c *Commander) RequestArming(ctx context.Context, requested primitives.ArmingState) primitives.TransitionResult {
	var res primitives.TransitionResult
	c.update(ctx, "arm", func() (bool, []primitives.Diagnostic) {
		var diags []primitives.Diagnostic
		res, diags = ArmingTransition(&c.status, c.safety, requested, &c.armed)
		return res == primitives.TransitionChanged, diags
	})
	return res
}

// RequestMainState asks for a new flight mode.
func (c *Commander) RequestMainState(ctx context.Context, requested primitives.MainState) primitives.TransitionResult {
	var res primitives.TransitionResult
	c.update(ctx, "mode", func() (bool, []primitives.Diagnostic) {
		var diags []primitives.Diagnostic
		res, diags = MainStateTransition(&c.status, requested)
		return res == primitives.TransitionChanged, diags
	})
	return res
}

// RequestHIL asks to switch hardware-in-the-loop simulation. Entering HIL
// blocks sensor publication on every enumerated device before committing;
// device work runs outside the lock and is not rolled back if the arming
// state changes in the meantime.
func (c *Commander) RequestHIL(ctx context.Context, requested primitives.HILState) primitives.TransitionResult {
	current := c.Status()
	res, diags := HILTransition(&current, requested)
	if res != primitives.TransitionChanged {
		c.emit(diags)
		return res
	}

	if err := c.blockSensors(); err != nil {
		c.l.Error("device enumeration failed", "error", err)
		c.emit([]primitives.Diagnostic{{
			Severity: primitives.SeverityInfo,
			Text:     "FAILED LISTING DEVICE ROOT DIRECTORY",
		}})
		return primitives.TransitionDenied
	}

	c.update(ctx, "hil", func() (bool, []primitives.Diagnostic) {
		res, diags = HILTransition(&c.status, requested)
		if res != primitives.TransitionChanged {
			return false, diags
		}
		c.status.HILState = requested
		return true, []primitives.Diagnostic{{
			Severity: primitives.SeverityCritical,
			Text:     "Switched to ON hil state",
		}}
	})
	if res != primitives.TransitionChanged {
		c.l.Warn("sensors blocked but hil entry re-check denied", "arming_state", c.Status().ArmingState)
	}
	return res
}

func (c *Commander) blockSensors() error {
	if c.devices == nil {
		return nil
	}
	devs, err := c.devices.Blockable()
	if err != nil {
		return err
	}
	for _, dev := range devs {
		if err := c.devices.Block(dev); err != nil {
			c.l.Warn("disabling device", "device", dev, "result", "ERROR", "error", err)
			continue
		}
		c.l.Info("disabling device", "device", dev, "result", "OK")
	}
	return nil
}

// UpdateConditions replaces the validity flags and re-evaluates navigation.
// With WithAutoStandby, a vehicle still in INIT moves to STANDBY in the same
// critical section once its sensors report initialized.
func (c *Commander) UpdateConditions(ctx context.Context, cond primitives.Conditions) bool {
	return c.update(ctx, "conditions", func() (bool, []primitives.Diagnostic) {
		changed := c.status.Conditions != cond
		c.status.Conditions = cond
		if !c.autoStandby || c.status.ArmingState != primitives.ArmingInit || !cond.SystemSensorsInitialized {
			return changed, nil
		}
		res, diags := ArmingTransition(&c.status, c.safety, primitives.ArmingStandby, &c.armed)
		return changed || res == primitives.TransitionChanged, diags
	})
}

// UpdateLink applies the non-nil link flags and re-evaluates navigation.
func (c *Commander) UpdateLink(ctx context.Context, u primitives.LinkUpdate) bool {
	return c.update(ctx, "link", func() (bool, []primitives.Diagnostic) {
		changed := false
		if u.RCSignalLost != nil && c.status.RCSignalLost != *u.RCSignalLost {
			c.status.RCSignalLost = *u.RCSignalLost
			changed = true
		}
		if u.DataLinkLost != nil && c.status.DataLinkLost != *u.DataLinkLost {
			c.status.DataLinkLost = *u.DataLinkLost
			changed = true
		}
		return changed, nil
	})
}

// UpdateSafety records the safety interlock state.
func (c *Commander) UpdateSafety(ctx context.Context, s primitives.SafetyStatus) bool {
	return c.update(ctx, "safety", func() (bool, []primitives.Diagnostic) {
		changed := c.safety != s
		c.safety = s
		return changed, nil
	})
}

// Tick re-evaluates the navigation state ahead of an actuator output cycle.
func (c *Commander) Tick(ctx context.Context) bool {
	return c.update(ctx, "tick", func() (bool, []primitives.Diagnostic) {
		return false, nil
	})
}

// update runs fn inside the critical section, re-evaluates the navigation
// state and commits when fn or the re-evaluation changed anything. It reports
// whether a snapshot was committed.
func (c *Commander) update(ctx context.Context, kind string, fn func() (bool, []primitives.Diagnostic)) bool {
	c.mu.Lock()
	before := c.status
	changed, diags := fn()
	navChanged := SetNavState(&c.status)
	var cm *commit
	if changed || navChanged || before.Failsafe != c.status.Failsafe {
		cm = c.commitLocked(kind)
	}
	after := c.status
	c.mu.Unlock()

	c.emit(diags)
	c.logNav(before, after)
	c.afterCommit(ctx, cm)
	return cm != nil
}

func (c *Commander) commitLocked(reason string) *commit {
	c.seq++
	c.status.Timestamp = c.since()
	snap := StatusSnapshot{
		VehicleID: c.vehicleID,
		Session:   c.session,
		Status:    c.status,
		Safety:    c.safety,
		Armed:     c.armed,
		Reason:    reason,
		Timestamp: time.Now(),
	}
	return &commit{snap: snap, seq: c.seq}
}

func (c *Commander) logNav(before, after primitives.VehicleStatus) {
	if before.ArmingState != after.ArmingState {
		c.l.Info("arming state changed", "from", before.ArmingState, "to", after.ArmingState)
	}
	if before.MainState != after.MainState {
		c.l.Info("main state changed", "from", before.MainState, "to", after.MainState)
	}
	if before.NavState != after.NavState {
		c.l.Info("navigation state changed", "from", before.NavState, "to", after.NavState, "failsafe", after.Failsafe)
	}
	if !before.Failsafe && after.Failsafe {
		c.l.Warn("failsafe engaged", "main_state", after.MainState, "nav_state", after.NavState)
	}
}

// emit hands diagnostics to the sink, or to the logger when none is set.
func (c *Commander) emit(diags []primitives.Diagnostic) {
	for _, d := range diags {
		if c.sink != nil {
			c.sink.Emit(d)
			continue
		}
		switch d.Severity {
		case primitives.SeverityInfo:
			c.l.Info(d.Text)
		default:
			c.l.Warn(d.Text)
		}
	}
}

// afterCommit publishes synchronously and persists in the background. Only
// the newest snapshot is written when saves overtake each other.
func (c *Commander) afterCommit(ctx context.Context, cm *commit) {
	if cm == nil {
		return
	}
	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, cm.snap); err != nil {
			c.l.Error("status publish failed", "error", err)
		}
	}
	if c.persister == nil {
		return
	}
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		c.saveMu.Lock()
		defer c.saveMu.Unlock()
		if cm.seq <= c.savedSeq {
			return
		}
		if err := c.persister.Save(context.Background(), cm.snap); err != nil {
			c.l.Error("status persist failed", "error", err)
			return
		}
		c.savedSeq = cm.seq
	}()
}

// Flush waits for background snapshot writes.
func (c *Commander) Flush() {
	c.pending.Wait()
}

// PreviousSnapshot loads the last persisted snapshot for this vehicle.
func (c *Commander) PreviousSnapshot(ctx context.Context) (StatusSnapshot, error) {
	if c.persister == nil {
		return StatusSnapshot{}, ErrNoPersister
	}
	return c.persister.Load(ctx, c.vehicleID)
}

// Visualize renders the arming transition table around the current state.
func (c *Commander) Visualize() string {
	if c.visualizer == nil {
		return ""
	}
	return c.visualizer.ExportDOT(c.Status().ArmingState)
}

// Dispatch routes one request event to the matching operation.
func (c *Commander) Dispatch(ctx context.Context, ev primitives.Event) (primitives.TransitionResult, error) {
	switch ev.Type {
	case primitives.EvArm:
		s, ok := ev.Data.(primitives.ArmingState)
		if !ok {
			return primitives.TransitionDenied, payloadErr(ev)
		}
		return c.RequestArming(ctx, s), nil
	case primitives.EvMode:
		s, ok := ev.Data.(primitives.MainState)
		if !ok {
			return primitives.TransitionDenied, payloadErr(ev)
		}
		return c.RequestMainState(ctx, s), nil
	case primitives.EvHIL:
		s, ok := ev.Data.(primitives.HILState)
		if !ok {
			return primitives.TransitionDenied, payloadErr(ev)
		}
		return c.RequestHIL(ctx, s), nil
	case primitives.EvConditions:
		cond, ok := ev.Data.(primitives.Conditions)
		if !ok {
			return primitives.TransitionDenied, payloadErr(ev)
		}
		return changedResult(c.UpdateConditions(ctx, cond)), nil
	case primitives.EvLink:
		u, ok := ev.Data.(primitives.LinkUpdate)
		if !ok {
			return primitives.TransitionDenied, payloadErr(ev)
		}
		return changedResult(c.UpdateLink(ctx, u)), nil
	case primitives.EvSafety:
		s, ok := ev.Data.(primitives.SafetyStatus)
		if !ok {
			return primitives.TransitionDenied, payloadErr(ev)
		}
		return changedResult(c.UpdateSafety(ctx, s)), nil
	case primitives.EvTick:
		return changedResult(c.Tick(ctx)), nil
	}
	return primitives.TransitionDenied, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
}

// Run feeds events from src into Dispatch until ctx is done or src closes.
func (c *Commander) Run(ctx context.Context, src EventSource) error {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := c.Dispatch(ctx, ev); err != nil {
				c.l.Warn("dropping event", "type", ev.Type, "error", err)
			}
		}
	}
}

func payloadErr(ev primitives.Event) error {
	return fmt.Errorf("%w: %s carries %T", ErrBadPayload, ev.Type, ev.Data)
}

func changedResult(changed bool) primitives.TransitionResult {
	if changed {
		return primitives.TransitionChanged
	}
	return primitives.TransitionNotChanged
}
