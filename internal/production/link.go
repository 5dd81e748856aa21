package production

import (
	"context"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/hashicorp/go-hclog"

	"github.com/comalice/commanderx/internal/primitives"
)

// Dispatcher is satisfied by *core.Commander.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev primitives.Event) (primitives.TransitionResult, error)
}

// LinkConfig tunes a Link.
type LinkConfig struct {
	// SystemID is this vehicle's MAVLink system id. Commands for other
	// systems are ignored and vehicle telemetry is only read from it.
	SystemID uint8
	// HeartbeatTimeout marks the data link lost when no GCS heartbeat
	// arrives in time.
	HeartbeatTimeout time.Duration
	// RCTimeout marks the RC signal lost when RC_CHANNELS stops reporting
	// channels. Zero disables RC monitoring.
	RCTimeout time.Duration
}

// Link turns MAVLink traffic into commander requests:
//   - COMMAND_LONG arm, disarm and set-mode are dispatched and acknowledged
//   - SYS_STATUS sensor health and HOME_POSITION become condition updates
//   - GCS heartbeats and RC_CHANNELS keep the data link and RC signal alive
type Link struct {
	w   MessageWriter
	d   Dispatcher
	cfg LinkConfig
	l   hclog.Logger
	now func() time.Time

	lastGCS  time.Time
	linkLost bool
	lastRC   time.Time
	rcLost   bool

	cond     primitives.Conditions
	condSent bool
}

func NewLink(w MessageWriter, d Dispatcher, cfg LinkConfig, l hclog.Logger) *Link {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = 3 * time.Second
	}
	k := &Link{w: w, d: d, cfg: cfg, l: l, now: time.Now}
	k.lastGCS = k.now()
	k.lastRC = k.lastGCS
	return k
}

func (k *Link) checkPeriod() time.Duration {
	timeout := k.cfg.HeartbeatTimeout
	if k.cfg.RCTimeout > 0 && k.cfg.RCTimeout < timeout {
		timeout = k.cfg.RCTimeout
	}
	if timeout/2 > 0 {
		return timeout / 2
	}
	return timeout
}

// Serve processes node events until ctx is done or events closes.
func (k *Link) Serve(ctx context.Context, events <-chan gomavlib.Event) error {
	check := time.NewTicker(k.checkPeriod())
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-check.C:
			k.checkTimeouts(ctx)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case *gomavlib.EventFrame:
				k.handleMessage(ctx, e.SystemID(), e.ComponentID(), e.Message())
			case *gomavlib.EventChannelOpen:
				k.l.Info("mavlink channel open", "channel", e.Channel)
			case *gomavlib.EventChannelClose:
				k.l.Info("mavlink channel closed", "channel", e.Channel)
			}
		}
	}
}

func (k *Link) handleMessage(ctx context.Context, sysID, compID uint8, msg message.Message) {
	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		if m.Type != common.MAV_TYPE_GCS {
			return
		}
		k.lastGCS = k.now()
		if k.linkLost {
			k.linkLost = false
			k.l.Info("data link regained", "gcs", sysID)
			k.dispatch(ctx, primitives.DataLinkUpdate(false))
		}

	case *common.MessageCommandLong:
		if m.TargetSystem != 0 && m.TargetSystem != k.cfg.SystemID {
			return
		}
		events, ok := commandEvents(m)
		if !ok {
			k.ack(m.Command, common.MAV_RESULT_UNSUPPORTED, sysID, compID)
			return
		}
		result := common.MAV_RESULT_ACCEPTED
		for _, ev := range events {
			if res := k.dispatch(ctx, ev); res == primitives.TransitionDenied {
				result = common.MAV_RESULT_DENIED
			}
		}
		k.ack(m.Command, result, sysID, compID)

	case *common.MessageSysStatus:
		if sysID != k.cfg.SystemID {
			return
		}
		home := k.cond.HomePositionValid
		k.setConditions(ctx, sensorConditions(m, home))

	case *common.MessageHomePosition:
		if sysID != k.cfg.SystemID {
			return
		}
		cond := k.cond
		cond.HomePositionValid = true
		k.setConditions(ctx, cond)

	case *common.MessageRcChannels:
		if sysID != k.cfg.SystemID || k.cfg.RCTimeout <= 0 || m.Chancount == 0 {
			return
		}
		k.lastRC = k.now()
		if k.rcLost {
			k.rcLost = false
			k.l.Info("rc signal regained")
			k.dispatch(ctx, primitives.RCSignalUpdate(false))
		}
	}
}

func (k *Link) setConditions(ctx context.Context, cond primitives.Conditions) {
	if k.condSent && cond == k.cond {
		return
	}
	k.cond = cond
	k.condSent = true
	k.dispatch(ctx, primitives.ConditionsUpdate(cond))
}

// sensorConditions derives validity flags from SYS_STATUS health bits. A
// sensor counts only when it is both present and healthy.
func sensorConditions(m *common.MessageSysStatus, home bool) primitives.Conditions {
	healthy := func(bits common.MAV_SYS_STATUS_SENSOR) bool {
		return m.OnboardControlSensorsPresent&bits == bits && m.OnboardControlSensorsHealth&bits == bits
	}
	gps := healthy(common.MAV_SYS_STATUS_SENSOR_GPS)
	return primitives.Conditions{
		SystemSensorsInitialized: healthy(common.MAV_SYS_STATUS_SENSOR_3D_GYRO | common.MAV_SYS_STATUS_SENSOR_3D_ACCEL),
		GlobalPositionValid:      gps,
		LocalPositionValid: gps ||
			healthy(common.MAV_SYS_STATUS_SENSOR_OPTICAL_FLOW) ||
			healthy(common.MAV_SYS_STATUS_SENSOR_VISION_POSITION),
		LocalAltitudeValid: gps || healthy(common.MAV_SYS_STATUS_SENSOR_ABSOLUTE_PRESSURE),
		HomePositionValid:  home,
	}
}

// commandEvents maps a COMMAND_LONG to commander requests.
func commandEvents(m *common.MessageCommandLong) ([]primitives.Event, bool) {
	switch m.Command {
	case common.MAV_CMD_COMPONENT_ARM_DISARM:
		switch m.Param1 {
		case 1:
			return []primitives.Event{primitives.ArmRequest(primitives.ArmingArmed)}, true
		case 0:
			return []primitives.Event{primitives.ArmRequest(primitives.ArmingStandby)}, true
		}
		return nil, false

	case common.MAV_CMD_DO_SET_MODE:
		var events []primitives.Event
		// HIL can never be switched off in flight, so only the enable flag
		// is forwarded.
		if uint32(m.Param1)&uint32(common.MAV_MODE_FLAG_HIL_ENABLED) != 0 {
			events = append(events, primitives.HILRequest(primitives.HILOn))
		}
		if m.Param2 >= 0 {
			mode := primitives.MainState(uint8(m.Param2))
			if !mode.Valid() || float32(mode) != m.Param2 {
				return nil, false
			}
			events = append(events, primitives.ModeRequest(mode))
		}
		if len(events) == 0 {
			return nil, false
		}
		return events, true
	}
	return nil, false
}

func (k *Link) dispatch(ctx context.Context, ev primitives.Event) primitives.TransitionResult {
	res, err := k.d.Dispatch(ctx, ev)
	if err != nil {
		k.l.Warn("mavlink request rejected", "type", ev.Type, "error", err)
	}
	return res
}

func (k *Link) ack(cmd common.MAV_CMD, result common.MAV_RESULT, sysID, compID uint8) {
	err := k.w.WriteMessageAll(&common.MessageCommandAck{
		Command:         cmd,
		Result:          result,
		TargetSystem:    sysID,
		TargetComponent: compID,
	})
	if err != nil {
		k.l.Error("command ack write failed", "command", cmd, "error", err)
	}
}

func (k *Link) checkTimeouts(ctx context.Context) {
	now := k.now()
	if !k.linkLost && now.Sub(k.lastGCS) > k.cfg.HeartbeatTimeout {
		k.linkLost = true
		k.l.Warn("data link lost", "since", k.lastGCS)
		k.dispatch(ctx, primitives.DataLinkUpdate(true))
	}
	if k.cfg.RCTimeout > 0 && !k.rcLost && now.Sub(k.lastRC) > k.cfg.RCTimeout {
		k.rcLost = true
		k.l.Warn("rc signal lost", "since", k.lastRC)
		k.dispatch(ctx, primitives.RCSignalUpdate(true))
	}
}
