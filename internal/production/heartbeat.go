package production

import (
	"context"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/hashicorp/go-hclog"

	"github.com/comalice/commanderx/internal/core"
	"github.com/comalice/commanderx/internal/primitives"
)

// HeartbeatPublisher advertises the latest committed status as the vehicle's
// MAVLink HEARTBEAT. It sends periodically and immediately after each
// Publish. Publish never blocks on the link.
type HeartbeatPublisher struct {
	w MessageWriter
	l hclog.Logger

	mu   sync.Mutex
	last core.StatusSnapshot
	have bool

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewHeartbeatPublisher(w MessageWriter, l hclog.Logger, period time.Duration) *HeartbeatPublisher {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	if period <= 0 {
		period = time.Second
	}
	p := &HeartbeatPublisher{
		w:    w,
		l:    l,
		kick: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go p.run(period)
	return p
}

func (p *HeartbeatPublisher) Publish(ctx context.Context, snapshot core.StatusSnapshot) error {
	p.mu.Lock()
	p.last = snapshot
	p.have = true
	p.mu.Unlock()
	select {
	case p.kick <- struct{}{}:
	default:
	}
	return nil
}

func (p *HeartbeatPublisher) run(period time.Duration) {
	defer close(p.done)
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-t.C:
		case <-p.kick:
		}
		p.mu.Lock()
		snap, have := p.last, p.have
		p.mu.Unlock()
		if !have {
			continue
		}
		if err := p.w.WriteMessageAll(heartbeat(snap.Status)); err != nil {
			p.l.Error("heartbeat write failed", "error", err)
		}
	}
}

func (p *HeartbeatPublisher) Close() error {
	p.once.Do(func() { close(p.stop) })
	<-p.done
	return nil
}

// heartbeat encodes a status as HEARTBEAT. custom_mode carries the main
// state ordinal, the same value DO_SET_MODE accepts in param2.
func heartbeat(st primitives.VehicleStatus) *common.MessageHeartbeat {
	mode := common.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED
	switch st.MainState {
	case primitives.MainManual, primitives.MainAcro:
		mode |= common.MAV_MODE_FLAG_MANUAL_INPUT_ENABLED
	case primitives.MainAltCtl, primitives.MainPosCtl:
		mode |= common.MAV_MODE_FLAG_MANUAL_INPUT_ENABLED | common.MAV_MODE_FLAG_STABILIZE_ENABLED
	default:
		mode |= common.MAV_MODE_FLAG_AUTO_ENABLED | common.MAV_MODE_FLAG_GUIDED_ENABLED
	}
	if st.ArmingState.Armed() {
		mode |= common.MAV_MODE_FLAG_SAFETY_ARMED
	}
	if st.HILState == primitives.HILOn {
		mode |= common.MAV_MODE_FLAG_HIL_ENABLED
	}

	vehicle := common.MAV_TYPE_FIXED_WING
	if st.IsRotaryWing {
		vehicle = common.MAV_TYPE_QUADROTOR
	}

	return &common.MessageHeartbeat{
		Type:           vehicle,
		Autopilot:      common.MAV_AUTOPILOT_GENERIC,
		BaseMode:       mode,
		CustomMode:     uint32(st.MainState),
		SystemStatus:   systemStatus(st),
		MavlinkVersion: 3,
	}
}

func systemStatus(st primitives.VehicleStatus) common.MAV_STATE {
	switch {
	case st.ArmingState.Armed() && st.Failsafe:
		return common.MAV_STATE_CRITICAL
	case st.ArmingState == primitives.ArmingArmedError, st.ArmingState == primitives.ArmingStandbyError:
		return common.MAV_STATE_CRITICAL
	case st.ArmingState.Armed(), st.ArmingState == primitives.ArmingInAirRestore:
		return common.MAV_STATE_ACTIVE
	case st.ArmingState == primitives.ArmingStandby:
		return common.MAV_STATE_STANDBY
	case st.ArmingState == primitives.ArmingReboot:
		return common.MAV_STATE_POWEROFF
	default:
		return common.MAV_STATE_BOOT
	}
}
