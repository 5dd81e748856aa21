// Tests for JSON/YAML persister round-trip and integration with Commander.
package production

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/comalice/commanderx/internal/core"
	"github.com/comalice/commanderx/internal/primitives"
)

func sampleSnapshot() core.StatusSnapshot {
	return core.StatusSnapshot{
		VehicleID: "uav-7",
		Session:   "4f1c3a52-8d0e-4a44-9c55-6d2d3f1e0b11",
		Status: primitives.VehicleStatus{
			ArmingState: primitives.ArmingArmed,
			MainState:   primitives.MainAutoMission,
			NavState:    primitives.NavAutoRTL,
			Failsafe:    true,
			Conditions: primitives.Conditions{
				GlobalPositionValid:      true,
				HomePositionValid:        true,
				SystemSensorsInitialized: true,
			},
			IsRotaryWing: true,
			DataLinkLost: true,
			Timestamp:    1500 * time.Millisecond,
		},
		Safety:    primitives.SafetyStatus{SafetySwitchAvailable: true, SafetyOff: true},
		Armed:     primitives.ActuatorArmed{Armed: true, ReadyToArm: true},
		Reason:    "link",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPersisters_RoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			p, err := NewPersister(format, t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			snap := sampleSnapshot()
			if err := p.Save(context.Background(), snap); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			loaded, err := p.Load(context.Background(), "uav-7")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded.Status != snap.Status || loaded.Armed != snap.Armed || loaded.Safety != snap.Safety {
				t.Errorf("loaded = %+v\nwant   %+v", loaded, snap)
			}
			if loaded.Session != snap.Session || loaded.Reason != snap.Reason || !loaded.Timestamp.Equal(snap.Timestamp) {
				t.Errorf("metadata mismatch: %+v", loaded)
			}
		})
	}
}

func TestPersisters_LoadNonExistent(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		p, err := NewPersister(format, t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := p.Load(context.Background(), "nonexistent"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s: expected os.ErrNotExist wrapped error, got %v", format, err)
		}
	}
}

func TestNewPersister_UnknownFormat(t *testing.T) {
	if _, err := NewPersister("xml", t.TempDir()); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestYAMLPersister_RejectsInvalidState(t *testing.T) {
	dir := t.TempDir()
	p, err := NewYAMLPersister(dir)
	if err != nil {
		t.Fatal(err)
	}
	bad := []byte("vehicleID: x\nstatus:\n  arming_state: ARMING_STATE_BOGUS\n")
	if err := os.WriteFile(dir+"/x.yaml", bad, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Load(context.Background(), "x"); err == nil {
		t.Error("expected unmarshal error for unknown arming state")
	}
}

func TestJSONPersister_Integration_Commander(t *testing.T) {
	p, err := NewJSONPersister(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	c := core.NewCommander(core.WithPersister(p), core.WithVehicleID("bench"))
	c.UpdateConditions(ctx, primitives.Conditions{SystemSensorsInitialized: true})
	c.RequestArming(ctx, primitives.ArmingStandby)
	c.Flush()

	// A new process for the same vehicle sees the previous session.
	next := core.NewCommander(core.WithPersister(p), core.WithVehicleID("bench"))
	prev, err := next.PreviousSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if prev.Session != c.Session() || prev.Status.ArmingState != primitives.ArmingStandby {
		t.Errorf("previous snapshot = %+v", prev)
	}
}
