// Command demo walks a simulated vehicle through arming, a mission and a
// link-loss failsafe cascade, printing each published status.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/comalice/commanderx/internal/core"
	"github.com/comalice/commanderx/internal/extensibility"
	"github.com/comalice/commanderx/internal/primitives"
	"github.com/comalice/commanderx/internal/production"
)

type step struct {
	say string
	ev  primitives.Event
}

var script = []step{
	{"sensors up, full position estimate", primitives.ConditionsUpdate(primitives.Conditions{
		SystemSensorsInitialized: true,
		LocalPositionValid:       true,
		GlobalPositionValid:      true,
		LocalAltitudeValid:       true,
		HomePositionValid:        true,
	})},
	{"arm from INIT (refused)", primitives.ArmRequest(primitives.ArmingArmed)},
	{"standby", primitives.ArmRequest(primitives.ArmingStandby)},
	{"safety switch present and engaged", primitives.SafetyUpdate(primitives.SafetyStatus{SafetySwitchAvailable: true})},
	{"arm with safety engaged (refused)", primitives.ArmRequest(primitives.ArmingArmed)},
	{"safety off", primitives.SafetyUpdate(primitives.SafetyStatus{SafetySwitchAvailable: true, SafetyOff: true})},
	{"arm", primitives.ArmRequest(primitives.ArmingArmed)},
	{"auto mission", primitives.ModeRequest(primitives.MainAutoMission)},
	{"data link lost", primitives.DataLinkUpdate(true)},
	{"global position lost", primitives.ConditionsUpdate(primitives.Conditions{
		SystemSensorsInitialized: true,
		LocalPositionValid:       true,
		LocalAltitudeValid:       true,
		HomePositionValid:        true,
	})},
	{"local position lost", primitives.ConditionsUpdate(primitives.Conditions{
		SystemSensorsInitialized: true,
		LocalAltitudeValid:       true,
	})},
	{"altitude lost", primitives.ConditionsUpdate(primitives.Conditions{SystemSensorsInitialized: true})},
	{"data link back", primitives.DataLinkUpdate(false)},
	{"HIL while armed (refused)", primitives.HILRequest(primitives.HILOn)},
	{"disarm", primitives.ArmRequest(primitives.ArmingStandby)},
}

func main() {
	l := hclog.New(&hclog.LoggerOptions{Name: "demo", Level: hclog.Info})

	dir, err := os.MkdirTemp("", "commander-demo")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	persister, err := production.NewJSONPersister(dir)
	if err != nil {
		panic(err)
	}

	publishCh := make(chan core.StatusSnapshot, 100)
	publisher := production.NewChannelPublisher(publishCh)

	c := core.NewCommander(
		core.WithLogger(l.Named("core")),
		core.WithVehicleID("demo-quad"),
		core.WithDiagnosticSink(extensibility.NewLoggingSink(l.Named("diag"))),
		core.WithPersister(persister),
		core.WithPublisher(publisher),
		core.WithVisualizer(&production.DefaultVisualizer{}),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scriptCh := make(chan primitives.Event)
	ticks := extensibility.NewTimerEventSource(100 * time.Millisecond)
	defer ticks.Stop()
	src := extensibility.NewMergedEventSource(extensibility.NewChannelEventSource(scriptCh), ticks)

	go func() {
		if err := c.Run(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Printf("Run error: %v\n", err)
		}
	}()

	for i, s := range script {
		fmt.Printf("\n--- Step %d: %s ---\n", i+1, s.say)
		select {
		case scriptCh <- s.ev:
		case <-ctx.Done():
			fmt.Println("\nShutting down gracefully...")
			return
		}
		time.Sleep(250 * time.Millisecond)
		drain(publishCh)
		st := c.Status()
		fmt.Printf("Now: arming=%s main=%s nav=%s failsafe=%v lockdown=%v\n",
			st.ArmingState, st.MainState, st.NavState, st.Failsafe, c.Armed().Lockdown)
	}

	c.Flush()
	if prev, err := c.PreviousSnapshot(ctx); err == nil {
		fmt.Printf("\nPersisted snapshot: %s (%s)\n", prev.Status.ArmingState, prev.Reason)
	}
	fmt.Println("\nDOT:\n" + c.Visualize())
	fmt.Println("Demo complete.")
}

func drain(ch <-chan core.StatusSnapshot) {
	for {
		select {
		case snap := <-ch:
			fmt.Printf("Published [%s] at +%s: nav=%s\n", snap.Reason, snap.Status.Timestamp, snap.Status.NavState)
		default:
			return
		}
	}
}
