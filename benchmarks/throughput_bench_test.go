package benchmarks

import (
	"context"
	"testing"

	"github.com/comalice/commanderx/internal/core"
	"github.com/comalice/commanderx/internal/primitives"
	"github.com/comalice/commanderx/testutil"
)

func readyCommander(b *testing.B, opts ...core.Option) *core.Commander {
	b.Helper()
	c := core.NewCommander(opts...)
	ctx := context.Background()
	c.UpdateConditions(ctx, primitives.Conditions{SystemSensorsInitialized: true, LocalPositionValid: true})
	if res := c.RequestArming(ctx, primitives.ArmingStandby); res != primitives.TransitionChanged {
		b.Fatalf("standby = %v", res)
	}
	return c
}

// Arm/disarm cycles, each committing and publishing a snapshot.
func BenchmarkCommander_ArmDisarm(b *testing.B) {
	pub := &testutil.CapturePublisher{}
	c := readyCommander(b, core.WithPublisher(pub))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RequestArming(ctx, primitives.ArmingArmed)
		c.RequestArming(ctx, primitives.ArmingStandby)
	}
}

func BenchmarkCommander_DispatchTick(b *testing.B) {
	c := readyCommander(b)
	ctx := context.Background()
	tick := primitives.Tick()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Dispatch(ctx, tick); err != nil {
			b.Fatal(err)
		}
	}
}

// Readers against a writer toggling the data link.
func BenchmarkCommander_ParallelStatus(b *testing.B) {
	c := readyCommander(b)
	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		lost := false
		for {
			select {
			case <-done:
				return
			default:
				lost = !lost
				c.UpdateLink(ctx, primitives.LinkUpdate{DataLinkLost: &lost})
			}
		}
	}()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = c.Status()
			_ = c.IsSafe()
		}
	})
	b.StopTimer()
	close(done)
}
