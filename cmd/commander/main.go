// Command commander runs the vehicle commander against a MAVLink link.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/hashicorp/go-hclog"

	"github.com/comalice/commanderx/internal/config"
	"github.com/comalice/commanderx/internal/core"
	"github.com/comalice/commanderx/internal/extensibility"
	"github.com/comalice/commanderx/internal/production"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (defaults apply when empty)")
	logLevel := flag.String("log", "", "Log level: trace, debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "commander: %v\n", err)
			os.Exit(2)
		}
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	l := hclog.New(&hclog.LoggerOptions{
		Name:       "commander",
		Level:      hclog.LevelFromString(cfg.Log.Level),
		JSONFormat: cfg.Log.JSON,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, l); err != nil && !errors.Is(err, context.Canceled) {
		l.Error("commander stopped", "error", err)
		os.Exit(1)
	}
	l.Info("shut down")
}

func run(ctx context.Context, cfg config.Config, l hclog.Logger) error {
	opts := []core.Option{
		core.WithLogger(l.Named("core")),
		core.WithVehicleID(cfg.Vehicle.ID),
		core.WithRotaryWing(cfg.Vehicle.RotaryWing),
		core.WithAutoStandby(true),
		core.WithVisualizer(&production.DefaultVisualizer{}),
	}

	sinks := []core.DiagnosticSink{extensibility.NewLoggingSink(l.Named("diag"))}

	if cfg.Persistence.Dir != "" {
		p, err := production.NewPersister(cfg.Persistence.Format, cfg.Persistence.Dir)
		if err != nil {
			return err
		}
		opts = append(opts, core.WithPersister(p))
	}

	if cfg.Devices.Root != "" {
		d := extensibility.NewDirDevices(cfg.Devices.Root, cfg.Devices.BlockRequest)
		d.SkipPrefixes = cfg.Devices.SkipPrefixes
		d.SkipNames = cfg.Devices.SkipNames
		opts = append(opts, core.WithDevices(d))
	}

	statusCh := make(chan core.StatusSnapshot, 64)
	publishers := production.FanoutPublisher{production.NewChannelPublisher(statusCh)}

	var node *gomavlib.Node
	var hb *production.HeartbeatPublisher
	if len(cfg.MAVLink.Endpoints) > 0 {
		var err error
		node, err = newNode(cfg.MAVLink)
		if err != nil {
			return err
		}
		defer node.Close()

		ml := production.NewMAVLinkSink(node, l.Named("mavlink"), cfg.MAVLink.StatusQueue)
		defer ml.Close()
		sinks = append(sinks, ml)

		// The node's own heartbeat is disabled; this one carries our status.
		hb = production.NewHeartbeatPublisher(node, l.Named("heartbeat"), cfg.MAVLink.HeartbeatPeriod)
		publishers = append(publishers, hb)
	}
	opts = append(opts,
		core.WithDiagnosticSink(extensibility.NewMultiSink(l, sinks...)),
		core.WithPublisher(publishers),
	)
	go func() {
		for snap := range statusCh {
			l.Debug("status", "reason", snap.Reason,
				"arming", snap.Status.ArmingState,
				"main", snap.Status.MainState,
				"nav", snap.Status.NavState,
				"failsafe", snap.Status.Failsafe)
		}
	}()

	c := core.NewCommander(opts...)
	defer c.Flush()
	defer publishers.Close()
	if hb != nil {
		hb.Publish(ctx, c.Snapshot())
	}

	l.Info("commander started", "vehicle", c.VehicleID(), "session", c.Session())
	reportPrevious(ctx, c, l)

	// The link dispatches into c, so it must stop before the sinks close.
	linkDone := make(chan struct{})
	if node != nil {
		link := production.NewLink(node, c, production.LinkConfig{
			SystemID:         cfg.MAVLink.SystemID,
			HeartbeatTimeout: cfg.MAVLink.HeartbeatTimeout,
			RCTimeout:        cfg.MAVLink.RCTimeout,
		}, l.Named("link"))
		go func() {
			defer close(linkDone)
			if err := link.Serve(ctx, node.Events()); err != nil && !errors.Is(err, context.Canceled) {
				l.Error("mavlink link stopped", "error", err)
			}
		}()
	} else {
		close(linkDone)
	}
	defer func() { <-linkDone }()

	ticks := extensibility.NewTimerEventSource(cfg.Tick)
	defer ticks.Stop()
	return c.Run(ctx, ticks)
}

func reportPrevious(ctx context.Context, c *core.Commander, l hclog.Logger) {
	prev, err := c.PreviousSnapshot(ctx)
	switch {
	case errors.Is(err, core.ErrNoPersister):
	case errors.Is(err, os.ErrNotExist):
		l.Info("no previous session recorded")
	case err != nil:
		l.Warn("previous session unreadable", "error", err)
	default:
		l.Info("previous session",
			"session", prev.Session,
			"arming", prev.Status.ArmingState,
			"main", prev.Status.MainState,
			"nav", prev.Status.NavState,
			"armed", prev.Armed.Armed,
			"at", prev.Timestamp.Format(time.RFC3339))
	}
}

func newNode(cfg config.MAVLink) (*gomavlib.Node, error) {
	var endpoints []gomavlib.EndpointConf
	for _, e := range cfg.Endpoints {
		switch e.Type {
		case config.EndpointUDPServer:
			endpoints = append(endpoints, gomavlib.EndpointUDPServer{Address: e.Address})
		case config.EndpointUDPClient:
			endpoints = append(endpoints, gomavlib.EndpointUDPClient{Address: e.Address})
		case config.EndpointTCPClient:
			endpoints = append(endpoints, gomavlib.EndpointTCPClient{Address: e.Address})
		case config.EndpointSerial:
			endpoints = append(endpoints, gomavlib.EndpointSerial{Device: e.Device, Baud: e.Baud})
		}
	}
	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:        endpoints,
		Dialect:          common.Dialect,
		OutVersion:       gomavlib.V2,
		OutSystemID:      cfg.SystemID,
		OutComponentID:   cfg.ComponentID,
		HeartbeatDisable: true,
	})
	if err != nil {
		return nil, fmt.Errorf("mavlink node: %w", err)
	}
	return node, nil
}
