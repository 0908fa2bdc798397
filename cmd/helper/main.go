// Command helper simulates a bus: it logs a driver in, starts tracking and
// pushes positions along the driver's route until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bustrack/internal/mylogger"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	mylog, err := mylogger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, mylog); err != nil {
		mylog.Action("simulator_failed").Error("bus simulator stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, mylog mylogger.Logger) error {
	bus := NewBus(cfg, mylog)

	if err := bus.Login(ctx); err != nil {
		return err
	}
	route, err := bus.Route(ctx)
	if err != nil {
		return err
	}
	if err := bus.SetTracking(ctx, true); err != nil {
		return err
	}

	// tracking is switched off even when the run is interrupted
	defer func() {
		if err := bus.SetTracking(context.WithoutCancel(ctx), false); err != nil {
			mylog.Action("tracking").Warn("failed to stop tracking", "error", err.Error())
		}
	}()

	if err := bus.Connect(); err != nil {
		return err
	}
	defer bus.Close()

	mylog.Action("drive").Info("driving route", "route_id", route.ID, "stops", len(route.Stops), "mode", cfg.Mode)
	if err := bus.Drive(ctx, route); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
