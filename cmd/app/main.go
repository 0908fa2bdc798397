package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"bustrack/internal/config"
	driverservice "bustrack/internal/driver-service"
	"bustrack/internal/mylogger"
	"bustrack/internal/seed"
	"bustrack/internal/shared/db"
	userservice "bustrack/internal/user-service"
)

const usage = `usage: app <command> [flags]

commands:
  driver-service   run the Driver Service
  user-service     run the User-Facing Service
  migrate          create or upgrade the store schema
  seed -file PATH  load routes and drivers from a JSON file`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mylog, err := mylogger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	cmd := os.Args[1]
	mylog = mylog.With("service", cmd)

	switch cmd {
	case "driver-service":
		err = driverservice.Execute(ctx, mylog, cfg)
	case "user-service":
		err = userservice.Execute(ctx, mylog, cfg)
	case "migrate":
		err = db.Migrate(ctx, cfg, mylog)
	case "seed":
		err = runSeed(ctx, os.Args[2:], cfg, mylog)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		mylog.Action("command_failed").Error("command failed", err)
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, args []string, cfg *config.Config, mylog mylogger.Logger) error {
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	path := seedCmd.String("file", "", "path to the seed JSON file")
	seedCmd.Parse(args)

	if *path == "" {
		return fmt.Errorf("seed: -file is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := seed.Load(f)
	if err != nil {
		return err
	}

	store, err := db.Open(ctx, cfg, mylog)
	if err != nil {
		return err
	}
	defer store.Close()

	return seed.Apply(ctx, store, data, mylog)
}
