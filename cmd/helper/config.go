package main

import (
	"flag"
	"fmt"
	"time"
)

const (
	DefaultBaseURL         = "http://localhost:5001"
	LocationUpdateInterval = 3 * time.Second
	HTTPRequestTimeout     = 10 * time.Second
)

// API endpoints
const (
	LoginPath         = "/api/driver/login"
	TrackingStartPath = "/api/driver/tracking/start"
	TrackingStopPath  = "/api/driver/tracking/stop"
	LocationPath      = "/api/driver/location"
	RoutePath         = "/api/driver/route"
	WSLocationPath    = "/ws/driver/location"
)

const (
	ModeWS   = "ws"
	ModeHTTP = "http"
)

type Config struct {
	BaseURL  string
	Username string
	Password string
	Mode     string
	Speed    float64 // meters per second
	Interval time.Duration
	Loop     bool
	LogLevel string
}

func parseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("helper", flag.ContinueOnError)
	cfg := Config{}
	fs.StringVar(&cfg.BaseURL, "api", DefaultBaseURL, "driver service base URL")
	fs.StringVar(&cfg.Username, "username", "", "driver username")
	fs.StringVar(&cfg.Password, "password", "", "driver password")
	fs.StringVar(&cfg.Mode, "mode", ModeWS, "how to push locations: ws or http")
	fs.Float64Var(&cfg.Speed, "speed", 15, "bus speed in meters per second")
	fs.DurationVar(&cfg.Interval, "interval", LocationUpdateInterval, "time between location pushes")
	fs.BoolVar(&cfg.Loop, "loop", false, "drive the route again after the last stop")
	fs.StringVar(&cfg.LogLevel, "log-level", "INFO", "DEBUG, INFO, WARN or ERROR")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Username == "" || cfg.Password == "" {
		return Config{}, fmt.Errorf("username and password are required")
	}
	if cfg.Mode != ModeWS && cfg.Mode != ModeHTTP {
		return Config{}, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.Speed <= 0 || cfg.Interval <= 0 {
		return Config{}, fmt.Errorf("speed and interval must be positive")
	}
	return cfg, nil
}
