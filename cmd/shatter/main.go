package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/df-mc/shatter/server"
	"github.com/df-mc/shatter/server/console"
	"github.com/pelletier/go-toml"
)

func main() {
	path := flag.String("config", "config.toml", "path to the config file, created with defaults if missing")
	debug := flag.Bool("debug", false, "log debug messages")
	interactive := flag.Bool("console", false, "read player commands from stdin")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	conf, err := readConfig(*path, log)
	if err != nil {
		log.Error("read config: " + err.Error())
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := conf.New()
	if err := srv.Start(); err != nil {
		log.Error("start arena: " + err.Error())
		_ = srv.Close()
		os.Exit(1)
	}
	if *interactive {
		go console.New(srv, log).Run(ctx)
	}
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("run arena: " + err.Error())
	}
	s := srv.Metrics()
	_ = srv.Close()

	log.Info("Simulation finished.",
		"ticks", s.Ticks,
		"collisions", s.Collisions,
		"bullets", s.Spawned["shatter:bullet"],
		"destructibles_spawned", s.Spawned["shatter:destructible"],
		"destructibles_removed", s.Removed["shatter:destructible"],
		"enemies_removed", s.Removed["shatter:enemy"],
		"timers_fired", s.TimersFired,
		"timers_discarded", s.TimersDiscarded,
	)
}

// readConfig reads the configuration from the file at path. If the file does
// not exist, it is created with the default configuration.
func readConfig(path string, log *slog.Logger) (server.Config, error) {
	c := server.DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		data, err := toml.Marshal(c)
		if err != nil {
			return server.Config{}, fmt.Errorf("encode default config: %v", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return server.Config{}, fmt.Errorf("create default config: %v", err)
		}
		log.Info("Created default config.", "path", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return server.Config{}, fmt.Errorf("read config: %v", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return server.Config{}, fmt.Errorf("decode config: %v", err)
	}
	return c.Config(log)
}
