package console

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/df-mc/shatter/server"
	"github.com/df-mc/shatter/server/entity"
	"github.com/df-mc/shatter/server/world"
)

func newTestConsole(t *testing.T, input string) (*Console, *server.Server) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.Config{Log: log, World: world.Config{TickRate: -1, Seed: 1}}.New()
	t.Cleanup(func() { _ = srv.Close() })
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return New(srv, log).WithReader(strings.NewReader(input)), srv
}

func playerBehaviour(t *testing.T, srv *server.Server) (b *entity.PlayerBehaviour) {
	t.Helper()
	<-srv.World().Exec(func(tx *world.Tx) {
		if e, ok := srv.Player().Entity(tx); ok {
			b = e.(*entity.Ent).Behaviour().(*entity.PlayerBehaviour)
		}
	})
	if b == nil {
		t.Fatalf("expected a player in the arena")
	}
	return b
}

func TestConsoleSteersPlayer(t *testing.T) {
	c, srv := newTestConsole(t, "forward\n/left\n\nfire\ntick 3\n")
	c.Run(context.Background())

	b := playerBehaviour(t, srv)
	if in := b.Input(); !in.Forward || in.Turn != -1 || in.Fire {
		t.Fatalf("expected forward and left input with fire released, got %+v", in)
	}
	if b.Shots() != 1 {
		t.Fatalf("expected a single shot, got %d", b.Shots())
	}
	if srv.World().CurrentTick() != 3 {
		t.Fatalf("expected the console to advance 3 ticks, got %d", srv.World().CurrentTick())
	}

	c.Execute("stop")
	if in := b.Input(); in.Forward || in.Turn != 0 {
		t.Fatalf("expected stop to clear movement input, got %+v", in)
	}
}

func TestConsoleHitShattersDestructible(t *testing.T) {
	c, srv := newTestConsole(t, strings.Repeat("hit barrel\n", 5)+"tick\nstatus\n")
	c.Run(context.Background())

	s := srv.Metrics()
	if s.Removed["shatter:destructible"] != 1 {
		t.Fatalf("expected the barrel to shatter, got %d removed", s.Removed["shatter:destructible"])
	}
	// The barrel is replaced by 12 pieces.
	if s.Spawned["shatter:destructible"] != 4+12 {
		t.Fatalf("expected 12 pieces to be spawned, got %d destructibles", s.Spawned["shatter:destructible"])
	}
}

func TestConsoleRunStopsOnCancel(t *testing.T) {
	c, srv := newTestConsole(t, "tick 5\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)
	if srv.World().CurrentTick() != 0 {
		t.Fatalf("expected no commands to run after cancellation")
	}
}

func TestConsoleIgnoresCommandsAfterClose(t *testing.T) {
	c, srv := newTestConsole(t, "status\ntick 5\nfire\n")
	_ = srv.Close()

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		c.Execute("hit", "barrel")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected the console to stop after the server was closed")
	}
	if !srv.Closed() {
		t.Fatalf("expected the server to report being closed")
	}
}
