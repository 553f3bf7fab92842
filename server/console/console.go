package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/df-mc/shatter/server"
	"github.com/df-mc/shatter/server/entity"
	"github.com/df-mc/shatter/server/world"
)

// Console provides a simple CLI that reads commands from an io.Reader
// (defaulting to os.Stdin) and uses them to steer the player of a server.
type Console struct {
	srv    *server.Server
	log    *slog.Logger
	reader io.Reader
}

// New returns a Console bound to the provided server. The console reads from
// os.Stdin and writes command output to the supplied logger.
func New(srv *server.Server, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{
		srv:    srv,
		log:    log,
		reader: os.Stdin,
	}
}

// WithReader sets a custom reader for the console input. It enables testing the
// console without relying on os.Stdin.
func (c *Console) WithReader(r io.Reader) *Console {
	if r != nil {
		c.reader = r
	}
	return c
}

// Run starts consuming commands from the console. It blocks until the context
// is cancelled, the underlying reader reaches EOF or a line is read after the
// server was closed.
func (c *Console) Run(ctx context.Context) {
	scanner := bufio.NewScanner(c.reader)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				c.log.Error("console input error", "err", err)
			}
			return
		}
		if c.srv.Closed() {
			c.log.Debug("Console stopped: server closed.")
			return
		}
		args := strings.Fields(strings.TrimPrefix(strings.TrimSpace(scanner.Text()), "/"))
		if len(args) == 0 {
			continue
		}
		c.Execute(args[0], args[1:]...)
	}
}

// Execute runs a single command with the arguments passed. Commands that
// change the input of the player keep the rest of the input as it was.
// Nothing is executed once the server is closed.
func (c *Console) Execute(name string, args ...string) {
	if c.srv.Closed() {
		c.log.Error("Server closed, command ignored.", "command", name)
		return
	}
	switch strings.ToLower(name) {
	case "forward":
		c.input(func(in *entity.Input) { in.Forward = true })
	case "stop":
		c.input(func(in *entity.Input) { in.Forward, in.Turn = false, 0 })
	case "left":
		c.input(func(in *entity.Input) { in.Turn = -1 })
	case "right":
		c.input(func(in *entity.Input) { in.Turn = 1 })
	case "straight":
		c.input(func(in *entity.Input) { in.Turn = 0 })
	case "fire":
		c.fire()
	case "hit":
		if len(args) != 1 {
			c.log.Error("usage: hit <name>")
			return
		}
		c.hit(args[0])
	case "tick":
		n := 1
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v <= 0 {
				c.log.Error("usage: tick [count]")
				return
			}
			n = v
		}
		c.srv.World().Advance(n)
		c.log.Info("Advanced world.", "ticks", n, "current", c.srv.World().CurrentTick())
	case "status":
		c.status()
	default:
		c.log.Error("Unknown command.", "command", name)
	}
}

// player runs f with the player of the server and its behaviour. It reports
// if the player could be found.
func (c *Console) player(f func(tx *world.Tx, p *entity.Ent, b *entity.PlayerBehaviour)) bool {
	found := false
	<-c.srv.World().Exec(func(tx *world.Tx) {
		e, ok := c.srv.Player().Entity(tx)
		if !ok {
			return
		}
		p := e.(*entity.Ent)
		if b, ok := p.Behaviour().(*entity.PlayerBehaviour); ok {
			found = true
			f(tx, p, b)
		}
	})
	if !found {
		c.log.Error("No player in the arena.")
	}
	return found
}

// input changes the input of the player using f.
func (c *Console) input(f func(in *entity.Input)) {
	c.player(func(_ *world.Tx, _ *entity.Ent, b *entity.PlayerBehaviour) {
		in := b.Input()
		f(&in)
		b.SetInput(in)
		c.log.Info("Input changed.", "forward", in.Forward, "turn", in.Turn)
	})
}

// fire presses fire for a single tick.
func (c *Console) fire() {
	c.player(func(tx *world.Tx, p *entity.Ent, b *entity.PlayerBehaviour) {
		in := b.Input()
		in.Fire = true
		b.SetInput(in)
		tx.Schedule(p, 1, func(*world.Tx) {
			in := b.Input()
			in.Fire = false
			b.SetInput(in)
		})
	})
}

// hit hits the first intact destructible with the name passed, as if a
// bullet touched it.
func (c *Console) hit(name string) {
	<-c.srv.World().Exec(func(tx *world.Tx) {
		for e := range tx.Entities() {
			ent, ok := e.(*entity.Ent)
			if !ok || !strings.EqualFold(ent.Name(), name) {
				continue
			}
			d, ok := entity.DestructibleOf(e)
			if !ok || d.State() != entity.StateIntact {
				continue
			}
			d.Hit(ent, tx)
			c.log.Info("Hit destructible.", "entity", ent.Name(), "durability", d.Durability())
			return
		}
		c.log.Error("No intact destructible found.", "name", name)
	})
}

// status logs the amount of entities of every kind and the metrics of the
// world.
func (c *Console) status() {
	<-c.srv.World().Exec(func(tx *world.Tx) {
		kinds := map[entity.Kind]int{}
		for e := range tx.Entities() {
			kinds[entity.KindOf(e)]++
		}
		s := tx.Metrics().Snapshot()
		c.log.Info("Arena status.",
			"tick", tx.CurrentTick(),
			"originals", kinds[entity.KindOriginal],
			"fragments", kinds[entity.KindFragment],
			"hit_sources", kinds[entity.KindHitSource],
			"collisions", s.Collisions,
		)
	})
}
