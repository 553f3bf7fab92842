package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/shatter/server/entity"
	"github.com/df-mc/shatter/server/world"
)

// ErrInvalidConfig is returned when a UserConfig or an Arena holds values
// that cannot be used to run a simulation.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains options for starting a Server. A Config may be created
// from a UserConfig by calling UserConfig.Config.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger
	// World is the Config of the World that the arena is simulated in. If
	// World.Log is nil, Log is used. If World.Entities is empty, it is set to
	// entity.DefaultRegistry.
	World world.Config
	// Arena is the layout spawned into the World when the Server is started.
	// If Arena holds no ground and no entities, DefaultArena() is used.
	Arena Arena
	// Fragments configures the pieces that destructibles in the arena shatter
	// into. Zero fields fall back to the defaults of
	// entity.DestructibleBehaviourConfig.
	Fragments entity.PieceConfig
	// MinRemovalDelay and MaxRemovalDelay bound the random delay in ticks
	// after which fragments remove themselves. If 0, the defaults of
	// entity.DestructibleBehaviourConfig are used.
	MinRemovalDelay, MaxRemovalDelay int64
	// Ticks is the amount of ticks that Server.Run simulates before
	// returning. If 0 or lower, Server.Run returns only once its context is
	// cancelled.
	Ticks int
	// Autopilot makes the player of the arena periodically turn towards the
	// nearest intact destructible and fire at it.
	Autopilot bool
}

// New creates a Server using fields of conf. The arena is spawned into the
// Server's World by calling Server.Start, after which Server.Run may be used
// to simulate it.
func (conf Config) New() *Server {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.World.Log == nil {
		conf.World.Log = conf.Log
	}
	if conf.World.Name == "" {
		conf.World.Name = "Arena"
	}
	if len(conf.World.Entities.Types()) == 0 {
		conf.World.Entities = entity.DefaultRegistry
	}
	if conf.Arena.empty() {
		conf.Arena = DefaultArena()
	}
	srv := &Server{conf: conf}
	srv.w = conf.World.New()
	srv.w.Handle(&arenaHandler{srv: srv})
	return srv
}

// UserConfig is the user configuration for a shatter arena. It holds
// settings that affect the simulation, the fragments spawned and the arena
// layout. UserConfig may be serialised and can be converted to a Config by
// calling UserConfig.Config().
type UserConfig struct {
	Simulation struct {
		// TickRate is the amount of ticks per second the arena is simulated
		// at. Set to -1 to simulate as fast as possible.
		TickRate int
		// Seed seeds all randomness in the arena. A number is used as is,
		// any other text is hashed. An empty Seed results in a different
		// seed every run.
		Seed string
		// Ticks is the amount of ticks simulated before the program exits.
		// Set to 0 to run until interrupted.
		Ticks int
		// Autopilot makes the player fire at the nearest destructible.
		Autopilot bool
	}
	Fragments struct {
		// Count is the amount of pieces a destructible shatters into.
		Count int
		// Scale is multiplied with the scale of a destructible to obtain the
		// scale of its pieces.
		Scale float64
		// Force is the base magnitude of the impulse that pushes pieces
		// away.
		Force float64
		// MinRemovalTicks and MaxRemovalTicks bound the random amount of
		// ticks after which a piece disappears.
		MinRemovalTicks, MaxRemovalTicks int64
	}
	Arena struct {
		// File is the path to the YAML file holding the arena layout. It is
		// created with a default layout if it does not exist.
		File string
	}
}

// Config converts a UserConfig to a Config, so that it may be used for
// creating a Server. An error is returned if the UserConfig holds invalid
// values or if the arena file could not be loaded.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := uc.validate(); err != nil {
		return Config{}, err
	}
	seed, err := parseSeed(uc.Simulation.Seed)
	if err != nil {
		return Config{}, err
	}
	conf := Config{
		Log: log,
		World: world.Config{
			Log:      log,
			TickRate: uc.Simulation.TickRate,
			Seed:     seed,
		},
		Fragments: entity.PieceConfig{
			Count: uc.Fragments.Count,
			Scale: uc.Fragments.Scale,
			Force: uc.Fragments.Force,
		},
		MinRemovalDelay: uc.Fragments.MinRemovalTicks,
		MaxRemovalDelay: uc.Fragments.MaxRemovalTicks,
		Ticks:           uc.Simulation.Ticks,
		Autopilot:       uc.Simulation.Autopilot,
	}
	arenaFile := strings.TrimSpace(uc.Arena.File)
	if arenaFile == "" {
		arenaFile = "arena.yaml"
	}
	conf.Arena, err = LoadArena(arenaFile)
	if err != nil {
		return conf, fmt.Errorf("load arena: %w", err)
	}
	log.Debug("Loaded config.", "seed", seed, "tick_rate", uc.Simulation.TickRate, "arena", arenaFile)
	return conf, nil
}

// validate checks the values of the UserConfig that cannot be defaulted.
func (uc UserConfig) validate() error {
	switch {
	case uc.Simulation.Ticks < 0:
		return fmt.Errorf("%w: simulation ticks must not be negative, got %d", ErrInvalidConfig, uc.Simulation.Ticks)
	case uc.Fragments.Count < 0:
		return fmt.Errorf("%w: fragment count must not be negative, got %d", ErrInvalidConfig, uc.Fragments.Count)
	case uc.Fragments.Scale < 0 || uc.Fragments.Force < 0:
		return fmt.Errorf("%w: fragment scale and force must not be negative", ErrInvalidConfig)
	case uc.Fragments.MinRemovalTicks < 0 || uc.Fragments.MaxRemovalTicks < 0:
		return fmt.Errorf("%w: fragment removal ticks must not be negative", ErrInvalidConfig)
	case uc.Fragments.MaxRemovalTicks != 0 && uc.Fragments.MinRemovalTicks > uc.Fragments.MaxRemovalTicks:
		return fmt.Errorf("%w: min removal ticks %d exceed max removal ticks %d", ErrInvalidConfig, uc.Fragments.MinRemovalTicks, uc.Fragments.MaxRemovalTicks)
	}
	return nil
}

// parseSeed turns the seed passed into a uint64. Numbers are used as is and
// other text is hashed, so that any word may be used as a seed. An empty seed
// is replaced by the current time.
func parseSeed(seed string) (uint64, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return uint64(time.Now().UnixNano()), nil
	}
	if n, err := strconv.ParseUint(seed, 10, 64); err == nil {
		return n, nil
	}
	if n, err := strconv.ParseInt(seed, 10, 64); err == nil {
		return uint64(n), nil
	}
	if strings.TrimLeft(seed, "-0123456789") == "" {
		return 0, fmt.Errorf("%w: seed %q is out of range", ErrInvalidConfig, seed)
	}
	return xxhash.Sum64String(seed), nil
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Simulation.TickRate = world.DefaultTickRate
	c.Simulation.Seed = ""
	c.Simulation.Ticks = 60 * world.DefaultTickRate
	c.Simulation.Autopilot = true
	c.Fragments.Count = 12
	c.Fragments.Scale = 0.5
	c.Fragments.Force = 5
	c.Fragments.MinRemovalTicks = 2500
	c.Fragments.MaxRemovalTicks = 5000
	c.Arena.File = "arena.yaml"
	return c
}
