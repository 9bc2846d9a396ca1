package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/dm-vev/cubeworld/server/world"
)

// Config controls how a Server is constructed. Zero-valued fields are
// replaced with defaults by New.
type Config struct {
	// Log is the Logger used for every component. If nil, slog.Default() is
	// used. The error that ends a client connection is logged at info level.
	Log *slog.Logger
	// ListenAddr is the TCP address the listener binds to.
	ListenAddr string
	// WorldSize is the size of the level. InitWorld creates a level of this
	// size, and New fails if the saved level's block count does not match it.
	WorldSize world.Vec3i
	// WorldPath is the gzip-compressed level file to load from and save to.
	WorldPath string
	// EventLogPath is the gzip-compressed event queue snapshot.
	EventLogPath string
	// TickInterval is the period of the simulation TICK event.
	TickInterval time.Duration
	// SaveInterval is the period of the SAVE event.
	SaveInterval time.Duration
	// MaxClients is the fixed number of client slots.
	MaxClients int
	// AdminSecret is the shared secret the /auth chat command checks
	// against. Defaults to "fiets" if empty (see DESIGN.md's Open Questions
	// resolution).
	AdminSecret string
}

// configFile is the on-disk TOML representation of Config, following the
// teacher's whitelist.go convention of a small marshalable shadow struct
// rather than tagging Config itself.
type configFile struct {
	Network struct {
		Address string `toml:"address"`
	} `toml:"network"`
	World struct {
		SizeX int    `toml:"size_x"`
		SizeY int    `toml:"size_y"`
		SizeZ int    `toml:"size_z"`
		Path  string `toml:"path"`
	} `toml:"world"`
	Events struct {
		Path string `toml:"path"`
	} `toml:"events"`
	Timing struct {
		TickMillis int `toml:"tick_millis"`
		SaveSecs   int `toml:"save_secs"`
	} `toml:"timing"`
	MaxClients  int    `toml:"max_clients"`
	AdminSecret string `toml:"admin_secret"`
}

// defaultConfig returns a Config with every field set to its documented
// default.
func defaultConfig() Config {
	return Config{
		ListenAddr:   ":25565",
		WorldSize:    world.DefaultSize,
		WorldPath:    "world.gz",
		EventLogPath: "events.txt.gz",
		TickInterval: 250 * time.Millisecond,
		SaveInterval: 120 * time.Second,
		MaxClients:   32,
		AdminSecret:  "fiets",
	}
}

// LoadConfig reads a TOML configuration file at path. If the file does not
// exist, a default configuration is written to path and returned.
func LoadConfig(path string) (Config, error) {
	conf := defaultConfig()

	contents, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return conf, fmt.Errorf("read config: %w", err)
		}
		if err := writeDefaultConfig(path, conf); err != nil {
			return conf, err
		}
		return conf, nil
	}

	var cf configFile
	if err := toml.Unmarshal(contents, &cf); err != nil {
		return conf, fmt.Errorf("decode config: %w", err)
	}
	return applyConfigFile(conf, cf), nil
}

func applyConfigFile(conf Config, cf configFile) Config {
	if cf.Network.Address != "" {
		conf.ListenAddr = cf.Network.Address
	}
	if cf.World.SizeX > 0 && cf.World.SizeY > 0 && cf.World.SizeZ > 0 {
		conf.WorldSize = world.Vec3i{X: cf.World.SizeX, Y: cf.World.SizeY, Z: cf.World.SizeZ}
	}
	if cf.World.Path != "" {
		conf.WorldPath = cf.World.Path
	}
	if cf.Events.Path != "" {
		conf.EventLogPath = cf.Events.Path
	}
	if cf.Timing.TickMillis > 0 {
		conf.TickInterval = time.Duration(cf.Timing.TickMillis) * time.Millisecond
	}
	if cf.Timing.SaveSecs > 0 {
		conf.SaveInterval = time.Duration(cf.Timing.SaveSecs) * time.Second
	}
	if cf.MaxClients > 0 {
		conf.MaxClients = cf.MaxClients
	}
	if cf.AdminSecret != "" {
		conf.AdminSecret = cf.AdminSecret
	}
	return conf
}

func writeDefaultConfig(path string, conf Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	var cf configFile
	cf.Network.Address = conf.ListenAddr
	cf.World.SizeX, cf.World.SizeY, cf.World.SizeZ = conf.WorldSize.X, conf.WorldSize.Y, conf.WorldSize.Z
	cf.World.Path = conf.WorldPath
	cf.Events.Path = conf.EventLogPath
	cf.Timing.TickMillis = int(conf.TickInterval / time.Millisecond)
	cf.Timing.SaveSecs = int(conf.SaveInterval / time.Second)
	cf.MaxClients = conf.MaxClients
	cf.AdminSecret = conf.AdminSecret

	encoded, err := toml.Marshal(cf)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
