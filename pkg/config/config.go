// Package config holds the server listing configuration, a read-only
// snapshot consumed by packet handlers, and the loader that produces
// it from config.toml + icon.b64.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// PlayerListEntry is one row of the status response's players.sample
// array.
type PlayerListEntry struct {
	Name string    `toml:"name"`
	UUID uuid.UUID `toml:"uuid"`
}

// ServerConfig is the deserialized shape of config.toml.
type ServerConfig struct {
	Version       string            `toml:"version"`
	Protocol      *uint16           `toml:"protocol"`
	OnlinePlayers int32             `toml:"online_players"`
	MaxPlayers    int32             `toml:"max_players"`
	PlayerList    []PlayerListEntry `toml:"player_list"`
	MOTD          string            `toml:"motd"`
	KickMessage   string            `toml:"kick_message"`
}

// Snapshot is the immutable {config, icon} pair handlers read. A new
// Snapshot is built wholesale on every reload and swapped in via Store;
// nothing about an in-flight Snapshot is ever mutated.
type Snapshot struct {
	Config ServerConfig
	// Icon is the raw base64 PNG text (no data-URI prefix). Empty when
	// no icon was loaded.
	Icon    string
	HasIcon bool
}

const (
	configFileName = "config.toml"
	iconFileName   = "icon.b64"
)

// ConfigPath and IconPath return the two well-known file paths inside a
// config directory.
func ConfigPath(dir string) string { return filepath.Join(dir, configFileName) }
func IconPath(dir string) string   { return filepath.Join(dir, iconFileName) }

// LoadConfig reads and parses config.toml. Both read and parse
// failures are ConfigLoadError-class: fatal at startup, a logged
// warning (with the prior snapshot retained) on reload.
func LoadConfig(path string) (ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, errors.Wrapf(err, "reading %s", path)
	}
	var cfg ServerConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, errors.Wrapf(err, "parsing %s", path)
	}
	return cfg, nil
}

// LoadIcon reads icon.b64, raw base64 PNG content with no data-URI
// prefix. A missing icon file is not an error: it is reported as
// ok=false with a nil error, and the caller continues with no favicon.
// Any other read failure is returned as an error with ok=false.
func LoadIcon(path string) (icon string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "reading %s", path)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Load builds a complete Snapshot from a config directory. The first
// return value is a config.toml read/parse failure: fatal at startup,
// a warning (with the prior snapshot retained) on reload. The second is
// an icon.b64 read failure that is never fatal — it only ever degrades
// the snapshot to HasIcon=false — but is still reported so the caller
// can log it; a simply-missing icon file reports no warning at all.
func Load(dir string) (snap Snapshot, iconWarning error, err error) {
	cfg, err := LoadConfig(ConfigPath(dir))
	if err != nil {
		return Snapshot{}, nil, err
	}
	icon, ok, iconErr := LoadIcon(IconPath(dir))
	if iconErr != nil {
		return Snapshot{Config: cfg}, iconErr, nil
	}
	return Snapshot{Config: cfg, Icon: icon, HasIcon: ok}, nil, nil
}
