package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestLoadConfigParsesAllFields(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, configFileName, `
version = "1.21.1"
protocol = 767
online_players = 3
max_players = 20
motd = "hello"
kick_message = "bye"

[[player_list]]
name = "Notch"
uuid = "069a79f4-44e9-4726-a5be-fca90e38aaf5"
`)

	cfg, err := LoadConfig(ConfigPath(dir))
	require.NoError(t, err)

	assert.Equal(t, "1.21.1", cfg.Version)
	require.NotNil(t, cfg.Protocol)
	assert.EqualValues(t, 767, *cfg.Protocol)
	assert.EqualValues(t, 3, cfg.OnlinePlayers)
	assert.EqualValues(t, 20, cfg.MaxPlayers)
	assert.Equal(t, "hello", cfg.MOTD)
	assert.Equal(t, "bye", cfg.KickMessage)
	require.Len(t, cfg.PlayerList, 1)
	assert.Equal(t, "Notch", cfg.PlayerList[0].Name)
	assert.Equal(t, uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5"), cfg.PlayerList[0].UUID)
}

func TestLoadConfigMissingProtocolIsNil(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, configFileName, `
version = "1.8.9"
online_players = 0
max_players = 20
motd = "hi"
kick_message = "bye"
`)
	cfg, err := LoadConfig(ConfigPath(dir))
	require.NoError(t, err)
	assert.Nil(t, cfg.Protocol)
}

func TestLoadConfigParseErrorIsWrapped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, configFileName, `not valid = = toml`)
	_, err := LoadConfig(ConfigPath(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestLoadIconMissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	icon, ok, err := LoadIcon(IconPath(dir))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, icon)
}

func TestLoadIconTrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, iconFileName, "AAA=\n")
	icon, ok, err := LoadIcon(IconPath(dir))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "AAA=", icon)
}

func TestLoadBuildsSnapshotWithoutIcon(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, configFileName, `
version = "1.8.9"
online_players = 0
max_players = 20
motd = "hi"
kick_message = "bye"
`)
	snap, iconWarn, err := Load(dir)
	require.NoError(t, err)
	assert.NoError(t, iconWarn)
	assert.False(t, snap.HasIcon)
	assert.Equal(t, "1.8.9", snap.Config.Version)
}

func TestStoreReplaceIsVisibleToNextLoad(t *testing.T) {
	store := NewStore(Snapshot{Config: ServerConfig{Version: "old"}})
	assert.Equal(t, "old", store.Current().Config.Version)

	store.Replace(Snapshot{Config: ServerConfig{Version: "new"}})
	assert.Equal(t, "new", store.Current().Config.Version)
}
