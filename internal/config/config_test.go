package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mtabot/internal/ase"
)

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := ParseArgs([]string{"--discord-token", "abc"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.MTA.Host)
	assert.Equal(t, 22003, cfg.MTA.Port)
	assert.Equal(t, 3*time.Second, cfg.MTA.Timeout)
	assert.Equal(t, "tagged", cfg.MTA.Variant)
	assert.Equal(t, 8192, cfg.MTA.BufferSize)
	assert.Equal(t, "es", cfg.Discord.Locale)
	assert.Equal(t, 10*time.Second, cfg.Discord.Cooldown)
	assert.Equal(t, "time.windows.com", cfg.NTP.Host)
	assert.Equal(t, 15*time.Minute, cfg.NTP.Interval)
	assert.Equal(t, 2500*time.Millisecond, cfg.NTP.Threshold)
	assert.Equal(t, 5*time.Minute, cfg.Watch.Interval)
	assert.Equal(t, "mtabot.db", cfg.Storage.Path)
	assert.Equal(t, 720*time.Hour, cfg.Storage.Retention)
	assert.Empty(t, cfg.Server.Address)
}

func TestParseArgsNamespaces(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"--mta-host", "144.217.174.214",
		"--mta-port", "42531",
		"--mta-variant", "legacy",
		"--db-path", "/tmp/x.db",
		"--log-level", "debug",
		"--rate-limit-hard-count", "3",
		"--address", ":8080",
	})
	require.NoError(t, err)

	assert.Equal(t, "144.217.174.214", cfg.MTA.Host)
	assert.Equal(t, 42531, cfg.MTA.Port)
	assert.Equal(t, "legacy", cfg.MTA.Variant)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 3, cfg.RateLimit.HardLimitCount)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestParseArgsEnv(t *testing.T) {
	t.Setenv("MTABOT_MTA_PORT", "22010")
	t.Setenv("MTABOT_DISCORD_GUILD", "1234")
	t.Setenv("MTABOT_LISTEN_ADDRESS", "127.0.0.1:9000")

	cfg, err := ParseArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, 22010, cfg.MTA.Port)
	assert.Equal(t, "1234", cfg.Discord.GuildID)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
}

func TestParseArgsRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"nothing to serve by default", nil},
		{"nothing to serve", []string{"--address="}},
		{"port too high", []string{"--discord-token", "x", "--mta-port", "65500"}},
		{"port zero", []string{"--discord-token", "x", "--mta-port", "0"}},
		{"unknown variant", []string{"--discord-token", "x", "--mta-variant", "gamespy"}},
		{"zero timeout", []string{"--discord-token", "x", "--mta-timeout", "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestMaintenanceNeedsNoFrontEnd(t *testing.T) {
	cfg, err := ParseArgs([]string{"--db-prune"})
	require.NoError(t, err)
	assert.True(t, cfg.Storage.Prune)
}

func TestNothingToServeMessage(t *testing.T) {
	_, err := ParseArgs(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to serve")
}

func TestQueryOptions(t *testing.T) {
	m := MTA{Variant: "legacy", Timeout: 2 * time.Second, BufferSize: 1024}

	o := ase.DefaultOptions()
	for _, opt := range m.QueryOptions() {
		opt(o)
	}

	assert.Equal(t, ase.VariantLegacy.Name, o.Variant.Name)
	assert.Equal(t, 2*time.Second, o.Timeout)
	assert.Equal(t, 1024, o.BufferSize)
}
