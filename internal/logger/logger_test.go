package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restore(t *testing.T) {
	prevLogger, prevLevel, prevUnit := log.Logger, zerolog.GlobalLevel(), zerolog.DurationFieldUnit
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		zerolog.DurationFieldUnit = prevUnit
	})
}

func TestSetupJSONFile(t *testing.T) {
	restore(t)

	path := filepath.Join(t.TempDir(), "mtabot.log")
	Setup(Config{Level: "warn", Format: "json", Output: path, Caller: true})

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("hidden")
	log.Warn().Str("kind", "timeout").Dur("elapsed", 1500*time.Millisecond).Msg("visible")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"kind":"timeout"`)
	assert.Contains(t, string(data), `"elapsed":1500`)
	assert.Contains(t, string(data), `"caller":`)
}

func TestSetupInvalidLevel(t *testing.T) {
	restore(t)

	Setup(Config{Level: "loud", Format: "console", Output: "stderr"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestOpenOutput(t *testing.T) {
	assert.Equal(t, os.Stdout, openOutput("stdout"))
	assert.Equal(t, os.Stderr, openOutput(""))
	assert.Equal(t, os.Stderr, openOutput(filepath.Join(t.TempDir(), "missing", "dir", "x.log")))
}
