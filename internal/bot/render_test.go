package bot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mtabot/internal/ase"
)

func TestCatalogMatch(t *testing.T) {
	c, err := NewCatalog("es")
	require.NoError(t, err)

	assert.Equal(t, "es", c.Match("es-ES").String())
	assert.Equal(t, "en", c.Match("en-US").String())
	assert.Equal(t, "en", c.Match("en-GB").String())
	assert.Equal(t, "es", c.Match("ja").String())
	assert.Equal(t, "es", c.Match("").String())
	assert.Equal(t, "es", c.Match("not a locale!").String())

	_, err = NewCatalog("??")
	assert.Error(t, err)
}

func TestLocalizerFallsBackToID(t *testing.T) {
	c, err := NewCatalog("en")
	require.NoError(t, err)

	assert.Equal(t, "NoSuchMessage", c.For("en").T("NoSuchMessage", nil))
	assert.Equal(t, "1 player", c.For("en").Plural("PlayersCount", 1))
}

func TestPlayerListTruncates(t *testing.T) {
	c, err := NewCatalog("en")
	require.NoError(t, err)
	l := c.For("en")

	players := make([]ase.Player, 100)
	for i := range players {
		players[i] = ase.Player{Name: fmt.Sprintf("LongPlayerName_%03d", i), Ping: 100 + i}
	}

	list := PlayerList(l, players, fieldValueLimit)
	assert.LessOrEqual(t, len(list), fieldValueLimit)

	lines := strings.Split(list, "\n")
	shown := len(lines) - 1
	assert.Equal(t, fmt.Sprintf("… and %d more", len(players)-shown), lines[len(lines)-1])
	assert.Equal(t, "• **LongPlayerName_000** (Ping: 100ms)", lines[0])
}

func TestPlayerListFits(t *testing.T) {
	c, err := NewCatalog("en")
	require.NoError(t, err)

	list := PlayerList(c.For("en"), []ase.Player{{Name: "a", Ping: 1}, {Name: "b", Ping: 2}}, fieldValueLimit)
	assert.Equal(t, "• **a** (Ping: 1ms)\n• **b** (Ping: 2ms)", list)
}

func TestFailureEmbedFooter(t *testing.T) {
	c, err := NewCatalog("es")
	require.NoError(t, err)

	e := FailureEmbed(c.For("es"), &ase.Error{Kind: ase.KindTimeout}, 3200*time.Millisecond)
	assert.Equal(t, "Timeout en: 3200ms", e.Footer.Text)
}

func TestCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCooldown(10 * time.Second)
	c.now = func() time.Time { return now }

	ok, _ := c.Allow("u")
	assert.True(t, ok)

	ok, wait := c.Allow("u")
	assert.False(t, ok)
	assert.InDelta(t, float64(10*time.Second), float64(wait), float64(time.Millisecond))

	now = now.Add(4 * time.Second)
	ok, wait = c.Allow("u")
	assert.False(t, ok)
	assert.InDelta(t, float64(6*time.Second), float64(wait), float64(time.Millisecond))

	now = now.Add(6 * time.Second)
	ok, _ = c.Allow("u")
	assert.True(t, ok)

	disabled := NewCooldown(0)
	for i := 0; i < 5; i++ {
		ok, _ = disabled.Allow("u")
		assert.True(t, ok)
	}
}
