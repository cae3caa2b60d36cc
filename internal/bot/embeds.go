package bot

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/game"
)

// Embed colors.
const (
	colorGreen   = 0x2ECC71
	colorDarkRed = 0x992D22
	colorOrange  = 0xE67E22
	colorRed     = 0xE74C3C
)

// fieldValueLimit is the longest value Discord accepts in an embed field.
const fieldValueLimit = 1024

// PlayersEmbed renders a successful roster query.
func PlayersEmbed(l *Localizer, label, thumbnail string, res *ase.Result, elapsed time.Duration) *discordgo.MessageEmbed {
	players := res.Roster.Players()

	color := colorDarkRed
	list := l.T("NoPlayers", nil)
	if len(players) > 0 {
		color = colorGreen
		list = PlayerList(l, players, fieldValueLimit)
	}

	e := &discordgo.MessageEmbed{
		Title: l.T("PlayersTitle", map[string]any{"Server": label}),
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: l.T("PlayersCountField", nil), Value: l.Plural("PlayersCount", len(players)), Inline: true},
			{Name: l.T("PlayersListField", nil), Value: list},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: l.T("CompletedFooter", map[string]any{"Ms": elapsed.Milliseconds()})},
	}
	if thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}

	return e
}

// FailureEmbed renders a failed query. Timeouts get their own wording and color.
func FailureEmbed(l *Localizer, err error, elapsed time.Duration) *discordgo.MessageEmbed {
	ms := map[string]any{"Ms": elapsed.Milliseconds()}

	if game.IsTimeout(err) {
		return &discordgo.MessageEmbed{
			Title:       l.T("TimeoutTitle", nil),
			Description: l.T("TimeoutDescription", nil),
			Color:       colorOrange,
			Footer:      &discordgo.MessageEmbedFooter{Text: l.T("TimeoutFooter", ms)},
		}
	}

	return &discordgo.MessageEmbed{
		Title:       l.T("UnavailableTitle", nil),
		Description: l.T("UnavailableDescription", nil),
		Color:       colorRed,
		Footer:      &discordgo.MessageEmbedFooter{Text: l.T("CompletedFooter", ms)},
	}
}

// PlayerList renders one line per player and stays within limit bytes.
// Players that do not fit are summarized in a trailing "and N more" line.
func PlayerList(l *Localizer, players []ase.Player, limit int) string {
	var b strings.Builder

	for i, p := range players {
		line := l.T("PlayerLine", map[string]any{"Name": p.Name, "Ping": p.Ping})

		need := len(line)
		if b.Len() > 0 {
			need++
		}
		reserve := 0
		if rest := len(players) - i - 1; rest > 0 {
			reserve = 1 + len(l.Plural("PlayersMore", rest))
		}

		if b.Len()+need+reserve > limit {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(l.Plural("PlayersMore", len(players)-i))
			break
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}

	return b.String()
}
