package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/internal/game"
)

// Command names.
const (
	CmdPlayers = "usuarios"
	CmdTest    = "test"
	CmdClock   = "hora"
)

// discordLocales maps loaded languages to the client locales Discord knows.
var discordLocales = map[string][]discordgo.Locale{
	"es": {discordgo.SpanishES},
	"en": {discordgo.EnglishUS, discordgo.EnglishGB},
}

// Commands returns the slash command definitions with localized descriptions.
func (b *Bot) Commands() []*discordgo.ApplicationCommand {
	describe := func(id string) (string, *map[discordgo.Locale]string) {
		locs := make(map[discordgo.Locale]string)
		for _, tag := range b.catalog.Tags() {
			text := b.catalog.For(tag.String()).T(id, nil)
			for _, loc := range discordLocales[tag.String()] {
				locs[loc] = text
			}
		}
		return b.catalog.For("").T(id, nil), &locs
	}

	cmd := func(name, id string) *discordgo.ApplicationCommand {
		desc, locs := describe(id)
		return &discordgo.ApplicationCommand{
			Name:                     name,
			Description:              desc,
			DescriptionLocalizations: locs,
		}
	}

	return []*discordgo.ApplicationCommand{
		cmd(CmdPlayers, "CmdPlayers"),
		cmd(CmdTest, "CmdTest"),
		cmd(CmdClock, "CmdClock"),
	}
}

// Handle dispatches one interaction. Replies go through r.
func (b *Bot) Handle(ctx context.Context, r Responder, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	start := time.Now()
	name := i.ApplicationCommandData().Name
	user := interactionUser(i)
	l := b.catalog.For(string(i.Locale))

	logger := log.With().
		Str("command", name).
		Str("user_id", user).
		Str("lang", l.Tag.String()).
		Logger()
	logger.Debug().Msg("Command received")

	if ok, wait := b.cooldown.Allow(user); !ok {
		logger.Debug().Dur("wait", wait).Msg("Command rejected by cooldown")
		b.ephemeral(r, i, &logger, l.T("Cooldown", map[string]any{"Wait": wait.Round(time.Second).String()}))
		return
	}

	switch name {
	case CmdPlayers:
		b.handlePlayers(ctx, r, i, l, &logger, start)
	case CmdTest:
		b.ephemeral(r, i, &logger, l.T("BotWorking", nil))
	case CmdClock:
		b.ephemeral(r, i, &logger, b.clockReport(l))
	default:
		logger.Warn().Msg("Unknown command")
		b.ephemeral(r, i, &logger, l.T("InternalError", nil))
	}
}

// handlePlayers acknowledges at once and sends the roster as a follow-up.
// Discord drops interactions left unanswered for 3 seconds.
func (b *Bot) handlePlayers(ctx context.Context, r Responder, i *discordgo.Interaction, l *Localizer, logger *zerolog.Logger, start time.Time) {
	if !b.ephemeral(r, i, logger, l.T("QueryingServer", nil)) {
		return
	}

	qctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.querier.Query(qctx, game.SourceBot)
	elapsed := time.Since(start)

	params := &discordgo.WebhookParams{}
	if err != nil {
		params.Embeds = []*discordgo.MessageEmbed{FailureEmbed(l, err, elapsed)}
		params.Flags = discordgo.MessageFlagsEphemeral
	} else {
		params.Embeds = []*discordgo.MessageEmbed{PlayersEmbed(l, b.label, b.cfg.Thumbnail, res, elapsed)}
	}

	if err := r.Followup(i, params); err != nil {
		logger.Error().Err(err).Msg("Failed to send follow-up")
		return
	}
	logger.Info().Dur("elapsed", elapsed).Msg("Command completed")
}

func (b *Bot) clockReport(l *Localizer) string {
	if b.clock == nil {
		return l.T("ClockUnknown", nil)
	}
	last := b.clock.Last()
	if last == nil {
		return l.T("ClockUnknown", nil)
	}

	data := map[string]any{
		"Host":   last.Host,
		"Offset": last.Offset.Round(time.Millisecond).String(),
		"When":   last.CheckedAt.Format("15:04:05 MST"),
		"Error":  last.Error,
	}
	switch {
	case last.Error != "":
		return l.T("ClockFailed", data)
	case last.Drifted:
		return l.T("ClockDrift", data)
	default:
		return l.T("ClockReport", data)
	}
}

func (b *Bot) ephemeral(r Responder, i *discordgo.Interaction, logger *zerolog.Logger, content string) bool {
	err := r.Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to respond to interaction")
		return false
	}
	return true
}

func interactionUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
