// Package bot serves the slash commands that expose the MTA server roster on Discord.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/config"
	"github.com/woozymasta/mtabot/internal/ntp"
)

// Querier runs a live roster query. *game.Querier satisfies it.
type Querier interface {
	Query(ctx context.Context, source string) (*ase.Result, error)
}

// ClockReporter exposes the latest NTP check. *ntp.Checker satisfies it.
type ClockReporter interface {
	Last() *ntp.Result
}

// Responder sends interaction replies. The Discord session implements it in
// production; tests record the calls.
type Responder interface {
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) error
}

// Bot wires the commands to a Discord session.
type Bot struct {
	session  *discordgo.Session
	querier  Querier
	clock    ClockReporter
	catalog  *Catalog
	cooldown *Cooldown
	cfg      config.Discord
	label    string
	timeout  time.Duration
}

// New creates a bot for the configured server. clock may be nil.
func New(cfg config.Discord, mta config.MTA, q Querier, clock ClockReporter) (*Bot, error) {
	catalog, err := NewCatalog(cfg.Locale)
	if err != nil {
		return nil, err
	}

	return &Bot{
		querier:  q,
		clock:    clock,
		catalog:  catalog,
		cooldown: NewCooldown(cfg.Cooldown),
		cfg:      cfg,
		label:    mta.Label,
		timeout:  mta.Timeout + time.Second,
	}, nil
}

// Open connects to the gateway. Commands are registered once the session is ready.
func (b *Bot) Open() error {
	session, err := discordgo.New("Bot " + b.cfg.Token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	b.session = session

	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger := log.With().Str("user", r.User.String()).Str("guild", b.cfg.GuildID).Logger()
	logger.Info().Msg("Discord session ready")

	registered, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.cfg.GuildID, b.Commands())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register commands")
		return
	}

	for _, cmd := range registered {
		logger.Debug().Str("command", cmd.Name).Msg("Command registered")
	}
	logger.Info().Int("count", len(registered)).Msg("Commands registered")
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.Handle(context.Background(), sessionResponder{s: s}, i.Interaction)
}

type sessionResponder struct {
	s *discordgo.Session
}

func (r sessionResponder) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return r.s.InteractionRespond(i, resp)
}

func (r sessionResponder) Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) error {
	_, err := r.s.FollowupMessageCreate(i, true, params)
	return err
}
