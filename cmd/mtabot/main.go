// main is the entry point of the MTABot application.
// It initializes the configuration, logger, database, background checks, Discord bot and HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/internal/bot"
	"github.com/woozymasta/mtabot/internal/config"
	"github.com/woozymasta/mtabot/internal/fake"
	"github.com/woozymasta/mtabot/internal/game"
	"github.com/woozymasta/mtabot/internal/geoip"
	"github.com/woozymasta/mtabot/internal/logger"
	"github.com/woozymasta/mtabot/internal/maintenance"
	"github.com/woozymasta/mtabot/internal/ntp"
	"github.com/woozymasta/mtabot/internal/server"
	"github.com/woozymasta/mtabot/internal/storage"
	"github.com/woozymasta/mtabot/internal/vars"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Str("version", vars.Version).Msg("Starting mtabot service...")

	// Database
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// data generation or database maintenance
	if maintenance.Run(cfg, store) {
		return
	}

	// Local responder for development
	if cfg.FakePlayer > 0 {
		responder, err := fake.Listen(cfg.MTA.Port, fake.Players(cfg.FakePlayer))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start fake ASE responder")
		}
		defer func() { _ = responder.Close() }()

		cfg.MTA.Host = "127.0.0.1"
		log.Warn().Int("players", cfg.FakePlayer).Int("port", cfg.MTA.Port).Msg("Serving fake ASE replies")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	querier := game.NewQuerier(cfg.MTA, store)

	// GeoIP Update
	if cfg.GeoIP.Path != "" {
		log.Info().Msg("Checking GeoIP database...")
		if err := geoip.EnsureDB(ctx, cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		geoProvider, err := geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		} else {
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
			querier.WithGeo(geoProvider)
		}
	}

	// Background checks
	var clock *ntp.Checker
	if cfg.NTP.Interval > 0 {
		clock = ntp.NewChecker(cfg.NTP.Host, cfg.NTP.Interval, cfg.NTP.Threshold, cfg.NTP.Timeout, nil)
		go clock.Run(ctx)
		log.Info().Str("host", cfg.NTP.Host).Dur("interval", cfg.NTP.Interval).Msg("NTP check started")
	}
	go game.NewWatcher(querier, cfg.Watch.Interval, nil).Run(ctx)

	// Discord
	if cfg.Discord.Token != "" {
		discord, err := bot.New(cfg.Discord, cfg.MTA, querier, clockReporter(clock))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Discord bot")
		}
		if err := discord.Open(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Discord")
		}
		defer func() {
			if err := discord.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing Discord session")
			}
		}()
		log.Info().Msg("Discord bot connected")
	}

	// HTTP API
	var httpServer *http.Server
	var srvHandler *server.Server
	if cfg.Server.Address != "" {
		srvHandler = server.New(querier, store, clockReporter(clock), cfg)
		httpServer = &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      srvHandler.Run(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: cfg.MTA.Timeout + 5*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server failed")
			}
		}()
	}

	// Graceful Shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		srvHandler.Stop()
	}

	log.Info().Msg("Service exited")
}

// clockReporter keeps a nil checker from becoming a non-nil interface.
func clockReporter(c *ntp.Checker) server.ClockReporter {
	if c == nil {
		return nil
	}
	return c
}
