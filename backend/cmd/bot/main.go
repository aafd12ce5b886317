package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fundrag/backend/internal/constants"
	"fundrag/backend/internal/discord"
	"fundrag/backend/internal/services"
	"fundrag/backend/pkg/config"
	"fundrag/backend/pkg/logger"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Discord bot...")

	if cfg.DiscordBotToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ReloadTimeout)
	svc, err := services.Start(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal("Failed to start services", zap.Error(err))
	}
	defer svc.Close(context.Background())

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	messageHandler := discord.NewHandler(svc.Orchestrator, logger.Named("discord"))
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		messageHandler.HandleMessage(s, m)
	})

	dg.Identify.Intents = botIntents()

	// Open connection
	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(err))
	}
	defer dg.Close()

	log.Info("Discord bot is running. Press CTRL-C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Discord bot...")
}

// botIntents covers guild mentions and DMs. MessageContent is privileged and
// must also be enabled for the application in the developer portal.
func botIntents() discordgo.Intent {
	return discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
}
