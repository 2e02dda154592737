// Package main is the entry point for the PancyGuard Go application.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyGuardGo/internal/attachments"
	"github.com/PancyStudios/PancyGuardGo/internal/commands"
	"github.com/PancyStudios/PancyGuardGo/internal/commands/guildconfig"
	"github.com/PancyStudios/PancyGuardGo/internal/commands/mod"
	"github.com/PancyStudios/PancyGuardGo/internal/events"
	"github.com/PancyStudios/PancyGuardGo/internal/linkspam"
	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/config"
	"github.com/PancyStudios/PancyGuardGo/pkg/database"
	"github.com/PancyStudios/PancyGuardGo/pkg/database/configcache"
	"github.com/PancyStudios/PancyGuardGo/pkg/database/memstore"
	"github.com/PancyStudios/PancyGuardGo/pkg/database/redisstore"
	"github.com/PancyStudios/PancyGuardGo/pkg/database/sqlstore"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/errors"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/mqtt"
	"github.com/PancyStudios/PancyGuardGo/pkg/web"
)

var _ moderation.Platform = (*discord.Platform)(nil)

// storage is the selected store plus how to report on it.
type storage struct {
	store  database.Store
	status func() (string, bool)
}

// openStore opens the backend selected by STORE_DRIVER.
func openStore(cfg *config.Config) (*storage, error) {
	switch cfg.StoreDriver {
	case "mongo":
		db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
		if err != nil {
			// The database keeps retrying in the background.
			logger.Error(fmt.Sprintf("Error conectando a la base de datos: %v", err), "Main")
		}
		return &storage{store: database.NewMongoStore(db), status: db.GetStatus}, nil
	case "sqlite":
		s, err := sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storage{store: s, status: func() (string, bool) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.DB().PingContext(ctx); err != nil {
				return "🔴 | Desconectado", false
			}
			return "🟢 | En linea (SQLite)", true
		}}, nil
	case "memory":
		logger.Warn("Usando almacenamiento en memoria: los datos se pierden al reiniciar", "Main")
		return &storage{store: memstore.New(), status: func() (string, bool) { return "🟡 | En memoria", true }}, nil
	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.StoreDriver)
	}
}

// openWarnStore returns where warn counters live: the main store, or Redis
// when LEDGER_BACKEND=redis.
func openWarnStore(cfg *config.Config, store database.Store) (database.WarnStore, func(), error) {
	if cfg.LedgerBackend != "redis" {
		return store, func() {}, nil
	}
	if cfg.RedisURL == "" {
		return nil, nil, fmt.Errorf("LEDGER_BACKEND=redis requiere REDIS_URL")
	}
	rs, err := redisstore.New(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("conectando a Redis: %w", err)
	}
	logger.Success("Contadores de advertencias en Redis", "Main")
	return rs, func() { rs.Close() }, nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Iniciando PancyGuard Go...", "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		if discordClient != nil {
			_ = discordClient.Stop()
		}
	})

	// Initialize storage
	st, err := openStore(cfg)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error abriendo el almacenamiento: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.store.Close(ctx); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando el almacenamiento: %v", err), "Main")
		}
	}()

	warnStore, closeWarns, err := openWarnStore(cfg, st.store)
	if err != nil {
		logger.Critical(err.Error(), "Main")
		os.Exit(1)
	}
	defer closeWarns()

	configs := configcache.New(st.store, cfg.ConfigCacheSize, cfg.ConfigCacheTTL)

	// Initialize MQTT
	mqttClientID := "pancyguard"
	if !cfg.IsProd() {
		mqttClientID = "pancyguard_canary"
	}

	mqttClient := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
	)
	defer mqttClient.Destroy()

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}
	platform := discord.NewPlatform(discordClient.Session)

	// Moderation engine
	pipeline := moderation.NewPipeline(moderation.Dependencies{
		Platform:    platform,
		Configs:     configs,
		Messages:    st.store,
		Warns:       warnStore,
		Exceptions:  st.store,
		Attachments: attachments.New(platform, cfg.BlockedExtensions, cfg.MaxAttachmentBytes),
		Links:       linkspam.New(cfg.SpamWindow, cfg.SpamRepeatThreshold),
		Publisher:   mqtt.NewDecisionPublisher(mqttClient, cfg.MQTTDecisionTopic),
		Observer:    log,
		Options: moderation.Options{
			PlatformTimeout: cfg.PlatformTimeout,
			PersistTimeout:  cfg.PersistTimeout,
			LedgerAttempts:  cfg.LedgerAttempts,
		},
	})

	// Initialize web server
	webServer, err := web.NewServer(web.Options{
		WebhookURL:   cfg.LogsWebServerHook,
		AllowedHosts: cfg.AllowedHosts,
	})
	if err != nil {
		logger.Critical(err.Error(), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, web.API{
		Warns:       pipeline.Ledger(),
		Configs:     configs,
		Bot:         discordClient,
		StoreStatus: st.status,
		Token:       cfg.APIToken,
		StartTime:   time.Now(),
	})
	webServer.StartAsync(cfg.Port)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = webServer.Shutdown(ctx)
	}()

	// Register commands
	commands.RegisterAll(discordClient, commands.Services{
		Mod: mod.Services{
			Ledger:     pipeline.Ledger(),
			Configs:    configs,
			Exceptions: st.store,
			Timeouts:   platform,
		},
		Config:      guildconfig.Services{Configs: configs},
		StoreStatus: st.status,
	})

	// Register events
	events.RegisterAll(discordClient, events.Handlers{
		Moderator: pipeline,
		Configs:   configs,
	})

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
		}
	}()

	logger.Success("PancyGuard Go iniciado correctamente!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyGuard Go...", "Main")
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
