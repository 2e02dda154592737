// Package mod provides moderation commands organized as subcommands under /mod
// Each command is in its own file for better organization
package mod

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

const footerText = "💫 - Developed by PancyStudios"

// Ledger reads and writes warn counters. It is implemented by
// moderation.WarnLedger.
type Ledger interface {
	Increment(ctx context.Context, guildID, userID string) (uint64, error)
	Reset(ctx context.Context, guildID, userID string) error
	Current(ctx context.Context, guildID, userID string) (uint64, error)
}

// ConfigReader reads guild configurations.
type ConfigReader interface {
	GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error)
}

// ExceptionStore manages standing policy exceptions.
type ExceptionStore interface {
	SetException(ctx context.Context, exc models.ForbiddenException) error
	ListExceptions(ctx context.Context, guildID string) ([]models.ForbiddenException, error)
}

// Timeouts mutes members.
type Timeouts interface {
	ApplyTimeout(ctx context.Context, guildID, userID string, d time.Duration) error
}

// Services are the stores and platform calls the /mod commands use.
type Services struct {
	Ledger     Ledger
	Configs    ConfigReader
	Exceptions ExceptionStore
	Timeouts   Timeouts
	now        func() time.Time
}

func (s Services) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// config returns the guild's configuration, nil when the guild has none or
// it cannot be read. A nil config still answers Threshold and TimeoutDuration.
func (s Services) config(ctx context.Context, guildID string) *models.GuildPolicyConfig {
	if s.Configs == nil {
		return nil
	}
	cfg, err := s.Configs.GetGuildPolicyConfig(ctx, guildID)
	if err != nil {
		return nil
	}
	return cfg
}

// RegisterModCommands registers all moderation commands as /mod subcommands
func RegisterModCommands(client *discord.ExtendedClient, svc Services) {
	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Comandos de moderación",
		createWarnCommand(svc),
		createWarnsCommand(svc),
		createResetWarnsCommand(svc),
		createMuteCommand(svc),
		createExceptionCommand(svc),
	)

	client.CommandHandler.AddGlobalCommand(modGroup)
}

func errorEmbed(title string, err error) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ " + title,
		Description: "No se pudo completar la operación. Inténtalo de nuevo más tarde.",
		Color:       0xFF0000,
		Footer:      &discordgo.MessageEmbedFooter{Text: err.Error()},
	}
}
