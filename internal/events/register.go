// Package events provides a registry for organizing bot events.
// Events are organized by category (ready, guild, member, message, shard).
package events

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// defaultMessageTimeout bounds the moderation of one message.
const defaultMessageTimeout = 30 * time.Second

// Moderator handles inbound messages. It is implemented by
// moderation.Pipeline.
type Moderator interface {
	Handle(ctx context.Context, msg *models.Message) *moderation.Decision
}

// ConfigReader reads guild configurations.
type ConfigReader interface {
	GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error)
}

// Handlers are the services the events dispatch to.
type Handlers struct {
	Moderator      Moderator
	Configs        ConfigReader
	MessageTimeout time.Duration
}

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, h Handlers) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	if h.MessageTimeout <= 0 {
		h.MessageTimeout = defaultMessageTimeout
	}

	// Ready event (bot startup)
	RegisterReadyEvent(client)

	// Guild events (server join/leave)
	RegisterGuildEvents(client)

	// Member events (welcome)
	RegisterMemberEvents(client, h.Configs)

	// Message events (moderation)
	RegisterMessageEvents(client, h.Moderator, h.MessageTimeout)

	// Shard events (disconnect/resume)
	RegisterShardEvents(client)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
