// Package events provides event handlers for guild (server) events
package events

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// RegisterGuildEvents registers all guild-related event handlers
func RegisterGuildEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildCreate(onGuildCreate)
	client.EventHandler.OnGuildDelete(onGuildDelete)
}

// onGuildCreate is called for every guild on connect and when the bot joins
// a server. Only fresh joins get the setup message.
func onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if !joinedRecently(g.JoinedAt, time.Now()) {
		return
	}

	logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")
	logger.Debug(fmt.Sprintf("   Miembros: %d | Canales: %d", g.MemberCount, len(g.Channels)), "Guild")

	if g.SystemChannelID == "" {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(g.SystemChannelID, setupEmbed(time.Now())); err != nil {
		logger.Error(fmt.Sprintf("Error enviando mensaje de configuración: %v", err), "Guild")
	}
}

// onGuildDelete is called when the bot is removed from a server
func onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		logger.Warn(fmt.Sprintf("Servidor %s no disponible", g.ID), "Guild")
		return
	}
	logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")
}

func joinedRecently(joinedAt, now time.Time) bool {
	return !joinedAt.IsZero() && joinedAt.After(now.Add(-10*time.Second))
}

func setupEmbed(now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "¡Gracias por agregarme! 🛡️",
		Description: "Hola, soy **PancyGuard**. Protejo a un usuario o rol de menciones no deseadas.",
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "🔒 Protección",
				Value:  "Usa `/config forbidden` para elegir a quién proteger",
				Inline: true,
			},
			{
				Name:   "👮 Administradores",
				Value:  "Usa `/config admins` para registrar roles exentos",
				Inline: true,
			},
			{
				Name:   "⏱️ Sanciones",
				Value:  "Usa `/config timeout` para la duración del silencio (3 advertencias)",
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Usa /config show para ver la configuración actual",
		},
		Timestamp: now.Format(time.RFC3339),
	}
}
