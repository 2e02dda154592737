// Package events provides event handlers for member events
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/errors"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

const welcomeTimeout = 10 * time.Second

// RegisterMemberEvents registers all member-related event handlers
func RegisterMemberEvents(client *discord.ExtendedClient, configs ConfigReader) {
	if configs == nil {
		return
	}
	client.EventHandler.OnGuildMemberAdd(onGuildMemberAdd(configs))
}

// onGuildMemberAdd greets new members in the guild's welcome channel
func onGuildMemberAdd(configs ConfigReader) discord.GuildMemberAddHandler {
	return func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		defer errors.RecoverMiddleware()()

		if m.Member == nil || m.User == nil || m.User.Bot {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), welcomeTimeout)
		defer cancel()

		cfg, err := configs.GetGuildPolicyConfig(ctx, m.GuildID)
		if err != nil {
			logger.Error(fmt.Sprintf("Error obteniendo configuración de %s: %v", m.GuildID, err), "Member")
			return
		}
		if cfg == nil || cfg.WelcomeChannelID == "" {
			return
		}

		guildName, memberCount := "", 0
		if g, err := s.State.Guild(m.GuildID); err == nil {
			guildName, memberCount = g.Name, g.MemberCount
		}

		embed := welcomeEmbed(m.User, guildName, memberCount, time.Now())
		if _, err := s.ChannelMessageSendEmbed(cfg.WelcomeChannelID, embed, discordgo.WithContext(ctx)); err != nil {
			logger.Error(fmt.Sprintf("Error enviando mensaje de bienvenida: %v", err), "Member")
			return
		}

		logger.Info(fmt.Sprintf("👋 Nuevo miembro: %s en servidor %s", m.User.Username, m.GuildID), "Member")
	}
}

func welcomeEmbed(user *discordgo.User, guildName string, memberCount int, now time.Time) *discordgo.MessageEmbed {
	description := fmt.Sprintf("Dale la bienvenida a <@%s>", user.ID)
	if memberCount > 0 {
		description += fmt.Sprintf("\nAhora somos **%d** miembros.", memberCount)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "¡Bienvenido/a! 🎉",
		Description: description,
		Color:       0x00ff00,
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: user.AvatarURL("128"),
		},
		Timestamp: now.Format(time.RFC3339),
	}
	if guildName != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: guildName}
	}
	return embed
}
