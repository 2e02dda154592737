// Package mod - /mod warn command
package mod

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// createWarnCommand creates the /mod warn subcommand
func createWarnCommand(svc Services) *discord.Command {
	return discord.NewCommand(
		"warn",
		"Advierte a un usuario",
		"mod",
		func(ctx *discord.CommandContext) error { return warnHandler(ctx, svc) },
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a advertir",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón de la advertencia",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).InGuild()
}

// warnHandler handles the /mod warn command
func warnHandler(ctx *discord.CommandContext, svc Services) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}
	if user.Bot {
		return ctx.ReplyEphemeral("❌ No se puede advertir a un bot.")
	}

	reason := ctx.GetStringOption("razon")
	if reason == "" {
		return ctx.ReplyEphemeral("❌ Debes especificar una razón.")
	}

	embed, err := svc.warn(ctx.Ctx, ctx.Interaction.GuildID, user, reason, ctx.User().ID)
	if err != nil {
		logger.Error(fmt.Sprintf("Error advirtiendo a %s: %v", user.ID, err), "CMD-Warn")
		return ctx.ReplyEphemeralEmbed(errorEmbed("Error al advertir", err))
	}
	return ctx.ReplyEmbed(embed)
}

// warn adds a manual warn through the ledger and escalates it the same way
// the pipeline does: a timeout once the threshold is reached, then a ledger
// reset when the guild asks for one.
func (s Services) warn(ctx context.Context, guildID string, user *discordgo.User, reason, moderatorID string) (*discordgo.MessageEmbed, error) {
	cfg := s.config(ctx, guildID)
	count, err := s.Ledger.Increment(ctx, guildID, user.ID)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title: "⚠️ Advertencia registrada",
		Description: fmt.Sprintf("<@%s> ha sido advertido.\n\n> **Razón:** %s\n> **Moderador:** <@%s>\n> **Advertencias:** %d/%d",
			user.ID, reason, moderatorID, count, cfg.Threshold()),
		Color:     0xFFA500,
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp: s.clock().Format(time.RFC3339),
	}

	if moderation.Decide(count, cfg) != moderation.ActionNotifyAndTimeout || s.Timeouts == nil {
		return embed, nil
	}

	d := cfg.TimeoutDuration()
	if d <= 0 {
		d = moderation.DefaultMuteDuration
	}
	if err := s.Timeouts.ApplyTimeout(ctx, guildID, user.ID, d); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo silenciar a %s tras alcanzar el umbral: %v", user.ID, err), "CMD-Warn")
		embed.Description += "\n\n❌ No se pudo aplicar el silencio."
		return embed, nil
	}
	embed.Color = 0xFF0000
	embed.Description += fmt.Sprintf("\n\n🔇 Silenciado por %s al alcanzar el umbral.", d)

	if cfg == nil || !cfg.ResetWarnsAfterTimeout {
		return embed, nil
	}
	if err := s.Ledger.Reset(ctx, guildID, user.ID); err != nil {
		logger.Warn(fmt.Sprintf("No se pudieron reiniciar las advertencias de %s: %v", user.ID, err), "CMD-Warn")
		embed.Description += "\n❌ No se pudieron reiniciar las advertencias."
		return embed, nil
	}
	embed.Description += "\n♻️ Advertencias reiniciadas."
	return embed, nil
}
