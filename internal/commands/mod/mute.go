// Package mod - /mod mute command
package mod

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
)

// maxTimeoutMinutes is the 28 day limit of Discord timeouts.
const maxTimeoutMinutes = 40320

// createMuteCommand creates the /mod mute subcommand
func createMuteCommand(svc Services) *discord.Command {
	return discord.NewCommand(
		"mute",
		"Silencia a un usuario temporalmente",
		"mod",
		func(ctx *discord.CommandContext) error { return muteHandler(ctx, svc) },
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a silenciar",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "duracion",
			Description: "Duración en minutos",
			Required:    true,
			MinValue:    func() *float64 { v := 1.0; return &v }(),
			MaxValue:    maxTimeoutMinutes,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón del silencio",
			Required:    false,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionModerateMembers).
		InGuild()
}

// muteHandler handles the /mod mute command
func muteHandler(ctx *discord.CommandContext, svc Services) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	minutes := ctx.GetIntOption("duracion")
	if minutes < 1 || minutes > maxTimeoutMinutes {
		return ctx.ReplyEphemeral("❌ La duración debe estar entre 1 minuto y 28 días.")
	}

	reason := ctx.GetStringOption("razon")
	if reason == "" {
		reason = "Sin razón especificada"
	}

	if err := svc.Timeouts.ApplyTimeout(ctx.Ctx, ctx.Interaction.GuildID, user.ID, time.Duration(minutes)*time.Minute); err != nil {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error al silenciar: %v", err))
	}

	return ctx.Reply(fmt.Sprintf("🔇 **%s** ha sido silenciado por %d minutos.\n**Razón:** %s",
		user.Username,
		minutes,
		reason,
	))
}
