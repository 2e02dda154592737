package mod

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// createResetWarnsCommand creates the /mod resetwarns subcommand
func createResetWarnsCommand(svc Services) *discord.Command {
	return discord.NewCommand(
		"resetwarns",
		"Reinicia las advertencias de un usuario",
		"mod",
		func(ctx *discord.CommandContext) error { return resetWarnsHandler(ctx, svc) },
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario cuyas advertencias se reinician",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).InGuild()
}

// resetWarnsHandler handles the /mod resetwarns command
func resetWarnsHandler(ctx *discord.CommandContext, svc Services) error {
	target := ctx.GetUserOption("usuario")
	if target == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario válido.")
	}

	embed, err := svc.resetWarns(ctx.Ctx, ctx.Interaction.GuildID, target, ctx.User())
	if err != nil {
		logger.Error(fmt.Sprintf("Error guardando ResetWarns: %v", err), "CMD-ResetWarns")
		return ctx.ReplyEphemeralEmbed(errorEmbed("Error al reiniciar advertencias", err))
	}
	return ctx.ReplyEmbed(embed)
}

func (s Services) resetWarns(ctx context.Context, guildID string, target, moderator *discordgo.User) (*discordgo.MessageEmbed, error) {
	previous, err := s.Ledger.Current(ctx, guildID, target.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Ledger.Reset(ctx, guildID, target.ID); err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Advertencias de %s reiniciadas en %s por %s (%d → 0)", target.ID, guildID, moderator.ID, previous), "CMD-ResetWarns")

	return &discordgo.MessageEmbed{
		Title:       "✅ Advertencias reiniciadas",
		Description: fmt.Sprintf("Las advertencias de <@%s> han sido reiniciadas.\n\n**Antes:** %d\n**Ahora:** 0", target.ID, previous),
		Color:       0x00FF00,
		Footer: &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("Solicitado por %s", moderator.String()),
			IconURL: moderator.AvatarURL(""),
		},
		Timestamp: s.clock().Format(time.RFC3339),
	}, nil
}
