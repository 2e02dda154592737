package mod

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// createWarnsCommand creates the /mod warns subcommand
func createWarnsCommand(svc Services) *discord.Command {
	return discord.NewCommand(
		"warns",
		"Muestra las advertencias de un usuario",
		"mod",
		func(ctx *discord.CommandContext) error { return warnsHandler(ctx, svc) },
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a consultar (por defecto tú)",
			Required:    false,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).InGuild()
}

func warnsHandler(ctx *discord.CommandContext, svc Services) error {
	target := ctx.GetUserOption("usuario")
	if target == nil {
		target = ctx.User()
	}

	embed, err := svc.warnsEmbed(ctx.Ctx, ctx.Interaction.GuildID, target)
	if err != nil {
		logger.Error(fmt.Sprintf("Error DB Warns: %v", err), "CMD-Warns")
		return ctx.ReplyEphemeralEmbed(errorEmbed("Error al consultar la base de datos", err))
	}
	return ctx.ReplyEphemeralEmbed(embed)
}

func (s Services) warnsEmbed(ctx context.Context, guildID string, user *discordgo.User) (*discordgo.MessageEmbed, error) {
	count, err := s.Ledger.Current(ctx, guildID, user.ID)
	if err != nil {
		return nil, err
	}
	threshold := s.config(ctx, guildID).Threshold()

	color := 0x00FF00
	switch {
	case count >= threshold:
		color = 0xFF0000
	case count > 0:
		color = 0xFFA500
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🔖 - Advertencias de %s", user.Username),
		Description: fmt.Sprintf("> 💫 - **Cantidad de advertencias:** %d/%d\n> 🕒 - **Fecha de consulta:** <t:%d>",
			count, threshold, s.clock().Unix()),
		Color:  color,
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}, nil
}
