package guildconfig

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

const notSet = "No establecido"

func createShowCommand(svc Services) *discord.Command {
	return discord.NewCommand(
		"show",
		"Muestra la configuración actual",
		"config",
		func(ctx *discord.CommandContext) error {
			cfg, err := svc.load(ctx.Ctx, ctx.Interaction.GuildID)
			if err != nil {
				logger.Error(fmt.Sprintf("Error leyendo configuración: %v", err), "CMD-Config")
				return ctx.ReplyEphemeral("❌ Error al consultar la base de datos.")
			}
			return ctx.ReplyEphemeralEmbed(configEmbed(cfg))
		},
	).WithUserPermissions(discordgo.PermissionManageGuild).InGuild()
}

func mentionUser(id string) string {
	if id == "" {
		return notSet
	}
	return "<@" + id + ">"
}

func mentionRole(id string) string {
	if id == "" {
		return notSet
	}
	return "<@&" + id + ">"
}

func mentionChannel(id string) string {
	if id == "" {
		return notSet
	}
	return "<#" + id + ">"
}

func orNotSet(s string) string {
	if s == "" {
		return notSet
	}
	return s
}

// configEmbed renders every setting of cfg.
func configEmbed(cfg *models.GuildPolicyConfig) *discordgo.MessageEmbed {
	admins := make([]string, 0, len(cfg.AdminRoleIDs))
	for _, id := range cfg.AdminRoleIDs {
		admins = append(admins, mentionRole(id))
	}
	adminText := notSet
	if len(admins) > 0 {
		adminText = strings.Join(admins, ", ")
	}

	timeout := notSet
	if d := cfg.TimeoutDuration(); d > 0 {
		timeout = d.String()
	}

	reset := "No"
	if cfg.ResetWarnsAfterTimeout {
		reset = "Sí"
	}

	return &discordgo.MessageEmbed{
		Title: "⚙️ Configuración de moderación",
		Color: 0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usuario protegido", Value: mentionUser(cfg.ForbiddenUserID), Inline: true},
			{Name: "Rol protegido", Value: mentionRole(cfg.ForbiddenRoleID), Inline: true},
			{Name: "Roles administradores", Value: adminText, Inline: true},
			{Name: "Silencio", Value: timeout, Inline: true},
			{Name: "Umbral de advertencias", Value: fmt.Sprintf("%d", cfg.Threshold()), Inline: true},
			{Name: "Reiniciar tras silencio", Value: reset, Inline: true},
			{Name: "Mensaje de advertencia", Value: orNotSet(cfg.WarnMessage)},
			{Name: "Mensaje de silencio", Value: orNotSet(cfg.TimeoutMessage)},
			{Name: "Canal de registros", Value: mentionChannel(cfg.LogChannelID), Inline: true},
			{Name: "Canal de bienvenida", Value: mentionChannel(cfg.WelcomeChannelID), Inline: true},
			{Name: "Canal off-topic", Value: mentionChannel(cfg.OOCChannelID), Inline: true},
			{Name: "@everyone / @here", Value: string(cfg.Broadcast()), Inline: true},
			{Name: "Spam de enlaces", Value: string(cfg.Spam()), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"},
	}
}
