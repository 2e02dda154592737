package mod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

var policyChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Usuario protegido", Value: string(moderation.PolicyForbiddenUser)},
	{Name: "Rol protegido", Value: string(moderation.PolicyForbiddenRole)},
	{Name: "@everyone / @here", Value: string(moderation.PolicyBroadcastMention)},
	{Name: "Spam de enlaces", Value: string(moderation.PolicySpamLink)},
}

func validPolicy(p string) bool {
	for _, c := range policyChoices {
		if c.Value == p {
			return true
		}
	}
	return false
}

// createExceptionCommand creates the /mod exception subcommand
func createExceptionCommand(svc Services) *discord.Command {
	return discord.NewCommand(
		"exception",
		"Exime (o deja de eximir) a un usuario de una política",
		"mod",
		func(ctx *discord.CommandContext) error { return exceptionHandler(ctx, svc) },
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario afectado",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "politica",
			Description: "Política de la que se exime",
			Required:    true,
			Choices:     policyChoices,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "activo",
			Description: "Activar (por defecto) o retirar la excepción",
			Required:    false,
		},
	).WithUserPermissions(discordgo.PermissionManageGuild).InGuild()
}

func exceptionHandler(ctx *discord.CommandContext, svc Services) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}
	policy := ctx.GetStringOption("politica")
	if !validPolicy(policy) {
		return ctx.ReplyEphemeral("❌ Política desconocida.")
	}
	active := true
	if ctx.GetOption("activo") != nil {
		active = ctx.GetBoolOption("activo")
	}

	embed, err := svc.setException(ctx.Ctx, ctx.Interaction.GuildID, user.ID, policy, active, ctx.User().ID)
	if err != nil {
		logger.Error(fmt.Sprintf("Error guardando excepción: %v", err), "CMD-Exception")
		return ctx.ReplyEphemeralEmbed(errorEmbed("Error al guardar la excepción", err))
	}
	return ctx.ReplyEphemeralEmbed(embed)
}

func (s Services) setException(ctx context.Context, guildID, userID, policy string, active bool, grantedBy string) (*discordgo.MessageEmbed, error) {
	err := s.Exceptions.SetException(ctx, models.ForbiddenException{
		GuildID:   guildID,
		UserID:    userID,
		Policy:    policy,
		Active:    active,
		GrantedBy: grantedBy,
		UpdatedAt: s.clock(),
	})
	if err != nil {
		return nil, err
	}

	list, err := s.Exceptions.ListExceptions(ctx, guildID)
	if err != nil {
		return nil, err
	}

	verb := "ya no está exento de"
	if active {
		verb = "ahora está exento de"
	}
	return &discordgo.MessageEmbed{
		Title:       "🛡️ Excepciones",
		Description: fmt.Sprintf("<@%s> %s `%s`.\n\n%s", userID, verb, policy, formatExceptions(list)),
		Color:       0x3498db,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp:   s.clock().Format(time.RFC3339),
	}, nil
}

// formatExceptions lists the active exceptions of a guild.
func formatExceptions(list []models.ForbiddenException) string {
	var sb strings.Builder
	sb.WriteString("**Excepciones activas:**")
	n := 0
	for _, e := range list {
		if !e.Active {
			continue
		}
		n++
		fmt.Fprintf(&sb, "\n> <@%s> · `%s`", e.UserID, e.Policy)
	}
	if n == 0 {
		sb.WriteString("\n> Ninguna")
	}
	return sb.String()
}
