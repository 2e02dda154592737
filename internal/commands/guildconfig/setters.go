package guildconfig

import (
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

const (
	maxTimeoutMinutes = 40320
	maxMessageLength  = 1000
)

// Channel kinds accepted by /config channel.
const (
	channelLog     = "log"
	channelWelcome = "welcome"
	channelOOC     = "ooc"
)

var modeChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Silenciar", Value: string(models.SanctionTimeout)},
	{Name: "Advertir", Value: string(models.SanctionWarn)},
	{Name: "Desactivado", Value: string(models.SanctionOff)},
}

func floatPtr(v float64) *float64 { return &v }

// setForbidden sets the protected user and role. Empty IDs keep the
// current value unless clear is set.
func setForbidden(cfg *models.GuildPolicyConfig, userID, roleID string, clear bool) error {
	if clear {
		cfg.ForbiddenUserID, cfg.ForbiddenRoleID = "", ""
		return nil
	}
	if userID == "" && roleID == "" {
		return invalid("Debes indicar un usuario, un rol o `limpiar`.")
	}
	if userID != "" {
		cfg.ForbiddenUserID = userID
	}
	if roleID != "" {
		cfg.ForbiddenRoleID = roleID
	}
	return nil
}

// setAdmins replaces the admin roles. No roles clears them.
func setAdmins(cfg *models.GuildPolicyConfig, roleIDs ...string) error {
	seen := make(map[string]bool, len(roleIDs))
	out := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) > models.MaxAdminRoles {
		return invalid("Solo se permiten %d roles administradores.", models.MaxAdminRoles)
	}
	cfg.AdminRoleIDs = out
	return nil
}

// setTimeout sets the timeout timer. Zero removes it, so escalations fall
// back to the default duration.
func setTimeout(cfg *models.GuildPolicyConfig, minutes int64) error {
	if minutes < 0 {
		return invalid("Debes indicar la duración del silencio.")
	}
	if minutes > maxTimeoutMinutes {
		return invalid("La duración máxima es de 28 días.")
	}
	cfg.TimeoutSeconds = int64(time.Duration(minutes) * time.Minute / time.Second)
	return nil
}

// setMessages sets the notice templates. Empty values keep the current
// template; "-" clears it.
func setMessages(cfg *models.GuildPolicyConfig, warn, timeout string) error {
	if warn == "" && timeout == "" {
		return invalid("Debes indicar al menos un mensaje.")
	}
	for _, m := range []string{warn, timeout} {
		if utf8.RuneCountInString(m) > maxMessageLength {
			return invalid("Los mensajes no pueden superar %d caracteres.", maxMessageLength)
		}
	}
	apply := func(dst *string, v string) {
		switch v {
		case "":
		case "-":
			*dst = ""
		default:
			*dst = v
		}
	}
	apply(&cfg.WarnMessage, warn)
	apply(&cfg.TimeoutMessage, timeout)
	return nil
}

// setChannel sets one of the guild's channels. An empty ID clears it.
func setChannel(cfg *models.GuildPolicyConfig, kind, channelID string) error {
	switch kind {
	case channelLog:
		cfg.LogChannelID = channelID
	case channelWelcome:
		cfg.WelcomeChannelID = channelID
	case channelOOC:
		cfg.OOCChannelID = channelID
	default:
		return invalid("Tipo de canal desconocido: %s", kind)
	}
	return nil
}

// setPolicies sets the sanction modes. Empty modes keep the current value.
func setPolicies(cfg *models.GuildPolicyConfig, broadcast, spam string, reset *bool) error {
	if broadcast == "" && spam == "" && reset == nil {
		return invalid("Debes indicar al menos una opción.")
	}
	if broadcast != "" {
		cfg.BroadcastMode = models.ParseSanctionMode(broadcast)
	}
	if spam != "" {
		cfg.SpamMode = models.ParseSanctionMode(spam)
	}
	if reset != nil {
		cfg.ResetWarnsAfterTimeout = *reset
	}
	return nil
}

func idOf(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

func roleIDOf(r *discordgo.Role) string {
	if r == nil {
		return ""
	}
	return r.ID
}

// intOption returns the option value, -1 when it was not given.
func intOption(ctx *discord.CommandContext, name string) int64 {
	if ctx.GetOption(name) == nil {
		return -1
	}
	return ctx.GetIntOption(name)
}

func createForbiddenCommand(svc Services) *discord.Command {
	return newSetter(svc, "forbidden", "Usuario y rol que no se pueden mencionar",
		func(ctx *discord.CommandContext, cfg *models.GuildPolicyConfig) error {
			return setForbidden(cfg, idOf(ctx.GetUserOption("usuario")), roleIDOf(ctx.GetRoleOption("rol")), ctx.GetBoolOption("limpiar"))
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario protegido",
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "rol",
			Description: "Rol protegido",
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "limpiar",
			Description: "Elimina el usuario y el rol protegidos",
		},
	)
}

func createAdminsCommand(svc Services) *discord.Command {
	return newSetter(svc, "admins", "Roles exentos de las políticas (máximo 2, vacío para limpiar)",
		func(ctx *discord.CommandContext, cfg *models.GuildPolicyConfig) error {
			return setAdmins(cfg, roleIDOf(ctx.GetRoleOption("rol1")), roleIDOf(ctx.GetRoleOption("rol2")))
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "rol1",
			Description: "Primer rol administrador",
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "rol2",
			Description: "Segundo rol administrador",
		},
	)
}

func createTimeoutCommand(svc Services) *discord.Command {
	return newSetter(svc, "timeout", "Duración del silencio al llegar a 3 advertencias",
		func(ctx *discord.CommandContext, cfg *models.GuildPolicyConfig) error {
			return setTimeout(cfg, intOption(ctx, "minutos"))
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "minutos",
			Description: "Duración del silencio en minutos (0 para quitarlo)",
			Required:    true,
			MinValue:    floatPtr(0),
			MaxValue:    maxTimeoutMinutes,
		},
	)
}

func createMessagesCommand(svc Services) *discord.Command {
	return newSetter(svc, "messages", "Mensajes de advertencia y silencio ({count}, {threshold}, {duration}; - para quitar)",
		func(ctx *discord.CommandContext, cfg *models.GuildPolicyConfig) error {
			return setMessages(cfg, ctx.GetStringOption("advertencia"), ctx.GetStringOption("silencio"))
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "advertencia",
			Description: "Mensaje al advertir",
			MaxLength:   maxMessageLength,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "silencio",
			Description: "Mensaje al silenciar",
			MaxLength:   maxMessageLength,
		},
	)
}

func createChannelCommand(svc Services) *discord.Command {
	return newSetter(svc, "channel", "Canales de registros, bienvenida y off-topic",
		func(ctx *discord.CommandContext, cfg *models.GuildPolicyConfig) error {
			channelID := ""
			if ch := ctx.GetChannelOption("canal"); ch != nil {
				channelID = ch.ID
			}
			return setChannel(cfg, ctx.GetStringOption("tipo"), channelID)
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "tipo",
			Description: "Canal a configurar",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Registros", Value: channelLog},
				{Name: "Bienvenida", Value: channelWelcome},
				{Name: "Off-topic", Value: channelOOC},
			},
		},
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "canal",
			Description:  "Canal (vacío para quitarlo)",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
	)
}

func createPoliciesCommand(svc Services) *discord.Command {
	return newSetter(svc, "policies", "Sanción de @everyone/@here y spam de enlaces",
		func(ctx *discord.CommandContext, cfg *models.GuildPolicyConfig) error {
			var reset *bool
			if ctx.GetOption("reiniciar") != nil {
				v := ctx.GetBoolOption("reiniciar")
				reset = &v
			}
			return setPolicies(cfg, ctx.GetStringOption("menciones"), ctx.GetStringOption("spam"), reset)
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "menciones",
			Description: "Qué hacer con @everyone / @here",
			Choices:     modeChoices,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "spam",
			Description: "Qué hacer con enlaces repetidos",
			Choices:     modeChoices,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "reiniciar",
			Description: "Reiniciar advertencias tras un silencio",
		},
	)
}
