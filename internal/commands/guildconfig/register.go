// Package guildconfig provides the /config command group that reads and
// writes the moderation configuration of a guild.
package guildconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// ConfigStore reads and writes guild configurations.
type ConfigStore interface {
	GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error)
	UpsertGuildPolicyConfig(ctx context.Context, cfg *models.GuildPolicyConfig) error
}

// Services holds what the /config commands use.
type Services struct {
	Configs ConfigStore
	now     func() time.Time
}

// validationError is shown to the user as is.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func (s Services) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// load returns the guild's configuration, an empty one when it has none.
func (s Services) load(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error) {
	cfg, err := s.Configs.GetGuildPolicyConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &models.GuildPolicyConfig{GuildID: guildID}
	}
	return cfg, nil
}

// update loads, mutates and stores the guild's configuration.
func (s Services) update(ctx context.Context, guildID string, mutate func(cfg *models.GuildPolicyConfig) error) (*models.GuildPolicyConfig, error) {
	cfg, err := s.load(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if err := mutate(cfg); err != nil {
		return nil, err
	}
	cfg.UpdatedAt = s.clock()
	if err := s.Configs.UpsertGuildPolicyConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RegisterConfigCommands registers the /config group
func RegisterConfigCommands(client *discord.ExtendedClient, svc Services) {
	group := client.CommandHandler.BuildCommandGroup(
		"config",
		"Configuración de moderación del servidor",
		createShowCommand(svc),
		createForbiddenCommand(svc),
		createAdminsCommand(svc),
		createTimeoutCommand(svc),
		createMessagesCommand(svc),
		createChannelCommand(svc),
		createPoliciesCommand(svc),
	)

	client.CommandHandler.AddGlobalCommand(group)
}

// newSetter builds a /config subcommand that applies mutate and replies
// with the resulting configuration.
func newSetter(svc Services, name, description string, mutate func(ctx *discord.CommandContext, cfg *models.GuildPolicyConfig) error, opts ...*discordgo.ApplicationCommandOption) *discord.Command {
	return discord.NewCommand(name, description, "config", func(ctx *discord.CommandContext) error {
		cfg, err := svc.update(ctx.Ctx, ctx.Interaction.GuildID, func(cfg *models.GuildPolicyConfig) error {
			return mutate(ctx, cfg)
		})
		return replyConfig(ctx, name, cfg, err)
	}).WithOptions(opts...).WithUserPermissions(discordgo.PermissionManageGuild).InGuild()
}

func replyConfig(ctx *discord.CommandContext, name string, cfg *models.GuildPolicyConfig, err error) error {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		return ctx.ReplyEphemeral("❌ " + verr.msg)
	case err != nil:
		logger.Error(fmt.Sprintf("Error en /config %s: %v", name, err), "CMD-Config")
		return ctx.ReplyEphemeral("❌ Error al guardar la configuración.")
	}
	logger.Info(fmt.Sprintf("Configuración de %s actualizada con /config %s", cfg.GuildID, name), "CMD-Config")
	embed := configEmbed(cfg)
	embed.Title = "✅ Configuración actualizada"
	return ctx.ReplyEphemeralEmbed(embed)
}
