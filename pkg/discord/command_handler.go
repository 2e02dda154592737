package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/config"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// CommandHandler manages command loading and registration
type CommandHandler struct {
	client           *ExtendedClient
	slashCommands    []*discordgo.ApplicationCommand
	slashCommandsDev []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{
		client:           client,
		slashCommands:    make([]*discordgo.ApplicationCommand, 0),
		slashCommandsDev: make([]*discordgo.ApplicationCommand, 0),
	}
}

// RegisterCommand adds a command to the handler
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)

	appCmd := cmd.ToApplicationCommand()

	if cmd.IsDev {
		ch.slashCommandsDev = append(ch.slashCommandsDev, appCmd)
	} else {
		ch.slashCommands = append(ch.slashCommands, appCmd)
	}

	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

// BuildCommandGroup creates a command group with subcommands. The group
// takes the strictest permissions and guild restriction of its subcommands.
func (ch *CommandHandler) BuildCommandGroup(name, description string, subcommands ...*Command) *discordgo.ApplicationCommand {
	var perms int64
	guildOnly := false
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))

	for _, cmd := range subcommands {
		fullName := name + "." + cmd.Name
		ch.client.Commands.Set(fullName, cmd)
		perms |= cmd.UserPermissions
		guildOnly = guildOnly || cmd.GuildOnly

		opt := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		}
		options = append(options, opt)
	}

	group := &Command{Name: name, Description: description, Options: options, UserPermissions: perms, GuildOnly: guildOnly}
	return group.ToApplicationCommand()
}

// Commands returns the global and dev application commands
func (ch *CommandHandler) Commands() (global, dev []*discordgo.ApplicationCommand) {
	return ch.slashCommands, ch.slashCommandsDev
}

// RegisterCommands registers all slash commands with Discord. Dev commands
// go to the dev guild only.
func (ch *CommandHandler) RegisterCommands() {
	cfg := config.Get()

	logger.Info("🔄 Registrando comandos globales...", "CommandHandler")
	if err := ch.SyncCommands(""); err != nil {
		logger.Error("Error registrando comandos globales: "+err.Error(), "CommandHandler")
		return
	}
	logger.Success("✅ Comandos globales registrados.", "CommandHandler")

	if cfg.DevGuildID != "" && len(ch.slashCommandsDev) > 0 {
		logger.Info("🔄 Registrando comandos de desarrollo en el servidor "+cfg.DevGuildID+"...", "CommandHandler")
		if err := ch.SyncCommands(cfg.DevGuildID); err != nil {
			logger.Error("Error registrando comandos de desarrollo: "+err.Error(), "CommandHandler")
			return
		}
		logger.Success("✅ Comandos de desarrollo registrados.", "CommandHandler")
	}
}

// SyncCommands replaces the registered commands with the current ones:
// global commands when guildID is empty, dev commands otherwise. Stale
// commands are removed by Discord as part of the overwrite.
func (ch *CommandHandler) SyncCommands(guildID string) error {
	cmds := ch.slashCommands
	if guildID != "" {
		cmds = ch.slashCommandsDev
	}
	_, err := ch.client.Session.ApplicationCommandBulkOverwrite(ch.client.Session.State.User.ID, guildID, cmds)
	return err
}

// ListCommands returns the commands registered with Discord, global when
// guildID is empty.
func (ch *CommandHandler) ListCommands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommands(ch.client.Session.State.User.ID, guildID)
}

// UnregisterCommands removes every registered command, global when guildID
// is empty.
func (ch *CommandHandler) UnregisterCommands(guildID string) error {
	_, err := ch.client.Session.ApplicationCommandBulkOverwrite(ch.client.Session.State.User.ID, guildID, []*discordgo.ApplicationCommand{})
	return err
}

// AddGlobalCommand adds a command to the global command list
func (ch *CommandHandler) AddGlobalCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommands = append(ch.slashCommands, cmd)
}
