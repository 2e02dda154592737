// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category (mod, guildconfig)
package commands

import (
	"github.com/PancyStudios/PancyGuardGo/internal/commands/guildconfig"
	"github.com/PancyStudios/PancyGuardGo/internal/commands/mod"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
)

// Services are the dependencies of every command category.
type Services struct {
	Mod         mod.Services
	Config      guildconfig.Services
	StoreStatus func() (string, bool)
}

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, svc Services) {
	// Utility commands
	RegisterUtilCommands(client, svc.StoreStatus)

	// Moderation commands (/mod warn, /mod warns, /mod resetwarns, /mod mute, /mod exception)
	mod.RegisterModCommands(client, svc.Mod)

	// Guild configuration (/config ...)
	guildconfig.RegisterConfigCommands(client, svc.Config)
}
