// Package main provides a utility to sync Discord slash commands.
// This removes stale commands from Discord and ensures only currently-defined commands are registered.
//
// Usage:
//
//	go run ./cmd/sync-commands [options]
//
// Options:
//
//	-list           List all registered commands (global and guild)
//	-clean          Remove all commands without registering new ones
//	-guild <id>     Target a specific guild instead of global commands
//	-sync           Sync commands (remove stale, register current) - default behavior
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/internal/commands"
	"github.com/PancyStudios/PancyGuardGo/pkg/config"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

func main() {
	// Parse command line flags
	listCmd := flag.Bool("list", false, "List all registered commands")
	cleanCmd := flag.Bool("clean", false, "Remove all commands without registering new ones")
	guildID := flag.String("guild", "", "Target a specific guild (leave empty for global)")
	syncCmd := flag.Bool("sync", false, "Sync commands (remove stale, register current)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Iniciando utilidad de sincronización de comandos...", "SyncCommands")

	// Initialize Discord client
	client, err := discord.NewClient(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "SyncCommands")
		os.Exit(1)
	}

	// Open connection to Discord
	if err := client.Session.Open(); err != nil {
		logger.Critical(fmt.Sprintf("Error connecting to Discord: %v", err), "SyncCommands")
		os.Exit(1)
	}
	defer client.Session.Close()

	logger.Success("Conectado a Discord", "SyncCommands")

	// Register commands to know what we should have. Handlers never run
	// here, so no stores are needed.
	commands.RegisterAll(client, commands.Services{})

	ok := true
	switch {
	case *listCmd:
		ok = listCommands(client, *guildID)
	case *cleanCmd:
		ok = cleanCommands(client, *guildID)
	case *syncCmd:
		ok = syncCommands(client, *guildID)
	default:
		ok = syncCommands(client, *guildID)
	}

	if !ok {
		os.Exit(1)
	}
	logger.Success("Operación completada exitosamente", "SyncCommands")
}

func scope(guildID string) string {
	if guildID == "" {
		return "globales"
	}
	return "del servidor " + guildID
}

// listCommands lists the commands registered with Discord next to the ones
// this build defines
func listCommands(client *discord.ExtendedClient, guildID string) bool {
	logger.Info("📋 Listando comandos "+scope(guildID)+"...", "SyncCommands")

	cmds, err := client.CommandHandler.ListCommands(guildID)
	if err != nil {
		logger.Error(fmt.Sprintf("Error obteniendo comandos: %v", err), "SyncCommands")
		return false
	}

	global, dev := client.CommandHandler.Commands()
	local := global
	if guildID != "" {
		local = dev
	}
	defined := make(map[string]bool, len(local))
	for _, c := range local {
		defined[c.Name] = true
	}

	if len(cmds) == 0 {
		logger.Info("No hay comandos registrados", "SyncCommands")
	}
	for i, cmd := range cmds {
		state := ""
		if !defined[cmd.Name] {
			state = " [obsoleto]"
		}
		logger.Info(fmt.Sprintf("  %d. /%s - %s (ID: %s)%s", i+1, cmd.Name, cmd.Description, cmd.ID, state), "SyncCommands")
	}
	logger.Info(fmt.Sprintf("Registrados: %d | Definidos: %d", len(cmds), len(local)), "SyncCommands")
	return true
}

// cleanCommands removes all commands from Discord
func cleanCommands(client *discord.ExtendedClient, guildID string) bool {
	logger.Info("🧹 Eliminando comandos "+scope(guildID)+"...", "SyncCommands")

	if err := client.CommandHandler.UnregisterCommands(guildID); err != nil {
		logger.Error(fmt.Sprintf("Error eliminando comandos: %v", err), "SyncCommands")
		return false
	}

	logger.Success("✅ Todos los comandos han sido eliminados", "SyncCommands")
	return true
}

// syncCommands overwrites the registered commands with the current ones
func syncCommands(client *discord.ExtendedClient, guildID string) bool {
	logger.Info("🔄 Sincronizando comandos "+scope(guildID)+"...", "SyncCommands")

	if err := client.CommandHandler.SyncCommands(guildID); err != nil {
		logger.Error(fmt.Sprintf("Error sincronizando comandos: %v", err), "SyncCommands")
		return false
	}

	global, dev := client.CommandHandler.Commands()
	synced := global
	if guildID != "" {
		synced = dev
	}
	logger.Success(fmt.Sprintf("✅ %d comandos sincronizados: %s", len(synced), names(synced)), "SyncCommands")
	return true
}

func names(cmds []*discordgo.ApplicationCommand) string {
	out := ""
	for i, c := range cmds {
		if i > 0 {
			out += ", "
		}
		out += "/" + c.Name
	}
	return out
}
