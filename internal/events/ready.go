// Package events provides event handlers for the bot
package events

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/config"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// RegisterReadyEvent registers the ready event handler
func RegisterReadyEvent(client *discord.ExtendedClient) {
	client.EventHandler.OnReady(onReady)
}

func readyStatus(guilds int) string {
	if guilds == 1 {
		return "las menciones en 1 servidor 🛡️"
	}
	return fmt.Sprintf("las menciones en %d servidores 🛡️", guilds)
}

func onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Info(fmt.Sprintf("🛡️ %s (%s) vigilando %d servidores", r.User.Username, config.Version, len(r.Guilds)), "Ready")

	if err := s.UpdateWatchStatus(0, readyStatus(len(r.Guilds))); err != nil {
		logger.Error(fmt.Sprintf("Error estableciendo estado: %v", err), "Ready")
	}
}
