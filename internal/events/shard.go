package events

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// RegisterShardEvents logs gateway drops. Messages sent while disconnected
// are never delivered, so they go unmoderated.
func RegisterShardEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnDisconnect(onShardDisconnect)
	client.EventHandler.OnResumed(onShardResumed)
}

func onShardDisconnect(s *discordgo.Session, _ *discordgo.Disconnect) {
	logger.Warn(fmt.Sprintf("🔌 Shard %d desconectado, la moderación queda en pausa", s.ShardID), "Shard")
}

func onShardResumed(s *discordgo.Session, _ *discordgo.Resumed) {
	logger.Success(fmt.Sprintf("✅ Shard %d reanudado, moderación activa", s.ShardID), "Shard")
}
