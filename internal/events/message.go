// Package events provides event handlers for message events
package events

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/errors"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// RegisterMessageEvents sends every created message through the moderator
func RegisterMessageEvents(client *discord.ExtendedClient, mod Moderator, timeout time.Duration) {
	if mod == nil {
		logger.Warn("Moderación deshabilitada: no hay pipeline configurado", "Events")
		return
	}
	client.EventHandler.OnMessageCreate(onMessageCreate(mod, timeout))
}

// onMessageCreate converts the event and hands it to the moderator. Each
// event runs on its own goroutine, so a panic is recovered here.
func onMessageCreate(mod Moderator, timeout time.Duration) discord.MessageCreateHandler {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		defer errors.RecoverMiddleware()()

		msg := discord.MessageFromEvent(m)
		if msg == nil || msg.AuthorBot {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		mod.Handle(ctx, msg)
	}
}
