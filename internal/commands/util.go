// Package commands provides utility commands for the bot.
package commands

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/config"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
)

// RegisterUtilCommands registers all utility commands
func RegisterUtilCommands(client *discord.ExtendedClient, storeStatus func() (string, bool)) {
	// Ping command
	pingCmd := discord.NewCommand(
		"ping",
		"Comprueba la latencia del bot",
		"util",
		func(ctx *discord.CommandContext) error {
			latency := ctx.Client.Session.HeartbeatLatency().Milliseconds()
			return ctx.Reply(fmt.Sprintf("🏓 Pong! Latencia: %dms", latency))
		},
	)
	client.CommandHandler.RegisterCommand(pingCmd)

	// Status command
	statusCmd := discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"util",
		func(ctx *discord.CommandContext) error {
			return ctx.Reply(statusText(storeStatus, ctx.Client.GuildCount(), time.Since(ctx.Client.StartTime)))
		},
	)
	client.CommandHandler.RegisterCommand(statusCmd)

	// Help command
	helpCmd := discord.NewCommand(
		"help",
		"Muestra información de ayuda",
		"util",
		func(ctx *discord.CommandContext) error {
			return ctx.ReplyEphemeral(helpText)
		},
	)
	client.CommandHandler.RegisterCommand(helpCmd)
}

func statusText(storeStatus func() (string, bool), guilds int, uptime time.Duration) string {
	dbStatus := "Desconocido"
	if storeStatus != nil {
		dbStatus, _ = storeStatus()
	}
	return fmt.Sprintf(
		"📊 **Estado del Bot** (`%s`)\n"+
			"• Bot: 🟢 Online\n"+
			"• Base de datos: %s\n"+
			"• Servidores: %d\n"+
			"• Tiempo activo: %s",
		config.Version,
		dbStatus,
		guilds,
		uptime.Round(time.Second),
	)
}

const helpText = "📖 **Ayuda de PancyGuard Go**\n\n" +
	"**Configuración** (Gestionar servidor):\n" +
	"• `/config show` - Configuración actual\n" +
	"• `/config forbidden` - Usuario y rol protegidos\n" +
	"• `/config admins` - Roles exentos\n" +
	"• `/config timeout` - Duración del silencio\n" +
	"• `/config messages` - Mensajes de advertencia y silencio\n" +
	"• `/config channel` - Canales de registros, bienvenida y off-topic\n" +
	"• `/config policies` - @everyone/@here y spam de enlaces\n\n" +
	"**Moderación** (Moderar miembros):\n" +
	"• `/mod warn` - Advertencia manual\n" +
	"• `/mod warns` - Consultar advertencias\n" +
	"• `/mod resetwarns` - Reiniciar advertencias\n" +
	"• `/mod mute` - Silenciar\n" +
	"• `/mod exception` - Eximir de una política\n\n" +
	"**Utilidad:** `/ping`, `/status`, `/help`"
