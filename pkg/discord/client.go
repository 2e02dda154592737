// Package discord provides the Discord bot client and related structures.
// It wraps discordgo with command handling, event registration and the
// platform adapter used by the moderation engine.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// commandTimeout bounds the work a slash command does after it is received.
const commandTimeout = 15 * time.Second

// discordgo.Logger is a function, not an interface
func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			logger.Error(msg, "DiscordGo")
		case discordgo.LogWarning:
			logger.Warn(msg, "DiscordGo")
		case discordgo.LogDebug:
			logger.Debug(msg, "DiscordGo")
		default:
			logger.Info(msg, "DiscordGo")
		}
	}
}

// ExtendedClient wraps discordgo.Session with additional functionality
type ExtendedClient struct {
	Session        *discordgo.Session
	Commands       *CommandCollection
	CommandHandler *CommandHandler
	EventHandler   *EventHandler
	StartTime      time.Time
	mu             sync.RWMutex
	isReady        bool
}

// CommandCollection holds registered commands
type CommandCollection struct {
	commands map[string]*Command
	mu       sync.RWMutex
}

// NewCommandCollection creates a new CommandCollection
func NewCommandCollection() *CommandCollection {
	return &CommandCollection{
		commands: make(map[string]*Command),
	}
}

// Set adds or updates a command
func (cc *CommandCollection) Set(name string, cmd *Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.commands[name] = cmd
}

// Get retrieves a command by name
func (cc *CommandCollection) Get(name string) (*Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	cmd, ok := cc.commands[name]
	return cmd, ok
}

// Size returns the number of commands
func (cc *CommandCollection) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.commands)
}

var (
	client *ExtendedClient
	once   sync.Once
)

// Init initializes the global Discord client
func Init(token string) (*ExtendedClient, error) {
	var err error
	once.Do(func() {
		client, err = NewClient(token)
	})
	return client, err
}

// Get returns the global Discord client
func Get() *ExtendedClient {
	return client
}

// NewClient creates a new ExtendedClient
func NewClient(token string) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	// Message content is required to look for broadcast mentions and links.
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	session.ShardCount = 1
	session.SyncEvents = false
	session.StateEnabled = true
	session.State.TrackMembers = true
	session.State.TrackRoles = true
	session.LogLevel = discordgo.LogWarning

	c := &ExtendedClient{
		Session:  session,
		Commands: NewCommandCollection(),
	}

	c.CommandHandler = NewCommandHandler(c)
	c.EventHandler = NewEventHandler(c)

	return c, nil
}

// Start registers the internal handlers and opens the gateway connection
func (c *ExtendedClient) Start() error {
	c.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		c.isReady = true
		c.mu.Unlock()

		logger.Success("Bot conectado como: "+r.User.Username, "Client")
		c.CommandHandler.RegisterCommands()
	})

	c.Session.AddHandler(c.handleInteraction)

	c.StartTime = time.Now()

	return c.Session.Open()
}

// commandKey builds the collection key of an interaction, including its
// subcommand and subcommand group.
func commandKey(data discordgo.ApplicationCommandInteractionData) string {
	name := data.Name
	if len(data.Options) == 0 {
		return name
	}
	opt := data.Options[0]
	switch opt.Type {
	case discordgo.ApplicationCommandOptionSubCommandGroup:
		if len(opt.Options) > 0 {
			return name + "." + opt.Name + "." + opt.Options[0].Name
		}
	case discordgo.ApplicationCommandOptionSubCommand:
		return name + "." + opt.Name
	}
	return name
}

// handleInteraction handles incoming Discord interactions
func (c *ExtendedClient) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := commandKey(i.ApplicationCommandData())
	cmd, ok := c.Commands.Get(name)
	if !ok {
		logger.Warn("Comando no encontrado: "+name, "Client")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	cctx := &CommandContext{
		Ctx:         ctx,
		Session:     s,
		Interaction: i,
		Client:      c,
	}

	if cmd.GuildOnly && i.GuildID == "" {
		cctx.ReplyEphemeral("❌ Este comando solo se puede usar dentro de un servidor.")
		return
	}
	if !cctx.HasPermissions(cmd.UserPermissions) {
		cctx.ReplyEphemeral("❌ No tienes permisos para usar este comando.")
		return
	}
	if !cctx.BotHasPermissions(cmd.BotPermissions) {
		cctx.ReplyEphemeral("❌ Me faltan permisos en este canal para ejecutar el comando.")
		return
	}

	if err := cmd.Run(cctx); err != nil {
		logger.Error("Error ejecutando el comando "+name+": "+err.Error(), "Client")
	}
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}
