package discord

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

var gatewayEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_gateway_events_total",
	Help: "Gateway events delivered to registered handlers, by event name.",
}, []string{"event"})

// EventHandler keeps track of the gateway handlers added to the session.
type EventHandler struct {
	client *ExtendedClient
	names  []string
	mu     sync.RWMutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{client: client}
}

// Count returns how many typed handlers were registered
func (eh *EventHandler) Count() int {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	return len(eh.names)
}

// Registered returns the event names of the typed handlers, in order.
func (eh *EventHandler) Registered() []string {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	return append([]string(nil), eh.names...)
}

// counted wraps handler so every delivery bumps the gateway counter.
// The returned func keeps the concrete signature discordgo dispatches on.
func counted[T any](name string, handler func(*discordgo.Session, T)) func(*discordgo.Session, T) {
	c := gatewayEvents.WithLabelValues(name)
	return func(s *discordgo.Session, e T) {
		c.Inc()
		handler(s, e)
	}
}

func on[T any](eh *EventHandler, name string, handler func(*discordgo.Session, T)) {
	eh.client.Session.AddHandler(counted(name, handler))
	eh.mu.Lock()
	eh.names = append(eh.names, name)
	eh.mu.Unlock()
	logger.Debug(fmt.Sprintf("Evento '%s' registrado", name), "EventHandler")
}

type (
	ReadyHandler          func(s *discordgo.Session, r *discordgo.Ready)
	GuildCreateHandler    func(s *discordgo.Session, g *discordgo.GuildCreate)
	GuildDeleteHandler    func(s *discordgo.Session, g *discordgo.GuildDelete)
	MessageCreateHandler  func(s *discordgo.Session, m *discordgo.MessageCreate)
	GuildMemberAddHandler func(s *discordgo.Session, m *discordgo.GuildMemberAdd)
	DisconnectHandler     func(s *discordgo.Session, d *discordgo.Disconnect)
	ResumedHandler        func(s *discordgo.Session, r *discordgo.Resumed)
)

func (eh *EventHandler) OnReady(handler ReadyHandler) { on[*discordgo.Ready](eh, "Ready", handler) }
func (eh *EventHandler) OnGuildCreate(handler GuildCreateHandler) { on[*discordgo.GuildCreate](eh, "GuildCreate", handler) }
func (eh *EventHandler) OnGuildDelete(handler GuildDeleteHandler) { on[*discordgo.GuildDelete](eh, "GuildDelete", handler) }
func (eh *EventHandler) OnDisconnect(handler DisconnectHandler) { on[*discordgo.Disconnect](eh, "Disconnect", handler) }
func (eh *EventHandler) OnResumed(handler ResumedHandler) { on[*discordgo.Resumed](eh, "Resumed", handler) }

// OnMessageCreate registers the handler every inbound message goes through.
func (eh *EventHandler) OnMessageCreate(handler MessageCreateHandler) {
	on[*discordgo.MessageCreate](eh, "MessageCreate", handler)
}

// OnGuildMemberAdd needs the GUILD_MEMBERS privileged intent to fire.
func (eh *EventHandler) OnGuildMemberAdd(handler GuildMemberAddHandler) {
	on[*discordgo.GuildMemberAdd](eh, "GuildMemberAdd", handler)
}
