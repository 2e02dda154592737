package events

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

type recordingModerator struct {
	mu       sync.Mutex
	messages []*models.Message
	deadline bool
	panics   bool
}

func (r *recordingModerator) Handle(ctx context.Context, msg *models.Message) *moderation.Decision {
	if r.panics {
		panic("boom")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, r.deadline = ctx.Deadline()
	r.messages = append(r.messages, msg)
	return &moderation.Decision{}
}

func messageEvent(authorBot bool, webhook string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   "hola <@42>",
		Author:    &discordgo.User{ID: "7", Bot: authorBot},
		Mentions:  []*discordgo.User{{ID: "42"}},
		WebhookID: webhook,
	}}
}

func TestOnMessageCreate(t *testing.T) {
	mod := &recordingModerator{}
	onMessageCreate(mod, time.Second)(nil, messageEvent(false, ""))

	if len(mod.messages) != 1 {
		t.Fatalf("handled = %d, want 1", len(mod.messages))
	}
	got := mod.messages[0]
	if got.AuthorID != "7" || got.GuildID != "g1" || !got.MentionsUser("42") {
		t.Errorf("message = %+v, want author 7 in g1 mentioning 42", got)
	}
	if !mod.deadline {
		t.Error("moderation context has no deadline")
	}
}

func TestOnMessageCreateSkipsBots(t *testing.T) {
	mod := &recordingModerator{}
	onMessageCreate(mod, time.Second)(nil, messageEvent(true, ""))
	onMessageCreate(mod, time.Second)(nil, messageEvent(false, "w1"))
	onMessageCreate(mod, time.Second)(nil, &discordgo.MessageCreate{})

	if len(mod.messages) != 0 {
		t.Errorf("handled = %d, want 0", len(mod.messages))
	}
}

func TestOnMessageCreateRecoversPanic(t *testing.T) {
	mod := &recordingModerator{panics: true}
	// must not propagate
	onMessageCreate(mod, time.Second)(nil, messageEvent(false, ""))
}

func TestWelcomeEmbed(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	embed := welcomeEmbed(&discordgo.User{ID: "7"}, "Miau", 12, now)

	if !strings.Contains(embed.Description, "<@7>") {
		t.Errorf("Description = %q, want mention of 7", embed.Description)
	}
	if !strings.Contains(embed.Description, "**12**") {
		t.Errorf("Description = %q, want member count", embed.Description)
	}
	if embed.Footer == nil || embed.Footer.Text != "Miau" {
		t.Errorf("Footer = %+v, want guild name", embed.Footer)
	}

	bare := welcomeEmbed(&discordgo.User{ID: "7"}, "", 0, now)
	if bare.Footer != nil || strings.Contains(bare.Description, "miembros") {
		t.Errorf("embed without guild info = %+v", bare)
	}
}

func TestJoinedRecently(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		joinedAt time.Time
		want     bool
	}{
		{"just joined", now.Add(-2 * time.Second), true},
		{"reconnect", now.Add(-time.Hour), false},
		{"unknown", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinedRecently(tt.joinedAt, now); got != tt.want {
				t.Errorf("joinedRecently() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadyStatus(t *testing.T) {
	if got := readyStatus(1); !strings.Contains(got, "1 servidor ") {
		t.Errorf("readyStatus(1) = %q", got)
	}
	if got := readyStatus(12); !strings.Contains(got, "12 servidores") {
		t.Errorf("readyStatus(12) = %q", got)
	}
}
