package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// Platform adapts a discordgo session to the moderation engine. Every REST
// call carries the caller's context, so the engine's per-call deadline
// applies to the HTTP request.
type Platform struct {
	session *discordgo.Session
	now     func() time.Time
}

// NewPlatform wraps session.
func NewPlatform(session *discordgo.Session) *Platform {
	return &Platform{session: session, now: time.Now}
}

// SendNotice posts notice as an embed and returns the new message ID.
func (p *Platform) SendNotice(ctx context.Context, channelID string, notice models.Notice) (string, error) {
	m, err := p.session.ChannelMessageSendEmbed(channelID, NoticeEmbed(notice), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// DeleteMessage removes a message. A message that is already gone counts
// as deleted.
func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if restCode(err) == discordgo.ErrCodeUnknownMessage {
		return nil
	}
	return err
}

// FetchMember reads the member from the state cache first and falls back to
// the REST API. It returns nil, nil when the user is not in the guild.
func (p *Platform) FetchMember(ctx context.Context, guildID, userID string) (*models.Member, error) {
	if p.session.State != nil {
		if m, err := p.session.State.Member(guildID, userID); err == nil {
			return MemberFromDiscord(m), nil
		}
	}

	m, err := p.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if code := restCode(err); code == discordgo.ErrCodeUnknownMember || code == discordgo.ErrCodeUnknownUser {
			return nil, nil
		}
		return nil, err
	}
	return MemberFromDiscord(m), nil
}

// ApplyTimeout mutes the member for d starting now.
func (p *Platform) ApplyTimeout(ctx context.Context, guildID, userID string, d time.Duration) error {
	until := p.now().Add(d)
	return p.session.GuildMemberTimeout(guildID, userID, &until, discordgo.WithContext(ctx))
}

// HasRole reports whether userID currently holds roleID.
func (p *Platform) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	m, err := p.FetchMember(ctx, guildID, userID)
	if err != nil {
		return false, err
	}
	return m.HasRole(roleID), nil
}

// restCode returns the Discord JSON error code of a REST failure, or 0.
func restCode(err error) int {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Message == nil {
		return 0
	}
	return rest.Message.Code
}

// MemberFromDiscord converts a discordgo member.
func MemberFromDiscord(m *discordgo.Member) *models.Member {
	if m == nil {
		return nil
	}
	out := &models.Member{
		RoleIDs:       append([]string(nil), m.Roles...),
		TimedOutUntil: m.CommunicationDisabledUntil,
	}
	if m.User != nil {
		out.UserID = m.User.ID
	}
	return out
}

// MessageFromEvent converts a MessageCreate event. Webhook messages are
// treated as bot messages.
func MessageFromEvent(m *discordgo.MessageCreate) *models.Message {
	if m == nil || m.Message == nil {
		return nil
	}
	msg := &models.Message{
		ID:              m.ID,
		Content:         m.Content,
		ChannelID:       m.ChannelID,
		GuildID:         m.GuildID,
		MentionRoleIDs:  append([]string(nil), m.MentionRoles...),
		MentionEveryone: m.MentionEveryone,
		AuthorBot:       m.WebhookID != "",
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorBot = msg.AuthorBot || m.Author.Bot
	}
	for _, u := range m.Mentions {
		if u != nil {
			msg.MentionUserIDs = append(msg.MentionUserIDs, u.ID)
		}
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, models.Attachment{
			ID:          a.ID,
			Filename:    a.Filename,
			URL:         a.URL,
			ContentType: a.ContentType,
			Size:        a.Size,
		})
	}
	return msg
}

// NoticeEmbed renders a notice as a Discord embed.
func NoticeEmbed(n models.Notice) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Description,
		Color:       n.Color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if n.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: n.Footer}
	}
	for _, f := range n.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return embed
}
