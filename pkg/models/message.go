package models

import (
	"strings"
	"time"
)

// Attachment is a file attached to an inbound message.
type Attachment struct {
	ID          string
	Filename    string
	URL         string
	ContentType string
	Size        int
}

// Message is the platform-independent view of an inbound chat message.
type Message struct {
	ID              string
	Content         string
	AuthorID        string
	AuthorBot       bool
	ChannelID       string
	GuildID         string
	MentionUserIDs  []string
	MentionRoleIDs  []string
	MentionEveryone bool
	Attachments     []Attachment

	// Links holds the links extracted from Content before evaluation.
	Links []string
	// RoleHolders maps a role ID to the mentioned users holding it.
	RoleHolders map[string][]string
}

// MentionsUser reports whether userID is mentioned by the message.
func (m *Message) MentionsUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range m.MentionUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// MentionsRole reports whether roleID is pinged directly by the message.
func (m *Message) MentionsRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, id := range m.MentionRoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// IsBroadcast reports whether the message addresses the whole audience.
func (m *Message) IsBroadcast() bool {
	return m.MentionEveryone || strings.Contains(m.Content, "@everyone") || strings.Contains(m.Content, "@here")
}

// Record returns the audit snapshot of the message.
func (m *Message) Record() MessageRecord {
	return MessageRecord{
		MessageID: m.ID,
		Content:   m.Content,
		AuthorID:  m.AuthorID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		CreatedAt: time.Now().UTC(),
	}
}

// Member is the part of a guild member the moderation engine needs.
type Member struct {
	UserID        string
	RoleIDs       []string
	TimedOutUntil *time.Time
}

// HasRole reports whether the member holds roleID.
func (m *Member) HasRole(roleID string) bool {
	if m == nil || roleID == "" {
		return false
	}
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Notice is a message posted by the bot in a channel.
type Notice struct {
	Title       string
	Description string
	Color       int
	Footer      string
	Fields      []NoticeField
}

// NoticeField is a name/value pair shown under a notice.
type NoticeField struct {
	Name   string
	Value  string
	Inline bool
}
