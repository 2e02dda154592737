package models

import "time"

// WarnRecord is the warn counter of a user inside a guild.
// It is stored in the "warns" collection keyed by guildId + userId.
type WarnRecord struct {
	GuildID   string    `bson:"guildId" json:"guildId" db:"guild_id"`
	UserID    string    `bson:"userId" json:"userId" db:"user_id"`
	WarnCount uint64    `bson:"warnCount" json:"warnCount" db:"warn_count"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt" db:"updated_at"`
}

// Count returns the warn count, 0 for a missing record.
func (w *WarnRecord) Count() uint64 {
	if w == nil {
		return 0
	}
	return w.WarnCount
}

// MessageRecord is the audit snapshot of a processed message.
type MessageRecord struct {
	MessageID string    `bson:"messageId" json:"messageId" db:"message_id"`
	Content   string    `bson:"content" json:"content" db:"content"`
	AuthorID  string    `bson:"authorId" json:"authorId" db:"author_id"`
	ChannelID string    `bson:"channelId" json:"channelId" db:"channel_id"`
	GuildID   string    `bson:"guildId,omitempty" json:"guildId,omitempty" db:"guild_id"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt" db:"created_at"`
}

// ForbiddenException is a standing opt-out of a user from a policy.
type ForbiddenException struct {
	GuildID   string    `bson:"guildId" json:"guildId" db:"guild_id"`
	UserID    string    `bson:"userId" json:"userId" db:"user_id"`
	Policy    string    `bson:"policy" json:"policy" db:"policy"`
	Active    bool      `bson:"active" json:"active" db:"active"`
	GrantedBy string    `bson:"grantedBy,omitempty" json:"grantedBy,omitempty" db:"granted_by"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt" db:"updated_at"`
}
