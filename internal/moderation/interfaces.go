package moderation

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// Platform is the chat platform client the engine acts through.
type Platform interface {
	SendNotice(ctx context.Context, channelID string, notice models.Notice) (string, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	// FetchMember returns nil, nil when the user is not a member.
	FetchMember(ctx context.Context, guildID, userID string) (*models.Member, error)
	ApplyTimeout(ctx context.Context, guildID, userID string, d time.Duration) error
	HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
}

// ConfigStore holds one policy configuration per guild.
type ConfigStore interface {
	// GetGuildPolicyConfig returns nil, nil when the guild has no configuration.
	GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error)
	UpsertGuildPolicyConfig(ctx context.Context, cfg *models.GuildPolicyConfig) error
}

// MessageStore persists the audit snapshot of processed messages.
type MessageStore interface {
	CreateMessageRecord(ctx context.Context, rec models.MessageRecord) error
}

// WarnStore persists warn counters. IncrementWarnRecord must be a single
// atomic storage operation that creates the record with count 1 when missing.
type WarnStore interface {
	// GetWarnRecord returns nil, nil when the user has no record.
	GetWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error)
	IncrementWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error)
	ResetWarnRecord(ctx context.Context, guildID, userID string) error
}

// ExceptionStore holds the standing opt-outs of users from policies.
type ExceptionStore interface {
	HasException(ctx context.Context, guildID, userID, policy string) (bool, error)
	SetException(ctx context.Context, exc models.ForbiddenException) error
}

// AttachmentInspector checks the attachments of a message.
type AttachmentInspector interface {
	Inspect(ctx context.Context, msg *models.Message) error
}

// SpamVerdict is the answer of a LinkChecker.
type SpamVerdict struct {
	Spam    bool
	Link    string
	Repeats int
}

// LinkChecker finds links and tells whether they are being spammed.
type LinkChecker interface {
	ExtractLinks(content string) []string
	CheckSpam(ctx context.Context, guildID, userID, channelID string, links []string) (SpamVerdict, error)
}

// DecisionPublisher broadcasts finished decisions to other services.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, d *Decision) error
}

// Observer receives structured log lines.
type Observer interface {
	LogFields(level logger.LogLevel, message, prefix string, fields logger.Fields)
}
