package models

import "time"

// DefaultWarnThreshold is the warn count at which a member gets timed out.
const DefaultWarnThreshold = 3

// MaxAdminRoles is the number of admin roles a guild can register.
const MaxAdminRoles = 2

// SanctionMode selects how a direct-sanction policy (broadcast mention,
// spam link) is handled.
type SanctionMode string

const (
	// SanctionTimeout mutes the author on the first occurrence using the
	// guild's timeout timer. This is the default.
	SanctionTimeout SanctionMode = "timeout"
	// SanctionWarn routes the violation through the warn ledger.
	SanctionWarn SanctionMode = "warn"
	// SanctionOff disables the policy.
	SanctionOff SanctionMode = "off"
)

// ParseSanctionMode returns the mode for s, falling back to SanctionTimeout
// for empty or unknown values.
func ParseSanctionMode(s string) SanctionMode {
	switch SanctionMode(s) {
	case SanctionWarn:
		return SanctionWarn
	case SanctionOff:
		return SanctionOff
	default:
		return SanctionTimeout
	}
}

// GuildPolicyConfig is the moderation configuration of one guild.
// Empty IDs and zero durations mean the setting is absent.
type GuildPolicyConfig struct {
	GuildID                string       `bson:"guildId" json:"guildId"`
	ForbiddenUserID        string       `bson:"forbiddenUserId,omitempty" json:"forbiddenUserId,omitempty"`
	ForbiddenRoleID        string       `bson:"forbiddenRoleId,omitempty" json:"forbiddenRoleId,omitempty"`
	AdminRoleIDs           []string     `bson:"adminRoleIds,omitempty" json:"adminRoleIds,omitempty"`
	WarnThreshold          int          `bson:"warnThreshold,omitempty" json:"warnThreshold,omitempty"`
	TimeoutSeconds         int64        `bson:"timeoutSeconds,omitempty" json:"timeoutSeconds,omitempty"`
	WarnMessage            string       `bson:"warnMessage,omitempty" json:"warnMessage,omitempty"`
	TimeoutMessage         string       `bson:"timeoutMessage,omitempty" json:"timeoutMessage,omitempty"`
	LogChannelID           string       `bson:"logChannelId,omitempty" json:"logChannelId,omitempty"`
	WelcomeChannelID       string       `bson:"welcomeChannelId,omitempty" json:"welcomeChannelId,omitempty"`
	OOCChannelID           string       `bson:"oocChannelId,omitempty" json:"oocChannelId,omitempty"`
	BroadcastMode          SanctionMode `bson:"broadcastMode,omitempty" json:"broadcastMode,omitempty"`
	SpamMode               SanctionMode `bson:"spamMode,omitempty" json:"spamMode,omitempty"`
	ResetWarnsAfterTimeout bool         `bson:"resetWarnsAfterTimeout" json:"resetWarnsAfterTimeout"`
	UpdatedAt              time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// Threshold returns the warn count that triggers a timeout. The boundary is
// fixed; a stored WarnThreshold is not consulted.
func (c *GuildPolicyConfig) Threshold() uint64 {
	return DefaultWarnThreshold
}

// TimeoutDuration returns the configured timeout, zero when unset.
func (c *GuildPolicyConfig) TimeoutDuration() time.Duration {
	if c == nil || c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Broadcast returns the effective broadcast mention mode.
func (c *GuildPolicyConfig) Broadcast() SanctionMode {
	if c == nil {
		return SanctionTimeout
	}
	return ParseSanctionMode(string(c.BroadcastMode))
}

// Spam returns the effective spam link mode.
func (c *GuildPolicyConfig) Spam() SanctionMode {
	if c == nil {
		return SanctionTimeout
	}
	return ParseSanctionMode(string(c.SpamMode))
}

// IsAdminRole reports whether roleID is one of the guild's admin roles.
func (c *GuildPolicyConfig) IsAdminRole(roleID string) bool {
	if c == nil || roleID == "" {
		return false
	}
	for _, id := range c.AdminRoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
