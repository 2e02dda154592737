package moderation

import (
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// Evaluate classifies msg against the guild configuration. Every category
// is tested on its own so one message can trigger several policies. A
// policy without a configured target never triggers.
//
// Evaluate is pure: msg.Links and msg.RoleHolders must already be filled in.
func Evaluate(msg *models.Message, cfg *models.GuildPolicyConfig) []TriggeredPolicy {
	if msg == nil || cfg == nil {
		return nil
	}

	var triggered []TriggeredPolicy

	if p, err := forbiddenUserPolicy(msg, cfg); err == nil && p != nil {
		triggered = append(triggered, *p)
	}
	if p, err := forbiddenRolePolicy(msg, cfg); err == nil && p != nil {
		triggered = append(triggered, *p)
	}
	if cfg.Broadcast() != models.SanctionOff && msg.IsBroadcast() {
		triggered = append(triggered, TriggeredPolicy{Kind: PolicyBroadcastMention})
	}
	if cfg.Spam() != models.SanctionOff && len(msg.Links) > 0 {
		triggered = append(triggered, TriggeredPolicy{
			Kind:  PolicySpamLink,
			Links: append([]string(nil), msg.Links...),
		})
	}

	return triggered
}

func forbiddenUserPolicy(msg *models.Message, cfg *models.GuildPolicyConfig) (*TriggeredPolicy, error) {
	if cfg.ForbiddenUserID == "" {
		return nil, ErrPolicyNotConfigured
	}
	if !msg.MentionsUser(cfg.ForbiddenUserID) {
		return nil, nil
	}
	return &TriggeredPolicy{
		Kind:    PolicyForbiddenUser,
		UserIDs: []string{cfg.ForbiddenUserID},
	}, nil
}

func forbiddenRolePolicy(msg *models.Message, cfg *models.GuildPolicyConfig) (*TriggeredPolicy, error) {
	if cfg.ForbiddenRoleID == "" {
		return nil, ErrPolicyNotConfigured
	}

	pinged := msg.MentionsRole(cfg.ForbiddenRoleID)
	var holders []string
	for _, id := range msg.RoleHolders[cfg.ForbiddenRoleID] {
		if msg.MentionsUser(id) {
			holders = append(holders, id)
		}
	}
	if !pinged && len(holders) == 0 {
		return nil, nil
	}

	return &TriggeredPolicy{
		Kind:       PolicyForbiddenRole,
		UserIDs:    holders,
		RoleID:     cfg.ForbiddenRoleID,
		RolePinged: pinged,
	}, nil
}
