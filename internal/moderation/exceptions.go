package moderation

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// ExceptionResolver decides whether an actor bypasses a triggered policy.
type ExceptionResolver struct {
	exceptions ExceptionStore
	platform   Platform
	opts       Options
}

// NewExceptionResolver builds a resolver over the exception store and the
// platform member lookup.
func NewExceptionResolver(exceptions ExceptionStore, platform Platform, opts Options) *ExceptionResolver {
	return &ExceptionResolver{exceptions: exceptions, platform: platform, opts: opts.withDefaults()}
}

// IsExempt checks, in order: self-mention, standing exceptions, admin roles.
// The first two never reach the platform.
func (r *ExceptionResolver) IsExempt(ctx context.Context, actorID string, policy TriggeredPolicy, cfg *models.GuildPolicyConfig) (Exemption, error) {
	if isSelfMention(actorID, policy) {
		return exempt(ExemptSelf), nil
	}

	guildID := ""
	if cfg != nil {
		guildID = cfg.GuildID
	}

	if r.exceptions != nil {
		ok, err := r.exceptions.HasException(ctx, guildID, actorID, string(policy.Kind))
		if err != nil {
			return Exemption{}, fmt.Errorf("%w: leyendo excepción de %s: %v", ErrPersistenceFailure, actorID, err)
		}
		if ok {
			return exempt(ExemptException), nil
		}

		// The protected user can opt out of their own protection.
		if policy.Kind == PolicyForbiddenUser {
			for _, target := range policy.UserIDs {
				ok, err := r.exceptions.HasException(ctx, guildID, target, string(policy.Kind))
				if err != nil {
					return Exemption{}, fmt.Errorf("%w: leyendo excepción de %s: %v", ErrPersistenceFailure, target, err)
				}
				if ok {
					return exempt(ExemptException), nil
				}
			}
		}
	}

	if cfg == nil || len(cfg.AdminRoleIDs) == 0 {
		return Exemption{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.opts.PlatformTimeout)
	defer cancel()
	member, err := r.platform.FetchMember(callCtx, guildID, actorID)
	if err != nil {
		return Exemption{}, fmt.Errorf("%w: obteniendo miembro %s: %v", ErrPlatformCallFailure, actorID, err)
	}
	if member == nil {
		return Exemption{}, nil
	}
	for _, roleID := range member.RoleIDs {
		if cfg.IsAdminRole(roleID) {
			return exempt(ExemptAdmin), nil
		}
	}

	return Exemption{}, nil
}

// isSelfMention reports whether every matched target of a mention policy is
// the actor. A direct ping of the forbidden role is never a self-mention.
func isSelfMention(actorID string, policy TriggeredPolicy) bool {
	switch policy.Kind {
	case PolicyForbiddenUser, PolicyForbiddenRole:
	default:
		return false
	}
	if policy.RolePinged || len(policy.UserIDs) == 0 {
		return false
	}
	for _, id := range policy.UserIDs {
		if id != actorID {
			return false
		}
	}
	return true
}
