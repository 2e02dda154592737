package moderation

import (
	"strings"
	"time"
)

// PolicyKind identifies a class of disallowed message content.
type PolicyKind string

const (
	PolicyForbiddenUser    PolicyKind = "forbidden_user"
	PolicyForbiddenRole    PolicyKind = "forbidden_role"
	PolicyBroadcastMention PolicyKind = "broadcast_mention"
	PolicySpamLink         PolicyKind = "spam_link"
)

// TriggeredPolicy is a policy a message matched, with the context needed by
// the later stages.
type TriggeredPolicy struct {
	Kind PolicyKind `json:"kind"`
	// UserIDs are the matched forbidden user, or the mentioned holders of
	// the forbidden role.
	UserIDs []string `json:"userIds,omitempty"`
	RoleID  string   `json:"roleId,omitempty"`
	// RolePinged is set when the forbidden role itself was mentioned.
	RolePinged bool     `json:"rolePinged,omitempty"`
	Links      []string `json:"links,omitempty"`
}

// target returns a stable description of what was matched.
func (p TriggeredPolicy) target() string {
	switch p.Kind {
	case PolicyForbiddenRole:
		return p.RoleID
	case PolicySpamLink:
		return strings.Join(p.Links, ",")
	default:
		return strings.Join(p.UserIDs, ",")
	}
}

// ExemptionReason tells why an actor bypassed a policy.
type ExemptionReason string

const (
	ExemptNone      ExemptionReason = ""
	ExemptSelf      ExemptionReason = "self"
	ExemptException ExemptionReason = "exception"
	ExemptAdmin     ExemptionReason = "admin"
)

// Exemption is the result of an exemption check.
type Exemption struct {
	Exempt bool            `json:"exempt"`
	Reason ExemptionReason `json:"reason,omitempty"`
}

func exempt(reason ExemptionReason) Exemption {
	return Exemption{Exempt: true, Reason: reason}
}

// Action is what the escalation controller decided to do.
type Action int

const (
	ActionNotify Action = iota
	ActionNotifyAndTimeout
)

func (a Action) String() string {
	switch a {
	case ActionNotify:
		return "notify"
	case ActionNotifyAndTimeout:
		return "notify_and_timeout"
	default:
		return "unknown"
	}
}

// ActionTaken is the visible result of processing a message.
type ActionTaken string

const (
	ActionTakenNone     ActionTaken = "none"
	ActionTakenWarned   ActionTaken = "warned"
	ActionTakenTimedOut ActionTaken = "timedOut"
)

// rank orders actions so a decision reports the strongest one.
func (a ActionTaken) rank() int {
	switch a {
	case ActionTakenTimedOut:
		return 2
	case ActionTakenWarned:
		return 1
	default:
		return 0
	}
}

// Stage names used in decisions, logs and metrics.
const (
	StageConfig     = "config"
	StageAttachment = "attachment"
	StageLinks      = "links"
	StageRoles      = "roles"
	StageExemption  = "exemption"
	StageLedger     = "ledger"
	StageEscalation = "escalation"
	StageAudit      = "audit"
	StagePersist    = "persist"
	StagePublish    = "publish"
)

// StageError is a failure recorded while processing a message.
type StageError struct {
	Stage   string     `json:"stage"`
	Policy  PolicyKind `json:"policy,omitempty"`
	Message string     `json:"error"`
	Err     error      `json:"-"`
}

// PolicyResult is the outcome of one triggered policy.
type PolicyResult struct {
	Policy    TriggeredPolicy `json:"policy"`
	Exemption Exemption       `json:"exemption"`
	// Cleared is set when a candidate policy turned out not to be a
	// violation, such as a link that is not repeated spam.
	Cleared   bool        `json:"cleared,omitempty"`
	WarnCount uint64      `json:"warnCount,omitempty"`
	Action    ActionTaken `json:"action"`
	Outcome   *Outcome    `json:"outcome,omitempty"`
}

// Decision is the per-message output of the pipeline.
type Decision struct {
	ID        string         `json:"id"`
	GuildID   string         `json:"guildId"`
	ChannelID string         `json:"channelId"`
	MessageID string         `json:"messageId"`
	AuthorID  string         `json:"authorId"`
	Discarded bool           `json:"discarded,omitempty"`
	Results   []PolicyResult `json:"results,omitempty"`
	WarnCount uint64         `json:"warnCount"`
	Action    ActionTaken    `json:"action"`
	Errors    []StageError   `json:"errors,omitempty"`
	Persisted bool           `json:"persisted"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"duration"`
}

func (d *Decision) addError(stage string, policy PolicyKind, err error) {
	d.Errors = append(d.Errors, StageError{Stage: stage, Policy: policy, Message: err.Error(), Err: err})
}

func (d *Decision) addResult(r PolicyResult) {
	d.Results = append(d.Results, r)
	if r.WarnCount > d.WarnCount {
		d.WarnCount = r.WarnCount
	}
	if r.Action.rank() > d.Action.rank() {
		d.Action = r.Action
	}
}

// Violating reports whether any policy escalated.
func (d *Decision) Violating() bool {
	for _, r := range d.Results {
		if !r.Exemption.Exempt && !r.Cleared {
			return true
		}
	}
	return false
}

// Result returns the result recorded for kind, if any.
func (d *Decision) Result(kind PolicyKind) (PolicyResult, bool) {
	for _, r := range d.Results {
		if r.Policy.Kind == kind {
			return r, true
		}
	}
	return PolicyResult{}, false
}
