package moderation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// Notice texts used when a guild did not configure its own.
const (
	DefaultWarnMessage      = "Por favor no hagas @ a este usuario. Si estás respondiendo un mensaje, considera responder al mensaje sin usar @"
	DefaultTimeoutMessage   = "Has sido silenciado por mencionar a un usuario cuyo rol está prohibido de mencionar"
	DefaultBroadcastMessage = "No está permitido mencionar a @everyone o @here. Has sido silenciado."
	DefaultSpamMessage      = "No está permitido enviar el mismo enlace repetidas veces. Has sido silenciado."
)

const (
	colorWarn    = 0xFFCC00
	colorTimeout = 0xFF0000
)

// Violation is a non-exempt triggered policy ready to be escalated.
type Violation struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Policy    TriggeredPolicy
	// Count is the warn count after the ledger increment.
	Count  uint64
	Config *models.GuildPolicyConfig
}

func (v Violation) key() string {
	return strings.Join([]string{v.GuildID, v.UserID, v.MessageID, string(v.Policy.Kind)}, "/")
}

// Outcome reports the side effects of an escalation.
type Outcome struct {
	Action       Action   `json:"action"`
	Duplicate    bool     `json:"duplicate,omitempty"`
	NoticeSent   bool     `json:"noticeSent"`
	NoticeID     string   `json:"noticeId,omitempty"`
	TimedOut     bool     `json:"timedOut"`
	AlreadyMuted bool     `json:"alreadyMuted,omitempty"`
	Deleted      bool     `json:"deleted"`
	WarnsReset   bool     `json:"warnsReset,omitempty"`
	Problems     []string `json:"problems,omitempty"`
	Errors       []error  `json:"-"`
}

func (o *Outcome) fail(err error) {
	o.Errors = append(o.Errors, err)
	o.Problems = append(o.Problems, err.Error())
}

// Taken maps the outcome onto the decision's action.
func (o Outcome) Taken() ActionTaken {
	if o.TimedOut {
		return ActionTakenTimedOut
	}
	return ActionTakenWarned
}

// EscalationController decides and executes the response to a violation.
// Both mention policies and the warn mode of broadcast and spam go through
// the same Decide/Execute path.
type EscalationController struct {
	platform Platform
	ledger   *WarnLedger
	dedupe   *dedupeCache
	opts     Options
}

// NewEscalationController builds a controller. ledger is only used for the
// optional reset after a timeout and may be nil.
func NewEscalationController(platform Platform, ledger *WarnLedger, opts Options) *EscalationController {
	opts = opts.withDefaults()
	return &EscalationController{
		platform: platform,
		ledger:   ledger,
		dedupe:   newDedupeCache(opts.DedupeSize, opts.DedupeTTL),
		opts:     opts,
	}
}

// Decide returns Notify below the guild threshold and NotifyAndTimeout at or
// above it.
func (c *EscalationController) Decide(count uint64, cfg *models.GuildPolicyConfig) Action {
	return Decide(count, cfg)
}

// Decide maps a post-increment warn count to an action. Manual warns use it
// so they escalate at the same boundary as automatic ones.
func Decide(count uint64, cfg *models.GuildPolicyConfig) Action {
	if count < cfg.Threshold() {
		return ActionNotify
	}
	return ActionNotifyAndTimeout
}

// Execute posts the notice and, for NotifyAndTimeout, mutes the author and
// deletes the message once the notice is out. A violation is executed at
// most once.
func (c *EscalationController) Execute(ctx context.Context, v Violation, action Action) Outcome {
	out := Outcome{Action: action}
	if !c.dedupe.claim(v.key()) {
		out.Duplicate = true
		return out
	}

	c.send(ctx, v, c.notice(v, action, &out), &out)
	if action == ActionNotify {
		return out
	}

	d := v.Config.TimeoutDuration()
	if d == 0 {
		d = c.opts.DefaultTimeout
		out.fail(fmt.Errorf("%w: duración de silencio no establecida, usando %s", ErrConfigurationMissing, d))
	}
	c.mute(ctx, v, d, &out)

	if out.NoticeSent {
		c.delete(ctx, v, &out)
	}

	if out.TimedOut && v.Config != nil && v.Config.ResetWarnsAfterTimeout && c.ledger != nil {
		if err := c.ledger.Reset(ctx, v.GuildID, v.UserID); err != nil {
			out.fail(err)
		} else {
			out.WarnsReset = true
		}
	}

	return out
}

// Sanction is the direct path of broadcast and spam policies: notice and
// timeout with the current timer on the first occurrence, without touching
// the warn ledger. Spam messages are deleted after the notice.
func (c *EscalationController) Sanction(ctx context.Context, v Violation) Outcome {
	out := Outcome{Action: ActionNotifyAndTimeout}
	if !c.dedupe.claim(v.key()) {
		out.Duplicate = true
		return out
	}

	body := DefaultBroadcastMessage
	if v.Policy.Kind == PolicySpamLink {
		body = DefaultSpamMessage
	}
	c.send(ctx, v, models.Notice{
		Title:       "Usuario silenciado",
		Description: fmt.Sprintf("<@%s> %s", v.UserID, body),
		Color:       colorTimeout,
	}, &out)

	if d := v.Config.TimeoutDuration(); d > 0 {
		c.mute(ctx, v, d, &out)
	} else {
		out.fail(fmt.Errorf("%w: duración de silencio no establecida, no se aplica silencio", ErrConfigurationMissing))
	}

	if v.Policy.Kind == PolicySpamLink && out.NoticeSent {
		c.delete(ctx, v, &out)
	}
	return out
}

// notice renders the guild template for the action.
func (c *EscalationController) notice(v Violation, action Action, out *Outcome) models.Notice {
	threshold := v.Config.Threshold()
	d := v.Config.TimeoutDuration()
	if d == 0 {
		d = c.opts.DefaultTimeout
	}
	r := strings.NewReplacer(
		"{user}", "<@"+v.UserID+">",
		"{count}", strconv.FormatUint(v.Count, 10),
		"{threshold}", strconv.FormatUint(threshold, 10),
		"{duration}", d.String(),
	)

	var tmpl, title string
	color := colorWarn
	if action == ActionNotify {
		title = "Advertencia"
		tmpl = configured(v.Config, func(cfg *models.GuildPolicyConfig) string { return cfg.WarnMessage })
		if tmpl == "" {
			tmpl = DefaultWarnMessage
			out.fail(fmt.Errorf("%w: mensaje de advertencia no establecido", ErrConfigurationMissing))
		}
	} else {
		title = "Usuario silenciado"
		color = colorTimeout
		tmpl = configured(v.Config, func(cfg *models.GuildPolicyConfig) string { return cfg.TimeoutMessage })
		if tmpl == "" {
			tmpl = DefaultTimeoutMessage
			out.fail(fmt.Errorf("%w: mensaje de silencio no establecido", ErrConfigurationMissing))
		}
	}

	return models.Notice{
		Title:       title,
		Description: fmt.Sprintf("<@%s> %s", v.UserID, r.Replace(tmpl)),
		Color:       color,
		Footer:      fmt.Sprintf("Advertencia %d/%d", v.Count, threshold),
	}
}

func configured(cfg *models.GuildPolicyConfig, field func(*models.GuildPolicyConfig) string) string {
	if cfg == nil {
		return ""
	}
	return strings.TrimSpace(field(cfg))
}

func (c *EscalationController) call(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.opts.PlatformTimeout)
	defer cancel()
	return fn(callCtx)
}

func (c *EscalationController) send(ctx context.Context, v Violation, notice models.Notice, out *Outcome) {
	err := c.call(ctx, func(ctx context.Context) error {
		id, err := c.platform.SendNotice(ctx, v.ChannelID, notice)
		out.NoticeID = id
		return err
	})
	if err != nil {
		out.fail(fmt.Errorf("%w: enviando aviso a %s: %v", ErrPlatformCallFailure, v.ChannelID, err))
		return
	}
	out.NoticeSent = true
}

// mute applies the timeout unless the member is already muted past the
// intended end.
func (c *EscalationController) mute(ctx context.Context, v Violation, d time.Duration, out *Outcome) {
	until := c.opts.now().Add(d)

	var member *models.Member
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		member, err = c.platform.FetchMember(ctx, v.GuildID, v.UserID)
		return err
	})
	if err != nil {
		out.fail(fmt.Errorf("%w: obteniendo miembro %s: %v", ErrPlatformCallFailure, v.UserID, err))
	} else if member != nil && member.TimedOutUntil != nil && !member.TimedOutUntil.Before(until) {
		out.AlreadyMuted = true
		out.TimedOut = true
		return
	}

	err = c.call(ctx, func(ctx context.Context) error {
		return c.platform.ApplyTimeout(ctx, v.GuildID, v.UserID, d)
	})
	if err != nil {
		out.fail(fmt.Errorf("%w: silenciando a %s: %v", ErrPlatformCallFailure, v.UserID, err))
		return
	}
	out.TimedOut = true
}

// delete removes the offending message once per message.
func (c *EscalationController) delete(ctx context.Context, v Violation, out *Outcome) {
	if !c.dedupe.claim("delete/" + v.ChannelID + "/" + v.MessageID) {
		return
	}
	err := c.call(ctx, func(ctx context.Context) error {
		return c.platform.DeleteMessage(ctx, v.ChannelID, v.MessageID)
	})
	if err != nil {
		out.fail(fmt.Errorf("%w: borrando mensaje %s: %v", ErrPlatformCallFailure, v.MessageID, err))
		return
	}
	out.Deleted = true
}
