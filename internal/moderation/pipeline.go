// Package moderation implements the per-message moderation engine: policy
// evaluation, exemption checks, the warn ledger and the escalation of
// violations, sequenced by Pipeline.
package moderation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/PancyStudios/PancyGuardGo/pkg/errors"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

const logPrefix = "Moderation"

// Dependencies are the collaborators of a Pipeline. Attachments, Links,
// Publisher and Observer are optional.
type Dependencies struct {
	Platform    Platform
	Configs     ConfigStore
	Messages    MessageStore
	Warns       WarnStore
	Exceptions  ExceptionStore
	Attachments AttachmentInspector
	Links       LinkChecker
	Publisher   DecisionPublisher
	Observer    Observer
	Options     Options
}

// Pipeline moderates inbound messages one at a time. It is safe for
// concurrent use; each message is handled independently.
type Pipeline struct {
	platform    Platform
	configs     ConfigStore
	messages    MessageStore
	ledger      *WarnLedger
	resolver    *ExceptionResolver
	escalation  *EscalationController
	attachments AttachmentInspector
	links       LinkChecker
	publisher   DecisionPublisher
	observer    Observer
	opts        Options
}

// NewPipeline wires the engine components together.
func NewPipeline(deps Dependencies) *Pipeline {
	opts := deps.Options.withDefaults()
	ledger := NewWarnLedger(deps.Warns)
	observer := deps.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Pipeline{
		platform:    deps.Platform,
		configs:     deps.Configs,
		messages:    deps.Messages,
		ledger:      ledger,
		resolver:    NewExceptionResolver(deps.Exceptions, deps.Platform, opts),
		escalation:  NewEscalationController(deps.Platform, ledger, opts),
		attachments: deps.Attachments,
		links:       deps.Links,
		publisher:   deps.Publisher,
		observer:    observer,
		opts:        opts,
	}
}

// Ledger returns the warn ledger used by the pipeline.
func (p *Pipeline) Ledger() *WarnLedger {
	return p.ledger
}

// Handle runs one message through Received → Classified → (Exempt |
// Violating → Escalated) → Logged. Bot messages are discarded. For every
// other message the record is persisted exactly once, whatever happened
// before.
func (p *Pipeline) Handle(ctx context.Context, msg *models.Message) *Decision {
	if msg == nil {
		return nil
	}

	d := &Decision{
		ID:        uuid.NewString(),
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		AuthorID:  msg.AuthorID,
		Action:    ActionTakenNone,
		StartedAt: p.opts.now(),
	}

	if msg.AuthorBot {
		d.Discarded = true
		return d
	}

	defer p.finish(ctx, msg, d)

	if err := errors.Safe(func() error {
		p.classifyAndEscalate(ctx, msg, d)
		return nil
	}); err != nil {
		d.addError(StageEscalation, "", err)
		p.log(logger.LevelError, "Pánico durante la moderación del mensaje", d, logger.Fields{"error": err.Error()})
	}

	return d
}

func (p *Pipeline) classifyAndEscalate(ctx context.Context, msg *models.Message, d *Decision) {
	cfg := p.loadConfig(ctx, msg, d)

	p.inspectAttachments(ctx, msg, d)

	if cfg == nil {
		return
	}

	if p.links != nil {
		msg.Links = p.links.ExtractLinks(msg.Content)
	}
	if cfg.ForbiddenRoleID != "" && len(msg.MentionUserIDs) > 0 {
		msg.RoleHolders = p.resolveRoleHolders(ctx, msg, cfg.ForbiddenRoleID, d)
	}

	for _, policy := range Evaluate(msg, cfg) {
		policy := policy
		var result PolicyResult
		err := errors.Safe(func() error {
			result = p.handlePolicy(ctx, msg, cfg, policy, d)
			return nil
		})
		if err != nil {
			result = PolicyResult{Policy: policy, Action: ActionTakenNone}
			d.addError(StageEscalation, policy.Kind, err)
			p.log(logger.LevelError, "Pánico al escalar la política", d, logger.Fields{"policy": policy.Kind, "error": err.Error()})
		}
		d.addResult(result)
		policyTriggerCount.WithLabelValues(string(policy.Kind), string(result.Exemption.Reason)).Inc()
	}
}

func (p *Pipeline) loadConfig(ctx context.Context, msg *models.Message, d *Decision) *models.GuildPolicyConfig {
	if msg.GuildID == "" || p.configs == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, p.opts.PersistTimeout)
	defer cancel()
	cfg, err := p.configs.GetGuildPolicyConfig(callCtx, msg.GuildID)
	if err != nil {
		err = fmt.Errorf("%w: cargando configuración: %v", ErrPersistenceFailure, err)
		d.addError(StageConfig, "", err)
		p.log(logger.LevelError, "No se pudo cargar la configuración del servidor", d, logger.Fields{"error": err.Error()})
		return nil
	}
	return cfg
}

// inspectAttachments never stops the pipeline; failures are only logged.
func (p *Pipeline) inspectAttachments(ctx context.Context, msg *models.Message, d *Decision) {
	if p.attachments == nil || len(msg.Attachments) == 0 {
		return
	}
	err := errors.Safe(func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.opts.PlatformTimeout)
		defer cancel()
		return p.attachments.Inspect(callCtx, msg)
	})
	if err != nil {
		d.addError(StageAttachment, "", err)
		p.log(logger.LevelWarn, "Error al manejar el archivo adjunto", d, logger.Fields{"error": err.Error()})
	}
}

// resolveRoleHolders asks the platform which mentioned users hold roleID.
func (p *Pipeline) resolveRoleHolders(ctx context.Context, msg *models.Message, roleID string, d *Decision) map[string][]string {
	var (
		mu      sync.Mutex
		holders []string
		failed  []error
	)

	g := new(errgroup.Group)
	g.SetLimit(p.opts.RoleLookups)
	for _, userID := range msg.MentionUserIDs {
		userID := userID
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, p.opts.PlatformTimeout)
			defer cancel()
			ok, err := p.platform.HasRole(callCtx, msg.GuildID, userID, roleID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, fmt.Errorf("%w: rol de %s: %v", ErrPlatformCallFailure, userID, err))
				return nil
			}
			if ok {
				holders = append(holders, userID)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range failed {
		d.addError(StageRoles, PolicyForbiddenRole, err)
		p.log(logger.LevelWarn, "No se pudo comprobar el rol del usuario mencionado", d, logger.Fields{"error": err.Error()})
	}
	return map[string][]string{roleID: holders}
}

func (p *Pipeline) handlePolicy(ctx context.Context, msg *models.Message, cfg *models.GuildPolicyConfig, policy TriggeredPolicy, d *Decision) PolicyResult {
	result := PolicyResult{Policy: policy, Action: ActionTakenNone}

	ex, err := p.resolver.IsExempt(ctx, msg.AuthorID, policy, cfg)
	if err != nil {
		d.addError(StageExemption, policy.Kind, err)
		p.log(logger.LevelError, "No se pudo comprobar la excepción, se omite la escalada", d, logger.Fields{"policy": policy.Kind, "error": err.Error()})
		return result
	}
	result.Exemption = ex
	if ex.Exempt {
		p.log(logger.LevelDebug, "Autor exento de la política", d, logger.Fields{"policy": policy.Kind, "target": policy.target(), "reason": ex.Reason})
		return result
	}

	v := Violation{
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		UserID:    msg.AuthorID,
		Policy:    policy,
		Config:    cfg,
	}

	mode := models.SanctionWarn
	switch policy.Kind {
	case PolicySpamLink:
		verdict, err := p.checkSpam(ctx, msg, policy)
		if err != nil {
			d.addError(StageLinks, policy.Kind, err)
			p.log(logger.LevelWarn, "No se pudo comprobar el spam de enlaces", d, logger.Fields{"error": err.Error()})
			return result
		}
		if !verdict.Spam {
			result.Cleared = true
			return result
		}
		mode = cfg.Spam()
	case PolicyBroadcastMention:
		mode = cfg.Broadcast()
	}

	if mode == models.SanctionTimeout {
		out := p.escalation.Sanction(ctx, v)
		p.applyOutcome(ctx, cfg, v, out, &result, d)
		return result
	}

	count, err := p.increment(ctx, msg.GuildID, msg.AuthorID)
	if err != nil {
		d.addError(StageLedger, policy.Kind, err)
		p.log(logger.LevelError, "No se pudo incrementar el contador de advertencias", d, logger.Fields{"policy": policy.Kind, "target": policy.target(), "error": err.Error()})
		return result
	}
	result.WarnCount = count
	v.Count = count

	out := p.escalation.Execute(ctx, v, p.escalation.Decide(count, cfg))
	p.applyOutcome(ctx, cfg, v, out, &result, d)
	return result
}

func (p *Pipeline) checkSpam(ctx context.Context, msg *models.Message, policy TriggeredPolicy) (SpamVerdict, error) {
	if p.links == nil {
		return SpamVerdict{}, nil
	}
	verdict, err := p.links.CheckSpam(ctx, msg.GuildID, msg.AuthorID, msg.ChannelID, policy.Links)
	if err != nil {
		return SpamVerdict{}, fmt.Errorf("%w: comprobando spam: %v", ErrPersistenceFailure, err)
	}
	return verdict, nil
}

// increment retries failed increments up to LedgerAttempts times.
func (p *Pipeline) increment(ctx context.Context, guildID, userID string) (uint64, error) {
	var (
		count uint64
		err   error
	)
	for attempt := 1; attempt <= p.opts.LedgerAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.opts.PersistTimeout)
		count, err = p.ledger.Increment(callCtx, guildID, userID)
		cancel()
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	return count, err
}

func (p *Pipeline) applyOutcome(ctx context.Context, cfg *models.GuildPolicyConfig, v Violation, out Outcome, result *PolicyResult, d *Decision) {
	result.Outcome = &out
	if out.Duplicate {
		p.log(logger.LevelDebug, "Escalada ya ejecutada para este mensaje", d, logger.Fields{"policy": v.Policy.Kind})
		return
	}
	result.Action = out.Taken()
	escalationCount.WithLabelValues(string(v.Policy.Kind), string(result.Action)).Inc()

	for _, err := range out.Errors {
		d.addError(StageEscalation, v.Policy.Kind, err)
		level := logger.LevelError
		if stderrors.Is(err, ErrConfigurationMissing) {
			level = logger.LevelWarn
		}
		p.log(level, "Problema durante la escalada", d, logger.Fields{"policy": v.Policy.Kind, "error": err.Error()})
	}

	p.audit(ctx, cfg, v, out, d)
}

// audit posts a summary of the escalation to the guild's log channel.
func (p *Pipeline) audit(ctx context.Context, cfg *models.GuildPolicyConfig, v Violation, out Outcome, d *Decision) {
	if cfg.LogChannelID == "" {
		return
	}
	action := "Advertencia"
	if out.TimedOut {
		action = "Silencio"
	}
	notice := models.Notice{
		Title: "Registro de moderación",
		Color: colorWarn,
		Fields: []models.NoticeField{
			{Name: "Usuario", Value: "<@" + v.UserID + ">", Inline: true},
			{Name: "Política", Value: string(v.Policy.Kind), Inline: true},
			{Name: "Acción", Value: action, Inline: true},
			{Name: "Advertencias", Value: strconv.FormatUint(v.Count, 10), Inline: true},
			{Name: "Canal", Value: "<#" + v.ChannelID + ">", Inline: true},
		},
		Footer: "Decisión " + d.ID,
	}
	if out.TimedOut {
		notice.Color = colorTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.PlatformTimeout)
	defer cancel()
	if _, err := p.platform.SendNotice(callCtx, cfg.LogChannelID, notice); err != nil {
		err = fmt.Errorf("%w: registro en canal de logs: %v", ErrPlatformCallFailure, err)
		d.addError(StageAudit, v.Policy.Kind, err)
		p.log(logger.LevelWarn, "No se pudo enviar el registro de moderación", d, logger.Fields{"error": err.Error()})
	}
}

// finish persists the record, then reports the decision.
func (p *Pipeline) finish(ctx context.Context, msg *models.Message, d *Decision) {
	p.persist(ctx, msg, d)
	d.Duration = p.opts.now().Sub(d.StartedAt)

	messageProcessDuration.Observe(d.Duration.Seconds())
	messageProcessCount.WithLabelValues(string(d.Action)).Inc()
	for _, e := range d.Errors {
		stageErrorCount.WithLabelValues(e.Stage).Inc()
	}

	if p.publisher != nil {
		if err := p.publisher.PublishDecision(ctx, d); err != nil {
			stageErrorCount.WithLabelValues(StagePublish).Inc()
			p.log(logger.LevelWarn, "No se pudo publicar la decisión", d, logger.Fields{"error": err.Error()})
		}
	}

	switch {
	case len(d.Errors) > 0:
		p.log(logger.LevelWarn, "Mensaje moderado con errores", d, logger.Fields{"errors": len(d.Errors), "duration": d.Duration})
	case d.Violating():
		p.log(logger.LevelInfo, "Mensaje moderado", d, logger.Fields{"duration": d.Duration})
	default:
		p.log(logger.LevelDebug, "Mensaje registrado", d, nil)
	}
}

// persist writes the message record with its own deadline, detached from
// the event context so a cancelled event still gets logged.
func (p *Pipeline) persist(ctx context.Context, msg *models.Message, d *Decision) {
	if p.messages == nil {
		return
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.PersistTimeout)
	defer cancel()

	err := errors.Safe(func() error {
		return p.messages.CreateMessageRecord(callCtx, msg.Record())
	})
	if err != nil {
		err = fmt.Errorf("%w: guardando mensaje: %v", ErrPersistenceFailure, err)
		d.addError(StagePersist, "", err)
		messageRecordFailures.Inc()
		p.log(logger.LevelError, "No se pudo guardar el mensaje", d, logger.Fields{"error": err.Error()})
		return
	}
	d.Persisted = true
}

func (p *Pipeline) log(level logger.LogLevel, message string, d *Decision, extra logger.Fields) {
	fields := logger.Fields{
		"decision": d.ID,
		"guild":    d.GuildID,
		"channel":  d.ChannelID,
		"message":  d.MessageID,
		"author":   d.AuthorID,
		"action":   d.Action,
		"warns":    d.WarnCount,
	}
	for k, v := range extra {
		fields[k] = v
	}
	p.observer.LogFields(level, message, logPrefix, fields)
}

type nopObserver struct{}

func (nopObserver) LogFields(logger.LogLevel, string, string, logger.Fields) {}
