package mqtt

import (
	"context"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
)

const publishTimeout = 3 * time.Second

// JSONPublisher is implemented by MqttCommunicator.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, topic string, payload interface{}) error
}

// DecisionPublisher sends every moderation decision to
// "{prefix}/{guildId}/{action}".
type DecisionPublisher struct {
	pub    JSONPublisher
	prefix string
}

var _ moderation.DecisionPublisher = (*DecisionPublisher)(nil)

// NewDecisionPublisher publishes through pub under prefix.
func NewDecisionPublisher(pub JSONPublisher, prefix string) *DecisionPublisher {
	return &DecisionPublisher{pub: pub, prefix: strings.TrimSuffix(prefix, "/")}
}

// Topic returns the topic d is published to.
func (p *DecisionPublisher) Topic(d *moderation.Decision) string {
	guild := d.GuildID
	if guild == "" {
		guild = "dm"
	}
	return p.prefix + "/" + guild + "/" + string(d.Action)
}

// PublishDecision publishes d with a bounded wait. Discarded decisions are
// skipped.
func (p *DecisionPublisher) PublishDecision(ctx context.Context, d *moderation.Decision) error {
	if d == nil || d.Discarded {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.pub.PublishJSON(ctx, p.Topic(d), d)
}
