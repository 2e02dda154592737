package mqtt

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
)

type recordingPublisher struct {
	topics   []string
	payloads [][]byte
}

func (r *recordingPublisher) PublishJSON(_ context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	r.topics = append(r.topics, topic)
	r.payloads = append(r.payloads, data)
	return nil
}

func TestPublishDecision(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewDecisionPublisher(rec, "pancy/moderation/decisions/")

	d := &moderation.Decision{ID: "d1", GuildID: "g1", AuthorID: "7", Action: moderation.ActionTakenWarned, WarnCount: 2}
	require.NoError(t, p.PublishDecision(context.Background(), d))

	require.Len(t, rec.topics, 1)
	assert.Equal(t, "pancy/moderation/decisions/g1/warned", rec.topics[0])

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.payloads[0], &got))
	assert.Equal(t, "d1", got["id"])
	assert.Equal(t, "warned", got["action"])
	assert.EqualValues(t, 2, got["warnCount"])
}

func TestPublishDecisionSkipsDiscarded(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewDecisionPublisher(rec, "pancy")

	require.NoError(t, p.PublishDecision(context.Background(), &moderation.Decision{Discarded: true}))
	require.NoError(t, p.PublishDecision(context.Background(), nil))
	assert.Empty(t, rec.topics)
}

func TestDecisionTopicWithoutGuild(t *testing.T) {
	p := NewDecisionPublisher(nil, "pancy")
	assert.Equal(t, "pancy/dm/none", p.Topic(&moderation.Decision{Action: moderation.ActionTakenNone}))
}
