package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyGuardGo/pkg/database/memstore"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

func configuredGuild() *models.GuildPolicyConfig {
	return &models.GuildPolicyConfig{
		GuildID:         "g1",
		ForbiddenUserID: "42",
		TimeoutSeconds:  600,
		WarnMessage:     "no menciones a este usuario ({count}/{threshold})",
		TimeoutMessage:  "silenciado por {duration}",
	}
}

func violation(messageID string, count uint64, cfg *models.GuildPolicyConfig) Violation {
	return Violation{
		GuildID:   "g1",
		ChannelID: "c1",
		MessageID: messageID,
		UserID:    "7",
		Policy:    TriggeredPolicy{Kind: PolicyForbiddenUser, UserIDs: []string{"42"}},
		Count:     count,
		Config:    cfg,
	}
}

func TestDecide(t *testing.T) {
	c := NewEscalationController(newFakePlatform(), nil, testOptions())

	tests := []struct {
		count uint64
		cfg   *models.GuildPolicyConfig
		want  Action
	}{
		{1, configuredGuild(), ActionNotify},
		{2, configuredGuild(), ActionNotify},
		{3, configuredGuild(), ActionNotifyAndTimeout},
		{10, configuredGuild(), ActionNotifyAndTimeout},
		{2, nil, ActionNotify},
		{3, nil, ActionNotifyAndTimeout},
		{2, &models.GuildPolicyConfig{WarnThreshold: 2}, ActionNotify},
		{3, &models.GuildPolicyConfig{WarnThreshold: 10}, ActionNotifyAndTimeout},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Decide(tt.count, tt.cfg), "count %d", tt.count)
	}
}

func TestExecuteNotify(t *testing.T) {
	platform := newFakePlatform()
	c := NewEscalationController(platform, nil, testOptions())

	out := c.Execute(context.Background(), violation("m1", 1, configuredGuild()), ActionNotify)
	assert.True(t, out.NoticeSent)
	assert.False(t, out.TimedOut)
	assert.False(t, out.Deleted)
	assert.Empty(t, out.Errors)
	assert.Equal(t, ActionTakenWarned, out.Taken())
	assert.Equal(t, []string{"send"}, platform.kinds())

	notice := platform.sent()[0].Notice
	assert.Equal(t, "c1", platform.sent()[0].ChannelID)
	assert.Equal(t, "Advertencia", notice.Title)
	assert.Equal(t, "<@7> no menciones a este usuario (1/3)", notice.Description)
	assert.Equal(t, "Advertencia 1/3", notice.Footer)
}

func TestExecuteNotifyAndTimeout(t *testing.T) {
	platform := newFakePlatform()
	c := NewEscalationController(platform, nil, testOptions())

	out := c.Execute(context.Background(), violation("m3", 3, configuredGuild()), ActionNotifyAndTimeout)
	assert.True(t, out.NoticeSent)
	assert.True(t, out.TimedOut)
	assert.True(t, out.Deleted)
	assert.Empty(t, out.Errors)
	assert.Equal(t, ActionTakenTimedOut, out.Taken())
	assert.Equal(t, []string{"send", "timeout", "delete"}, platform.kinds())

	assert.Equal(t, "<@7> silenciado por 10m0s", platform.sent()[0].Notice.Description)
	assert.Equal(t, 10*time.Minute, platform.calls[1].Duration)
	assert.Equal(t, "m3", platform.calls[2].MessageID)
}

func TestExecuteIsIdempotent(t *testing.T) {
	platform := newFakePlatform()
	c := NewEscalationController(platform, nil, testOptions())
	v := violation("m3", 3, configuredGuild())

	first := c.Execute(context.Background(), v, ActionNotifyAndTimeout)
	second := c.Execute(context.Background(), v, ActionNotifyAndTimeout)

	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 1, platform.count("send"))
	assert.Equal(t, 1, platform.count("timeout"))
	assert.Equal(t, 1, platform.count("delete"))
}

func TestExecuteDeletesOnlyAfterNotice(t *testing.T) {
	platform := newFakePlatform()
	platform.sendErr = errBoom
	c := NewEscalationController(platform, nil, testOptions())

	out := c.Execute(context.Background(), violation("m3", 3, configuredGuild()), ActionNotifyAndTimeout)
	assert.False(t, out.NoticeSent)
	assert.True(t, out.TimedOut, "the timeout does not depend on the notice")
	assert.False(t, out.Deleted)
	assert.Equal(t, []string{"timeout"}, platform.kinds())
	require.Len(t, out.Errors, 1)
	assert.True(t, errors.Is(out.Errors[0], ErrPlatformCallFailure))
}

func TestExecuteAlreadyMuted(t *testing.T) {
	platform := newFakePlatform()
	until := fixedNow().Add(time.Hour)
	platform.members["7"] = &models.Member{UserID: "7", TimedOutUntil: &until}
	c := NewEscalationController(platform, nil, testOptions())

	out := c.Execute(context.Background(), violation("m3", 3, configuredGuild()), ActionNotifyAndTimeout)
	assert.True(t, out.AlreadyMuted)
	assert.True(t, out.TimedOut)
	assert.Zero(t, platform.count("timeout"))
	assert.Equal(t, 1, platform.count("delete"))
}

func TestExecuteShortExistingMuteIsExtended(t *testing.T) {
	platform := newFakePlatform()
	until := fixedNow().Add(time.Minute)
	platform.members["7"] = &models.Member{UserID: "7", TimedOutUntil: &until}
	c := NewEscalationController(platform, nil, testOptions())

	out := c.Execute(context.Background(), violation("m3", 3, configuredGuild()), ActionNotifyAndTimeout)
	assert.False(t, out.AlreadyMuted)
	assert.Equal(t, 1, platform.count("timeout"))
}

func TestExecuteMissingConfiguration(t *testing.T) {
	platform := newFakePlatform()
	c := NewEscalationController(platform, nil, testOptions())
	cfg := &models.GuildPolicyConfig{GuildID: "g1", ForbiddenUserID: "42"}

	out := c.Execute(context.Background(), violation("m3", 3, cfg), ActionNotifyAndTimeout)
	assert.True(t, out.TimedOut)
	require.Len(t, out.Errors, 2)
	for _, err := range out.Errors {
		assert.True(t, errors.Is(err, ErrConfigurationMissing))
	}
	assert.Contains(t, platform.sent()[0].Notice.Description, DefaultTimeoutMessage)
	assert.Equal(t, DefaultMuteDuration, platform.calls[1].Duration)
}

func TestExecuteResetsWarnsAfterTimeout(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := NewWarnLedger(store)
	for i := 0; i < 3; i++ {
		_, err := ledger.Increment(ctx, "g1", "7")
		require.NoError(t, err)
	}

	cfg := configuredGuild()
	cfg.ResetWarnsAfterTimeout = true
	c := NewEscalationController(newFakePlatform(), ledger, testOptions())

	out := c.Execute(ctx, violation("m3", 3, cfg), ActionNotifyAndTimeout)
	assert.True(t, out.WarnsReset)
	cur, err := ledger.Current(ctx, "g1", "7")
	require.NoError(t, err)
	assert.Zero(t, cur)
}

func TestExecuteKeepsWarnsByDefault(t *testing.T) {
	ctx := context.Background()
	ledger := NewWarnLedger(memstore.New())
	for i := 0; i < 3; i++ {
		_, err := ledger.Increment(ctx, "g1", "7")
		require.NoError(t, err)
	}
	c := NewEscalationController(newFakePlatform(), ledger, testOptions())

	out := c.Execute(ctx, violation("m3", 3, configuredGuild()), ActionNotifyAndTimeout)
	assert.False(t, out.WarnsReset)
	cur, _ := ledger.Current(ctx, "g1", "7")
	assert.Equal(t, uint64(3), cur)
}

func TestSanction(t *testing.T) {
	tests := []struct {
		name        string
		kind        PolicyKind
		timeout     int64
		wantKinds   []string
		wantTimeout bool
		wantErrors  int
	}{
		{"broadcast", PolicyBroadcastMention, 600, []string{"send", "timeout"}, true, 0},
		{"spam", PolicySpamLink, 600, []string{"send", "timeout", "delete"}, true, 0},
		{"broadcast without timer", PolicyBroadcastMention, 0, []string{"send"}, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := newFakePlatform()
			c := NewEscalationController(platform, nil, testOptions())
			v := Violation{
				GuildID: "g1", ChannelID: "c1", MessageID: "m1", UserID: "7",
				Policy: TriggeredPolicy{Kind: tt.kind},
				Config: &models.GuildPolicyConfig{GuildID: "g1", TimeoutSeconds: tt.timeout},
			}

			out := c.Sanction(context.Background(), v)
			assert.Equal(t, tt.wantKinds, platform.kinds())
			assert.Equal(t, tt.wantTimeout, out.TimedOut)
			assert.Len(t, out.Errors, tt.wantErrors)
			assert.Equal(t, "Usuario silenciado", platform.sent()[0].Notice.Title)

			again := c.Sanction(context.Background(), v)
			assert.True(t, again.Duplicate)
			assert.Equal(t, tt.wantKinds, platform.kinds())
		})
	}
}

func TestDeleteOncePerMessage(t *testing.T) {
	platform := newFakePlatform()
	c := NewEscalationController(platform, nil, testOptions())
	cfg := configuredGuild()

	v := violation("m1", 3, cfg)
	c.Execute(context.Background(), v, ActionNotifyAndTimeout)

	v.Policy = TriggeredPolicy{Kind: PolicyForbiddenRole, RoleID: "r1", RolePinged: true}
	out := c.Execute(context.Background(), v, ActionNotifyAndTimeout)
	assert.False(t, out.Duplicate)
	assert.False(t, out.Deleted)
	assert.Equal(t, 1, platform.count("delete"))
}
