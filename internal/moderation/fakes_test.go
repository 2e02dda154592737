package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/database/memstore"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

var errBoom = errors.New("boom")

type platformCall struct {
	Kind      string
	ChannelID string
	MessageID string
	UserID    string
	Notice    models.Notice
	Duration  time.Duration
}

type fakePlatform struct {
	mu      sync.Mutex
	calls   []platformCall
	members map[string]*models.Member
	fetches int

	sendErr    error
	deleteErr  error
	fetchErr   error
	timeoutErr error
	hasRoleErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{members: make(map[string]*models.Member)}
}

func (f *fakePlatform) addMember(userID string, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[userID] = &models.Member{UserID: userID, RoleIDs: roles}
}

func (f *fakePlatform) SendNotice(_ context.Context, channelID string, notice models.Notice) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.calls = append(f.calls, platformCall{Kind: "send", ChannelID: channelID, Notice: notice})
	return fmt.Sprintf("notice-%d", len(f.calls)), nil
}

func (f *fakePlatform) DeleteMessage(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.calls = append(f.calls, platformCall{Kind: "delete", ChannelID: channelID, MessageID: messageID})
	return nil
}

func (f *fakePlatform) FetchMember(_ context.Context, _ string, userID string) (*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	m, ok := f.members[userID]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (f *fakePlatform) ApplyTimeout(_ context.Context, _ string, userID string, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timeoutErr != nil {
		return f.timeoutErr
	}
	f.calls = append(f.calls, platformCall{Kind: "timeout", UserID: userID, Duration: d})
	return nil
}

func (f *fakePlatform) HasRole(_ context.Context, _ string, userID, roleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasRoleErr != nil {
		return false, f.hasRoleErr
	}
	return f.members[userID].HasRole(roleID), nil
}

func (f *fakePlatform) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Kind)
	}
	return out
}

func (f *fakePlatform) count(kind string) int {
	n := 0
	for _, k := range f.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (f *fakePlatform) sent() []platformCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platformCall
	for _, c := range f.calls {
		if c.Kind == "send" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakePlatform) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// flakyWarns fails the first failures increments, then delegates.
type flakyWarns struct {
	*memstore.Store
	mu       sync.Mutex
	failures int
	attempts int
}

func (f *flakyWarns) IncrementWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error) {
	f.mu.Lock()
	f.attempts++
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return nil, errBoom
	}
	return f.Store.IncrementWarnRecord(ctx, guildID, userID)
}

// countingMessages counts writes and can fail them.
type countingMessages struct {
	mu    sync.Mutex
	recs  []models.MessageRecord
	calls int
	err   error
}

func (c *countingMessages) CreateMessageRecord(ctx context.Context, rec models.MessageRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.err != nil {
		return c.err
	}
	c.recs = append(c.recs, rec)
	return nil
}

func (c *countingMessages) callsFor(messageID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.recs {
		if r.MessageID == messageID {
			n++
		}
	}
	return n
}

// countingExceptions wraps memstore and counts lookups.
type countingExceptions struct {
	*memstore.Store
	mu      sync.Mutex
	lookups int
	err     error
}

func (c *countingExceptions) HasException(ctx context.Context, guildID, userID, policy string) (bool, error) {
	c.mu.Lock()
	c.lookups++
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return false, err
	}
	return c.Store.HasException(ctx, guildID, userID, policy)
}

type inspectorFunc func(ctx context.Context, msg *models.Message) error

func (f inspectorFunc) Inspect(ctx context.Context, msg *models.Message) error { return f(ctx, msg) }

type fakeLinks struct {
	spam bool
	err  error
}

func (f *fakeLinks) ExtractLinks(content string) []string {
	if content == "" {
		return nil
	}
	var out []string
	for _, w := range splitWords(content) {
		if len(w) > 8 && w[:8] == "https://" {
			out = append(out, w)
		}
	}
	return out
}

func (f *fakeLinks) CheckSpam(_ context.Context, _, _, _ string, links []string) (SpamVerdict, error) {
	if f.err != nil {
		return SpamVerdict{}, f.err
	}
	if !f.spam || len(links) == 0 {
		return SpamVerdict{}, nil
	}
	return SpamVerdict{Spam: true, Link: links[0], Repeats: 3}, nil
}

func splitWords(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

type recordingPublisher struct {
	mu        sync.Mutex
	decisions []*Decision
}

func (r *recordingPublisher) PublishDecision(_ context.Context, d *Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
	return nil
}

type logLine struct {
	Level   logger.LogLevel
	Message string
	Fields  logger.Fields
}

type recordingObserver struct {
	mu    sync.Mutex
	lines []logLine
}

func (r *recordingObserver) LogFields(level logger.LogLevel, message, _ string, fields logger.Fields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, logLine{Level: level, Message: message, Fields: fields})
}

func (r *recordingObserver) has(message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if l.Message == message {
			return true
		}
	}
	return false
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func testOptions() Options {
	return Options{now: fixedNow}
}
