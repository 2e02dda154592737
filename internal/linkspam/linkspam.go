// Package linkspam detects users posting the same link over and over.
package linkspam

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
)

const (
	DefaultWindow    = 30 * time.Second
	DefaultThreshold = 3
	defaultSize      = 50000
)

type counter struct {
	count int
	first time.Time
}

// Checker counts how many times each user posted each link inside a fixed
// window. It implements moderation.LinkChecker.
type Checker struct {
	mu        sync.Mutex
	seen      *expirable.LRU[string, counter]
	window    time.Duration
	threshold int
	now       func() time.Time
}

var _ moderation.LinkChecker = (*Checker)(nil)

// New returns a checker that flags a link posted threshold times within
// window by the same user of the same guild.
func New(window time.Duration, threshold int) *Checker {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Checker{
		seen:      expirable.NewLRU[string, counter](defaultSize, nil, window),
		window:    window,
		threshold: threshold,
		now:       time.Now,
	}
}

func (c *Checker) ExtractLinks(content string) []string {
	return ExtractLinks(content)
}

// CheckSpam records one occurrence of every link and reports the most
// repeated one when it reached the threshold. Links are counted per guild
// and user, across channels.
func (c *Checker) CheckSpam(ctx context.Context, guildID, userID, _ string, links []string) (moderation.SpamVerdict, error) {
	if err := ctx.Err(); err != nil {
		return moderation.SpamVerdict{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var verdict moderation.SpamVerdict
	for _, link := range links {
		key := strings.Join([]string{guildID, userID, link}, "/")
		e, ok := c.seen.Get(key)
		if !ok || now.Sub(e.first) >= c.window {
			e = counter{first: now}
		}
		e.count++
		c.seen.Add(key, e)

		if e.count > verdict.Repeats {
			verdict.Repeats = e.count
			verdict.Link = link
		}
	}
	verdict.Spam = verdict.Repeats >= c.threshold
	return verdict, nil
}
