// Package configcache keeps recently read guild policy configurations in an
// expiring LRU in front of the configuration store.
package configcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// Source is where configurations are loaded from and written to.
type Source interface {
	GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error)
	UpsertGuildPolicyConfig(ctx context.Context, cfg *models.GuildPolicyConfig) error
}

// entry also caches the absence of a configuration.
type entry struct {
	cfg *models.GuildPolicyConfig
}

// Cache is a read-through cache. Writes go to the source and drop the
// cached copy.
type Cache struct {
	src Source
	lru *expirable.LRU[string, entry]
}

// New returns a cache holding up to size guilds for ttl.
func New(src Source, size int, ttl time.Duration) *Cache {
	return &Cache{
		src: src,
		lru: expirable.NewLRU[string, entry](size, nil, ttl),
	}
}

// GetGuildPolicyConfig returns a copy of the guild's configuration, nil when
// the guild has none.
func (c *Cache) GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error) {
	if e, ok := c.lru.Get(guildID); ok {
		return clone(e.cfg), nil
	}

	cfg, err := c.src.GetGuildPolicyConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}
	c.lru.Add(guildID, entry{cfg: clone(cfg)})
	return cfg, nil
}

// UpsertGuildPolicyConfig writes through and invalidates the guild.
func (c *Cache) UpsertGuildPolicyConfig(ctx context.Context, cfg *models.GuildPolicyConfig) error {
	defer c.lru.Remove(cfg.GuildID)
	return c.src.UpsertGuildPolicyConfig(ctx, cfg)
}

// Invalidate drops the cached configuration of a guild.
func (c *Cache) Invalidate(guildID string) {
	c.lru.Remove(guildID)
}

// Len returns the number of cached guilds.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func clone(cfg *models.GuildPolicyConfig) *models.GuildPolicyConfig {
	if cfg == nil {
		return nil
	}
	c := *cfg
	c.AdminRoleIDs = append([]string(nil), cfg.AdminRoleIDs...)
	return &c
}
