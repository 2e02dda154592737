package configcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

type countingSource struct {
	cfgs  map[string]*models.GuildPolicyConfig
	gets  int
	fails bool
}

func (s *countingSource) GetGuildPolicyConfig(_ context.Context, guildID string) (*models.GuildPolicyConfig, error) {
	s.gets++
	if s.fails {
		return nil, errors.New("offline")
	}
	return s.cfgs[guildID], nil
}

func (s *countingSource) UpsertGuildPolicyConfig(_ context.Context, cfg *models.GuildPolicyConfig) error {
	c := *cfg
	s.cfgs[cfg.GuildID] = &c
	return nil
}

func TestCacheReadThrough(t *testing.T) {
	src := &countingSource{cfgs: map[string]*models.GuildPolicyConfig{
		"g1": {GuildID: "g1", ForbiddenUserID: "42"},
	}}
	c := New(src, 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cfg, err := c.GetGuildPolicyConfig(ctx, "g1")
		if err != nil {
			t.Fatalf("GetGuildPolicyConfig() error = %v", err)
		}
		if cfg.ForbiddenUserID != "42" {
			t.Errorf("ForbiddenUserID = %v, want %v", cfg.ForbiddenUserID, "42")
		}
	}
	if src.gets != 1 {
		t.Errorf("source gets = %v, want %v", src.gets, 1)
	}
}

func TestCacheRemembersMissingConfig(t *testing.T) {
	src := &countingSource{cfgs: map[string]*models.GuildPolicyConfig{}}
	c := New(src, 10, time.Minute)

	for i := 0; i < 2; i++ {
		cfg, err := c.GetGuildPolicyConfig(context.Background(), "nope")
		if err != nil || cfg != nil {
			t.Fatalf("GetGuildPolicyConfig() = %v, %v, want nil, nil", cfg, err)
		}
	}
	if src.gets != 1 {
		t.Errorf("source gets = %v, want %v", src.gets, 1)
	}
}

func TestCacheUpsertInvalidates(t *testing.T) {
	src := &countingSource{cfgs: map[string]*models.GuildPolicyConfig{
		"g1": {GuildID: "g1", ForbiddenUserID: "42"},
	}}
	c := New(src, 10, time.Minute)
	ctx := context.Background()

	if _, err := c.GetGuildPolicyConfig(ctx, "g1"); err != nil {
		t.Fatal(err)
	}
	if err := c.UpsertGuildPolicyConfig(ctx, &models.GuildPolicyConfig{GuildID: "g1", ForbiddenUserID: "99"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := c.GetGuildPolicyConfig(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ForbiddenUserID != "99" {
		t.Errorf("ForbiddenUserID after upsert = %v, want %v", cfg.ForbiddenUserID, "99")
	}
	if src.gets != 2 {
		t.Errorf("source gets = %v, want %v", src.gets, 2)
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	src := &countingSource{cfgs: map[string]*models.GuildPolicyConfig{
		"g1": {GuildID: "g1", AdminRoleIDs: []string{"a"}},
	}}
	c := New(src, 10, time.Minute)
	ctx := context.Background()

	first, _ := c.GetGuildPolicyConfig(ctx, "g1")
	first.AdminRoleIDs[0] = "mutated"

	second, _ := c.GetGuildPolicyConfig(ctx, "g1")
	if second.AdminRoleIDs[0] != "a" {
		t.Errorf("cached AdminRoleIDs = %v, want %v", second.AdminRoleIDs, []string{"a"})
	}
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	src := &countingSource{cfgs: map[string]*models.GuildPolicyConfig{}, fails: true}
	c := New(src, 10, time.Minute)

	if _, err := c.GetGuildPolicyConfig(context.Background(), "g1"); err == nil {
		t.Fatal("expected error from failing source")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %v, want %v", c.Len(), 0)
	}
}
