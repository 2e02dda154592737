// Package memstore is an in-process implementation of database.Store, used
// by STORE_DRIVER=memory and by tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/database"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

type warnKey struct {
	guildID string
	userID  string
}

type exceptionKey struct {
	guildID string
	userID  string
	policy  string
}

// Store keeps everything in maps behind one mutex.
type Store struct {
	mu         sync.Mutex
	configs    map[string]models.GuildPolicyConfig
	warns      map[warnKey]models.WarnRecord
	messages   map[string]models.MessageRecord
	order      []string
	exceptions map[exceptionKey]models.ForbiddenException
}

var _ database.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		configs:    make(map[string]models.GuildPolicyConfig),
		warns:      make(map[warnKey]models.WarnRecord),
		messages:   make(map[string]models.MessageRecord),
		exceptions: make(map[exceptionKey]models.ForbiddenException),
	}
}

func (s *Store) GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[guildID]
	if !ok {
		return nil, nil
	}
	cfg.AdminRoleIDs = append([]string(nil), cfg.AdminRoleIDs...)
	return &cfg, nil
}

func (s *Store) UpsertGuildPolicyConfig(ctx context.Context, cfg *models.GuildPolicyConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cfg
	c.AdminRoleIDs = append([]string(nil), cfg.AdminRoleIDs...)
	c.UpdatedAt = time.Now().UTC()
	s.configs[cfg.GuildID] = c
	return nil
}

func (s *Store) CreateMessageRecord(ctx context.Context, rec models.MessageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[rec.MessageID]; ok {
		return database.ErrDuplicateMessage
	}
	s.messages[rec.MessageID] = rec
	s.order = append(s.order, rec.MessageID)
	return nil
}

// Messages returns the stored records in insertion order.
func (s *Store) Messages() []models.MessageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MessageRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.messages[id])
	}
	return out
}

func (s *Store) GetWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.warns[warnKey{guildID, userID}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) IncrementWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := warnKey{guildID, userID}
	rec := s.warns[k]
	rec.GuildID, rec.UserID = guildID, userID
	rec.WarnCount++
	rec.UpdatedAt = time.Now().UTC()
	s.warns[k] = rec
	return &rec, nil
}

func (s *Store) ResetWarnRecord(ctx context.Context, guildID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := warnKey{guildID, userID}
	if rec, ok := s.warns[k]; ok {
		rec.WarnCount = 0
		rec.UpdatedAt = time.Now().UTC()
		s.warns[k] = rec
	}
	return nil
}

func (s *Store) HasException(ctx context.Context, guildID, userID, policy string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exc, ok := s.exceptions[exceptionKey{guildID, userID, policy}]
	return ok && exc.Active, nil
}

func (s *Store) SetException(ctx context.Context, exc models.ForbiddenException) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exc.UpdatedAt = time.Now().UTC()
	s.exceptions[exceptionKey{exc.GuildID, exc.UserID, exc.Policy}] = exc
	return nil
}

func (s *Store) ListExceptions(ctx context.Context, guildID string) ([]models.ForbiddenException, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ForbiddenException
	for k, exc := range s.exceptions {
		if k.guildID == guildID {
			out = append(out, exc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Policy < out[j].Policy
	})
	return out, nil
}

func (s *Store) Close(context.Context) error { return nil }
