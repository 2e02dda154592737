package database

import (
	"context"
	"errors"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// ErrNotConnected is returned when the backing database is offline.
var ErrNotConnected = errors.New("database not connected")

// ErrDuplicateMessage is returned when a message record is written twice.
var ErrDuplicateMessage = errors.New("message record already exists")

// Store is the persistence surface of the bot: guild policy configuration,
// message audit records, warn counters and policy exceptions.
//
// GetGuildPolicyConfig and GetWarnRecord return nil, nil for missing rows.
// IncrementWarnRecord is a single atomic operation on every backend.
type Store interface {
	GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error)
	UpsertGuildPolicyConfig(ctx context.Context, cfg *models.GuildPolicyConfig) error

	CreateMessageRecord(ctx context.Context, rec models.MessageRecord) error

	GetWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error)
	IncrementWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error)
	ResetWarnRecord(ctx context.Context, guildID, userID string) error

	HasException(ctx context.Context, guildID, userID, policy string) (bool, error)
	SetException(ctx context.Context, exc models.ForbiddenException) error
	ListExceptions(ctx context.Context, guildID string) ([]models.ForbiddenException, error)

	Close(ctx context.Context) error
}

// WarnStore is the subset of Store the warn ledger needs. It lets the
// counters live in a different backend, such as Redis.
type WarnStore interface {
	GetWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error)
	IncrementWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error)
	ResetWarnRecord(ctx context.Context, guildID, userID string) error
}
