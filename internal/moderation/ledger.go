package moderation

import (
	"context"
	"errors"
	"fmt"
)

var errEmptyKey = errors.New("guild o usuario vacío")

// WarnLedger is the only writer of warn counters. Every increment is one
// atomic store operation, never a read followed by a write.
type WarnLedger struct {
	store WarnStore
}

// NewWarnLedger wraps a WarnStore.
func NewWarnLedger(store WarnStore) *WarnLedger {
	return &WarnLedger{store: store}
}

// Increment adds one warn to the user and returns the new count. A missing
// record is created with count 1. Errors are not retried here.
func (l *WarnLedger) Increment(ctx context.Context, guildID, userID string) (uint64, error) {
	if guildID == "" || userID == "" {
		return 0, fmt.Errorf("%w: %v", ErrPersistenceFailure, errEmptyKey)
	}
	rec, err := l.store.IncrementWarnRecord(ctx, guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: incrementando warns de %s en %s: %v", ErrPersistenceFailure, userID, guildID, err)
	}
	if rec == nil {
		return 0, fmt.Errorf("%w: el almacén no devolvió el registro de %s", ErrPersistenceFailure, userID)
	}
	return rec.WarnCount, nil
}

// Reset sets the user's count back to zero.
func (l *WarnLedger) Reset(ctx context.Context, guildID, userID string) error {
	if guildID == "" || userID == "" {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, errEmptyKey)
	}
	if err := l.store.ResetWarnRecord(ctx, guildID, userID); err != nil {
		return fmt.Errorf("%w: reiniciando warns de %s en %s: %v", ErrPersistenceFailure, userID, guildID, err)
	}
	return nil
}

// Current returns the user's count, 0 when there is no record.
func (l *WarnLedger) Current(ctx context.Context, guildID, userID string) (uint64, error) {
	rec, err := l.store.GetWarnRecord(ctx, guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: leyendo warns de %s en %s: %v", ErrPersistenceFailure, userID, guildID, err)
	}
	return rec.Count(), nil
}
