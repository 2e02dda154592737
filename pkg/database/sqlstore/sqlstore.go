// Package sqlstore implements database.Store on an embedded SQLite file
// through sqlx, for deployments without MongoDB (STORE_DRIVER=sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/PancyStudios/PancyGuardGo/pkg/database"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS guild_configs (
	"guild_id" TEXT NOT NULL PRIMARY KEY,
	"forbidden_user_id" TEXT NOT NULL DEFAULT '',
	"forbidden_role_id" TEXT NOT NULL DEFAULT '',
	"admin_role_ids" TEXT NOT NULL DEFAULT '[]',
	"warn_threshold" INTEGER NOT NULL DEFAULT 0,
	"timeout_seconds" INTEGER NOT NULL DEFAULT 0,
	"warn_message" TEXT NOT NULL DEFAULT '',
	"timeout_message" TEXT NOT NULL DEFAULT '',
	"log_channel_id" TEXT NOT NULL DEFAULT '',
	"welcome_channel_id" TEXT NOT NULL DEFAULT '',
	"ooc_channel_id" TEXT NOT NULL DEFAULT '',
	"broadcast_mode" TEXT NOT NULL DEFAULT '',
	"spam_mode" TEXT NOT NULL DEFAULT '',
	"reset_warns_after_timeout" BOOLEAN NOT NULL DEFAULT 0,
	"updated_at" TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS warns (
	"guild_id" TEXT NOT NULL,
	"user_id" TEXT NOT NULL,
	"warn_count" INTEGER NOT NULL DEFAULT 0 CHECK (warn_count >= 0),
	"updated_at" TIMESTAMP NOT NULL,
	PRIMARY KEY (guild_id, user_id)
);
CREATE TABLE IF NOT EXISTS messages (
	"message_id" TEXT NOT NULL PRIMARY KEY,
	"content" TEXT NOT NULL,
	"author_id" TEXT NOT NULL,
	"channel_id" TEXT NOT NULL,
	"guild_id" TEXT NOT NULL DEFAULT '',
	"created_at" TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS exceptions (
	"guild_id" TEXT NOT NULL,
	"user_id" TEXT NOT NULL,
	"policy" TEXT NOT NULL,
	"active" BOOLEAN NOT NULL DEFAULT 1,
	"granted_by" TEXT NOT NULL DEFAULT '',
	"updated_at" TIMESTAMP NOT NULL,
	PRIMARY KEY (guild_id, user_id, policy)
);`

// Store is a SQLite backed database.Store.
type Store struct {
	db *sqlx.DB
}

var _ database.Store = (*Store)(nil)

// Open opens (or creates) the database file at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer keeps the counter upserts serialized inside the process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

type configRow struct {
	GuildID                string    `db:"guild_id"`
	ForbiddenUserID        string    `db:"forbidden_user_id"`
	ForbiddenRoleID        string    `db:"forbidden_role_id"`
	AdminRoleIDs           string    `db:"admin_role_ids"`
	WarnThreshold          int       `db:"warn_threshold"`
	TimeoutSeconds         int64     `db:"timeout_seconds"`
	WarnMessage            string    `db:"warn_message"`
	TimeoutMessage         string    `db:"timeout_message"`
	LogChannelID           string    `db:"log_channel_id"`
	WelcomeChannelID       string    `db:"welcome_channel_id"`
	OOCChannelID           string    `db:"ooc_channel_id"`
	BroadcastMode          string    `db:"broadcast_mode"`
	SpamMode               string    `db:"spam_mode"`
	ResetWarnsAfterTimeout bool      `db:"reset_warns_after_timeout"`
	UpdatedAt              time.Time `db:"updated_at"`
}

func (s *Store) GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error) {
	var row configRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM guild_configs WHERE guild_id = ?`, guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}

	var admins []string
	if row.AdminRoleIDs != "" {
		if err := json.Unmarshal([]byte(row.AdminRoleIDs), &admins); err != nil {
			return nil, fmt.Errorf("failed to decode admin roles: %w", err)
		}
	}

	return &models.GuildPolicyConfig{
		GuildID:                row.GuildID,
		ForbiddenUserID:        row.ForbiddenUserID,
		ForbiddenRoleID:        row.ForbiddenRoleID,
		AdminRoleIDs:           admins,
		WarnThreshold:          row.WarnThreshold,
		TimeoutSeconds:         row.TimeoutSeconds,
		WarnMessage:            row.WarnMessage,
		TimeoutMessage:         row.TimeoutMessage,
		LogChannelID:           row.LogChannelID,
		WelcomeChannelID:       row.WelcomeChannelID,
		OOCChannelID:           row.OOCChannelID,
		BroadcastMode:          models.SanctionMode(row.BroadcastMode),
		SpamMode:               models.SanctionMode(row.SpamMode),
		ResetWarnsAfterTimeout: row.ResetWarnsAfterTimeout,
		UpdatedAt:              row.UpdatedAt,
	}, nil
}

func (s *Store) UpsertGuildPolicyConfig(ctx context.Context, cfg *models.GuildPolicyConfig) error {
	admins := cfg.AdminRoleIDs
	if admins == nil {
		admins = []string{}
	}
	adminsJSON, err := json.Marshal(admins)
	if err != nil {
		return fmt.Errorf("failed to encode admin roles: %w", err)
	}

	row := configRow{
		GuildID:                cfg.GuildID,
		ForbiddenUserID:        cfg.ForbiddenUserID,
		ForbiddenRoleID:        cfg.ForbiddenRoleID,
		AdminRoleIDs:           string(adminsJSON),
		WarnThreshold:          cfg.WarnThreshold,
		TimeoutSeconds:         cfg.TimeoutSeconds,
		WarnMessage:            cfg.WarnMessage,
		TimeoutMessage:         cfg.TimeoutMessage,
		LogChannelID:           cfg.LogChannelID,
		WelcomeChannelID:       cfg.WelcomeChannelID,
		OOCChannelID:           cfg.OOCChannelID,
		BroadcastMode:          string(cfg.BroadcastMode),
		SpamMode:               string(cfg.SpamMode),
		ResetWarnsAfterTimeout: cfg.ResetWarnsAfterTimeout,
		UpdatedAt:              time.Now().UTC(),
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO guild_configs (guild_id, forbidden_user_id, forbidden_role_id, admin_role_ids, warn_threshold,
			timeout_seconds, warn_message, timeout_message, log_channel_id, welcome_channel_id, ooc_channel_id,
			broadcast_mode, spam_mode, reset_warns_after_timeout, updated_at)
		VALUES (:guild_id, :forbidden_user_id, :forbidden_role_id, :admin_role_ids, :warn_threshold,
			:timeout_seconds, :warn_message, :timeout_message, :log_channel_id, :welcome_channel_id, :ooc_channel_id,
			:broadcast_mode, :spam_mode, :reset_warns_after_timeout, :updated_at)
		ON CONFLICT(guild_id) DO UPDATE SET
			forbidden_user_id = excluded.forbidden_user_id,
			forbidden_role_id = excluded.forbidden_role_id,
			admin_role_ids = excluded.admin_role_ids,
			warn_threshold = excluded.warn_threshold,
			timeout_seconds = excluded.timeout_seconds,
			warn_message = excluded.warn_message,
			timeout_message = excluded.timeout_message,
			log_channel_id = excluded.log_channel_id,
			welcome_channel_id = excluded.welcome_channel_id,
			ooc_channel_id = excluded.ooc_channel_id,
			broadcast_mode = excluded.broadcast_mode,
			spam_mode = excluded.spam_mode,
			reset_warns_after_timeout = excluded.reset_warns_after_timeout,
			updated_at = excluded.updated_at`, row)
	if err != nil {
		return fmt.Errorf("failed to upsert guild config: %w", err)
	}
	return nil
}

func (s *Store) CreateMessageRecord(ctx context.Context, rec models.MessageRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO messages (message_id, content, author_id, channel_id, guild_id, created_at)
		VALUES (:message_id, :content, :author_id, :channel_id, :guild_id, :created_at)`, rec)
	if isConstraintError(err) {
		return database.ErrDuplicateMessage
	}
	if err != nil {
		return fmt.Errorf("failed to insert message record: %w", err)
	}
	return nil
}

// GetMessageRecord returns a stored message, nil when unknown.
func (s *Store) GetMessageRecord(ctx context.Context, messageID string) (*models.MessageRecord, error) {
	var rec models.MessageRecord
	err := s.db.GetContext(ctx, &rec, `SELECT * FROM messages WHERE message_id = ?`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message record: %w", err)
	}
	return &rec, nil
}

func (s *Store) GetWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error) {
	var rec models.WarnRecord
	err := s.db.GetContext(ctx, &rec,
		`SELECT guild_id, user_id, warn_count, updated_at FROM warns WHERE guild_id = ? AND user_id = ?`,
		guildID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get warn record: %w", err)
	}
	return &rec, nil
}

// IncrementWarnRecord creates or bumps the counter in one upsert statement
// and reads the new value back with RETURNING.
func (s *Store) IncrementWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error) {
	now := time.Now().UTC()
	var count uint64
	err := s.db.GetContext(ctx, &count, `
		INSERT INTO warns (guild_id, user_id, warn_count, updated_at) VALUES (?, ?, 1, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET
			warn_count = warn_count + 1,
			updated_at = excluded.updated_at
		RETURNING warn_count`,
		guildID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to increment warn record: %w", err)
	}
	return &models.WarnRecord{GuildID: guildID, UserID: userID, WarnCount: count, UpdatedAt: now}, nil
}

func (s *Store) ResetWarnRecord(ctx context.Context, guildID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE warns SET warn_count = 0, updated_at = ? WHERE guild_id = ? AND user_id = ?`,
		time.Now().UTC(), guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to reset warn record: %w", err)
	}
	return nil
}

func (s *Store) HasException(ctx context.Context, guildID, userID, policy string) (bool, error) {
	var active bool
	err := s.db.GetContext(ctx, &active,
		`SELECT active FROM exceptions WHERE guild_id = ? AND user_id = ? AND policy = ?`,
		guildID, userID, policy)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get exception: %w", err)
	}
	return active, nil
}

func (s *Store) SetException(ctx context.Context, exc models.ForbiddenException) error {
	exc.UpdatedAt = time.Now().UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO exceptions (guild_id, user_id, policy, active, granted_by, updated_at)
		VALUES (:guild_id, :user_id, :policy, :active, :granted_by, :updated_at)
		ON CONFLICT(guild_id, user_id, policy) DO UPDATE SET
			active = excluded.active,
			granted_by = excluded.granted_by,
			updated_at = excluded.updated_at`, exc)
	if err != nil {
		return fmt.Errorf("failed to set exception: %w", err)
	}
	return nil
}

func (s *Store) ListExceptions(ctx context.Context, guildID string) ([]models.ForbiddenException, error) {
	var out []models.ForbiddenException
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM exceptions WHERE guild_id = ? ORDER BY user_id, policy`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}
	return out, nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
