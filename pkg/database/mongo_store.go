package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// MongoStore implements Store on top of a Database.
type MongoStore struct {
	db         *Database
	configs    *DataManager[models.GuildPolicyConfig]
	warns      *DataManager[models.WarnRecord]
	messages   *DataManager[models.MessageRecord]
	exceptions *DataManager[models.ForbiddenException]
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore builds the store over a connected Database.
func NewMongoStore(db *Database) *MongoStore {
	return &MongoStore{
		db:         db,
		configs:    NewDataManager[models.GuildPolicyConfig](CollectionGuildConfigs, db),
		warns:      NewDataManager[models.WarnRecord](CollectionWarns, db),
		messages:   NewDataManager[models.MessageRecord](CollectionMessages, db),
		exceptions: NewDataManager[models.ForbiddenException](CollectionExceptions, db),
	}
}

func (s *MongoStore) GetGuildPolicyConfig(ctx context.Context, guildID string) (*models.GuildPolicyConfig, error) {
	return s.configs.Get(ctx, bson.M{"guildId": guildID})
}

func (s *MongoStore) UpsertGuildPolicyConfig(ctx context.Context, cfg *models.GuildPolicyConfig) error {
	c := *cfg
	c.UpdatedAt = time.Now().UTC()
	_, err := s.configs.Replace(ctx, bson.M{"guildId": cfg.GuildID}, c)
	return err
}

func (s *MongoStore) CreateMessageRecord(ctx context.Context, rec models.MessageRecord) error {
	err := s.messages.Insert(ctx, &rec)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateMessage
	}
	return err
}

func (s *MongoStore) GetWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error) {
	return s.warns.Get(ctx, bson.M{"guildId": guildID, "userId": userID})
}

// IncrementWarnRecord runs $inc with upsert in a single findOneAndUpdate.
// Two first-time upserts racing on the unique index make one of them fail
// with a duplicate key; that one is retried once and then hits the
// existing document.
func (s *MongoStore) IncrementWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error) {
	query := bson.M{"guildId": guildID, "userId": userID}
	update := warnIncrement(time.Now().UTC())

	rec, err := s.warns.Update(ctx, query, update)
	if mongo.IsDuplicateKeyError(err) {
		rec, err = s.warns.Update(ctx, query, update)
	}
	return rec, err
}

func (s *MongoStore) ResetWarnRecord(ctx context.Context, guildID, userID string) error {
	return s.warns.UpdateExisting(ctx,
		bson.M{"guildId": guildID, "userId": userID},
		warnReset(time.Now().UTC()),
	)
}

func (s *MongoStore) HasException(ctx context.Context, guildID, userID, policy string) (bool, error) {
	return s.exceptions.Exists(ctx, bson.M{
		"guildId": guildID,
		"userId":  userID,
		"policy":  policy,
		"active":  true,
	})
}

func (s *MongoStore) SetException(ctx context.Context, exc models.ForbiddenException) error {
	exc.UpdatedAt = time.Now().UTC()
	_, err := s.exceptions.Replace(ctx, bson.M{
		"guildId": exc.GuildID,
		"userId":  exc.UserID,
		"policy":  exc.Policy,
	}, exc)
	return err
}

func (s *MongoStore) ListExceptions(ctx context.Context, guildID string) ([]models.ForbiddenException, error) {
	docs, err := s.exceptions.GetAll(ctx, bson.M{"guildId": guildID},
		options.Find().SetSort(bson.D{{Key: "userId", Value: 1}, {Key: "policy", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := make([]models.ForbiddenException, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d)
	}
	return out, nil
}

func (s *MongoStore) Close(context.Context) error {
	return s.db.Disconnect()
}

func warnIncrement(now time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"warnCount": 1},
		"$set": bson.M{"updatedAt": now},
	}
}

func warnReset(now time.Time) bson.M {
	return bson.M{"$set": bson.M{"warnCount": 0, "updatedAt": now}}
}
