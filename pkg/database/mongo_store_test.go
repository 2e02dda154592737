package database

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

func keysOf(t *testing.T, update bson.M, op string) []string {
	t.Helper()
	if update[op] == nil {
		return nil
	}
	doc, ok := update[op].(bson.M)
	if !ok {
		t.Fatalf("%s = %T, want bson.M", op, update[op])
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestReplaceUpdateClearsConfigFields(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	update, err := replaceUpdate(models.GuildPolicyConfig{GuildID: "g1", UpdatedAt: now})
	if err != nil {
		t.Fatalf("replaceUpdate() error = %v", err)
	}

	set := keysOf(t, update, "$set")
	wantSet := []string{"guildId", "resetWarnsAfterTimeout", "updatedAt"}
	if !reflect.DeepEqual(set, wantSet) {
		t.Errorf("$set keys = %v, want %v", set, wantSet)
	}

	unset := keysOf(t, update, "$unset")
	wantUnset := []string{
		"adminRoleIds", "broadcastMode", "forbiddenRoleId", "forbiddenUserId",
		"logChannelId", "oocChannelId", "spamMode", "timeoutMessage",
		"timeoutSeconds", "warnMessage", "warnThreshold", "welcomeChannelId",
	}
	if !reflect.DeepEqual(unset, wantUnset) {
		t.Errorf("$unset keys = %v, want %v", unset, wantUnset)
	}
}

func TestReplaceUpdateKeepsSetFields(t *testing.T) {
	cfg := models.GuildPolicyConfig{
		GuildID:         "g1",
		ForbiddenUserID: "42",
		AdminRoleIDs:    []string{"r1"},
		TimeoutSeconds:  600,
		LogChannelID:    "logs",
	}
	update, err := replaceUpdate(cfg)
	if err != nil {
		t.Fatalf("replaceUpdate() error = %v", err)
	}

	set := update["$set"].(bson.M)
	if set["forbiddenUserId"] != "42" || set["logChannelId"] != "logs" {
		t.Errorf("$set = %v, want configured ids", set)
	}
	if set["timeoutSeconds"] != int64(600) {
		t.Errorf("timeoutSeconds = %v (%T), want 600", set["timeoutSeconds"], set["timeoutSeconds"])
	}

	for _, key := range keysOf(t, update, "$unset") {
		if _, dup := set[key]; dup {
			t.Errorf("key %q is both set and unset", key)
		}
	}
}

func TestReplaceUpdateException(t *testing.T) {
	update, err := replaceUpdate(models.ForbiddenException{GuildID: "g1", UserID: "7", Policy: "forbidden_user"})
	if err != nil {
		t.Fatalf("replaceUpdate() error = %v", err)
	}
	if got := keysOf(t, update, "$unset"); !reflect.DeepEqual(got, []string{"grantedBy"}) {
		t.Errorf("$unset keys = %v, want [grantedBy]", got)
	}
	if set := update["$set"].(bson.M); set["active"] != false {
		t.Errorf("active = %v, want explicit false", set["active"])
	}
}

func TestBsonKeys(t *testing.T) {
	type doc struct {
		ID      string `bson:"_id"`
		Name    string `bson:"name,omitempty"`
		Skipped string `bson:"-"`
		Plain   int
	}

	got := bsonKeys(reflect.TypeOf(&doc{}))
	want := []string{"_id", "name", "plain"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bsonKeys() = %v, want %v", got, want)
	}
}

func TestWarnUpdates(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		update bson.M
		want   bson.M
	}{
		{
			name:   "increment",
			update: warnIncrement(now),
			want:   bson.M{"$inc": bson.M{"warnCount": 1}, "$set": bson.M{"updatedAt": now}},
		},
		{
			name:   "reset",
			update: warnReset(now),
			want:   bson.M{"$set": bson.M{"warnCount": 0, "updatedAt": now}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.update, tt.want) {
				t.Errorf("update = %v, want %v", tt.update, tt.want)
			}
		})
	}
}

func TestDataManagerNotConnected(t *testing.T) {
	dm := NewDataManager[models.GuildPolicyConfig](CollectionGuildConfigs, NewDatabase())

	if _, err := dm.Get(context.Background(), bson.M{"guildId": "g1"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Get() error = %v, want ErrNotConnected", err)
	}
	if _, err := dm.Replace(context.Background(), bson.M{"guildId": "g1"}, models.GuildPolicyConfig{GuildID: "g1"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Replace() error = %v, want ErrNotConnected", err)
	}
	if dm.Name() != CollectionGuildConfigs {
		t.Errorf("Name() = %q", dm.Name())
	}
}
