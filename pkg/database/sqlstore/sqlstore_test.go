package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/PancyStudios/PancyGuardGo/pkg/database"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestGuildPolicyConfigRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.GetGuildPolicyConfig(ctx, "g1")
	if err != nil || got != nil {
		t.Fatalf("GetGuildPolicyConfig() on empty db = %v, %v, want nil, nil", got, err)
	}

	cfg := &models.GuildPolicyConfig{
		GuildID:                "g1",
		ForbiddenUserID:        "42",
		ForbiddenRoleID:        "r1",
		AdminRoleIDs:           []string{"a1", "a2"},
		TimeoutSeconds:         600,
		WarnMessage:            "no hagas @",
		BroadcastMode:          models.SanctionWarn,
		ResetWarnsAfterTimeout: true,
	}
	if err := s.UpsertGuildPolicyConfig(ctx, cfg); err != nil {
		t.Fatalf("UpsertGuildPolicyConfig() error = %v", err)
	}

	got, err = s.GetGuildPolicyConfig(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGuildPolicyConfig() error = %v", err)
	}
	if got.ForbiddenUserID != "42" || got.ForbiddenRoleID != "r1" {
		t.Errorf("forbidden ids = %v/%v, want 42/r1", got.ForbiddenUserID, got.ForbiddenRoleID)
	}
	if !reflect.DeepEqual(got.AdminRoleIDs, []string{"a1", "a2"}) {
		t.Errorf("AdminRoleIDs = %v, want %v", got.AdminRoleIDs, []string{"a1", "a2"})
	}
	if got.TimeoutSeconds != 600 {
		t.Errorf("TimeoutSeconds = %v, want %v", got.TimeoutSeconds, 600)
	}
	if got.Broadcast() != models.SanctionWarn {
		t.Errorf("Broadcast() = %v, want %v", got.Broadcast(), models.SanctionWarn)
	}
	if !got.ResetWarnsAfterTimeout {
		t.Error("ResetWarnsAfterTimeout should be true")
	}

	cfg.ForbiddenUserID = ""
	if err := s.UpsertGuildPolicyConfig(ctx, cfg); err != nil {
		t.Fatalf("second UpsertGuildPolicyConfig() error = %v", err)
	}
	got, _ = s.GetGuildPolicyConfig(ctx, "g1")
	if got.ForbiddenUserID != "" {
		t.Errorf("ForbiddenUserID after clear = %q, want empty", got.ForbiddenUserID)
	}
}

func TestIncrementWarnRecordConcurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementWarnRecord(ctx, "g1", "7"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("IncrementWarnRecord() error = %v", err)
	}

	rec, err := s.GetWarnRecord(ctx, "g1", "7")
	if err != nil {
		t.Fatalf("GetWarnRecord() error = %v", err)
	}
	if rec.Count() != n {
		t.Errorf("WarnCount = %v, want %v", rec.Count(), n)
	}
}

func TestWarnRecordLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.GetWarnRecord(ctx, "g1", "7")
	if err != nil || rec != nil {
		t.Fatalf("GetWarnRecord() on empty db = %v, %v, want nil, nil", rec, err)
	}

	for want := uint64(1); want <= 3; want++ {
		rec, err := s.IncrementWarnRecord(ctx, "g1", "7")
		if err != nil {
			t.Fatalf("IncrementWarnRecord() error = %v", err)
		}
		if rec.WarnCount != want {
			t.Errorf("IncrementWarnRecord() = %v, want %v", rec.WarnCount, want)
		}
	}

	// Counters are guild scoped.
	other, _ := s.IncrementWarnRecord(ctx, "g2", "7")
	if other.WarnCount != 1 {
		t.Errorf("other guild count = %v, want %v", other.WarnCount, 1)
	}

	if err := s.ResetWarnRecord(ctx, "g1", "7"); err != nil {
		t.Fatalf("ResetWarnRecord() error = %v", err)
	}
	rec, _ = s.GetWarnRecord(ctx, "g1", "7")
	if rec.Count() != 0 {
		t.Errorf("count after reset = %v, want %v", rec.Count(), 0)
	}
}

func TestCreateMessageRecordIsWriteOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := models.MessageRecord{MessageID: "m1", Content: "hola <@42>", AuthorID: "7", ChannelID: "c1", GuildID: "g1"}
	if err := s.CreateMessageRecord(ctx, rec); err != nil {
		t.Fatalf("CreateMessageRecord() error = %v", err)
	}
	if err := s.CreateMessageRecord(ctx, rec); !errors.Is(err, database.ErrDuplicateMessage) {
		t.Errorf("second CreateMessageRecord() error = %v, want %v", err, database.ErrDuplicateMessage)
	}

	got, err := s.GetMessageRecord(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMessageRecord() error = %v", err)
	}
	if got.Content != rec.Content || got.AuthorID != "7" {
		t.Errorf("GetMessageRecord() = %+v, want content %q author 7", got, rec.Content)
	}
}

func TestExceptions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.HasException(ctx, "g1", "7", "forbidden_user")
	if err != nil || ok {
		t.Fatalf("HasException() on empty db = %v, %v, want false, nil", ok, err)
	}

	exc := models.ForbiddenException{GuildID: "g1", UserID: "7", Policy: "forbidden_user", Active: true, GrantedBy: "1"}
	if err := s.SetException(ctx, exc); err != nil {
		t.Fatalf("SetException() error = %v", err)
	}
	if ok, _ := s.HasException(ctx, "g1", "7", "forbidden_user"); !ok {
		t.Error("HasException() = false after SetException")
	}
	if ok, _ := s.HasException(ctx, "g1", "7", "forbidden_role"); ok {
		t.Error("exception must be scoped to its policy")
	}

	exc.Active = false
	if err := s.SetException(ctx, exc); err != nil {
		t.Fatalf("SetException(inactive) error = %v", err)
	}
	if ok, _ := s.HasException(ctx, "g1", "7", "forbidden_user"); ok {
		t.Error("HasException() = true after revoking")
	}

	list, err := s.ListExceptions(ctx, "g1")
	if err != nil {
		t.Fatalf("ListExceptions() error = %v", err)
	}
	if len(list) != 1 || list[0].GrantedBy != "1" {
		t.Errorf("ListExceptions() = %+v, want one entry granted by 1", list)
	}
}
