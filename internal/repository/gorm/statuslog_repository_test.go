package gorm

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"posguard/domain/statuslog"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestStatusLogRepository_Append(t *testing.T) {
	t.Run("appends entry with generated ID", func(t *testing.T) {
		db := setupStatusLogTestDB(t)
		repo := NewStatusLogRepository(db)

		entry := &statuslog.Entry{
			EventType: statuslog.EventStatusChange,
			Details:   `{"mac":"aa:bb:cc:dd:ee:ff","status":"Offline"}`,
		}

		err := repo.Append(context.Background(), entry)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if entry.ID == "" {
			t.Error("Expected ID to be generated")
		}

		if !strings.HasPrefix(entry.ID, "slg_") {
			t.Errorf("Expected ID to have slg_ prefix, got: %s", entry.ID)
		}
	})
}

func TestStatusLogRepository_Recent(t *testing.T) {
	t.Run("returns newest entries first up to limit", func(t *testing.T) {
		db := setupStatusLogTestDB(t)
		repo := NewStatusLogRepository(db)

		base := time.Now().Add(-time.Hour)
		for i := 0; i < 5; i++ {
			entry := &statuslog.Entry{
				EventType: statuslog.EventCommand,
				Details:   fmt.Sprintf(`{"seq":%d}`, i),
			}
			if err := repo.Append(context.Background(), entry); err != nil {
				t.Fatalf("Failed to append: %v", err)
			}
			db.Model(entry).Update("created_at", base.Add(time.Duration(i)*time.Minute))
		}

		entries, err := repo.Recent(context.Background(), 3)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if len(entries) != 3 {
			t.Fatalf("Expected 3 entries, got: %d", len(entries))
		}

		if entries[0].Details != `{"seq":4}` {
			t.Errorf("Expected newest entry first, got: %s", entries[0].Details)
		}
	})

	t.Run("returns empty slice when journal is empty", func(t *testing.T) {
		db := setupStatusLogTestDB(t)
		repo := NewStatusLogRepository(db)

		entries, err := repo.Recent(context.Background(), 10)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if len(entries) != 0 {
			t.Errorf("Expected no entries, got: %d", len(entries))
		}
	})
}

func TestStatusLogRepository_FindByEventType(t *testing.T) {
	t.Run("filters entries by event type", func(t *testing.T) {
		db := setupStatusLogTestDB(t)
		repo := NewStatusLogRepository(db)

		types := []string{
			statuslog.EventIPConflict,
			statuslog.EventStatusChange,
			statuslog.EventIPConflict,
		}
		for i, et := range types {
			entry := &statuslog.Entry{
				EventType: et,
				Details:   fmt.Sprintf(`{"seq":%d}`, i),
			}
			if err := repo.Append(context.Background(), entry); err != nil {
				t.Fatalf("Failed to append: %v", err)
			}
		}

		entries, err := repo.FindByEventType(context.Background(), statuslog.EventIPConflict, 10)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if len(entries) != 2 {
			t.Fatalf("Expected 2 entries, got: %d", len(entries))
		}

		for _, e := range entries {
			if e.EventType != statuslog.EventIPConflict {
				t.Errorf("Expected event type %s, got: %s", statuslog.EventIPConflict, e.EventType)
			}
		}
	})
}

func setupStatusLogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(&statuslog.Entry{})
	if err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}
