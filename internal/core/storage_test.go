package core

import (
	"path/filepath"
	"testing"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("CONSTRUCTCORE_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	t.Setenv("CONSTRUCTCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("CONSTRUCTCORE_SQLITE_PATH", filepath.Join(t.TempDir(), "state.db"))
	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ss, ok := store.(*SQLiteStore)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	_ = ss.Close()
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("CONSTRUCTCORE_STORAGE_DRIVER", "tape")
	if _, err := OpenPersistentStore(nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
