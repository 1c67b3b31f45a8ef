package core

import (
	"context"
	"errors"
	"testing"

	"constructcore/pkg/domain"
)

func mustCreateWorker(t *testing.T, store PersistentStore, name string) Worker {
	t.Helper()
	var created Worker
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateWorker(Worker{Name: name, Role: "tukang", Active: true})
		return err
	}); err != nil {
		t.Fatalf("create worker: %v", err)
	}
	return created
}

func mustCreateProject(t *testing.T, store PersistentStore, name string) Project {
	t.Helper()
	var created Project
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateProject(Project{Code: "PRJ", Name: name})
		return err
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return created
}

func TestTransactionCommitAndDefaults(t *testing.T) {
	store := NewMemoryStore(nil)
	project := mustCreateProject(t, store, "Gudang Baru")
	if project.ID == "" || project.Status != domain.ProjectPlanned {
		t.Fatalf("defaults not applied: %#v", project)
	}
	if project.CreatedAt.IsZero() || !project.CreatedAt.Equal(project.UpdatedAt) {
		t.Fatalf("timestamps not set: %#v", project.Base)
	}
	got, ok := store.GetProject(project.ID)
	if !ok || got.Name != "Gudang Baru" {
		t.Fatalf("project not committed: %v %#v", ok, got)
	}
}

func TestTransactionErrorDiscardsAllWrites(t *testing.T) {
	store := NewMemoryStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateWorker(Worker{Name: "Budi", Active: true}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if workers := store.ListWorkers(); len(workers) != 0 {
		t.Fatalf("writes leaked after failed transaction: %+v", workers)
	}
}

func TestBlockingRuleAbortsWholeTransaction(t *testing.T) {
	store := NewMemoryStore(NewDefaultRulesEngine())
	project := mustCreateProject(t, store, "Jalan Akses")
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateWorker(Worker{Name: "Siti", Active: true}); err != nil {
			return err
		}
		_, err := tx.CreateBudgetItem(BudgetItem{ProjectID: project.ID, Description: "galian", Volume: 0, UnitPrice: 100})
		return err
	})
	var rve RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if !rve.Result.HasBlocking() {
		t.Fatalf("expected blocking violations: %+v", rve.Result)
	}
	// The worker created in the same transaction must not land either.
	if workers := store.ListWorkers(); len(workers) != 0 {
		t.Fatalf("partial commit: %+v", workers)
	}
}

func TestReferentialValidation(t *testing.T) {
	store := NewMemoryStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateAttendanceRecord(AttendanceRecord{WorkerID: "ghost", Date: "2026-08-01", Status: domain.AttendancePresent})
		return err
	})
	if err == nil {
		t.Fatalf("expected error for unknown worker")
	}
	_, err = store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateBudgetItem(BudgetItem{ProjectID: "ghost", Description: "pasir", Volume: 1, UnitPrice: 1})
		return err
	})
	if err == nil {
		t.Fatalf("expected error for unknown project")
	}
}

func TestAttendanceValidation(t *testing.T) {
	store := NewMemoryStore(nil)
	worker := mustCreateWorker(t, store, "Agus")
	cases := []struct {
		name   string
		record AttendanceRecord
	}{
		{"bad date", AttendanceRecord{WorkerID: worker.ID, Date: "01-08-2026", Status: domain.AttendancePresent}},
		{"bad status", AttendanceRecord{WorkerID: worker.ID, Date: "2026-08-01", Status: "Mungkin"}},
		{"missing worker id", AttendanceRecord{Date: "2026-08-01", Status: domain.AttendancePresent}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
				_, err := tx.CreateAttendanceRecord(tc.record)
				return err
			})
			if err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := NewMemoryStore(nil)
	worker := mustCreateWorker(t, store, "Rina")
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateWorker(worker.ID, func(w *Worker) error {
			w.Role = "mandor"
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := store.GetWorker(worker.ID)
	if got.Role != "mandor" {
		t.Fatalf("update not applied: %#v", got)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteWorker(worker.ID)
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.GetWorker(worker.ID); ok {
		t.Fatalf("worker still present after delete")
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteWorker(worker.ID)
	}); err == nil {
		t.Fatalf("expected error deleting missing worker")
	}
}

func TestTransactionChangeLog(t *testing.T) {
	store := NewMemoryStore(nil)
	var changes []Change
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateProject(Project{Name: "Ruko"}); err != nil {
			return err
		}
		if rec, ok := tx.(interface{ Changes() []Change }); ok {
			changes = rec.Changes()
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if len(changes) != 1 || changes[0].Entity != EntityProject || changes[0].Action != ActionCreate {
		t.Fatalf("unexpected change log: %+v", changes)
	}
}

func TestViewSeesCommittedSnapshot(t *testing.T) {
	store := NewMemoryStore(nil)
	mustCreateWorker(t, store, "Dewi")
	err := store.View(context.Background(), func(view TransactionView) error {
		if len(view.ListWorkers()) != 1 {
			t.Fatalf("view missing committed worker")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := NewMemoryStore(nil)
	worker := mustCreateWorker(t, store, "Joko")
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateJournalEntry(JournalEntry{Date: "2026-08-02", Summary: "cor lantai 2", Tags: []string{"struktur"}}); err != nil {
			return err
		}
		_, err := tx.CreateChatMessage(ChatMessage{Author: "mandor", Body: "besok lembur"})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	restored := NewMemoryStore(nil)
	restored.ImportState(store.ExportState())
	if _, ok := restored.GetWorker(worker.ID); !ok {
		t.Fatalf("worker lost in round trip")
	}
	entries := restored.ListJournalEntries()
	if len(entries) != 1 || len(entries[0].Tags) != 1 {
		t.Fatalf("journal lost in round trip: %+v", entries)
	}
	if msgs := restored.ListChatMessages(); len(msgs) != 1 || msgs[0].SentAt.IsZero() {
		t.Fatalf("chat lost in round trip: %+v", msgs)
	}

	// Mutating the restored copy must not leak back.
	if _, err := restored.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteWorker(worker.ID)
	}); err != nil {
		t.Fatalf("delete on copy: %v", err)
	}
	if _, ok := store.GetWorker(worker.ID); !ok {
		t.Fatalf("original store mutated through snapshot")
	}
}
