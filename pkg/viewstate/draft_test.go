package viewstate

import (
	"reflect"
	"testing"
)

type attendanceRow struct {
	WorkerID string
	Status   string
}

func rowKey(r attendanceRow) string    { return r.WorkerID }
func rowStatus(r attendanceRow) string { return r.Status }

func TestSeedCoversUniverseWithFallback(t *testing.T) {
	records := []attendanceRow{{WorkerID: "w1", Status: "Hadir"}}
	universe := []string{"w1", "w2", "w3"}

	draft := Seed(records, universe, rowKey, rowStatus, "Alpa")

	want := map[string]string{"w1": "Hadir", "w2": "Alpa", "w3": "Alpa"}
	if !reflect.DeepEqual(draft, want) {
		t.Fatalf("seeded draft %v, want %v", draft, want)
	}
	if len(draft) != len(universe) {
		t.Fatalf("expected exactly %d entries, got %d", len(universe), len(draft))
	}
}

func TestSeedIgnoresRecordsOutsideUniverse(t *testing.T) {
	records := []attendanceRow{
		{WorkerID: "w1", Status: "Sakit"},
		{WorkerID: "ghost", Status: "Hadir"},
	}
	draft := Seed(records, []string{"w1"}, rowKey, rowStatus, "Alpa")
	if len(draft) != 1 || draft["w1"] != "Sakit" {
		t.Fatalf("unexpected draft %v", draft)
	}
}

func TestSeedEmptyUniverse(t *testing.T) {
	records := []attendanceRow{{WorkerID: "w1", Status: "Hadir"}}
	draft := Seed(records, nil, rowKey, rowStatus, "Alpa")
	if len(draft) != 0 {
		t.Fatalf("empty universe must seed an empty map, got %v", draft)
	}
}

func TestSetDoesNotMutateInput(t *testing.T) {
	original := map[string]string{"w1": "Hadir"}
	updated := Set(original, "w2", "Sakit")

	if original["w2"] != "" || len(original) != 1 {
		t.Fatalf("input map mutated: %v", original)
	}
	if updated["w1"] != "Hadir" || updated["w2"] != "Sakit" {
		t.Fatalf("unexpected updated map %v", updated)
	}
	if &original == &updated {
		t.Fatalf("expected a fresh map")
	}
}
