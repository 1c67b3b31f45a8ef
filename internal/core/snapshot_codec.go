package core

import "encoding/json"

// snapshotBucket binds one snapshot collection to its storage bucket name.
// The sqlite and postgres stores persist each bucket as one JSON payload.
type snapshotBucket struct {
	name   string
	encode func(Snapshot) ([]byte, error)
	decode func(*Snapshot, []byte) error
}

func bucketFor[T any](name string, field func(*Snapshot) *map[string]T) snapshotBucket {
	return snapshotBucket{
		name: name,
		encode: func(s Snapshot) ([]byte, error) {
			return json.Marshal(*field(&s))
		},
		decode: func(s *Snapshot, payload []byte) error {
			return json.Unmarshal(payload, field(s))
		},
	}
}

var snapshotBuckets = []snapshotBucket{
	bucketFor("projects", func(s *Snapshot) *map[string]Project { return &s.Projects }),
	bucketFor("workers", func(s *Snapshot) *map[string]Worker { return &s.Workers }),
	bucketFor("attendance", func(s *Snapshot) *map[string]AttendanceRecord { return &s.Attendance }),
	bucketFor("budget_items", func(s *Snapshot) *map[string]BudgetItem { return &s.BudgetItems }),
	bucketFor("resources", func(s *Snapshot) *map[string]Resource { return &s.Resources }),
	bucketFor("risk_actions", func(s *Snapshot) *map[string]RiskAction { return &s.RiskActions }),
	bucketFor("inspections", func(s *Snapshot) *map[string]Inspection { return &s.Inspections }),
	bucketFor("journal", func(s *Snapshot) *map[string]JournalEntry { return &s.Journal }),
	bucketFor("documents", func(s *Snapshot) *map[string]Document { return &s.Documents }),
	bucketFor("chat", func(s *Snapshot) *map[string]ChatMessage { return &s.Chat }),
}
