package core

import (
	"context"
	"fmt"

	"constructcore/pkg/domain"
)

// NewAttendanceDuplicateRule returns the in-transaction rule enforcing at
// most one attendance record per worker and date. Duplicates block the
// commit; the per-date editing flow updates the existing record instead.
func NewAttendanceDuplicateRule() domain.Rule {
	return attendanceDuplicateRule{}
}

type attendanceDuplicateRule struct{}

func (attendanceDuplicateRule) Name() string { return "attendance_duplicate" }

func (attendanceDuplicateRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	seen := make(map[string]string)
	res := domain.Result{}
	for _, record := range view.ListAttendanceRecords() {
		key := record.WorkerID + "@" + record.Date
		if firstID, dup := seen[key]; dup {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "attendance_duplicate",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("worker %s already has attendance record %s for %s", record.WorkerID, firstID, record.Date),
				Entity:   domain.EntityAttendance,
				EntityID: record.ID,
			})
			continue
		}
		seen[key] = record.ID
	}
	return res, nil
}
