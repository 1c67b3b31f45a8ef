package domain

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if err.Error() == "" {
		t.Fatalf("expected error string")
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type failingRule struct{}

func (failingRule) Name() string { return "failing" }

func (failingRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, fmt.Errorf("rule exploded")
}

type emptyView struct{}

func (emptyView) ListProjects() []Project                   { return nil }
func (emptyView) ListWorkers() []Worker                     { return nil }
func (emptyView) ListAttendanceRecords() []AttendanceRecord { return nil }
func (emptyView) ListBudgetItems() []BudgetItem             { return nil }
func (emptyView) ListResources() []Resource                 { return nil }
func (emptyView) ListRiskActions() []RiskAction             { return nil }
func (emptyView) ListInspections() []Inspection             { return nil }
func (emptyView) FindProject(string) (Project, bool)        { return Project{}, false }
func (emptyView) FindWorker(string) (Worker, bool)          { return Worker{}, false }
func (emptyView) FindAttendanceRecord(string) (AttendanceRecord, bool) {
	return AttendanceRecord{}, false
}
func (emptyView) FindBudgetItem(string) (BudgetItem, bool) { return BudgetItem{}, false }
func (emptyView) FindResource(string) (Resource, bool)     { return Resource{}, false }
func (emptyView) FindRiskAction(string) (RiskAction, bool) { return RiskAction{}, false }

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Rule != "warn" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRulesEngineStopsOnError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(failingRule{})
	engine.Register(staticRule{"unreached"})
	if _, err := engine.Evaluate(context.Background(), emptyView{}, nil); err == nil {
		t.Fatalf("expected evaluation error")
	}
}

func TestAttendanceStatusValidity(t *testing.T) {
	for _, status := range AttendanceStatuses() {
		if !status.Valid() {
			t.Fatalf("expected %q valid", status)
		}
	}
	if AttendanceStatus("present").Valid() {
		t.Fatalf("untranslated status must not validate")
	}
}

func TestWorkStatusOpen(t *testing.T) {
	cases := map[WorkStatus]bool{
		WorkPending:    true,
		WorkInProgress: true,
		WorkCompleted:  false,
		WorkCancelled:  false,
	}
	for status, open := range cases {
		if status.Open() != open {
			t.Fatalf("status %q: expected open=%v", status, open)
		}
	}
}

func TestRiskActionOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open := RiskAction{Status: WorkInProgress, DueDate: &past}
	if !open.Overdue(now) {
		t.Fatalf("open action past due must be overdue")
	}
	atDeadline := RiskAction{Status: WorkPending, DueDate: &now}
	if atDeadline.Overdue(now) {
		t.Fatalf("due date equal to now is not overdue (strictly before)")
	}
	closed := RiskAction{Status: WorkCompleted, DueDate: &past}
	if closed.Overdue(now) {
		t.Fatalf("closed action must not be overdue")
	}
	upcoming := RiskAction{Status: WorkPending, DueDate: &future}
	if upcoming.Overdue(now) {
		t.Fatalf("future due date must not be overdue")
	}
	noDue := RiskAction{Status: WorkPending}
	if noDue.Overdue(now) {
		t.Fatalf("missing due date must not be overdue")
	}
}

func TestBudgetItemPlannedCost(t *testing.T) {
	item := BudgetItem{Volume: 12.5, UnitPrice: 80000}
	if got := item.PlannedCost(); got != 1000000 {
		t.Fatalf("planned cost: got %v", got)
	}
}
