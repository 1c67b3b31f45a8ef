package core

import (
	"context"
	"fmt"

	"constructcore/pkg/domain"
)

// NewBudgetBoundsRule returns the in-transaction rule enforcing RAB line
// bounds: a positive work volume and a non-negative unit price. Violations
// block the commit so an out-of-range line never reaches storage.
func NewBudgetBoundsRule() domain.Rule {
	return budgetBoundsRule{}
}

type budgetBoundsRule struct{}

func (budgetBoundsRule) Name() string { return "budget_bounds" }

func (budgetBoundsRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, item := range view.ListBudgetItems() {
		if item.Volume <= 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "budget_bounds",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("budget item %s (%s) volume must be positive: %v", item.Description, item.ID, item.Volume),
				Entity:   domain.EntityBudgetItem,
				EntityID: item.ID,
			})
		}
		if item.UnitPrice < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "budget_bounds",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("budget item %s (%s) unit price must not be negative: %v", item.Description, item.ID, item.UnitPrice),
				Entity:   domain.EntityBudgetItem,
				EntityID: item.ID,
			})
		}
	}
	return res, nil
}
