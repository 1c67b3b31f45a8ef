package core

import (
	"context"
	"fmt"
	"time"

	"constructcore/pkg/domain"
)

// NewRiskOverdueRule returns the rule flagging open risk actions whose due
// date has passed. Findings carry warn severity: the transaction commits, but
// the violations surface in the result for dashboards and the check command.
func NewRiskOverdueRule(nowFn func() time.Time) domain.Rule {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return riskOverdueRule{nowFn: nowFn}
}

type riskOverdueRule struct {
	nowFn func() time.Time
}

func (riskOverdueRule) Name() string { return "risk_overdue" }

func (r riskOverdueRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	now := r.nowFn()
	res := domain.Result{}
	for _, action := range view.ListRiskActions() {
		if !action.Overdue(now) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "risk_overdue",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("risk action %s (%s) overdue since %s", action.Description, action.ID, action.DueDate.Format(domain.DateLayout)),
			Entity:   domain.EntityRiskAction,
			EntityID: action.ID,
		})
	}
	return res, nil
}
