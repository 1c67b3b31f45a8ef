package core

import "constructcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewBudgetBoundsRule())
	engine.Register(NewAttendanceDuplicateRule())
	engine.Register(NewRiskOverdueRule(nil))
	return engine
}
