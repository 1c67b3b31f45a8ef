package core

import "constructcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	ProjectStatus      = domain.ProjectStatus
	AttendanceStatus   = domain.AttendanceStatus
	WorkStatus         = domain.WorkStatus
	ResourceStatus     = domain.ResourceStatus
	InspectionStatus   = domain.InspectionStatus
	RiskLevel          = domain.RiskLevel
	Severity           = domain.Severity
	Base               = domain.Base
	Project            = domain.Project
	Worker             = domain.Worker
	AttendanceRecord   = domain.AttendanceRecord
	BudgetItem         = domain.BudgetItem
	Resource           = domain.Resource
	RiskAction         = domain.RiskAction
	Inspection         = domain.Inspection
	JournalEntry       = domain.JournalEntry
	Document           = domain.Document
	ChatMessage        = domain.ChatMessage
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityProject      = domain.EntityProject
	EntityWorker       = domain.EntityWorker
	EntityAttendance   = domain.EntityAttendance
	EntityBudgetItem   = domain.EntityBudgetItem
	EntityResource     = domain.EntityResource
	EntityRiskAction   = domain.EntityRiskAction
	EntityInspection   = domain.EntityInspection
	EntityJournalEntry = domain.EntityJournalEntry
	EntityDocument     = domain.EntityDocument
	EntityChatMessage  = domain.EntityChatMessage
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
