package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	CreateProject(Project) (Project, error)
	UpdateProject(id string, mutator func(*Project) error) (Project, error)
	DeleteProject(id string) error
	CreateWorker(Worker) (Worker, error)
	UpdateWorker(id string, mutator func(*Worker) error) (Worker, error)
	DeleteWorker(id string) error
	CreateAttendanceRecord(AttendanceRecord) (AttendanceRecord, error)
	UpdateAttendanceRecord(id string, mutator func(*AttendanceRecord) error) (AttendanceRecord, error)
	DeleteAttendanceRecord(id string) error
	CreateBudgetItem(BudgetItem) (BudgetItem, error)
	UpdateBudgetItem(id string, mutator func(*BudgetItem) error) (BudgetItem, error)
	DeleteBudgetItem(id string) error
	CreateResource(Resource) (Resource, error)
	UpdateResource(id string, mutator func(*Resource) error) (Resource, error)
	DeleteResource(id string) error
	CreateRiskAction(RiskAction) (RiskAction, error)
	UpdateRiskAction(id string, mutator func(*RiskAction) error) (RiskAction, error)
	DeleteRiskAction(id string) error
	CreateInspection(Inspection) (Inspection, error)
	UpdateInspection(id string, mutator func(*Inspection) error) (Inspection, error)
	DeleteInspection(id string) error
	CreateJournalEntry(JournalEntry) (JournalEntry, error)
	UpdateJournalEntry(id string, mutator func(*JournalEntry) error) (JournalEntry, error)
	DeleteJournalEntry(id string) error
	CreateDocument(Document) (Document, error)
	DeleteDocument(id string) error
	CreateChatMessage(ChatMessage) (ChatMessage, error)
	FindProject(id string) (Project, bool)
	FindWorker(id string) (Worker, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// derived view computations.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetProject(id string) (Project, bool)
	ListProjects() []Project
	GetWorker(id string) (Worker, bool)
	ListWorkers() []Worker
	ListAttendanceRecords() []AttendanceRecord
	ListBudgetItems() []BudgetItem
	ListResources() []Resource
	ListRiskActions() []RiskAction
	ListInspections() []Inspection
	ListJournalEntries() []JournalEntry
	ListDocuments() []Document
	ListChatMessages() []ChatMessage
}
