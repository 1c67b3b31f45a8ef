// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by constructcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProject identifies a construction project record.
	EntityProject EntityType = "project"
	// EntityWorker identifies a worker record.
	EntityWorker EntityType = "worker"
	// EntityAttendance identifies a daily attendance record.
	EntityAttendance EntityType = "attendance_record"
	// EntityBudgetItem identifies a budget (RAB) line item record.
	EntityBudgetItem EntityType = "budget_item"
	// EntityResource identifies a material or equipment resource record.
	EntityResource EntityType = "resource"
	// EntityRiskAction identifies a risk mitigation action record.
	EntityRiskAction EntityType = "risk_action"
	// EntityInspection identifies a quality inspection record.
	EntityInspection EntityType = "inspection"
	// EntityJournalEntry identifies a site journal entry record.
	EntityJournalEntry EntityType = "journal_entry"
	// EntityDocument identifies a managed document record.
	EntityDocument EntityType = "document"
	// EntityChatMessage identifies a project chat message record.
	EntityChatMessage EntityType = "chat_message"
)

// ProjectStatus represents the canonical project lifecycle states.
type ProjectStatus string

// Canonical project statuses.
const (
	ProjectPlanned   ProjectStatus = "planned"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
)

// AttendanceStatus enumerates daily attendance outcomes for a worker. The wire
// values follow the payroll export convention and must not be translated.
type AttendanceStatus string

// Canonical attendance statuses.
const (
	// AttendancePresent marks a worker present on site.
	AttendancePresent AttendanceStatus = "Hadir"
	// AttendanceExcused marks an approved leave.
	AttendanceExcused AttendanceStatus = "Izin"
	// AttendanceSick marks a sick day.
	AttendanceSick AttendanceStatus = "Sakit"
	// AttendanceAbsent marks an unexcused absence. It is the seeding fallback
	// for workers without a committed record on the selected date.
	AttendanceAbsent AttendanceStatus = "Alpa"
)

// AttendanceStatuses lists every recognised attendance status. Aggregations
// iterate this list so unseen statuses still surface with a zero count.
func AttendanceStatuses() []AttendanceStatus {
	return []AttendanceStatus{AttendancePresent, AttendanceExcused, AttendanceSick, AttendanceAbsent}
}

// Valid reports whether the status is one of the closed set.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceExcused, AttendanceSick, AttendanceAbsent:
		return true
	}
	return false
}

// WorkStatus enumerates workflow states shared by risk actions and similar
// tracked items.
type WorkStatus string

// Canonical work statuses.
const (
	WorkPending    WorkStatus = "pending"
	WorkInProgress WorkStatus = "in_progress"
	WorkCompleted  WorkStatus = "completed"
	WorkCancelled  WorkStatus = "cancelled"
)

// WorkStatuses lists every recognised work status in display order.
func WorkStatuses() []WorkStatus {
	return []WorkStatus{WorkPending, WorkInProgress, WorkCompleted, WorkCancelled}
}

// Valid reports whether the status is one of the closed set.
func (s WorkStatus) Valid() bool {
	switch s {
	case WorkPending, WorkInProgress, WorkCompleted, WorkCancelled:
		return true
	}
	return false
}

// Open reports whether the status still requires work. Completed and cancelled
// items are closed; overdue detection only applies to open items.
func (s WorkStatus) Open() bool {
	return s == WorkPending || s == WorkInProgress
}

// ResourceStatus enumerates resource availability states.
type ResourceStatus string

// Canonical resource statuses.
const (
	ResourceAvailable ResourceStatus = "available"
	ResourceAllocated ResourceStatus = "allocated"
	ResourceDepleted  ResourceStatus = "depleted"
)

// ResourceStatuses lists every recognised resource status.
func ResourceStatuses() []ResourceStatus {
	return []ResourceStatus{ResourceAvailable, ResourceAllocated, ResourceDepleted}
}

// InspectionStatus enumerates quality inspection outcomes.
type InspectionStatus string

// Canonical inspection statuses.
const (
	InspectionPending InspectionStatus = "pending"
	InspectionPassed  InspectionStatus = "passed"
	InspectionFailed  InspectionStatus = "failed"
)

// InspectionStatuses lists every recognised inspection status.
func InspectionStatuses() []InspectionStatus {
	return []InspectionStatus{InspectionPending, InspectionPassed, InspectionFailed}
}

// RiskLevel grades the severity of a tracked risk.
type RiskLevel string

// Canonical risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// DateLayout is the calendar-day format used by attendance and journal records.
const DateLayout = "2006-01-02"

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project represents a construction project tracked by the system.
type Project struct {
	Base
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Location    string        `json:"location"`
	Status      ProjectStatus `json:"status"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
	BudgetTotal float64       `json:"budget_total"`
}

// Worker represents a site worker eligible for daily attendance.
type Worker struct {
	Base
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	DailyRate float64 `json:"daily_rate"`
	ProjectID *string `json:"project_id"`
	Active    bool    `json:"active"`
}

// AttendanceRecord captures one worker's attendance outcome for one date.
// At most one record may exist per worker and date.
type AttendanceRecord struct {
	Base
	WorkerID  string           `json:"worker_id"`
	ProjectID *string          `json:"project_id"`
	Date      string           `json:"date"`
	Status    AttendanceStatus `json:"status"`
	Notes     string           `json:"notes"`
}

// BudgetItem is a single RAB (budget plan) line: a priced volume of work with
// the actual cost recorded against it as the project progresses.
type BudgetItem struct {
	Base
	ProjectID   string  `json:"project_id"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Volume      float64 `json:"volume"`
	UnitPrice   float64 `json:"unit_price"`
	ActualCost  float64 `json:"actual_cost"`
}

// PlannedCost returns the budgeted cost of the line.
func (b BudgetItem) PlannedCost() float64 {
	return b.Volume * b.UnitPrice
}

// Resource represents a material, equipment, or labor resource.
type Resource struct {
	Base
	ProjectID *string        `json:"project_id"`
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Unit      string         `json:"unit"`
	Quantity  float64        `json:"quantity"`
	Status    ResourceStatus `json:"status"`
}

// RiskAction is a mitigation action tracked against an identified risk.
type RiskAction struct {
	Base
	ProjectID   *string    `json:"project_id"`
	Description string     `json:"description"`
	Owner       string     `json:"owner"`
	Level       RiskLevel  `json:"level"`
	Status      WorkStatus `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

// Overdue reports whether the action's due date lies strictly before now while
// the action is still open.
func (r RiskAction) Overdue(now time.Time) bool {
	return r.DueDate != nil && r.DueDate.Before(now) && r.Status.Open()
}

// Inspection records a quality inspection of a work item.
type Inspection struct {
	Base
	ProjectID   *string          `json:"project_id"`
	Item        string           `json:"item"`
	Inspector   string           `json:"inspector"`
	Status      InspectionStatus `json:"status"`
	InspectedAt *time.Time       `json:"inspected_at"`
	Notes       string           `json:"notes"`
}

// JournalEntry is a dated site journal note.
type JournalEntry struct {
	Base
	ProjectID *string  `json:"project_id"`
	Date      string   `json:"date"`
	Weather   string   `json:"weather"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
}

// Document references an uploaded file held in the blob store.
type Document struct {
	Base
	ProjectID   *string `json:"project_id"`
	Name        string  `json:"name"`
	BlobKey     string  `json:"blob_key"`
	ContentType string  `json:"content_type"`
	Size        int64   `json:"size_bytes"`
}

// ChatMessage is a message posted to a project's chat channel.
type ChatMessage struct {
	Base
	ProjectID *string   `json:"project_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
