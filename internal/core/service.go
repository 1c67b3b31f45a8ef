package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"constructcore/internal/blob"
	"constructcore/pkg/domain"
	"constructcore/pkg/viewstate"
)

// Clock supplies the service's notion of time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Logger is the minimal structured logging surface used by the service.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ChangeSink receives the change set of every committed transaction, after
// the commit succeeds. Sinks must not block for long; they run on the caller.
type ChangeSink func(ctx context.Context, changes []Change)

// ServiceOption customises service construction.
type ServiceOption func(*Service)

// WithClock overrides the service clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger overrides the service logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder attaches an operation metrics recorder.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = rec }
}

// WithChangeSink attaches a committed-change subscriber.
func WithChangeSink(sink ChangeSink) ServiceOption {
	return func(s *Service) { s.sink = sink }
}

// WithBlobStore attaches the blob backend used for document payloads.
func WithBlobStore(store blob.Store) ServiceOption {
	return func(s *Service) { s.blobs = store }
}

// Service exposes higher-level transactional operations for the core schema
// together with the derived view computations the editing surfaces consume.
type Service struct {
	store   PersistentStore
	clock   Clock
	logger  Logger
	metrics MetricsRecorder
	sink    ChangeSink
	blobs   blob.Store
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		clock:  systemClock{},
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// ErrNotFound is returned when reference validation fails within transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err == nil, s.clock.Now().Sub(start))
	}
	if err != nil {
		s.logger.Error("operation failed", "op", op, "error", err)
		return
	}
	s.logger.Debug("operation complete", "op", op)
}

type changeRecorder interface {
	Changes() []Change
}

// runWrite executes fn transactionally, records metrics, and forwards the
// committed change set to the configured sink.
func (s *Service) runWrite(ctx context.Context, op string, fn func(tx Transaction) error) (Result, error) {
	start := s.clock.Now()
	var committed []Change
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if err := fn(tx); err != nil {
			return err
		}
		if rec, ok := tx.(changeRecorder); ok {
			committed = rec.Changes()
		}
		return nil
	})
	s.observe(ctx, op, start, err)
	if err == nil {
		for _, v := range res.Violations {
			if v.Severity == SeverityWarn {
				s.logger.Warn("rule warning", "rule", v.Rule, "entity", string(v.Entity), "id", v.EntityID, "message", v.Message)
			}
		}
		if s.sink != nil && len(committed) > 0 {
			s.sink(ctx, committed)
		}
	}
	return res, err
}

// CreateProject persists a new project.
func (s *Service) CreateProject(ctx context.Context, project Project) (Project, Result, error) {
	var created Project
	res, err := s.runWrite(ctx, "create_project", func(tx Transaction) error {
		var err error
		created, err = tx.CreateProject(project)
		return err
	})
	return created, res, err
}

// UpdateProject mutates a project using the provided mutator.
func (s *Service) UpdateProject(ctx context.Context, id string, mutator func(*Project) error) (Project, Result, error) {
	var updated Project
	res, err := s.runWrite(ctx, "update_project", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateProject(id, mutator)
		return err
	})
	return updated, res, err
}

// CreateWorker persists a new worker.
func (s *Service) CreateWorker(ctx context.Context, worker Worker) (Worker, Result, error) {
	var created Worker
	res, err := s.runWrite(ctx, "create_worker", func(tx Transaction) error {
		var err error
		created, err = tx.CreateWorker(worker)
		return err
	})
	return created, res, err
}

// AssignWorkerProject links a worker to a project within a transaction that
// validates the reference.
func (s *Service) AssignWorkerProject(ctx context.Context, workerID, projectID string) (Worker, Result, error) {
	var updated Worker
	res, err := s.runWrite(ctx, "assign_worker_project", func(tx Transaction) error {
		if _, ok := tx.FindProject(projectID); !ok {
			return ErrNotFound{Entity: EntityProject, ID: projectID}
		}
		var err error
		updated, err = tx.UpdateWorker(workerID, func(w *Worker) error {
			w.ProjectID = &projectID
			return nil
		})
		return err
	})
	return updated, res, err
}

// CreateBudgetItem persists a new RAB line.
func (s *Service) CreateBudgetItem(ctx context.Context, item BudgetItem) (BudgetItem, Result, error) {
	var created BudgetItem
	res, err := s.runWrite(ctx, "create_budget_item", func(tx Transaction) error {
		var err error
		created, err = tx.CreateBudgetItem(item)
		return err
	})
	return created, res, err
}

// UpdateBudgetItem mutates a RAB line.
func (s *Service) UpdateBudgetItem(ctx context.Context, id string, mutator func(*BudgetItem) error) (BudgetItem, Result, error) {
	var updated BudgetItem
	res, err := s.runWrite(ctx, "update_budget_item", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateBudgetItem(id, mutator)
		return err
	})
	return updated, res, err
}

// CreateResource persists a new resource.
func (s *Service) CreateResource(ctx context.Context, resource Resource) (Resource, Result, error) {
	var created Resource
	res, err := s.runWrite(ctx, "create_resource", func(tx Transaction) error {
		var err error
		created, err = tx.CreateResource(resource)
		return err
	})
	return created, res, err
}

// UpdateResource mutates a resource.
func (s *Service) UpdateResource(ctx context.Context, id string, mutator func(*Resource) error) (Resource, Result, error) {
	var updated Resource
	res, err := s.runWrite(ctx, "update_resource", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateResource(id, mutator)
		return err
	})
	return updated, res, err
}

// CreateRiskAction persists a new risk mitigation action.
func (s *Service) CreateRiskAction(ctx context.Context, action RiskAction) (RiskAction, Result, error) {
	var created RiskAction
	res, err := s.runWrite(ctx, "create_risk_action", func(tx Transaction) error {
		var err error
		created, err = tx.CreateRiskAction(action)
		return err
	})
	return created, res, err
}

// UpdateRiskAction mutates a risk action.
func (s *Service) UpdateRiskAction(ctx context.Context, id string, mutator func(*RiskAction) error) (RiskAction, Result, error) {
	var updated RiskAction
	res, err := s.runWrite(ctx, "update_risk_action", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateRiskAction(id, mutator)
		return err
	})
	return updated, res, err
}

// CreateInspection persists a quality inspection.
func (s *Service) CreateInspection(ctx context.Context, inspection Inspection) (Inspection, Result, error) {
	var created Inspection
	res, err := s.runWrite(ctx, "create_inspection", func(tx Transaction) error {
		var err error
		created, err = tx.CreateInspection(inspection)
		return err
	})
	return created, res, err
}

// CreateJournalEntry persists a site journal entry.
func (s *Service) CreateJournalEntry(ctx context.Context, entry JournalEntry) (JournalEntry, Result, error) {
	var created JournalEntry
	res, err := s.runWrite(ctx, "create_journal_entry", func(tx Transaction) error {
		var err error
		created, err = tx.CreateJournalEntry(entry)
		return err
	})
	return created, res, err
}

// PostChatMessage persists a chat message; the change sink fans it out.
func (s *Service) PostChatMessage(ctx context.Context, message ChatMessage) (ChatMessage, Result, error) {
	var created ChatMessage
	res, err := s.runWrite(ctx, "post_chat_message", func(tx Transaction) error {
		var err error
		created, err = tx.CreateChatMessage(message)
		return err
	})
	return created, res, err
}

// AttachDocument streams a document payload into the blob store and records
// the reference transactionally. The blob write happens first; a failed
// transaction leaves an orphan blob rather than a dangling reference.
func (s *Service) AttachDocument(ctx context.Context, projectID *string, name, contentType string, r io.Reader) (Document, Result, error) {
	if s.blobs == nil {
		return Document{}, Result{}, fmt.Errorf("no blob store configured")
	}
	key := "documents/" + uuid.NewString()
	info, err := s.blobs.Put(ctx, key, r, blob.PutOptions{ContentType: contentType})
	if err != nil {
		return Document{}, Result{}, fmt.Errorf("store document payload: %w", err)
	}
	var created Document
	res, err := s.runWrite(ctx, "attach_document", func(tx Transaction) error {
		var err error
		created, err = tx.CreateDocument(Document{
			ProjectID:   projectID,
			Name:        name,
			BlobKey:     key,
			ContentType: contentType,
			Size:        info.Size,
		})
		return err
	})
	return created, res, err
}

// OpenDocument returns the stored metadata and payload stream for a document.
func (s *Service) OpenDocument(ctx context.Context, id string) (Document, io.ReadCloser, error) {
	if s.blobs == nil {
		return Document{}, nil, fmt.Errorf("no blob store configured")
	}
	var doc Document
	found := false
	for _, d := range s.store.ListDocuments() {
		if d.ID == id {
			doc, found = d, true
			break
		}
	}
	if !found {
		return Document{}, nil, ErrNotFound{Entity: EntityDocument, ID: id}
	}
	_, rc, err := s.blobs.Get(ctx, doc.BlobKey)
	if err != nil {
		return Document{}, nil, fmt.Errorf("open document payload: %w", err)
	}
	return doc, rc, nil
}

// AttendanceSheet seeds the editable draft for a date: one entry per active
// worker, the committed status where a record exists, absent otherwise.
func (s *Service) AttendanceSheet(ctx context.Context, date string) (map[string]AttendanceStatus, error) {
	records, universe, err := s.attendanceInputs(ctx, date)
	if err != nil {
		return nil, err
	}
	draft := viewstate.Seed(records, universe,
		func(r AttendanceRecord) string { return r.WorkerID },
		func(r AttendanceRecord) AttendanceStatus { return r.Status },
		domain.AttendanceAbsent)
	return draft, nil
}

func (s *Service) attendanceInputs(ctx context.Context, date string) ([]AttendanceRecord, []string, error) {
	var records []AttendanceRecord
	var universe []string
	err := s.store.View(ctx, func(view TransactionView) error {
		records = viewstate.Apply(view.ListAttendanceRecords(),
			viewstate.Facet(func(r AttendanceRecord) string { return r.Date }, date))
		for _, w := range view.ListWorkers() {
			if w.Active {
				universe = append(universe, w.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return records, universe, nil
}

// SaveAttendanceSheet reconciles edits against the committed records for the
// date and persists only the changed entries in one transaction. Existing
// records are updated in place; workers with no record for the date get one
// created. Edits equal to the committed status never reach storage.
func (s *Service) SaveAttendanceSheet(ctx context.Context, projectID *string, date string, edits map[string]AttendanceStatus) (map[string]AttendanceStatus, Result, error) {
	start := s.clock.Now()
	records, universe, err := s.attendanceInputs(ctx, date)
	if err != nil {
		s.observe(ctx, "save_attendance_sheet", start, err)
		return nil, Result{}, err
	}

	session := viewstate.NewSession(
		func(r AttendanceRecord) string { return r.WorkerID },
		func(r AttendanceRecord) AttendanceStatus { return r.Status },
		domain.AttendanceAbsent)
	session.SetValidator(func(workerID string, status AttendanceStatus) error {
		if !status.Valid() {
			return fmt.Errorf("unknown attendance status %q for worker %s", status, workerID)
		}
		return nil
	})
	session.Sync(date, records, universe)
	for workerID, status := range edits {
		if err := session.Set(workerID, status); err != nil {
			s.observe(ctx, "save_attendance_sheet", start, err)
			return nil, Result{}, err
		}
	}

	existing := make(map[string]string, len(records))
	for _, r := range records {
		existing[r.WorkerID] = r.ID
	}

	var res Result
	persisted := false
	diff, err := session.Commit(ctx, func(ctx context.Context, diff map[string]AttendanceStatus) error {
		persisted = true
		workerIDs := make([]string, 0, len(diff))
		for workerID := range diff {
			workerIDs = append(workerIDs, workerID)
		}
		sort.Strings(workerIDs)

		var txErr error
		res, txErr = s.runWrite(ctx, "save_attendance_sheet", func(tx Transaction) error {
			for _, workerID := range workerIDs {
				status := diff[workerID]
				if recordID, ok := existing[workerID]; ok {
					if _, err := tx.UpdateAttendanceRecord(recordID, func(r *AttendanceRecord) error {
						r.Status = status
						return nil
					}); err != nil {
						return err
					}
					continue
				}
				if _, err := tx.CreateAttendanceRecord(AttendanceRecord{
					WorkerID:  workerID,
					ProjectID: projectID,
					Date:      date,
					Status:    status,
				}); err != nil {
					return err
				}
			}
			return nil
		})
		return txErr
	})
	if !persisted {
		// Nothing reached the store; record the operation here since
		// runWrite never ran.
		s.observe(ctx, "save_attendance_sheet", start, err)
	}
	if err != nil {
		return nil, res, err
	}
	return diff, res, nil
}

// AttendanceSummary counts the committed records for a date across the closed
// status set; statuses with no records report 0.
func (s *Service) AttendanceSummary(ctx context.Context, date string) (map[AttendanceStatus]int, error) {
	records, _, err := s.attendanceInputs(ctx, date)
	if err != nil {
		return nil, err
	}
	return viewstate.CountBy(records,
		func(r AttendanceRecord) AttendanceStatus { return r.Status },
		domain.AttendanceStatuses()...), nil
}

// SearchResources narrows the resource list by free-text query and status
// facet. Blank query and empty/"all" status leave the dimension inactive.
func (s *Service) SearchResources(ctx context.Context, query string, status ResourceStatus) ([]Resource, error) {
	var out []Resource
	err := s.store.View(ctx, func(view TransactionView) error {
		out = viewstate.Apply(view.ListResources(),
			viewstate.Search(query,
				func(r Resource) string { return r.Name },
				func(r Resource) string { return r.ID },
				func(r Resource) string { return r.Kind }),
			viewstate.Facet(func(r Resource) ResourceStatus { return r.Status }, status))
		return nil
	})
	return out, err
}

// FilterRiskActions narrows the risk board by query, status, level, and the
// overdue flag (due strictly before now while still open).
func (s *Service) FilterRiskActions(ctx context.Context, query string, status WorkStatus, level RiskLevel, overdueOnly bool) ([]RiskAction, error) {
	now := s.clock.Now()
	var overdue viewstate.Predicate[RiskAction]
	if overdueOnly {
		overdue = func(r RiskAction) bool { return r.Overdue(now) }
	}
	var out []RiskAction
	err := s.store.View(ctx, func(view TransactionView) error {
		out = viewstate.Apply(view.ListRiskActions(),
			viewstate.Search(query,
				func(r RiskAction) string { return r.Description },
				func(r RiskAction) string { return r.ID },
				func(r RiskAction) string { return r.Owner }),
			viewstate.Facet(func(r RiskAction) WorkStatus { return r.Status }, status),
			viewstate.Facet(func(r RiskAction) RiskLevel { return r.Level }, level),
			overdue)
		return nil
	})
	return out, err
}

// SearchJournal narrows journal entries by free-text query and date facet.
func (s *Service) SearchJournal(ctx context.Context, query, date string) ([]JournalEntry, error) {
	entries := s.store.ListJournalEntries()
	return viewstate.Apply(entries,
		viewstate.Search(query,
			func(e JournalEntry) string { return e.Summary },
			func(e JournalEntry) string { return e.Weather },
			func(e JournalEntry) string { return e.ID }),
		viewstate.Facet(func(e JournalEntry) string { return e.Date }, date)), nil
}

// InspectionPassRate reports passed/(passed+failed) over committed
// inspections, 0 when none have been decided.
func (s *Service) InspectionPassRate(ctx context.Context) (float64, error) {
	var rate float64
	err := s.store.View(ctx, func(view TransactionView) error {
		counts := viewstate.CountBy(view.ListInspections(),
			func(i Inspection) InspectionStatus { return i.Status },
			domain.InspectionStatuses()...)
		decided := counts[domain.InspectionPassed] + counts[domain.InspectionFailed]
		rate = viewstate.Rate(counts[domain.InspectionPassed], decided)
		return nil
	})
	return rate, err
}

// DashboardSummary aggregates the headline counters shown on the project
// dashboard.
type DashboardSummary struct {
	Projects           map[ProjectStatus]int    `json:"projects"`
	Attendance         map[AttendanceStatus]int `json:"attendance"`
	RiskActions        map[WorkStatus]int       `json:"risk_actions"`
	OverdueRiskActions int                      `json:"overdue_risk_actions"`
	InspectionPassRate float64                  `json:"inspection_pass_rate"`
	BudgetPlanned      float64                  `json:"budget_planned"`
	BudgetActual       float64                  `json:"budget_actual"`
}

// Dashboard computes the summary for a reporting date. Statistics recompute
// from the committed collections on every call; nothing is cached.
func (s *Service) Dashboard(ctx context.Context, date string) (DashboardSummary, error) {
	now := s.clock.Now()
	var summary DashboardSummary
	err := s.store.View(ctx, func(view TransactionView) error {
		summary.Projects = viewstate.CountBy(view.ListProjects(),
			func(p Project) ProjectStatus { return p.Status },
			domain.ProjectPlanned, domain.ProjectActive, domain.ProjectOnHold, domain.ProjectCompleted)

		todays := viewstate.Apply(view.ListAttendanceRecords(),
			viewstate.Facet(func(r AttendanceRecord) string { return r.Date }, date))
		summary.Attendance = viewstate.CountBy(todays,
			func(r AttendanceRecord) AttendanceStatus { return r.Status },
			domain.AttendanceStatuses()...)

		actions := view.ListRiskActions()
		summary.RiskActions = viewstate.CountBy(actions,
			func(r RiskAction) WorkStatus { return r.Status },
			domain.WorkStatuses()...)
		for _, action := range actions {
			if action.Overdue(now) {
				summary.OverdueRiskActions++
			}
		}

		counts := viewstate.CountBy(view.ListInspections(),
			func(i Inspection) InspectionStatus { return i.Status },
			domain.InspectionStatuses()...)
		decided := counts[domain.InspectionPassed] + counts[domain.InspectionFailed]
		summary.InspectionPassRate = viewstate.Rate(counts[domain.InspectionPassed], decided)

		for _, item := range view.ListBudgetItems() {
			summary.BudgetPlanned += item.PlannedCost()
			summary.BudgetActual += item.ActualCost
		}
		return nil
	})
	return summary, err
}

// CheckRules evaluates the registered rules against committed state without
// mutating anything, returning all findings.
func (s *Service) CheckRules(ctx context.Context) (Result, error) {
	res, err := s.store.RunInTransaction(ctx, func(Transaction) error { return nil })
	if err != nil {
		var rve RuleViolationError
		if errors.As(err, &rve) {
			return rve.Result, nil
		}
		return Result{}, err
	}
	return res, nil
}
