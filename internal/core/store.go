package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"constructcore/pkg/domain"
)

type memoryState struct {
	projects    map[string]Project
	workers     map[string]Worker
	attendance  map[string]AttendanceRecord
	budgetItems map[string]BudgetItem
	resources   map[string]Resource
	riskActions map[string]RiskAction
	inspections map[string]Inspection
	journal     map[string]JournalEntry
	documents   map[string]Document
	chat        map[string]ChatMessage
}

func newMemoryState() memoryState {
	return memoryState{
		projects:    make(map[string]Project),
		workers:     make(map[string]Worker),
		attendance:  make(map[string]AttendanceRecord),
		budgetItems: make(map[string]BudgetItem),
		resources:   make(map[string]Resource),
		riskActions: make(map[string]RiskAction),
		inspections: make(map[string]Inspection),
		journal:     make(map[string]JournalEntry),
		documents:   make(map[string]Document),
		chat:        make(map[string]ChatMessage),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.projects {
		cloned.projects[k] = v
	}
	for k, v := range s.workers {
		cloned.workers[k] = v
	}
	for k, v := range s.attendance {
		cloned.attendance[k] = v
	}
	for k, v := range s.budgetItems {
		cloned.budgetItems[k] = v
	}
	for k, v := range s.resources {
		cloned.resources[k] = v
	}
	for k, v := range s.riskActions {
		cloned.riskActions[k] = v
	}
	for k, v := range s.inspections {
		cloned.inspections[k] = v
	}
	for k, v := range s.journal {
		cloned.journal[k] = cloneJournalEntry(v)
	}
	for k, v := range s.documents {
		cloned.documents[k] = v
	}
	for k, v := range s.chat {
		cloned.chat[k] = v
	}
	return cloned
}

func cloneJournalEntry(e JournalEntry) JournalEntry {
	cp := e
	cp.Tags = append([]string(nil), e.Tags...)
	return cp
}

// Snapshot is the serialisable representation of the in-memory state.
type Snapshot struct {
	Projects    map[string]Project          `json:"projects"`
	Workers     map[string]Worker           `json:"workers"`
	Attendance  map[string]AttendanceRecord `json:"attendance"`
	BudgetItems map[string]BudgetItem       `json:"budget_items"`
	Resources   map[string]Resource         `json:"resources"`
	RiskActions map[string]RiskAction       `json:"risk_actions"`
	Inspections map[string]Inspection       `json:"inspections"`
	Journal     map[string]JournalEntry     `json:"journal"`
	Documents   map[string]Document         `json:"documents"`
	Chat        map[string]ChatMessage      `json:"chat"`
}

// MemoryStore provides an in-memory transactional store for the core domain.
type MemoryStore struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*MemoryStore)(nil)

// NewMemoryStore constructs an in-memory store backed by the provided rules engine.
func NewMemoryStore(engine *RulesEngine) *MemoryStore {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &MemoryStore{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Engine returns the rules engine evaluated on every transaction.
func (s *MemoryStore) Engine() *RulesEngine {
	return s.engine
}

func (s *MemoryStore) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState returns a deep copy of the current state for durable backends.
func (s *MemoryStore) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state.clone()
	return Snapshot{
		Projects:    state.projects,
		Workers:     state.workers,
		Attendance:  state.attendance,
		BudgetItems: state.budgetItems,
		Resources:   state.resources,
		RiskActions: state.riskActions,
		Inspections: state.inspections,
		Journal:     state.journal,
		Documents:   state.documents,
		Chat:        state.chat,
	}
}

// ImportState replaces the current state with the snapshot contents.
func (s *MemoryStore) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snapshot.Projects {
		state.projects[k] = v
	}
	for k, v := range snapshot.Workers {
		state.workers[k] = v
	}
	for k, v := range snapshot.Attendance {
		state.attendance[k] = v
	}
	for k, v := range snapshot.BudgetItems {
		state.budgetItems[k] = v
	}
	for k, v := range snapshot.Resources {
		state.resources[k] = v
	}
	for k, v := range snapshot.RiskActions {
		state.riskActions[k] = v
	}
	for k, v := range snapshot.Inspections {
		state.inspections[k] = v
	}
	for k, v := range snapshot.Journal {
		state.journal[k] = cloneJournalEntry(v)
	}
	for k, v := range snapshot.Documents {
		state.documents[k] = v
	}
	for k, v := range snapshot.Chat {
		state.chat[k] = v
	}
	s.state = state
}

// memTx represents a mutation set applied to the store state.
type memTx struct {
	store   *MemoryStore
	state   memoryState
	changes []Change
	now     time.Time
}

var _ domain.Transaction = (*memTx)(nil)

// storeView exposes a read-only snapshot of the transactional state to rules.
type storeView struct {
	state *memoryState
}

var _ domain.RuleView = storeView{}

func sortedByCreation[T any](items []T, created func(T) time.Time, id func(T) string) []T {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if ci.Equal(cj) {
			return id(items[i]) < id(items[j])
		}
		return ci.Before(cj)
	})
	return items
}

// ListProjects returns all projects in creation order.
func (v storeView) ListProjects() []Project {
	out := make([]Project, 0, len(v.state.projects))
	for _, p := range v.state.projects {
		out = append(out, p)
	}
	return sortedByCreation(out, func(p Project) time.Time { return p.CreatedAt }, func(p Project) string { return p.ID })
}

// ListWorkers returns all workers in creation order.
func (v storeView) ListWorkers() []Worker {
	out := make([]Worker, 0, len(v.state.workers))
	for _, w := range v.state.workers {
		out = append(out, w)
	}
	return sortedByCreation(out, func(w Worker) time.Time { return w.CreatedAt }, func(w Worker) string { return w.ID })
}

// ListAttendanceRecords returns all attendance records in creation order.
func (v storeView) ListAttendanceRecords() []AttendanceRecord {
	out := make([]AttendanceRecord, 0, len(v.state.attendance))
	for _, a := range v.state.attendance {
		out = append(out, a)
	}
	return sortedByCreation(out, func(a AttendanceRecord) time.Time { return a.CreatedAt }, func(a AttendanceRecord) string { return a.ID })
}

// ListBudgetItems returns all budget lines in creation order.
func (v storeView) ListBudgetItems() []BudgetItem {
	out := make([]BudgetItem, 0, len(v.state.budgetItems))
	for _, b := range v.state.budgetItems {
		out = append(out, b)
	}
	return sortedByCreation(out, func(b BudgetItem) time.Time { return b.CreatedAt }, func(b BudgetItem) string { return b.ID })
}

// ListResources returns all resources in creation order.
func (v storeView) ListResources() []Resource {
	out := make([]Resource, 0, len(v.state.resources))
	for _, r := range v.state.resources {
		out = append(out, r)
	}
	return sortedByCreation(out, func(r Resource) time.Time { return r.CreatedAt }, func(r Resource) string { return r.ID })
}

// ListRiskActions returns all risk actions in creation order.
func (v storeView) ListRiskActions() []RiskAction {
	out := make([]RiskAction, 0, len(v.state.riskActions))
	for _, r := range v.state.riskActions {
		out = append(out, r)
	}
	return sortedByCreation(out, func(r RiskAction) time.Time { return r.CreatedAt }, func(r RiskAction) string { return r.ID })
}

// ListInspections returns all inspections in creation order.
func (v storeView) ListInspections() []Inspection {
	out := make([]Inspection, 0, len(v.state.inspections))
	for _, i := range v.state.inspections {
		out = append(out, i)
	}
	return sortedByCreation(out, func(i Inspection) time.Time { return i.CreatedAt }, func(i Inspection) string { return i.ID })
}

// FindProject retrieves a project by ID from the snapshot.
func (v storeView) FindProject(id string) (Project, bool) {
	p, ok := v.state.projects[id]
	return p, ok
}

// FindWorker retrieves a worker by ID from the snapshot.
func (v storeView) FindWorker(id string) (Worker, bool) {
	w, ok := v.state.workers[id]
	return w, ok
}

// FindAttendanceRecord retrieves an attendance record by ID from the snapshot.
func (v storeView) FindAttendanceRecord(id string) (AttendanceRecord, bool) {
	a, ok := v.state.attendance[id]
	return a, ok
}

// FindBudgetItem retrieves a budget line by ID from the snapshot.
func (v storeView) FindBudgetItem(id string) (BudgetItem, bool) {
	b, ok := v.state.budgetItems[id]
	return b, ok
}

// FindResource retrieves a resource by ID from the snapshot.
func (v storeView) FindResource(id string) (Resource, bool) {
	r, ok := v.state.resources[id]
	return r, ok
}

// FindRiskAction retrieves a risk action by ID from the snapshot.
func (v storeView) FindRiskAction(id string) (RiskAction, bool) {
	r, ok := v.state.riskActions[id]
	return r, ok
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Registered rules evaluate against the mutated snapshot; blocking violations
// abort the whole transaction, so no partial change set ever lands.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := storeView{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *MemoryStore) View(ctx context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(storeView{state: &snapshot})
}

// Changes returns the change log accumulated so far in the transaction.
func (tx *memTx) Changes() []Change {
	return append([]Change(nil), tx.changes...)
}

func (tx *memTx) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func requireField(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func validDate(date string) error {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: want %s", date, domain.DateLayout)
	}
	return nil
}

// CreateProject stores a new project within the transaction.
func (tx *memTx) CreateProject(p Project) (Project, error) {
	if err := requireField(p.Name, "project name"); err != nil {
		return Project{}, err
	}
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.projects[p.ID]; exists {
		return Project{}, fmt.Errorf("project %q already exists", p.ID)
	}
	if p.Status == "" {
		p.Status = domain.ProjectPlanned
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.projects[p.ID] = p
	tx.recordChange(Change{Entity: EntityProject, Action: ActionCreate, After: p})
	return p, nil
}

// UpdateProject mutates a project using the provided mutator function.
func (tx *memTx) UpdateProject(id string, mutator func(*Project) error) (Project, error) {
	current, ok := tx.state.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("project %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Project{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.projects[id] = current
	tx.recordChange(Change{Entity: EntityProject, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteProject removes a project from the transaction state.
func (tx *memTx) DeleteProject(id string) error {
	current, ok := tx.state.projects[id]
	if !ok {
		return fmt.Errorf("project %q not found", id)
	}
	delete(tx.state.projects, id)
	tx.recordChange(Change{Entity: EntityProject, Action: ActionDelete, Before: current})
	return nil
}

// CreateWorker stores a new worker.
func (tx *memTx) CreateWorker(w Worker) (Worker, error) {
	if err := requireField(w.Name, "worker name"); err != nil {
		return Worker{}, err
	}
	if w.ID == "" {
		w.ID = tx.store.newID()
	}
	if _, exists := tx.state.workers[w.ID]; exists {
		return Worker{}, fmt.Errorf("worker %q already exists", w.ID)
	}
	w.CreatedAt = tx.now
	w.UpdatedAt = tx.now
	tx.state.workers[w.ID] = w
	tx.recordChange(Change{Entity: EntityWorker, Action: ActionCreate, After: w})
	return w, nil
}

// UpdateWorker mutates a worker.
func (tx *memTx) UpdateWorker(id string, mutator func(*Worker) error) (Worker, error) {
	current, ok := tx.state.workers[id]
	if !ok {
		return Worker{}, fmt.Errorf("worker %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Worker{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.workers[id] = current
	tx.recordChange(Change{Entity: EntityWorker, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteWorker removes a worker record.
func (tx *memTx) DeleteWorker(id string) error {
	current, ok := tx.state.workers[id]
	if !ok {
		return fmt.Errorf("worker %q not found", id)
	}
	delete(tx.state.workers, id)
	tx.recordChange(Change{Entity: EntityWorker, Action: ActionDelete, Before: current})
	return nil
}

// CreateAttendanceRecord stores one worker's attendance outcome for a date.
func (tx *memTx) CreateAttendanceRecord(a AttendanceRecord) (AttendanceRecord, error) {
	if err := requireField(a.WorkerID, "attendance worker id"); err != nil {
		return AttendanceRecord{}, err
	}
	if err := validDate(a.Date); err != nil {
		return AttendanceRecord{}, err
	}
	if !a.Status.Valid() {
		return AttendanceRecord{}, fmt.Errorf("unknown attendance status %q", a.Status)
	}
	if _, ok := tx.state.workers[a.WorkerID]; !ok {
		return AttendanceRecord{}, fmt.Errorf("worker %q not found", a.WorkerID)
	}
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.attendance[a.ID]; exists {
		return AttendanceRecord{}, fmt.Errorf("attendance record %q already exists", a.ID)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.attendance[a.ID] = a
	tx.recordChange(Change{Entity: EntityAttendance, Action: ActionCreate, After: a})
	return a, nil
}

// UpdateAttendanceRecord mutates an attendance record.
func (tx *memTx) UpdateAttendanceRecord(id string, mutator func(*AttendanceRecord) error) (AttendanceRecord, error) {
	current, ok := tx.state.attendance[id]
	if !ok {
		return AttendanceRecord{}, fmt.Errorf("attendance record %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return AttendanceRecord{}, err
	}
	if !current.Status.Valid() {
		return AttendanceRecord{}, fmt.Errorf("unknown attendance status %q", current.Status)
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.attendance[id] = current
	tx.recordChange(Change{Entity: EntityAttendance, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteAttendanceRecord removes an attendance record.
func (tx *memTx) DeleteAttendanceRecord(id string) error {
	current, ok := tx.state.attendance[id]
	if !ok {
		return fmt.Errorf("attendance record %q not found", id)
	}
	delete(tx.state.attendance, id)
	tx.recordChange(Change{Entity: EntityAttendance, Action: ActionDelete, Before: current})
	return nil
}

// CreateBudgetItem stores a new budget (RAB) line.
func (tx *memTx) CreateBudgetItem(b BudgetItem) (BudgetItem, error) {
	if err := requireField(b.ProjectID, "budget item project id"); err != nil {
		return BudgetItem{}, err
	}
	if _, ok := tx.state.projects[b.ProjectID]; !ok {
		return BudgetItem{}, fmt.Errorf("project %q not found", b.ProjectID)
	}
	if b.ID == "" {
		b.ID = tx.store.newID()
	}
	if _, exists := tx.state.budgetItems[b.ID]; exists {
		return BudgetItem{}, fmt.Errorf("budget item %q already exists", b.ID)
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.budgetItems[b.ID] = b
	tx.recordChange(Change{Entity: EntityBudgetItem, Action: ActionCreate, After: b})
	return b, nil
}

// UpdateBudgetItem mutates a budget line.
func (tx *memTx) UpdateBudgetItem(id string, mutator func(*BudgetItem) error) (BudgetItem, error) {
	current, ok := tx.state.budgetItems[id]
	if !ok {
		return BudgetItem{}, fmt.Errorf("budget item %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return BudgetItem{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.budgetItems[id] = current
	tx.recordChange(Change{Entity: EntityBudgetItem, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteBudgetItem removes a budget line.
func (tx *memTx) DeleteBudgetItem(id string) error {
	current, ok := tx.state.budgetItems[id]
	if !ok {
		return fmt.Errorf("budget item %q not found", id)
	}
	delete(tx.state.budgetItems, id)
	tx.recordChange(Change{Entity: EntityBudgetItem, Action: ActionDelete, Before: current})
	return nil
}

// CreateResource stores a new resource.
func (tx *memTx) CreateResource(r Resource) (Resource, error) {
	if err := requireField(r.Name, "resource name"); err != nil {
		return Resource{}, err
	}
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.resources[r.ID]; exists {
		return Resource{}, fmt.Errorf("resource %q already exists", r.ID)
	}
	if r.Status == "" {
		r.Status = domain.ResourceAvailable
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.resources[r.ID] = r
	tx.recordChange(Change{Entity: EntityResource, Action: ActionCreate, After: r})
	return r, nil
}

// UpdateResource mutates a resource.
func (tx *memTx) UpdateResource(id string, mutator func(*Resource) error) (Resource, error) {
	current, ok := tx.state.resources[id]
	if !ok {
		return Resource{}, fmt.Errorf("resource %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Resource{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.resources[id] = current
	tx.recordChange(Change{Entity: EntityResource, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteResource removes a resource record.
func (tx *memTx) DeleteResource(id string) error {
	current, ok := tx.state.resources[id]
	if !ok {
		return fmt.Errorf("resource %q not found", id)
	}
	delete(tx.state.resources, id)
	tx.recordChange(Change{Entity: EntityResource, Action: ActionDelete, Before: current})
	return nil
}

// CreateRiskAction stores a new risk mitigation action.
func (tx *memTx) CreateRiskAction(r RiskAction) (RiskAction, error) {
	if err := requireField(r.Description, "risk action description"); err != nil {
		return RiskAction{}, err
	}
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.riskActions[r.ID]; exists {
		return RiskAction{}, fmt.Errorf("risk action %q already exists", r.ID)
	}
	if r.Status == "" {
		r.Status = domain.WorkPending
	}
	if !r.Status.Valid() {
		return RiskAction{}, fmt.Errorf("unknown work status %q", r.Status)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.riskActions[r.ID] = r
	tx.recordChange(Change{Entity: EntityRiskAction, Action: ActionCreate, After: r})
	return r, nil
}

// UpdateRiskAction mutates a risk action.
func (tx *memTx) UpdateRiskAction(id string, mutator func(*RiskAction) error) (RiskAction, error) {
	current, ok := tx.state.riskActions[id]
	if !ok {
		return RiskAction{}, fmt.Errorf("risk action %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return RiskAction{}, err
	}
	if !current.Status.Valid() {
		return RiskAction{}, fmt.Errorf("unknown work status %q", current.Status)
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.riskActions[id] = current
	tx.recordChange(Change{Entity: EntityRiskAction, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteRiskAction removes a risk action record.
func (tx *memTx) DeleteRiskAction(id string) error {
	current, ok := tx.state.riskActions[id]
	if !ok {
		return fmt.Errorf("risk action %q not found", id)
	}
	delete(tx.state.riskActions, id)
	tx.recordChange(Change{Entity: EntityRiskAction, Action: ActionDelete, Before: current})
	return nil
}

// CreateInspection stores a new quality inspection.
func (tx *memTx) CreateInspection(i Inspection) (Inspection, error) {
	if err := requireField(i.Item, "inspection item"); err != nil {
		return Inspection{}, err
	}
	if i.ID == "" {
		i.ID = tx.store.newID()
	}
	if _, exists := tx.state.inspections[i.ID]; exists {
		return Inspection{}, fmt.Errorf("inspection %q already exists", i.ID)
	}
	if i.Status == "" {
		i.Status = domain.InspectionPending
	}
	i.CreatedAt = tx.now
	i.UpdatedAt = tx.now
	tx.state.inspections[i.ID] = i
	tx.recordChange(Change{Entity: EntityInspection, Action: ActionCreate, After: i})
	return i, nil
}

// UpdateInspection mutates an inspection.
func (tx *memTx) UpdateInspection(id string, mutator func(*Inspection) error) (Inspection, error) {
	current, ok := tx.state.inspections[id]
	if !ok {
		return Inspection{}, fmt.Errorf("inspection %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Inspection{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.inspections[id] = current
	tx.recordChange(Change{Entity: EntityInspection, Action: ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteInspection removes an inspection record.
func (tx *memTx) DeleteInspection(id string) error {
	current, ok := tx.state.inspections[id]
	if !ok {
		return fmt.Errorf("inspection %q not found", id)
	}
	delete(tx.state.inspections, id)
	tx.recordChange(Change{Entity: EntityInspection, Action: ActionDelete, Before: current})
	return nil
}

// CreateJournalEntry stores a new site journal entry.
func (tx *memTx) CreateJournalEntry(e JournalEntry) (JournalEntry, error) {
	if err := validDate(e.Date); err != nil {
		return JournalEntry{}, err
	}
	if e.ID == "" {
		e.ID = tx.store.newID()
	}
	if _, exists := tx.state.journal[e.ID]; exists {
		return JournalEntry{}, fmt.Errorf("journal entry %q already exists", e.ID)
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	tx.state.journal[e.ID] = cloneJournalEntry(e)
	tx.recordChange(Change{Entity: EntityJournalEntry, Action: ActionCreate, After: cloneJournalEntry(e)})
	return e, nil
}

// UpdateJournalEntry mutates a journal entry.
func (tx *memTx) UpdateJournalEntry(id string, mutator func(*JournalEntry) error) (JournalEntry, error) {
	current, ok := tx.state.journal[id]
	if !ok {
		return JournalEntry{}, fmt.Errorf("journal entry %q not found", id)
	}
	before := cloneJournalEntry(current)
	if err := mutator(&current); err != nil {
		return JournalEntry{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.journal[id] = cloneJournalEntry(current)
	tx.recordChange(Change{Entity: EntityJournalEntry, Action: ActionUpdate, Before: before, After: cloneJournalEntry(current)})
	return current, nil
}

// DeleteJournalEntry removes a journal entry.
func (tx *memTx) DeleteJournalEntry(id string) error {
	current, ok := tx.state.journal[id]
	if !ok {
		return fmt.Errorf("journal entry %q not found", id)
	}
	delete(tx.state.journal, id)
	tx.recordChange(Change{Entity: EntityJournalEntry, Action: ActionDelete, Before: cloneJournalEntry(current)})
	return nil
}

// CreateDocument stores a document reference. The blob payload is managed by
// the blob store; only the key travels through the transaction.
func (tx *memTx) CreateDocument(d Document) (Document, error) {
	if err := requireField(d.Name, "document name"); err != nil {
		return Document{}, err
	}
	if err := requireField(d.BlobKey, "document blob key"); err != nil {
		return Document{}, err
	}
	if d.ID == "" {
		d.ID = tx.store.newID()
	}
	if _, exists := tx.state.documents[d.ID]; exists {
		return Document{}, fmt.Errorf("document %q already exists", d.ID)
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.documents[d.ID] = d
	tx.recordChange(Change{Entity: EntityDocument, Action: ActionCreate, After: d})
	return d, nil
}

// DeleteDocument removes a document reference.
func (tx *memTx) DeleteDocument(id string) error {
	current, ok := tx.state.documents[id]
	if !ok {
		return fmt.Errorf("document %q not found", id)
	}
	delete(tx.state.documents, id)
	tx.recordChange(Change{Entity: EntityDocument, Action: ActionDelete, Before: current})
	return nil
}

// CreateChatMessage stores a chat message.
func (tx *memTx) CreateChatMessage(m ChatMessage) (ChatMessage, error) {
	if err := requireField(m.Author, "chat author"); err != nil {
		return ChatMessage{}, err
	}
	if err := requireField(m.Body, "chat body"); err != nil {
		return ChatMessage{}, err
	}
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.chat[m.ID]; exists {
		return ChatMessage{}, fmt.Errorf("chat message %q already exists", m.ID)
	}
	if m.SentAt.IsZero() {
		m.SentAt = tx.now
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.chat[m.ID] = m
	tx.recordChange(Change{Entity: EntityChatMessage, Action: ActionCreate, After: m})
	return m, nil
}

// FindProject retrieves a project from the transactional state.
func (tx *memTx) FindProject(id string) (Project, bool) {
	p, ok := tx.state.projects[id]
	return p, ok
}

// FindWorker retrieves a worker from the transactional state.
func (tx *memTx) FindWorker(id string) (Worker, bool) {
	w, ok := tx.state.workers[id]
	return w, ok
}

// GetProject returns a project from committed state.
func (s *MemoryStore) GetProject(id string) (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.projects[id]
	return p, ok
}

// GetWorker returns a worker from committed state.
func (s *MemoryStore) GetWorker(id string) (Worker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.state.workers[id]
	return w, ok
}

// ListProjects returns committed projects in creation order.
func (s *MemoryStore) ListProjects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeView{state: &s.state}.ListProjects()
}

// ListWorkers returns committed workers in creation order.
func (s *MemoryStore) ListWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeView{state: &s.state}.ListWorkers()
}

// ListAttendanceRecords returns committed attendance records in creation order.
func (s *MemoryStore) ListAttendanceRecords() []AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeView{state: &s.state}.ListAttendanceRecords()
}

// ListBudgetItems returns committed budget lines in creation order.
func (s *MemoryStore) ListBudgetItems() []BudgetItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeView{state: &s.state}.ListBudgetItems()
}

// ListResources returns committed resources in creation order.
func (s *MemoryStore) ListResources() []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeView{state: &s.state}.ListResources()
}

// ListRiskActions returns committed risk actions in creation order.
func (s *MemoryStore) ListRiskActions() []RiskAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeView{state: &s.state}.ListRiskActions()
}

// ListInspections returns committed inspections in creation order.
func (s *MemoryStore) ListInspections() []Inspection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeView{state: &s.state}.ListInspections()
}

// ListJournalEntries returns committed journal entries in creation order.
func (s *MemoryStore) ListJournalEntries() []JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JournalEntry, 0, len(s.state.journal))
	for _, e := range s.state.journal {
		out = append(out, cloneJournalEntry(e))
	}
	return sortedByCreation(out, func(e JournalEntry) time.Time { return e.CreatedAt }, func(e JournalEntry) string { return e.ID })
}

// ListDocuments returns committed documents in creation order.
func (s *MemoryStore) ListDocuments() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.state.documents))
	for _, d := range s.state.documents {
		out = append(out, d)
	}
	return sortedByCreation(out, func(d Document) time.Time { return d.CreatedAt }, func(d Document) string { return d.ID })
}

// ListChatMessages returns committed chat messages ordered by send time.
func (s *MemoryStore) ListChatMessages() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatMessage, 0, len(s.state.chat))
	for _, m := range s.state.chat {
		out = append(out, m)
	}
	return sortedByCreation(out, func(m ChatMessage) time.Time { return m.SentAt }, func(m ChatMessage) string { return m.ID })
}
