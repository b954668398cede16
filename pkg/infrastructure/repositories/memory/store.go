package memory

import (
	"context"
	"sync"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// table keeps rows in insertion order with an id index
type table[T any] struct {
	rows  []T
	index map[string]int
}

func newTable[T any](expected int) table[T] {
	return table[T]{
		rows:  make([]T, 0, expected),
		index: make(map[string]int, expected),
	}
}

func (t *table[T]) get(id string) (T, bool) {
	i, ok := t.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.rows[i], true
}

// put replaces an existing row in place or appends a new one
func (t *table[T]) put(id string, row T) {
	if i, ok := t.index[id]; ok {
		t.rows[i] = row
		return
	}
	t.index[id] = len(t.rows)
	t.rows = append(t.rows, row)
}

func (t *table[T]) remove(keep func(T) bool, idOf func(T) string) {
	rows := t.rows[:0]
	for _, r := range t.rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	t.rows = rows
	t.index = make(map[string]int, len(rows))
	for i, r := range rows {
		t.index[idOf(r)] = i
	}
}

func (t table[T]) clone(cloneRow func(T) T) table[T] {
	c := newTable[T](len(t.rows))
	for _, r := range t.rows {
		c.rows = append(c.rows, cloneRow(r))
	}
	for k, v := range t.index {
		c.index[k] = v
	}
	return c
}

type state struct {
	periods     table[entities.Period]
	employees   table[entities.Employee]
	initiatives table[entities.Initiative]
	scenarios   table[entities.Scenario]
	allocations table[entities.Allocation]
	alerts      table[entities.DriftAlert]
	snapshots   map[string]entities.BaselineSnapshot
	thresholds  *entities.DriftThresholds
}

func newState() *state {
	return &state{
		periods:     newTable[entities.Period](16),
		employees:   newTable[entities.Employee](64),
		initiatives: newTable[entities.Initiative](32),
		scenarios:   newTable[entities.Scenario](8),
		allocations: newTable[entities.Allocation](128),
		alerts:      newTable[entities.DriftAlert](8),
		snapshots:   make(map[string]entities.BaselineSnapshot),
	}
}

func (st *state) clone() *state {
	c := &state{
		periods:     st.periods.clone(func(p entities.Period) entities.Period { return p }),
		employees:   st.employees.clone(entities.Employee.Clone),
		initiatives: st.initiatives.clone(entities.Initiative.Clone),
		scenarios:   st.scenarios.clone(entities.Scenario.Clone),
		allocations: st.allocations.clone(entities.Allocation.Clone),
		alerts:      st.alerts.clone(func(a entities.DriftAlert) entities.DriftAlert { return a }),
		snapshots:   make(map[string]entities.BaselineSnapshot, len(st.snapshots)),
	}
	for k, v := range st.snapshots {
		c.snapshots[k] = v.Clone()
	}
	if st.thresholds != nil {
		t := st.thresholds.Clone()
		c.thresholds = &t
	}
	return c
}

// Store is an in-memory transactional entity store. Reads return copies,
// so callers can never mutate stored rows in place.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{data: newState()}
}

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// write serializes with transactions so a commit cannot overwrite a
// concurrent direct write.
func (s *Store) write(fn func(st *state) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// WithinTx runs fn against a private copy of the data and publishes the copy
// only when fn succeeds. Writes through the outer store from inside fn deadlock.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	tx := &Store{data: working}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = tx.data
	s.mu.Unlock()
	return nil
}

func (s *Store) Periods() repositories.PeriodRepository         { return &PeriodRepository{store: s} }
func (s *Store) Employees() repositories.EmployeeRepository     { return &EmployeeRepository{store: s} }
func (s *Store) Initiatives() repositories.InitiativeRepository { return &InitiativeRepository{store: s} }
func (s *Store) Scenarios() repositories.ScenarioRepository     { return &ScenarioRepository{store: s} }
func (s *Store) Allocations() repositories.AllocationRepository { return &AllocationRepository{store: s} }
func (s *Store) Snapshots() repositories.SnapshotRepository     { return &SnapshotRepository{store: s} }
func (s *Store) Alerts() repositories.DriftAlertRepository      { return &DriftAlertRepository{store: s} }
func (s *Store) Thresholds() repositories.ThresholdRepository   { return &ThresholdRepository{store: s} }
