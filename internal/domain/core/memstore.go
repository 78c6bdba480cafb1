package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory StoreAPI. Each unit of work runs against a private clone of the
// state which replaces the committed state only when fn succeeds, so a failed operation leaves
// no partial writes behind.
type MemStore struct {
	mu     sync.Mutex
	state  memState
	faults map[string]error
	now    func() time.Time
}

type memState struct {
	employees     map[string]Employee
	projects      map[int64]Project
	edges         map[Assignment]struct{}
	nextAddressID int64
	nextProjectID int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		state: memState{
			employees: make(map[string]Employee),
			projects:  make(map[int64]Project),
			edges:     make(map[Assignment]struct{}),
		},
		faults: make(map[string]error),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FailOn makes every later call of the named Tx method (for example "UpdateEmployee") return
// err. A nil err clears the fault.
func (s *MemStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *MemStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults["Ping"]
}

func (s *MemStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, state: s.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := s.faults["Commit"]; err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (st memState) clone() memState {
	out := memState{
		employees:     make(map[string]Employee, len(st.employees)),
		projects:      make(map[int64]Project, len(st.projects)),
		edges:         make(map[Assignment]struct{}, len(st.edges)),
		nextAddressID: st.nextAddressID,
		nextProjectID: st.nextProjectID,
	}
	for k, v := range st.employees {
		out.employees[k] = cloneEmployee(v)
	}
	for k, v := range st.projects {
		out.projects[k] = v
	}
	for k := range st.edges {
		out.edges[k] = struct{}{}
	}
	return out
}

func cloneEmployee(e Employee) Employee {
	e.Addresses = append([]Address(nil), e.Addresses...)
	e.ProjectIDs = append([]int64(nil), e.ProjectIDs...)
	return e
}

type memTx struct {
	store *MemStore
	state memState
}

func (t *memTx) fault(op string) error {
	return t.store.faults[op]
}

func (t *memTx) withEmployeeEdges(e Employee) Employee {
	e = cloneEmployee(e)
	e.ProjectIDs = []int64{}
	for edge := range t.state.edges {
		if edge.EmployeeID == e.ID {
			e.ProjectIDs = append(e.ProjectIDs, edge.ProjectID)
		}
	}
	sort.Slice(e.ProjectIDs, func(i, j int) bool { return e.ProjectIDs[i] < e.ProjectIDs[j] })
	if e.Addresses == nil {
		e.Addresses = []Address{}
	}
	return e
}

func (t *memTx) withProjectEdges(p Project) Project {
	p.AssignedEmployeeIDs = []string{}
	for edge := range t.state.edges {
		if edge.ProjectID == p.ID {
			p.AssignedEmployeeIDs = append(p.AssignedEmployeeIDs, edge.EmployeeID)
		}
	}
	sort.Strings(p.AssignedEmployeeIDs)
	return p
}

func (t *memTx) LoadEmployee(_ context.Context, id string) (*Employee, error) {
	if err := t.fault("LoadEmployee"); err != nil {
		return nil, err
	}
	e, ok := t.state.employees[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := t.withEmployeeEdges(e)
	return &out, nil
}

func (t *memTx) LoadProject(_ context.Context, id int64) (*Project, error) {
	if err := t.fault("LoadProject"); err != nil {
		return nil, err
	}
	p, ok := t.state.projects[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := t.withProjectEdges(p)
	return &out, nil
}

func (t *memTx) ListEmployees(_ context.Context, state State) ([]Employee, error) {
	if err := t.fault("ListEmployees"); err != nil {
		return nil, err
	}
	var out []Employee
	for _, e := range t.state.employees {
		if state.Matches(e.IsDeleted) {
			out = append(out, t.withEmployeeEdges(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) ListProjects(_ context.Context, state State) ([]Project, error) {
	if err := t.fault("ListProjects"); err != nil {
		return nil, err
	}
	var out []Project
	for _, p := range t.state.projects {
		if state.Matches(p.IsDeleted) {
			out = append(out, t.withProjectEdges(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) SaveEmployee(_ context.Context, emp *Employee) error {
	if err := t.fault("SaveEmployee"); err != nil {
		return err
	}
	if _, exists := t.state.employees[emp.ID]; exists {
		return fmt.Errorf("%w: employees_pkey", ErrDuplicateKey)
	}
	for i := range emp.Addresses {
		t.state.nextAddressID++
		emp.Addresses[i].ID = t.state.nextAddressID
		emp.Addresses[i].EmployeeID = emp.ID
	}
	now := t.store.now()
	emp.Version = 1
	emp.CreatedAt, emp.UpdatedAt = now, now
	emp.ProjectIDs = []int64{}
	t.state.employees[emp.ID] = cloneEmployee(*emp)
	return nil
}

func (t *memTx) SaveProject(_ context.Context, p *Project) error {
	if err := t.fault("SaveProject"); err != nil {
		return err
	}
	t.state.nextProjectID++
	now := t.store.now()
	p.ID = t.state.nextProjectID
	p.Version = 1
	p.CreatedAt, p.UpdatedAt = now, now
	p.AssignedEmployeeIDs = []string{}
	stored := *p
	stored.AssignedEmployeeIDs = nil
	t.state.projects[p.ID] = stored
	return nil
}

func (t *memTx) UpdateEmployee(_ context.Context, emp *Employee) error {
	if err := t.fault("UpdateEmployee"); err != nil {
		return err
	}
	current, ok := t.state.employees[emp.ID]
	if !ok || current.Version != emp.Version {
		return ErrStaleVersion
	}
	for i := range emp.Addresses {
		emp.Addresses[i].EmployeeID = emp.ID
		if emp.Addresses[i].ID == 0 {
			t.state.nextAddressID++
			emp.Addresses[i].ID = t.state.nextAddressID
		}
	}
	emp.Version++
	emp.CreatedAt = current.CreatedAt
	emp.UpdatedAt = t.store.now()
	stored := cloneEmployee(*emp)
	stored.ProjectIDs = nil
	t.state.employees[emp.ID] = stored
	return nil
}

func (t *memTx) UpdateProject(_ context.Context, p *Project) error {
	if err := t.fault("UpdateProject"); err != nil {
		return err
	}
	current, ok := t.state.projects[p.ID]
	if !ok || current.Version != p.Version {
		return ErrStaleVersion
	}
	p.Version++
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = t.store.now()
	stored := *p
	stored.AssignedEmployeeIDs = nil
	t.state.projects[p.ID] = stored
	return nil
}

func (t *memTx) AddAssignments(_ context.Context, edges []Assignment) error {
	if err := t.fault("AddAssignments"); err != nil {
		return err
	}
	for _, edge := range edges {
		if _, ok := t.state.projects[edge.ProjectID]; !ok {
			return fmt.Errorf("assignment references missing project %d", edge.ProjectID)
		}
		if _, ok := t.state.employees[edge.EmployeeID]; !ok {
			return fmt.Errorf("assignment references missing employee %s", edge.EmployeeID)
		}
		t.state.edges[edge] = struct{}{}
	}
	return nil
}

func (t *memTx) RemoveAssignment(_ context.Context, edge Assignment) (bool, error) {
	if err := t.fault("RemoveAssignment"); err != nil {
		return false, err
	}
	if _, ok := t.state.edges[edge]; !ok {
		return false, nil
	}
	delete(t.state.edges, edge)
	return true, nil
}

func (t *memTx) ClearProjectAssignments(_ context.Context, projectID int64) error {
	if err := t.fault("ClearProjectAssignments"); err != nil {
		return err
	}
	for edge := range t.state.edges {
		if edge.ProjectID == projectID {
			delete(t.state.edges, edge)
		}
	}
	return nil
}
