package core

import "context"

// StoreAPI is the persistence gateway. Every core operation runs inside exactly one InTx call:
// the unit of work commits when fn returns nil and rolls back otherwise.
type StoreAPI interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
}

// Tx is the view of the gateway available inside a unit of work. Loads return
// ErrRecordNotFound for missing rows; updates return ErrStaleVersion when the stored version
// no longer matches the loaded one.
type Tx interface {
	LoadEmployee(ctx context.Context, id string) (*Employee, error)
	LoadProject(ctx context.Context, id int64) (*Project, error)
	ListEmployees(ctx context.Context, state State) ([]Employee, error)
	ListProjects(ctx context.Context, state State) ([]Project, error)

	SaveEmployee(ctx context.Context, emp *Employee) error
	SaveProject(ctx context.Context, project *Project) error
	UpdateEmployee(ctx context.Context, emp *Employee) error
	UpdateProject(ctx context.Context, project *Project) error

	AddAssignments(ctx context.Context, edges []Assignment) error
	RemoveAssignment(ctx context.Context, edge Assignment) (bool, error)
	ClearProjectAssignments(ctx context.Context, projectID int64) error
}
