package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"workforce/internal/domain/audit"
	"workforce/internal/domain/core"
	"workforce/internal/platform/logging"
	"workforce/internal/platform/metrics"
)

const entityType = "employee"

// Service manages the employee lifecycle and the employee's address collection. Every method
// runs as one unit of work on the injected store.
type Service struct {
	store   core.StoreAPI
	audit   audit.Recorder
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewService(store core.StoreAPI, recorder audit.Recorder, collector *metrics.Collector, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, audit: recorder, metrics: collector, logger: logger}
}

func (s *Service) Create(ctx context.Context, in core.NewEmployee) (*core.Employee, error) {
	const op = "employee.create"
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if err := core.ValidateStruct(in); err != nil {
		return nil, s.done(ctx, op, in.ID, err)
	}
	dob, err := core.ParseDate("dateOfBirth", in.DateOfBirth)
	if err != nil {
		return nil, s.done(ctx, op, in.ID, err)
	}
	if err := core.ValidateEmail(in.Email); err != nil {
		return nil, s.done(ctx, op, in.ID, err)
	}
	if err := core.ValidateSalary(in.Salary); err != nil {
		return nil, s.done(ctx, op, in.ID, err)
	}

	emp := &core.Employee{
		ID:          in.ID,
		Name:        in.Name,
		DateOfBirth: dob,
		Email:       strings.TrimSpace(in.Email),
		Salary:      in.Salary,
		Addresses:   make([]core.Address, 0, len(in.Addresses)),
	}
	for _, fields := range in.Addresses {
		emp.Addresses = append(emp.Addresses, fields.ToAddress(emp.ID))
	}
	if emp.PermanentCount() > 1 {
		return nil, s.done(ctx, op, in.ID, core.Invalid("addresses", "at most one address can be permanent"))
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		_, err := tx.LoadEmployee(ctx, emp.ID)
		switch {
		case err == nil:
			return core.Invalid("id", fmt.Sprintf("employee %s already exists", emp.ID))
		case !errors.Is(err, core.ErrRecordNotFound):
			return err
		}
		return tx.SaveEmployee(ctx, emp)
	})
	if err != nil {
		return nil, s.done(ctx, op, emp.ID, core.Translate(op, core.KindEmployee, emp.ID, err))
	}
	s.record(ctx, audit.ActionCreate, emp.ID, nil, emp.Summary())
	return emp, s.done(ctx, op, emp.ID, nil)
}

// UpdateDetails applies the non-nil fields of patch. Supplied values are validated before the
// employee is touched.
func (s *Service) UpdateDetails(ctx context.Context, id string, patch core.EmployeePatch) (*core.Employee, error) {
	const op = "employee.update"
	var changed []string

	// A blank name keeps the stored one.
	var name string
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
	}
	if name != "" {
		changed = append(changed, "name")
	}
	var dob time.Time
	if patch.DateOfBirth != nil {
		parsed, err := core.ParseDate("dateOfBirth", *patch.DateOfBirth)
		if err != nil {
			return nil, s.done(ctx, op, id, err)
		}
		dob = parsed
		changed = append(changed, "dateOfBirth")
	}
	if patch.Email != nil {
		if err := core.ValidateEmail(*patch.Email); err != nil {
			return nil, s.done(ctx, op, id, err)
		}
		changed = append(changed, "email")
	}
	if patch.Salary != nil {
		if err := core.ValidateSalary(*patch.Salary); err != nil {
			return nil, s.done(ctx, op, id, err)
		}
		changed = append(changed, "salary")
	}

	var emp *core.Employee
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		emp, err = tx.LoadEmployee(ctx, id)
		if err != nil {
			return err
		}
		if name != "" {
			emp.Name = name
		}
		if patch.DateOfBirth != nil {
			emp.DateOfBirth = dob
		}
		if patch.Email != nil {
			emp.Email = strings.TrimSpace(*patch.Email)
		}
		if patch.Salary != nil {
			emp.Salary = *patch.Salary
		}
		return tx.UpdateEmployee(ctx, emp)
	})
	if err != nil {
		return nil, s.done(ctx, op, id, core.Translate(op, core.KindEmployee, id, err))
	}
	s.record(ctx, audit.ActionUpdate, id, nil, map[string]any{"fields": changed})
	return emp, s.done(ctx, op, id, nil)
}

// SoftDelete flags the employee as deleted. Assignment edges are kept; readers filter deleted
// employees out of project rosters. Deleting an already deleted employee is a no-op.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	return s.setDeleted(ctx, "employee.soft_delete", audit.ActionDelete, id, true)
}

func (s *Service) Restore(ctx context.Context, id string) error {
	return s.setDeleted(ctx, "employee.restore", audit.ActionRestore, id, false)
}

func (s *Service) setDeleted(ctx context.Context, op, action, id string, deleted bool) error {
	var before core.EmployeeSummary
	var changed bool
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		emp, err := tx.LoadEmployee(ctx, id)
		if err != nil {
			return err
		}
		before = emp.Summary()
		if emp.IsDeleted == deleted {
			return nil
		}
		emp.IsDeleted = deleted
		changed = true
		return tx.UpdateEmployee(ctx, emp)
	})
	if err != nil {
		return s.done(ctx, op, id, core.Translate(op, core.KindEmployee, id, err))
	}
	if changed {
		after := before
		after.IsDeleted = deleted
		s.record(ctx, action, id, before, after)
	}
	return s.done(ctx, op, id, nil)
}

func (s *Service) Get(ctx context.Context, id string) (*core.Employee, error) {
	const op = "employee.get"
	var emp *core.Employee
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		emp, err = tx.LoadEmployee(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.readErr(ctx, op, id, err)
	}
	return emp, nil
}

// List returns employees in the given state ordered by id.
func (s *Service) List(ctx context.Context, state core.State) ([]core.Employee, error) {
	const op = "employee.list"
	var out []core.Employee
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		out, err = tx.ListEmployees(ctx, state)
		return err
	})
	if err != nil {
		return nil, s.readErr(ctx, op, "", err)
	}
	if out == nil {
		out = []core.Employee{}
	}
	return out, nil
}

// CheckID reports whether id names an employee in the given state. A missing id is not an
// error.
func (s *Service) CheckID(ctx context.Context, id string, state core.State) (bool, error) {
	emp, err := s.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return state.Matches(emp.IsDeleted), nil
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.CheckID(ctx, id, core.StateAny)
}

func (s *Service) done(ctx context.Context, op, id string, err error) error {
	s.metrics.Operation(op, core.Outcome(err))
	log := logging.For(ctx, s.logger)
	switch {
	case err == nil:
		log.Info(op, zap.String("employeeId", id))
	case errors.Is(err, core.ErrPersistence):
		log.Error(op+" failed", zap.String("employeeId", id), zap.Error(err))
	default:
		log.Debug(op+" rejected", zap.String("employeeId", id), zap.Error(err))
	}
	return err
}

func (s *Service) readErr(ctx context.Context, op, id string, err error) error {
	err = core.Translate(op, core.KindEmployee, id, err)
	if errors.Is(err, core.ErrPersistence) {
		logging.For(ctx, s.logger).Error(op+" failed", zap.String("employeeId", id), zap.Error(err))
	}
	return err
}

func (s *Service) record(ctx context.Context, action, id string, before, after any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entityType, id, before, after); err != nil {
		logging.For(ctx, s.logger).Warn("audit record failed", zap.String("employeeId", id), zap.String("action", action), zap.Error(err))
	}
}
