package assignment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"workforce/internal/domain/audit"
	"workforce/internal/domain/core"
	"workforce/internal/platform/logging"
	"workforce/internal/platform/metrics"
)

// Service owns the employee/project relation. Edges are only created between two active
// entities; each mutation also bumps the version of the aggregate it was issued against so
// concurrent batches on the same project or employee conflict instead of interleaving.
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

// AssignableEmployees lists every employee, active or deleted, not yet assigned to the project.
func (s *Service) AssignableEmployees(ctx context.Context, projectID int64) ([]core.EmployeeSummary, error) {
	const op = "assignment.assignable_employees"
	out := []core.EmployeeSummary{}
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		p, err := tx.LoadProject(ctx, projectID)
		if err != nil {
			return err
		}
		employees, err := tx.ListEmployees(ctx, core.StateAny)
		if err != nil {
			return err
		}
		for _, emp := range employees {
			if !p.HasEmployee(emp.ID) {
				out = append(out, emp.Summary())
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.readErr(ctx, op, core.KindProject, idString(projectID), err)
	}
	return out, nil
}

// AssignEmployees adds the requested employees to the project as one unit of work. Ids that are
// unknown, soft-deleted or already assigned come back as unassignable. If the write fails every
// requested id is reported unassignable and the error is returned alongside the result.
func (s *Service) AssignEmployees(ctx context.Context, projectID int64, employeeIDs []string) (core.AssignmentResult, error) {
	const op = "assignment.assign_employees"
	result := core.AssignmentResult{Requested: dedupeStrings(employeeIDs), Unassignable: []string{}}
	var eligible []string

	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		eligible = nil
		p, err := tx.LoadProject(ctx, projectID)
		if err != nil {
			return err
		}
		if p.IsDeleted {
			return nil
		}
		for _, id := range result.Requested {
			if p.HasEmployee(id) {
				continue
			}
			emp, err := tx.LoadEmployee(ctx, id)
			if errors.Is(err, core.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !emp.IsDeleted {
				eligible = append(eligible, id)
			}
		}
		if len(eligible) == 0 {
			return nil
		}
		edges := make([]core.Assignment, 0, len(eligible))
		for _, id := range eligible {
			edges = append(edges, core.Assignment{ProjectID: projectID, EmployeeID: id})
		}
		if err := tx.AddAssignments(ctx, edges); err != nil {
			return err
		}
		return tx.UpdateProject(ctx, p)
	})
	if err != nil {
		eligible = nil
	}
	result.Unassignable = exceptStrings(result.Requested, eligible)
	s.metrics.Assignment(result.Assigned(), len(result.Unassignable))
	if err != nil {
		return result, s.done(ctx, op, zap.Int64("projectId", projectID), core.Translate(op, core.KindProject, idString(projectID), err))
	}
	if len(eligible) > 0 {
		s.record(ctx, audit.ActionAssign, core.KindProject, idString(projectID), map[string]any{"employees": eligible})
	}
	return result, s.done(ctx, op, zap.Int64("projectId", projectID), nil)
}

// UnassignEmployee removes the edge between the employee and the project. It reports false when
// no such edge exists, and true only once the removal is committed.
func (s *Service) UnassignEmployee(ctx context.Context, employeeID string, projectID int64) (bool, error) {
	const op = "assignment.unassign_employee"
	var removed bool
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		p, err := tx.LoadProject(ctx, projectID)
		if err != nil {
			return err
		}
		removed, err = tx.RemoveAssignment(ctx, core.Assignment{ProjectID: projectID, EmployeeID: employeeID})
		if err != nil || !removed {
			return err
		}
		return tx.UpdateProject(ctx, p)
	})
	if err != nil {
		return false, s.done(ctx, op, zap.Int64("projectId", projectID), core.Translate(op, core.KindProject, idString(projectID), err))
	}
	if removed {
		s.record(ctx, audit.ActionUnassign, core.KindProject, idString(projectID), map[string]any{"employee": employeeID})
	}
	return removed, s.done(ctx, op, zap.Int64("projectId", projectID), nil)
}

// AssignableProjects lists the active projects the employee is not yet assigned to. Deleted
// projects are left out since they cannot take new assignments.
func (s *Service) AssignableProjects(ctx context.Context, employeeID string) ([]core.ProjectSummary, error) {
	const op = "assignment.assignable_projects"
	out := []core.ProjectSummary{}
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		emp, err := tx.LoadEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		projects, err := tx.ListProjects(ctx, core.StateActive)
		if err != nil {
			return err
		}
		for _, p := range projects {
			if !emp.HasProject(p.ID) {
				out = append(out, p.Summary())
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.readErr(ctx, op, core.KindEmployee, employeeID, err)
	}
	return out, nil
}

// AssignProjects is AssignEmployees from the employee side. A soft-deleted employee rejects the
// whole batch.
func (s *Service) AssignProjects(ctx context.Context, employeeID string, projectIDs []int64) (core.ProjectAssignmentResult, error) {
	const op = "assignment.assign_projects"
	result := core.ProjectAssignmentResult{Requested: dedupeInt64s(projectIDs), Unassignable: []int64{}}
	var eligible []int64

	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		eligible = nil
		emp, err := tx.LoadEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		if emp.IsDeleted {
			return nil
		}
		for _, id := range result.Requested {
			if emp.HasProject(id) {
				continue
			}
			p, err := tx.LoadProject(ctx, id)
			if errors.Is(err, core.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !p.IsDeleted {
				eligible = append(eligible, id)
			}
		}
		if len(eligible) == 0 {
			return nil
		}
		edges := make([]core.Assignment, 0, len(eligible))
		for _, id := range eligible {
			edges = append(edges, core.Assignment{ProjectID: id, EmployeeID: employeeID})
		}
		if err := tx.AddAssignments(ctx, edges); err != nil {
			return err
		}
		return tx.UpdateEmployee(ctx, emp)
	})
	if err != nil {
		eligible = nil
	}
	result.Unassignable = exceptInt64s(result.Requested, eligible)
	s.metrics.Assignment(result.Assigned(), len(result.Unassignable))
	if err != nil {
		return result, s.done(ctx, op, zap.String("employeeId", employeeID), core.Translate(op, core.KindEmployee, employeeID, err))
	}
	if len(eligible) > 0 {
		s.record(ctx, audit.ActionAssign, core.KindEmployee, employeeID, map[string]any{"projects": eligible})
	}
	return result, s.done(ctx, op, zap.String("employeeId", employeeID), nil)
}

func (s *Service) UnassignProject(ctx context.Context, employeeID string, projectID int64) (bool, error) {
	const op = "assignment.unassign_project"
	var removed bool
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		emp, err := tx.LoadEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		removed, err = tx.RemoveAssignment(ctx, core.Assignment{ProjectID: projectID, EmployeeID: employeeID})
		if err != nil || !removed {
			return err
		}
		return tx.UpdateEmployee(ctx, emp)
	})
	if err != nil {
		return false, s.done(ctx, op, zap.String("employeeId", employeeID), core.Translate(op, core.KindEmployee, employeeID, err))
	}
	if removed {
		s.record(ctx, audit.ActionUnassign, core.KindEmployee, employeeID, map[string]any{"project": projectID})
	}
	return removed, s.done(ctx, op, zap.String("employeeId", employeeID), nil)
}

// AssignedEmployees is the project's roster without soft-deleted employees. Edges to deleted
// employees stay stored and reappear once the employee is restored.
func (s *Service) AssignedEmployees(ctx context.Context, projectID int64) ([]core.Employee, error) {
	const op = "assignment.assigned_employees"
	out := []core.Employee{}
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		p, err := tx.LoadProject(ctx, projectID)
		if err != nil {
			return err
		}
		if len(p.AssignedEmployeeIDs) == 0 {
			return nil
		}
		active, err := tx.ListEmployees(ctx, core.StateActive)
		if err != nil {
			return err
		}
		for _, emp := range active {
			if p.HasEmployee(emp.ID) {
				out = append(out, emp)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.readErr(ctx, op, core.KindProject, idString(projectID), err)
	}
	return out, nil
}

func (s *Service) AssignedProjects(ctx context.Context, employeeID string) ([]core.Project, error) {
	const op = "assignment.assigned_projects"
	out := []core.Project{}
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		emp, err := tx.LoadEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		if len(emp.ProjectIDs) == 0 {
			return nil
		}
		active, err := tx.ListProjects(ctx, core.StateActive)
		if err != nil {
			return err
		}
		for _, p := range active {
			if emp.HasProject(p.ID) {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.readErr(ctx, op, core.KindEmployee, employeeID, err)
	}
	return out, nil
}

func (s *Service) done(ctx context.Context, op string, subject zap.Field, err error) error {
	s.metrics.Operation(op, core.Outcome(err))
	log := logging.For(ctx, s.logger)
	switch {
	case err == nil:
		log.Info(op, subject)
	case errors.Is(err, core.ErrPersistence):
		log.Error(op+" failed", subject, zap.Error(err))
	default:
		log.Debug(op+" rejected", subject, zap.Error(err))
	}
	return err
}

func (s *Service) readErr(ctx context.Context, op string, kind core.Kind, id string, err error) error {
	err = core.Translate(op, kind, id, err)
	if errors.Is(err, core.ErrPersistence) {
		logging.For(ctx, s.logger).Error(op+" failed", zap.String("id", id), zap.Error(err))
	}
	return err
}

func (s *Service) record(ctx context.Context, action string, kind core.Kind, id string, after any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, string(kind), id, nil, after); err != nil {
		logging.For(ctx, s.logger).Warn("audit record failed", zap.String("id", id), zap.String("action", action), zap.Error(err))
	}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func dedupeStrings(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func dedupeInt64s(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func exceptStrings(all, drop []string) []string {
	skip := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		skip[id] = struct{}{}
	}
	out := []string{}
	for _, id := range all {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func exceptInt64s(all, drop []int64) []int64 {
	skip := make(map[int64]struct{}, len(drop))
	for _, id := range drop {
		skip[id] = struct{}{}
	}
	out := []int64{}
	for _, id := range all {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
