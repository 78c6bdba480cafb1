package project

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"workforce/internal/domain/audit"
	"workforce/internal/domain/core"
	"workforce/internal/platform/logging"
	"workforce/internal/platform/metrics"
)

const entityType = "project"

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

// Create persists a new active project with no assignments and returns its id.
func (s *Service) Create(ctx context.Context, in core.NewProject) (int64, error) {
	const op = "project.create"
	in.Name = strings.TrimSpace(in.Name)
	if err := core.ValidateStruct(in); err != nil {
		return 0, s.done(ctx, op, 0, err)
	}
	deadline, err := core.ParseDate("deadline", in.Deadline)
	if err != nil {
		return 0, s.done(ctx, op, 0, err)
	}
	p := &core.Project{
		Name:     in.Name,
		Manager:  strings.TrimSpace(in.Manager),
		Client:   strings.TrimSpace(in.Client),
		Deadline: deadline,
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		return tx.SaveProject(ctx, p)
	})
	if err != nil {
		return 0, s.done(ctx, op, 0, core.Translate(op, core.KindProject, "", err))
	}
	s.record(ctx, audit.ActionCreate, p.ID, nil, p.Summary())
	return p.ID, s.done(ctx, op, p.ID, nil)
}

// UpdateDetails applies patch. A nil or blank field keeps the stored value.
func (s *Service) UpdateDetails(ctx context.Context, id int64, patch core.ProjectPatch) (*core.Project, error) {
	const op = "project.update"
	deadlineRaw := blankToNil(patch.Deadline)
	var changed []string
	var parsedDeadline time.Time
	if deadlineRaw != nil {
		d, err := core.ParseDate("deadline", *deadlineRaw)
		if err != nil {
			return nil, s.done(ctx, op, id, err)
		}
		parsedDeadline = d
	}

	var p *core.Project
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		p, err = tx.LoadProject(ctx, id)
		if err != nil {
			return err
		}
		if v := blankToNil(patch.Name); v != nil {
			p.Name = *v
			changed = append(changed, "name")
		}
		if v := blankToNil(patch.Manager); v != nil {
			p.Manager = *v
			changed = append(changed, "manager")
		}
		if v := blankToNil(patch.Client); v != nil {
			p.Client = *v
			changed = append(changed, "client")
		}
		if deadlineRaw != nil {
			p.Deadline = parsedDeadline
			changed = append(changed, "deadline")
		}
		return tx.UpdateProject(ctx, p)
	})
	if err != nil {
		return nil, s.done(ctx, op, id, core.Translate(op, core.KindProject, idString(id), err))
	}
	s.record(ctx, audit.ActionUpdate, id, nil, map[string]any{"fields": changed})
	return p, s.done(ctx, op, id, nil)
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SoftDelete flags the project deleted and drops every assignment edge in the same unit of work.
// Unlike employees, a deleted project keeps no roster.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	const op = "project.soft_delete"
	var before core.ProjectSummary
	var cleared []string
	var changed bool
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		p, err := tx.LoadProject(ctx, id)
		if err != nil {
			return err
		}
		before = p.Summary()
		if p.IsDeleted {
			return nil
		}
		changed = true
		cleared = p.AssignedEmployeeIDs
		if err := tx.ClearProjectAssignments(ctx, id); err != nil {
			return err
		}
		p.IsDeleted = true
		return tx.UpdateProject(ctx, p)
	})
	if err != nil {
		return s.done(ctx, op, id, core.Translate(op, core.KindProject, idString(id), err))
	}
	if changed {
		after := before
		after.IsDeleted = true
		s.record(ctx, audit.ActionDelete, id, before, map[string]any{"project": after, "unassigned": cleared})
	}
	return s.done(ctx, op, id, nil)
}

// Restore reactivates the project. Its assignment set stays empty.
func (s *Service) Restore(ctx context.Context, id int64) error {
	const op = "project.restore"
	var changed bool
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		p, err := tx.LoadProject(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsDeleted {
			return nil
		}
		changed = true
		p.IsDeleted = false
		return tx.UpdateProject(ctx, p)
	})
	if err != nil {
		return s.done(ctx, op, id, core.Translate(op, core.KindProject, idString(id), err))
	}
	if changed {
		s.record(ctx, audit.ActionRestore, id, nil, nil)
	}
	return s.done(ctx, op, id, nil)
}

func (s *Service) Get(ctx context.Context, id int64) (*core.Project, error) {
	var p *core.Project
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		p, err = tx.LoadProject(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.readErr(ctx, "project.get", id, err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, state core.State) ([]core.Project, error) {
	var out []core.Project
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		out, err = tx.ListProjects(ctx, state)
		return err
	})
	if err != nil {
		return nil, s.readErr(ctx, "project.list", 0, err)
	}
	if out == nil {
		out = []core.Project{}
	}
	return out, nil
}

// CheckID reports whether id names a project in the given state.
func (s *Service) CheckID(ctx context.Context, id int64, state core.State) (bool, error) {
	p, err := s.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return state.Matches(p.IsDeleted), nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *Service) done(ctx context.Context, op string, id int64, err error) error {
	s.metrics.Operation(op, core.Outcome(err))
	log := logging.For(ctx, s.logger)
	switch {
	case err == nil:
		log.Info(op, zap.Int64("projectId", id))
	case errors.Is(err, core.ErrPersistence):
		log.Error(op+" failed", zap.Int64("projectId", id), zap.Error(err))
	default:
		log.Debug(op+" rejected", zap.Int64("projectId", id), zap.Error(err))
	}
	return err
}

func (s *Service) readErr(ctx context.Context, op string, id int64, err error) error {
	err = core.Translate(op, core.KindProject, idString(id), err)
	if errors.Is(err, core.ErrPersistence) {
		logging.For(ctx, s.logger).Error(op+" failed", zap.Int64("projectId", id), zap.Error(err))
	}
	return err
}

func (s *Service) record(ctx context.Context, action string, id int64, before, after any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entityType, idString(id), before, after); err != nil {
		logging.For(ctx, s.logger).Warn("audit record failed", zap.Int64("projectId", id), zap.String("action", action), zap.Error(err))
	}
}
