package project

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce/internal/domain/audit"
	"workforce/internal/domain/core"
	"workforce/internal/platform/metrics"
)

func newTestService(t *testing.T) (*Service, *core.MemStore) {
	t.Helper()
	store := core.NewMemStore()
	return NewService(store, audit.NewMemory(), metrics.New(), nil), store
}

func strPtr(s string) *string { return &s }

func seedEmployee(t *testing.T, store core.StoreAPI, id string) {
	t.Helper()
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx core.Tx) error {
		return tx.SaveEmployee(ctx, &core.Employee{ID: id, Name: id, Email: "a@b.com"})
	}))
}

func assign(t *testing.T, store core.StoreAPI, projectID int64, employeeIDs ...string) {
	t.Helper()
	edges := make([]core.Assignment, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		edges = append(edges, core.Assignment{ProjectID: projectID, EmployeeID: id})
	}
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, tx core.Tx) error {
		return tx.AddAssignments(ctx, edges)
	}))
}

func TestCreateProject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, core.NewProject{Name: " Apollo ", Manager: "Mia", Client: "Acme", Deadline: "2025-12-31"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	p, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Apollo", p.Name)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), p.Deadline)
	assert.False(t, p.IsDeleted)
	assert.Empty(t, p.AssignedEmployeeIDs)

	second, err := svc.Create(ctx, core.NewProject{Name: "Gemini", Deadline: "2026-01-15"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)
}

func TestCreateProjectValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.NewProject{Name: "Apollo", Deadline: "31.12.2025"})
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "deadline", ve.Field)

	_, err = svc.Create(ctx, core.NewProject{Name: "  ", Deadline: "2025-12-31"})
	require.ErrorIs(t, err, core.ErrValidation)

	list, err := svc.List(ctx, core.StateAny)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateDetailsBlankKeepsValue(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id, err := svc.Create(ctx, core.NewProject{Name: "Apollo", Manager: "Mia", Client: "Acme", Deadline: "2025-12-31"})
	require.NoError(t, err)

	p, err := svc.UpdateDetails(ctx, id, core.ProjectPatch{Name: strPtr(""), Manager: strPtr("Raj"), Client: nil, Deadline: strPtr("  ")})
	require.NoError(t, err)
	assert.Equal(t, "Apollo", p.Name)
	assert.Equal(t, "Raj", p.Manager)
	assert.Equal(t, "Acme", p.Client)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), p.Deadline)

	p, err = svc.UpdateDetails(ctx, id, core.ProjectPatch{Deadline: strPtr("2026-06-30")})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), p.Deadline)

	_, err = svc.UpdateDetails(ctx, id, core.ProjectPatch{Deadline: strPtr("someday")})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.UpdateDetails(ctx, 99, core.ProjectPatch{Name: strPtr("X")})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestSoftDeleteClearsAssignments(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedEmployee(t, store, "E001")
	id, err := svc.Create(ctx, core.NewProject{Name: "P", Deadline: "2025-12-31"})
	require.NoError(t, err)
	assign(t, store, id, "E001")

	require.NoError(t, svc.SoftDelete(ctx, id))
	p, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.IsDeleted)
	assert.Empty(t, p.AssignedEmployeeIDs)

	require.NoError(t, svc.Restore(ctx, id))
	p, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.IsDeleted)
	assert.Empty(t, p.AssignedEmployeeIDs)

	// the employee no longer lists the project either
	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		emp, err := tx.LoadEmployee(ctx, "E001")
		require.NoError(t, err)
		assert.Empty(t, emp.ProjectIDs)
		return nil
	}))
}

func TestSoftDeleteAtomicOnFailure(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedEmployee(t, store, "E001")
	id, err := svc.Create(ctx, core.NewProject{Name: "P", Deadline: "2025-12-31"})
	require.NoError(t, err)
	assign(t, store, id, "E001")

	store.FailOn("UpdateProject", errors.New("write failed"))
	require.ErrorIs(t, svc.SoftDelete(ctx, id), core.ErrPersistence)
	store.FailOn("UpdateProject", nil)

	p, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.IsDeleted)
	assert.Equal(t, []string{"E001"}, p.AssignedEmployeeIDs)
}

func TestSoftDeleteIdempotentAndMissing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id, err := svc.Create(ctx, core.NewProject{Name: "P", Deadline: "2025-12-31"})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, id))
	require.NoError(t, svc.SoftDelete(ctx, id))
	require.NoError(t, svc.Restore(ctx, id))
	require.NoError(t, svc.Restore(ctx, id))

	require.ErrorIs(t, svc.SoftDelete(ctx, 42), core.ErrNotFound)
	require.ErrorIs(t, svc.Restore(ctx, 42), core.ErrNotFound)
}

func TestListAndCheckID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, core.NewProject{Name: "A", Deadline: "2025-12-31"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, core.NewProject{Name: "B", Deadline: "2025-12-31"})
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete(ctx, b))

	active, err := svc.List(ctx, core.StateActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a, active[0].ID)

	deleted, err := svc.List(ctx, core.StateDeleted)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, b, deleted[0].ID)

	ok, err := svc.CheckID(ctx, b, core.StateActive)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.CheckID(ctx, b, core.StateDeleted)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.CheckID(ctx, 77, core.StateAny)
	require.NoError(t, err)
	assert.False(t, ok)
}
