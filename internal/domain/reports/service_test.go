package reports

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce/internal/domain/assignment"
	"workforce/internal/domain/core"
	"workforce/internal/domain/project"
)

func newRosterService(t *testing.T) (*Service, int64) {
	t.Helper()
	ctx := context.Background()
	store := core.NewMemStore()
	projects := project.NewService(store, nil, nil, nil)
	assignments := assignment.NewService(store, nil, nil, nil)

	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		return tx.SaveEmployee(ctx, &core.Employee{ID: "E001", Name: "Asha", Email: "asha@example.com", Salary: decimal.NewFromInt(52000)})
	}))
	id, err := projects.Create(ctx, core.NewProject{Name: "Apollo", Manager: "Mia", Client: "Acme", Deadline: "2025-12-31"})
	require.NoError(t, err)
	_, err = assignments.AssignEmployees(ctx, id, []string{"E001"})
	require.NoError(t, err)

	svc := NewService(projects, assignments, t.TempDir(), nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
	return svc, id
}

func TestRosterPDF(t *testing.T) {
	svc, id := newRosterService(t)

	data, err := svc.RosterPDF(context.Background(), id, true)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = svc.RosterPDF(context.Background(), 99, false)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestArchiveRoster(t *testing.T) {
	svc, id := newRosterService(t)

	path, err := svc.ArchiveRoster(context.Background(), id, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(svc.dir, "rosters", "project-1-20250601T093000.pdf"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
