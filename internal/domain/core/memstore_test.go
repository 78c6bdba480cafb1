package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedEmployee(t *testing.T, store StoreAPI, id string, addrs ...Address) *Employee {
	t.Helper()
	emp := &Employee{
		ID:          id,
		Name:        "Employee " + id,
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Email:       "a@b.com",
		Salary:      decimal.NewFromInt(1000),
		Addresses:   addrs,
	}
	err := store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.SaveEmployee(ctx, emp)
	})
	require.NoError(t, err)
	return emp
}

func TestMemStoreSaveAssignsIDs(t *testing.T) {
	store := NewMemStore()
	emp := seedEmployee(t, store, "E001", Address{Street: "Main"}, Address{Street: "Side", IsPermanent: true})

	require.Equal(t, int64(1), emp.Version)
	require.Equal(t, int64(1), emp.Addresses[0].ID)
	require.Equal(t, int64(2), emp.Addresses[1].ID)
	require.Equal(t, "E001", emp.Addresses[1].EmployeeID)

	var p Project
	err := store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		p = Project{Name: "Apollo"}
		return tx.SaveProject(ctx, &p)
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), p.ID)
}

func TestMemStoreDuplicateEmployee(t *testing.T) {
	store := NewMemStore()
	seedEmployee(t, store, "E001")

	err := store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.SaveEmployee(ctx, &Employee{ID: "E001"})
	})
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMemStoreRollbackDiscardsWrites(t *testing.T) {
	store := NewMemStore()
	seedEmployee(t, store, "E001")
	boom := errors.New("boom")

	err := store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		emp, err := tx.LoadEmployee(ctx, "E001")
		if err != nil {
			return err
		}
		emp.Name = "Changed"
		if err := tx.UpdateEmployee(ctx, emp); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_ = store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		emp, err := tx.LoadEmployee(ctx, "E001")
		require.NoError(t, err)
		require.Equal(t, "Employee E001", emp.Name)
		require.Equal(t, int64(1), emp.Version)
		return nil
	})
}

func TestMemStoreVersionCheck(t *testing.T) {
	store := NewMemStore()
	emp := seedEmployee(t, store, "E001")

	stale := *emp
	err := store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.UpdateEmployee(ctx, emp)
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), emp.Version)

	err = store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.UpdateEmployee(ctx, &stale)
	})
	require.ErrorIs(t, err, ErrStaleVersion)
}

func TestMemStoreEdgesDeriveViews(t *testing.T) {
	store := NewMemStore()
	seedEmployee(t, store, "E001")
	seedEmployee(t, store, "E002")
	ctx := context.Background()

	var projectID int64
	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		p := &Project{Name: "Apollo"}
		if err := tx.SaveProject(ctx, p); err != nil {
			return err
		}
		projectID = p.ID
		return tx.AddAssignments(ctx, []Assignment{
			{ProjectID: p.ID, EmployeeID: "E002"},
			{ProjectID: p.ID, EmployeeID: "E001"},
			{ProjectID: p.ID, EmployeeID: "E001"},
		})
	}))

	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.LoadProject(ctx, projectID)
		require.NoError(t, err)
		require.Equal(t, []string{"E001", "E002"}, p.AssignedEmployeeIDs)

		emp, err := tx.LoadEmployee(ctx, "E001")
		require.NoError(t, err)
		require.Equal(t, []int64{projectID}, emp.ProjectIDs)

		removed, err := tx.RemoveAssignment(ctx, Assignment{ProjectID: projectID, EmployeeID: "E002"})
		require.NoError(t, err)
		require.True(t, removed)

		removed, err = tx.RemoveAssignment(ctx, Assignment{ProjectID: projectID, EmployeeID: "E002"})
		require.NoError(t, err)
		require.False(t, removed)

		require.NoError(t, tx.ClearProjectAssignments(ctx, projectID))
		p, err = tx.LoadProject(ctx, projectID)
		require.NoError(t, err)
		require.Empty(t, p.AssignedEmployeeIDs)
		return nil
	}))
}

func TestMemStoreAssignmentRequiresEndpoints(t *testing.T) {
	store := NewMemStore()
	err := store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.AddAssignments(ctx, []Assignment{{ProjectID: 9, EmployeeID: "E404"}})
	})
	require.Error(t, err)
}

func TestMemStoreListByState(t *testing.T) {
	store := NewMemStore()
	seedEmployee(t, store, "E002")
	emp := seedEmployee(t, store, "E001")
	ctx := context.Background()

	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		emp.IsDeleted = true
		return tx.UpdateEmployee(ctx, emp)
	}))

	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		active, err := tx.ListEmployees(ctx, StateActive)
		require.NoError(t, err)
		require.Len(t, active, 1)
		require.Equal(t, "E002", active[0].ID)

		deleted, err := tx.ListEmployees(ctx, StateDeleted)
		require.NoError(t, err)
		require.Len(t, deleted, 1)
		require.Equal(t, "E001", deleted[0].ID)

		all, err := tx.ListEmployees(ctx, StateAny)
		require.NoError(t, err)
		require.Equal(t, "E001", all[0].ID)
		require.Len(t, all, 2)
		return nil
	}))
}

func TestMemStoreFaultInjection(t *testing.T) {
	store := NewMemStore()
	emp := seedEmployee(t, store, "E001")
	injected := errors.New("disk full")
	store.FailOn("UpdateEmployee", injected)

	err := store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.UpdateEmployee(ctx, emp)
	})
	require.ErrorIs(t, err, injected)

	store.FailOn("UpdateEmployee", nil)
	err = store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.UpdateEmployee(ctx, emp)
	})
	require.NoError(t, err)
}

func TestMemStoreCommitFault(t *testing.T) {
	store := NewMemStore()
	store.FailOn("Commit", errors.New("commit lost"))

	err := store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.SaveEmployee(ctx, &Employee{ID: "E001"})
	})
	require.Error(t, err)

	store.FailOn("Commit", nil)
	err = store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		_, err := tx.LoadEmployee(ctx, "E001")
		return err
	})
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMemStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemStore().InTx(ctx, func(context.Context, Tx) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
