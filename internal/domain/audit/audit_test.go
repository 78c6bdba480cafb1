package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"workforce/internal/requestctx"
)

func TestMemoryRecordAndFilter(t *testing.T) {
	m := NewMemory()
	ctx := requestctx.WithActor(requestctx.WithRequestID(context.Background(), "req-9"), "hr-1")

	require.NoError(t, m.Record(ctx, ActionCreate, "employee", "E001", nil, map[string]string{"name": "Ann"}))
	require.NoError(t, m.Record(ctx, ActionDelete, "employee", "E001", nil, nil))
	require.NoError(t, m.Record(ctx, ActionCreate, "project", "1", nil, nil))

	all, err := m.List(ctx, Filter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "project", all[0].EntityType)

	emp, err := m.List(ctx, Filter{EntityType: "employee", EntityID: "E001"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, emp, 2)
	require.Equal(t, "hr-1", emp[1].ActorID)
	require.Equal(t, "req-9", emp[1].RequestID)
	require.JSONEq(t, `{"name":"Ann"}`, string(emp[1].After))

	page, err := m.List(ctx, Filter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, ActionDelete, page[0].Action)

	empty, err := m.List(ctx, Filter{}, 10, 5)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestBuildQuery(t *testing.T) {
	query, args := buildQuery(Filter{Action: ActionAssign, EntityID: "3"})
	require.Contains(t, query, "action = $1")
	require.Contains(t, query, "entity_id = $2")
	require.Equal(t, []any{ActionAssign, "3"}, args)
}
