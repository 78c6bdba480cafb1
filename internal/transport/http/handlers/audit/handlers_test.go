package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce/internal/domain/audit"
	"workforce/internal/domain/auth"
	"workforce/internal/requestctx"
	"workforce/internal/transport/http/middleware"
)

func TestAuditRoutes(t *testing.T) {
	events := audit.NewMemory()
	ctx := requestctx.WithActor(context.Background(), "hr-1")
	require.NoError(t, events.Record(ctx, audit.ActionCreate, "project", "1", nil, map[string]string{"name": "P"}))
	require.NoError(t, events.Record(ctx, audit.ActionAssign, "project", "1", nil, nil))

	r := chi.NewRouter()
	NewHandler(events, nil).RegisterRoutes(r)

	get := func(role, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u", RoleName: role}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, get(auth.RoleManager, "/audit/events").Code)

	rec := get(auth.RoleHR, "/audit/events?action=assign")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"assign"`)
	assert.NotContains(t, rec.Body.String(), `"action":"create"`)

	assert.Equal(t, http.StatusBadRequest, get(auth.RoleHR, "/audit/events?limit=zero").Code)

	rec = get(auth.RoleHR, "/audit/events/export")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2,hr-1,assign,project,1,"))
}
