package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce/internal/domain/core"
)

func TestFromErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", core.Invalid("email", "is not a valid address"), http.StatusBadRequest, "validation_error"},
		{"not found", core.NotFound(core.KindEmployee, "E404"), http.StatusNotFound, "not_found"},
		{"conflict", &core.ConflictError{Kind: core.KindProject, ID: "1"}, http.StatusConflict, "conflict"},
		{"persistence", &core.PersistenceError{Op: "project.create", Err: errors.New("connection reset")}, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(rec, tc.err, "req-1")
			require.Equal(t, tc.status, rec.Code)

			var env Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, "req-1", env.RequestID)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.NotContains(t, env.Error.Message, "connection reset")
		})
	}
}
