package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	cause := errors.New("connection reset")

	cases := []struct {
		name   string
		err    error
		target error
	}{
		{name: "record not found", err: ErrRecordNotFound, target: ErrNotFound},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", ErrRecordNotFound), target: ErrNotFound},
		{name: "stale version", err: ErrStaleVersion, target: ErrConflict},
		{name: "duplicate key", err: fmt.Errorf("%w: employees_pkey", ErrDuplicateKey), target: ErrValidation},
		{name: "unknown", err: cause, target: ErrPersistence},
		{name: "already typed", err: Invalid("email", "bad"), target: ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Translate("employee.update", KindEmployee, "E001", tc.err)
			require.ErrorIs(t, got, tc.target)
		})
	}

	require.NoError(t, Translate("op", KindEmployee, "E001", nil))
}

func TestTranslateKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Translate("project.create", KindProject, "", cause)

	var persist *PersistenceError
	require.ErrorAs(t, err, &persist)
	assert.Equal(t, "project.create", persist.Op)
	assert.ErrorIs(t, err, cause)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "validation", Outcome(Invalid("name", "blank")))
	assert.Equal(t, "not_found", Outcome(NotFound(KindProject, "1")))
	assert.Equal(t, "conflict", Outcome(&ConflictError{Kind: KindProject, ID: "1"}))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "email: must be a valid email address", Message(Invalid("email", "must be a valid email address")))
	assert.Equal(t, "employee E404 not found", Message(NotFound(KindEmployee, "E404")))
	assert.Equal(t, "project 7 was modified concurrently, please retry", Message(&ConflictError{Kind: KindProject, ID: "7"}))
	assert.Equal(t, "operation failed, please try again later", Message(&PersistenceError{Op: "x", Err: errors.New("secret detail")}))
	assert.Empty(t, Message(nil))
}
