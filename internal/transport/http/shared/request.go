package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"workforce/internal/domain/core"
)

// DecodeJSON reads a single JSON document into dst. Unknown fields are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// Int64Param parses a positive integer path parameter.
func Int64Param(r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// StateParam reads ?state=active|deleted|all, defaulting to active.
func StateParam(r *http.Request) (core.State, bool) {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("state"))) {
	case "", "active":
		return core.StateActive, true
	case "deleted":
		return core.StateDeleted, true
	case "all":
		return core.StateAny, true
	default:
		return core.StateActive, false
	}
}
