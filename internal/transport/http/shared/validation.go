package shared

import (
	"net/http"
	"strings"

	"workforce/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects request-shape problems found before a service is called. Issues are
// reported in the order they were found.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	if v == nil || strings.TrimSpace(reason) == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: strings.TrimSpace(field), Reason: strings.TrimSpace(reason)})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

func (v *Validator) ID(field string, ok bool) {
	if !ok {
		v.Add(field, "must be a positive integer")
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if !v.HasIssues() {
		return nil
	}
	return append([]ValidationIssue(nil), v.issues...)
}

// Reject writes a 400 listing every issue and reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	message := v.issues[0].Field + " " + v.issues[0].Reason
	if len(v.issues) > 1 {
		message = "request has invalid fields"
	}
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", strings.TrimSpace(message),
		map[string]any{"fields": v.Issues()}, requestID)
	return true
}
