package projecthandler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"workforce/internal/domain/assignment"
	"workforce/internal/domain/auth"
	"workforce/internal/domain/core"
	"workforce/internal/domain/project"
	"workforce/internal/domain/reports"
	"workforce/internal/platform/jobs"
	"workforce/internal/platform/logging"
	"workforce/internal/requestctx"
	"workforce/internal/transport/http/api"
	"workforce/internal/transport/http/middleware"
	"workforce/internal/transport/http/shared"
)

type Handler struct {
	Projects    *project.Service
	Assignments *assignment.Service
	Reports     *reports.Service
	// Jobs runs roster archiving off the request path; nil archives inline.
	Jobs   *jobs.Service
	Logger *zap.Logger
}

func NewHandler(projects *project.Service, assignments *assignment.Service, rosters *reports.Service, runner *jobs.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Projects: projects, Assignments: assignments, Reports: rosters, Jobs: runner, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	hrOnly := middleware.RequireRole(auth.RoleHR)
	r.Route("/projects", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/deleted", h.handleListDeleted)
		r.With(hrOnly).Post("/", h.handleCreate)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.With(hrOnly).Patch("/", h.handleUpdate)
			r.With(hrOnly).Post("/delete", h.handleSoftDelete)
			r.With(hrOnly).Post("/restore", h.handleRestore)

			r.Get("/employees", h.handleAssignedEmployees)
			r.Get("/assignable-employees", h.handleAssignableEmployees)
			r.With(hrOnly).Post("/employees", h.handleAssignEmployees)
			r.With(hrOnly).Delete("/employees/{employeeID}", h.handleUnassignEmployee)

			r.Get("/roster.pdf", h.handleRoster)
		})
	})
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

// projectID writes a validation failure and reports false when the path id is malformed.
func projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := shared.Int64Param(r, "projectID")
	v := shared.NewValidator()
	v.ID("projectId", ok)
	if v.Reject(w, requestID(r)) {
		return 0, false
	}
	return id, true
}

func badBody(w http.ResponseWriter, r *http.Request, err error) {
	api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID(r))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	state, ok := shared.StateParam(r)
	if !ok {
		v := shared.NewValidator()
		v.Add("state", "must be one of active, deleted, all")
		v.Reject(w, requestID(r))
		return
	}
	list, err := h.Projects.List(r.Context(), state)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, list, requestID(r))
}

func (h *Handler) handleListDeleted(w http.ResponseWriter, r *http.Request) {
	list, err := h.Projects.List(r.Context(), core.StateDeleted)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, list, requestID(r))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in core.NewProject
	if err := shared.DecodeJSON(r, &in); err != nil {
		badBody(w, r, err)
		return
	}
	id, err := h.Projects.Create(r.Context(), in)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	w.Header().Set("Location", "/api/v1/projects/"+strconv.FormatInt(id, 10))
	api.Created(w, map[string]any{"id": id}, requestID(r))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	p, err := h.Projects.Get(r.Context(), id)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, p, requestID(r))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	var patch core.ProjectPatch
	if err := shared.DecodeJSON(r, &patch); err != nil {
		badBody(w, r, err)
		return
	}
	p, err := h.Projects.UpdateDetails(r.Context(), id, patch)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, p, requestID(r))
}

func (h *Handler) handleSoftDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	if err := h.Projects.SoftDelete(r.Context(), id); err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, map[string]any{"id": id, "isDeleted": true}, requestID(r))
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	if err := h.Projects.Restore(r.Context(), id); err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, map[string]any{"id": id, "isDeleted": false}, requestID(r))
}

// rosterEntry is the project-side view of an assigned employee; salary is never exposed here.
type rosterEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) handleAssignedEmployees(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	employees, err := h.Assignments.AssignedEmployees(r.Context(), id)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	out := make([]rosterEntry, 0, len(employees))
	for _, emp := range employees {
		out = append(out, rosterEntry{ID: emp.ID, Name: emp.Name, Email: emp.Email})
	}
	api.Success(w, out, requestID(r))
}

func (h *Handler) handleAssignableEmployees(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	candidates, err := h.Assignments.AssignableEmployees(r.Context(), id)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, candidates, requestID(r))
}

type assignEmployeesRequest struct {
	EmployeeIDs []string `json:"employeeIds"`
}

func (h *Handler) handleAssignEmployees(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	var req assignEmployeesRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	v := shared.NewValidator()
	if len(req.EmployeeIDs) == 0 {
		v.Add("employeeIds", "must name at least one employee")
	}
	for i, empID := range req.EmployeeIDs {
		v.Required(fmt.Sprintf("employeeIds[%d]", i), empID, "must not be blank")
	}
	if v.Reject(w, requestID(r)) {
		return
	}
	result, err := h.Assignments.AssignEmployees(r.Context(), id, req.EmployeeIDs)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, result, requestID(r))
}

func (h *Handler) handleUnassignEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	empID := strings.TrimSpace(chi.URLParam(r, "employeeID"))
	removed, err := h.Assignments.UnassignEmployee(r.Context(), empID, id)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	if !removed {
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", requestID(r))
		return
	}
	api.Success(w, map[string]any{"projectId": id, "employeeId": empID}, requestID(r))
}

// handleRoster streams the roster PDF. HR callers see salaries; ?archive=true also keeps a copy
// under the reports directory.
func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	includeSalary := core.CanViewSalary(user)

	data, err := h.Reports.RosterPDF(r.Context(), id, includeSalary)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	if r.URL.Query().Get("archive") == "true" {
		h.archive(r, id, includeSalary)
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=project-%d-roster.pdf", id))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.For(r.Context(), h.Logger).Warn("roster write failed", zap.Int64("projectId", id), zap.Error(err))
	}
}

func (h *Handler) archive(r *http.Request, id int64, includeSalary bool) {
	reqID := requestID(r)
	actor := requestctx.GetActor(r.Context())
	run := func(ctx context.Context) error {
		ctx = requestctx.WithActor(requestctx.WithRequestID(ctx, reqID), actor)
		_, err := h.Reports.ArchiveRoster(ctx, id, includeSalary)
		return err
	}
	key := strconv.FormatInt(id, 10)
	if h.Jobs == nil {
		if err := run(r.Context()); err != nil {
			logging.For(r.Context(), h.Logger).Warn("roster archive failed", zap.Int64("projectId", id), zap.Error(err))
		}
		return
	}
	h.Jobs.Enqueue(jobs.JobRosterArchive, key, run)
}
