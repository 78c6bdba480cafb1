package employeehandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"workforce/internal/domain/assignment"
	"workforce/internal/domain/auth"
	"workforce/internal/domain/core"
	"workforce/internal/domain/employee"
	"workforce/internal/transport/http/api"
	"workforce/internal/transport/http/middleware"
	"workforce/internal/transport/http/shared"
)

type Handler struct {
	Employees   *employee.Service
	Assignments *assignment.Service
}

func NewHandler(employees *employee.Service, assignments *assignment.Service) *Handler {
	return &Handler{Employees: employees, Assignments: assignments}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	hrOnly := middleware.RequireRole(auth.RoleHR)
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/deleted", h.handleListDeleted)
		r.With(hrOnly).Post("/", h.handleCreate)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.With(hrOnly).Patch("/", h.handleUpdate)
			r.With(hrOnly).Post("/delete", h.handleSoftDelete)
			r.With(hrOnly).Post("/restore", h.handleRestore)

			r.Get("/addresses", h.handleListAddresses)
			r.With(hrOnly).Post("/addresses", h.handleAddAddress)
			r.With(hrOnly).Post("/addresses/permanent", h.handleSetPermanent)
			r.With(hrOnly).Put("/addresses/{addressID}", h.handleUpdateAddress)
			r.With(hrOnly).Delete("/addresses/{addressID}", h.handleDeleteAddress)

			r.Get("/projects", h.handleAssignedProjects)
			r.Get("/assignable-projects", h.handleAssignableProjects)
			r.With(hrOnly).Post("/projects", h.handleAssignProjects)
			r.With(hrOnly).Delete("/projects/{projectID}", h.handleUnassignProject)
		})
	})
}

// employeeView hides salary from callers that may not read it.
type employeeView struct {
	core.Employee
	Salary *decimal.Decimal `json:"salary,omitempty"`
}

func view(r *http.Request, emp core.Employee) employeeView {
	out := employeeView{Employee: emp}
	if user, ok := middleware.GetUser(r.Context()); ok && core.CanViewSalary(user) {
		salary := emp.Salary
		out.Salary = &salary
	}
	return out
}

func views(r *http.Request, employees []core.Employee) []employeeView {
	out := make([]employeeView, 0, len(employees))
	for _, emp := range employees {
		out = append(out, view(r, emp))
	}
	return out
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

func employeeID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "employeeID"))
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
	list, err := h.Employees.List(r.Context(), state)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, views(r, list), requestID(r))
}

func (h *Handler) handleListDeleted(w http.ResponseWriter, r *http.Request) {
	list, err := h.Employees.List(r.Context(), core.StateDeleted)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, views(r, list), requestID(r))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in core.NewEmployee
	if err := shared.DecodeJSON(r, &in); err != nil {
		badBody(w, r, err)
		return
	}
	emp, err := h.Employees.Create(r.Context(), in)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Created(w, view(r, *emp), requestID(r))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Employees.Get(r.Context(), employeeID(r))
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, view(r, *emp), requestID(r))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch core.EmployeePatch
	if err := shared.DecodeJSON(r, &patch); err != nil {
		badBody(w, r, err)
		return
	}
	emp, err := h.Employees.UpdateDetails(r.Context(), employeeID(r), patch)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, view(r, *emp), requestID(r))
}

func (h *Handler) handleSoftDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Employees.SoftDelete(r.Context(), employeeID(r)); err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, map[string]any{"id": employeeID(r), "isDeleted": true}, requestID(r))
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := h.Employees.Restore(r.Context(), employeeID(r)); err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, map[string]any{"id": employeeID(r), "isDeleted": false}, requestID(r))
}

func (h *Handler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.Employees.ListAddresses(r.Context(), employeeID(r))
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, addrs, requestID(r))
}

func (h *Handler) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	var fields core.AddressFields
	if err := shared.DecodeJSON(r, &fields); err != nil {
		badBody(w, r, err)
		return
	}
	addr, err := h.Employees.AddAddress(r.Context(), employeeID(r), fields)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Created(w, addr, requestID(r))
}

type permanentRequest struct {
	OldAddressID int64 `json:"oldAddressId"`
	NewAddressID int64 `json:"newAddressId"`
}

func (h *Handler) handleSetPermanent(w http.ResponseWriter, r *http.Request) {
	var req permanentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.ID("newAddressId", req.NewAddressID > 0)
	if v.Reject(w, requestID(r)) {
		return
	}
	ok, err := h.Employees.SetPermanentAddress(r.Context(), req.OldAddressID, req.NewAddressID, employeeID(r))
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "address not found", requestID(r))
		return
	}
	api.Success(w, map[string]any{"permanentAddressId": req.NewAddressID}, requestID(r))
}

func (h *Handler) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	addressID, valid := shared.Int64Param(r, "addressID")
	v := shared.NewValidator()
	v.ID("addressId", valid)
	if v.Reject(w, requestID(r)) {
		return
	}
	var fields core.AddressFields
	if err := shared.DecodeJSON(r, &fields); err != nil {
		badBody(w, r, err)
		return
	}
	ok, err := h.Employees.UpdateAddress(r.Context(), addressID, employeeID(r), fields)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "address not found", requestID(r))
		return
	}
	api.Success(w, map[string]any{"id": addressID, "updated": true}, requestID(r))
}

func (h *Handler) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	addressID, valid := shared.Int64Param(r, "addressID")
	v := shared.NewValidator()
	v.ID("addressId", valid)
	if v.Reject(w, requestID(r)) {
		return
	}
	ok, err := h.Employees.DeleteAddress(r.Context(), addressID, employeeID(r))
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "address not found", requestID(r))
		return
	}
	api.Success(w, map[string]any{"id": addressID, "deleted": true}, requestID(r))
}

func (h *Handler) handleAssignedProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Assignments.AssignedProjects(r.Context(), employeeID(r))
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, projects, requestID(r))
}

func (h *Handler) handleAssignableProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Assignments.AssignableProjects(r.Context(), employeeID(r))
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, projects, requestID(r))
}

type assignProjectsRequest struct {
	ProjectIDs []int64 `json:"projectIds"`
}

func (h *Handler) handleAssignProjects(w http.ResponseWriter, r *http.Request) {
	var req assignProjectsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	v := shared.NewValidator()
	if len(req.ProjectIDs) == 0 {
		v.Add("projectIds", "must name at least one project")
	}
	if v.Reject(w, requestID(r)) {
		return
	}
	result, err := h.Assignments.AssignProjects(r.Context(), employeeID(r), req.ProjectIDs)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	api.Success(w, result, requestID(r))
}

func (h *Handler) handleUnassignProject(w http.ResponseWriter, r *http.Request) {
	projectID, valid := shared.Int64Param(r, "projectID")
	v := shared.NewValidator()
	v.ID("projectId", valid)
	if v.Reject(w, requestID(r)) {
		return
	}
	ok, err := h.Assignments.UnassignProject(r.Context(), employeeID(r), projectID)
	if err != nil {
		api.FromError(w, err, requestID(r))
		return
	}
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", requestID(r))
		return
	}
	api.Success(w, map[string]any{"employeeId": employeeID(r), "projectId": projectID}, requestID(r))
}
