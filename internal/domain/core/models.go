package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindEmployee Kind = "employee"
	KindProject  Kind = "project"
	KindAddress  Kind = "address"
)

// State selects entities by their soft-delete flag.
type State int

const (
	StateAny State = iota
	StateActive
	StateDeleted
)

func (s State) Matches(isDeleted bool) bool {
	switch s {
	case StateActive:
		return !isDeleted
	case StateDeleted:
		return isDeleted
	default:
		return true
	}
}

type Employee struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DateOfBirth time.Time       `json:"dateOfBirth"`
	Email       string          `json:"email"`
	Salary      decimal.Decimal `json:"salary"`
	IsDeleted   bool            `json:"isDeleted"`
	Addresses   []Address       `json:"addresses"`
	// ProjectIDs is derived from the assignment relation and ignored on update.
	ProjectIDs []int64   `json:"projectIds"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Address struct {
	ID          int64  `json:"id"`
	EmployeeID  string `json:"employeeId"`
	DoorNo      string `json:"doorNo"`
	Street      string `json:"street"`
	Locality    string `json:"locality"`
	Pincode     string `json:"pincode"`
	District    string `json:"district"`
	State       string `json:"state"`
	IsPermanent bool   `json:"isPermanent"`
}

type AddressFields struct {
	DoorNo      string `json:"doorNo"`
	Street      string `json:"street"`
	Locality    string `json:"locality"`
	Pincode     string `json:"pincode"`
	District    string `json:"district"`
	State       string `json:"state"`
	IsPermanent bool   `json:"isPermanent"`
}

func (f AddressFields) ToAddress(employeeID string) Address {
	return Address{
		EmployeeID:  employeeID,
		DoorNo:      f.DoorNo,
		Street:      f.Street,
		Locality:    f.Locality,
		Pincode:     f.Pincode,
		District:    f.District,
		State:       f.State,
		IsPermanent: f.IsPermanent,
	}
}

type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Manager   string    `json:"manager"`
	Client    string    `json:"client"`
	Deadline  time.Time `json:"deadline"`
	IsDeleted bool      `json:"isDeleted"`
	// AssignedEmployeeIDs is derived from the assignment relation and ignored on update.
	AssignedEmployeeIDs []string  `json:"assignedEmployeeIds"`
	Version             int64     `json:"version"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Assignment is one edge of the employee/project relation.
type Assignment struct {
	ProjectID  int64  `json:"projectId"`
	EmployeeID string `json:"employeeId"`
}

type EmployeeSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDeleted bool   `json:"isDeleted"`
}

type ProjectSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsDeleted bool   `json:"isDeleted"`
}

func (e Employee) Summary() EmployeeSummary {
	return EmployeeSummary{ID: e.ID, Name: e.Name, IsDeleted: e.IsDeleted}
}

func (p Project) Summary() ProjectSummary {
	return ProjectSummary{ID: p.ID, Name: p.Name, IsDeleted: p.IsDeleted}
}

func (e *Employee) Address(addressID int64) (*Address, bool) {
	for i := range e.Addresses {
		if e.Addresses[i].ID == addressID {
			return &e.Addresses[i], true
		}
	}
	return nil, false
}

// PermanentCount reports how many addresses carry the permanent flag.
func (e *Employee) PermanentCount() int {
	count := 0
	for _, addr := range e.Addresses {
		if addr.IsPermanent {
			count++
		}
	}
	return count
}

func (e *Employee) HasProject(projectID int64) bool {
	for _, id := range e.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

func (p *Project) HasEmployee(employeeID string) bool {
	for _, id := range p.AssignedEmployeeIDs {
		if id == employeeID {
			return true
		}
	}
	return false
}

// EmployeePatch carries a partial employee update; nil fields are left unchanged.
type EmployeePatch struct {
	Name        *string          `json:"name,omitempty"`
	DateOfBirth *string          `json:"dateOfBirth,omitempty"`
	Salary      *decimal.Decimal `json:"salary,omitempty"`
	Email       *string          `json:"email,omitempty"`
}

// ProjectPatch carries a partial project update. Nil or blank fields keep the current value.
type ProjectPatch struct {
	Name     *string `json:"name,omitempty"`
	Manager  *string `json:"manager,omitempty"`
	Client   *string `json:"client,omitempty"`
	Deadline *string `json:"deadline,omitempty"`
}

type NewEmployee struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	DateOfBirth string          `json:"dateOfBirth"`
	Email       string          `json:"email"`
	Salary      decimal.Decimal `json:"salary"`
	Addresses   []AddressFields `json:"addresses"`
}

type NewProject struct {
	Name     string `json:"name" validate:"required"`
	Manager  string `json:"manager"`
	Client   string `json:"client"`
	Deadline string `json:"deadline"`
}

// AssignmentResult reports a batch assignment. Unassignable holds every requested id that
// did not end up assigned, in request order.
type AssignmentResult struct {
	Requested    []string `json:"requested"`
	Unassignable []string `json:"unassignable"`
}

func (r AssignmentResult) Assigned() int {
	return len(r.Requested) - len(r.Unassignable)
}

// ProjectAssignmentResult is AssignmentResult seen from the employee side.
type ProjectAssignmentResult struct {
	Requested    []int64 `json:"requested"`
	Unassignable []int64 `json:"unassignable"`
}

func (r ProjectAssignmentResult) Assigned() int {
	return len(r.Requested) - len(r.Unassignable)
}
