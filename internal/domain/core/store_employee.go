package core

import (
	"context"
	"errors"
	"sort"
)

const employeeColumns = `
    SELECT id, name, date_of_birth, email,
           COALESCE(salary::text, ''), salary_enc,
           is_deleted, version, created_at, updated_at
    FROM employees`

func (t *storeTx) scanEmployee(row interface{ Scan(dest ...any) error }) (Employee, error) {
	var emp Employee
	var salaryPlain string
	var salaryEnc []byte
	err := row.Scan(
		&emp.ID, &emp.Name, &emp.DateOfBirth, &emp.Email,
		&salaryPlain, &salaryEnc,
		&emp.IsDeleted, &emp.Version, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return Employee{}, err
	}
	if emp.Salary, err = openSalary(t.crypto, salaryEnc, salaryPlain); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (t *storeTx) LoadEmployee(ctx context.Context, id string) (*Employee, error) {
	emp, err := t.scanEmployee(t.tx.QueryRow(ctx, employeeColumns+` WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	list := []Employee{emp}
	if err := t.attachEmployeeChildren(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (t *storeTx) ListEmployees(ctx context.Context, state State) ([]Employee, error) {
	rows, err := t.tx.Query(ctx, employeeColumns+" "+stateClause(state)+` ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := t.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := t.attachEmployeeChildren(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachEmployeeChildren loads addresses and assigned project ids for every employee in one
// query each.
func (t *storeTx) attachEmployeeChildren(ctx context.Context, emps []Employee) error {
	if len(emps) == 0 {
		return nil
	}
	ids := make([]string, len(emps))
	index := make(map[string]int, len(emps))
	for i := range emps {
		ids[i] = emps[i].ID
		index[emps[i].ID] = i
		emps[i].Addresses = []Address{}
		emps[i].ProjectIDs = []int64{}
	}

	rows, err := t.tx.Query(ctx, `
    SELECT id, employee_id, door_no, street, locality, pincode, district, state, is_permanent
    FROM addresses
    WHERE employee_id = ANY($1)
    ORDER BY id
  `, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var addr Address
		if err := rows.Scan(
			&addr.ID, &addr.EmployeeID, &addr.DoorNo, &addr.Street, &addr.Locality,
			&addr.Pincode, &addr.District, &addr.State, &addr.IsPermanent,
		); err != nil {
			rows.Close()
			return err
		}
		i := index[addr.EmployeeID]
		emps[i].Addresses = append(emps[i].Addresses, addr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = t.tx.Query(ctx, `
    SELECT employee_id, project_id
    FROM project_assignments
    WHERE employee_id = ANY($1)
    ORDER BY project_id
  `, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var employeeID string
		var projectID int64
		if err := rows.Scan(&employeeID, &projectID); err != nil {
			return err
		}
		i := index[employeeID]
		emps[i].ProjectIDs = append(emps[i].ProjectIDs, projectID)
	}
	return rows.Err()
}

func (t *storeTx) SaveEmployee(ctx context.Context, emp *Employee) error {
	salaryPlain, salaryEnc, err := sealSalary(t.crypto, emp.Salary)
	if err != nil {
		return err
	}
	err = t.tx.QueryRow(ctx, `
    INSERT INTO employees (id, name, date_of_birth, email, salary, salary_enc, is_deleted, version)
    VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, 1)
    RETURNING version, created_at, updated_at
  `, emp.ID, emp.Name, emp.DateOfBirth, emp.Email, salaryPlain, salaryEnc, emp.IsDeleted,
	).Scan(&emp.Version, &emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	for i := range emp.Addresses {
		emp.Addresses[i].EmployeeID = emp.ID
		if err := t.insertAddress(ctx, &emp.Addresses[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateEmployee overwrites the employee row under a version check and reconciles the address
// collection against what is stored: missing addresses are deleted, known ones updated and new
// ones inserted.
func (t *storeTx) UpdateEmployee(ctx context.Context, emp *Employee) error {
	salaryPlain, salaryEnc, err := sealSalary(t.crypto, emp.Salary)
	if err != nil {
		return err
	}
	err = t.tx.QueryRow(ctx, `
    UPDATE employees
    SET name = $1,
        date_of_birth = $2,
        email = $3,
        salary = $4::numeric,
        salary_enc = $5,
        is_deleted = $6,
        version = version + 1,
        updated_at = now()
    WHERE id = $7 AND version = $8
    RETURNING version, updated_at
  `, emp.Name, emp.DateOfBirth, emp.Email, salaryPlain, salaryEnc, emp.IsDeleted, emp.ID, emp.Version,
	).Scan(&emp.Version, &emp.UpdatedAt)
	if err != nil {
		if err = mapErr(err); errors.Is(err, ErrRecordNotFound) {
			return ErrStaleVersion
		}
		return err
	}
	return t.reconcileAddresses(ctx, emp)
}

func (t *storeTx) reconcileAddresses(ctx context.Context, emp *Employee) error {
	keep := make([]int64, 0, len(emp.Addresses))
	for _, addr := range emp.Addresses {
		if addr.ID > 0 {
			keep = append(keep, addr.ID)
		}
	}
	if _, err := t.tx.Exec(ctx, `
    DELETE FROM addresses
    WHERE employee_id = $1 AND NOT (id = ANY($2))
  `, emp.ID, keep); err != nil {
		return mapErr(err)
	}

	// Demotions run before promotions so the one-permanent index never sees two flags.
	order := make([]int, len(emp.Addresses))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return !emp.Addresses[order[a]].IsPermanent && emp.Addresses[order[b]].IsPermanent
	})

	for _, i := range order {
		addr := &emp.Addresses[i]
		addr.EmployeeID = emp.ID
		if addr.ID == 0 {
			if err := t.insertAddress(ctx, addr); err != nil {
				return err
			}
			continue
		}
		cmd, err := t.tx.Exec(ctx, `
      UPDATE addresses
      SET door_no = $1, street = $2, locality = $3, pincode = $4, district = $5, state = $6, is_permanent = $7
      WHERE id = $8 AND employee_id = $9
    `, addr.DoorNo, addr.Street, addr.Locality, addr.Pincode, addr.District, addr.State, addr.IsPermanent,
			addr.ID, emp.ID)
		if err != nil {
			return mapErr(err)
		}
		if cmd.RowsAffected() == 0 {
			return ErrStaleVersion
		}
	}
	return nil
}

func (t *storeTx) insertAddress(ctx context.Context, addr *Address) error {
	err := t.tx.QueryRow(ctx, `
    INSERT INTO addresses (employee_id, door_no, street, locality, pincode, district, state, is_permanent)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id
  `, addr.EmployeeID, addr.DoorNo, addr.Street, addr.Locality, addr.Pincode, addr.District, addr.State,
		addr.IsPermanent).Scan(&addr.ID)
	return mapErr(err)
}
