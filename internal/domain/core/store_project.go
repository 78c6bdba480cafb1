package core

import (
	"context"
	"errors"
)

const projectColumns = `
    SELECT id, name, manager, client, deadline, is_deleted, version, created_at, updated_at
    FROM projects`

func scanProject(row interface{ Scan(dest ...any) error }) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Manager, &p.Client, &p.Deadline, &p.IsDeleted, &p.Version,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (t *storeTx) LoadProject(ctx context.Context, id int64) (*Project, error) {
	p, err := scanProject(t.tx.QueryRow(ctx, projectColumns+` WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	list := []Project{p}
	if err := t.attachProjectEmployees(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (t *storeTx) ListProjects(ctx context.Context, state State) ([]Project, error) {
	rows, err := t.tx.Query(ctx, projectColumns+" "+stateClause(state)+` ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := t.attachProjectEmployees(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *storeTx) attachProjectEmployees(ctx context.Context, projects []Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]int64, len(projects))
	index := make(map[int64]int, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		index[projects[i].ID] = i
		projects[i].AssignedEmployeeIDs = []string{}
	}
	rows, err := t.tx.Query(ctx, `
    SELECT project_id, employee_id
    FROM project_assignments
    WHERE project_id = ANY($1)
    ORDER BY employee_id
  `, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var projectID int64
		var employeeID string
		if err := rows.Scan(&projectID, &employeeID); err != nil {
			return err
		}
		i := index[projectID]
		projects[i].AssignedEmployeeIDs = append(projects[i].AssignedEmployeeIDs, employeeID)
	}
	return rows.Err()
}

func (t *storeTx) SaveProject(ctx context.Context, p *Project) error {
	err := t.tx.QueryRow(ctx, `
    INSERT INTO projects (name, manager, client, deadline, is_deleted, version)
    VALUES ($1, $2, $3, $4, $5, 1)
    RETURNING id, version, created_at, updated_at
  `, p.Name, p.Manager, p.Client, p.Deadline, p.IsDeleted).Scan(&p.ID, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	p.AssignedEmployeeIDs = []string{}
	return nil
}

func (t *storeTx) UpdateProject(ctx context.Context, p *Project) error {
	err := t.tx.QueryRow(ctx, `
    UPDATE projects
    SET name = $1,
        manager = $2,
        client = $3,
        deadline = $4,
        is_deleted = $5,
        version = version + 1,
        updated_at = now()
    WHERE id = $6 AND version = $7
    RETURNING version, updated_at
  `, p.Name, p.Manager, p.Client, p.Deadline, p.IsDeleted, p.ID, p.Version).Scan(&p.Version, &p.UpdatedAt)
	if err != nil {
		if err = mapErr(err); errors.Is(err, ErrRecordNotFound) {
			return ErrStaleVersion
		}
		return err
	}
	return nil
}

func (t *storeTx) AddAssignments(ctx context.Context, edges []Assignment) error {
	if len(edges) == 0 {
		return nil
	}
	projectIDs := make([]int64, len(edges))
	employeeIDs := make([]string, len(edges))
	for i, edge := range edges {
		projectIDs[i] = edge.ProjectID
		employeeIDs[i] = edge.EmployeeID
	}
	_, err := t.tx.Exec(ctx, `
    INSERT INTO project_assignments (project_id, employee_id)
    SELECT * FROM unnest($1::bigint[], $2::text[])
    ON CONFLICT DO NOTHING
  `, projectIDs, employeeIDs)
	return mapErr(err)
}

func (t *storeTx) RemoveAssignment(ctx context.Context, edge Assignment) (bool, error) {
	cmd, err := t.tx.Exec(ctx, `
    DELETE FROM project_assignments
    WHERE project_id = $1 AND employee_id = $2
  `, edge.ProjectID, edge.EmployeeID)
	if err != nil {
		return false, mapErr(err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (t *storeTx) ClearProjectAssignments(ctx context.Context, projectID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM project_assignments WHERE project_id = $1`, projectID)
	return mapErr(err)
}
