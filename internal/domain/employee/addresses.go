package employee

import (
	"context"

	"workforce/internal/domain/audit"
	"workforce/internal/domain/core"
)

// AddAddress appends a new address. When the new address is permanent any existing permanent
// address is demoted in the same update.
func (s *Service) AddAddress(ctx context.Context, employeeID string, fields core.AddressFields) (*core.Address, error) {
	const op = "employee.add_address"
	var added core.Address
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		emp, err := tx.LoadEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		addr := fields.ToAddress(employeeID)
		if addr.IsPermanent {
			for i := range emp.Addresses {
				emp.Addresses[i].IsPermanent = false
			}
		}
		emp.Addresses = append(emp.Addresses, addr)
		if err := tx.UpdateEmployee(ctx, emp); err != nil {
			return err
		}
		added = emp.Addresses[len(emp.Addresses)-1]
		return nil
	})
	if err != nil {
		return nil, s.done(ctx, op, employeeID, core.Translate(op, core.KindEmployee, employeeID, err))
	}
	s.record(ctx, audit.ActionUpdate, employeeID, nil, map[string]any{"addressAdded": added.ID})
	return &added, s.done(ctx, op, employeeID, nil)
}

// DeleteAddress removes the address from the employee. It reports false when the employee has
// no such address.
func (s *Service) DeleteAddress(ctx context.Context, addressID int64, employeeID string) (bool, error) {
	const op = "employee.delete_address"
	var removed bool
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		emp, err := tx.LoadEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		kept := emp.Addresses[:0]
		for _, addr := range emp.Addresses {
			if addr.ID == addressID {
				removed = true
				continue
			}
			kept = append(kept, addr)
		}
		if !removed {
			return nil
		}
		emp.Addresses = kept
		return tx.UpdateEmployee(ctx, emp)
	})
	if err != nil {
		return false, s.done(ctx, op, employeeID, core.Translate(op, core.KindEmployee, employeeID, err))
	}
	if removed {
		s.record(ctx, audit.ActionUpdate, employeeID, nil, map[string]any{"addressDeleted": addressID})
	}
	return removed, s.done(ctx, op, employeeID, nil)
}

// SetPermanentAddress makes newID the employee's only permanent address. oldID and any other
// address still flagged permanent are demoted in the same update. It reports false when newID
// does not belong to the employee.
func (s *Service) SetPermanentAddress(ctx context.Context, oldID, newID int64, employeeID string) (bool, error) {
	const op = "employee.set_permanent_address"
	var found bool
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		emp, err := tx.LoadEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		if _, found = emp.Address(newID); !found {
			return nil
		}
		for i := range emp.Addresses {
			emp.Addresses[i].IsPermanent = emp.Addresses[i].ID == newID
		}
		return tx.UpdateEmployee(ctx, emp)
	})
	if err != nil {
		return false, s.done(ctx, op, employeeID, core.Translate(op, core.KindEmployee, employeeID, err))
	}
	if found {
		s.record(ctx, audit.ActionUpdate, employeeID,
			map[string]any{"permanentAddress": oldID}, map[string]any{"permanentAddress": newID})
	}
	return found, s.done(ctx, op, employeeID, nil)
}

// UpdateAddress overwrites the fields of an existing address. The permanent flag is not changed
// here; use SetPermanentAddress.
func (s *Service) UpdateAddress(ctx context.Context, addressID int64, employeeID string, fields core.AddressFields) (bool, error) {
	const op = "employee.update_address"
	var found bool
	err := s.store.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		emp, err := tx.LoadEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		addr, ok := emp.Address(addressID)
		if !ok {
			return nil
		}
		found = true
		updated := fields.ToAddress(employeeID)
		updated.ID = addr.ID
		updated.IsPermanent = addr.IsPermanent
		*addr = updated
		return tx.UpdateEmployee(ctx, emp)
	})
	if err != nil {
		return false, s.done(ctx, op, employeeID, core.Translate(op, core.KindEmployee, employeeID, err))
	}
	if found {
		s.record(ctx, audit.ActionUpdate, employeeID, nil, map[string]any{"addressUpdated": addressID})
	}
	return found, s.done(ctx, op, employeeID, nil)
}

func (s *Service) ListAddresses(ctx context.Context, employeeID string) ([]core.Address, error) {
	emp, err := s.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return emp.Addresses, nil
}
