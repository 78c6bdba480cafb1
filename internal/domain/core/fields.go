package core

import "workforce/internal/domain/auth"

// CanViewSalary reports whether the caller may read salary figures. Only HR sees them.
func CanViewSalary(user auth.UserContext) bool {
	return user.IsHR()
}
