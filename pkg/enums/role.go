package enums

// OperatorRole distinguishes full admins from read-mostly hotel staff.
type OperatorRole string

const (
	OperatorRoleAdmin OperatorRole = "admin"
	OperatorRoleStaff OperatorRole = "staff"
)

func (r OperatorRole) IsValid() bool {
	switch r {
	case OperatorRoleAdmin, OperatorRoleStaff:
		return true
	default:
		return false
	}
}

// CanManage reports whether the role may mutate connections, mappings and inventory.
func (r OperatorRole) CanManage() bool {
	return r == OperatorRoleAdmin
}
