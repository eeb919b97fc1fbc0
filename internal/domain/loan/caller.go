package loan

type Role string

const (
	RoleCustomer    Role = "CUSTOMER"
	RoleLoanOfficer Role = "LOAN_OFFICER"
	RoleAdmin       Role = "ADMIN"
	RoleSystem      Role = "SYSTEM"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleLoanOfficer, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}

// Caller is the authenticated identity an operation runs on behalf of.
type Caller struct {
	Subject string
	Role    Role
}

func SystemCaller() Caller {
	return Caller{Subject: "system", Role: RoleSystem}
}

func (c Caller) IsStaff() bool {
	return c.Role == RoleLoanOfficer || c.Role == RoleAdmin || c.Role == RoleSystem
}

func (c Caller) CanAccess(l *Loan) bool {
	return c.IsStaff() || (c.Subject != "" && c.Subject == l.UserID)
}
