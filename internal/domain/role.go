package domain

// Role 业务角色（闭集）。注册后为 pending，选择一次后固定
type Role string

const (
	RolePending    Role = "pending"
	RoleInvestor   Role = "investor"
	RoleSeller     Role = "seller"
	RoleStartup    Role = "startup"
	RoleConsultant Role = "consultant"
	RoleFranchise  Role = "franchise"
	RoleImpexp     Role = "impexp"
)

// BusinessRoles 可被选择的角色（不含 pending）
var BusinessRoles = []Role{
	RoleInvestor, RoleSeller, RoleStartup,
	RoleConsultant, RoleFranchise, RoleImpexp,
}

func (r Role) Valid() bool {
	switch r {
	case RolePending, RoleInvestor, RoleSeller, RoleStartup,
		RoleConsultant, RoleFranchise, RoleImpexp:
		return true
	}
	return false
}

// Selectable pending 不可被再次选择
func (r Role) Selectable() bool { return r != RolePending && r.Valid() }
