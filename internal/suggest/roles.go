package suggest

import "bizmatch/internal/domain"

// targetRoles 固定的非对称角色适配表（以 User 模型的闭集角色为准）。
// consultant 是枢纽角色，可达其余全部业务角色；pending 没有目标集。
// 表是单向的：A 的目标集含 B 不代表 B 的目标集含 A。
var targetRoles = map[domain.Role][]domain.Role{
	domain.RoleSeller:     {domain.RoleInvestor, domain.RoleConsultant},
	domain.RoleStartup:    {domain.RoleInvestor, domain.RoleConsultant},
	domain.RoleInvestor:   {domain.RoleSeller, domain.RoleStartup},
	domain.RoleConsultant: {domain.RoleSeller, domain.RoleStartup, domain.RoleFranchise, domain.RoleImpexp, domain.RoleInvestor},
	domain.RoleFranchise:  {domain.RoleConsultant, domain.RoleInvestor},
	domain.RoleImpexp:     {domain.RoleConsultant, domain.RoleInvestor},
}

// TargetRoles 返回角色的目标集副本；未知或 pending 返回空
func TargetRoles(r domain.Role) []domain.Role {
	ts, ok := targetRoles[r]
	if !ok {
		return nil
	}
	out := make([]domain.Role, len(ts))
	copy(out, ts)
	return out
}

// industryHardFilter 投资方按行业做硬过滤（目录查询层面，不只是打分）
func industryHardFilter(r domain.Role) bool {
	return r == domain.RoleInvestor
}
