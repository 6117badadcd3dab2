package suggest

import (
	"strings"

	"bizmatch/internal/domain"
)

// 打分常量。总分钳制在 [0,100]
const (
	baseScore          = 30
	industryBonus      = 25
	sameCityBonus      = 20
	sameStateBonus     = 15
	sameCountryBonus   = 10
	pairBonusHigh      = 30 // franchise↔consultant、impexp↔consultant
	pairBonusMedium    = 25 // seller/startup ↔ investor
	pairBonusHub       = 20 // 单向枢纽关系
	investmentAskBonus = 15 // 投资方 + 候选有融资需求
	introBonus         = 5
	websiteBonus       = 5
	maxScore           = 100
)

// Score 纯函数打分：同一份 (requester, candidate) 快照永远得到同一个分数。
// 候选的可选字段缺失一律按零值处理，不会让整个请求失败
func Score(cur, cand *domain.User) int {
	score := baseScore

	if sameIndustry(cur, cand) {
		score += industryBonus
	}

	// 位置加成互斥，只取命中的最高一档
	switch {
	case sameField(cur.City, cand.City):
		score += sameCityBonus
	case sameField(cur.State, cand.State):
		score += sameStateBonus
	case sameField(cur.Country, cand.Country):
		score += sameCountryBonus
	}

	score += rolePairBonus(cur.Role, cand.Role)

	if cur.Role == domain.RoleInvestor && cand.InvestmentRequired() > 0 {
		score += investmentAskBonus
	}

	if strings.TrimSpace(cand.BriefIntroduction) != "" {
		score += introBonus
	}
	if strings.TrimSpace(cand.Website) != "" {
		score += websiteBonus
	}

	if score > maxScore {
		return maxScore
	}
	return score
}

// rolePairBonus 角色关系加成。双向高优先 > 双向中优先 > 单向枢纽
func rolePairBonus(a, b domain.Role) int {
	if pairEither(a, b, domain.RoleFranchise, domain.RoleConsultant) ||
		pairEither(a, b, domain.RoleImpexp, domain.RoleConsultant) {
		return pairBonusHigh
	}
	if (sellSide(a) && b == domain.RoleInvestor) || (a == domain.RoleInvestor && sellSide(b)) {
		return pairBonusMedium
	}
	if sellSide(a) && b == domain.RoleConsultant {
		return pairBonusHub
	}
	if a == domain.RoleConsultant && b == domain.RoleInvestor {
		return pairBonusHub
	}
	if (a == domain.RoleFranchise || a == domain.RoleImpexp) && b == domain.RoleInvestor {
		return pairBonusHub
	}
	return 0
}

// Reasons 用与打分相同的谓词生成匹配理由，保证理由与分数不自相矛盾
func Reasons(cur, cand *domain.User) string {
	var reasons []string

	if sameIndustry(cur, cand) {
		reasons = append(reasons, "Same industry")
	}
	if sameField(cur.City, cand.City) {
		reasons = append(reasons, "Same location")
	}

	a, b := cur.Role, cand.Role
	switch {
	case sellSide(a) && b == domain.RoleInvestor:
		reasons = append(reasons, "Investment/business opportunity")
	case a == domain.RoleInvestor && sellSide(b):
		reasons = append(reasons, "Potential investment target")
	}

	if b == domain.RoleConsultant {
		switch a {
		case domain.RoleFranchise:
			reasons = append(reasons, "Franchise development consulting")
		case domain.RoleImpexp:
			reasons = append(reasons, "Trade consulting & advisory")
		default:
			reasons = append(reasons, "Business expertise & guidance")
		}
	}

	if a == domain.RoleConsultant {
		switch {
		case sellSide(b):
			reasons = append(reasons, "Business development opportunity")
		case b == domain.RoleFranchise:
			reasons = append(reasons, "Franchise expansion consulting")
		case b == domain.RoleImpexp:
			reasons = append(reasons, "Import/export consulting")
		}
	}

	if b == domain.RoleInvestor {
		switch a {
		case domain.RoleFranchise:
			reasons = append(reasons, "Franchise investment opportunity")
		case domain.RoleImpexp:
			reasons = append(reasons, "International trade opportunity")
		}
	}

	if len(reasons) == 0 {
		return "Potential business opportunity"
	}
	return strings.Join(reasons, ", ")
}

func sellSide(r domain.Role) bool {
	return r == domain.RoleSeller || r == domain.RoleStartup
}

func pairEither(a, b, x, y domain.Role) bool {
	return (a == x && b == y) || (a == y && b == x)
}

func sameIndustry(cur, cand *domain.User) bool {
	return sameField(cur.Industry, cand.Industry)
}

// sameField 空值不算命中
func sameField(a, b string) bool {
	return a != "" && a == b
}
