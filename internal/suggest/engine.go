package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"bizmatch/internal/core/cache"
	"bizmatch/internal/domain"
)

const defaultAvatar = "/images/default-avatar.png"

// Suggestion 候选摘要
type Suggestion struct {
	ID                string         `json:"id"`
	Type              domain.Role    `json:"type"`
	Name              string         `json:"name"`
	Industry          string         `json:"industry"`
	Location          string         `json:"location"`
	Reason            string         `json:"reason"`
	MatchScore        int            `json:"matchScore"`
	ProfilePicture    string         `json:"profilePicture"`
	BriefIntroduction string         `json:"briefIntroduction"`
	Website           string         `json:"website"`
	Extras            map[string]any `json:"extras,omitempty"`
}

type Options struct {
	DefaultLimit    int
	OverfetchFactor int
	CacheTTL        time.Duration // 0 关闭缓存
}

func (o Options) normalized() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 10
	}
	if o.OverfetchFactor <= 0 {
		o.OverfetchFactor = 3
	}
	return o
}

// Engine 建议引擎：目录 + 台账只读，两阶段 filter-then-rank
type Engine struct {
	users domain.UserRepository
	conns domain.ConnectionRepository
	cache *cache.Cache // 可为 nil
	log   *zap.Logger
	opts  Options
}

func NewEngine(users domain.UserRepository, conns domain.ConnectionRepository, c *cache.Cache, l *zap.Logger, opts Options) *Engine {
	return &Engine{users: users, conns: conns, cache: c, log: l, opts: opts.normalized()}
}

// GetSuggestions 为请求者生成至多 limit 条排序后的候选。
// typeFilter 非空时覆盖默认目标角色集
func (e *Engine) GetSuggestions(ctx context.Context, userID string, limit int, typeFilter domain.Role) ([]Suggestion, error) {
	if limit <= 0 {
		limit = e.opts.DefaultLimit
	}
	if typeFilter != "" && !typeFilter.Valid() {
		return nil, fmt.Errorf("%w: unknown type filter %q", domain.ErrValidation, typeFilter)
	}

	if e.cache != nil && e.opts.CacheTTL > 0 {
		key := fmt.Sprintf("suggest:%s:%d:%s", userID, limit, typeFilter)
		out, err := cache.GetOrLoadJSON[[]Suggestion](e.cache, ctx, key, e.opts.CacheTTL,
			func(ctx context.Context) (*[]Suggestion, error) {
				s, err := e.compute(ctx, userID, limit, typeFilter)
				if err != nil {
					return nil, err
				}
				return &s, nil
			})
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, nil
		}
		return *out, nil
	}
	return e.compute(ctx, userID, limit, typeFilter)
}

func (e *Engine) compute(ctx context.Context, userID string, limit int, typeFilter domain.Role) ([]Suggestion, error) {
	cur, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cur == nil || !cur.IsActive {
		return nil, fmt.Errorf("%w: requester %s", domain.ErrNotFound, userID)
	}

	// 排除集：与请求者有过任意状态请求往来的对端 + 自己
	exclude, err := e.conns.CounterpartIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude = append(exclude, userID)

	roles := TargetRoles(cur.Role)
	if typeFilter != "" {
		roles = []domain.Role{typeFilter}
	}
	if len(roles) == 0 {
		return []Suggestion{}, nil
	}

	filter := domain.CandidateFilter{
		Roles:      roles,
		ExcludeIDs: exclude,
		Limit:      limit * e.opts.OverfetchFactor, // 过量拉取给排序留余量
	}
	if industryHardFilter(cur.Role) && cur.Industry != "" {
		filter.Industry = cur.Industry
	}

	candidates, err := e.users.FindCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(candidates))
	for i := range candidates {
		cand := &candidates[i]
		suggestions = append(suggestions, Suggestion{
			ID:                cand.ID,
			Type:              cand.Role,
			Name:              cand.DisplayName(),
			Industry:          cand.Industry,
			Location:          cand.Location(),
			Reason:            Reasons(cur, cand),
			MatchScore:        Score(cur, cand),
			ProfilePicture:    avatarOrDefault(cand.ProfilePicture),
			BriefIntroduction: cand.BriefIntroduction,
			Website:           cand.Website,
			Extras:            roleExtras(cand),
		})
	}

	// 分数降序，平分保持查询顺序（stable）
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].MatchScore > suggestions[j].MatchScore
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// RecordFeedback 反馈目前只记日志，刻意不影响后续打分（留作个性化钩子）
func (e *Engine) RecordFeedback(ctx context.Context, userID, suggestionID, feedback, action string) error {
	if strings.TrimSpace(suggestionID) == "" || strings.TrimSpace(feedback) == "" {
		return fmt.Errorf("%w: suggestionId and feedback are required", domain.ErrValidation)
	}
	if action == "" {
		action = "viewed"
	}
	e.log.Info("suggestion feedback",
		zap.String("user", userID),
		zap.String("suggestion", suggestionID),
		zap.String("feedback", feedback),
		zap.String("action", action),
	)
	return nil
}

// roleExtras 按候选角色的显式投影，default 分支为空
func roleExtras(u *domain.User) map[string]any {
	switch u.Role {
	case domain.RoleInvestor:
		return map[string]any{
			"investmentFundSize": u.Investor.InvestmentFundSize,
			"investmentType":     u.Investor.InvestmentType,
		}
	case domain.RoleSeller:
		return map[string]any{
			"investmentRequired": u.Seller.InvestmentRequired,
			"saleType":           u.Seller.SaleType,
		}
	case domain.RoleStartup:
		return map[string]any{
			"investmentRequirement": u.Startup.InvestmentRequirement,
			"businessModel":         u.Startup.BusinessModel,
		}
	case domain.RoleConsultant:
		return map[string]any{
			"services":           u.Consultant.ServicesProvided,
			"businessesAssisted": u.Consultant.BusinessesAssisted,
		}
	case domain.RoleFranchise:
		return map[string]any{
			"franchiseeCount":      u.Franchise.FranchiseeCount,
			"franchiseDescription": u.Franchise.FranchiseDescription,
		}
	case domain.RoleImpexp:
		return map[string]any{
			"goodsExported": u.Impexp.GoodsExported,
			"goodsImported": u.Impexp.GoodsImported,
		}
	default:
		return nil
	}
}

func avatarOrDefault(p string) string {
	if p == "" {
		return defaultAvatar
	}
	return p
}
