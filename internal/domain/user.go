package domain

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 目录根实体：身份 + 核心资料 + 按角色打标签的变体载荷。
// 角色专属字段只允许通过 RoleFields()/InvestmentRequired() 这类显式开关访问，
// 角色为 X 的用户不会暴露 Y 角色的字段。
type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Email        string `gorm:"uniqueIndex;size:191" json:"email"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	FirstName    string `gorm:"size:64" json:"firstName"`
	LastName     string `gorm:"size:64" json:"lastName"`
	Phone        string `gorm:"size:32" json:"phone"`

	Role Role `gorm:"size:16;index;not null;default:pending" json:"role"`

	// 核心公司资料（step1/step2）
	CompanyName         string `gorm:"size:191" json:"companyName"`
	Website             string `gorm:"size:191" json:"website"`
	LinkedinProfile     string `gorm:"size:191" json:"linkedinProfile"`
	City                string `gorm:"size:64;index:idx_users_location" json:"city"`
	State               string `gorm:"size:64;index:idx_users_location" json:"state"`
	Country             string `gorm:"size:64;index:idx_users_location" json:"country"`
	PinCode             string `gorm:"size:16" json:"pinCode"`
	CompanyType         string `gorm:"size:64" json:"companyType"`
	YearOfRegistration  int    `json:"yearOfRegistration"`
	Industry            string `gorm:"size:64;index" json:"industry"`
	BriefIntroduction   string `gorm:"size:255" json:"briefIntroduction"`
	BusinessDescription string `gorm:"type:text" json:"businessDescription"`
	GstOrCin            string `gorm:"size:64" json:"gstOrCin"`
	ProfilePicture      string `gorm:"size:255" json:"profilePicture"`

	// 角色变体载荷（同表不同前缀；读取只走 RoleFields）
	Investor   InvestorProfile   `gorm:"embedded;embeddedPrefix:inv_" json:"-"`
	Seller     SellerProfile     `gorm:"embedded;embeddedPrefix:sel_" json:"-"`
	Startup    StartupProfile    `gorm:"embedded;embeddedPrefix:stp_" json:"-"`
	Consultant ConsultantProfile `gorm:"embedded;embeddedPrefix:con_" json:"-"`
	Franchise  FranchiseProfile  `gorm:"embedded;embeddedPrefix:frn_" json:"-"`
	Impexp     ImpexpProfile     `gorm:"embedded;embeddedPrefix:imp_" json:"-"`

	// 注册步骤
	Step1Completed bool `json:"step1Completed"`
	Step2Completed bool `json:"step2Completed"`
	Step3Completed bool `json:"step3Completed"`
	Step4Completed bool `json:"step4Completed"`

	IsVerified       bool       `json:"isVerified"`
	IsActive         bool       `gorm:"default:true" json:"isActive"`
	ProfileCompleted bool       `gorm:"index" json:"profileCompleted"`
	LastLogin        *time.Time `json:"lastLogin"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

type InvestorProfile struct {
	AcquisitionCriteria string         `gorm:"size:255" json:"acquisitionCriteria,omitempty"`
	InvestmentFundSize  float64        `json:"investmentFundSize,omitempty"`
	InvestmentType      string         `gorm:"size:32" json:"investmentType,omitempty"` // Full Buyout / Partial
	LocationPreferences datatypes.JSON `json:"locationPreferences,omitempty"`
	PreviousInvestments int            `json:"previousInvestments,omitempty"`
}

type SellerProfile struct {
	ProductsAndServices       string  `gorm:"type:text" json:"productsAndServices,omitempty"`
	MarketAndSalesInfo        string  `gorm:"type:text" json:"marketAndSalesInfo,omitempty"`
	AssetsIncluded            string  `gorm:"size:255" json:"assetsIncluded,omitempty"`
	CompanyStructure          string  `gorm:"size:64" json:"companyStructure,omitempty"`
	LastFYRevenue             float64 `json:"lastFYRevenue,omitempty"`
	WasPatPositive            bool    `json:"wasPatPositive,omitempty"`
	CurrentFYProjectedRevenue float64 `json:"currentFYProjectedRevenue,omitempty"`
	FullTimeEmployees         int     `json:"fullTimeEmployees,omitempty"`
	InvestmentRequired        float64 `json:"investmentRequired,omitempty"`
	SaleType                  string  `gorm:"size:32" json:"saleType,omitempty"`
	SalePercentage            float64 `json:"salePercentage,omitempty"`
	ReasonForSale             string  `gorm:"size:255" json:"reasonForSale,omitempty"`
	ReasonForInvestment       string  `gorm:"size:255" json:"reasonForInvestment,omitempty"`
}

type StartupProfile struct {
	BusinessIdea          string `gorm:"type:text" json:"businessIdea,omitempty"`
	ProblemSolved         string `gorm:"type:text" json:"problemSolved,omitempty"`
	BusinessModel         string `gorm:"size:255" json:"businessModel,omitempty"`
	InvestmentRequirement string `gorm:"size:64" json:"investmentRequirement,omitempty"`
	OfferToInvestor       string `gorm:"size:255" json:"offerToInvestor,omitempty"`
}

type ConsultantProfile struct {
	ServicesProvided   string `gorm:"type:text" json:"servicesProvided,omitempty"`
	BusinessesAssisted int    `json:"businessesAssisted,omitempty"`
}

type FranchiseProfile struct {
	FranchiseeCount         string         `gorm:"size:16" json:"franchiseeCount,omitempty"` // "1-3".."100+"
	FranchiseDescription    string         `gorm:"type:text" json:"franchiseDescription,omitempty"`
	CitiesOffered           datatypes.JSON `json:"citiesOffered,omitempty"`
	MinimumShopSpace        datatypes.JSON `json:"minimumShopSpace,omitempty"` // {value, unit, applicable}
	MinimumOpenSpace        datatypes.JSON `json:"minimumOpenSpace,omitempty"`
	PriorExperienceRequired bool           `json:"priorExperienceRequired,omitempty"`
	AdditionalRequirements  string         `gorm:"size:255" json:"additionalRequirements,omitempty"`
}

type ImpexpProfile struct {
	DetailedDescription string         `gorm:"type:text" json:"detailedDescription,omitempty"`
	GoodsExported       datatypes.JSON `json:"goodsExported,omitempty"` // [{name, hsnCode}]
	GoodsImported       datatypes.JSON `json:"goodsImported,omitempty"`
	GoodsForBuyers      datatypes.JSON `json:"goodsForBuyers,omitempty"`
	GoodsForSuppliers   datatypes.JSON `json:"goodsForSuppliers,omitempty"`
	IECNumber           string         `gorm:"size:32" json:"iecNumber,omitempty"`
}

// RoleFields 角色变体投影：显式 switch，default 返回空集
func (u *User) RoleFields() any {
	switch u.Role {
	case RoleInvestor:
		return u.Investor
	case RoleSeller:
		return u.Seller
	case RoleStartup:
		return u.Startup
	case RoleConsultant:
		return u.Consultant
	case RoleFranchise:
		return u.Franchise
	case RoleImpexp:
		return u.Impexp
	default:
		return struct{}{}
	}
}

// DisplayName 公司名优先，否则姓名拼接
func (u *User) DisplayName() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	return u.FirstName + " " + u.LastName
}

// Location "city state country" 去掉空段
func (u *User) Location() string {
	out := ""
	for _, part := range []string{u.City, u.State, u.Country} {
		if part == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += part
	}
	return out
}

// InvestmentRequired 仅 seller 角色有意义，其余恒为 0
func (u *User) InvestmentRequired() float64 {
	if u.Role == RoleSeller {
		return u.Seller.InvestmentRequired
	}
	return 0
}

// AllStepsCompleted 四步齐全才算资料完整
func (u *User) AllStepsCompleted() bool {
	return u.Step1Completed && u.Step2Completed && u.Step3Completed && u.Step4Completed
}

// CandidateFilter 建议候选查询条件
type CandidateFilter struct {
	Roles      []Role
	ExcludeIDs []string
	Industry   string // 非空则作硬过滤
	Limit      int
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdateFields(ctx context.Context, id string, patch map[string]any) error
	List(ctx context.Context, offset, limit int, search string, withDeleted bool) ([]User, int64, error)
	Deactivate(ctx context.Context, id string) error
	FindCandidates(ctx context.Context, f CandidateFilter) ([]User, error)
}
