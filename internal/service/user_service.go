package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"bizmatch/internal/core/auth"
	"bizmatch/internal/domain"
	"bizmatch/pkg/utils"
)

type RegisterInput struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone"`
}

type Step1Input struct {
	CompanyName        string `json:"companyName" binding:"required"`
	Website            string `json:"website"`
	LinkedinProfile    string `json:"linkedinProfile"`
	City               string `json:"city"`
	State              string `json:"state"`
	Country            string `json:"country"`
	PinCode            string `json:"pinCode" binding:"required"`
	CompanyType        string `json:"companyType"`
	YearOfRegistration int    `json:"yearOfRegistration"`
	Industry           string `json:"industry"`
	BriefIntroduction  string `json:"briefIntroduction"`
	GstOrCin           string `json:"gstOrCin" binding:"required"`
	ProfilePicture     string `json:"profilePicture"`
}

// RoleDetails step4 载荷：恰好一个与用户角色匹配的变体非空
type RoleDetails struct {
	Investor   *domain.InvestorProfile   `json:"investor"`
	Seller     *domain.SellerProfile     `json:"seller"`
	Startup    *domain.StartupProfile    `json:"startup"`
	Consultant *domain.ConsultantProfile `json:"consultant"`
	Franchise  *domain.FranchiseProfile  `json:"franchise"`
	Impexp     *domain.ImpexpProfile     `json:"impexp"`
}

// Profile 自己资料视图：核心字段 + 角色变体投影
type Profile struct {
	User       *domain.User `json:"user"`
	RoleFields any          `json:"roleFields"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserService 目录 + 凭证 + 分步注册资料
type UserService struct {
	users domain.UserRepository
	jwt   *auth.JWTer
	log   *zap.Logger
	now   func() time.Time
}

func NewUserService(users domain.UserRepository, jwt *auth.JWTer, l *zap.Logger) *UserService {
	return &UserService{users: users, jwt: jwt, log: l, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", domain.ErrValidation)
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	u := &domain.User{
		ID:           utils.NewID(),
		Email:        in.Email,
		PasswordHash: utils.HashPassword(in.Password),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         domain.RolePending,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("uid", u.ID))
	return u, nil
}

// Login 凭证校验。不存在与密码错返回同一错误，避免枚举
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, nil, fmt.Errorf("%w: invalid email or password", domain.ErrAuth)
	}
	if !u.IsActive {
		return nil, nil, fmt.Errorf("%w: account disabled", domain.ErrAuth)
	}

	now := s.now()
	if err := s.users.UpdateFields(ctx, u.ID, map[string]any{"last_login": now}); err != nil {
		s.log.Warn("last_login update failed", zap.String("uid", u.ID), zap.Error(err))
	}
	u.LastLogin = &now

	pair, err := s.issueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, fmt.Errorf("%w: account disabled", domain.ErrAuth)
	}
	return s.issueTokens(u)
}

// RequestPasswordReset 下发重置 token。邮箱不存在时返回空 token、不报错（防枚举）；
// 邮件投递不在本服务范围，token 由上层交给投递通道
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil || !u.IsActive {
		return "", nil
	}
	token, err := s.jwt.IssueReset(u.ID)
	if err != nil {
		return "", err
	}
	s.log.Info("password reset requested", zap.String("uid", u.ID))
	return token, nil
}

// VerifyResetToken 校验重置 token 是否仍然有效
func (s *UserService) VerifyResetToken(ctx context.Context, token string) (string, error) {
	claims, err := s.jwt.ParseReset(token)
	if err != nil {
		return "", fmt.Errorf("%w: invalid or expired token", domain.ErrAuth)
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if err != nil {
		return "", err
	}
	if u == nil || !u.IsActive {
		return "", fmt.Errorf("%w: invalid or expired token", domain.ErrAuth)
	}
	return u.ID, nil
}

func (s *UserService) SetPassword(ctx context.Context, token, password string) error {
	uid, err := s.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	if err := s.users.UpdateFields(ctx, uid, map[string]any{
		"password_hash": utils.HashPassword(password),
	}); err != nil {
		return err
	}
	s.log.Info("password reset", zap.String("uid", uid))
	return nil
}

// SelectBusinessType 一次性角色选择（step3）。已选过则 Conflict
func (s *UserService) SelectBusinessType(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if !role.Selectable() {
		return nil, fmt.Errorf("%w: invalid business type %q", domain.ErrValidation, role)
	}
	u, err := s.mustUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RolePending {
		return nil, fmt.Errorf("%w: business type already selected", domain.ErrConflict)
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]any{
		"role":            role,
		"step3_completed": true,
	}); err != nil {
		return nil, err
	}
	u.Role = role
	u.Step3Completed = true
	return s.refreshCompletion(ctx, u)
}

func (s *UserService) SaveStep1(ctx context.Context, userID string, in Step1Input) (*domain.User, error) {
	if in.CompanyName == "" || in.PinCode == "" || in.GstOrCin == "" {
		return nil, fmt.Errorf("%w: companyName, pinCode and gstOrCin are required", domain.ErrValidation)
	}
	u, err := s.mustUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch := map[string]any{
		"company_name":         in.CompanyName,
		"website":              in.Website,
		"linkedin_profile":     in.LinkedinProfile,
		"city":                 in.City,
		"state":                in.State,
		"country":              in.Country,
		"pin_code":             in.PinCode,
		"company_type":         in.CompanyType,
		"year_of_registration": in.YearOfRegistration,
		"industry":             in.Industry,
		"brief_introduction":   in.BriefIntroduction,
		"gst_or_cin":           in.GstOrCin,
		"step1_completed":      true,
	}
	if in.ProfilePicture != "" {
		patch["profile_picture"] = in.ProfilePicture
	}
	if err := s.users.UpdateFields(ctx, userID, patch); err != nil {
		return nil, err
	}
	u.CompanyName, u.Website, u.LinkedinProfile = in.CompanyName, in.Website, in.LinkedinProfile
	u.City, u.State, u.Country, u.PinCode = in.City, in.State, in.Country, in.PinCode
	u.CompanyType, u.YearOfRegistration = in.CompanyType, in.YearOfRegistration
	u.Industry, u.BriefIntroduction, u.GstOrCin = in.Industry, in.BriefIntroduction, in.GstOrCin
	if in.ProfilePicture != "" {
		u.ProfilePicture = in.ProfilePicture
	}
	u.Step1Completed = true
	return s.refreshCompletion(ctx, u)
}

func (s *UserService) SaveStep2(ctx context.Context, userID, businessDescription string) (*domain.User, error) {
	if strings.TrimSpace(businessDescription) == "" {
		return nil, fmt.Errorf("%w: businessDescription is required", domain.ErrValidation)
	}
	u, err := s.mustUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]any{
		"business_description": businessDescription,
		"step2_completed":      true,
	}); err != nil {
		return nil, err
	}
	u.BusinessDescription = businessDescription
	u.Step2Completed = true
	return s.refreshCompletion(ctx, u)
}

// SaveRoleDetails step4。只接受与当前角色匹配的变体载荷，
// 其余变体字段保持零值（不会被跨角色写入）
func (s *UserService) SaveRoleDetails(ctx context.Context, userID string, d RoleDetails) (*domain.User, error) {
	u, err := s.mustUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role == domain.RolePending {
		return nil, fmt.Errorf("%w: select a business type first", domain.ErrConflict)
	}

	switch u.Role {
	case domain.RoleInvestor:
		if d.Investor == nil {
			return nil, fmt.Errorf("%w: investor details required", domain.ErrValidation)
		}
		u.Investor = *d.Investor
	case domain.RoleSeller:
		if d.Seller == nil {
			return nil, fmt.Errorf("%w: seller details required", domain.ErrValidation)
		}
		u.Seller = *d.Seller
	case domain.RoleStartup:
		if d.Startup == nil {
			return nil, fmt.Errorf("%w: startup details required", domain.ErrValidation)
		}
		u.Startup = *d.Startup
	case domain.RoleConsultant:
		if d.Consultant == nil {
			return nil, fmt.Errorf("%w: consultant details required", domain.ErrValidation)
		}
		u.Consultant = *d.Consultant
	case domain.RoleFranchise:
		if d.Franchise == nil {
			return nil, fmt.Errorf("%w: franchise details required", domain.ErrValidation)
		}
		u.Franchise = *d.Franchise
	case domain.RoleImpexp:
		if d.Impexp == nil {
			return nil, fmt.Errorf("%w: import/export details required", domain.ErrValidation)
		}
		u.Impexp = *d.Impexp
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, u.Role)
	}

	u.Step4Completed = true
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.refreshCompletion(ctx, u)
}

func (s *UserService) MyProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.mustUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, RoleFields: u.RoleFields()}, nil
}

// ViewProfile 他人资料视图。仅限 active + 资料完整的用户
func (s *UserService) ViewProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive || !u.ProfileCompleted {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return &Profile{User: u, RoleFields: u.RoleFields()}, nil
}

func (s *UserService) issueTokens(u *domain.User) (*TokenPair, error) {
	access, err := s.jwt.Issue(u.ID, string(u.Role), u.ProfileCompleted, u.IsVerified)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.IssueRefresh(u.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) mustUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return u, nil
}

// refreshCompletion 步骤变更后重算 profile_completed（幂等）
func (s *UserService) refreshCompletion(ctx context.Context, u *domain.User) (*domain.User, error) {
	completed := u.AllStepsCompleted()
	if completed == u.ProfileCompleted {
		return u, nil
	}
	if err := s.users.UpdateFields(ctx, u.ID, map[string]any{"profile_completed": completed}); err != nil {
		return nil, err
	}
	u.ProfileCompleted = completed
	if completed {
		s.log.Info("profile completed", zap.String("uid", u.ID))
	}
	return u, nil
}
