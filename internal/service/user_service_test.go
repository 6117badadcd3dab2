package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"bizmatch/internal/core/auth"
	"bizmatch/internal/domain"
	"bizmatch/pkg/utils"
)

func newUserFixture() (*UserService, *memUsers) {
	users := newMemUsers()
	jwter := &auth.JWTer{
		Secret:     []byte("test-secret"),
		Issuer:     "bizmatch-test",
		TTL:        time.Hour,
		RefreshTTL: 24 * time.Hour,
		ResetTTL:   time.Hour,
	}
	return NewUserService(users, jwter, zap.NewNop()), users
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "password1", FirstName: "A", LastName: "B"}},
		{"short password", RegisterInput{Email: "a@b.co", Password: "short", FirstName: "A", LastName: "B"}},
		{"missing name", RegisterInput{Email: "a@b.co", Password: "password1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()
	in := RegisterInput{Email: "dup@example.com", Password: "password1", FirstName: "A", LastName: "B"}

	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, in); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterStartsPending(t *testing.T) {
	svc, _ := newUserFixture()
	u, err := svc.Register(context.Background(), RegisterInput{
		Email: "New@Example.COM", Password: "password1", FirstName: "A", LastName: "B",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != domain.RolePending {
		t.Fatalf("expected pending role, got %s", u.Role)
	}
	if u.Email != "new@example.com" {
		t.Fatalf("expected lowercased email, got %s", u.Email)
	}
	if u.ProfileCompleted {
		t.Fatal("fresh user must not be profile-complete")
	}
}

func TestLoginUniformError(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	users.add(&domain.User{
		ID: "u1", Email: "a@b.co", PasswordHash: utils.HashPassword("password1"), IsActive: true,
	})

	_, _, errUnknown := svc.Login(ctx, "nobody@b.co", "password1")
	_, _, errWrongPw := svc.Login(ctx, "a@b.co", "wrongpass")
	if !errors.Is(errUnknown, domain.ErrAuth) || !errors.Is(errWrongPw, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth for both, got %v / %v", errUnknown, errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Fatalf("credential errors must be indistinguishable: %q vs %q", errUnknown, errWrongPw)
	}
}

func TestLoginIssuesTokensAndStampsLastLogin(t *testing.T) {
	svc, users := newUserFixture()
	users.add(&domain.User{
		ID: "u1", Email: "a@b.co", PasswordHash: utils.HashPassword("password1"), IsActive: true,
	})

	u, pair, err := svc.Login(context.Background(), "a@b.co", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if u.LastLogin == nil {
		t.Fatal("expected last_login set")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, users := newUserFixture()
	users.add(&domain.User{
		ID: "u1", Email: "a@b.co", PasswordHash: utils.HashPassword("password1"), IsActive: false,
	})
	if _, _, err := svc.Login(context.Background(), "a@b.co", "password1"); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth for inactive account, got %v", err)
	}
}

func TestPasswordResetRoundtrip(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	users.add(&domain.User{
		ID: "u1", Email: "a@b.co", PasswordHash: utils.HashPassword("oldpassword"), IsActive: true,
	})

	token, err := svc.RequestPasswordReset(ctx, "a@b.co")
	if err != nil || token == "" {
		t.Fatalf("expected reset token, got %q err=%v", token, err)
	}
	if uid, err := svc.VerifyResetToken(ctx, token); err != nil || uid != "u1" {
		t.Fatalf("verify: uid=%q err=%v", uid, err)
	}
	if err := svc.SetPassword(ctx, token, "newpassword1"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@b.co", "newpassword1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@b.co", "oldpassword"); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestPasswordResetUnknownEmailSilent(t *testing.T) {
	svc, _ := newUserFixture()
	token, err := svc.RequestPasswordReset(context.Background(), "ghost@b.co")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Fatal("unknown email must not yield a token")
	}
}

func TestResetRejectsAccessToken(t *testing.T) {
	svc, users := newUserFixture()
	users.add(&domain.User{ID: "u1", Email: "a@b.co", IsActive: true})

	access, err := svc.jwt.Issue("u1", "seller", true, true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.VerifyResetToken(context.Background(), access); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("access token must not pass reset verification, got %v", err)
	}
}

func TestSelectBusinessTypeOnce(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	users.add(&domain.User{ID: "u1", Role: domain.RolePending, IsActive: true})

	u, err := svc.SelectBusinessType(ctx, "u1", domain.RoleSeller)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if u.Role != domain.RoleSeller || !u.Step3Completed {
		t.Fatalf("expected seller with step3 done, got %+v", u)
	}

	if _, err := svc.SelectBusinessType(ctx, "u1", domain.RoleInvestor); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second select: expected ErrConflict, got %v", err)
	}
	if _, err := svc.SelectBusinessType(ctx, "u1", "pending"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("pending not selectable: expected ErrValidation, got %v", err)
	}
}

func TestStepsDriveProfileCompletion(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	users.add(&domain.User{ID: "u1", Role: domain.RolePending, IsActive: true})

	if _, err := svc.SaveStep1(ctx, "u1", Step1Input{
		CompanyName: "Acme", PinCode: "411001", GstOrCin: "GST123",
	}); err != nil {
		t.Fatalf("step1: %v", err)
	}
	if _, err := svc.SaveStep2(ctx, "u1", "we make things"); err != nil {
		t.Fatalf("step2: %v", err)
	}
	if _, err := svc.SelectBusinessType(ctx, "u1", domain.RoleConsultant); err != nil {
		t.Fatalf("step3: %v", err)
	}

	u, _ := users.FindByID(ctx, "u1")
	if u.ProfileCompleted {
		t.Fatal("profile must not be complete before step4")
	}

	out, err := svc.SaveRoleDetails(ctx, "u1", RoleDetails{
		Consultant: &domain.ConsultantProfile{ServicesProvided: "strategy", BusinessesAssisted: 12},
	})
	if err != nil {
		t.Fatalf("step4: %v", err)
	}
	if !out.ProfileCompleted {
		t.Fatal("expected profile completed after all four steps")
	}
}

func TestSaveRoleDetailsRequiresMatchingVariant(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	users.add(&domain.User{ID: "u1", Role: domain.RoleSeller, IsActive: true})

	// 角色是 seller，却只给了 investor 载荷
	_, err := svc.SaveRoleDetails(ctx, "u1", RoleDetails{
		Investor: &domain.InvestorProfile{InvestmentFundSize: 1000000},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	u, _ := users.FindByID(ctx, "u1")
	if u.Investor.InvestmentFundSize != 0 {
		t.Fatal("mismatched variant must not be written")
	}
}

func TestSaveRoleDetailsBeforeTypeSelection(t *testing.T) {
	svc, users := newUserFixture()
	users.add(&domain.User{ID: "u1", Role: domain.RolePending, IsActive: true})

	_, err := svc.SaveRoleDetails(context.Background(), "u1", RoleDetails{
		Seller: &domain.SellerProfile{},
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestStep1RequiredFields(t *testing.T) {
	svc, users := newUserFixture()
	users.add(&domain.User{ID: "u1", Role: domain.RolePending, IsActive: true})

	_, err := svc.SaveStep1(context.Background(), "u1", Step1Input{CompanyName: "Acme"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing pinCode/gstOrCin, got %v", err)
	}
}

func TestViewProfileHidesIncomplete(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()
	users.add(&domain.User{ID: "done", Role: domain.RoleSeller, IsActive: true, ProfileCompleted: true})
	users.add(&domain.User{ID: "wip", Role: domain.RoleSeller, IsActive: true, ProfileCompleted: false})

	if _, err := svc.ViewProfile(ctx, "done"); err != nil {
		t.Fatalf("complete profile must be viewable: %v", err)
	}
	if _, err := svc.ViewProfile(ctx, "wip"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("incomplete profile must be hidden, got %v", err)
	}
}

func TestRoleFieldsProjection(t *testing.T) {
	u := &domain.User{Role: domain.RoleSeller}
	u.Seller.InvestmentRequired = 42
	u.Investor.InvestmentFundSize = 99

	got, ok := u.RoleFields().(domain.SellerProfile)
	if !ok {
		t.Fatalf("expected seller projection, got %T", u.RoleFields())
	}
	if got.InvestmentRequired != 42 {
		t.Fatalf("expected seller payload, got %+v", got)
	}

	u.Role = domain.RolePending
	if _, bare := u.RoleFields().(struct{}); !bare {
		t.Fatalf("pending must project empty fields, got %T", u.RoleFields())
	}
}
