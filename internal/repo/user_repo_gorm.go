package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"bizmatch/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// UpdateFields 多步资料更新走字段补丁，避免整行覆盖
func (r *UserRepo) UpdateFields(ctx context.Context, id string, patch map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int, search string, withDeleted bool) ([]domain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{})
	if withDeleted {
		q = q.Unscoped()
	}
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + s + "%"
		q = q.Where("email LIKE ? OR company_name LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
			like, like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Deactivate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindCandidates 建议候选查询：活跃 + 资料完整 + 角色命中 + 排除集之外
func (r *UserRepo) FindCandidates(ctx context.Context, f domain.CandidateFilter) ([]domain.User, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("is_active = ? AND profile_completed = ?", true, true).
		Where("role IN ?", f.Roles)
	if len(f.ExcludeIDs) > 0 {
		q = q.Where("id NOT IN ?", f.ExcludeIDs)
	}
	if f.Industry != "" {
		q = q.Where("industry = ?", f.Industry)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var users []domain.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
