package user

import (
	"context"
	"errors"

	"villagesq/internal/common"
	"villagesq/internal/dbmysql"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *dbmysql.User) error
	ByHandle(ctx context.Context, handle string) (*dbmysql.User, error)
	ByID(ctx context.Context, id uint64) (*dbmysql.User, error)
	List(ctx context.Context) ([]dbmysql.User, error)
	Update(ctx context.Context, u *dbmysql.User) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *dbmysql.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) ByHandle(ctx context.Context, handle string) (*dbmysql.User, error) {
	var u dbmysql.User
	err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) ByID(ctx context.Context, id uint64) (*dbmysql.User, error) {
	var u dbmysql.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context) ([]dbmysql.User, error) {
	var users []dbmysql.User
	err := r.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, u *dbmysql.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
