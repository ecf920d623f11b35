package announce

import (
	"context"
	"errors"

	"villagesq/internal/common"
	"villagesq/internal/dbmysql"

	"gorm.io/gorm"
)

type AnnouncementRepository interface {
	Create(ctx context.Context, a *dbmysql.Announcement) error
	ByID(ctx context.Context, id uint64) (*dbmysql.Announcement, error)
	List(ctx context.Context, limit, offset int) ([]dbmysql.Announcement, error)
	Update(ctx context.Context, a *dbmysql.Announcement) error
	Delete(ctx context.Context, id uint64) error
}

type announcementRepo struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepo{db: db}
}

func (r *announcementRepo) Create(ctx context.Context, a *dbmysql.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *announcementRepo) ByID(ctx context.Context, id uint64) (*dbmysql.Announcement, error) {
	var a dbmysql.Announcement
	err := r.db.WithContext(ctx).
		Preload("Author").
		First(&a, "announcement_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns pinned announcements first, newest first within each group.
func (r *announcementRepo) List(ctx context.Context, limit, offset int) ([]dbmysql.Announcement, error) {
	var out []dbmysql.Announcement
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("is_pinned DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *announcementRepo) Update(ctx context.Context, a *dbmysql.Announcement) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *announcementRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&dbmysql.Announcement{}, "announcement_id = ?", id).Error
}
