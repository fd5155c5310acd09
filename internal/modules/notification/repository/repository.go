package repository

import (
	"context"
	"time"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter selects a page of visible notifications. Limit is the number of
// rows fetched, callers over-fetch by one to detect another page.
type ListFilter struct {
	Limit      int
	Cursor     *uuid.UUID
	UnreadOnly bool
	Now        time.Time
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error)
	ListVisible(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]entity.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, now time.Time) (int64, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]entity.Notification, error)
	ClaimPush(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	var n entity.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func visible(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("deliver_at IS NULL OR deliver_at <= ?", now)
}

func (r *notificationRepository) ListVisible(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]entity.Notification, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(func(db *gorm.DB) *gorm.DB { return visible(db, filter.Now) })

	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	// Keyset on (created_at, id) of the cursor row, newest first.
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at, id) < (SELECT created_at, id FROM notifications WHERE id = ? AND user_id = ?)",
			*filter.Cursor, userID,
		)
	}

	var notifications []entity.Notification
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Scopes(func(db *gorm.DB) *gorm.DB { return visible(db, now) }).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("id IN ? AND user_id = ? AND is_read = ?", ids, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", ids, userID).
		Delete(&entity.Notification{})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&entity.Notification{})
	return result.RowsAffected, result.Error
}

// ListDue returns deferred notifications whose deliver_at has passed and
// that have not been pushed yet.
func (r *notificationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := r.db.WithContext(ctx).
		Where("deliver_at IS NOT NULL AND deliver_at <= ? AND pushed_at IS NULL AND expires_at > ?", now, now).
		Order("deliver_at ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// ClaimPush stamps pushed_at if nobody else has. Only the caller that gets
// true may push.
func (r *notificationRepository) ClaimPush(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("id = ? AND pushed_at IS NULL", id).
		Update("pushed_at", now)
	return result.RowsAffected == 1, result.Error
}
