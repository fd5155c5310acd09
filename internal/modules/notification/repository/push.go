package repository

import (
	"context"

	"anoa.com/localswap/internal/entity"
	"anoa.com/localswap/pkg/push"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub *entity.PushSubscription) error
	DeleteForUser(ctx context.Context, userID uuid.UUID, endpoint string) (int64, error)

	// push.SubscriptionStore
	ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]push.Subscription, error)
	RemoveSubscription(ctx context.Context, endpoint string) error
}

type pushSubscriptionRepository struct {
	db *gorm.DB
}

func NewPushSubscriptionRepository(db *gorm.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

// Upsert re-homes an endpoint to the latest user and keys. Browsers reuse
// endpoints across logins on the same device.
func (r *pushSubscriptionRepository) Upsert(ctx context.Context, sub *entity.PushSubscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
		}).
		Create(sub).Error
}

func (r *pushSubscriptionRepository) DeleteForUser(ctx context.Context, userID uuid.UUID, endpoint string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&entity.PushSubscription{})
	return result.RowsAffected, result.Error
}

func (r *pushSubscriptionRepository) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]push.Subscription, error) {
	var rows []entity.PushSubscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}

	subs := make([]push.Subscription, len(rows))
	for i, row := range rows {
		subs[i] = push.Subscription{
			Endpoint: row.Endpoint,
			P256dh:   row.P256dh,
			Auth:     row.Auth,
		}
	}
	return subs, nil
}

func (r *pushSubscriptionRepository) RemoveSubscription(ctx context.Context, endpoint string) error {
	return r.db.WithContext(ctx).
		Where("endpoint = ?", endpoint).
		Delete(&entity.PushSubscription{}).Error
}
