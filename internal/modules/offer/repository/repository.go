package repository

import (
	"context"
	"time"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListFilter struct {
	// Sent lists offers the user made; otherwise offers the user received.
	Sent   bool
	Status entity.OfferStatus
	Limit  int
}

type Meetup struct {
	Location  string
	Latitude  *float64
	Longitude *float64
	Time      time.Time
}

type OfferRepository interface {
	// Create opens the chat thread, stores the offer with its items and posts
	// the offer card, all in one transaction.
	Create(ctx context.Context, offer *entity.Offer, cardContent string) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error)
	HasOpenOffer(ctx context.Context, listingID, offererID uuid.UUID) (bool, error)
	CountCreatedSince(ctx context.Context, offererID uuid.UUID, since time.Time) (int64, error)
	List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]entity.Offer, error)

	// Transition moves the offer to `to` only if it is currently in one of
	// `from`. It reports whether this call made the change; msg is appended
	// only then.
	Transition(ctx context.Context, id uuid.UUID, from []entity.OfferStatus, to entity.OfferStatus, msg *entity.Message) (bool, error)
	// Counter marks the original countered and creates the counter-offer in
	// the same transaction.
	Counter(ctx context.Context, originalID uuid.UUID, counter *entity.Offer, cardContent string) (bool, error)
	ScheduleMeetup(ctx context.Context, id uuid.UUID, meetup Meetup, msg *entity.Message) (bool, error)
	// SetCompletionFlag sets one participant's flag on an accepted offer and
	// returns the row as it is after the update, or nil if the offer is not
	// accepted.
	SetCompletionFlag(ctx context.Context, id uuid.UUID, asOfferer bool) (*entity.Offer, error)
	// FinalizeCompletion moves an accepted offer with both flags set to
	// completed and applies the trade side effects. Only one caller can win.
	FinalizeCompletion(ctx context.Context, offer *entity.Offer, now time.Time, msg *entity.Message) (bool, error)
	AppendMessage(ctx context.Context, msg *entity.Message) error
	ExpireStale(ctx context.Context, now time.Time) ([]entity.Offer, error)
	CancelBetween(ctx context.Context, a, b uuid.UUID) ([]entity.Offer, error)
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func appendMessage(tx *gorm.DB, msg *entity.Message) error {
	if err := tx.Create(msg).Error; err != nil {
		return err
	}
	return tx.Model(&entity.ChatThread{}).
		Where("id = ?", msg.ThreadID).
		Update("last_message_at", gorm.Expr("NOW()")).Error
}

func createWithCard(tx *gorm.DB, offer *entity.Offer, content string, action entity.OfferCardAction) error {
	if err := tx.Create(offer).Error; err != nil {
		return err
	}

	card, err := entity.NewOfferCardMessage(*offer.ChatThreadID, offer.OffererID, content, entity.OfferCard{
		OfferID: offer.ID,
		Action:  action,
	})
	if err != nil {
		return err
	}
	return appendMessage(tx, card)
}

func (r *offerRepository) Create(ctx context.Context, offer *entity.Offer, cardContent string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		thread := &entity.ChatThread{ListingID: &offer.ListingID}
		if err := tx.Create(thread).Error; err != nil {
			return err
		}

		participants := []entity.ChatParticipant{
			{ThreadID: thread.ID, UserID: offer.OffererID},
			{ThreadID: thread.ID, UserID: offer.OwnerID},
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}

		offer.ChatThreadID = &thread.ID
		return createWithCard(tx, offer, cardContent, entity.OfferCardCreated)
	})
}

func (r *offerRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error) {
	var offer entity.Offer
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Listing").
		Preload("Offerer.Profile").
		Preload("Owner.Profile").
		Where("id = ?", id).
		First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) HasOpenOffer(ctx context.Context, listingID, offererID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Offer{}).
		Where("listing_id = ? AND offerer_id = ? AND status IN ?", listingID, offererID, entity.NegotiableStatuses).
		Count(&count).Error
	return count > 0, err
}

func (r *offerRepository) CountCreatedSince(ctx context.Context, offererID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Offer{}).
		Where("offerer_id = ? AND parent_offer_id IS NULL AND created_at >= ?", offererID, since).
		Count(&count).Error
	return count, err
}

func (r *offerRepository) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]entity.Offer, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Listing")

	if filter.Sent {
		query = query.Where("offerer_id = ?", userID)
	} else {
		query = query.Where("owner_id = ?", userID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var offers []entity.Offer
	err := query.Order("created_at DESC").Find(&offers).Error
	return offers, err
}

func (r *offerRepository) Transition(ctx context.Context, id uuid.UUID, from []entity.OfferStatus, to entity.OfferStatus, msg *entity.Message) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Offer{}).
			Where("id = ? AND status IN ?", id, from).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		changed = true

		if msg != nil {
			return appendMessage(tx, msg)
		}
		return nil
	})
	return changed, err
}

func (r *offerRepository) Counter(ctx context.Context, originalID uuid.UUID, counter *entity.Offer, cardContent string) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Offer{}).
			Where("id = ? AND status IN ?", originalID, entity.NegotiableStatuses).
			Update("status", entity.OfferCountered)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		changed = true

		counter.ParentOfferID = &originalID
		return createWithCard(tx, counter, cardContent, entity.OfferCardCountered)
	})
	return changed, err
}

func (r *offerRepository) ScheduleMeetup(ctx context.Context, id uuid.UUID, meetup Meetup, msg *entity.Message) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Offer{}).
			Where("id = ? AND status = ?", id, entity.OfferAccepted).
			Updates(map[string]interface{}{
				"meetup_location":  meetup.Location,
				"meetup_latitude":  meetup.Latitude,
				"meetup_longitude": meetup.Longitude,
				"meetup_time":      meetup.Time,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		changed = true

		if msg != nil {
			return appendMessage(tx, msg)
		}
		return nil
	})
	return changed, err
}

func (r *offerRepository) SetCompletionFlag(ctx context.Context, id uuid.UUID, asOfferer bool) (*entity.Offer, error) {
	column := "owner_completed"
	if asOfferer {
		column = "offerer_completed"
	}

	var updated []entity.Offer
	result := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, entity.OfferAccepted).
		Update(column, true)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(updated) == 0 {
		return nil, nil
	}
	return &updated[0], nil
}

func (r *offerRepository) FinalizeCompletion(ctx context.Context, offer *entity.Offer, now time.Time, msg *entity.Message) (bool, error) {
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Offer{}).
			Where("id = ? AND status = ? AND offerer_completed = ? AND owner_completed = ?",
				offer.ID, entity.OfferAccepted, true, true).
			Updates(map[string]interface{}{
				"status":       entity.OfferCompleted,
				"completed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		won = true

		if err := tx.Model(&entity.Listing{}).
			Where("id = ? AND status = ?", offer.ListingID, entity.ListingActive).
			Update("status", entity.ListingTraded).Error; err != nil {
			return err
		}

		if err := tx.Model(&entity.Profile{}).
			Where("user_id IN ?", []uuid.UUID{offer.OffererID, offer.OwnerID}).
			UpdateColumn("completed_swaps", gorm.Expr("completed_swaps + 1")).Error; err != nil {
			return err
		}

		if msg != nil {
			return appendMessage(tx, msg)
		}
		return nil
	})
	return won, err
}

func (r *offerRepository) AppendMessage(ctx context.Context, msg *entity.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return appendMessage(tx, msg)
	})
}

func (r *offerRepository) ExpireStale(ctx context.Context, now time.Time) ([]entity.Offer, error) {
	var expired []entity.Offer
	err := r.db.WithContext(ctx).
		Model(&expired).
		Clauses(clause.Returning{}).
		Where("status IN ? AND expires_at < ?", entity.NegotiableStatuses, now).
		Update("status", entity.OfferExpired).Error
	return expired, err
}

func (r *offerRepository) CancelBetween(ctx context.Context, a, b uuid.UUID) ([]entity.Offer, error) {
	return CancelBetween(r.db.WithContext(ctx), a, b)
}

// CancelBetween cancels every live offer between a and b, in either role.
// It takes a *gorm.DB so callers can run it inside their own transaction.
func CancelBetween(tx *gorm.DB, a, b uuid.UUID) ([]entity.Offer, error) {
	var cancelled []entity.Offer
	err := tx.Model(&cancelled).
		Clauses(clause.Returning{}).
		Where("status IN ? AND ((offerer_id = ? AND owner_id = ?) OR (offerer_id = ? AND owner_id = ?))",
			entity.LiveStatuses, a, b, b, a).
		Update("status", entity.OfferCancelled).Error
	return cancelled, err
}
