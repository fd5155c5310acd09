package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/localswap/internal/entity"
	"anoa.com/localswap/internal/modules/notification/dto"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
)

// ErrUnmappedNotificationType means a NotificationType has no settings flag.
// It is a programming error and is never mapped to a client status.
var ErrUnmappedNotificationType = errors.New("notification type has no settings flag")

// settingFlag returns the per-type flag. Every entity.NotificationType must
// have a case here.
func settingFlag(settings *entity.NotificationSettings, t entity.NotificationType) (bool, error) {
	switch t {
	case entity.NotificationOfferReceived:
		return settings.OfferReceived, nil
	case entity.NotificationOfferAccepted:
		return settings.OfferAccepted, nil
	case entity.NotificationOfferDeclined:
		return settings.OfferDeclined, nil
	case entity.NotificationOfferCountered:
		return settings.OfferCountered, nil
	case entity.NotificationOfferExpired:
		return settings.OfferExpired, nil
	case entity.NotificationMessageReceived:
		return settings.MessageReceived, nil
	case entity.NotificationReviewReceived:
		return settings.ReviewReceived, nil
	case entity.NotificationTradeCompleted:
		return settings.TradeCompleted, nil
	case entity.NotificationNewListingMatch:
		return settings.NewListingMatch, nil
	case entity.NotificationDailyEncouragement:
		return settings.DailyEncouragement, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnmappedNotificationType, t)
}

func eventEnabled(settings *entity.NotificationSettings, t entity.NotificationType) (bool, error) {
	flag, err := settingFlag(settings, t)
	if err != nil {
		return false, err
	}
	return settings.GlobalEnabled && flag, nil
}

func (s *notificationService) GetOrCreateSettings(ctx context.Context, userID uuid.UUID) (*entity.NotificationSettings, error) {
	settings, err := s.settingsRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}
	return settings, nil
}

func (s *notificationService) IsEventEnabled(ctx context.Context, userID uuid.UUID, t entity.NotificationType) (bool, error) {
	settings, err := s.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return false, err
	}
	return eventEnabled(settings, t)
}

func (s *notificationService) UpdateSettings(ctx context.Context, userID uuid.UUID, req dto.UpdateSettingsRequest) (*entity.NotificationSettings, error) {
	settings, err := s.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	flags := []struct {
		src *bool
		dst *bool
	}{
		{req.GlobalEnabled, &settings.GlobalEnabled},
		{req.OfferReceived, &settings.OfferReceived},
		{req.OfferAccepted, &settings.OfferAccepted},
		{req.OfferDeclined, &settings.OfferDeclined},
		{req.OfferCountered, &settings.OfferCountered},
		{req.OfferExpired, &settings.OfferExpired},
		{req.MessageReceived, &settings.MessageReceived},
		{req.ReviewReceived, &settings.ReviewReceived},
		{req.TradeCompleted, &settings.TradeCompleted},
		{req.NewListingMatch, &settings.NewListingMatch},
		{req.DailyEncouragement, &settings.DailyEncouragement},
	}
	for _, f := range flags {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	if req.InterestDelivery != nil {
		switch mode := entity.InterestDelivery(*req.InterestDelivery); mode {
		case entity.DeliveryImmediate, entity.DeliveryDailyDigest:
			settings.InterestDelivery = mode
		default:
			return nil, fmt.Errorf("unknown interest delivery %q: %w", mode, apperror.ErrInvalidInput)
		}
	}

	if q := req.QuietHours; q != nil {
		next := settings.QuietHours
		if q.Enabled != nil {
			next.Enabled = *q.Enabled
		}
		if q.Start != nil {
			next.Start = *q.Start
		}
		if q.End != nil {
			next.End = *q.End
		}
		if q.Timezone != nil {
			next.Timezone = *q.Timezone
		}
		if err := ValidateQuietHours(next); err != nil {
			return nil, err
		}
		settings.QuietHours = next
	}

	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save notification settings: %w", err)
	}
	return settings, nil
}
