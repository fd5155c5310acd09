package service

import (
	"context"
	"fmt"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
)

const messagePreviewLength = 100

// OfferEvent identifies the offer a notification is about and the names shown
// in its text.
type OfferEvent struct {
	RecipientID  uuid.UUID
	OfferID      uuid.UUID
	ListingID    uuid.UUID
	ActorName    string
	ListingTitle string
}

// Notifier is the template side of the dispatcher that other modules use.
type Notifier interface {
	NotifyOfferReceived(ctx context.Context, ev OfferEvent) (*CreateResult, error)
	NotifyOfferAccepted(ctx context.Context, ev OfferEvent) (*CreateResult, error)
	NotifyOfferDeclined(ctx context.Context, ev OfferEvent) (*CreateResult, error)
	NotifyOfferCountered(ctx context.Context, ev OfferEvent) (*CreateResult, error)
	NotifyOfferExpired(ctx context.Context, ev OfferEvent) (*CreateResult, error)
	NotifyMessageReceived(ctx context.Context, recipientID, threadID uuid.UUID, senderName, content string) (*CreateResult, error)
	NotifyReviewReceived(ctx context.Context, recipientID, offerID uuid.UUID, reviewerName string, rating int) (*CreateResult, error)
	NotifyTradeCompleted(ctx context.Context, ev OfferEvent) (*CreateResult, error)
	NotifyNewListingMatch(ctx context.Context, recipientID, listingID uuid.UUID, title string, category entity.Category) (*CreateResult, error)
	NotifyDailyEncouragement(ctx context.Context, recipientID uuid.UUID, quote, author string) (*CreateResult, error)
}

func (s *notificationService) notifyOffer(ctx context.Context, t entity.NotificationType, title, body string, ev OfferEvent) (*CreateResult, error) {
	offerID, listingID := ev.OfferID, ev.ListingID
	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID: ev.RecipientID,
		Type:   t,
		Title:  title,
		Body:   body,
		Metadata: entity.OfferNotice{
			ActorName:    ev.ActorName,
			ListingTitle: ev.ListingTitle,
		},
		RelatedOfferID:   &offerID,
		RelatedListingID: &listingID,
	})
}

func (s *notificationService) NotifyOfferReceived(ctx context.Context, ev OfferEvent) (*CreateResult, error) {
	return s.notifyOffer(ctx, entity.NotificationOfferReceived, "New Offer Received",
		fmt.Sprintf(`%s made an offer on your "%s"`, ev.ActorName, ev.ListingTitle), ev)
}

func (s *notificationService) NotifyOfferAccepted(ctx context.Context, ev OfferEvent) (*CreateResult, error) {
	return s.notifyOffer(ctx, entity.NotificationOfferAccepted, "Offer Accepted!",
		fmt.Sprintf(`%s accepted your offer on "%s"`, ev.ActorName, ev.ListingTitle), ev)
}

func (s *notificationService) NotifyOfferDeclined(ctx context.Context, ev OfferEvent) (*CreateResult, error) {
	return s.notifyOffer(ctx, entity.NotificationOfferDeclined, "Offer Declined",
		fmt.Sprintf(`%s declined your offer on "%s"`, ev.ActorName, ev.ListingTitle), ev)
}

func (s *notificationService) NotifyOfferCountered(ctx context.Context, ev OfferEvent) (*CreateResult, error) {
	return s.notifyOffer(ctx, entity.NotificationOfferCountered, "Counter Offer Received",
		fmt.Sprintf(`%s made a counter offer on "%s"`, ev.ActorName, ev.ListingTitle), ev)
}

func (s *notificationService) NotifyOfferExpired(ctx context.Context, ev OfferEvent) (*CreateResult, error) {
	return s.notifyOffer(ctx, entity.NotificationOfferExpired, "Offer Expired",
		fmt.Sprintf(`Your offer on "%s" has expired`, ev.ListingTitle), ev)
}

func (s *notificationService) NotifyMessageReceived(ctx context.Context, recipientID, threadID uuid.UUID, senderName, content string) (*CreateResult, error) {
	preview := truncatePreview(content)
	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID: recipientID,
		Type:   entity.NotificationMessageReceived,
		Title:  "New Message",
		Body:   fmt.Sprintf("%s: %s", senderName, preview),
		Metadata: entity.MessageNotice{
			SenderName:     senderName,
			MessagePreview: preview,
			ThreadID:       threadID,
		},
	})
}

func (s *notificationService) NotifyReviewReceived(ctx context.Context, recipientID, offerID uuid.UUID, reviewerName string, rating int) (*CreateResult, error) {
	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID: recipientID,
		Type:   entity.NotificationReviewReceived,
		Title:  "New Review",
		Body:   fmt.Sprintf("%s left you a %d-star review", reviewerName, rating),
		Metadata: entity.ReviewNotice{
			ReviewerName: reviewerName,
			Rating:       rating,
		},
		RelatedOfferID: &offerID,
	})
}

func (s *notificationService) NotifyTradeCompleted(ctx context.Context, ev OfferEvent) (*CreateResult, error) {
	offerID, listingID := ev.OfferID, ev.ListingID
	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID: ev.RecipientID,
		Type:   entity.NotificationTradeCompleted,
		Title:  "Trade Complete!",
		Body: fmt.Sprintf(`Your swap with %s for "%s" is complete. Don't forget to leave a review!`,
			ev.ActorName, ev.ListingTitle),
		Metadata: entity.TradeNotice{
			PartnerName:  ev.ActorName,
			ListingTitle: ev.ListingTitle,
		},
		RelatedOfferID:   &offerID,
		RelatedListingID: &listingID,
	})
}

func (s *notificationService) NotifyNewListingMatch(ctx context.Context, recipientID, listingID uuid.UUID, title string, category entity.Category) (*CreateResult, error) {
	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID: recipientID,
		Type:   entity.NotificationNewListingMatch,
		Title:  "New Listing Match",
		Body:   fmt.Sprintf(`A new %s listing matches your interests: "%s"`, category, title),
		Metadata: entity.ListingMatchNotice{
			ListingTitle: title,
			Category:     category,
		},
		RelatedListingID: &listingID,
	})
}

func (s *notificationService) NotifyDailyEncouragement(ctx context.Context, recipientID uuid.UUID, quote, author string) (*CreateResult, error) {
	body := fmt.Sprintf(`"%s"`, quote)
	if author != "" {
		body = fmt.Sprintf(`"%s" - %s`, quote, author)
	}
	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID: recipientID,
		Type:   entity.NotificationDailyEncouragement,
		Title:  "Daily Swap Inspiration",
		Body:   body,
		Metadata: entity.EncouragementNotice{
			Quote:  quote,
			Author: author,
		},
	})
}

// truncatePreview cuts content to messagePreviewLength runes.
func truncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= messagePreviewLength {
		return content
	}
	return string(runes[:messagePreviewLength]) + "..."
}
