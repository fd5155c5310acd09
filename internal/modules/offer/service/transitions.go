package service

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/localswap/internal/entity"
	notification "anoa.com/localswap/internal/modules/notification/service"
	offerDto "anoa.com/localswap/internal/modules/offer/dto"
	offerRepo "anoa.com/localswap/internal/modules/offer/repository"
	"anoa.com/localswap/pkg/apperror"
	"anoa.com/localswap/pkg/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errStaleOffer = fmt.Errorf("offer is no longer in a state that allows this: %w", apperror.ErrConflict)

// loadAsOwner loads an offer the caller must own to act on.
func (s *service) loadAsOwner(ctx context.Context, userID, offerID uuid.UUID) (*entity.Offer, error) {
	offer, err := s.loadAsParticipant(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}
	if offer.OwnerID != userID {
		return nil, fmt.Errorf("only the listing owner can respond to this offer: %w", apperror.ErrForbidden)
	}
	return offer, nil
}

func listingTitle(offer *entity.Offer) string {
	if offer.Listing != nil {
		return offer.Listing.Title
	}
	return ""
}

func (s *service) offerEvent(ctx context.Context, offer *entity.Offer, recipientID, actorID uuid.UUID) notification.OfferEvent {
	return notification.OfferEvent{
		RecipientID:  recipientID,
		OfferID:      offer.ID,
		ListingID:    offer.ListingID,
		ActorName:    s.displayName(ctx, actorID),
		ListingTitle: listingTitle(offer),
	}
}

func (s *service) AcceptOffer(ctx context.Context, userID, offerID uuid.UUID) (*entity.Offer, error) {
	offer, err := s.loadAsOwner(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Listing != nil && offer.Listing.Status != entity.ListingActive {
		return nil, fmt.Errorf("listing is not available: %w", apperror.ErrConflict)
	}

	msg := entity.NewSystemMessage(*offer.ChatThreadID, userID, msgOfferAccepted)
	changed, err := s.repo.Transition(ctx, offer.ID, entity.NegotiableStatuses, entity.OfferAccepted, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to accept offer: %w", err)
	}
	if !changed {
		return nil, errStaleOffer
	}
	offer.Status = entity.OfferAccepted

	s.notifyOffer(ctx, "offer_accepted", s.notifier.NotifyOfferAccepted, s.offerEvent(ctx, offer, offer.OffererID, userID))
	s.publish(ctx, events.OfferAccepted, offer)
	return offer, nil
}

func (s *service) DeclineOffer(ctx context.Context, userID, offerID uuid.UUID) (*entity.Offer, error) {
	offer, err := s.loadAsOwner(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}

	msg := entity.NewSystemMessage(*offer.ChatThreadID, userID, msgOfferDeclined)
	changed, err := s.repo.Transition(ctx, offer.ID, entity.NegotiableStatuses, entity.OfferDeclined, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to decline offer: %w", err)
	}
	if !changed {
		return nil, errStaleOffer
	}
	offer.Status = entity.OfferDeclined

	s.notifyOffer(ctx, "offer_declined", s.notifier.NotifyOfferDeclined, s.offerEvent(ctx, offer, offer.OffererID, userID))
	s.publish(ctx, events.OfferDeclined, offer)
	return offer, nil
}

// CounterOffer swaps roles: the owner becomes the offerer of a new offer that
// points back at the original and reuses its thread.
func (s *service) CounterOffer(ctx context.Context, userID, offerID uuid.UUID, req offerDto.CounterOfferRequest) (*entity.Offer, error) {
	offer, err := s.loadAsOwner(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.Status.IsNegotiable() {
		return nil, errStaleOffer
	}

	items, err := s.buildItems(ctx, req.Items, offer.OwnerID, offer.OffererID)
	if err != nil {
		return nil, err
	}

	counter := &entity.Offer{
		ListingID:    offer.ListingID,
		OffererID:    offer.OwnerID,
		OwnerID:      offer.OffererID,
		Message:      req.Message,
		Status:       entity.OfferPending,
		ChatThreadID: offer.ChatThreadID,
		ExpiresAt:    s.now().Add(entity.OfferTTL),
		Items:        items,
	}
	changed, err := s.repo.Counter(ctx, offer.ID, counter, msgOfferCountered)
	if err != nil {
		return nil, fmt.Errorf("failed to counter offer: %w", err)
	}
	if !changed {
		return nil, errStaleOffer
	}
	counter.Listing = offer.Listing

	ev := s.offerEvent(ctx, offer, offer.OffererID, userID)
	ev.OfferID = counter.ID
	s.notifyOffer(ctx, "offer_countered", s.notifier.NotifyOfferCountered, ev)
	s.publish(ctx, events.OfferCountered, counter)
	return counter, nil
}

// MeetupMessage renders the system message posted when a meetup is set.
func MeetupMessage(req offerDto.ScheduleMeetupRequest) string {
	return fmt.Sprintf("Meetup scheduled: %s on %s at %s",
		strings.TrimSpace(req.Location),
		req.Time.Format("Mon, Jan 2 2006"),
		req.Time.Format("3:04 PM MST"),
	)
}

func (s *service) ScheduleMeetup(ctx context.Context, userID, offerID uuid.UUID, req offerDto.ScheduleMeetupRequest) (*entity.Offer, error) {
	offer, err := s.loadAsParticipant(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, fmt.Errorf("meetup location is required: %w", apperror.ErrInvalidInput)
	}
	if !req.Time.After(s.now()) {
		return nil, fmt.Errorf("meetup time must be in the future: %w", apperror.ErrInvalidInput)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, fmt.Errorf("latitude and longitude must be given together: %w", apperror.ErrInvalidInput)
	}

	meetup := offerRepo.Meetup{
		Location:  strings.TrimSpace(req.Location),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Time:      req.Time,
	}
	msg := entity.NewSystemMessage(*offer.ChatThreadID, userID, MeetupMessage(req))
	changed, err := s.repo.ScheduleMeetup(ctx, offer.ID, meetup, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule meetup: %w", err)
	}
	if !changed {
		return nil, errStaleOffer
	}

	offer.MeetupLocation = &meetup.Location
	offer.MeetupLatitude = meetup.Latitude
	offer.MeetupLongitude = meetup.Longitude
	offer.MeetupTime = &meetup.Time
	return offer, nil
}

func waitingMessage(asOfferer bool) string {
	role := "Owner"
	if asOfferer {
		role = "Offerer"
	}
	return role + " marked trade as complete. Waiting for other party."
}

// CompleteOffer sets the caller's flag and reads the row back in the same
// statement. Whoever sees both flags set races a conditional update to
// completed; only the winner runs the trade side effects.
func (s *service) CompleteOffer(ctx context.Context, userID, offerID uuid.UUID) (*offerDto.CompleteOfferResponse, error) {
	offer, err := s.loadAsParticipant(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}
	asOfferer := offer.OffererID == userID

	updated, err := s.repo.SetCompletionFlag(ctx, offer.ID, asOfferer)
	if err != nil {
		return nil, fmt.Errorf("failed to mark offer complete: %w", err)
	}
	if updated == nil {
		return nil, errStaleOffer
	}
	updated.Listing = offer.Listing

	if !updated.BothCompleted() {
		msg := entity.NewSystemMessage(*offer.ChatThreadID, userID, waitingMessage(asOfferer))
		if err := s.repo.AppendMessage(ctx, msg); err != nil {
			s.logger.Warn("failed to post completion message", zap.String("offer_id", offer.ID.String()), zap.Error(err))
		}
		return &offerDto.CompleteOfferResponse{Offer: updated, Completed: false}, nil
	}

	now := s.now()
	msg := entity.NewSystemMessage(*offer.ChatThreadID, userID, msgTradeCompleted)
	won, err := s.repo.FinalizeCompletion(ctx, updated, now, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to complete trade: %w", err)
	}
	updated.Status = entity.OfferCompleted
	if !won {
		// the other participant's request finished the trade first
		return &offerDto.CompleteOfferResponse{Offer: updated, Completed: true}, nil
	}
	updated.CompletedAt = &now

	s.notifyOffer(ctx, "trade_completed", s.notifier.NotifyTradeCompleted, s.offerEvent(ctx, updated, updated.OffererID, updated.OwnerID))
	s.notifyOffer(ctx, "trade_completed", s.notifier.NotifyTradeCompleted, s.offerEvent(ctx, updated, updated.OwnerID, updated.OffererID))
	s.publish(ctx, events.TradeCompleted, updated)
	if err := s.publisher.Publish(ctx, events.ListingTraded, updated.ListingID.String(), map[string]any{
		"listing_id": updated.ListingID,
		"offer_id":   updated.ID,
	}); err != nil {
		s.logger.Warn("failed to publish listing traded", zap.Error(err))
	}
	if s.delister != nil {
		if err := s.delister.RemoveListing(ctx, updated.ListingID); err != nil {
			s.logger.Warn("failed to remove traded listing from search", zap.String("listing_id", updated.ListingID.String()), zap.Error(err))
		}
	}

	return &offerDto.CompleteOfferResponse{Offer: updated, Completed: true}, nil
}

func (s *service) CancelOffersBetween(ctx context.Context, a, b uuid.UUID) (int, error) {
	cancelled, err := s.repo.CancelBetween(ctx, a, b)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel offers: %w", err)
	}
	for i := range cancelled {
		s.publish(ctx, events.OfferCancelled, &cancelled[i])
	}
	return len(cancelled), nil
}

func (s *service) ExpireStaleOffers(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire offers: %w", err)
	}

	for i := range expired {
		offer := &expired[i]
		title := ""
		if listing, err := s.listings.FindByID(ctx, offer.ListingID); err == nil {
			title = listing.Title
		}
		s.notifyOffer(ctx, "offer_expired", s.notifier.NotifyOfferExpired, notification.OfferEvent{
			RecipientID:  offer.OffererID,
			OfferID:      offer.ID,
			ListingID:    offer.ListingID,
			ActorName:    s.displayName(ctx, offer.OwnerID),
			ListingTitle: title,
		})
		s.publish(ctx, events.OfferExpired, offer)
	}

	if len(expired) > 0 {
		s.logger.Info("expired stale offers", zap.Int("count", len(expired)))
	}
	return len(expired), nil
}
