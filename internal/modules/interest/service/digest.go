package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anoa.com/localswap/internal/entity"
	interestRepo "anoa.com/localswap/internal/modules/interest/repository"
	notification "anoa.com/localswap/internal/modules/notification/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	digestTitle         = "New Listings Match Your Interests"
	digestTitlesShown   = 3
	digestCategoriesMax = 3
)

type DigestResult struct {
	UsersNotified    int `json:"users_notified"`
	MatchesProcessed int `json:"matches_processed"`
}

type DigestProcessor interface {
	SendInterestDigests(ctx context.Context) (*DigestResult, error)
}

type digestProcessor struct {
	pending    interestRepo.PendingMatchRepository
	listings   ListingReader
	dispatcher Dispatcher
	now        func() time.Time
	logger     *zap.Logger
}

func NewDigestProcessor(pending interestRepo.PendingMatchRepository, listings ListingReader, dispatcher Dispatcher, logger *zap.Logger) DigestProcessor {
	return &digestProcessor{
		pending:    pending,
		listings:   listings,
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     logger,
	}
}

// matchGroups keys pending rows by user and remembers the order users first
// appeared in.
type matchGroups struct {
	order  []uuid.UUID
	byUser map[uuid.UUID][]entity.PendingInterestMatch
}

func groupByUser(rows []entity.PendingInterestMatch) matchGroups {
	g := matchGroups{byUser: make(map[uuid.UUID][]entity.PendingInterestMatch)}
	for _, row := range rows {
		if _, ok := g.byUser[row.UserID]; !ok {
			g.order = append(g.order, row.UserID)
		}
		g.byUser[row.UserID] = append(g.byUser[row.UserID], row)
	}
	return g
}

func (d *digestProcessor) SendInterestDigests(ctx context.Context) (*DigestResult, error) {
	rows, err := d.pending.ListUnprocessed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending matches: %w", err)
	}
	result := &DigestResult{}
	if len(rows) == 0 {
		return result, nil
	}

	groups := groupByUser(rows)

	ids := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.ListingID]; ok {
			continue
		}
		seen[row.ListingID] = struct{}{}
		ids = append(ids, row.ListingID)
	}
	found, err := d.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load matched listings: %w", err)
	}
	active := make(map[uuid.UUID]*entity.Listing, len(found))
	for i := range found {
		if found[i].Status == entity.ListingActive {
			active[found[i].ID] = &found[i]
		}
	}

	now := d.now()
	for _, userID := range groups.order {
		var survivors []*entity.Listing
		included := make(map[uuid.UUID]struct{})
		for _, row := range groups.byUser[userID] {
			claimed, err := d.pending.Claim(ctx, row.ID, now)
			if err != nil {
				d.logger.Warn("failed to claim pending match", zap.String("match_id", row.ID.String()), zap.Error(err))
				continue
			}
			if !claimed {
				continue
			}
			result.MatchesProcessed++

			listing, ok := active[row.ListingID]
			if !ok {
				continue
			}
			if _, dup := included[listing.ID]; dup {
				continue
			}
			included[listing.ID] = struct{}{}
			survivors = append(survivors, listing)
		}

		if len(survivors) == 0 {
			continue
		}
		sent, err := d.send(ctx, userID, survivors)
		if err != nil {
			d.logger.Warn("failed to send interest digest", zap.String("user_id", userID.String()), zap.Error(err))
			continue
		}
		if sent {
			result.UsersNotified++
		}
	}

	d.logger.Info("interest digests sent",
		zap.Int("users_notified", result.UsersNotified),
		zap.Int("matches_processed", result.MatchesProcessed),
	)
	return result, nil
}

func (d *digestProcessor) send(ctx context.Context, userID uuid.UUID, listings []*entity.Listing) (bool, error) {
	if len(listings) == 1 {
		l := listings[0]
		res, err := d.dispatcher.NotifyNewListingMatch(ctx, userID, l.ID, l.Title, l.Category)
		if err != nil {
			return false, err
		}
		return res.Created, nil
	}

	res, err := d.dispatcher.CreateNotification(ctx, DigestNotification(userID, listings))
	if err != nil {
		return false, err
	}
	return res.Created, nil
}

// DigestNotification builds the summary sent when several matches survive.
func DigestNotification(userID uuid.UUID, listings []*entity.Listing) notification.CreateNotificationInput {
	ids := make([]uuid.UUID, len(listings))
	var categories []entity.Category
	seen := make(map[entity.Category]struct{})
	for i, l := range listings {
		ids[i] = l.ID
		if _, ok := seen[l.Category]; !ok {
			seen[l.Category] = struct{}{}
			categories = append(categories, l.Category)
		}
	}

	var body string
	if len(listings) <= digestTitlesShown {
		titles := make([]string, len(listings))
		for i, l := range listings {
			titles[i] = fmt.Sprintf(`"%s"`, l.Title)
		}
		body = "Check out these new listings: " + strings.Join(titles, ", ")
	} else {
		shown := categories
		if len(shown) > digestCategoriesMax {
			shown = shown[:digestCategoriesMax]
		}
		names := make([]string, len(shown))
		for i, c := range shown {
			names[i] = string(c)
		}
		body = fmt.Sprintf("%d new listings match your interests in %s", len(listings), strings.Join(names, ", "))
	}

	return notification.CreateNotificationInput{
		UserID: userID,
		Type:   entity.NotificationNewListingMatch,
		Title:  digestTitle,
		Body:   body,
		Metadata: entity.ListingDigestNotice{
			ListingIDs: ids,
			Categories: categories,
			Count:      len(listings),
		},
	}
}
