package entity

import (
	"testing"
	"time"

	"anoa.com/localswap/pkg/geo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_BeforeSaveRecomputesGeohash(t *testing.T) {
	loc := &Location{Latitude: 40.7128, Longitude: -74.0060, Geohash: "client-sent"}
	require.NoError(t, loc.BeforeSave(nil))
	assert.Equal(t, geo.Encode(40.7128, -74.0060, geo.DefaultPrecision), loc.Geohash)
}

func TestOfferStatus(t *testing.T) {
	for _, s := range []OfferStatus{OfferDeclined, OfferCancelled, OfferExpired, OfferCompleted, OfferDisputed} {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.IsNegotiable(), s)
	}
	assert.False(t, OfferAccepted.IsTerminal())
	assert.True(t, OfferPending.IsNegotiable())
	assert.True(t, OfferCountered.IsNegotiable())
	assert.False(t, OfferAccepted.IsNegotiable())
}

func TestOffer_Counterparty(t *testing.T) {
	offerer, owner := uuid.New(), uuid.New()
	o := &Offer{OffererID: offerer, OwnerID: owner}

	assert.Equal(t, owner, o.Counterparty(offerer))
	assert.Equal(t, offerer, o.Counterparty(owner))
	assert.True(t, o.IsParticipant(owner))
	assert.False(t, o.IsParticipant(uuid.New()))
}

func TestUser_IsNewAccount(t *testing.T) {
	now := time.Now()
	assert.True(t, (&User{CreatedAt: now.Add(-6 * 24 * time.Hour)}).IsNewAccount(now))
	assert.False(t, (&User{CreatedAt: now.Add(-8 * 24 * time.Hour)}).IsNewAccount(now))
}

func TestNotification_PushURL(t *testing.T) {
	offerID, listingID := uuid.New(), uuid.New()

	assert.Equal(t, "/inbox", (&Notification{RelatedOfferID: &offerID, RelatedListingID: &listingID}).PushURL())
	assert.Equal(t, "/listings/"+listingID.String(), (&Notification{RelatedListingID: &listingID}).PushURL())
	assert.Equal(t, "/", (&Notification{}).PushURL())
}

func TestDefaultNotificationSettings(t *testing.T) {
	s := DefaultNotificationSettings(uuid.New())
	assert.True(t, s.GlobalEnabled)
	assert.True(t, s.NewListingMatch)
	assert.Equal(t, DeliveryImmediate, s.InterestDelivery)
	assert.False(t, s.QuietHours.Enabled)
}

func TestListing_SearchableText(t *testing.T) {
	desc := "Barely used"
	assert.Equal(t, "Drill Barely used", (&Listing{Title: "Drill", Description: &desc}).SearchableText())
	assert.Equal(t, "Drill ", (&Listing{Title: "Drill"}).SearchableText())
}

func TestCategory_IsValid(t *testing.T) {
	assert.True(t, CategoryGarden.IsValid())
	assert.False(t, Category("cars").IsValid())
}
