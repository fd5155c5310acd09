package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	ListingDraft   ListingStatus = "draft"
	ListingActive  ListingStatus = "active"
	ListingTraded  ListingStatus = "traded"
	ListingDeleted ListingStatus = "deleted"
)

type Category string

const (
	CategoryHousehold   Category = "household"
	CategoryKids        Category = "kids"
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategorySports      Category = "sports"
	CategoryTools       Category = "tools"
	CategoryGarden      Category = "garden"
	CategoryServices    Category = "services"
	CategoryOther       Category = "other"
)

var AllCategories = []Category{
	CategoryHousehold, CategoryKids, CategoryElectronics, CategoryClothing, CategoryBooks,
	CategorySports, CategoryTools, CategoryGarden, CategoryServices, CategoryOther,
}

func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Condition string

const (
	ConditionNew      Condition = "new"
	ConditionLikeNew  Condition = "like_new"
	ConditionGood     Condition = "good"
	ConditionFair     Condition = "fair"
	ConditionForParts Condition = "for_parts"
)

type WantsType string

const (
	WantsOpen       WantsType = "open"
	WantsCategories WantsType = "categories"
	WantsSpecific   WantsType = "specific"
)

// MaxListingPhotos caps photos per listing.
const MaxListingPhotos = 8

// Listing is anchored to the location snapshot chosen at creation.
// WantsCategories is only meaningful for WantsCategories, WantsDescription
// only for WantsSpecific.
type Listing struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner            *User          `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	LocationID       uuid.UUID      `gorm:"type:uuid;not null" json:"location_id"`
	Location         *Location      `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Title            string         `gorm:"size:100;not null" json:"title"`
	Description      *string        `gorm:"type:text" json:"description,omitempty"`
	Category         Category       `gorm:"size:30;not null;index:idx_listings_category_status,priority:1" json:"category"`
	Subcategory      *string        `gorm:"size:50" json:"subcategory,omitempty"`
	Condition        *Condition     `gorm:"size:20" json:"condition,omitempty"`
	IsService        bool           `gorm:"not null" json:"is_service"`
	WantsType        WantsType      `gorm:"size:20;not null" json:"wants_type"`
	WantsCategories  pq.StringArray `gorm:"type:text[]" json:"wants_categories,omitempty"`
	WantsDescription *string        `gorm:"size:500" json:"wants_description,omitempty"`
	Status           ListingStatus  `gorm:"size:20;not null;index:idx_listings_category_status,priority:2" json:"status"`
	PhotoCount       int            `gorm:"not null;default:0" json:"photo_count"`
	PrimaryPhotoURL  *string        `gorm:"type:text" json:"primary_photo_url,omitempty"`
	Photos           []ListingPhoto `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
	ActivatedAt      *time.Time     `json:"activated_at,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}

// SearchableText is the text keywords are matched against.
func (l *Listing) SearchableText() string {
	if l.Description == nil {
		return l.Title + " "
	}
	return l.Title + " " + *l.Description
}

type ListingPhoto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"listing_id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *ListingPhoto) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
