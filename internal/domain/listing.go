package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingType partitions listings; slugs are unique within one type only.
type ListingType string

const (
	ListingTypeService    ListingType = "service"
	ListingTypeEvent      ListingType = "event"
	ListingTypeStay       ListingType = "stay"
	ListingTypeExperience ListingType = "experience"
)

// ListingTypes in display order.
var ListingTypes = []ListingType{ListingTypeService, ListingTypeEvent, ListingTypeStay, ListingTypeExperience}

// ParseListingType accepts the singular or plural form, case-insensitive ("Stays" -> stay).
func ParseListingType(s string) (ListingType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range ListingTypes {
		if s == string(t) || s == string(t)+"s" {
			return t, true
		}
	}
	return "", false
}

// Location is a latitude/longitude pair in decimal degrees.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// OpeningHours is keyed by lowercase weekday ("monday").
type OpeningHours struct {
	Enabled bool                `json:"enabled"`
	Days    map[string]DayHours `json:"days,omitempty"`
}

type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Availability struct {
	Enabled bool       `json:"enabled"`
	Slots   []TimeSlot `json:"slots,omitempty"`
}

type ServiceDetails struct {
	ServiceCategory string       `json:"serviceCategory"`
	IsIndividual    bool         `json:"isIndividual"`
	OpeningHours    OpeningHours `json:"openingHours"`
	Availability    Availability `json:"availability"`
}

type EventPrice struct {
	Type  string  `json:"type"`
	Price float64 `json:"price"`
}

type EventDetails struct {
	EventDate    string       `json:"eventDate"`
	EventTime    string       `json:"eventTime"`
	Capacity     *int         `json:"capacity"`
	EventPricing []EventPrice `json:"eventPricing"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type StayDetails struct {
	CheckInTime      string      `json:"checkInTime"`
	CheckOutTime     string      `json:"checkOutTime"`
	StayPrice        *float64    `json:"stayPrice"`
	Amenities        []string    `json:"amenities"`
	StayAvailability []DateRange `json:"stayAvailability"`
}

type ExperienceDetails struct {
	ExperienceCategory string             `json:"experienceCategory"`
	Duration           string             `json:"duration"`
	Included           string             `json:"included"`
	GroupSize          *int               `json:"groupSize"`
	ExperiencePricing  map[string]float64 `json:"experiencePricing"`
}

// Listing is a marketplace entry. Common attributes are columns; exactly one of the
// variant payloads (matching ListingType) is set and stored as JSON.
type Listing struct {
	ID             uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingType    ListingType                 `gorm:"column:listing_type;type:varchar(20);not null;uniqueIndex:idx_listings_type_slug,priority:1;index:idx_listings_type_created,priority:1" json:"listingType"`
	Slug           string                      `gorm:"column:slug;type:varchar(200);not null;uniqueIndex:idx_listings_type_slug,priority:2" json:"slug"`
	Title          string                      `gorm:"column:title;not null" json:"title"`
	Description    string                      `gorm:"column:description;type:text;not null" json:"description"`
	Address        string                      `gorm:"column:address;not null" json:"address"`
	Location       *Location                   `gorm:"column:location;type:jsonb;serializer:json" json:"location"`
	Images         datatypes.JSONSlice[string] `gorm:"column:images" json:"images"`
	VideoLink      *string                     `gorm:"column:video_link" json:"videoLink"`
	BookingEnabled bool                        `gorm:"column:booking_enabled;not null;default:false" json:"bookingEnabled"`
	OwnerUserID    string                      `gorm:"column:owner_user_id;not null;index" json:"ownerUserId"`

	Service    *ServiceDetails    `gorm:"column:service;type:jsonb;serializer:json" json:"service,omitempty"`
	Event      *EventDetails      `gorm:"column:event;type:jsonb;serializer:json" json:"event,omitempty"`
	Stay       *StayDetails       `gorm:"column:stay;type:jsonb;serializer:json" json:"stay,omitempty"`
	Experience *ExperienceDetails `gorm:"column:experience;type:jsonb;serializer:json" json:"experience,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;index:idx_listings_type_created,priority:2,sort:desc" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// NewListing returns an empty listing of type t with its variant payload allocated.
func NewListing(t ListingType) *Listing {
	l := &Listing{ListingType: t}
	l.ensureVariant()
	return l
}

func (l *Listing) ensureVariant() {
	switch l.ListingType {
	case ListingTypeService:
		if l.Service == nil {
			l.Service = &ServiceDetails{}
		}
	case ListingTypeEvent:
		if l.Event == nil {
			l.Event = &EventDetails{}
		}
	case ListingTypeStay:
		if l.Stay == nil {
			l.Stay = &StayDetails{}
		}
	case ListingTypeExperience:
		if l.Experience == nil {
			l.Experience = &ExperienceDetails{}
		}
	}
}

// SlugAlias keeps a slug a listing used before it was renamed so old links keep resolving.
type SlugAlias struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingType ListingType `gorm:"column:listing_type;type:varchar(20);not null;uniqueIndex:idx_slug_aliases_type_slug,priority:1" json:"listingType"`
	Slug        string      `gorm:"column:slug;type:varchar(200);not null;uniqueIndex:idx_slug_aliases_type_slug,priority:2" json:"slug"`
	ListingID   uuid.UUID   `gorm:"column:listing_id;type:uuid;not null;index" json:"listingId"`
	CreatedAt   time.Time   `gorm:"column:created_at" json:"createdAt"`
}

func (SlugAlias) TableName() string {
	return "listing_slug_aliases"
}

func (a *SlugAlias) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
