package listing

import (
	"errors"
	"time"
)

const (
	StatusDraft               = "DRAFT"
	StatusPendingVerification = "PENDING_VERIFICATION"
	StatusPublished           = "PUBLISHED"
	StatusArchived            = "ARCHIVED"
)

// FinalStep is the last wizard step (title + description).
const FinalStep int16 = 8

var ErrNotFound = errors.New("listing not found")

type Location struct {
	Street   string `json:"street"`
	Barangay string `json:"barangay,omitempty"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

type Capacity struct {
	Guests    int  `json:"guests"`
	Bedrooms  *int `json:"bedrooms,omitempty"`
	Beds      *int `json:"beds,omitempty"`
	Bathrooms *int `json:"bathrooms,omitempty"`
}

type Amenities struct {
	Appliances []string `json:"appliances"`
	Activities []string `json:"activities"`
	Safety     []string `json:"safety"`
}

// Listing is a draft moving through the wizard. Each step owns a disjoint
// set of fields; nothing outside that step's handler writes them.
type Listing struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Status      string     `json:"status"`
	CurrentStep int16      `json:"current_step"`
	PlaceType   *string    `json:"place_type"`
	SpaceType   *string    `json:"space_type"`
	Location    *Location  `json:"location"`
	Capacity    *Capacity  `json:"capacity"`
	Amenities   *Amenities `json:"amenities"`
	Highlights  []string   `json:"highlights"`
	Photos      []string   `json:"photos"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NextStep keeps current_step monotonically non-decreasing: steps may be
// replayed or submitted out of order, but the counter only ever rises.
func NextStep(current, target int16) int16 {
	if current > target {
		return current
	}

	return target
}

// Card is the reduced projection served by the public feed.
type Card struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	City     string  `json:"city"`
	Barangay string  `json:"barangay,omitempty"`
	Cover    *string `json:"cover"`
	Status   string  `json:"status"`
}

const untitledPlaceholder = "Untitled listing"

func (l Listing) ToCard() Card {
	c := Card{
		ID:     l.ID,
		Title:  untitledPlaceholder,
		Status: l.Status,
	}

	if l.Title != nil && *l.Title != "" {
		c.Title = *l.Title
	}

	if l.Location != nil {
		c.City = l.Location.City
		c.Barangay = l.Location.Barangay
	}

	if len(l.Photos) > 0 {
		cover := l.Photos[0]
		c.Cover = &cover
	}

	return c
}

// FeedFilter narrows the public feed; Limit is already validated by the caller.
type FeedFilter struct {
	City  *string
	Limit int
}

const (
	FeedDefaultLimit = 30
	FeedMaxLimit     = 60
)
