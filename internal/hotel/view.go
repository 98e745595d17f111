package hotel

import (
	"time"

	"github.com/neexbeast/hotel-lister/internal/hotelbeds"
)

// Unknown replaces any field the upstream did not provide.
const Unknown = "N/A"

// View is one priced hotel: an availability row merged with its content record.
type View struct {
	HotelID      string  `json:"hotel_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	CountryCode  string  `json:"countryCode"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	Rating       string  `json:"rating"`
	RatingS2C    string  `json:"rating_s2c"`
	MinRate      float64 `json:"min_rate"`
	MaxRate      float64 `json:"max_rate"`
	AvgPriceRate float64 `json:"avg_price_rate"`
	Currency     string  `json:"currency"`
}

// BookmarkView is a View with the time the user bookmarked the hotel.
// AddedAt is nil when the store has no record for the hotel.
type BookmarkView struct {
	View
	AddedAt *time.Time `json:"date_added"`
}

// Bookmark associates a user with a hotel code.
type Bookmark struct {
	UserID    int64     `json:"-"`
	HotelCode string    `json:"hotel_code"`
	AddedAt   time.Time `json:"date_added"`
}

// Join merges metadata into availability. Availability drives the result:
// every row keeps its availability fields, metadata-only hotels are dropped,
// and a row without metadata gets Unknown in the metadata fields. For
// duplicate ids on either side the first occurrence wins.
func Join(meta []hotelbeds.Metadata, avail []hotelbeds.Availability) []View {
	views := make([]View, 0, len(avail))
	seen := make(map[string]struct{}, len(avail))

	for _, a := range avail {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}

		m, ok := findMetadata(meta, a.ID)
		v := View{
			HotelID:      a.ID,
			Name:         orUnknown(a.Name),
			City:         orUnknown(a.DestinationName),
			Rating:       orUnknown(a.CategoryName),
			MinRate:      a.MinRate,
			MaxRate:      a.MaxRate,
			AvgPriceRate: (a.MinRate + a.MaxRate) / 2,
			Currency:     orUnknown(a.Currency),
			Description:  Unknown,
			CountryCode:  Unknown,
			Address:      Unknown,
			RatingS2C:    Unknown,
		}
		if ok {
			v.Description = orUnknown(m.Description)
			v.CountryCode = orUnknown(m.CountryCode)
			v.Address = orUnknown(m.Address)
			v.RatingS2C = orUnknown(m.StarRatingCode)
			if a.Name == "" && m.Name != "" {
				v.Name = m.Name
			}
			if a.DestinationName == "" && m.City != "" {
				v.City = m.City
			}
		}
		views = append(views, v)
	}
	return views
}

// findMetadata is a linear scan; a window holds at most a handful of hotels.
func findMetadata(meta []hotelbeds.Metadata, id string) (hotelbeds.Metadata, bool) {
	for _, m := range meta {
		if m.ID == id {
			return m, true
		}
	}
	return hotelbeds.Metadata{}, false
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
