package hotel

import (
	"fmt"
	"time"

	"github.com/neexbeast/hotel-lister/internal/hotelbeds"
)

// PageSize is the width of one location search window.
const PageSize = 10

// MaxPage is the last page a search may ask for.
const MaxPage = 100_000

func checkPage(name string, page int) error {
	if page < 0 || page > MaxPage {
		return invalidInput(fmt.Sprintf("%s must be between 1 and %d", name, MaxPage))
	}
	return nil
}

// Defaults applied to availability queries.
const (
	DefaultRooms            = 1
	DefaultAdults           = 1
	DefaultChildren         = 0
	DefaultMinRate          = 0.0
	DefaultMaxRate          = 1000.0
	DefaultMinCategory      = 1
	DefaultMaxCategory      = 5
	DefaultMaxRoomsPerHotel = 5
	DefaultMaxRatesPerRoom  = 5
	DefaultStayNights       = 3
)

const dateLayout = "2006-01-02"

// Options are the caller-recognized availability options. A nil field means
// "not supplied".
type Options struct {
	CheckIn  *time.Time
	CheckOut *time.Time

	Rooms    *int
	Adults   *int
	Children *int

	MinRate          *float64
	MaxRate          *float64
	MinCategory      *int
	MaxCategory      *int
	MaxRoomsPerHotel *int
	MaxRatesPerRoom  *int
}

// SearchQuery is a location search. Page 0 means the first window.
type SearchQuery struct {
	LocationCode string
	Page         int
	Options      Options
}

// Window returns the inclusive 1-based index range for page.
// Pages past MaxPage are clamped to it.
func Window(page int) (from, to int) {
	page = max(1, min(page, MaxPage))
	to = page * PageSize
	return to - PageSize + 1, to
}

// resolve merges o with the defaults. Zero is a legitimate value for Children
// and MinRate. The remaining counts and bounds cannot be zero, so a
// non-positive value counts as not supplied.
func (o Options) resolve(today time.Time) hotelbeds.AvailabilityRequest {
	checkIn := today
	checkOut := today.AddDate(0, 0, DefaultStayNights)
	if o.CheckIn != nil && o.CheckOut != nil {
		checkIn, checkOut = *o.CheckIn, *o.CheckOut
	}

	return hotelbeds.AvailabilityRequest{
		CheckIn:  checkIn.Format(dateLayout),
		CheckOut: checkOut.Format(dateLayout),
		Occupancy: hotelbeds.Occupancy{
			Rooms:    positiveOr(o.Rooms, DefaultRooms),
			Adults:   positiveOr(o.Adults, DefaultAdults),
			Children: nonNegativeOr(o.Children, DefaultChildren),
		},
		Filter: hotelbeds.Filter{
			MinRate:          rateOr(o.MinRate, DefaultMinRate, true),
			MaxRate:          rateOr(o.MaxRate, DefaultMaxRate, false),
			MinCategory:      positiveOr(o.MinCategory, DefaultMinCategory),
			MaxCategory:      positiveOr(o.MaxCategory, DefaultMaxCategory),
			MaxRoomsPerHotel: positiveOr(o.MaxRoomsPerHotel, DefaultMaxRoomsPerHotel),
			MaxRatesPerRoom:  positiveOr(o.MaxRatesPerRoom, DefaultMaxRatesPerRoom),
		},
	}
}

func positiveOr(v *int, def int) int {
	if v == nil || *v <= 0 {
		return def
	}
	return *v
}

func nonNegativeOr(v *int, def int) int {
	if v == nil || *v < 0 {
		return def
	}
	return *v
}

func rateOr(v *float64, def float64, allowZero bool) float64 {
	switch {
	case v == nil, *v < 0:
		return def
	case *v == 0 && !allowZero:
		return def
	default:
		return *v
	}
}
