package hotelbeds

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Metadata is the descriptive record of a hotel from the content API.
type Metadata struct {
	ID             string `json:"hotel_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CountryCode    string `json:"countryCode"`
	Address        string `json:"address"`
	City           string `json:"city"`
	StarRatingCode string `json:"rating_s2c"`
}

// Availability is one priced hotel from the booking API.
type Availability struct {
	ID              string  `json:"hotel_id"`
	Name            string  `json:"name"`
	DestinationName string  `json:"destinationName"`
	MinRate         float64 `json:"minRate"`
	MaxRate         float64 `json:"maxRate"`
	CategoryName    string  `json:"categoryName"`
	Currency        string  `json:"currency"`
}

// AvailabilityResult holds the availability rows. Present is false when the
// response carried no nested hotels collection at all.
type AvailabilityResult struct {
	Hotels  []Availability
	Present bool
}

// Occupancy is one room request line.
type Occupancy struct {
	Rooms    int `json:"rooms"`
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

// Filter narrows the availability search.
type Filter struct {
	MinRate          float64 `json:"minRate"`
	MaxRate          float64 `json:"maxRate"`
	MinCategory      int     `json:"minCategory"`
	MaxCategory      int     `json:"maxCategory"`
	MaxRoomsPerHotel int     `json:"maxRooms"`
	MaxRatesPerRoom  int     `json:"maxRatesPerRoom"`
}

// AvailabilityRequest is sent as-is; the client applies no defaults.
type AvailabilityRequest struct {
	HotelIDs  []string
	CheckIn   string // YYYY-MM-DD
	CheckOut  string // YYYY-MM-DD
	Occupancy Occupancy
	Filter    Filter
}

// ---- wire format ----

// flexString accepts a JSON string or number. Hotel codes arrive as numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat accepts a JSON number or a decimal string. Rates arrive as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing rate %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type content struct {
	Content string `json:"content"`
}

type hotelContent struct {
	Code        *flexString `json:"code"`
	Name        content     `json:"name"`
	Description content     `json:"description"`
	CountryCode string      `json:"countryCode"`
	Address     content     `json:"address"`
	City        content     `json:"city"`
	S2C         string      `json:"S2C"`
}

func (h hotelContent) toMetadata() (Metadata, error) {
	if h.Code == nil || *h.Code == "" {
		return Metadata{}, fmt.Errorf("hotel entry without code")
	}
	return Metadata{
		ID:             string(*h.Code),
		Name:           h.Name.Content,
		Description:    h.Description.Content,
		CountryCode:    h.CountryCode,
		Address:        h.Address.Content,
		City:           h.City.Content,
		StarRatingCode: h.S2C,
	}, nil
}

type hotelsResponse struct {
	Hotels *[]hotelContent `json:"hotels"`
}

type detailResponse struct {
	Hotel *hotelContent `json:"hotel"`
}

type availabilityHotel struct {
	Code            *flexString `json:"code"`
	Name            string      `json:"name"`
	DestinationName string      `json:"destinationName"`
	MinRate         flexFloat   `json:"minRate"`
	MaxRate         flexFloat   `json:"maxRate"`
	CategoryName    string      `json:"categoryName"`
	Currency        string      `json:"currency"`
}

type availabilityResponse struct {
	Hotels *struct {
		Hotels []availabilityHotel `json:"hotels"`
	} `json:"hotels"`
}

type stay struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

type hotelList struct {
	Hotel []any `json:"hotel"`
}

type availabilityBody struct {
	Stay        stay        `json:"stay"`
	Occupancies []Occupancy `json:"occupancies"`
	Hotels      hotelList   `json:"hotels"`
	Filter      Filter      `json:"filter"`
}

func newAvailabilityBody(req AvailabilityRequest) availabilityBody {
	ids := make([]any, 0, len(req.HotelIDs))
	for _, id := range req.HotelIDs {
		// The booking API expects numeric hotel codes.
		if n, err := strconv.Atoi(id); err == nil {
			ids = append(ids, n)
			continue
		}
		ids = append(ids, id)
	}
	return availabilityBody{
		Stay:        stay{CheckIn: req.CheckIn, CheckOut: req.CheckOut},
		Occupancies: []Occupancy{req.Occupancy},
		Hotels:      hotelList{Hotel: ids},
		Filter:      req.Filter,
	}
}
