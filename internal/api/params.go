package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/hotel-lister/internal/hotel"
)

const dateLayout = "2006-01-02"

// paramError is a malformed query parameter.
type paramError struct {
	name  string
	value string
	want  string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("%s must be %s, got %q", e.name, e.want, e.value)
}

// queryParser reads optional query parameters and keeps the first failure.
type queryParser struct {
	q   url.Values
	err error
}

func (p *queryParser) fail(name, value, want string) {
	if p.err == nil {
		p.err = &paramError{name: name, value: value, want: want}
	}
}

func (p *queryParser) str(name string) string {
	return strings.TrimSpace(p.q.Get(name))
}

func (p *queryParser) integer(name string) *int {
	raw := p.str(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(name, raw, "an integer")
		return nil
	}
	return &n
}

func (p *queryParser) float(name string) *float64 {
	raw := p.str(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(name, raw, "a number")
		return nil
	}
	return &f
}

func (p *queryParser) date(name string) *time.Time {
	raw := p.str(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		p.fail(name, raw, "a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

// options reads the search options shared by both pricing flows.
func (p *queryParser) options() hotel.Options {
	return hotel.Options{
		CheckIn:          p.date("check_in"),
		CheckOut:         p.date("check_out"),
		Rooms:            p.integer("rooms"),
		Adults:           p.integer("adults"),
		Children:         p.integer("children"),
		MinRate:          p.float("minRate"),
		MaxRate:          p.float("maxRate"),
		MinCategory:      p.integer("minCategory"),
		MaxCategory:      p.integer("maxCategory"),
		MaxRoomsPerHotel: p.integer("maxRooms"),
		MaxRatesPerRoom:  p.integer("maxRatesPerRoom"),
	}
}

// page reads name, defaulting to the first page.
func (p *queryParser) page(name string) int {
	if n := p.integer(name); n != nil {
		return *n
	}
	return 1
}

// hotelIDs accepts both repeated parameters and comma separated lists.
func hotelIDs(q url.Values) []string {
	var ids []string
	for _, v := range q["hotel_id"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
