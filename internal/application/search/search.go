package search

import (
	"math"
	"strconv"
	"strings"

	"marketplace-backend/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const DefaultRadiusKm = 10.0

// Criteria are the predicates of a search; zero values are not applied.
type Criteria struct {
	Query       string
	Type        domain.ListingType
	Category    string
	BookingOnly bool
	MinPrice    *float64
	MaxPrice    *float64
	Amenities   []string
	Near        *orb.Point
	RadiusKm    float64
	Bounds      *orb.Bound
}

// Filter keeps the listings matching every set predicate, preserving input order.
func Filter(in []domain.Listing, c Criteria) []domain.Listing {
	out := make([]domain.Listing, 0, len(in))
	for i := range in {
		if c.Match(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

func (c Criteria) Match(l *domain.Listing) bool {
	if c.Type != "" && l.ListingType != c.Type {
		return false
	}
	if c.BookingOnly && !l.BookingEnabled {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(c.Query)); q != "" {
		hay := strings.ToLower(l.Title + "\n" + l.Description + "\n" + l.Address)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	if c.Category != "" && !strings.EqualFold(Category(l), c.Category) {
		return false
	}
	if c.MinPrice != nil || c.MaxPrice != nil {
		p, ok := Price(l)
		if !ok {
			return false
		}
		if c.MinPrice != nil && p < *c.MinPrice {
			return false
		}
		if c.MaxPrice != nil && p > *c.MaxPrice {
			return false
		}
	}
	if len(c.Amenities) > 0 && !hasAmenities(l, c.Amenities) {
		return false
	}
	if c.Near != nil || c.Bounds != nil {
		if l.Location == nil {
			return false
		}
		pt := orb.Point{l.Location.Lng, l.Location.Lat}
		if c.Bounds != nil && !c.Bounds.Contains(pt) {
			return false
		}
		if c.Near != nil {
			radius := c.RadiusKm
			if radius <= 0 {
				radius = DefaultRadiusKm
			}
			if geo.Distance(*c.Near, pt) > radius*1000 {
				return false
			}
		}
	}
	return true
}

// Category is the service or experience category; other types have none.
func Category(l *domain.Listing) string {
	switch {
	case l.Service != nil:
		return l.Service.ServiceCategory
	case l.Experience != nil:
		return l.Experience.ExperienceCategory
	}
	return ""
}

// Price is the comparable price of a listing: the nightly price of a stay and the cheapest
// ticket or tier otherwise. Services have no price.
func Price(l *domain.Listing) (float64, bool) {
	switch l.ListingType {
	case domain.ListingTypeStay:
		if l.Stay != nil && l.Stay.StayPrice != nil {
			return *l.Stay.StayPrice, true
		}
	case domain.ListingTypeEvent:
		if l.Event != nil && len(l.Event.EventPricing) > 0 {
			lowest := math.Inf(1)
			for _, p := range l.Event.EventPricing {
				lowest = math.Min(lowest, p.Price)
			}
			return lowest, true
		}
	case domain.ListingTypeExperience:
		if l.Experience != nil && len(l.Experience.ExperiencePricing) > 0 {
			lowest := math.Inf(1)
			for _, p := range l.Experience.ExperiencePricing {
				lowest = math.Min(lowest, p)
			}
			return lowest, true
		}
	}
	return 0, false
}

func hasAmenities(l *domain.Listing, want []string) bool {
	if l.Stay == nil {
		return false
	}
	have := make(map[string]bool, len(l.Stay.Amenities))
	for _, a := range l.Stay.Amenities {
		have[strings.ToLower(a)] = true
	}
	for _, a := range want {
		if !have[strings.ToLower(a)] {
			return false
		}
	}
	return true
}

// ParseQuery reads criteria from query parameters: q, type, category, booking, minPrice,
// maxPrice, amenities (comma separated), lat+lng+radiusKm, bbox (minLng,minLat,maxLng,maxLat).
// Every malformed parameter is reported in one ValidationError.
func ParseQuery(get func(key string) string) (Criteria, error) {
	c := Criteria{Query: get("q"), Category: strings.TrimSpace(get("category"))}
	var bad []string

	if v := get("type"); v != "" {
		t, ok := domain.ParseListingType(v)
		if ok {
			c.Type = t
		} else {
			bad = append(bad, "type")
		}
	}
	if v := get("booking"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			bad = append(bad, "booking")
		}
		c.BookingOnly = b
	}
	c.MinPrice = parseFloat(get("minPrice"), "minPrice", &bad)
	c.MaxPrice = parseFloat(get("maxPrice"), "maxPrice", &bad)
	if v := get("amenities"); v != "" {
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				c.Amenities = append(c.Amenities, a)
			}
		}
	}

	lat := parseFloat(get("lat"), "lat", &bad)
	lng := parseFloat(get("lng"), "lng", &bad)
	switch {
	case lat != nil && lng != nil:
		if *lat < -90 || *lat > 90 {
			bad = append(bad, "lat")
		}
		if *lng < -180 || *lng > 180 {
			bad = append(bad, "lng")
		}
		c.Near = &orb.Point{*lng, *lat}
	case lat != nil:
		bad = append(bad, "lng")
	case lng != nil:
		bad = append(bad, "lat")
	}
	if r := parseFloat(get("radiusKm"), "radiusKm", &bad); r != nil {
		if *r <= 0 {
			bad = append(bad, "radiusKm")
		}
		c.RadiusKm = *r
	}

	if v := get("bbox"); v != "" {
		b, ok := parseBBox(v)
		if ok {
			c.Bounds = &b
		} else {
			bad = append(bad, "bbox")
		}
	}

	if len(bad) > 0 {
		return Criteria{}, &domain.ValidationError{Message: "Invalid search parameters", Fields: bad}
	}
	return c, nil
}

func parseFloat(v, name string, bad *[]string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*bad = append(*bad, name)
		return nil
	}
	return &f
}

func parseBBox(v string) (orb.Bound, bool) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return orb.Bound{}, false
	}
	var n [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, false
		}
		n[i] = f
	}
	if n[0] > n[2] || n[1] > n[3] {
		return orb.Bound{}, false
	}
	return orb.Bound{Min: orb.Point{n[0], n[1]}, Max: orb.Point{n[2], n[3]}}, true
}
