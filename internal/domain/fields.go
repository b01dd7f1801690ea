package domain

// ListingFields is the flat wire shape a client sends for create, update and form drafts.
// A nil pointer means "not provided"; Apply only touches provided fields, which gives
// update its partial-patch semantics. Fields belonging to another listing type are ignored.
type ListingFields struct {
	ListingType    *string   `json:"listingType,omitempty"`
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Address        *string   `json:"address,omitempty"`
	Location       *Location `json:"location,omitempty"`
	Images         *[]string `json:"images,omitempty" validate:"omitempty,dive,url"`
	VideoLink      *string   `json:"videoLink,omitempty" validate:"omitempty,url"`
	BookingEnabled *bool     `json:"bookingEnabled,omitempty"`

	ServiceCategory *string       `json:"serviceCategory,omitempty"`
	IsIndividual    *bool         `json:"isIndividual,omitempty"`
	OpeningHours    *OpeningHours `json:"openingHours,omitempty"`
	Availability    *Availability `json:"availability,omitempty"`

	EventDate    *string       `json:"eventDate,omitempty"`
	EventTime    *string       `json:"eventTime,omitempty"`
	Capacity     *int          `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	EventPricing *[]EventPrice `json:"eventPricing,omitempty"`

	CheckInTime      *string      `json:"checkInTime,omitempty"`
	CheckOutTime     *string      `json:"checkOutTime,omitempty"`
	StayPrice        *float64     `json:"stayPrice,omitempty" validate:"omitempty,gte=0"`
	Amenities        *[]string    `json:"amenities,omitempty"`
	StayAvailability *[]DateRange `json:"stayAvailability,omitempty"`

	ExperienceCategory *string             `json:"experienceCategory,omitempty"`
	Duration           *string             `json:"duration,omitempty"`
	Included           *string             `json:"included,omitempty"`
	GroupSize          *int                `json:"groupSize,omitempty" validate:"omitempty,gte=0"`
	ExperiencePricing  *map[string]float64 `json:"experiencePricing,omitempty"`
}

// Apply copies every provided field onto l. The listing type itself is not changed here.
func (f *ListingFields) Apply(l *Listing) {
	if f.Title != nil {
		l.Title = *f.Title
	}
	if f.Description != nil {
		l.Description = *f.Description
	}
	if f.Address != nil {
		l.Address = *f.Address
	}
	if f.Location != nil {
		loc := *f.Location
		l.Location = &loc
	}
	if f.Images != nil {
		l.Images = append([]string{}, (*f.Images)...)
	}
	if f.VideoLink != nil {
		if *f.VideoLink == "" {
			l.VideoLink = nil
		} else {
			v := *f.VideoLink
			l.VideoLink = &v
		}
	}
	if f.BookingEnabled != nil {
		l.BookingEnabled = *f.BookingEnabled
	}

	l.ensureVariant()
	switch l.ListingType {
	case ListingTypeService:
		f.applyService(l.Service)
	case ListingTypeEvent:
		f.applyEvent(l.Event)
	case ListingTypeStay:
		f.applyStay(l.Stay)
	case ListingTypeExperience:
		f.applyExperience(l.Experience)
	}
}

func (f *ListingFields) applyService(d *ServiceDetails) {
	if f.ServiceCategory != nil {
		d.ServiceCategory = *f.ServiceCategory
	}
	if f.IsIndividual != nil {
		d.IsIndividual = *f.IsIndividual
	}
	if f.OpeningHours != nil {
		d.OpeningHours = *f.OpeningHours
	}
	if f.Availability != nil {
		d.Availability = *f.Availability
	}
}

func (f *ListingFields) applyEvent(d *EventDetails) {
	if f.EventDate != nil {
		d.EventDate = *f.EventDate
	}
	if f.EventTime != nil {
		d.EventTime = *f.EventTime
	}
	if f.Capacity != nil {
		c := *f.Capacity
		d.Capacity = &c
	}
	if f.EventPricing != nil {
		d.EventPricing = append([]EventPrice{}, (*f.EventPricing)...)
	}
}

func (f *ListingFields) applyStay(d *StayDetails) {
	if f.CheckInTime != nil {
		d.CheckInTime = *f.CheckInTime
	}
	if f.CheckOutTime != nil {
		d.CheckOutTime = *f.CheckOutTime
	}
	if f.StayPrice != nil {
		p := *f.StayPrice
		d.StayPrice = &p
	}
	if f.Amenities != nil {
		d.Amenities = dedupe(*f.Amenities)
	}
	if f.StayAvailability != nil {
		d.StayAvailability = append([]DateRange{}, (*f.StayAvailability)...)
	}
}

func (f *ListingFields) applyExperience(d *ExperienceDetails) {
	if f.ExperienceCategory != nil {
		d.ExperienceCategory = *f.ExperienceCategory
	}
	if f.Duration != nil {
		d.Duration = *f.Duration
	}
	if f.Included != nil {
		d.Included = *f.Included
	}
	if f.GroupSize != nil {
		g := *f.GroupSize
		d.GroupSize = &g
	}
	if f.ExperiencePricing != nil {
		m := make(map[string]float64, len(*f.ExperiencePricing))
		for k, v := range *f.ExperiencePricing {
			m[k] = v
		}
		d.ExperiencePricing = m
	}
}

// Merge overlays provided fields of other onto f (used to accumulate wizard steps).
func (f *ListingFields) Merge(other ListingFields) {
	if other.ListingType != nil {
		f.ListingType = other.ListingType
	}
	if other.Title != nil {
		f.Title = other.Title
	}
	if other.Description != nil {
		f.Description = other.Description
	}
	if other.Address != nil {
		f.Address = other.Address
	}
	if other.Location != nil {
		f.Location = other.Location
	}
	if other.Images != nil {
		f.Images = other.Images
	}
	if other.VideoLink != nil {
		f.VideoLink = other.VideoLink
	}
	if other.BookingEnabled != nil {
		f.BookingEnabled = other.BookingEnabled
	}
	if other.ServiceCategory != nil {
		f.ServiceCategory = other.ServiceCategory
	}
	if other.IsIndividual != nil {
		f.IsIndividual = other.IsIndividual
	}
	if other.OpeningHours != nil {
		f.OpeningHours = other.OpeningHours
	}
	if other.Availability != nil {
		f.Availability = other.Availability
	}
	if other.EventDate != nil {
		f.EventDate = other.EventDate
	}
	if other.EventTime != nil {
		f.EventTime = other.EventTime
	}
	if other.Capacity != nil {
		f.Capacity = other.Capacity
	}
	if other.EventPricing != nil {
		f.EventPricing = other.EventPricing
	}
	if other.CheckInTime != nil {
		f.CheckInTime = other.CheckInTime
	}
	if other.CheckOutTime != nil {
		f.CheckOutTime = other.CheckOutTime
	}
	if other.StayPrice != nil {
		f.StayPrice = other.StayPrice
	}
	if other.Amenities != nil {
		f.Amenities = other.Amenities
	}
	if other.StayAvailability != nil {
		f.StayAvailability = other.StayAvailability
	}
	if other.ExperienceCategory != nil {
		f.ExperienceCategory = other.ExperienceCategory
	}
	if other.Duration != nil {
		f.Duration = other.Duration
	}
	if other.Included != nil {
		f.Included = other.Included
	}
	if other.GroupSize != nil {
		f.GroupSize = other.GroupSize
	}
	if other.ExperiencePricing != nil {
		f.ExperiencePricing = other.ExperiencePricing
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
