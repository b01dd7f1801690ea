package domain

import "strings"

// Field names as they appear on the wire; also the names reported in ValidationError.
const (
	FieldListingType        = "listingType"
	FieldTitle              = "title"
	FieldDescription        = "description"
	FieldLocation           = "location"
	FieldAddress            = "address"
	FieldServiceCategory    = "serviceCategory"
	FieldEventDate          = "eventDate"
	FieldEventTime          = "eventTime"
	FieldCapacity           = "capacity"
	FieldEventPricing       = "eventPricing"
	FieldCheckInTime        = "checkInTime"
	FieldCheckOutTime       = "checkOutTime"
	FieldStayPrice          = "stayPrice"
	FieldStayAvailability   = "stayAvailability"
	FieldExperienceCategory = "experienceCategory"
	FieldDuration           = "duration"
	FieldIncluded           = "included"
	FieldGroupSize          = "groupSize"
	FieldExperiencePricing  = "experiencePricing"
)

var commonRequired = []string{FieldTitle, FieldDescription, FieldLocation, FieldAddress}

var typeRequired = map[ListingType][]string{
	ListingTypeService:    {FieldServiceCategory},
	ListingTypeEvent:      {FieldEventDate, FieldEventTime, FieldCapacity, FieldEventPricing},
	ListingTypeStay:       {FieldCheckInTime, FieldCheckOutTime, FieldStayPrice, FieldStayAvailability},
	ListingTypeExperience: {FieldExperienceCategory, FieldDuration, FieldIncluded, FieldGroupSize, FieldExperiencePricing},
}

var present = map[string]func(l *Listing) bool{
	FieldTitle:       func(l *Listing) bool { return notBlank(l.Title) },
	FieldDescription: func(l *Listing) bool { return notBlank(l.Description) },
	FieldLocation:    func(l *Listing) bool { return l.Location != nil },
	FieldAddress:     func(l *Listing) bool { return notBlank(l.Address) },

	FieldServiceCategory: func(l *Listing) bool { return l.Service != nil && notBlank(l.Service.ServiceCategory) },

	FieldEventDate:    func(l *Listing) bool { return l.Event != nil && notBlank(l.Event.EventDate) },
	FieldEventTime:    func(l *Listing) bool { return l.Event != nil && notBlank(l.Event.EventTime) },
	FieldCapacity:     func(l *Listing) bool { return l.Event != nil && l.Event.Capacity != nil },
	FieldEventPricing: func(l *Listing) bool { return l.Event != nil && len(l.Event.EventPricing) > 0 },

	FieldCheckInTime:      func(l *Listing) bool { return l.Stay != nil && notBlank(l.Stay.CheckInTime) },
	FieldCheckOutTime:     func(l *Listing) bool { return l.Stay != nil && notBlank(l.Stay.CheckOutTime) },
	FieldStayPrice:        func(l *Listing) bool { return l.Stay != nil && l.Stay.StayPrice != nil },
	FieldStayAvailability: func(l *Listing) bool { return l.Stay != nil && len(l.Stay.StayAvailability) > 0 },

	FieldExperienceCategory: func(l *Listing) bool { return l.Experience != nil && notBlank(l.Experience.ExperienceCategory) },
	FieldDuration:           func(l *Listing) bool { return l.Experience != nil && notBlank(l.Experience.Duration) },
	FieldIncluded:           func(l *Listing) bool { return l.Experience != nil && notBlank(l.Experience.Included) },
	FieldGroupSize:          func(l *Listing) bool { return l.Experience != nil && l.Experience.GroupSize != nil },
	FieldExperiencePricing:  func(l *Listing) bool { return l.Experience != nil && len(l.Experience.ExperiencePricing) > 0 },
}

// RequiredFields lists the common fields followed by the fields required for t.
func RequiredFields(t ListingType) []string {
	out := make([]string, 0, len(commonRequired)+len(typeRequired[t]))
	out = append(out, commonRequired...)
	return append(out, typeRequired[t]...)
}

// MissingFields returns every required field l lacks, in table order. Empty means valid.
func MissingFields(l *Listing) []string {
	var missing []string
	for _, f := range RequiredFields(l.ListingType) {
		if !present[f](l) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Validate returns a *ValidationError naming every missing field, or nil.
func Validate(l *Listing) error {
	if _, ok := typeRequired[l.ListingType]; !ok {
		return &ValidationError{Message: "Invalid listing type", Fields: []string{FieldListingType}}
	}
	if missing := MissingFields(l); len(missing) > 0 {
		return &ValidationError{Message: "Missing required fields", Fields: missing}
	}
	return nil
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
