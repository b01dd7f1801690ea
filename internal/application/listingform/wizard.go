package listingform

import (
	"marketplace-backend/internal/domain"
)

// Step is one screen of the listing form.
type Step string

const (
	StepTypeSelection     Step = "type_selection"
	StepBasicDetails      Step = "basic_details"
	StepGallery           Step = "gallery"
	StepLocation          Step = "location"
	StepOpeningHours      Step = "opening_hours"
	StepAvailability      Step = "availability"
	StepBookingOption     Step = "booking_option"
	StepUserDetails       Step = "user_details"
	StepEventDetails      Step = "event_details"
	StepStayDetails       Step = "stay_details"
	StepExperienceDetails Step = "experience_details"
	StepPreview           Step = "preview"
)

var baseSteps = []Step{
	StepTypeSelection, StepBasicDetails, StepGallery, StepLocation, StepOpeningHours,
	StepAvailability, StepBookingOption, StepUserDetails, StepPreview,
}

// Service has no extra step; its only type field lives in Basic Details.
var typeStep = map[domain.ListingType]Step{
	domain.ListingTypeEvent:      StepEventDetails,
	domain.ListingTypeStay:       StepStayDetails,
	domain.ListingTypeExperience: StepExperienceDetails,
}

// stepFields is which wire fields each step collects. Whether they are required comes from
// domain.RequiredFields, never from here.
var stepFields = map[Step][]string{
	StepTypeSelection: {domain.FieldListingType},
	StepBasicDetails:  {domain.FieldTitle, domain.FieldDescription, domain.FieldServiceCategory},
	StepLocation:      {domain.FieldLocation, domain.FieldAddress},
	StepEventDetails:  {domain.FieldEventDate, domain.FieldEventTime, domain.FieldCapacity, domain.FieldEventPricing},
	StepStayDetails:   {domain.FieldCheckInTime, domain.FieldCheckOutTime, domain.FieldStayPrice, domain.FieldStayAvailability},
	StepExperienceDetails: {
		domain.FieldExperienceCategory, domain.FieldDuration, domain.FieldIncluded,
		domain.FieldGroupSize, domain.FieldExperiencePricing,
	},
}

// StepsFor returns the step sequence for t; t == "" gives the sequence before a type is chosen.
func StepsFor(t domain.ListingType) []Step {
	steps := make([]Step, 0, len(baseSteps)+1)
	extra, ok := typeStep[t]
	for _, s := range baseSteps {
		if s == StepPreview && ok {
			steps = append(steps, extra)
		}
		steps = append(steps, s)
	}
	return steps
}

// StepFields returns the wire fields collected on s.
func StepFields(s Step) []string {
	return append([]string(nil), stepFields[s]...)
}

// Wizard is the form state. Advancing is never gated; only Submit validates.
type Wizard struct {
	Type   domain.ListingType   `json:"listingType,omitempty"`
	Steps  []Step               `json:"steps"`
	Index  int                  `json:"index"`
	Fields domain.ListingFields `json:"fields"`
}

func NewWizard() *Wizard {
	return &Wizard{Steps: StepsFor("")}
}

func (w *Wizard) Current() Step {
	return w.Steps[w.Index]
}

// Next advances one step and stays on Preview once there.
func (w *Wizard) Next() Step {
	if w.Index < len(w.Steps)-1 {
		w.Index++
	}
	return w.Current()
}

func (w *Wizard) Back() Step {
	if w.Index > 0 {
		w.Index--
	}
	return w.Current()
}

// SelectType splices the type's extra step before Preview, replacing any previous one.
// The current step is kept when it still exists; otherwise the cursor moves to Preview.
func (w *Wizard) SelectType(t domain.ListingType) {
	current := w.Current()
	w.Type = t
	s := string(t)
	w.Fields.ListingType = &s
	w.Steps = StepsFor(t)
	w.Index = len(w.Steps) - 1
	for i, step := range w.Steps {
		if step == current {
			w.Index = i
			break
		}
	}
}

// Apply merges patch into the accumulated fields. A listingType in patch selects the type.
func (w *Wizard) Apply(patch domain.ListingFields) error {
	if patch.ListingType != nil {
		t, ok := domain.ParseListingType(*patch.ListingType)
		if !ok {
			return &domain.ValidationError{Message: "Invalid listing type", Fields: []string{domain.FieldListingType}}
		}
		patch.ListingType = nil
		w.SelectType(t)
	}
	w.Fields.Merge(patch)
	return nil
}

// Draft renders the accumulated fields as a listing for preview. Nil before a type is chosen.
func (w *Wizard) Draft() *domain.Listing {
	if w.Type == "" {
		return nil
	}
	l := domain.NewListing(w.Type)
	w.Fields.Apply(l)
	return l
}

// Missing lists every required field not yet provided, in rule table order.
func (w *Wizard) Missing() []string {
	l := w.Draft()
	if l == nil {
		return []string{domain.FieldListingType}
	}
	return domain.MissingFields(l)
}

// StepIssues lists the required fields owned by the current step that are still missing.
// Preview reports everything missing. Advisory only.
func (w *Wizard) StepIssues() []string {
	missing := w.Missing()
	if w.Current() == StepPreview {
		return missing
	}
	owned := map[string]bool{}
	for _, f := range stepFields[w.Current()] {
		owned[f] = true
	}
	issues := []string{}
	for _, f := range missing {
		if owned[f] {
			issues = append(issues, f)
		}
	}
	return issues
}

// Compose is the single payload sent to create on submission.
func (w *Wizard) Compose() domain.ListingFields {
	out := w.Fields
	if w.Type != "" {
		s := string(w.Type)
		out.ListingType = &s
	}
	return out
}
