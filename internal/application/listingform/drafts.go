package listingform

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-backend/internal/application/listings"
	"marketplace-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	draftKeyPrefix  = "listing_draft:"
	DefaultDraftTTL = 24 * time.Hour
)

var ErrDraftNotFound = errors.New("Draft not found")

// Creator is the listing create operation a submitted draft goes through.
type Creator interface {
	Create(ctx context.Context, ownerUID string, in domain.ListingFields) (*listings.CreateResult, error)
}

type Draft struct {
	ID        string    `json:"id"`
	OwnerUID  string    `json:"ownerUid"`
	Wizard    *Wizard   `json:"wizard"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View is the client-facing shape of a draft.
type View struct {
	ID         string               `json:"id"`
	Steps      []Step               `json:"steps"`
	Current    Step                 `json:"currentStep"`
	Index      int                  `json:"index"`
	Fields     domain.ListingFields `json:"fields"`
	StepIssues []string             `json:"stepIssues"`
	Missing    []string             `json:"missing"`
	Preview    *domain.Listing      `json:"preview,omitempty"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

func (d *Draft) View() View {
	w := d.Wizard
	v := View{
		ID:         d.ID,
		Steps:      w.Steps,
		Current:    w.Current(),
		Index:      w.Index,
		Fields:     w.Fields,
		StepIssues: w.StepIssues(),
		Missing:    w.Missing(),
		UpdatedAt:  d.UpdatedAt,
	}
	if w.Current() == StepPreview {
		v.Preview = w.Draft()
	}
	return v
}

// Patch is one interaction with a draft: optional type choice, optional fields, optional move.
type Patch struct {
	ListingType *string               `json:"listingType"`
	Fields      *domain.ListingFields `json:"fields"`
	Move        string                `json:"move"`
}

// DraftStore keeps in-progress forms in Redis under listing_draft:<uid>:<id>, expiring after TTL.
type DraftStore struct {
	Rdb      *redis.Client
	TTL      time.Duration
	Listings Creator
	Timeout  time.Duration
}

func draftKey(uid, id string) string {
	return fmt.Sprintf("%s%s:%s", draftKeyPrefix, uid, id)
}

func (s *DraftStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultDraftTTL
	}
	return s.TTL
}

func (s *DraftStore) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// Start opens a new draft at the type selection step.
func (s *DraftStore) Start(ctx context.Context, uid string) (*Draft, error) {
	if uid == "" {
		return nil, domain.ErrUnauthenticated
	}
	now := time.Now().UTC()
	d := &Draft{ID: uuid.NewString(), OwnerUID: uid, Wizard: NewWizard(), CreatedAt: now, UpdatedAt: now}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get loads a draft owned by uid; drafts of other users are reported as ErrDraftNotFound.
func (s *DraftStore) Get(ctx context.Context, uid, id string) (*Draft, error) {
	if uid == "" {
		return nil, domain.ErrUnauthenticated
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	raw, err := s.Rdb.Get(ctx, draftKey(uid, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, redisError(err, "load draft")
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil || d.Wizard == nil {
		log.Warn().Str("draft_id", id).Msg("discarding unreadable draft")
		return nil, ErrDraftNotFound
	}
	d.Wizard.normalize()
	return &d, nil
}

// Update applies p and persists the draft, refreshing its TTL.
func (s *DraftStore) Update(ctx context.Context, uid, id string, p Patch) (*Draft, error) {
	d, err := s.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if p.ListingType != nil {
		if err := d.Wizard.Apply(domain.ListingFields{ListingType: p.ListingType}); err != nil {
			return nil, err
		}
	}
	if p.Fields != nil {
		if err := d.Wizard.Apply(*p.Fields); err != nil {
			return nil, err
		}
	}
	switch p.Move {
	case "next":
		d.Wizard.Next()
	case "back":
		d.Wizard.Back()
	case "":
	default:
		return nil, &domain.ValidationError{Message: "Invalid move", Fields: []string{"move"}}
	}
	d.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Submit sends the composed draft through the regular create path, which re-runs full
// validation. The draft is removed only once the listing exists.
func (s *DraftStore) Submit(ctx context.Context, uid, id string) (*listings.CreateResult, error) {
	d, err := s.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	res, err := s.Listings.Create(ctx, uid, d.Wizard.Compose())
	if err != nil {
		return nil, err
	}
	if err := s.Discard(ctx, uid, id); err != nil {
		log.Warn().Err(err).Str("draft_id", id).Msg("failed to remove submitted draft")
	}
	return res, nil
}

func (s *DraftStore) Discard(ctx context.Context, uid, id string) error {
	if uid == "" {
		return domain.ErrUnauthenticated
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	n, err := s.Rdb.Del(ctx, draftKey(uid, id)).Result()
	if err != nil {
		return redisError(err, "delete draft")
	}
	if n == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func (s *DraftStore) save(ctx context.Context, d *Draft) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	raw, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encode draft")
	}
	if err := s.Rdb.Set(ctx, draftKey(d.OwnerUID, d.ID), raw, s.ttl()).Err(); err != nil {
		return redisError(err, "save draft")
	}
	return nil
}

func redisError(err error, op string) error {
	return errors.Wrapf(domain.ErrUpstreamUnavailable, "%s: %v", op, err)
}

func (w *Wizard) normalize() {
	if len(w.Steps) == 0 {
		w.Steps = StepsFor(w.Type)
	}
	if w.Index < 0 || w.Index >= len(w.Steps) {
		w.Index = 0
	}
}
