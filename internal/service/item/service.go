package item

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"pennycentral/internal/cache"
	"pennycentral/internal/domain"
	"pennycentral/internal/events"
	"pennycentral/internal/imageurl"
	"pennycentral/internal/itemname"
	itemrepo "pennycentral/internal/repository/item"
	"pennycentral/internal/sku"
)

// ListCachePrefix namespaces cached penny-list pages.
const ListCachePrefix = "penny-list:"

const (
	defaultLimit = 50
	maxLimit     = 200
	defaultTTL   = 5 * time.Minute
)

var stateCode = regexp.MustCompile(`^[A-Z]{2}$`)

type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Bus      *events.Bus
	SKU      *sku.Validator
	Logger   *log.Logger
	Now      func() time.Time
}

// Service owns the public penny list and every write that touches it.
type Service struct {
	repo   itemrepo.Repository
	cache  cache.Cache
	ttl    time.Duration
	bus    *events.Bus
	skus   *sku.Validator
	logger *log.Logger
	now    func() time.Time
}

func New(repo itemrepo.Repository, opts Options) *Service {
	s := &Service{
		repo:   repo,
		cache:  opts.Cache,
		ttl:    opts.CacheTTL,
		bus:    opts.Bus,
		skus:   opts.SKU,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if s.ttl <= 0 {
		s.ttl = defaultTTL
	}
	if s.skus == nil {
		s.skus = sku.NewValidator()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// NormalizeState upper-cases a two-letter state code. Empty means every state.
func NormalizeState(raw string) (string, error) {
	state := strings.ToUpper(strings.TrimSpace(raw))
	if state == "" || stateCode.MatchString(state) {
		return state, nil
	}
	return "", domain.NewValidationError("state", "state must be a two-letter code")
}

// List returns active items with thumbnail-sized images, most recently seen first.
func (s *Service) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	state, err := NormalizeState(filter.State)
	if err != nil {
		return nil, err
	}
	filter.State = state
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultLimit
	case filter.Limit > maxLimit:
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	key := fmt.Sprintf("%s%s:%d:%d", ListCachePrefix, filter.State, filter.Limit, filter.Offset)
	if s.cache != nil {
		var cached []domain.Item
		err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Printf("item service: cache get key=%s error=%v", key, err)
		}
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ImageURL = imageurl.Thumbnail(items[i].ImageURL)
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, items, s.ttl); err != nil {
			s.logger.Printf("item service: cache set key=%s error=%v", key, err)
		}
	}
	return items, nil
}

// Get looks an item up by any SKU spelling and returns it with a detail image.
func (s *Service) Get(ctx context.Context, rawSKU string) (*domain.Item, error) {
	normalized, err := s.normalizeSKU(rawSKU)
	if err != nil {
		return nil, err
	}
	it, err := s.repo.GetBySKU(ctx, normalized)
	if err != nil {
		return nil, err
	}
	it.ImageURL = imageurl.Detail(it.ImageURL)
	return it, nil
}

// Patch applies admin edits. A new name only replaces the current one when it
// is a better description or Force is set.
func (s *Service) Patch(ctx context.Context, rawSKU string, patch domain.ItemPatch) (*domain.Item, error) {
	normalized, err := s.normalizeSKU(rawSKU)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.GetBySKU(ctx, normalized)
	if err != nil {
		return nil, err
	}

	next := *current
	if patch.Brand != nil {
		next.Brand = strings.TrimSpace(*patch.Brand)
	}
	if patch.Name != nil {
		name := strings.Join(strings.Fields(*patch.Name), " ")
		if name == "" {
			return nil, domain.NewValidationError("name", "name must not be empty")
		}
		if patch.Force || itemname.ShouldPreferEnriched(current.Name, name, next.Brand) {
			next.Name = name
		} else {
			s.logger.Printf("item service: kept name sku=%s", normalized)
		}
	}
	if patch.ImageURL != nil {
		next.ImageURL = imageurl.Detail(strings.TrimSpace(*patch.ImageURL))
	}
	if patch.Status != nil {
		switch *patch.Status {
		case domain.ItemActive, domain.ItemRetired:
			next.Status = *patch.Status
		default:
			return nil, domain.NewValidationError("status", "status must be active or retired")
		}
	}
	// Admin edits do not count as a sighting.
	next.LastSeenAt = time.Time{}

	updated, err := s.repo.Update(ctx, next, 0)
	if err != nil {
		return nil, err
	}
	s.bus.PublishItemChanged(events.ItemChanged{SKU: updated.SKU, Action: "updated"})
	updated.ImageURL = imageurl.Detail(updated.ImageURL)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawSKU string) error {
	normalized, err := s.normalizeSKU(rawSKU)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, normalized); err != nil {
		return err
	}
	s.bus.PublishItemChanged(events.ItemChanged{SKU: normalized, Action: "deleted"})
	return nil
}

// Observation is one sighting of an item, from an approved report or an import.
type Observation struct {
	SKU      string
	Name     string
	Brand    string
	ImageURL string
	// CountReport increments report_count and refreshes last_seen_at.
	CountReport bool
}

// Observe merges a sighting into the penny list. New SKUs are inserted; for
// existing ones the name is upgraded when the sighting describes it better and
// empty brand or image fields are filled. The bool reports whether the item
// was created.
func (s *Service) Observe(ctx context.Context, obs Observation) (*domain.Item, bool, error) {
	normalized, err := s.normalizeSKU(obs.SKU)
	if err != nil {
		return nil, false, err
	}
	name := strings.Join(strings.Fields(obs.Name), " ")
	brand := strings.TrimSpace(obs.Brand)
	image := imageurl.Detail(strings.TrimSpace(obs.ImageURL))

	current, err := s.repo.GetBySKU(ctx, normalized)
	if errors.Is(err, domain.ErrNotFound) {
		if name == "" {
			return nil, false, domain.NewValidationError("name", "name is required for a new item")
		}
		fresh := domain.Item{
			SKU:      normalized,
			Name:     name,
			Brand:    brand,
			ImageURL: image,
			Status:   domain.ItemActive,
		}
		if obs.CountReport {
			fresh.ReportCount = 1
			fresh.LastSeenAt = s.now().UTC()
		}
		created, err := s.repo.Create(ctx, fresh)
		if err == nil {
			s.bus.PublishItemChanged(events.ItemChanged{SKU: created.SKU, Action: "created"})
			return created, true, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, false, err
		}
		// Lost an insert race; merge into the row that won.
		current, err = s.repo.GetBySKU(ctx, normalized)
	}
	if err != nil {
		return nil, false, err
	}

	next := *current
	if next.Brand == "" {
		next.Brand = brand
	}
	if itemname.ShouldPreferEnriched(current.Name, name, next.Brand) {
		next.Name = name
	}
	if next.ImageURL == "" {
		next.ImageURL = image
	}
	next.LastSeenAt = time.Time{}
	delta := 0
	if obs.CountReport {
		delta = 1
		next.LastSeenAt = s.now().UTC()
	}

	updated, err := s.repo.Update(ctx, next, delta)
	if err != nil {
		return nil, false, err
	}
	s.bus.PublishItemChanged(events.ItemChanged{SKU: updated.SKU, Action: "updated"})
	return updated, false, nil
}

func (s *Service) normalizeSKU(raw string) (string, error) {
	res := s.skus.Validate(raw)
	if !res.Valid() {
		return "", domain.NewValidationError("sku", res.Err)
	}
	return res.Normalized, nil
}
