package store

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"pennycentral/internal/cache"
	"pennycentral/internal/domain"
	storerepo "pennycentral/internal/repository/store"
	itemsvc "pennycentral/internal/service/item"
)

// CachePrefix namespaces cached store listings.
const CachePrefix = "stores:"

type Service struct {
	repo   storerepo.Repository
	cache  cache.Cache
	ttl    time.Duration
	logger *log.Logger
}

// New builds a store locator. c may be nil to disable caching.
func New(repo storerepo.Repository, c cache.Cache, ttl time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{repo: repo, cache: c, ttl: ttl, logger: logger}
}

func (s *Service) List(ctx context.Context, rawState string) ([]domain.Store, error) {
	state, err := itemsvc.NormalizeState(rawState)
	if err != nil {
		return nil, err
	}

	key := CachePrefix + state
	if s.cache != nil {
		var cached []domain.Store
		err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Printf("store service: cache get key=%s error=%v", key, err)
		}
	}

	stores, err := s.repo.ListByState(ctx, state)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, stores, s.ttl); err != nil {
			s.logger.Printf("store service: cache set key=%s error=%v", key, err)
		}
	}
	return stores, nil
}

// Get accepts "#0123" or "0123". Anything that is not a store number is not found.
func (s *Service) Get(ctx context.Context, rawNumber string) (*domain.Store, error) {
	number := strings.TrimPrefix(strings.TrimSpace(rawNumber), "#")
	if number == "" || len(number) > 6 || strings.Trim(number, "0123456789") != "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByNumber(ctx, number)
}
