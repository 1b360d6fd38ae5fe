package gsm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"payment-router/internal/config"
	"payment-router/internal/models"
	"payment-router/internal/repository"
	"payment-router/pkg/cache"
	"payment-router/pkg/errors"
	"payment-router/pkg/logger"
)

// negativeSentinel marks a cached miss so repeat lookups skip the database
const negativeSentinel = "__no_gsm_record__"

// Store is the read surface over the gateway status mapping. Lookups are
// exact on (connector, flow, code, message); a row with an empty message
// acts as the code-level fallback. Positive hits cache with a short TTL,
// misses cache with a negative sentinel. Cache failures degrade to direct
// repository reads.
type Store struct {
	repo   repository.GsmRepository
	cache  *cache.Cache
	cfg    *config.GsmConfig
	logger *logger.Logger
}

// NewStore creates a gateway status mapping store. The cache may be nil, in
// which case every lookup goes to the repository.
func NewStore(repo repository.GsmRepository, cache *cache.Cache, cfg *config.GsmConfig, logger *logger.Logger) *Store {
	return &Store{
		repo:   repo,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

func cacheKey(connector, flow, code, message string) string {
	return fmt.Sprintf("gsm:%s:%s:%s:%s", connector, flow, code, message)
}

// Lookup finds the mapping for a connector error. A nil record with a nil
// error means no mapping exists.
func (s *Store) Lookup(ctx context.Context, connector, flow, code, message string) (*models.GsmRecord, error) {
	key := cacheKey(connector, flow, code, message)

	if record, found := s.fromCache(ctx, key); found {
		return record, nil
	}

	record, err := s.find(ctx, connector, flow, code, message)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, record)
	return record, nil
}

// find does the two-step exact lookup: the full key first, then the
// wildcard-message row for the same code
func (s *Store) find(ctx context.Context, connector, flow, code, message string) (*models.GsmRecord, error) {
	record, err := s.repo.FindByKey(ctx, connector, flow, code, message)
	if err == nil {
		return record, nil
	}
	if !errors.IsType(err, errors.ErrorTypeNotFound) {
		return nil, err
	}

	record, err = s.repo.FindByKey(ctx, connector, flow, code, "")
	if err == nil {
		return record, nil
	}
	if errors.IsType(err, errors.ErrorTypeNotFound) {
		return nil, nil
	}
	return nil, err
}

// Upsert inserts a mapping row and drops its cache entry. A row that already
// exists for the same key is not overwritten: the repository's Duplicate
// error is returned. Admin writes never block ongoing lookups; readers keep
// hitting the cache or the table.
func (s *Store) Upsert(ctx context.Context, record *models.GsmRecord) (*models.GsmRecord, error) {
	inserted, err := s.repo.Insert(ctx, record)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		key := cacheKey(record.Connector, record.Flow, record.Code, record.Message)
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to invalidate gsm cache entry", "error", err, "key", key)
		}
	}
	return inserted, nil
}

func (s *Store) fromCache(ctx context.Context, key string) (*models.GsmRecord, bool) {
	if s.cache == nil {
		return nil, false
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Gsm cache read failed", "error", err, "key", key)
		}
		return nil, false
	}
	if value == negativeSentinel {
		return nil, true
	}

	var record models.GsmRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		s.logger.Warn("Gsm cache entry unparsable", "error", err, "key", key)
		return nil, false
	}
	return &record, true
}

func (s *Store) toCache(ctx context.Context, key string, record *models.GsmRecord) {
	if s.cache == nil {
		return
	}

	if record == nil {
		if err := s.cache.Set(ctx, key, negativeSentinel, s.cfg.NegativeTTL); err != nil {
			s.logger.Warn("Gsm negative cache write failed", "error", err, "key", key)
		}
		return
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(encoded), s.cfg.PositiveTTL); err != nil {
		s.logger.Warn("Gsm cache write failed", "error", err, "key", key)
	}
}
