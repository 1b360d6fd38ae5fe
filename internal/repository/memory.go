package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"payment-router/internal/models"
	"payment-router/pkg/errors"
)

// MemoryStore is a mutex-guarded in-memory implementation of every
// repository interface. It backs the test suite and the local development
// profile where no postgres instance is available.
type MemoryStore struct {
	mu       sync.RWMutex
	intents  map[string]*models.PaymentIntent
	attempts map[string]*models.PaymentAttempt
	gsm      map[string]*models.GsmRecord
	configs  map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		intents:  make(map[string]*models.PaymentIntent),
		attempts: make(map[string]*models.PaymentAttempt),
		gsm:      make(map[string]*models.GsmRecord),
		configs:  make(map[string]string),
	}
}

func intentKey(paymentID, merchantID string) string {
	return paymentID + ":" + merchantID
}

func gsmKey(connector, flow, code, message string) string {
	return connector + ":" + flow + ":" + code + ":" + message
}

func (s *MemoryStore) Insert(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := intentKey(intent.PaymentID, intent.MerchantID)
	if _, exists := s.intents[key]; exists {
		return nil, errors.NewDuplicatePaymentError(intent.PaymentID)
	}
	copied := *intent
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	copied.ModifiedAt = copied.CreatedAt
	s.intents[key] = &copied
	result := copied
	return &result, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, paymentID, merchantID string) (*models.PaymentIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	intent, exists := s.intents[intentKey(paymentID, merchantID)]
	if !exists {
		return nil, errors.NewPaymentNotFoundError(paymentID)
	}
	result := *intent
	return &result, nil
}

func (s *MemoryStore) Update(ctx context.Context, paymentID, merchantID string, update models.IntentUpdate) (*models.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, exists := s.intents[intentKey(paymentID, merchantID)]
	if !exists {
		return nil, errors.NewPaymentNotFoundError(paymentID)
	}
	if applyIntentUpdate(intent, update) {
		intent.ModifiedAt = time.Now().UTC()
	}
	result := *intent
	return &result, nil
}

// Attempts returns the attempt repository view of the store
func (s *MemoryStore) Attempts() PaymentAttemptRepository {
	return (*memoryAttempts)(s)
}

// memoryAttempts narrows MemoryStore to the attempt interface; the method
// set would otherwise collide with the intent repository's
type memoryAttempts MemoryStore

func (s *memoryAttempts) Insert(ctx context.Context, attempt *models.PaymentAttempt) (*models.PaymentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.attempts[attempt.AttemptID]; exists {
		return nil, errors.NewDuplicateError("payment attempt").
			WithContext("attempt_id", attempt.AttemptID)
	}
	copied := *attempt
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	copied.ModifiedAt = copied.CreatedAt
	s.attempts[attempt.AttemptID] = &copied
	result := copied
	return &result, nil
}

func (s *memoryAttempts) FindByID(ctx context.Context, attemptID string) (*models.PaymentAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempt, exists := s.attempts[attemptID]
	if !exists {
		return nil, errors.NewNotFoundError("payment attempt").WithContext("attempt_id", attemptID)
	}
	result := *attempt
	return &result, nil
}

func (s *memoryAttempts) Update(ctx context.Context, attemptID string, update models.AttemptUpdate) (*models.PaymentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, exists := s.attempts[attemptID]
	if !exists {
		return nil, errors.NewNotFoundError("payment attempt").WithContext("attempt_id", attemptID)
	}
	if applyAttemptUpdate(attempt, update) {
		attempt.ModifiedAt = time.Now().UTC()
	}
	result := *attempt
	return &result, nil
}

func (s *memoryAttempts) ListByPaymentID(ctx context.Context, paymentID, merchantID string) ([]*models.PaymentAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var attempts []*models.PaymentAttempt
	for _, attempt := range s.attempts {
		if attempt.PaymentID == paymentID && attempt.MerchantID == merchantID {
			result := *attempt
			attempts = append(attempts, &result)
		}
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].AttemptID < attempts[j].AttemptID
	})
	return attempts, nil
}

// Gsm returns the gateway status mapping view of the store
func (s *MemoryStore) Gsm() GsmRepository {
	return (*memoryGsm)(s)
}

type memoryGsm MemoryStore

func (s *memoryGsm) FindByKey(ctx context.Context, connector, flow, code, message string) (*models.GsmRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.gsm[gsmKey(connector, flow, code, message)]
	if !exists {
		return nil, errors.NewNotFoundError("gateway status mapping").
			WithContext("connector", connector).
			WithContext("flow", flow).
			WithContext("code", code)
	}
	result := *record
	return &result, nil
}

func (s *memoryGsm) Insert(ctx context.Context, record *models.GsmRecord) (*models.GsmRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := gsmKey(record.Connector, record.Flow, record.Code, record.Message)
	if _, exists := s.gsm[key]; exists {
		return nil, errors.NewDuplicateError("gateway status mapping")
	}
	copied := *record
	s.gsm[key] = &copied
	result := copied
	return &result, nil
}

// Configs returns the config view of the store
func (s *MemoryStore) Configs() ConfigRepository {
	return (*memoryConfigs)(s)
}

type memoryConfigs MemoryStore

func (s *memoryConfigs) FindByKey(ctx context.Context, key string) (*models.MerchantConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.configs[key]
	if !exists {
		return nil, errors.NewNotFoundError("config").WithContext("key", key)
	}
	return &models.MerchantConfig{Key: key, Value: value}, nil
}

func (s *memoryConfigs) FindByKeyUnwrapOr(ctx context.Context, key, defaultValue string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.configs[key]
	if !exists {
		return defaultValue, nil
	}
	return value, nil
}

func (s *memoryConfigs) Upsert(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[key] = value
	return nil
}
