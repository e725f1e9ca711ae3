package state

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrFormNotFound = errors.New("order form not found")

const defaultStoreKeyPrefix = "order:form:"

// Store is the persistence contract used by the orchestrator.
type Store interface {
	Load(ctx context.Context, customerID string) (*OrderForm, error)
	Save(ctx context.Context, form *OrderForm) error
	Delete(ctx context.Context, customerID string) error
}

// MemoryStore keeps forms for the process lifetime. It never evicts.
type MemoryStore struct {
	mu    sync.RWMutex
	forms map[string]*OrderForm
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{forms: make(map[string]*OrderForm)}
}

func (s *MemoryStore) Load(ctx context.Context, customerID string) (*OrderForm, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, ErrInvalidCustomer
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.forms[customerID]
	if !ok {
		return nil, ErrFormNotFound
	}
	return f.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, form *OrderForm) error {
	if form == nil {
		return ErrNilForm
	}
	if strings.TrimSpace(form.CustomerID) == "" {
		return ErrInvalidCustomer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.forms[form.CustomerID] = form.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.forms, customerID)
	return nil
}

// Len reports how many customers have a form.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forms)
}

func normalizeKeyPrefix(prefix string) string {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return defaultStoreKeyPrefix
	}
	return trimmed
}
