package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillkom/loan-intake/internal/core/domain"
)

// Store is the single owner of all application records. Insert and Replace
// are the only write operations, serialized by a mutex so an override can
// never lose an update. Reads hand out deep copies: a caller holding a
// record reference cannot edit the stored audit trail or result in place.
type Store struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*domain.LoanApplication
}

func New() *Store {
	return &Store{
		byID: make(map[string]*domain.LoanApplication),
	}
}

// Insert adds a new record, newest first. The id must not already exist.
func (s *Store) Insert(_ context.Context, app *domain.LoanApplication) error {
	if app == nil || app.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "insert", fmt.Errorf("record without id"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[app.ID]; exists {
		return domain.WrapError(domain.ErrInvalidInput, "insert", fmt.Errorf("duplicate id %s", app.ID))
	}
	s.byID[app.ID] = app.Clone()
	s.order = append([]string{app.ID}, s.order...)
	return nil
}

// Replace swaps the whole record for an existing id, preserving its position
// in the listing order.
func (s *Store) Replace(_ context.Context, app *domain.LoanApplication) error {
	if app == nil || app.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "replace", fmt.Errorf("record without id"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[app.ID]; !exists {
		return domain.WrapError(domain.ErrApplicationNotFound, "replace", fmt.Errorf("id %s", app.ID))
	}
	s.byID[app.ID] = app.Clone()
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.LoanApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.byID[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrApplicationNotFound, "get", fmt.Errorf("id %s", id))
	}
	return app.Clone(), nil
}

func (s *Store) List(_ context.Context) ([]*domain.LoanApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.LoanApplication, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}
