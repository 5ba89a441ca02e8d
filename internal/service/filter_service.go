package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"millorders/internal/repository"

	"github.com/google/uuid"
)

// KeyValueStore persists opaque values per user and key
type KeyValueStore interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (string, error)
	Put(ctx context.Context, userID uuid.UUID, key, value string) error
	Delete(ctx context.Context, userID uuid.UUID, key string) error
}

var filterKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_.-]{0,99}$`)

// FilterService stores list-screen filters (status, search, date range...) per user
type FilterService interface {
	GetFilter(ctx context.Context, actor Actor, key string) (json.RawMessage, error)
	SaveFilter(ctx context.Context, actor Actor, key string, value json.RawMessage) error
	DeleteFilter(ctx context.Context, actor Actor, key string) error
}

type filterService struct {
	store KeyValueStore
}

func NewFilterService(store KeyValueStore) FilterService {
	return &filterService{store: store}
}

func checkFilterKey(actor Actor, key string) error {
	if actor.UserID == uuid.Nil {
		return fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	if !filterKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: filter key %q", ErrInvalidInput, key)
	}
	return nil
}

// GetFilter returns an empty JSON object when nothing is saved under key
func (s *filterService) GetFilter(ctx context.Context, actor Actor, key string) (json.RawMessage, error) {
	if err := checkFilterKey(actor, key); err != nil {
		return nil, err
	}
	value, err := s.store.Get(ctx, actor.UserID, key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return json.RawMessage(`{}`), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load filter: %w", err)
	}
	return json.RawMessage(value), nil
}

func (s *filterService) SaveFilter(ctx context.Context, actor Actor, key string, value json.RawMessage) error {
	if err := checkFilterKey(actor, key); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("%w: filter value must be JSON", ErrInvalidInput)
	}
	if err := s.store.Put(ctx, actor.UserID, key, string(value)); err != nil {
		return fmt.Errorf("failed to save filter: %w", err)
	}
	return nil
}

func (s *filterService) DeleteFilter(ctx context.Context, actor Actor, key string) error {
	if err := checkFilterKey(actor, key); err != nil {
		return err
	}
	return s.store.Delete(ctx, actor.UserID, key)
}
