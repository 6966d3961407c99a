package userdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/propscope/internal/apperr"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/store"
)

func isNotFound(err error) bool { return errors.Is(err, apperr.ErrNotFound) }

// SavedProperties returns the user's bookmarks in the order they were first saved.
func (s *Service) SavedProperties(ctx context.Context, userID string) ([]models.SavedProperty, error) {
	saved, _, err := store.GetJSON[[]models.SavedProperty](ctx, s.kv, store.UserKey(userID, store.KindSaved))
	if err != nil {
		return nil, err
	}
	if saved == nil {
		saved = []models.SavedProperty{}
	}
	return saved, nil
}

// SaveProperty bookmarks propertyID, or replaces notes and tags when it is
// already saved. SavedAt keeps the time of the first save.
func (s *Service) SaveProperty(ctx context.Context, userID, propertyID, notes string, tags []string) (models.SavedProperty, error) {
	if propertyID == "" {
		return models.SavedProperty{}, fmt.Errorf("%w: property id is required", apperr.ErrInvalidInput)
	}
	if s.props != nil {
		if _, err := s.props.Get(propertyID); err != nil {
			return models.SavedProperty{}, err
		}
	}
	if tags == nil {
		tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.SavedProperties(ctx, userID)
	if err != nil {
		return models.SavedProperty{}, err
	}

	var entry models.SavedProperty
	found := false
	for i := range saved {
		if saved[i].PropertyID == propertyID {
			saved[i].Notes = notes
			saved[i].Tags = tags
			entry = saved[i]
			found = true
			break
		}
	}
	if !found {
		entry = models.SavedProperty{
			PropertyID: propertyID,
			SavedAt:    s.now().UTC(),
			Notes:      notes,
			Tags:       tags,
		}
		saved = append(saved, entry)
	}

	if err := store.SetJSON(ctx, s.kv, store.UserKey(userID, store.KindSaved), saved); err != nil {
		return models.SavedProperty{}, err
	}
	return entry, nil
}

// UnsaveProperty removes the bookmark. Removing an unsaved property is a no-op.
func (s *Service) UnsaveProperty(ctx context.Context, userID, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.SavedProperties(ctx, userID)
	if err != nil {
		return err
	}
	kept := saved[:0]
	for _, sp := range saved {
		if sp.PropertyID != propertyID {
			kept = append(kept, sp)
		}
	}
	return store.SetJSON(ctx, s.kv, store.UserKey(userID, store.KindSaved), kept)
}

// IsSaved reports whether the user bookmarked propertyID.
func (s *Service) IsSaved(ctx context.Context, userID, propertyID string) (bool, error) {
	saved, err := s.SavedProperties(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, sp := range saved {
		if sp.PropertyID == propertyID {
			return true, nil
		}
	}
	return false, nil
}
