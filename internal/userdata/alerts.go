package userdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/propscope/internal/apperr"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/store"
)

// Alerts returns the user's alerts, newest first.
func (s *Service) Alerts(ctx context.Context, userID string) ([]models.Alert, error) {
	alerts, _, err := store.GetJSON[[]models.Alert](ctx, s.kv, store.UserKey(userID, store.KindAlerts))
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return alerts, nil
}

// AddAlert records an unread alert at the head of the list.
func (s *Service) AddAlert(ctx context.Context, userID, propertyID, kind, message string) (models.Alert, error) {
	if strings.TrimSpace(kind) == "" || strings.TrimSpace(message) == "" {
		return models.Alert{}, fmt.Errorf("%w: alert type and message are required", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	alerts, err := s.Alerts(ctx, userID)
	if err != nil {
		return models.Alert{}, err
	}
	alert := models.Alert{
		ID:         "alert-" + uuid.NewString(),
		PropertyID: propertyID,
		Type:       kind,
		Message:    message,
		CreatedAt:  s.now().UTC(),
	}
	alerts = append([]models.Alert{alert}, alerts...)
	if err := store.SetJSON(ctx, s.kv, store.UserKey(userID, store.KindAlerts), alerts); err != nil {
		return models.Alert{}, err
	}
	return alert, nil
}

// MarkAlertRead flags one alert as read.
func (s *Service) MarkAlertRead(ctx context.Context, userID, alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts, err := s.Alerts(ctx, userID)
	if err != nil {
		return err
	}
	for i := range alerts {
		if alerts[i].ID == alertID {
			if alerts[i].Read {
				return nil
			}
			alerts[i].Read = true
			return store.SetJSON(ctx, s.kv, store.UserKey(userID, store.KindAlerts), alerts)
		}
	}
	return fmt.Errorf("userdata: alert %q: %w", alertID, apperr.ErrNotFound)
}

// UnreadAlertCount counts alerts not yet marked read.
func (s *Service) UnreadAlertCount(ctx context.Context, userID string) (int, error) {
	alerts, err := s.Alerts(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range alerts {
		if !a.Read {
			n++
		}
	}
	return n, nil
}
