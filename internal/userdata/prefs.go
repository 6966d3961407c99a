package userdata

import (
	"context"
	"log/slog"

	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/store"
)

const onboardingDone = "true"

// OnboardingCompleted reports whether the user finished the onboarding tour.
func (s *Service) OnboardingCompleted(ctx context.Context, userID string) (bool, error) {
	raw, err := s.kv.Get(ctx, store.UserKey(userID, store.KindOnboarding))
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(raw) == onboardingDone, nil
}

// CompleteOnboarding marks the tour as finished.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string) error {
	return s.kv.Set(ctx, store.UserKey(userID, store.KindOnboarding), []byte(onboardingDone))
}

// ResetOnboarding makes the tour show again.
func (s *Service) ResetOnboarding(ctx context.Context, userID string) error {
	return s.kv.Delete(ctx, store.UserKey(userID, store.KindOnboarding))
}

// ChatHistory returns the stored conversation. A history that cannot be
// decoded is treated as empty.
func (s *Service) ChatHistory(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	msgs, found, err := store.GetJSON[[]models.ChatMessage](ctx, s.kv, store.UserKey(userID, store.KindChat))
	if err != nil {
		if !found {
			return nil, err
		}
		s.logger.Warn("userdata: discarding unreadable chat history",
			slog.String("user", userID),
			slog.String("error", err.Error()))
		return []models.ChatMessage{}, nil
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}

// SaveChatHistory replaces the stored conversation, keeping the most recent
// MaxChatHistory messages.
func (s *Service) SaveChatHistory(ctx context.Context, userID string, msgs []models.ChatMessage) error {
	if len(msgs) > MaxChatHistory {
		msgs = msgs[len(msgs)-MaxChatHistory:]
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return store.SetJSON(ctx, s.kv, store.UserKey(userID, store.KindChat), msgs)
}

// AppendChat adds messages to the end of the stored conversation.
func (s *Service) AppendChat(ctx context.Context, userID string, msgs ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.ChatHistory(ctx, userID)
	if err != nil {
		return err
	}
	for i := range msgs {
		if msgs[i].Timestamp.IsZero() {
			msgs[i].Timestamp = s.now().UTC()
		}
	}
	return s.SaveChatHistory(ctx, userID, append(history, msgs...))
}

// ClearChatHistory deletes the stored conversation.
func (s *Service) ClearChatHistory(ctx context.Context, userID string) error {
	return s.kv.Delete(ctx, store.UserKey(userID, store.KindChat))
}
