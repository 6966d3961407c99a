// Package userdata keeps per-user application state (session, saved
// properties, alerts, onboarding and chat history) in the key-value store.
package userdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/starford/propscope/internal/apperr"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/store"
)

// MaxChatHistory is how many chat messages are retained per user.
const MaxChatHistory = 200

// PropertyGetter resolves property ids; *catalog.Catalog satisfies it.
type PropertyGetter interface {
	Get(id string) (models.Property, error)
}

// Service coordinates reads and writes of user state.
type Service struct {
	kv     store.KV
	props  PropertyGetter
	logger *slog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles on list-valued keys.
	mu sync.Mutex
}

// NewService creates a user data service. props may be nil, in which case
// saved property ids are not checked against the catalog.
func NewService(kv store.KV, props PropertyGetter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{kv: kv, props: props, logger: logger, now: time.Now}
}

type loginInput struct {
	Email string
	Name  string
}

func (in loginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 120)),
	)
}

// Login creates a demo user and a session token for it. No password is
// involved; any well-formed email is accepted.
func (s *Service) Login(ctx context.Context, email, name string) (models.User, string, error) {
	in := loginInput{Email: strings.TrimSpace(email), Name: strings.TrimSpace(name)}
	if err := in.Validate(); err != nil {
		return models.User{}, "", fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	user := models.User{
		ID:        "user-" + uuid.NewString(),
		Email:     in.Email,
		Name:      in.Name,
		CreatedAt: s.now().UTC(),
	}
	token := uuid.NewString()

	if err := store.SetJSON(ctx, s.kv, store.UserKey(user.ID, store.KindProfile), user); err != nil {
		return models.User{}, "", err
	}
	if err := s.kv.Set(ctx, store.SessionKey(token), []byte(user.ID)); err != nil {
		return models.User{}, "", err
	}
	s.logger.Info("userdata: login", slog.String("user", user.ID))
	return user, token, nil
}

// CurrentUser resolves a session token to its user.
func (s *Service) CurrentUser(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, apperr.ErrUnauthorized
	}
	raw, err := s.kv.Get(ctx, store.SessionKey(token))
	if err != nil {
		if isNotFound(err) {
			return models.User{}, apperr.ErrUnauthorized
		}
		return models.User{}, err
	}
	user, found, err := store.GetJSON[models.User](ctx, s.kv, store.UserKey(string(raw), store.KindProfile))
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, apperr.ErrUnauthorized
	}
	return user, nil
}

// Logout ends the session. User state is kept.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.kv.Delete(ctx, store.SessionKey(token))
}
