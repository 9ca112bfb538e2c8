package cart

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/goliatone/go-storefront/internal/identity"
)

// Sessions tracks which customer is signed in on a browser, per store. The
// customer token is the backend bearer used for account calls.
type Sessions struct {
	repo SessionRepository
}

func NewSessions(repo SessionRepository) *Sessions {
	return &Sessions{repo: repo}
}

// SignInInput is the data kept after a customer signs in.
type SignInInput struct {
	StoreSlug    string
	SessionToken string
	Token        string
	Email        string
}

func (in SignInInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.StoreSlug, validation.Required),
		validation.Field(&in.SessionToken, validation.Required),
		validation.Field(&in.Token, validation.Required),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
	)
}

// Get returns the session of a browser on a store or ErrSessionNotFound.
func (s *Sessions) Get(ctx context.Context, storeSlug, sessionToken string) (*CustomerSession, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, ErrSessionNotFound
	}
	return s.repo.Get(ctx, identity.CustomerSessionUUID(storeSlug, sessionToken))
}

// SignIn stores or replaces the session for the browser on the store.
func (s *Sessions) SignIn(ctx context.Context, in SignInInput) (*CustomerSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id := identity.CustomerSessionUUID(in.StoreSlug, in.SessionToken)
	existing, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
		existing.Token = in.Token
		existing.Email = in.Email
		return s.repo.Update(ctx, existing)
	case errors.Is(err, ErrSessionNotFound):
		return s.repo.Create(ctx, &CustomerSession{
			ID:           id,
			StoreSlug:    strings.ToLower(strings.TrimSpace(in.StoreSlug)),
			SessionToken: in.SessionToken,
			Token:        in.Token,
			Email:        in.Email,
		})
	default:
		return nil, err
	}
}

// SignOut forgets the session. Missing sessions are not an error.
func (s *Sessions) SignOut(ctx context.Context, storeSlug, sessionToken string) error {
	if strings.TrimSpace(sessionToken) == "" {
		return nil
	}
	return s.repo.Delete(ctx, identity.CustomerSessionUUID(storeSlug, sessionToken))
}
