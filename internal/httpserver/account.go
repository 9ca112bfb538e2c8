package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-storefront/internal/cart"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/identity"
)

const sessionCookie = "customer_session"

// OrderLister lists the orders of a signed-in customer.
type OrderLister interface {
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
}

type signInRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type accountResponse struct {
	Email string `json:"email"`
}

// signIn records the backend token a customer obtained for this store.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest(err, "invalid JSON body"))
		return
	}
	sessionToken := sessionToken(r)
	if sessionToken == "" {
		sessionToken = identity.NewToken()
	}
	session, err := s.sessions.SignIn(r.Context(), cart.SignInInput{
		StoreSlug:    storeParam(r),
		SessionToken: sessionToken,
		Token:        strings.TrimSpace(req.Token),
		Email:        strings.TrimSpace(req.Email),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusCreated, accountResponse{Email: session.Email})
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SignOut(r.Context(), storeParam(r), sessionToken(r)); err != nil && !errors.Is(err, cart.ErrSessionNotFound) {
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.Context(), storeParam(r), sessionToken(r))
	if errors.Is(err, cart.ErrSessionNotFound) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "sign in to see your orders"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	orders, err := s.orders.ListOrders(r.Context(), session.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
