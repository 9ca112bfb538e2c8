package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/internal/cart"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/pkg/testsupport"
)

func tee(quantity int) domain.CartItem {
	return domain.CartItem{
		ProductID:   1,
		VariantID:   1,
		Name:        "Tee",
		VariantName: "M",
		Price:       decimal.RequireFromString("19.50"),
		Quantity:    quantity,
	}
}

func newBunDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := testsupport.NewBunSQLiteDB(t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cart.CreateSchema(ctx, db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func repositories(t *testing.T) map[string]cart.LineRepository {
	return map[string]cart.LineRepository{
		"memory": cart.NewMemoryLineRepository(),
		"bun":    cart.NewBunLineRepository(newBunDB(t)),
	}
}

func TestServiceUpdateQuantity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		quantity int
		want     []int
	}{
		{name: "set", quantity: 5, want: []int{5}},
		{name: "zero removes", quantity: 0, want: nil},
		{name: "negative removes", quantity: -3, want: nil},
		{name: "clamped", quantity: 500, want: []int{cart.DefaultMaxQuantity}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			for backend, repo := range repositories(t) {
				svc := cart.NewService(repo)
				ctx := context.Background()
				if _, err := svc.Add(ctx, "tok", tee(2)); err != nil {
					t.Fatalf("%s: add: %v", backend, err)
				}
				items, err := svc.UpdateQuantity(ctx, "tok", 1, 1, tc.quantity)
				if err != nil {
					t.Fatalf("%s: update: %v", backend, err)
				}
				if len(items) != len(tc.want) {
					t.Fatalf("%s: expected %d lines, got %+v", backend, len(tc.want), items)
				}
				for i, q := range tc.want {
					if items[i].Quantity != q || items[i].ProductID != 1 || items[i].VariantID != 1 {
						t.Fatalf("%s: unexpected line %+v", backend, items[i])
					}
				}
			}
		})
	}
}

func TestServiceAddMergesLines(t *testing.T) {
	t.Parallel()

	for backend, repo := range repositories(t) {
		svc := cart.NewService(repo, cart.WithMaxQuantity(10))
		ctx := context.Background()

		if _, err := svc.Add(ctx, "tok", tee(2)); err != nil {
			t.Fatalf("%s: add: %v", backend, err)
		}
		other := tee(1)
		other.VariantID = 2
		other.VariantName = "L"
		if _, err := svc.Add(ctx, "tok", other); err != nil {
			t.Fatalf("%s: add variant: %v", backend, err)
		}
		items, err := svc.Add(ctx, "tok", tee(9))
		if err != nil {
			t.Fatalf("%s: add again: %v", backend, err)
		}
		if len(items) != 2 {
			t.Fatalf("%s: expected 2 lines, got %+v", backend, items)
		}
		if items[0].VariantID != 1 || items[0].Quantity != 10 {
			t.Fatalf("%s: expected merged and capped first line, got %+v", backend, items[0])
		}
		if items[1].VariantID != 2 || items[1].Quantity != 1 {
			t.Fatalf("%s: unexpected second line %+v", backend, items[1])
		}
		if got := cart.Subtotal(items).StringFixed(2); got != "214.50" {
			t.Fatalf("%s: unexpected subtotal %s", backend, got)
		}
		if cart.Count(items) != 11 {
			t.Fatalf("%s: unexpected count %d", backend, cart.Count(items))
		}

		isolated, err := svc.Items(ctx, "someone-else")
		if err != nil || len(isolated) != 0 {
			t.Fatalf("%s: carts must be isolated, got %+v (%v)", backend, isolated, err)
		}
	}
}

func TestServiceAddValidates(t *testing.T) {
	t.Parallel()

	svc := cart.NewService(cart.NewMemoryLineRepository())
	ctx := context.Background()

	if _, err := svc.Add(ctx, "", tee(1)); !errors.Is(err, cart.ErrTokenRequired) {
		t.Fatalf("expected token error, got %v", err)
	}

	invalid := []domain.CartItem{
		{Name: "No product", Quantity: 1},
		{ProductID: 1, Quantity: 1},
		{ProductID: 1, Name: "Too many", Quantity: 1000},
		{ProductID: 1, Name: "Negative", Quantity: 1, Price: decimal.NewFromInt(-1)},
	}
	for _, item := range invalid {
		if _, err := svc.Add(ctx, "tok", item); err == nil {
			t.Fatalf("expected validation error for %+v", item)
		}
	}

	items, err := svc.Add(ctx, "tok", domain.CartItem{ProductID: 3, Name: "Mug"})
	if err != nil {
		t.Fatalf("add with default quantity: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("expected quantity to default to 1, got %+v", items)
	}
}

func TestServiceRemoveAndClear(t *testing.T) {
	t.Parallel()

	for backend, repo := range repositories(t) {
		svc := cart.NewService(repo)
		ctx := context.Background()
		mug := domain.CartItem{ProductID: 2, Name: "Mug", Price: decimal.NewFromInt(8), Quantity: 1}

		if _, err := svc.Add(ctx, "tok", tee(1)); err != nil {
			t.Fatalf("%s: add: %v", backend, err)
		}
		if _, err := svc.Add(ctx, "tok", mug); err != nil {
			t.Fatalf("%s: add mug: %v", backend, err)
		}

		items, err := svc.Remove(ctx, "tok", 1, 1)
		if err != nil {
			t.Fatalf("%s: remove: %v", backend, err)
		}
		if len(items) != 1 || items[0].ProductID != 2 {
			t.Fatalf("%s: unexpected items after remove %+v", backend, items)
		}

		unchanged, err := svc.UpdateQuantity(ctx, "tok", 42, 0, 3)
		if err != nil || len(unchanged) != 1 {
			t.Fatalf("%s: unknown line should leave cart unchanged, got %+v (%v)", backend, unchanged, err)
		}

		if err := svc.Clear(ctx, "tok"); err != nil {
			t.Fatalf("%s: clear: %v", backend, err)
		}
		items, err = svc.Items(ctx, "tok")
		if err != nil || len(items) != 0 {
			t.Fatalf("%s: expected empty cart, got %+v (%v)", backend, items, err)
		}
	}
}

func TestServiceConcurrentUpdatesKeepEveryAdd(t *testing.T) {
	t.Parallel()

	svc := cart.NewService(cart.NewMemoryLineRepository())
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Add(ctx, "tok", tee(1)); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()

	items, err := svc.Items(ctx, "tok")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 20 {
		t.Fatalf("expected one line with quantity 20, got %+v", items)
	}
}

func TestSessions(t *testing.T) {
	t.Parallel()

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}

	backends := map[string]cart.SessionRepository{
		"memory": cart.NewMemorySessionRepository(),
		"bun":    cart.NewBunSessionRepositoryWithCache(newBunDB(t), cacheService, repocache.NewDefaultKeySerializer()),
	}

	for backend, repo := range backends {
		sessions := cart.NewSessions(repo)
		ctx := context.Background()

		if _, err := sessions.Get(ctx, "acme", "browser"); !errors.Is(err, cart.ErrSessionNotFound) {
			t.Fatalf("%s: expected not found, got %v", backend, err)
		}
		if _, err := sessions.SignIn(ctx, cart.SignInInput{StoreSlug: "acme", SessionToken: "browser", Token: "jwt", Email: "nope"}); err == nil {
			t.Fatalf("%s: expected invalid email to fail", backend)
		}

		if _, err := sessions.SignIn(ctx, cart.SignInInput{StoreSlug: "Acme", SessionToken: "browser", Token: "jwt", Email: "jo@example.com"}); err != nil {
			t.Fatalf("%s: sign in: %v", backend, err)
		}
		session, err := sessions.Get(ctx, "acme", "browser")
		if err != nil {
			t.Fatalf("%s: get: %v", backend, err)
		}
		if session.Token != "jwt" || session.Email != "jo@example.com" || session.StoreSlug != "acme" {
			t.Fatalf("%s: unexpected session %+v", backend, session)
		}
		if _, err := sessions.Get(ctx, "globex", "browser"); !errors.Is(err, cart.ErrSessionNotFound) {
			t.Fatalf("%s: sessions must be scoped per store, got %v", backend, err)
		}

		if err := sessions.SignOut(ctx, "acme", "browser"); err != nil {
			t.Fatalf("%s: sign out: %v", backend, err)
		}
	}
}
