package cart

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunLineRepository stores cart lines in SQL. It is never cached: quantity
// updates must observe the latest stored state.
type BunLineRepository struct {
	repo repository.Repository[*Line]
}

func NewBunLineRepository(db *bun.DB) *BunLineRepository {
	return &BunLineRepository{repo: NewLineRecordRepository(db)}
}

func (r *BunLineRepository) ListByToken(ctx context.Context, cartToken string) ([]*Line, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.cart_token = ?", cartToken).
				OrderExpr("?TableAlias.position ASC, ?TableAlias.created_at ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "cart_line", cartToken)
	}
	return records, nil
}

func (r *BunLineRepository) Get(ctx context.Context, id uuid.UUID) (*Line, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "cart_line", id.String())
	}
	return record, nil
}

func (r *BunLineRepository) Create(ctx context.Context, line *Line) (*Line, error) {
	return r.repo.Create(ctx, line)
}

func (r *BunLineRepository) Update(ctx context.Context, line *Line) (*Line, error) {
	line.UpdatedAt = time.Now().UTC()
	updated, err := r.repo.Update(ctx, line,
		repository.UpdateByID(line.ID.String()),
		repository.UpdateColumns("quantity", "price", "name", "variant_name", "image_url", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "cart_line", line.ID.String())
	}
	return updated, nil
}

func (r *BunLineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.repo.Delete(ctx, &Line{ID: id})
}

// BunSessionRepository stores customer sessions with optional caching.
type BunSessionRepository struct {
	repo         repository.Repository[*CustomerSession]
	cacheService cache.CacheService
	cachePrefix  string
}

const sessionNamespace = "customer_session"

func NewBunSessionRepository(db *bun.DB) *BunSessionRepository {
	return NewBunSessionRepositoryWithCache(db, nil, nil)
}

// NewBunSessionRepositoryWithCache caches session reads; writes drop the
// cached entries.
func NewBunSessionRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunSessionRepository {
	base := NewSessionRecordRepository(db)
	repo := &BunSessionRepository{repo: base}
	if cacheService != nil && serializer != nil {
		repo.repo = repositorycache.New(base, cacheService, serializer)
		repo.cacheService = cacheService
		repo.cachePrefix = sessionNamespace + cache.KeySeparator
	}
	return repo
}

func (r *BunSessionRepository) Get(ctx context.Context, id uuid.UUID) (*CustomerSession, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "customer_session", id.String())
	}
	return record, nil
}

func (r *BunSessionRepository) Create(ctx context.Context, session *CustomerSession) (*CustomerSession, error) {
	record, err := r.repo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	return record, r.InvalidateCache(ctx)
}

func (r *BunSessionRepository) Update(ctx context.Context, session *CustomerSession) (*CustomerSession, error) {
	session.UpdatedAt = time.Now().UTC()
	record, err := r.repo.Update(ctx, session,
		repository.UpdateByID(session.ID.String()),
		repository.UpdateColumns("token", "email", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "customer_session", session.ID.String())
	}
	return record, r.InvalidateCache(ctx)
}

func (r *BunSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.repo.Delete(ctx, &CustomerSession{ID: id}); err != nil {
		return err
	}
	return r.InvalidateCache(ctx)
}

func (r *BunSessionRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
