package cart

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LineRepository persists cart lines.
type LineRepository interface {
	ListByToken(ctx context.Context, cartToken string) ([]*Line, error)
	Get(ctx context.Context, id uuid.UUID) (*Line, error)
	Create(ctx context.Context, line *Line) (*Line, error)
	Update(ctx context.Context, line *Line) (*Line, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionRepository persists customer sessions.
type SessionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*CustomerSession, error)
	Create(ctx context.Context, session *CustomerSession) (*CustomerSession, error)
	Update(ctx context.Context, session *CustomerSession) (*CustomerSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewLineRecordRepository creates a repository for Line records.
func NewLineRecordRepository(db *bun.DB) repository.Repository[*Line] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Line]{
		NewRecord:          func() *Line { return &Line{} },
		GetID:              func(l *Line) uuid.UUID { return l.ID },
		SetID:              func(l *Line, id uuid.UUID) { l.ID = id },
		GetIdentifier:      func() string { return "" },
		GetIdentifierValue: func(*Line) string { return "" },
	})
}

// NewSessionRecordRepository creates a repository for CustomerSession records.
func NewSessionRecordRepository(db *bun.DB) repository.Repository[*CustomerSession] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*CustomerSession]{
		NewRecord:          func() *CustomerSession { return &CustomerSession{} },
		GetID:              func(s *CustomerSession) uuid.UUID { return s.ID },
		SetID:              func(s *CustomerSession, id uuid.UUID) { s.ID = id },
		GetIdentifier:      func() string { return "" },
		GetIdentifierValue: func(*CustomerSession) string { return "" },
	})
}

// CreateSchema creates the cart tables when they are missing.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{(*Line)(nil), (*CustomerSession)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	_, err := db.NewCreateIndex().
		Model((*Line)(nil)).
		Index("idx_cart_lines_token").
		Column("cart_token").
		IfNotExists().
		Exec(ctx)
	return err
}
