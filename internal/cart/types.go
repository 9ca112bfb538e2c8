package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/internal/domain"
)

var (
	ErrTokenRequired   = errors.New("cart: cart token is required")
	ErrLineNotFound    = errors.New("cart: line not found")
	ErrSessionNotFound = errors.New("cart: customer session not found")
)

// NotFoundError reports a missing storage record.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	if e.Resource == "customer_session" {
		return ErrSessionNotFound
	}
	return ErrLineNotFound
}

// Line is one persisted cart line. Lines are unique per cart token and
// product/variant pair.
type Line struct {
	bun.BaseModel `bun:"table:cart_lines,alias:cl"`

	ID          uuid.UUID       `bun:",pk,type:uuid" json:"id"`
	CartToken   string          `bun:"cart_token,notnull" json:"cart_token"`
	ProductID   int64           `bun:"product_id,notnull" json:"product_id"`
	VariantID   int64           `bun:"variant_id,notnull,default:0" json:"variant_id"`
	Name        string          `bun:"name,notnull" json:"name"`
	VariantName string          `bun:"variant_name" json:"variant_name,omitempty"`
	Price       decimal.Decimal `bun:"price,type:decimal(12,2),notnull" json:"price"`
	Quantity    int             `bun:"quantity,notnull" json:"quantity"`
	ImageURL    string          `bun:"image_url" json:"image_url,omitempty"`
	Position    int             `bun:"position,notnull,default:0" json:"position"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Item converts the line to the wire shape used by the storefront.
func (l *Line) Item() domain.CartItem {
	return domain.CartItem{
		ProductID:   l.ProductID,
		VariantID:   l.VariantID,
		Name:        l.Name,
		VariantName: l.VariantName,
		Price:       l.Price,
		Quantity:    l.Quantity,
		ImageURL:    l.ImageURL,
	}
}

func (l *Line) clone() *Line {
	copied := *l
	return &copied
}

// CustomerSession links a browser to a signed in customer of one store.
type CustomerSession struct {
	bun.BaseModel `bun:"table:customer_sessions,alias:cs"`

	ID           uuid.UUID `bun:",pk,type:uuid" json:"id"`
	StoreSlug    string    `bun:"store_slug,notnull" json:"store_slug"`
	SessionToken string    `bun:"session_token,notnull" json:"-"`
	Token        string    `bun:"token,notnull" json:"-"`
	Email        string    `bun:"email,notnull" json:"email"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

func (s *CustomerSession) clone() *CustomerSession {
	copied := *s
	return &copied
}
