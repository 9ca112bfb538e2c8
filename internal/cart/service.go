package cart

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/identity"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// DefaultMaxQuantity caps the quantity of a single line.
const DefaultMaxQuantity = 99

// Option customises a Service.
type Option func(*Service)

func WithMaxQuantity(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxQuantity = limit
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		s.logger = logging.OrNoOp(logger)
	}
}

// Service manages the carts of anonymous shoppers, identified by an opaque
// cart token. Writes for one token are serialised and every read-modify-write
// reloads the stored lines first.
type Service struct {
	lines       LineRepository
	maxQuantity int
	logger      interfaces.Logger

	mu    sync.Mutex
	locks map[string]*tokenLock
}

type tokenLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(lines LineRepository, opts ...Option) *Service {
	s := &Service{
		lines:       lines,
		maxQuantity: DefaultMaxQuantity,
		logger:      logging.NoOp(),
		locks:       make(map[string]*tokenLock),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// MaxQuantity returns the per line cap.
func (s *Service) MaxQuantity() int {
	return s.maxQuantity
}

// Items returns the lines of a cart in insertion order.
func (s *Service) Items(ctx context.Context, cartToken string) ([]domain.CartItem, error) {
	if strings.TrimSpace(cartToken) == "" {
		return []domain.CartItem{}, nil
	}
	lines, err := s.lines.ListByToken(ctx, cartToken)
	if err != nil {
		return nil, err
	}
	return toItems(lines), nil
}

// Add puts item in the cart. An existing line for the same product and
// variant has its quantity increased instead.
func (s *Service) Add(ctx context.Context, cartToken string, item domain.CartItem) ([]domain.CartItem, error) {
	if strings.TrimSpace(cartToken) == "" {
		return nil, ErrTokenRequired
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if err := s.validateItem(item); err != nil {
		return nil, err
	}

	unlock := s.lock(cartToken)
	defer unlock()

	lines, err := s.lines.ListByToken(ctx, cartToken)
	if err != nil {
		return nil, err
	}
	if existing := findLine(lines, item.ProductID, item.VariantID); existing != nil {
		existing.Quantity = min(existing.Quantity+item.Quantity, s.maxQuantity)
		if _, err := s.lines.Update(ctx, existing); err != nil {
			return nil, err
		}
	} else {
		line := &Line{
			ID:          identity.CartLineUUID(cartToken, formatID(item.ProductID), formatID(item.VariantID)),
			CartToken:   cartToken,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			Name:        item.Name,
			VariantName: item.VariantName,
			Price:       item.Price,
			Quantity:    item.Quantity,
			ImageURL:    item.ImageURL,
			Position:    nextPosition(lines),
		}
		if _, err := s.lines.Create(ctx, line); err != nil {
			return nil, err
		}
	}
	s.logger.Debug("cart.line_added", "product_id", item.ProductID, "variant_id", item.VariantID, "quantity", item.Quantity)
	return s.Items(ctx, cartToken)
}

// UpdateQuantity sets the quantity of a line. Zero or less removes the line;
// values above the cap are clamped. Unknown lines leave the cart unchanged.
func (s *Service) UpdateQuantity(ctx context.Context, cartToken string, productID, variantID int64, quantity int) ([]domain.CartItem, error) {
	if strings.TrimSpace(cartToken) == "" {
		return nil, ErrTokenRequired
	}

	unlock := s.lock(cartToken)
	defer unlock()

	lines, err := s.lines.ListByToken(ctx, cartToken)
	if err != nil {
		return nil, err
	}
	line := findLine(lines, productID, variantID)
	switch {
	case line == nil:
		return toItems(lines), nil
	case quantity <= 0:
		if err := s.lines.Delete(ctx, line.ID); err != nil {
			return nil, err
		}
	default:
		line.Quantity = min(quantity, s.maxQuantity)
		if _, err := s.lines.Update(ctx, line); err != nil {
			return nil, err
		}
	}
	return s.Items(ctx, cartToken)
}

// Remove deletes the line for a product/variant pair.
func (s *Service) Remove(ctx context.Context, cartToken string, productID, variantID int64) ([]domain.CartItem, error) {
	return s.UpdateQuantity(ctx, cartToken, productID, variantID, 0)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, cartToken string) error {
	if strings.TrimSpace(cartToken) == "" {
		return nil
	}

	unlock := s.lock(cartToken)
	defer unlock()

	lines, err := s.lines.ListByToken(ctx, cartToken)
	if err != nil {
		return err
	}
	var errs []error
	for _, line := range lines {
		if err := s.lines.Delete(ctx, line.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subtotal sums the line totals of items.
func Subtotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Count sums the quantities of items.
func Count(items []domain.CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

func (s *Service) validateItem(item domain.CartItem) error {
	return validation.ValidateStruct(&item,
		validation.Field(&item.ProductID, validation.Required, validation.Min(int64(1))),
		validation.Field(&item.VariantID, validation.Min(int64(0))),
		validation.Field(&item.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&item.Quantity, validation.Required, validation.Min(1), validation.Max(s.maxQuantity)),
		validation.Field(&item.Price, validation.By(nonNegative)),
	)
}

func nonNegative(value any) error {
	price, ok := value.(decimal.Decimal)
	if ok && price.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func (s *Service) lock(token string) func() {
	s.mu.Lock()
	l, ok := s.locks[token]
	if !ok {
		l = &tokenLock{}
		s.locks[token] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, token)
		}
		s.mu.Unlock()
	}
}

func findLine(lines []*Line, productID, variantID int64) *Line {
	for _, line := range lines {
		if line.ProductID == productID && line.VariantID == variantID {
			return line
		}
	}
	return nil
}

func nextPosition(lines []*Line) int {
	next := 0
	for _, line := range lines {
		if line.Position >= next {
			next = line.Position + 1
		}
	}
	return next
}

func toItems(lines []*Line) []domain.CartItem {
	items := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.Item())
	}
	return items
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
