package sections

import (
	"context"

	"github.com/goliatone/go-storefront/internal/appblock"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/templatevars"
)

// Links builds the storefront URLs section markup points at.
type Links interface {
	Home() string
	Products() string
	Product(slug string) string
	Collection(slug string) string
	Cart() string
	CartItems() string
	DismissAnnouncement() string
}

// Catalog loads catalog data for sections the page did not provide it to.
type Catalog interface {
	ListProducts(ctx context.Context, storeSlug string, query domain.ProductQuery) (*domain.ProductPage, error)
	ListCollections(ctx context.Context, storeSlug string) ([]domain.Collection, error)
}

// Context is the page data available to every section of a render.
// Products and Collections are nil when the page did not load them, in
// which case sections that need them go through Catalog.
type Context struct {
	StoreSlug   string
	StoreName   string
	Product     *domain.Product
	Collection  *domain.Collection
	Products    []domain.Product
	Collections []domain.Collection

	Editing               bool
	Development           bool
	AnnouncementDismissed bool

	Links     Links
	Catalog   Catalog
	AppBlocks appblock.ElementHost
}

// Variables returns the template variable context for the page.
func (c Context) Variables() templatevars.Context {
	return templatevars.Context{
		StoreName:  c.StoreName,
		Product:    c.Product,
		Collection: c.Collection,
	}
}

// Diagnostics reports whether error details may be shown on the page.
func (c Context) Diagnostics() bool {
	return c.Editing || c.Development
}

// LoadsData reports whether rendering kind may block on I/O for the given
// page context.
func LoadsData(kind Kind, sc Context) bool {
	switch kind {
	case KindProductGrid:
		return sc.Products == nil
	case KindCollectionList:
		return sc.Collections == nil
	case KindAppBlock:
		return true
	default:
		return false
	}
}
