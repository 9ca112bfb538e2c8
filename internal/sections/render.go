package sections

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-storefront/internal/appblock"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/templatevars"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

//go:embed templates/*.html
var templateFS embed.FS

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRendererLogger sets the renderer logger.
func WithRendererLogger(logger interfaces.Logger) RendererOption {
	return func(r *Renderer) { r.logger = logging.OrNoOp(logger) }
}

// WithClock overrides the time source used for copyright years.
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// Renderer turns section props into markup.
type Renderer struct {
	registry  *Registry
	templates *template.Template
	rich      *RichText
	logger    interfaces.Logger
	now       func() time.Time
}

// NewRenderer parses the embedded section templates.
func NewRenderer(registry *Registry, opts ...RendererOption) (*Renderer, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	r := &Renderer{
		registry: registry,
		rich:     NewRichText(),
		logger:   logging.NoOp(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	tmpl, err := template.New("sections").Funcs(templateFuncs(r.rich)).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("sections: parse templates: %w", err)
	}
	r.templates = tmpl
	return r, nil
}

// Registry returns the registry the renderer resolves types against.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// UnknownSection is the placeholder shown for types without a renderer.
func UnknownSection(sectionType string) template.HTML {
	return template.HTML(`<div class="storefront-unknown-section"><p>Unknown section type: <code>` +
		html.EscapeString(sectionType) + `</code></p></div>`)
}

// Render renders a section of the given type. Defaults are applied and
// top-level string props go through template variable resolution first.
// An unknown type renders the placeholder without error.
func (r *Renderer) Render(ctx context.Context, sectionType string, props map[string]any, sc Context) (template.HTML, error) {
	kind, ok := ParseKind(sectionType)
	if !ok {
		return UnknownSection(sectionType), nil
	}
	resolved := templatevars.ResolveMap(r.registry.ApplyDefaults(kind, props), sc.Variables())

	switch kind {
	case KindHeroBanner:
		return renderProps[HeroBannerProps](r, "hero-banner", resolved, nil)
	case KindAnnouncementBar:
		p, err := DecodeProps[AnnouncementBarProps](resolved)
		if err != nil {
			return "", err
		}
		if p.Text == "" || (p.Dismissible && sc.AnnouncementDismissed) {
			return "", nil
		}
		return r.execute("announcement-bar", announcementView{Props: p, DismissURL: linkOr(sc.Links, Links.DismissAnnouncement)})
	case KindProductGrid:
		return r.renderProductGrid(ctx, resolved, sc)
	case KindProductMain:
		return r.renderProductMain(resolved, sc)
	case KindCollectionList:
		return r.renderCollectionList(ctx, resolved, sc)
	case KindCollectionFilters:
		p, err := DecodeProps[CollectionFiltersProps](resolved)
		if err != nil {
			return "", err
		}
		if !p.ShowSort && !p.ShowFilter {
			return "", nil
		}
		return r.execute("collection-filters", filtersView{Props: p, SortOptions: SortOptions})
	case KindRichText:
		return renderProps[RichTextProps](r, "rich-text", resolved, nil)
	case KindImageWithText:
		return renderProps[ImageWithTextProps](r, "image-with-text", resolved, nil)
	case KindNewsletter:
		return renderProps[NewsletterProps](r, "newsletter", resolved, nil)
	case KindTestimonials:
		return renderProps(r, "testimonials", resolved, func(p *TestimonialsProps) {
			if len(p.Testimonials) == 0 {
				p.Testimonials = FallbackTestimonials()
			}
		})
	case KindFooter:
		p, err := DecodeProps[FooterProps](resolved)
		if err != nil {
			return "", err
		}
		return r.execute("footer", footerView{Props: p, StoreName: sc.StoreName, Year: r.now().Year()})
	case KindAppBlock:
		return r.renderAppBlock(ctx, resolved, sc)
	default:
		return UnknownSection(sectionType), nil
	}
}

func renderProps[T any](r *Renderer, name string, props map[string]any, adjust func(*T)) (template.HTML, error) {
	p, err := DecodeProps[T](props)
	if err != nil {
		return "", err
	}
	if adjust != nil {
		adjust(&p)
	}
	return r.execute(name, p)
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("sections: render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

type announcementView struct {
	Props      AnnouncementBarProps
	DismissURL string
}

type filtersView struct {
	Props       CollectionFiltersProps
	SortOptions []SortOption
}

type footerView struct {
	Props     FooterProps
	StoreName string
	Year      int
}

// SortOption is one entry of the collection sort menu.
type SortOption struct {
	Value string
	Label string
}

var SortOptions = []SortOption{
	{Value: "name-asc", Label: "Name (A-Z)"},
	{Value: "name-desc", Label: "Name (Z-A)"},
	{Value: "price-asc", Label: "Price (Low to High)"},
	{Value: "price-desc", Label: "Price (High to Low)"},
}

// FallbackTestimonials are shown when a testimonials section has none.
func FallbackTestimonials() []Testimonial {
	return []Testimonial{
		{Author: "Sarah J.", Role: "Verified Buyer", Content: "Absolutely love the quality! Will definitely be ordering again.", Rating: 5},
		{Author: "Michael T.", Role: "Verified Buyer", Content: "Fast shipping and great customer service. Highly recommend!", Rating: 5},
		{Author: "Emma R.", Role: "Verified Buyer", Content: "Beautiful products, exactly as described. Very happy with my purchase.", Rating: 4},
	}
}

type productCard struct {
	Product  domain.Product
	URL      string
	ImageURL string
}

type productGridView struct {
	Props ProductGridProps
	Cards []productCard
}

func (r *Renderer) renderProductGrid(ctx context.Context, props map[string]any, sc Context) (template.HTML, error) {
	p, err := DecodeProps[ProductGridProps](props)
	if err != nil {
		return "", err
	}
	if p.Limit <= 0 {
		p.Limit = 8
	}

	products := sc.Products
	if products == nil && sc.Catalog != nil && sc.StoreSlug != "" {
		page, err := sc.Catalog.ListProducts(ctx, sc.StoreSlug, domain.ProductQuery{
			Limit:    p.Limit,
			Category: p.CollectionHandle,
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.logger.Warn("sections.product_grid.load_failed", "store", sc.StoreSlug, "error", err)
		} else if page != nil {
			products = page.Products
		}
	}
	if len(products) > p.Limit {
		products = products[:p.Limit]
	}
	if len(products) == 0 {
		return "", nil
	}

	view := productGridView{Props: p, Cards: make([]productCard, 0, len(products))}
	for _, product := range products {
		view.Cards = append(view.Cards, productCard{
			Product:  product,
			URL:      linkOr(sc.Links, func(l Links) string { return l.Product(product.Slug) }),
			ImageURL: primaryImage(product),
		})
	}
	return r.execute("product-grid", view)
}

type productMainView struct {
	Props    ProductMainProps
	Product  *domain.Product
	Editing  bool
	Images   []string
	Selected *domain.Variant
	Price    decimal.Decimal
	CartURL  string
}

func (r *Renderer) renderProductMain(props map[string]any, sc Context) (template.HTML, error) {
	p, err := DecodeProps[ProductMainProps](props)
	if err != nil {
		return "", err
	}
	view := productMainView{Props: p, Product: sc.Product, Editing: sc.Editing}
	if sc.Product != nil {
		view.Images = productImages(*sc.Product)
		view.Price = sc.Product.Price
		if len(sc.Product.Variants) > 0 {
			selected := sc.Product.Variants[0]
			view.Selected = &selected
			if !selected.Price.IsZero() {
				view.Price = selected.Price
			}
		}
		view.CartURL = linkOr(sc.Links, Links.CartItems)
	}
	return r.execute("product-main", view)
}

type collectionCard struct {
	Collection domain.Collection
	URL        string
}

type collectionListView struct {
	Props   CollectionListProps
	Cards   []collectionCard
	Editing bool
}

func (r *Renderer) renderCollectionList(ctx context.Context, props map[string]any, sc Context) (template.HTML, error) {
	p, err := DecodeProps[CollectionListProps](props)
	if err != nil {
		return "", err
	}
	if p.Limit <= 0 {
		p.Limit = 6
	}

	collections := sc.Collections
	if collections == nil && sc.Catalog != nil && sc.StoreSlug != "" {
		loaded, err := sc.Catalog.ListCollections(ctx, sc.StoreSlug)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.logger.Warn("sections.collection_list.load_failed", "store", sc.StoreSlug, "error", err)
		}
		collections = loaded
	}
	if len(collections) > p.Limit {
		collections = collections[:p.Limit]
	}

	view := collectionListView{Props: p, Editing: sc.Editing}
	for _, collection := range collections {
		view.Cards = append(view.Cards, collectionCard{
			Collection: collection,
			URL:        linkOr(sc.Links, func(l Links) string { return l.Collection(collection.Slug) }),
		})
	}
	if len(view.Cards) == 0 && !sc.Editing {
		return "", nil
	}
	return r.execute("collection-list", view)
}

func (r *Renderer) renderAppBlock(ctx context.Context, props map[string]any, sc Context) (template.HTML, error) {
	host := sc.AppBlocks
	if host == nil {
		host = appblock.NewPageHost(nil)
	}
	inst := appblock.New(appblock.ConfigFromProps(props), host,
		appblock.WithVariables(sc.Variables()),
		appblock.WithLogger(r.logger),
	)
	state := inst.Mount(ctx)
	if state == appblock.StateLoading && ctx.Err() != nil {
		return "", ctx.Err()
	}
	return inst.Markup(sc.Diagnostics()), nil
}

func linkOr(links Links, fn func(Links) string) string {
	if links == nil {
		return "#"
	}
	return fn(links)
}

func primaryImage(p domain.Product) string {
	if images := productImages(p); len(images) > 0 {
		return images[0]
	}
	return ""
}

func productImages(p domain.Product) []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if p.ImageURL != "" {
		return []string{p.ImageURL}
	}
	return nil
}
