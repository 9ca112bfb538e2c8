package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StoreSettings is the per-tenant configuration served by the backend.
type StoreSettings struct {
	StoreName           string       `json:"storeName"`
	StoreSlug           string       `json:"storeSlug"`
	CheckoutMode        CheckoutMode `json:"checkoutMode,omitempty"`
	GlobalStyles        GlobalStyles `json:"globalStyles"`
	SEODefaults         SEODefaults  `json:"seoDefaults"`
	SocialLinks         SocialLinks  `json:"socialLinks"`
	ContactEmail        string       `json:"contactEmail,omitempty"`
	AnnouncementText    string       `json:"announcementText,omitempty"`
	AnnouncementEnabled bool         `json:"announcementEnabled"`
	Theme               *Theme       `json:"theme,omitempty"`
}

// CheckoutMode controls whether checkout requires a customer account.
type CheckoutMode string

const (
	CheckoutGuestOnly   CheckoutMode = "GUEST_ONLY"
	CheckoutAccountOnly CheckoutMode = "ACCOUNT_ONLY"
	CheckoutBoth        CheckoutMode = "BOTH"
)

type GlobalStyles struct {
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
	FontFamily     string `json:"fontFamily,omitempty"`
	Logo           string `json:"logo,omitempty"`
	Favicon        string `json:"favicon,omitempty"`
}

type SEODefaults struct {
	TitleTemplate      string `json:"titleTemplate,omitempty"`
	DefaultDescription string `json:"defaultDescription,omitempty"`
	OGImage            string `json:"ogImage,omitempty"`
}

type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// Theme carries the CSS custom properties of the active store theme.
type Theme struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	CSSVariables map[string]string `json:"cssVariables,omitempty"`
}

// Title applies the SEO title template, falling back to the store name.
func (s StoreSettings) Title(page string) string {
	if page == "" {
		return s.StoreName
	}
	if tpl := s.SEODefaults.TitleTemplate; strings.Contains(tpl, "%s") {
		return strings.Replace(tpl, "%s", page, 1)
	}
	return page + " | " + s.StoreName
}

// Product is a catalog item.
type Product struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice,omitempty"`
	ImageURL       string           `json:"imageUrl,omitempty"`
	Images         []string         `json:"images,omitempty"`
	CategoryName   string           `json:"categoryName,omitempty"`
	CategorySlug   string           `json:"categorySlug,omitempty"`
	InStock        bool             `json:"inStock"`
	Variants       []Variant        `json:"variants"`
	Vendor         string           `json:"vendor,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
}

// OnSale reports whether the product has a compare-at price above its price.
func (p Product) OnSale() bool {
	return p.CompareAtPrice != nil && p.CompareAtPrice.GreaterThan(p.Price)
}

// Variant returns the variant with id, if any.
func (p Product) Variant(id int64) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Variant is a purchasable option of a product.
type Variant struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	SKU            string           `json:"sku,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice,omitempty"`
	InStock        bool             `json:"inStock"`
	Quantity       int              `json:"quantity"`
	Options        []VariantOption  `json:"options,omitempty"`
}

type VariantOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Collection groups products.
type Collection struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	ProductCount int    `json:"productCount"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products      []Product `json:"products"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
	TotalProducts int       `json:"totalProducts"`
	HasNext       bool      `json:"hasNext"`
	HasPrevious   bool      `json:"hasPrevious"`
}

// ProductQuery filters a product listing.
type ProductQuery struct {
	Page     int
	Limit    int
	Category string
	SortBy   string
	SortDir  string
}

// CartItem is one line in a shopping cart.
type CartItem struct {
	ProductID   int64           `json:"productId"`
	VariantID   int64           `json:"variantId,omitempty"`
	Name        string          `json:"name"`
	VariantName string          `json:"variantName,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a placed order as listed on the customer account.
type Order struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// LayoutSummary describes a stored layout in the admin listing.
type LayoutSummary struct {
	ID        int64     `json:"id"`
	PageType  PageType  `json:"pageType"`
	Handle    string    `json:"handle,omitempty"`
	Name      string    `json:"name"`
	Published bool      `json:"published"`
	HasDraft  bool      `json:"hasDraft"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PageType names a layout slot a store can customise. The admin API uses the
// upper-case form, the public layout endpoint the lower-case one.
type PageType string

const (
	PageHome       PageType = "HOME"
	PageProduct    PageType = "PRODUCT"
	PageCollection PageType = "COLLECTION"
	PageCart       PageType = "CART"
	PageCheckout   PageType = "CHECKOUT"
	PageCustom     PageType = "CUSTOM"
)

// EditablePageTypes lists the standard layouts shown in the admin dashboard.
var EditablePageTypes = []PageType{PageHome, PageProduct, PageCollection, PageCart, PageCheckout}

// ParsePageType accepts either case and defaults blank input to PageHome.
func ParsePageType(value string) (PageType, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return PageHome, true
	}
	t := PageType(value)
	switch t {
	case PageHome, PageProduct, PageCollection, PageCart, PageCheckout, PageCustom:
		return t, true
	}
	return "", false
}

// Query is the lower-case form used by the public layout endpoint.
func (t PageType) Query() string {
	return strings.ToLower(string(t))
}

// DisplayName renders "Home Page" style labels.
func (t PageType) DisplayName() string {
	if t == "" {
		return ""
	}
	lower := strings.ToLower(string(t))
	return strings.ToUpper(lower[:1]) + lower[1:] + " Page"
}
