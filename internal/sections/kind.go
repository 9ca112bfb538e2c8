package sections

import (
	"strings"

	"github.com/goliatone/go-slug"
)

// Kind identifies a section type.
type Kind string

const (
	KindHeroBanner        Kind = "hero-banner"
	KindAnnouncementBar   Kind = "announcement-bar"
	KindProductGrid       Kind = "product-grid"
	KindProductMain       Kind = "product-main"
	KindCollectionList    Kind = "collection-list"
	KindCollectionFilters Kind = "collection-filters"
	KindRichText          Kind = "rich-text"
	KindImageWithText     Kind = "image-with-text"
	KindNewsletter        Kind = "newsletter"
	KindTestimonials      Kind = "testimonials"
	KindFooter            Kind = "footer"
	KindAppBlock          Kind = "app-block"
)

// Kinds lists every section type in palette order.
var Kinds = []Kind{
	KindHeroBanner,
	KindAnnouncementBar,
	KindRichText,
	KindImageWithText,
	KindNewsletter,
	KindProductGrid,
	KindProductMain,
	KindCollectionList,
	KindCollectionFilters,
	KindTestimonials,
	KindFooter,
	KindAppBlock,
}

// componentNames maps each kind to the component name stored in page-builder
// documents.
var componentNames = map[Kind]string{
	KindHeroBanner:        "HeroBanner",
	KindAnnouncementBar:   "AnnouncementBar",
	KindProductGrid:       "ProductGrid",
	KindProductMain:       "ProductMain",
	KindCollectionList:    "CollectionList",
	KindCollectionFilters: "CollectionFilters",
	KindRichText:          "RichText",
	KindImageWithText:     "ImageWithText",
	KindNewsletter:        "Newsletter",
	KindTestimonials:      "Testimonials",
	KindFooter:            "Footer",
	KindAppBlock:          "AppBlock",
}

var kindIndex = buildKindIndex()

func buildKindIndex() map[string]Kind {
	index := make(map[string]Kind, len(componentNames)*2)
	for kind, component := range componentNames {
		index[string(kind)] = kind
		index[component] = kind
		index[lookupKey(string(kind))] = kind
		index[lookupKey(component)] = kind
	}
	return index
}

// lookupKey folds case and separators so "hero_banner", "Hero Banner" and
// "HeroBanner" share a key.
func lookupKey(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		normalized = strings.ToLower(strings.TrimSpace(value))
	}
	return separators.Replace(normalized)
}

var separators = strings.NewReplacer("-", "", "_", "", " ", "")

// ParseKind accepts a kind id or a component name.
func ParseKind(value string) (Kind, bool) {
	if kind, ok := kindIndex[value]; ok {
		return kind, true
	}
	key := lookupKey(value)
	if key == "" {
		return "", false
	}
	kind, ok := kindIndex[key]
	return kind, ok
}

// Component returns the page-builder component name for the kind.
func (k Kind) Component() string {
	return componentNames[k]
}

func (k Kind) String() string {
	return string(k)
}
