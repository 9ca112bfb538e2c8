// Package templatevars substitutes store, product and collection tokens in
// section settings. Two token families are recognised: "{{product.name}}"
// style dotted paths and "{product_name}" style underscore names.
package templatevars

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-storefront/internal/domain"
)

// Context is the data tokens are resolved against. Any field may be unset.
type Context struct {
	StoreName  string
	Product    *domain.Product
	Collection *domain.Collection
}

// Resolve substitutes every recognised token in value. Non-string values are
// returned unchanged. Unset context data substitutes the empty string and
// unknown tokens are left as they are. Substitution is a single left to right
// pass, so replaced text is never scanned again.
func Resolve(value any, ctx Context) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return ResolveString(s, ctx)
}

// ResolveString is Resolve for a known string.
func ResolveString(s string, ctx Context) string {
	if !strings.Contains(s, "{") {
		return s
	}
	return ctx.replacer().Replace(s)
}

// ResolveMap applies Resolve to the top-level values of props and returns a
// new map. Nested values are not visited.
func ResolveMap(props map[string]any, ctx Context) map[string]any {
	out := make(map[string]any, len(props))
	for key, value := range props {
		out[key] = Resolve(value, ctx)
	}
	return out
}

func (ctx Context) replacer() *strings.Replacer {
	var (
		productID, productName, productPrice string
		collectionName, collectionSlug       string
		collectionDescription                string
	)
	if p := ctx.Product; p != nil {
		if p.ID != 0 {
			productID = strconv.FormatInt(p.ID, 10)
		}
		productName = p.Name
		if !p.Price.IsZero() {
			productPrice = p.Price.String()
		}
	}
	if c := ctx.Collection; c != nil {
		collectionName = c.Name
		collectionSlug = c.Slug
		collectionDescription = c.Description
	}

	return strings.NewReplacer(
		"{{store_name}}", ctx.StoreName,
		"{{product.id}}", productID,
		"{{product.name}}", productName,
		"{{product.price}}", productPrice,
		"{{collection.name}}", collectionName,
		"{{collection.slug}}", collectionSlug,
		"{{collection.description}}", collectionDescription,
		"{collection_name}", collectionName,
		"{collection_slug}", collectionSlug,
		"{collection_description}", collectionDescription,
		"{product_name}", productName,
		"{product_price}", productPrice,
		"{store_name}", ctx.StoreName,
	)
}
