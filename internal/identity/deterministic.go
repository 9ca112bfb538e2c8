package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a stable UUID from key. Keys are namespaced by the helpers
// below so ids of different record kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// CartLineUUID identifies one line of a cart: a product/variant pair.
func CartLineUUID(cartToken, productID, variantID string) uuid.UUID {
	return UUID("storefront:cart_line:" + strings.TrimSpace(cartToken) + ":" + strings.TrimSpace(productID) + ":" + strings.TrimSpace(variantID))
}

// CustomerSessionUUID identifies the customer session of a browser on one store.
func CustomerSessionUUID(storeSlug, sessionToken string) uuid.UUID {
	return UUID("storefront:customer_session:" + strings.ToLower(strings.TrimSpace(storeSlug)) + ":" + strings.TrimSpace(sessionToken))
}

// NewToken returns a random opaque token for cookies.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
