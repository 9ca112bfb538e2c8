package httpserver

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-storefront/internal/cart"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/identity"
	"github.com/goliatone/go-storefront/internal/links"
)

var (
	errProductSlugRequired = errors.New("product slug is required")
	errInvalidLineID       = errors.New("product and variant ids must be integers")
	errUnknownVariant      = errors.New("variant does not belong to product")
	errOutOfStock          = errors.New("variant is out of stock")
)

type cartResponse struct {
	Items       []domain.CartItem `json:"items"`
	Count       int               `json:"count"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	MaxQuantity int               `json:"maxQuantity"`
}

type addItemRequest struct {
	ProductSlug string `json:"productSlug"`
	VariantID   int64  `json:"variantId"`
	Quantity    int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) cartPage(w http.ResponseWriter, r *http.Request) {
	slug := storeParam(r)
	items, err := s.carts.Items(r.Context(), cartToken(r))
	if err != nil && !errors.Is(err, cart.ErrTokenRequired) {
		s.logger.WithContext(r.Context()).Warn("httpserver.cart_load_failed", "store", slug, "error", err)
	}
	s.servePage(w, r, slug, pageView{
		key:    domain.PageCart.Query(),
		title:  "Cart",
		layout: s.pageLayout(slug, domain.PageCart),
		after: func(store *links.Store) template.HTML {
			return s.partial("cart", cartView{
				Items:    items,
				Subtotal: cart.Subtotal(items),
				ItemsURL: store.CartItems(),
				Products: store.Products(),
				Max:      s.carts.MaxQuantity(),
			})
		},
	})
}

func (s *Server) listCartItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.carts.Items(r.Context(), cartToken(r))
	if err != nil && !errors.Is(err, cart.ErrTokenRequired) {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cartResponse(items))
}

// addCartItem accepts the product form or a JSON body. Name and price come
// from the catalog, never from the request.
func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := storeParam(r)

	req, err := readAddItem(r)
	if err != nil {
		writeError(w, err)
		return
	}
	product, err := s.storefront.GetProduct(ctx, slug, req.ProductSlug)
	if err != nil {
		writeError(w, err)
		return
	}
	item, err := cartItem(product, req)
	if err != nil {
		writeError(w, err)
		return
	}

	token := s.ensureCartToken(w, r)
	items, err := s.carts.Add(ctx, token, item)
	if err != nil {
		writeError(w, err)
		return
	}
	s.cartResult(w, r, http.StatusCreated, items)
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	productID, variantID, err := lineParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	quantity, err := readQuantity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.carts.UpdateQuantity(r.Context(), cartToken(r), productID, variantID, quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	s.cartResult(w, r, http.StatusOK, items)
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	productID, variantID, err := lineParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.carts.Remove(r.Context(), cartToken(r), productID, variantID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.cartResult(w, r, http.StatusOK, items)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.carts.Clear(r.Context(), cartToken(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cartResponse(nil))
}

func (s *Server) cartResult(w http.ResponseWriter, r *http.Request, status int, items []domain.CartItem) {
	if wantsJSON(r) {
		writeJSON(w, status, s.cartResponse(items))
		return
	}
	http.Redirect(w, r, s.links.Store(storeParam(r)).Cart(), http.StatusSeeOther)
}

func (s *Server) cartResponse(items []domain.CartItem) cartResponse {
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{
		Items:       items,
		Count:       cart.Count(items),
		Subtotal:    cart.Subtotal(items),
		MaxQuantity: s.carts.MaxQuantity(),
	}
}

func (s *Server) cartCount(r *http.Request) int {
	token := cartToken(r)
	if s.carts == nil || token == "" {
		return 0
	}
	items, err := s.carts.Items(r.Context(), token)
	if err != nil {
		return 0
	}
	return cart.Count(items)
}

func (s *Server) ensureCartToken(w http.ResponseWriter, r *http.Request) string {
	if token := cartToken(r); token != "" {
		return token
	}
	token := identity.NewToken()
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func cartToken(r *http.Request) string {
	cookie, err := r.Cookie(cartCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func readAddItem(r *http.Request) (addItemRequest, error) {
	var req addItemRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &req); err != nil {
			return req, badRequest(err, "invalid JSON body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, badRequest(err, "invalid form body")
		}
		req.ProductSlug = r.PostForm.Get("product_slug")
		variantID, err := parseID(r.PostForm.Get("variant_id"))
		if err != nil {
			return req, badRequest(errInvalidLineID, errInvalidLineID.Error())
		}
		req.VariantID = variantID
		req.Quantity = parseIntParam(r.PostForm.Get("quantity"), 1)
	}
	req.ProductSlug = strings.TrimSpace(req.ProductSlug)
	if req.ProductSlug == "" {
		return req, badRequest(errProductSlugRequired, errProductSlugRequired.Error())
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	return req, nil
}

func readQuantity(r *http.Request) (int, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req quantityRequest
		if err := decodeJSON(r, &req); err != nil {
			return 0, badRequest(err, "invalid JSON body")
		}
		return req.Quantity, nil
	}
	if err := r.ParseForm(); err != nil {
		return 0, badRequest(err, "invalid form body")
	}
	return parseIntParam(r.PostForm.Get("quantity"), 0), nil
}

func lineParams(r *http.Request) (int64, int64, error) {
	productID, err := parseID(chi.URLParam(r, "productID"))
	if err != nil || productID <= 0 {
		return 0, 0, badRequest(errInvalidLineID, errInvalidLineID.Error())
	}
	variantID, err := parseID(chi.URLParam(r, "variantID"))
	if err != nil || variantID < 0 {
		return 0, 0, badRequest(errInvalidLineID, errInvalidLineID.Error())
	}
	return productID, variantID, nil
}

// cartItem prices a cart line from the catalog product. Products with
// variants default to their first variant.
func cartItem(product *domain.Product, req addItemRequest) (domain.CartItem, error) {
	item := domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  req.Quantity,
		ImageURL:  product.ImageURL,
	}
	if item.ImageURL == "" && len(product.Images) > 0 {
		item.ImageURL = product.Images[0]
	}
	if len(product.Variants) == 0 {
		if !product.InStock {
			return item, goerrors.Wrap(errOutOfStock, goerrors.CategoryConflict, errOutOfStock.Error())
		}
		return item, nil
	}

	variant := product.Variants[0]
	if req.VariantID != 0 {
		found, ok := product.Variant(req.VariantID)
		if !ok {
			return item, badRequest(errUnknownVariant, errUnknownVariant.Error())
		}
		variant = found
	}
	if !variant.InStock {
		return item, goerrors.Wrap(errOutOfStock, goerrors.CategoryConflict, errOutOfStock.Error())
	}
	item.VariantID = variant.ID
	item.VariantName = variant.Name
	if !variant.Price.IsZero() {
		item.Price = variant.Price
	}
	return item, nil
}

func badRequest(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, message)
}

type cartView struct {
	Items    []domain.CartItem
	Subtotal decimal.Decimal
	ItemsURL string
	Products string
	Max      int
}

// LineURL is the endpoint that updates one cart line.
func (v cartView) LineURL(item domain.CartItem) string {
	return v.ItemsURL + "/" + strconv.FormatInt(item.ProductID, 10) + "/" + strconv.FormatInt(item.VariantID, 10)
}
