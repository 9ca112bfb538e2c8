package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

const (
	defaultTimeout      = 10 * time.Second
	maxErrorBody        = 4 << 10
	DefaultProductLimit = 24
)

// Storefront is the public, per-store read surface of the backend.
type Storefront interface {
	GetSettings(ctx context.Context, storeSlug string) (*domain.StoreSettings, error)
	GetPageLayout(ctx context.Context, storeSlug string, pageType domain.PageType) (*layout.Document, error)
	GetCustomPageLayout(ctx context.Context, storeSlug, handle string) (*layout.Document, error)
	ListProducts(ctx context.Context, storeSlug string, query domain.ProductQuery) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, storeSlug, productSlug string) (*domain.Product, error)
	ListCollections(ctx context.Context, storeSlug string) ([]domain.Collection, error)
	GetCollection(ctx context.Context, storeSlug, collectionSlug string) (*domain.Collection, error)
}

// Admin is the authenticated layout management surface.
type Admin interface {
	ListLayouts(ctx context.Context) ([]domain.LayoutSummary, error)
	GetDraftLayout(ctx context.Context, pageType domain.PageType) (*layout.Document, error)
	SaveLayout(ctx context.Context, pageType domain.PageType, name string, doc *layout.Document) error
	PublishLayout(ctx context.Context, pageType domain.PageType) error
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     interfaces.Logger
}

// Client talks to the commerce backend over JSON.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	logger interfaces.Logger
}

var (
	_ Storefront = (*Client)(nil)
	_ Admin      = (*Client)(nil)
)

// NewClient validates cfg and returns a client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api: invalid base url %q", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:   base,
		token:  cfg.Token,
		http:   httpClient,
		logger: logging.OrNoOp(cfg.Logger),
	}, nil
}

// WithToken returns a copy of the client authenticating with token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) GetSettings(ctx context.Context, storeSlug string) (*domain.StoreSettings, error) {
	var settings domain.StoreSettings
	if err := c.getJSON(ctx, storePath(storeSlug, "settings"), nil, "store settings", &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetPageLayout fetches the published layout of a standard page. Documents
// that are neither the current nor the legacy shape become the empty document.
func (c *Client) GetPageLayout(ctx context.Context, storeSlug string, pageType domain.PageType) (*layout.Document, error) {
	if pageType == "" {
		pageType = domain.PageHome
	}
	query := url.Values{"page": {pageType.Query()}}
	return c.getLayout(ctx, storePath(storeSlug, "layout"), query, "page layout")
}

// GetCustomPageLayout fetches the layout of a merchant-defined page.
func (c *Client) GetCustomPageLayout(ctx context.Context, storeSlug, handle string) (*layout.Document, error) {
	return c.getLayout(ctx, storePath(storeSlug, "pages", handle), nil, "custom page layout")
}

// ListProducts fetches one page of products. Zero values take the backend
// defaults: page 0, 24 items, sorted by name ascending.
func (c *Client) ListProducts(ctx context.Context, storeSlug string, query domain.ProductQuery) (*domain.ProductPage, error) {
	var page domain.ProductPage
	if err := c.getJSON(ctx, storePath(storeSlug, "products"), productValues(query), "products", &page); err != nil {
		return nil, err
	}
	if page.Products == nil {
		page.Products = []domain.Product{}
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, storeSlug, productSlug string) (*domain.Product, error) {
	var product domain.Product
	if err := c.getJSON(ctx, storePath(storeSlug, "products", productSlug), nil, "product", &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) ListCollections(ctx context.Context, storeSlug string) ([]domain.Collection, error) {
	collections := []domain.Collection{}
	if err := c.getJSON(ctx, storePath(storeSlug, "collections"), nil, "collections", &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

func (c *Client) GetCollection(ctx context.Context, storeSlug, collectionSlug string) (*domain.Collection, error) {
	var collection domain.Collection
	if err := c.getJSON(ctx, storePath(storeSlug, "collections", collectionSlug), nil, "collection", &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// ListLayouts lists the layouts of the store the token belongs to.
func (c *Client) ListLayouts(ctx context.Context) ([]domain.LayoutSummary, error) {
	if c.token == "" {
		return nil, unauthorized("layouts")
	}
	layouts := []domain.LayoutSummary{}
	if err := c.getJSON(ctx, adminPath(), nil, "layouts", &layouts); err != nil {
		return nil, err
	}
	return layouts, nil
}

// GetDraftLayout loads the working copy of a layout. A missing draft is not
// an error: editing starts from the empty document.
func (c *Client) GetDraftLayout(ctx context.Context, pageType domain.PageType) (*layout.Document, error) {
	if c.token == "" {
		return nil, unauthorized("draft")
	}
	doc, err := c.getLayout(ctx, adminPath(string(pageType), "draft"), nil, "draft")
	if IsNotFound(err) {
		return layout.EmptyDocument(), nil
	}
	return doc, err
}

type saveLayoutRequest struct {
	LayoutJSON *layout.Document `json:"layoutJson"`
	Name       string           `json:"name"`
}

// SaveLayout stores doc as the draft of pageType. A blank name becomes
// "{TYPE} Page".
func (c *Client) SaveLayout(ctx context.Context, pageType domain.PageType, name string, doc *layout.Document) error {
	if c.token == "" {
		return unauthorized("save")
	}
	if doc == nil {
		doc = layout.EmptyDocument()
	}
	if strings.TrimSpace(name) == "" {
		name = string(pageType) + " Page"
	}
	body, err := json.Marshal(saveLayoutRequest{LayoutJSON: doc, Name: name})
	if err != nil {
		return wrapDecodeError(err, "save")
	}
	return c.do(ctx, http.MethodPut, adminPath(string(pageType)), nil, body, "save", nil)
}

// PublishLayout promotes the current draft of pageType.
func (c *Client) PublishLayout(ctx context.Context, pageType domain.PageType) error {
	if c.token == "" {
		return unauthorized("publish")
	}
	return c.do(ctx, http.MethodPost, adminPath(string(pageType), "publish"), nil, nil, "publish", nil)
}

// CurrentStore returns the settings of the store the token administers.
func (c *Client) CurrentStore(ctx context.Context) (*domain.StoreSettings, error) {
	if c.token == "" {
		return nil, unauthorized("current store")
	}
	var settings domain.StoreSettings
	if err := c.getJSON(ctx, "/api/v1/stores/settings", nil, "current store", &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// ListOrders lists the orders of the customer owning token.
func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	if strings.TrimSpace(token) == "" {
		return nil, unauthorized("orders")
	}
	orders := []domain.Order{}
	if err := c.WithToken(token).getJSON(ctx, "/api/v1/orders/my", nil, "orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) getLayout(ctx context.Context, path string, query url.Values, resource string) (*layout.Document, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, path, query, resource, &raw); err != nil {
		return nil, err
	}
	doc, ok := layout.NormalizeJSON(raw)
	if !ok {
		c.logger.Warn("api.layout_unrecognized", "path", path)
		return layout.EmptyDocument(), nil
	}
	return doc, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, resource string, dst any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, resource, dst)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, resource string, dst any) error {
	endpoint := c.base.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return wrapTransportError(err, resource)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("api.request_failed", "method", method, "path", path, "error", err)
		return wrapTransportError(err, resource)
	}
	defer resp.Body.Close()

	c.logger.Debug("api.request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return wrapStatusError(&StatusError{
			Method:   method,
			Path:     path,
			Status:   resp.StatusCode,
			Body:     string(snippet),
			Resource: resource,
		})
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return wrapDecodeError(errors.New("empty body"), resource)
		}
		return wrapDecodeError(err, resource)
	}
	return nil
}

func productValues(query domain.ProductQuery) url.Values {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultProductLimit
	}
	sortBy := query.SortBy
	if sortBy == "" {
		sortBy = "name"
	}
	sortDir := strings.ToLower(query.SortDir)
	if sortDir != "desc" {
		sortDir = "asc"
	}
	values := url.Values{
		"page":    {strconv.Itoa(max(query.Page, 0))},
		"limit":   {strconv.Itoa(limit)},
		"sortBy":  {sortBy},
		"sortDir": {sortDir},
	}
	if query.Category != "" {
		values.Set("category", query.Category)
	}
	return values
}

func storePath(storeSlug string, parts ...string) string {
	segments := append([]string{"api", "v1", "storefront", url.PathEscape(storeSlug)}, escapeAll(parts)...)
	return "/" + strings.Join(segments, "/")
}

func adminPath(parts ...string) string {
	segments := append([]string{"api", "v1", "stores", "layouts"}, escapeAll(parts)...)
	return "/" + strings.Join(segments, "/")
}

func escapeAll(parts []string) []string {
	out := make([]string, len(parts))
	for i, part := range parts {
		out[i] = url.PathEscape(part)
	}
	return out
}
