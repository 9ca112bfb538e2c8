package httpserver

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-storefront/internal/api"
	"github.com/goliatone/go-storefront/internal/appblock"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/links"
	"github.com/goliatone/go-storefront/internal/render"
	"github.com/goliatone/go-storefront/internal/sections"
)

const customPagePrefix = "pages:"

// pageView describes one storefront page: where its layout comes from and
// the catalog data already loaded for it.
type pageView struct {
	key         string
	title       string
	layout      func(ctx context.Context) (*layout.Document, error)
	product     *domain.Product
	collection  *domain.Collection
	products    []domain.Product
	collections []domain.Collection
	fragment    url.Values
	after       func(store *links.Store) template.HTML
	editing     bool
	selected    string
	live        bool
}

type pageData struct {
	Title     string
	Settings  *domain.StoreSettings
	Links     *links.Store
	Body      template.HTML
	After     template.HTML
	Scripts   []appblock.Script
	Editing   bool
	BridgeURL string
	CartCount int
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	slug := storeParam(r)
	s.servePage(w, r, slug, pageView{
		key:    domain.PageHome.Query(),
		layout: s.pageLayout(slug, domain.PageHome),
	})
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	slug := storeParam(r)
	query := productQuery(r.URL.Query(), s.productsLimit)
	page, err := s.storefront.ListProducts(r.Context(), slug, query)
	if err != nil {
		s.fetchFailed(w, r, "products", err)
		return
	}
	s.servePage(w, r, slug, pageView{
		key:      domain.PageCollection.Query(),
		title:    "Products",
		layout:   s.pageLayout(slug, domain.PageCollection),
		products: nonNil(page.Products),
		fragment: r.URL.Query(),
		after: func(store *links.Store) template.HTML {
			return s.partial("pagination", paginationView(store.Products(), r.URL.Query(), page))
		},
	})
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	slug := storeParam(r)
	productSlug := chi.URLParam(r, "product")
	product, err := s.storefront.GetProduct(r.Context(), slug, productSlug)
	if err != nil {
		s.fetchFailed(w, r, "product", err)
		return
	}
	s.servePage(w, r, slug, pageView{
		key:      domain.PageProduct.Query(),
		title:    product.Name,
		layout:   s.pageLayout(slug, domain.PageProduct),
		product:  product,
		fragment: url.Values{"product": {product.Slug}},
	})
}

func (s *Server) collections(w http.ResponseWriter, r *http.Request) {
	slug := storeParam(r)
	collections, err := s.storefront.ListCollections(r.Context(), slug)
	if err != nil {
		s.fetchFailed(w, r, "collections", err)
		return
	}
	doc := &layout.Document{
		Content: []layout.Component{{
			Type: sections.KindCollectionList.Component(),
			Props: map[string]any{
				"id":                 "collections",
				"title":              "Collections",
				"limit":              max(len(collections), 1),
				"show_product_count": true,
			},
		}},
		Root:  layout.Root{Props: map[string]any{"title": "Collections"}},
		Zones: map[string][]layout.Component{},
	}
	if collections == nil {
		collections = []domain.Collection{}
	}
	s.servePage(w, r, slug, pageView{
		key:         "collections",
		title:       "Collections",
		layout:      func(context.Context) (*layout.Document, error) { return doc, nil },
		collections: collections,
	})
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) {
	slug := storeParam(r)
	collectionSlug := chi.URLParam(r, "collection")
	collection, err := s.storefront.GetCollection(r.Context(), slug, collectionSlug)
	if err != nil {
		s.fetchFailed(w, r, "collection", err)
		return
	}
	query := productQuery(r.URL.Query(), s.productsLimit)
	query.Category = collection.Slug
	page, err := s.storefront.ListProducts(r.Context(), slug, query)
	if err != nil {
		s.fetchFailed(w, r, "collection products", err)
		return
	}
	fragment := r.URL.Query()
	fragment.Set("collection", collection.Slug)
	s.servePage(w, r, slug, pageView{
		key:        domain.PageCollection.Query(),
		title:      collection.Name,
		layout:     s.pageLayout(slug, domain.PageCollection),
		collection: collection,
		products:   nonNil(page.Products),
		fragment:   fragment,
		after: func(store *links.Store) template.HTML {
			return s.partial("pagination", paginationView(store.Collection(collection.Slug), r.URL.Query(), page))
		},
	})
}

func (s *Server) customPage(w http.ResponseWriter, r *http.Request) {
	slug := storeParam(r)
	handle := strings.TrimSpace(chi.URLParam(r, "handle"))
	doc, err := s.storefront.GetCustomPageLayout(r.Context(), slug, handle)
	if err != nil {
		s.fetchFailed(w, r, "page", err)
		return
	}
	s.servePage(w, r, slug, pageView{
		key:    customPagePrefix + handle,
		title:  doc.Title(),
		layout: func(context.Context) (*layout.Document, error) { return doc, nil },
	})
}

// fragment renders one section of a page without a time budget. Deferred
// sections fetch their markup here.
func (s *Server) fragment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := storeParam(r)
	key, _ := url.PathUnescape(chi.URLParam(r, "page"))
	sectionID, _ := url.PathUnescape(chi.URLParam(r, "section"))

	settings, err := s.storefront.GetSettings(ctx, slug)
	if err != nil {
		s.fragmentFailed(w, r, err)
		return
	}

	var doc *layout.Document
	if handle, ok := strings.CutPrefix(key, customPagePrefix); ok {
		doc, err = s.storefront.GetCustomPageLayout(ctx, slug, handle)
	} else if pageType, known := domain.ParsePageType(key); known {
		doc, err = s.storefront.GetPageLayout(ctx, slug, pageType)
	} else {
		err = api.ErrNotFound
	}
	if err != nil {
		s.fragmentFailed(w, r, err)
		return
	}

	host := appblock.NewPageHost(s.scripts)
	sc := s.sectionContext(r, settings, host)
	query := r.URL.Query()
	if productSlug := query.Get("product"); productSlug != "" {
		if product, err := s.storefront.GetProduct(ctx, slug, productSlug); err == nil {
			sc.Product = product
		}
	}
	if collectionSlug := query.Get("collection"); collectionSlug != "" {
		if collection, err := s.storefront.GetCollection(ctx, slug, collectionSlug); err == nil {
			sc.Collection = collection
		}
	}

	markup, err := s.renderer.RenderSection(ctx, doc.Layout(), sectionID, sc)
	if err != nil {
		s.fragmentFailed(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}

func (s *Server) dismissAnnouncement(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.announcementCookie,
		Value:    "true",
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	target := r.Referer()
	if target == "" {
		target = s.links.Store(storeParam(r)).Home()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, slug string, view pageView) {
	ctx := r.Context()
	settings, err := s.storefront.GetSettings(ctx, slug)
	if err != nil {
		s.fetchFailed(w, r, "store", err)
		return
	}

	doc, err := view.layout(ctx)
	if err != nil {
		if !api.IsNotFound(err) {
			s.logger.WithContext(ctx).Warn("httpserver.layout_failed", "store", slug, "page", view.key, "error", err)
		}
		doc = layout.EmptyDocument()
	}

	host := appblock.NewPageHost(s.scripts)
	sc := s.sectionContext(r, settings, host)
	sc.Product = view.product
	sc.Collection = view.collection
	sc.Products = view.products
	sc.Collections = view.collections
	sc.Editing = view.editing

	store := s.links.Store(slug)
	opts := render.Options{SelectedSectionID: view.selected}
	if !view.live {
		opts.FragmentURL = func(sectionID string) string {
			return withQuery(store.Fragment(view.key, sectionID), view.fragment)
		}
	}

	body, err := s.renderer.Render(ctx, doc.Layout(), sc, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.WithContext(ctx).Error("httpserver.render_failed", "store", slug, "page", view.key, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	title := view.title
	if title == "" {
		title = doc.Title()
	}
	data := pageData{
		Title:     settings.Title(title),
		Settings:  settings,
		Links:     store,
		Body:      body,
		Scripts:   host.Scripts(),
		Editing:   view.editing,
		CartCount: s.cartCount(r),
	}
	if view.after != nil {
		data.After = view.after(store)
	}
	if view.live {
		data.BridgeURL = withQuery(store.Bridge(), url.Values{"page": {view.key}})
	}
	s.writePage(w, r, http.StatusOK, "page", data)
}

func (s *Server) sectionContext(r *http.Request, settings *domain.StoreSettings, host *appblock.PageHost) sections.Context {
	slug := storeParam(r)
	sc := sections.Context{
		StoreSlug:   slug,
		Development: s.development,
		Links:       s.links.Store(slug),
		Catalog:     s.storefront,
		AppBlocks:   host,
	}
	if settings != nil {
		sc.StoreName = settings.StoreName
	}
	if cookie, err := r.Cookie(s.announcementCookie); err == nil && cookie.Value == "true" {
		sc.AnnouncementDismissed = true
	}
	return sc
}

func (s *Server) pageLayout(slug string, pageType domain.PageType) func(context.Context) (*layout.Document, error) {
	return func(ctx context.Context) (*layout.Document, error) {
		return s.storefront.GetPageLayout(ctx, slug, pageType)
	}
}

func (s *Server) fetchFailed(w http.ResponseWriter, r *http.Request, resource string, err error) {
	if api.IsNotFound(err) {
		s.notFound(w, r, resource)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	s.logger.WithContext(r.Context()).Warn("httpserver.fetch_failed", "store", storeParam(r), "resource", resource, "error", err)
	s.writePage(w, r, http.StatusBadGateway, "not_found", notFoundData{
		Title:   "Store unavailable",
		Message: "We could not load this page right now. Please try again shortly.",
	})
}

func (s *Server) fragmentFailed(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithContext(r.Context()).Warn("httpserver.fragment_failed", "store", storeParam(r), "error", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
}

type notFoundData struct {
	Title   string
	Message string
	Home    string
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, resource string) {
	data := notFoundData{Title: "Page not found", Message: "The page you are looking for does not exist."}
	if resource != "" {
		data.Message = "We could not find that " + resource + "."
	}
	if slug := storeParam(r); slug != "" {
		data.Home = s.links.Store(slug).Home()
	}
	s.writePage(w, r, http.StatusNotFound, "not_found", data)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.WithContext(r.Context()).Error("httpserver.page_failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) partial(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Warn("httpserver.partial_failed", "template", name, "error", err)
		return ""
	}
	return template.HTML(buf.String())
}

// productQuery reads the listing query: page, sort ("name-asc" and friends)
// and category.
func productQuery(values url.Values, limit int) domain.ProductQuery {
	query := domain.ProductQuery{
		Page:     max(parseIntParam(values.Get("page"), 0), 0),
		Limit:    limit,
		Category: strings.TrimSpace(values.Get("category")),
	}
	query.SortBy, query.SortDir = parseSort(values.Get("sort"))
	return query
}

func parseSort(value string) (string, string) {
	for _, option := range sections.SortOptions {
		if option.Value != value {
			continue
		}
		by, dir, _ := strings.Cut(option.Value, "-")
		return by, dir
	}
	return "name", "asc"
}

type pageLink struct {
	URL   string
	Label string
}

type pagination struct {
	Previous *pageLink
	Next     *pageLink
	Current  int
	Total    int
}

func paginationView(base string, query url.Values, page *domain.ProductPage) pagination {
	out := pagination{Current: page.CurrentPage + 1, Total: page.TotalPages}
	link := func(n int, label string) *pageLink {
		values := url.Values{}
		for key, vals := range query {
			values[key] = append([]string(nil), vals...)
		}
		values.Set("page", strconv.Itoa(n))
		return &pageLink{URL: withQuery(base, values), Label: label}
	}
	if page.HasPrevious {
		out.Previous = link(page.CurrentPage-1, "Previous")
	}
	if page.HasNext {
		out.Next = link(page.CurrentPage+1, "Next")
	}
	return out
}

func withQuery(link string, query url.Values) string {
	if len(query) == 0 || link == "#" {
		return link
	}
	sep := "?"
	if strings.Contains(link, "?") {
		sep = "&"
	}
	return link + sep + query.Encode()
}

func nonNil(products []domain.Product) []domain.Product {
	if products == nil {
		return []domain.Product{}
	}
	return products
}
