package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/editor"
	"github.com/goliatone/go-storefront/internal/layout"
)

// preview renders a page from the document the editor is working on. The
// published layout is used until the editor sends one.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := storeParam(r)
	query := r.URL.Query()
	pageType, ok := domain.ParsePageType(query.Get("page"))
	if !ok {
		s.notFound(w, r, "page")
		return
	}

	view := pageView{
		key:     pageType.Query(),
		layout:  s.pageLayout(slug, pageType),
		editing: true,
		live:    true,
	}
	if preview, ok := s.previews.Lookup(slug, pageType); ok {
		if doc, ok := preview.Document(); ok {
			view.layout = func(context.Context) (*layout.Document, error) { return doc, nil }
		}
		view.selected = preview.Selected()
		view.editing = !preview.PreviewMode()
	}

	switch pageType {
	case domain.PageProduct:
		view.product = s.sampleProduct(ctx, slug, query.Get("product"))
	case domain.PageCollection:
		if collectionSlug := strings.TrimSpace(query.Get("collection")); collectionSlug != "" {
			if collection, err := s.storefront.GetCollection(ctx, slug, collectionSlug); err == nil {
				view.collection = collection
			}
		}
	}
	if view.product != nil {
		view.title = view.product.Name
	}
	s.servePage(w, r, slug, view)
}

// sampleProduct picks the product a product layout is previewed with: the
// requested one, or the first product of the store.
func (s *Server) sampleProduct(ctx context.Context, slug, productSlug string) *domain.Product {
	if productSlug = strings.TrimSpace(productSlug); productSlug != "" {
		if product, err := s.storefront.GetProduct(ctx, slug, productSlug); err == nil {
			return product
		}
	}
	page, err := s.storefront.ListProducts(ctx, slug, domain.ProductQuery{Limit: 1})
	if err != nil || page == nil || len(page.Products) == 0 {
		return nil
	}
	first := page.Products[0]
	return &first
}

// bridge joins the page's preview channel over a websocket. Both the editor
// and the preview page connect here.
func (s *Server) bridge(w http.ResponseWriter, r *http.Request) {
	slug := storeParam(r)
	pageType, ok := domain.ParsePageType(r.URL.Query().Get("page"))
	if !ok {
		writeError(w, editor.ErrInvalidPageType)
		return
	}
	preview := s.previews.Session(context.WithoutCancel(r.Context()), slug, pageType)
	if err := s.hub.Serve(w, r, preview.Channel(), preview.Receive); err != nil {
		s.logger.WithContext(r.Context()).Debug("httpserver.bridge_upgrade_failed", "channel", preview.Channel(), "error", err)
	}
}
