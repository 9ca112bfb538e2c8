package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/editor"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/sections"
)

// AdminAPI registers the editor endpoints: the section catalog, layout
// templates and per-page editing sessions.
type AdminAPI struct {
	basePath     string
	editor       *editor.Service
	previews     *editor.Previews
	defaultToken string
}

// AdminOption mutates the AdminAPI configuration.
type AdminOption func(*AdminAPI)

// NewAdminAPI constructs an AdminAPI backed by service.
func NewAdminAPI(service *editor.Service, opts ...AdminOption) *AdminAPI {
	api := &AdminAPI{
		basePath: "/admin/api",
		editor:   service,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/admin/api").
func WithBasePath(path string) AdminOption {
	return func(api *AdminAPI) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = "/" + strings.Trim(trimmed, "/")
		}
	}
}

// WithDefaultToken sets the backend token used when a request carries no
// bearer token.
func WithDefaultToken(token string) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.defaultToken = strings.TrimSpace(token)
		}
	}
}

// WithPreviews closes the live preview along with the editing session.
func WithPreviews(previews *editor.Previews) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.previews = previews
		}
	}
}

// Register attaches the admin endpoints to r.
func (api *AdminAPI) Register(r chi.Router) error {
	if r == nil {
		return fmt.Errorf("httpserver: router is required")
	}
	if api.editor == nil {
		return fmt.Errorf("httpserver: editor service is required")
	}

	r.Route(api.basePath, func(r chi.Router) {
		r.Get("/sections", api.listSections)
		r.Get("/sections/{kind}/schema", api.sectionSchema)
		r.Get("/templates", api.listTemplates)
		r.Get("/layouts", api.listLayouts)

		r.Route("/stores/{store}/layouts/{pageType}", func(r chi.Router) {
			r.Get("/", api.openSession)
			r.Put("/", api.replaceLayout)
			r.Delete("/", api.closeSession)
			r.Post("/edits", api.applyEdit)
			r.Post("/template", api.applyTemplate)
			r.Post("/save", api.saveLayout)
			r.Post("/publish", api.publishLayout)
		})
	})
	return nil
}

type sectionCatalog struct {
	Categories []sections.Category   `json:"categories"`
	Sections   []sections.Definition `json:"sections"`
	Root       []sections.Field      `json:"root"`
}

func (api *AdminAPI) listSections(w http.ResponseWriter, _ *http.Request) {
	registry := api.editor.Registry()
	writeJSON(w, http.StatusOK, sectionCatalog{
		Categories: registry.Categories(),
		Sections:   registry.List(),
		Root:       sections.RootFields,
	})
}

func (api *AdminAPI) sectionSchema(w http.ResponseWriter, r *http.Request) {
	kind, ok := sections.ParseKind(chi.URLParam(r, "kind"))
	var schema map[string]any
	if ok {
		schema, ok = api.editor.Registry().Schema(kind)
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: sections.ErrUnknownKind.Error()})
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (api *AdminAPI) listTemplates(w http.ResponseWriter, r *http.Request) {
	var pageType domain.PageType
	if raw := strings.TrimSpace(r.URL.Query().Get("pageType")); raw != "" {
		parsed, ok := domain.ParsePageType(raw)
		if !ok {
			writeError(w, editor.ErrInvalidPageType)
			return
		}
		pageType = parsed
	}
	templates := api.editor.Templates(pageType)
	if templates == nil {
		templates = []editor.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (api *AdminAPI) listLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := api.editor.Layouts(r.Context(), api.token(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if layouts == nil {
		layouts = []domain.LayoutSummary{}
	}
	writeJSON(w, http.StatusOK, layouts)
}

func (api *AdminAPI) openSession(w http.ResponseWriter, r *http.Request) {
	pageType, ok := pageTypeParam(w, r)
	if !ok {
		return
	}
	session, err := api.editor.Open(r.Context(), api.token(r), storeParam(r), pageType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (api *AdminAPI) replaceLayout(w http.ResponseWriter, r *http.Request) {
	pageType, ok := pageTypeParam(w, r)
	if !ok {
		return
	}
	var raw any
	if err := decodeJSON(r, &raw); err != nil {
		writeError(w, badRequest(err, "invalid JSON body"))
		return
	}
	doc, valid := layout.Normalize(raw)
	if !valid {
		writeError(w, badRequest(errInvalidLayout, errInvalidLayout.Error()))
		return
	}
	snapshot, err := api.editor.Replace(r.Context(), api.token(r), storeParam(r), pageType, doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (api *AdminAPI) applyEdit(w http.ResponseWriter, r *http.Request) {
	pageType, ok := pageTypeParam(w, r)
	if !ok {
		return
	}
	var edit editor.Edit
	if err := decodeJSON(r, &edit); err != nil {
		writeError(w, badRequest(err, "invalid JSON body"))
		return
	}
	snapshot, err := api.editor.Apply(r.Context(), api.token(r), storeParam(r), pageType, edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type applyTemplateRequest struct {
	Template string `json:"template"`
}

func (api *AdminAPI) applyTemplate(w http.ResponseWriter, r *http.Request) {
	pageType, ok := pageTypeParam(w, r)
	if !ok {
		return
	}
	var req applyTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest(err, "invalid JSON body"))
		return
	}
	snapshot, err := api.editor.ApplyTemplate(r.Context(), api.token(r), storeParam(r), pageType, strings.TrimSpace(req.Template))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (api *AdminAPI) saveLayout(w http.ResponseWriter, r *http.Request) {
	pageType, ok := pageTypeParam(w, r)
	if !ok {
		return
	}
	if err := api.editor.Save(r.Context(), api.token(r), storeParam(r), pageType); err != nil {
		writeError(w, err)
		return
	}
	api.writeSnapshot(w, r, pageType)
}

func (api *AdminAPI) publishLayout(w http.ResponseWriter, r *http.Request) {
	pageType, ok := pageTypeParam(w, r)
	if !ok {
		return
	}
	if err := api.editor.Publish(r.Context(), api.token(r), storeParam(r), pageType); err != nil {
		writeError(w, err)
		return
	}
	api.writeSnapshot(w, r, pageType)
}

func (api *AdminAPI) closeSession(w http.ResponseWriter, r *http.Request) {
	pageType, ok := pageTypeParam(w, r)
	if !ok {
		return
	}
	err := api.editor.Close(r.Context(), api.token(r), storeParam(r), pageType)
	if err == nil && api.previews != nil {
		api.previews.Close(storeParam(r), pageType)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) writeSnapshot(w http.ResponseWriter, r *http.Request, pageType domain.PageType) {
	session, ok := api.editor.Lookup(storeParam(r), pageType)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (api *AdminAPI) token(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	return api.defaultToken
}

var errInvalidLayout = errors.New("body is not a layout document")

func pageTypeParam(w http.ResponseWriter, r *http.Request) (domain.PageType, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "pageType"))
	pageType, ok := domain.ParsePageType(raw)
	if !ok || raw == "" {
		writeError(w, editor.ErrInvalidPageType)
		return "", false
	}
	return pageType, true
}
