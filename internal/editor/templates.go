package editor

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
)

var ErrTemplateNotFound = errors.New("editor: template not found")

//go:embed templates/*.md
var builtinTemplates embed.FS

// Template is a starter layout an editor can begin a page from.
type Template struct {
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	PageType    domain.PageType  `json:"pageType"`
	Description string           `json:"description,omitempty"`
	Document    *layout.Document `json:"document"`
}

type templateMeta struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	PageType    string `yaml:"page_type"`
	Description string `yaml:"description"`
}

// Templates is a read-only library of starter layouts.
type Templates struct {
	items []Template
}

// BuiltinTemplates loads the templates shipped with the package.
func BuiltinTemplates() (*Templates, error) {
	return LoadTemplates(builtinTemplates, "templates")
}

// LoadTemplates reads every .md file under dir. Each file carries YAML
// front matter followed by a layout document in JSON.
func LoadTemplates(fsys fs.FS, dir string) (*Templates, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("editor: read templates: %w", err)
	}
	out := &Templates{}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".md" {
			continue
		}
		source, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("editor: read template %s: %w", entry.Name(), err)
		}
		tpl, err := ParseTemplate(source)
		if err != nil {
			return nil, fmt.Errorf("editor: template %s: %w", entry.Name(), err)
		}
		if tpl.Slug == "" {
			tpl.Slug = strings.TrimSuffix(entry.Name(), ".md")
		}
		out.items = append(out.items, tpl)
	}
	slices.SortFunc(out.items, func(a, b Template) int {
		if c := strings.Compare(string(a.PageType), string(b.PageType)); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
	return out, nil
}

// ParseTemplate decodes a single template file.
func ParseTemplate(source []byte) (Template, error) {
	var meta templateMeta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return Template{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	if strings.TrimSpace(meta.Name) == "" {
		return Template{}, errors.New("name is required")
	}
	pageType, ok := domain.ParsePageType(meta.PageType)
	if !ok {
		return Template{}, fmt.Errorf("unknown page type %q", meta.PageType)
	}
	doc, ok := layout.NormalizeJSON(bytes.TrimSpace(body))
	if !ok {
		return Template{}, errors.New("body is not a layout document")
	}
	return Template{
		Slug:        strings.TrimSpace(meta.Slug),
		Name:        strings.TrimSpace(meta.Name),
		PageType:    pageType,
		Description: strings.TrimSpace(meta.Description),
		Document:    doc,
	}, nil
}

// List returns the templates for pageType, or all of them when pageType is
// empty.
func (t *Templates) List(pageType domain.PageType) []Template {
	if t == nil {
		return nil
	}
	out := make([]Template, 0, len(t.items))
	for _, tpl := range t.items {
		if pageType != "" && tpl.PageType != pageType {
			continue
		}
		tpl.Document = tpl.Document.Clone()
		out = append(out, tpl)
	}
	return out
}

// Get returns the template with slug.
func (t *Templates) Get(slug string) (Template, error) {
	if t != nil {
		for _, tpl := range t.items {
			if tpl.Slug == slug {
				tpl.Document = tpl.Document.Clone()
				return tpl, nil
			}
		}
	}
	return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, slug)
}
