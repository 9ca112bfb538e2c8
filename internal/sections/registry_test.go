package sections

import (
	"errors"
	"testing"

	"github.com/goliatone/go-storefront/internal/validation"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{in: "HeroBanner", want: KindHeroBanner, ok: true},
		{in: "hero-banner", want: KindHeroBanner, ok: true},
		{in: "hero_banner", want: KindHeroBanner, ok: true},
		{in: " Product Main ", want: KindProductMain, ok: true},
		{in: "AppBlock", want: KindAppBlock, ok: true},
		{in: "Carousel", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := ParseKind(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseKind(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRegistryListsEveryKind(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	defs := registry.List()
	if len(defs) != len(Kinds) {
		t.Fatalf("expected %d definitions, got %d", len(Kinds), len(defs))
	}
	for i, def := range defs {
		if def.Kind != Kinds[i] {
			t.Fatalf("definition %d: expected %s, got %s", i, Kinds[i], def.Kind)
		}
		if def.Component == "" || def.Label == "" {
			t.Fatalf("definition %s missing component or label", def.Kind)
		}
	}

	seen := map[Kind]bool{}
	for _, category := range registry.Categories() {
		for _, kind := range category.Kinds {
			seen[kind] = true
		}
	}
	if len(seen) != len(Kinds) {
		t.Fatalf("expected every kind in a category, got %d", len(seen))
	}
}

func TestRegistryLookupReturnsCopies(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	def, ok := registry.Lookup("ProductGrid")
	if !ok {
		t.Fatalf("expected ProductGrid definition")
	}
	def.Defaults["limit"] = 99

	again, _ := registry.Lookup("product-grid")
	if again.Defaults["limit"] != 8 {
		t.Fatalf("expected defaults to be isolated, got %v", again.Defaults["limit"])
	}
	if again.Label != "Product Grid" {
		t.Fatalf("unexpected label %q", again.Label)
	}
}

func TestRegistryApplyDefaults(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	props := map[string]any{"id": "hero-1", "title": "Hello", "height": nil}
	got := registry.ApplyDefaults(KindHeroBanner, props)

	if got["title"] != "Hello" {
		t.Fatalf("expected explicit title to win, got %v", got["title"])
	}
	if got["height"] != "large" {
		t.Fatalf("expected nil height to take the default, got %v", got["height"])
	}
	if got["cta_text"] != "Shop Now" || got["id"] != "hero-1" {
		t.Fatalf("unexpected props %#v", got)
	}
	if _, ok := props["cta_text"]; ok {
		t.Fatalf("expected input props to stay untouched")
	}
}

func TestRegistryNewInstance(t *testing.T) {
	t.Parallel()

	registry := NewRegistry().WithIDGenerator(func() string { return "abc" })
	component, err := registry.NewInstance(KindNewsletter)
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}
	if component.Type != "Newsletter" || component.ID() != "Newsletter-abc" {
		t.Fatalf("unexpected component %+v", component)
	}
	if component.Props["button_text"] != "Subscribe" {
		t.Fatalf("expected defaults on new instance, got %#v", component.Props)
	}

	if _, err := registry.NewInstance(Kind("carousel")); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRegistryRegisterOverridesDefinition(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	def, _ := registry.Definition(KindNewsletter)
	def.Label = "Mailing List"
	def.Defaults["button_text"] = "Join"
	if err := registry.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, _ := registry.Definition(KindNewsletter)
	if got.Label != "Mailing List" || got.Defaults["button_text"] != "Join" {
		t.Fatalf("expected override, got %+v", got)
	}

	if err := registry.Register(Definition{Kind: "carousel", Label: "Carousel"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if err := registry.Register(Definition{Kind: KindFooter}); !errors.Is(err, ErrDefinitionInvalid) {
		t.Fatalf("expected ErrDefinitionInvalid, got %v", err)
	}
}

func TestRegistryValidate(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	if err := registry.Validate(KindProductGrid, map[string]any{
		"id":         "grid-1",
		"limit":      12,
		"columns":    4,
		"show_price": true,
		"title":      nil,
	}); err != nil {
		t.Fatalf("expected valid props, got %v", err)
	}

	err := registry.Validate(KindProductGrid, map[string]any{"limit": 40, "columns": 7})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	if issues := validation.Issues(err); len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", issues)
	}

	err = registry.Validate(KindTestimonials, map[string]any{
		"testimonials": []any{map[string]any{"author": "A", "rating": 9}},
	})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected nested rating to fail, got %v", err)
	}

	if err := registry.Validate(Kind("carousel"), nil); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestSchemaShape(t *testing.T) {
	t.Parallel()

	schema, ok := NewRegistry().Schema(KindHeroBanner)
	if !ok {
		t.Fatalf("expected schema")
	}
	properties := schema["properties"].(map[string]any)
	opacity := properties["overlay_opacity"].(map[string]any)
	if opacity["type"] != "number" || opacity["minimum"] != 0.0 || opacity["maximum"] != 1.0 {
		t.Fatalf("unexpected overlay schema %#v", opacity)
	}
	height := properties["height"].(map[string]any)
	if values := height["enum"].([]any); len(values) != 4 {
		t.Fatalf("unexpected height enum %#v", values)
	}
}

func TestDecodePropsWeakTyping(t *testing.T) {
	t.Parallel()

	props, err := DecodeProps[ProductGridProps](map[string]any{
		"limit":      "6",
		"columns":    float64(3),
		"show_price": "true",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if props.Limit != 6 || props.Columns != 3 || !props.ShowPrice {
		t.Fatalf("unexpected props %+v", props)
	}
}
