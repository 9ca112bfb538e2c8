package layout

import (
	"errors"
	"reflect"
	"testing"
)

func TestDocumentLayoutAssignsIDsAndDropsDuplicates(t *testing.T) {
	doc := &Document{Content: []Component{
		{Type: "HeroBanner", Props: map[string]any{"id": "hero"}},
		{Type: "RichText", Props: map[string]any{}},
		{Type: "Footer", Props: map[string]any{"id": "hero"}},
	}}

	l := doc.Layout()
	if !reflect.DeepEqual(l.Order, []string{"hero", "RichText-1"}) {
		t.Fatalf("unexpected order %v", l.Order)
	}
	if l.Sections["hero"].Type != "HeroBanner" {
		t.Fatalf("expected first occurrence kept, got %+v", l.Sections["hero"])
	}
}

func TestLayoutVisibleSkipsDanglingIDs(t *testing.T) {
	l := &Layout{
		Sections: map[string]Section{
			"a": {Type: "rich-text"},
			"c": {Type: "footer"},
		},
		Order: []string{"a", "b", "a"},
	}
	visible := l.Visible()
	if len(visible) != 1 || visible[0].ID != "a" {
		t.Fatalf("expected only section a, got %+v", visible)
	}
}

func TestLayoutConfigured(t *testing.T) {
	var nilLayout *Layout
	if nilLayout.Configured() {
		t.Fatal("nil layout is not configured")
	}
	if (&Layout{Sections: map[string]Section{}}).Configured() {
		t.Fatal("layout without order is not configured")
	}
	if !EmptyDocument().Layout().Configured() {
		t.Fatal("empty document yields a configured empty layout")
	}
}

func TestLayoutDocumentRoundTrip(t *testing.T) {
	l := &Layout{
		Sections: map[string]Section{"x": {Type: "Newsletter", Settings: map[string]any{"title": "Join"}}},
		Order:    []string{"x"},
	}
	doc := l.Document()
	if len(doc.Content) != 1 || doc.Content[0].ID() != "x" || doc.Content[0].Props["title"] != "Join" {
		t.Fatalf("unexpected document %+v", doc.Content)
	}
}

func TestDocumentMutations(t *testing.T) {
	doc := EmptyDocument()
	for _, id := range []string{"a", "b", "c"} {
		if err := doc.Insert(len(doc.Content), Component{Type: "RichText", Props: map[string]any{"id": id}}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if err := doc.Insert(0, Component{Type: "RichText", Props: map[string]any{"id": "a"}}); !errors.Is(err, ErrDuplicateSectionID) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := doc.Insert(0, Component{Type: "RichText", Props: map[string]any{}}); !errors.Is(err, ErrMissingSectionID) {
		t.Fatalf("expected missing id error, got %v", err)
	}
	if err := doc.Move("c", 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := doc.Remove("b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := doc.Update("a", map[string]any{"content": "hi", "id": "other"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := doc.Remove("missing"); !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	got := doc.Layout().Order
	if !reflect.DeepEqual(got, []string{"c", "a"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if c, _ := doc.Find("a"); c.Props["content"] != "hi" {
		t.Fatalf("expected updated props, got %+v", c.Props)
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := EmptyDocument()
	_ = doc.Insert(0, Component{Type: "Testimonials", Props: map[string]any{
		"id":           "t",
		"testimonials": []any{map[string]any{"quote": "great"}},
	}})
	clone := doc.Clone()
	clone.Content[0].Props["testimonials"].([]any)[0].(map[string]any)["quote"] = "bad"
	orig := doc.Content[0].Props["testimonials"].([]any)[0].(map[string]any)["quote"]
	if orig != "great" {
		t.Fatalf("clone shares nested state: %v", orig)
	}
}
