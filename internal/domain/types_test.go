package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePageType(t *testing.T) {
	cases := map[string]PageType{"": PageHome, "home": PageHome, " Product ": PageProduct, "CUSTOM": PageCustom}
	for in, want := range cases {
		got, ok := ParsePageType(in)
		if !ok || got != want {
			t.Fatalf("ParsePageType(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := ParsePageType("account"); ok {
		t.Fatal("expected account to be rejected")
	}
}

func TestPageTypeForms(t *testing.T) {
	if PageCollection.Query() != "collection" {
		t.Fatalf("unexpected query form %q", PageCollection.Query())
	}
	if PageHome.DisplayName() != "Home Page" {
		t.Fatalf("unexpected display name %q", PageHome.DisplayName())
	}
}

func TestCartItemLineTotal(t *testing.T) {
	item := CartItem{Price: decimal.RequireFromString("19.99"), Quantity: 3}
	if !item.LineTotal().Equal(decimal.RequireFromString("59.97")) {
		t.Fatalf("unexpected total %s", item.LineTotal())
	}
}

func TestProductOnSale(t *testing.T) {
	compare := decimal.NewFromInt(30)
	p := Product{Price: decimal.NewFromInt(20), CompareAtPrice: &compare}
	if !p.OnSale() {
		t.Fatal("expected product to be on sale")
	}
	p.Price = decimal.NewFromInt(40)
	if p.OnSale() {
		t.Fatal("expected product not on sale")
	}
}
