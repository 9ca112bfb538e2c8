package layout

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goliatone/go-storefront/pkg/testsupport"
)

func TestNormalizeLegacyFixtureMatchesGolden(t *testing.T) {
	raw, err := testsupport.LoadFixture(filepath.Join("testdata", "legacy_home.json"))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	got, ok := NormalizeJSON(raw)
	if !ok {
		t.Fatal("expected legacy fixture to normalize")
	}

	var want Document
	if err := testsupport.LoadGolden(filepath.Join("testdata", "legacy_home.golden.json"), &want); err != nil {
		t.Fatalf("load golden: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("normalized layout mismatch\n got: %+v\nwant: %+v", *got, want)
	}
}
