package setindex

import (
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/glossameta/internal/domain"
	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/dataset"
	"github.com/kailas-cloud/glossameta/internal/domain/idset"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
)

func testSchema(t *testing.T) category.Schema {
	t.Helper()
	mk := func(key string, kind category.Kind) category.Category {
		c, err := category.New(key, "", kind, "")
		if err != nil {
			t.Fatalf("category %q: %v", key, err)
		}
		return c
	}
	s, err := category.NewSchema("tid", "place", []category.Category{
		mk("sex", category.Discrete),
		mk("age", category.Interval),
		mk("place", category.Geo),
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func testIndex(t *testing.T, rows [][]string) *Index {
	t.Helper()
	ds, err := dataset.New("tid", []string{"tid", "sex", "age", "place"}, rows)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	ix, err := Build(ds, testSchema(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return ix
}

func threeRecords(t *testing.T) *Index {
	t.Helper()
	return testIndex(t, [][]string{
		{"r1", "m", "20", "oslo"},
		{"r2", "f", "25", "bergen"},
		{"r3", "m", "30", "oslo"},
	})
}

func selectIDs(t *testing.T, ix *Index, sel selection.Selection) []string {
	t.Helper()
	set, err := ix.Select(sel)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	return ix.Records(set)
}

func TestBuild_CategoryIndex(t *testing.T) {
	ix := threeRecords(t)

	sex, ok := ix.CategoryIndex("sex")
	if !ok {
		t.Fatal("sex not indexed")
	}
	if got := ix.Records(sex[category.String("m")]); !slices.Equal(got, []string{"r1", "r3"}) {
		t.Errorf("sex=m -> %v", got)
	}
	if got := ix.Records(sex[category.String("f")]); !slices.Equal(got, []string{"r2"}) {
		t.Errorf("sex=f -> %v", got)
	}
	if ix.Len() != 3 {
		t.Errorf("Len() = %d", ix.Len())
	}
}

func TestBuild_SkipsEmptyCellsAndMapsNull(t *testing.T) {
	ix := testIndex(t, [][]string{
		{"r1", "m", "", "oslo"},
		{"r2", "", "null", ""},
	})

	if !ix.HasNull("age") {
		t.Error("expected null key in age")
	}
	if ix.HasNull("sex") {
		t.Error("empty cell must not become null")
	}
	sex, _ := ix.CategoryIndex("sex")
	if len(sex) != 1 {
		t.Errorf("sex values = %d, want 1", len(sex))
	}
	if _, ok := ix.LocationOf("r2"); ok {
		t.Error("r2 has no location")
	}
}

func TestBuild_CustomNullToken(t *testing.T) {
	ds, err := dataset.New("tid", []string{"tid", "sex", "age", "place"}, [][]string{
		{"r1", "NA", "null", "oslo"},
	})
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	ix, err := Build(ds, testSchema(t), WithNullToken("NA"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !ix.HasNull("sex") {
		t.Error("NA should map to null")
	}
	if ix.HasNull("age") {
		t.Error("literal null should be a plain value with a custom token")
	}
}

func TestBuild_MissingColumn(t *testing.T) {
	ds, err := dataset.New("tid", []string{"tid", "sex"}, [][]string{{"r1", "m"}})
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	_, err = Build(ds, testSchema(t))
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestBuild_LocationReverseMap(t *testing.T) {
	ix := threeRecords(t)
	loc, ok := ix.LocationOf("r2")
	if !ok || loc != "bergen" {
		t.Errorf("LocationOf(r2) = %q, %v", loc, ok)
	}
	if got := ix.Locations(ix.Universe()); !slices.Equal(got, []string{"bergen", "oslo"}) {
		t.Errorf("Locations(universe) = %v", got)
	}
}

func TestNumericKeys(t *testing.T) {
	ix := testIndex(t, [][]string{
		{"r1", "m", "30", "oslo"},
		{"r2", "f", "007", "oslo"},
		{"r3", "f", "5", "oslo"},
		{"r4", "f", "old", "oslo"},
		{"r5", "f", "null", "oslo"},
	})
	if got := ix.NumericKeys("age"); !slices.Equal(got, []int{5, 30}) {
		t.Errorf("NumericKeys(age) = %v", got)
	}
}

func TestSelect_EmptySelection(t *testing.T) {
	ix := threeRecords(t)
	if got := selectIDs(t, ix, selection.New()); len(got) != 0 {
		t.Errorf("empty selection -> %v, want none", got)
	}
}

func TestSelect_PresentButEmptyCategoryZeroesResult(t *testing.T) {
	ix := threeRecords(t)
	sel := selection.New().
		AddValue("sex", category.String("m")).
		Reset("place")
	if got := selectIDs(t, ix, sel); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestSelect_AbsentCategoryIsSkipped(t *testing.T) {
	ix := threeRecords(t)
	sel := selection.New().AddValue("sex", category.String("f"))
	if got := selectIDs(t, ix, sel); !slices.Equal(got, []string{"r2"}) {
		t.Errorf("got %v", got)
	}
}

func TestSelect_UnknownValueContributesNothing(t *testing.T) {
	ix := threeRecords(t)
	sel := selection.New().
		AddValue("sex", category.String("x")).
		AddValue("sex", category.String("f"))
	if got := selectIDs(t, ix, sel); !slices.Equal(got, []string{"r2"}) {
		t.Errorf("got %v", got)
	}
}

func TestSelect_UnknownCategory(t *testing.T) {
	ix := threeRecords(t)
	_, err := ix.Select(selection.New().AddValue("height", category.String("180")))
	if !errors.Is(err, domain.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestSelect_AllValuesIsUniverse(t *testing.T) {
	ix := testIndex(t, [][]string{
		{"r1", "m", "20", "oslo"},
		{"r2", "f", "null", "bergen"},
		{"r3", "m", "30", "oslo"},
		{"r4", "f", "41", "tromso"},
	})

	sel := selection.New()
	for _, key := range []string{"sex", "age", "place"} {
		values, _ := ix.CategoryIndex(key)
		for v := range values {
			sel = sel.AddValue(key, v)
		}
	}

	got, err := ix.Select(sel)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !got.Equal(ix.Universe()) {
		t.Errorf("got %v, want universe", ix.Records(got))
	}
}

func TestSelect_RangeWithNullFlag(t *testing.T) {
	ix := testIndex(t, [][]string{
		{"r1", "m", "20", "oslo"},
		{"r2", "f", "null", "bergen"},
		{"r3", "m", "30", "oslo"},
		{"r4", "f", "25", "tromso"},
	})

	withoutNull := selection.New().SetRange("age", 20, 25, ix)
	if got := selectIDs(t, ix, withoutNull); !slices.Equal(got, []string{"r1", "r4"}) {
		t.Errorf("without null: %v", got)
	}

	withNull := selection.New().AddValue("age", category.Null).SetRange("age", 20, 25, ix)
	if got := selectIDs(t, ix, withNull); !slices.Equal(got, []string{"r1", "r2", "r4"}) {
		t.Errorf("with null: %v", got)
	}
}

func TestSelect_EndToEnd(t *testing.T) {
	ix := threeRecords(t)

	sel := selection.New().AddValue("sex", category.String("m"))
	if got := selectIDs(t, ix, sel); !slices.Equal(got, []string{"r1", "r3"}) {
		t.Fatalf("sex=m -> %v", got)
	}

	sel = sel.AddValue("sex", category.String("f"))
	if got := selectIDs(t, ix, sel); !slices.Equal(got, []string{"r1", "r2", "r3"}) {
		t.Fatalf("sex=m|f -> %v", got)
	}

	sel = sel.SetRange("age", 20, 25, ix)
	if got := selectIDs(t, ix, sel); !slices.Equal(got, []string{"r1", "r2"}) {
		t.Fatalf("age 20..25 -> %v", got)
	}
}

func TestLocations_OfSubset(t *testing.T) {
	ix := threeRecords(t)
	if got := ix.Locations(idset.Of(0, 2)); !slices.Equal(got, []string{"oslo"}) {
		t.Errorf("Locations = %v", got)
	}
}

func TestValues_SortedWithoutNull(t *testing.T) {
	ix := testIndex(t, [][]string{
		{"r1", "m", "20", "oslo"},
		{"r2", "f", "null", "bergen"},
		{"r3", "null", "30", "oslo"},
	})
	got := ix.Values("sex")
	want := []category.Value{category.String("f"), category.String("m")}
	if !slices.Equal(got, want) {
		t.Errorf("Values(sex) = %v", got)
	}
}
