package category

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/glossameta/internal/domain"
)

func mustCategory(t *testing.T, key string, kind Kind) Category {
	t.Helper()
	c, err := New(key, "", kind, "")
	if err != nil {
		t.Fatalf("New(%q): %v", key, err)
	}
	return c
}

func TestNew_Defaults(t *testing.T) {
	c, err := New("age", "", Interval, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.DisplayName() != "age" {
		t.Errorf("DisplayName() = %q, want %q", c.DisplayName(), "age")
	}
	if c.SourceColumn() != "age" {
		t.Errorf("SourceColumn() = %q, want %q", c.SourceColumn(), "age")
	}
	if c.Kind() != Interval {
		t.Errorf("Kind() = %q", c.Kind())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		kind Kind
		want string
	}{
		{"empty key", "", Discrete, "key is required"},
		{"long key", strings.Repeat("k", 65), Discrete, "too long"},
		{"bad kind", "sex", Kind("fuzzy"), "invalid kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.key, "", tt.kind, "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestNewSchema_Valid(t *testing.T) {
	s, err := NewSchema("tid", "place", []Category{
		mustCategory(t, "sex", Discrete),
		mustCategory(t, "age", Interval),
		mustCategory(t, "place", Geo),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Has("age") || s.Has("height") {
		t.Error("Has() mismatch")
	}
	c, ok := s.Category("place")
	if !ok || c.Kind() != Geo {
		t.Errorf("Category(place) = %+v, %v", c, ok)
	}
	if s.IDColumn() != "tid" || s.LocationCategory() != "place" {
		t.Errorf("IDColumn/LocationCategory = %q/%q", s.IDColumn(), s.LocationCategory())
	}
	if got := len(s.Categories()); got != 3 {
		t.Errorf("len(Categories()) = %d", got)
	}
}

func TestNewSchema_Invalid(t *testing.T) {
	sex := mustCategory(t, "sex", Discrete)
	tidCol, _ := New("ident", "", Discrete, "tid")

	tests := []struct {
		name     string
		idColumn string
		location string
		cats     []Category
	}{
		{"no id column", "", "", []Category{sex}},
		{"no categories", "tid", "", nil},
		{"duplicate", "tid", "", []Category{sex, sex}},
		{"undeclared location", "tid", "place", []Category{sex}},
		{"reads id column", "tid", "", []Category{tidCol}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.idColumn, tt.location, tt.cats)
			if !errors.Is(err, domain.ErrInvalidSchema) {
				t.Fatalf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestValue_JSON(t *testing.T) {
	data, err := json.Marshal([]Value{String("m"), Null})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["m",null]` {
		t.Errorf("marshal = %s", data)
	}

	var got []Value
	if err := json.Unmarshal([]byte(`[null,"f"]`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || !got[0].IsNull() || got[1] != String("f") {
		t.Errorf("unmarshal = %v", got)
	}
}

func TestValue_NullDistinctFromLiteral(t *testing.T) {
	if Null == String("null") {
		t.Error("Null must not equal the literal string value")
	}
	if Null.String() != "null" {
		t.Errorf("Null.String() = %q", Null.String())
	}
}
