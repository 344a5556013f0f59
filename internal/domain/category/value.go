package category

import "encoding/json"

// Value is a metadata value: either a string or null ("value not present").
// It is comparable and safe to use as a map key.
type Value struct {
	s    string
	null bool
}

// Null is the value recorded for cells holding the dataset's null token.
var Null = Value{null: true}

// String creates a non-null value.
func String(s string) Value { return Value{s: s} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.null }

// String returns the raw string; "null" for the null value.
func (v Value) String() string {
	if v.null {
		return "null"
	}
	return v.s
}

// MarshalJSON encodes null as JSON null and everything else as a string.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.null {
		return []byte("null"), nil
	}
	return json.Marshal(v.s)
}

// UnmarshalJSON accepts a JSON string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Null
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err //nolint:wrapcheck // json errors carry their own context
	}
	*v = String(s)
	return nil
}
