// Package idset holds sets of record ordinals backed by Roaring bitmaps.
package idset

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a set of record ordinals. The zero value is an empty set.
// Sets returned by Union and Intersection never alias their inputs.
type Set struct {
	rb *roaring.Bitmap
}

// Of creates a set holding the given ordinals.
func Of(ids ...uint32) Set {
	return Set{rb: roaring.BitmapOf(ids...)}
}

// Add inserts an ordinal. Adding an existing ordinal is a no-op.
func (s *Set) Add(id uint32) {
	if s.rb == nil {
		s.rb = roaring.New()
	}
	s.rb.Add(id)
}

// Contains reports whether id is in the set.
func (s Set) Contains(id uint32) bool {
	return s.rb != nil && s.rb.Contains(id)
}

// Len returns the number of ordinals in the set.
func (s Set) Len() int {
	if s.rb == nil {
		return 0
	}
	return int(s.rb.GetCardinality())
}

// IsEmpty reports whether the set has no elements.
func (s Set) IsEmpty() bool {
	return s.rb == nil || s.rb.IsEmpty()
}

// Clone returns a deep copy.
func (s Set) Clone() Set {
	if s.rb == nil {
		return Set{}
	}
	return Set{rb: s.rb.Clone()}
}

// Equal reports whether both sets hold the same ordinals.
func (s Set) Equal(other Set) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return s.IsEmpty() && other.IsEmpty()
	}
	return s.rb.Equals(other.rb)
}

// IDs returns the ordinals in ascending order.
func (s Set) IDs() []uint32 {
	if s.rb == nil {
		return nil
	}
	return s.rb.ToArray()
}

// All iterates the ordinals in ascending order.
func (s Set) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if s.rb == nil {
			return
		}
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Union returns the union of all given sets. No sets yields the empty set.
func Union(sets ...Set) Set {
	out := roaring.New()
	for _, s := range sets {
		if s.rb != nil {
			out.Or(s.rb)
		}
	}
	return Set{rb: out}
}

// Intersection returns the intersection of all given sets.
// No sets yields the empty set, not the universe: callers that build an
// empty list of constraints get no records back.
func Intersection(sets ...Set) Set {
	if len(sets) == 0 {
		return Set{rb: roaring.New()}
	}
	var out *roaring.Bitmap
	for _, s := range sets {
		if s.IsEmpty() {
			return Set{rb: roaring.New()}
		}
		if out == nil {
			out = s.rb.Clone()
			continue
		}
		out.And(s.rb)
	}
	return Set{rb: out}
}
