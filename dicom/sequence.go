package dicom

import (
	"fmt"
	"strings"

	"github.com/codeninja55/dcmkit/dicom/value"
	"github.com/codeninja55/dcmkit/dicom/vr"
)

// Sequence represents the value of an SQ Data Element: an ordered list of
// nested Data Sets (Items).
//
// A Sequence implements value.Value so it can be carried as an element's
// value like any other VR, but its items are full DataSets rather than a
// flat byte buffer — sequences never re-encode themselves as bytes, since
// this module is read-only.
//
// Lifecycle mirrors DataSet: mutable while being built by the parser,
// sealed (along with every item it holds) once the enclosing element has
// been fully read.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
type Sequence struct {
	items  []*DataSet
	sealed bool
}

// NewSequence creates a new empty, mutable Sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Append adds an item (a Data Set) to the end of the sequence. The
// sequence takes ownership of item. Fails with ErrSealed once the
// sequence has been locked.
func (s *Sequence) Append(item *DataSet) error {
	if s.sealed {
		return fmt.Errorf("%w: cannot append item to sealed sequence", ErrSealed)
	}
	if item == nil {
		return fmt.Errorf("cannot append nil item")
	}
	s.items = append(s.items, item)
	return nil
}

// Get returns the item at the given 0-based index.
func (s *Sequence) Get(index int) (*DataSet, error) {
	if index < 0 || index >= len(s.items) {
		return nil, fmt.Errorf("%w: item index %d out of range [0,%d)", ErrInvalidIndex, index, len(s.items))
	}
	return s.items[index], nil
}

// Items returns every item in the sequence, in order. The returned slice
// shares storage with the sequence and must not be mutated.
func (s *Sequence) Items() []*DataSet {
	return s.items
}

// Count returns the number of items in the sequence.
func (s *Sequence) Count() int {
	return len(s.items)
}

// Lock seals the sequence and, transitively, every item it holds. One-way,
// like DataSet.Lock.
func (s *Sequence) Lock() {
	s.sealed = true
	for _, item := range s.items {
		item.Lock()
	}
}

// Sealed reports whether the sequence has been locked.
func (s *Sequence) Sealed() bool {
	return s.sealed
}

// VR always returns vr.SequenceOfItems; Sequence implements value.Value.
func (s *Sequence) VR() vr.VR {
	return vr.SequenceOfItems
}

// Bytes returns nil: a Sequence's structure cannot be flattened to a byte
// buffer without a writer, which this module does not implement.
func (s *Sequence) Bytes() []byte {
	return nil
}

// String returns a human-readable, recursively indented walk of the
// sequence's items.
func (s *Sequence) String() string {
	var sb strings.Builder
	if len(s.items) == 1 {
		sb.WriteString("Sequence with 1 item:\n")
	} else {
		fmt.Fprintf(&sb, "Sequence with %d items:\n", len(s.items))
	}
	for i, item := range s.items {
		fmt.Fprintf(&sb, "  Item %d:\n", i+1)
		for _, elem := range item.Elements() {
			sb.WriteString("    ")
			sb.WriteString(elem.String())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Equals reports whether other is a *Sequence holding item-for-item
// identical Data Sets (same tags, same values, same order).
func (s *Sequence) Equals(other value.Value) bool {
	o, ok := other.(*Sequence)
	if !ok || len(o.items) != len(s.items) {
		return false
	}
	for i, item := range s.items {
		otherItem := o.items[i]
		if item.Len() != otherItem.Len() {
			return false
		}
		for _, t := range item.Tags() {
			a, _ := item.Get(t)
			b, err := otherItem.Get(t)
			if err != nil || !a.Equals(b) {
				return false
			}
		}
	}
	return true
}
