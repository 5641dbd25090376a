package text

import "fmt"

// MaxSuffixSize is the byte capacity of a track name suffix slot
const MaxSuffixSize = 4

// SuffixedTextItem is a name built from a shared base text (e.g. a cup or
// theme name) and a short suffix of its own, such as "MARIO CIRCUIT" + " 1".
// Base and suffix are capped independently by their own slots.
type SuffixedTextItem struct {
	base   *TextItem
	suffix *TextItem
}

// NewSuffixedTextItem composes a base item and a suffix item
func NewSuffixedTextItem(base, suffix *TextItem) *SuffixedTextItem {
	return &SuffixedTextItem{base: base, suffix: suffix}
}

// Base returns the shared base text item
func (s *SuffixedTextItem) Base() *TextItem {
	return s.base
}

// SetBase points the name at another base text item
func (s *SuffixedTextItem) SetBase(base *TextItem) error {
	if base == nil {
		return fmt.Errorf("base text item is required")
	}
	s.base = base
	return nil
}

// Suffix returns the suffix item
func (s *SuffixedTextItem) Suffix() *TextItem {
	return s.suffix
}

// SetSuffix stores a new suffix text
func (s *SuffixedTextItem) SetSuffix(value string) error {
	return s.suffix.SetValue(value)
}

func (s *SuffixedTextItem) String() string {
	return s.base.Value() + s.suffix.Value()
}
