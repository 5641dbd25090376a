package text

import (
	"fmt"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/offsets"
)

// Layout describes where and how a text collection is stored
type Layout struct {
	Field     offsets.Field
	Groups    int // 1 for ungrouped collections
	Rows      int // items per group
	JapSize   int // total bytes on Jap cartridges
	OtherSize int // total bytes on US and Euro cartridges
	Subst     func(offsets.Region) []Substitution
}

// SuffixCount is the number of track name suffix slots, one per track
const SuffixCount = 24

// Course select texts hold the group names followed by the theme names
const (
	CourseSelectGroups = 5
	CourseSelectThemes = 8
)

func thinSpace(offsets.Region) []Substitution {
	return []Substitution{{Bytes: []byte{0x2C}, Char: ThinSpace}}
}

func podium(region offsets.Region) []Substitution {
	if region == offsets.RegionJap {
		return []Substitution{
			{Bytes: []byte{0x8B}, Char: 'J'},
			{Bytes: []byte{0x8C}, Char: 'R'},
			{Bytes: []byte{0x8D}, Char: '\n'},
		}
	}
	return []Substitution{{Bytes: []byte{0xAD}, Char: '\n'}}
}

// Layouts lists the text collections of the game settings
var Layouts = []Layout{
	{Field: offsets.FieldModeNames, Groups: 1, Rows: 3, JapSize: 48, OtherSize: 66},
	{Field: offsets.FieldGPCupSelectTexts, Groups: 1, Rows: 4, OtherSize: 130},
	{Field: offsets.FieldGPResultsCupTexts, Groups: 1, Rows: 4, JapSize: 70, OtherSize: 90},
	{Field: offsets.FieldGPPodiumCupTexts, Groups: 5, Rows: 2, JapSize: 68, OtherSize: 80, Subst: podium},
	{Field: offsets.FieldCourseSelectTexts, Groups: 1, Rows: CourseSelectGroups + CourseSelectThemes, JapSize: 144, OtherSize: 173, Subst: thinSpace},
	{Field: offsets.FieldDriverNamesGPResults, Groups: 1, Rows: 8, JapSize: 136, OtherSize: 134},
	{Field: offsets.FieldDriverNamesGPPodium, Groups: 1, Rows: 8, JapSize: 96, OtherSize: 112},
	{Field: offsets.FieldDriverNamesTimeTrial, Groups: 1, Rows: 8, JapSize: 42, OtherSize: 52, Subst: thinSpace},
}

// LayoutOf returns the layout of a text field
func LayoutOf(field offsets.Field) (Layout, error) {
	for _, l := range Layouts {
		if l.Field == field {
			return l, nil
		}
	}
	return Layout{}, fmt.Errorf("%w: %v is not a text collection", romerrors.ErrUnknownField, field)
}

// Name returns the collection name
func (l Layout) Name() string {
	return l.Field.String()
}

// Count returns the number of items
func (l Layout) Count() int {
	return l.Groups * l.Rows
}

// TotalSize returns the byte size of the collection in a region, 0 when
// the region has no such collection
func (l Layout) TotalSize(region offsets.Region) int {
	if region == offsets.RegionJap {
		return l.JapSize
	}
	return l.OtherSize
}

// SlotSize returns the byte capacity of each item in a region
func (l Layout) SlotSize(region offsets.Region) int {
	return l.TotalSize(region) / l.Count()
}

// Converter returns the converter of the collection for a region
func (l Layout) Converter(region offsets.Region) *Converter {
	if l.Subst == nil {
		return NewConverter(region)
	}
	return NewConverter(region, l.Subst(region)...)
}

// Read loads the collection from an image. It returns nil, nil when the
// region has no such collection.
func (l Layout) Read(data []byte, table *offsets.Table) (*TextCollection, error) {
	region := table.Region()
	if !table.Has(l.Field) || l.TotalSize(region) == 0 {
		return nil, nil
	}
	offset, err := table.Resolve(l.Field)
	if err != nil {
		return nil, err
	}
	conv := l.Converter(region)
	if l.Groups > 1 {
		return NewGroupedTextCollection(l.Name(), data, offset, l.Groups, l.Rows, l.TotalSize(region), conv)
	}
	return NewTextCollection(l.Name(), data, offset, l.Count(), l.TotalSize(region), conv)
}

// ReadSuffixes loads the track name suffixes from an image
func ReadSuffixes(data []byte, table *offsets.Table) (*TextCollection, error) {
	offset, err := table.Resolve(offsets.FieldTrackNameSuffixes)
	if err != nil {
		return nil, err
	}
	return NewFreeTextCollection(offsets.FieldTrackNameSuffixes.String(), data, offset, SuffixCount, MaxSuffixSize, NewConverter(table.Region()))
}
