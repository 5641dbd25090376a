// Package offsets resolves named cartridge image structures to absolute
// addresses. Each region has its own table, loaded from the embedded
// offsets.ini.
package offsets

import (
	_ "embed"
	"fmt"
	"strconv"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"gopkg.in/ini.v1"
)

//go:embed offsets.ini
var defaultOffsets []byte

// Table maps fields to absolute addresses for one region.
// It is immutable once built.
type Table struct {
	region    Region
	addresses map[Field]int
}

// NewTable builds the offset table of a region from the embedded definitions
func NewTable(region Region) (*Table, error) {
	return NewTableFromSource(region, defaultOffsets)
}

// NewTableFromSource builds the offset table of a region from an INI source
// (file name, []byte or io.Reader, as accepted by ini.LoadSources).
// Every field the region supports must be present.
func NewTableFromSource(region Region, source interface{}) (*Table, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{InsensitiveSections: true}, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load offset definitions: %w", err)
	}

	section, err := cfg.GetSection(region.String())
	if err != nil {
		return nil, fmt.Errorf("%w: no offsets for region %s", romerrors.ErrUnknownField, region)
	}

	t := &Table{
		region:    region,
		addresses: make(map[Field]int, fieldCount),
	}

	for _, field := range Fields() {
		if !region.Supports(field) {
			continue
		}

		key, err := section.GetKey(field.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %s (region %s)", romerrors.ErrUnknownField, field, region)
		}

		address, err := strconv.ParseInt(key.String(), 0, 32)
		if err != nil || address < 0 {
			return nil, fmt.Errorf("invalid address %q for %s (region %s)", key.String(), field, region)
		}
		t.addresses[field] = int(address)
	}

	return t, nil
}

// Region returns the region the table was built for
func (t *Table) Region() Region {
	return t.region
}

// Resolve returns the absolute address of a field
func (t *Table) Resolve(f Field) (int, error) {
	address, ok := t.addresses[f]
	if !ok {
		return 0, fmt.Errorf("%w: %s (region %s)", romerrors.ErrUnknownField, f, t.region)
	}
	return address, nil
}

// Has reports whether the field is defined for the table's region
func (t *Table) Has(f Field) bool {
	_, ok := t.addresses[f]
	return ok
}

// MustResolve returns the address of a field the region is known to support.
// Construction already guarantees those resolve, so a miss is a programming error.
func (t *Table) MustResolve(f Field) int {
	address, err := t.Resolve(f)
	if err != nil {
		panic(err)
	}
	return address
}
