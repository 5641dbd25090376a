package offsets

import (
	"fmt"
	"strings"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
)

// Region is a localized cartridge variant
type Region int

const (
	RegionJap Region = iota
	RegionUS
	RegionEuro
)

// Regions lists every supported region
var Regions = []Region{RegionJap, RegionUS, RegionEuro}

func (r Region) String() string {
	switch r {
	case RegionJap:
		return "jap"
	case RegionUS:
		return "us"
	case RegionEuro:
		return "euro"
	default:
		return "unknown"
	}
}

// ParseRegion parses a region name as returned by String
func ParseRegion(name string) (Region, error) {
	for _, r := range Regions {
		if strings.EqualFold(name, r.String()) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", romerrors.ErrUnsupportedRegion, name)
}

// RegionFromCountry maps the SNES header country code to a region
func RegionFromCountry(code byte) Region {
	switch code {
	case 0x00:
		return RegionJap
	case 0x01:
		return RegionUS
	default:
		return RegionEuro
	}
}

// CountryCode returns the SNES header country code of the region
func (r Region) CountryCode() byte {
	switch r {
	case RegionJap:
		return 0x00
	case RegionUS:
		return 0x01
	default:
		return 0x02
	}
}

// Supports reports whether the region carries the given field.
// GP cup select texts are drawn as tiles on the Japanese cartridge,
// so they are not editable text there.
func (r Region) Supports(f Field) bool {
	if r == RegionJap && f == FieldGPCupSelectTexts {
		return false
	}
	return true
}
