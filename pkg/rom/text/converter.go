// Package text converts between the cartridge character encoding and
// editable strings, and manages the fixed-size text slots of the image.
package text

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/offsets"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Placeholder is what Decode produces for bytes with no known character
const Placeholder = utf8.RuneError

// ThinSpace is the character some menus use for their narrow space byte
const ThinSpace = '\u2009'

// Substitution maps a byte sequence to a character for one collection.
// Substitutions take precedence over the region character table.
type Substitution struct {
	Bytes []byte
	Char  rune
}

// Converter encodes and decodes text for one region and substitution set
type Converter struct {
	region        offsets.Region
	decodeTable   map[byte]rune
	encodeTable   map[rune][]byte
	substitutions []Substitution
}

// NewConverter creates a converter for a region with optional substitutions
func NewConverter(region offsets.Region, substitutions ...Substitution) *Converter {
	c := &Converter{
		region:        region,
		decodeTable:   charset(region),
		encodeTable:   make(map[rune][]byte),
		substitutions: substitutions,
	}

	// A table byte that starts a substitution would decode as the substitution
	shadowed := make(map[byte]bool)
	for _, sub := range substitutions {
		if len(sub.Bytes) > 0 {
			shadowed[sub.Bytes[0]] = true
		}
	}

	for code, r := range c.decodeTable {
		if !shadowed[code] {
			c.encodeTable[r] = []byte{code}
		}
	}
	for i, r := range punctuation {
		if _, ok := c.encodeTable[r]; !ok {
			c.encodeTable[r] = []byte{Escape, byte(i)}
		}
	}
	// Substitutions win over everything else when encoding too
	for _, sub := range substitutions {
		c.encodeTable[sub.Char] = sub.Bytes
	}

	return c
}

// Region returns the converter's region
func (c *Converter) Region() offsets.Region {
	return c.region
}

// Decode converts encoded bytes to a string. Decoding stops at the first
// Terminator or at the end of data. Unknown bytes become Placeholder.
func (c *Converter) Decode(data []byte) string {
	var sb strings.Builder

	for i := 0; i < len(data); {
		b := data[i]
		if b == Terminator {
			break
		}

		if r, n := c.matchSubstitution(data[i:]); n > 0 {
			sb.WriteRune(r)
			i += n
			continue
		}

		if b == Escape && i+1 < len(data) && int(data[i+1]) < len(punctuation) {
			sb.WriteRune(punctuation[data[i+1]])
			i += 2
			continue
		}

		if r, ok := c.decodeTable[b]; ok {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(Placeholder)
		}
		i++
	}

	return sb.String()
}

func (c *Converter) matchSubstitution(data []byte) (rune, int) {
	for _, sub := range c.substitutions {
		if len(sub.Bytes) > 0 && bytes.HasPrefix(data, sub.Bytes) {
			return sub.Char, len(sub.Bytes)
		}
	}
	return 0, 0
}

// Normalize returns the form of s that Encode actually maps:
// composed (NFC) and width-folded, so full-width Latin letters and
// half-width katakana are accepted.
func (c *Converter) Normalize(s string) string {
	return width.Fold.String(norm.NFC.String(s))
}

// Encode converts a string to encoded bytes, without terminator
func (c *Converter) Encode(s string) ([]byte, error) {
	s = c.Normalize(s)
	encoded := make([]byte, 0, len(s))

	for _, r := range s {
		code, ok := c.encodeTable[r]
		if !ok {
			return nil, fmt.Errorf("%w: %q (region %s)", romerrors.ErrUnsupportedCharacter, r, c.region)
		}
		encoded = append(encoded, code...)
	}

	return encoded, nil
}

// EncodeSlot encodes s into a slot of exactly size bytes, padded with
// Terminator. It fails with ErrTooLong if the text does not fit.
func (c *Converter) EncodeSlot(s string, size int) ([]byte, error) {
	encoded, err := c.Encode(s)
	if err != nil {
		return nil, err
	}
	if len(encoded) > size {
		return nil, fmt.Errorf("%w: %q needs %d bytes, slot holds %d", romerrors.ErrTooLong, s, len(encoded), size)
	}

	slot := bytes.Repeat([]byte{Terminator}, size)
	copy(slot, encoded)
	return slot, nil
}

// Supports reports whether every character of s can be encoded
func (c *Converter) Supports(s string) bool {
	_, err := c.Encode(s)
	return err == nil
}
