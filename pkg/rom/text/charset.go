package text

import "github.com/kartedit/kartedit/pkg/rom/offsets"

const (
	// Terminator ends a text before the end of its slot
	Terminator byte = 0xFF

	// Escape introduces a two-byte punctuation sequence
	Escape byte = 0xFE
)

// Punctuation reached through Escape, indexed by the byte following it
var punctuation = []rune{'.', ',', '!', '?', '\'', '-', '&', ':', '"'}

const (
	digitsStart    = 0x00
	uppercaseStart = 0x0A
	space          = 0x2F
	extendedStart  = 0x30
)

const (
	latinLowercase = "abcdefghijklmnopqrstuvwxyz"
	euroAccented   = "ÄÖÜÉÈÀÇäöüéèàçß"
	japKana        = "アイウエオカキクケコサシスセソタチツテトナニヌネノハヒフヘホマミムメモヤユヨラリルレロワヲン" +
		"ガギグゲゴザジズゼゾダヂヅデドバビブベボパピプペポ" +
		"ーッャュョァィゥェォ"
)

// charset returns the single-byte character table of a region
func charset(region offsets.Region) map[byte]rune {
	table := make(map[byte]rune, 128)

	for i := 0; i < 10; i++ {
		table[byte(digitsStart+i)] = rune('0' + i)
	}
	for i := 0; i < 26; i++ {
		table[byte(uppercaseStart+i)] = rune('A' + i)
	}
	table[space] = ' '

	var extended string
	switch region {
	case offsets.RegionJap:
		extended = japKana
	case offsets.RegionEuro:
		extended = latinLowercase + euroAccented
	default:
		extended = latinLowercase
	}

	code := extendedStart
	for _, r := range extended {
		table[byte(code)] = r
		code++
	}

	return table
}
