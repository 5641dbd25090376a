// Package romtest builds synthetic cartridge images for tests. Every image
// is canonical: saving it unmodified reproduces it byte for byte.
package romtest

import (
	"encoding/binary"
	"testing"

	"github.com/kartedit/kartedit/pkg/rom/offsets"
	"github.com/kartedit/kartedit/pkg/rom/text"
)

const (
	ImageSize        = 0x80000
	CopierHeaderSize = 512

	Title = "SUPER MARIO KART"

	headerAddress  = 0x7FC0
	titleSize      = 21
	countryOffset  = 0x19
	checksumOffset = 0x1C

	trackCount  = 24
	gpCount     = 20
	mapLength   = 128 * 128
	overlaySize = 128
	aiBankSize  = 0x4000
)

// Texts are the values written to each text collection, in item order
var Texts = map[offsets.Field][]string{
	offsets.FieldModeNames:         {"MARIO GP", "MATCH RACE", "BATTLE MODE"},
	offsets.FieldGPCupSelectTexts:  {"MUSHROOM CUP", "FLOWER CUP", "STAR CUP", "SPECIAL CUP"},
	offsets.FieldGPResultsCupTexts: {"MUSHROOM CUP", "FLOWER CUP", "STAR CUP", "SPECIAL CUP"},
	offsets.FieldGPPodiumCupTexts: {
		"MUSH", "CUP", "FLOWER", "CUP", "STAR", "CUP", "SPECL", "CUP", "BATTLE", "CUP",
	},
	offsets.FieldCourseSelectTexts: {
		"MUSHROOM", "FLOWER", "STAR", "SPECIAL", "BATTLE",
		"GHOST", "MARIO", "DONUT", "CHOCO", "VANILLA", "KOOPA", "BOWSER", "RAINBOW",
	},
	offsets.FieldDriverNamesGPResults: {"MARIO", "LUIGI", "BOWSER", "PRINCESS", "DONKEY KONG JR", "KOOPA", "TOAD", "YOSHI"},
	offsets.FieldDriverNamesGPPodium:  {"MARIO", "LUIGI", "BOWSER", "PRINCESS", "DK JR", "KOOPA", "TOAD", "YOSHI"},
	offsets.FieldDriverNamesTimeTrial: {"MARIO", "LUIGI", "BOWSR", "PEACH", "DK JR", "KOOPA", "TOAD", "YOSHI"},
}

// RankPoints are the points written for places 1 to 8
var RankPoints = []uint16{9, 6, 3, 1, 0, 0, 0, 0}

// ThemeOf returns the theme id of a track in the images
func ThemeOf(track int) int {
	return track % 8
}

// Suffix returns the name suffix of a track in the images
func Suffix(track int) string {
	if track < gpCount {
		return " " + string(rune('1'+track%5))
	}
	return " " + string(rune('1'+track-gpCount))
}

// AIBlock returns the AI block of a track in the images: a rectangle and a
// triangle element
func AIBlock(track int) []byte {
	return []byte{
		0x02,
		0x00, byte(track), 0x02, 0x04, 0x03,
		byte(0x02 + 2*(track%4)), 0x0A, 0x0A, 0x02,
		byte(2*track + 1), 0x05, byte(track % 4),
		0x15, 0x15, 0x80,
	}
}

// MapTile returns the map tile at x, y of a track in the images
func MapTile(track, x, y int) byte {
	return byte(x + y*3 + track)
}

// Image builds a canonical image for a region
func Image(t testing.TB, region offsets.Region) []byte {
	t.Helper()
	table, err := offsets.NewTable(region)
	if err != nil {
		t.Fatalf("offset table: %v", err)
	}

	data := make([]byte, ImageSize)
	at := table.MustResolve

	// Header
	title := make([]byte, titleSize)
	copy(title, Title)
	for i := len(Title); i < titleSize; i++ {
		title[i] = ' '
	}
	copy(data[headerAddress:], title)
	data[headerAddress+countryOffset] = byte(region.CountryCode())

	// Texts
	for _, layout := range text.Layouts {
		if !table.Has(layout.Field) {
			continue
		}
		conv := text.NewConverter(region)
		slot := layout.SlotSize(region)
		base := at(layout.Field)
		for i, value := range Texts[layout.Field] {
			encoded, err := conv.EncodeSlot(value, slot)
			if err != nil {
				t.Fatalf("%v[%d]: %v", layout.Field, i, err)
			}
			copy(data[base+i*slot:], encoded)
		}
	}

	conv := text.NewConverter(region)
	aiBank := at(offsets.FieldAIData)
	for i := aiBank; i < aiBank+aiBankSize; i++ {
		data[i] = 0xFF
	}
	aiOffset := 0

	for track := 0; track < trackCount; track++ {
		data[at(offsets.FieldTrackThemes)+track] = byte(ThemeOf(track) << 1)
		data[at(offsets.FieldTrackNames)+track] = byte(text.CourseSelectGroups + ThemeOf(track))

		suffix, err := conv.EncodeSlot(Suffix(track), text.MaxSuffixSize)
		if err != nil {
			t.Fatalf("suffix %d: %v", track, err)
		}
		copy(data[at(offsets.FieldTrackNameSuffixes)+track*text.MaxSuffixSize:], suffix)

		tiles := data[at(offsets.FieldTrackMaps)+track*mapLength:]
		for y := 0; y < 128; y++ {
			for x := 0; x < 128; x++ {
				tiles[y*128+x] = MapTile(track, x, y)
			}
		}

		overlay := data[at(offsets.FieldOverlayTiles)+track*overlaySize : at(offsets.FieldOverlayTiles)+(track+1)*overlaySize]
		for i := range overlay {
			overlay[i] = 0xFF
		}
		copy(overlay, []byte{byte(track % 56), 10, 20, byte((track + 1) % 56), 30, 40})

		block := AIBlock(track)
		binary.LittleEndian.PutUint16(data[at(offsets.FieldAIOffsets)+track*2:], uint16(aiOffset))
		copy(data[aiBank+aiOffset:], block)
		aiOffset += len(block)

		if track < gpCount {
			writeGrandPrix(data, at, track)
		} else {
			battle := data[at(offsets.FieldBattleStartPositions)+(track-gpCount)*8:]
			j := track - gpCount
			binary.LittleEndian.PutUint16(battle[0:], uint16(300+j*8))
			binary.LittleEndian.PutUint16(battle[2:], 400)
			binary.LittleEndian.PutUint16(battle[4:], 500)
			binary.LittleEndian.PutUint16(battle[6:], uint16(600+j))
		}
	}

	for i, points := range RankPoints {
		binary.LittleEndian.PutUint16(data[at(offsets.FieldRankPoints)+i*2:], points)
	}

	UpdateChecksum(data)
	return data
}

func writeGrandPrix(data []byte, at func(offsets.Field) int, track int) {
	start := data[at(offsets.FieldGPStartPositions)+track*4:]
	binary.LittleEndian.PutUint16(start[0:], uint16(100+track*8))
	binary.LittleEndian.PutUint16(start[2:], uint16(200+track*4))
	data[at(offsets.FieldGPSecondRowOffsets)+track] = byte(int8(-track))

	lapLine := data[at(offsets.FieldLapLines)+track*6:]
	binary.LittleEndian.PutUint16(lapLine[0:], uint16(96+track))
	binary.LittleEndian.PutUint16(lapLine[2:], 180)
	binary.LittleEndian.PutUint16(lapLine[4:], 64)

	data[at(offsets.FieldItemProbabilityIndexes)+track] = byte(track % 10)

	objects := data[at(offsets.FieldTrackObjects)+track*44:]
	for slot := 0; slot < 22; slot++ {
		objects[slot*2] = byte((slot*5 + track) % 128)
		objects[slot*2+1] = byte((slot * 7) % 128)
	}
	objects[16*2] |= 0x80
	objects[17*2+1] |= 0x80

	copy(data[at(offsets.FieldObjectAreas)+track*8:], []byte{1, 2, 2, 2, 0, 1, 2, 2})
}

// UpdateChecksum writes the SNES checksum and its complement into the header
func UpdateChecksum(data []byte) {
	header := data[headerAddress:]
	binary.LittleEndian.PutUint16(header[checksumOffset:], 0xFFFF)
	binary.LittleEndian.PutUint16(header[checksumOffset+2:], 0)
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	binary.LittleEndian.PutUint16(header[checksumOffset:], ^sum)
	binary.LittleEndian.PutUint16(header[checksumOffset+2:], sum)
}

// WithCopierHeader prepends a copier header to an image
func WithCopierHeader(data []byte) []byte {
	header := make([]byte, CopierHeaderSize)
	for i := range header {
		header[i] = byte(i)
	}
	return append(header, data...)
}
