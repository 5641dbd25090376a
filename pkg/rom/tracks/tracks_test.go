package tracks

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
	"github.com/kartedit/kartedit/pkg/rom/offsets"
	"github.com/kartedit/kartedit/pkg/rom/romtest"
	"github.com/kartedit/kartedit/pkg/rom/text"
	"github.com/kartedit/kartedit/pkg/rom/tracks/ai"
	"github.com/kartedit/kartedit/pkg/rom/tracks/objects"
)

type fixture struct {
	data   []byte
	ctx    Context
	tracks []*Track
}

func newFixture(t *testing.T, region offsets.Region) *fixture {
	t.Helper()
	data := romtest.Image(t, region)
	table, err := offsets.NewTable(region)
	if err != nil {
		t.Fatal(err)
	}

	layout, err := text.LayoutOf(offsets.FieldCourseSelectTexts)
	if err != nil {
		t.Fatal(err)
	}
	names, err := layout.Read(data, table)
	if err != nil {
		t.Fatal(err)
	}
	suffixes, err := text.ReadSuffixes(data, table)
	if err != nil {
		t.Fatal(err)
	}
	themes := NewThemes(names.Items()[text.CourseSelectGroups:])

	f := &fixture{
		data: data,
		ctx:  Context{Table: table, Themes: themes, Names: names, Suffixes: suffixes},
	}
	bank := table.MustResolve(offsets.FieldAIData)
	for i := 0; i < Count; i++ {
		offset := binary.LittleEndian.Uint16(data[table.MustResolve(offsets.FieldAIOffsets)+i*2:])
		track, err := Read(data, i, data[bank+int(offset):], f.ctx)
		if err != nil {
			t.Fatalf("Read(%d): %v", i, err)
		}
		f.tracks = append(f.tracks, track)
	}
	return f
}

func TestReadAndSaveRoundTrip(t *testing.T) {
	for _, region := range offsets.Regions {
		t.Run(region.String(), func(t *testing.T) {
			f := newFixture(t, region)
			out := bytes.Clone(f.data)
			for _, track := range f.tracks {
				if err := track.Save(out); err != nil {
					t.Fatalf("Save(%d): %v", track.Index(), err)
				}
				if track.Modified() {
					t.Errorf("track %d modified after load", track.Index())
				}
			}
			if !bytes.Equal(out, f.data) {
				t.Error("saving unmodified tracks changed the image")
			}
		})
	}
}

func TestReadValues(t *testing.T) {
	f := newFixture(t, offsets.RegionUS)

	track := f.tracks[7]
	if track.Kind() != KindGrandPrix {
		t.Fatalf("track 7 kind = %v", track.Kind())
	}
	if track.Theme().ID() != romtest.ThemeOf(7) {
		t.Errorf("theme = %d, want %d", track.Theme().ID(), romtest.ThemeOf(7))
	}
	wantName := romtest.Texts[offsets.FieldCourseSelectTexts][text.CourseSelectGroups+romtest.ThemeOf(7)] + romtest.Suffix(7)
	if track.Name().String() != wantName {
		t.Errorf("name = %q, want %q", track.Name().String(), wantName)
	}
	if tile, _ := track.Map().Tile(3, 4); tile != romtest.MapTile(7, 3, 4) {
		t.Errorf("tile = %d, want %d", tile, romtest.MapTile(7, 3, 4))
	}
	if !bytes.Equal(track.AI().Bytes(), romtest.AIBlock(7)) {
		t.Errorf("AI = % X", track.AI().Bytes())
	}
	if track.OverlayTiles().Len() != 2 {
		t.Errorf("overlay tiles = %d, want 2", track.OverlayTiles().Len())
	}

	gp, ok := track.GrandPrix()
	if !ok {
		t.Fatal("track 7 has no GP data")
	}
	if gp.StartPosition() != (GPStartPosition{X: 156, Y: 228, SecondRowOffset: -7}) {
		t.Errorf("start = %+v", gp.StartPosition())
	}
	if gp.LapLine() != (LapLine{X: 103, Y: 180, Length: 64}) {
		t.Errorf("lap line = %+v", gp.LapLine())
	}
	if gp.ItemProbabilityIndex() != 7 {
		t.Errorf("item probability = %d", gp.ItemProbabilityIndex())
	}
	if gp.Objects().Direction(16) != objects.DirectionHorizontal || gp.Objects().Direction(17) != objects.DirectionVertical {
		t.Error("match-race directions not read")
	}

	battle, ok := f.tracks[21].Battle()
	if !ok {
		t.Fatal("track 21 has no battle data")
	}
	if battle.StartPositionP1() != (BattleStartPosition{X: 308, Y: 400}) || battle.StartPositionP2() != (BattleStartPosition{X: 500, Y: 601}) {
		t.Errorf("battle start = %+v %+v", battle.StartPositionP1(), battle.StartPositionP2())
	}
	if _, ok := f.tracks[21].GrandPrix(); ok {
		t.Error("battle track has GP data")
	}
}

func TestReadInvalidIndex(t *testing.T) {
	f := newFixture(t, offsets.RegionUS)
	if _, err := Read(f.data, Count, romtest.AIBlock(0), f.ctx); !errors.Is(err, romerrors.ErrInvalidTrackIndex) {
		t.Errorf("expected ErrInvalidTrackIndex, got %v", err)
	}
}

func TestModificationTracking(t *testing.T) {
	f := newFixture(t, offsets.RegionEuro)
	track := f.tracks[2]

	var changes []event.Change
	track.Feed().Subscribe(func(c event.Change) { changes = append(changes, c) })

	if err := track.Map().SetTile(0, 0, 0xAA); err != nil {
		t.Fatal(err)
	}
	e, _ := track.AI().Element(0)
	if err := e.SetSpeed(3); err != nil {
		t.Fatal(err)
	}
	gp, _ := track.GrandPrix()
	if err := gp.Objects().SetPosition(0, ai.Point{X: 1, Y: 1}); err != nil {
		t.Fatal(err)
	}
	if err := gp.SetItemProbabilityIndex(ItemProbabilityCount); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}

	wantFields := []string{"Map", "AI", "Objects"}
	if len(changes) != len(wantFields) {
		t.Fatalf("changes = %+v", changes)
	}
	for i, c := range changes {
		if c.Source != "track/2" || c.Field != wantFields[i] {
			t.Errorf("change %d = %+v, want track/2 %s", i, c, wantFields[i])
		}
	}
	if !track.Modified() || !track.AIModified() {
		t.Error("track should be modified")
	}

	out := bytes.Clone(f.data)
	if err := track.Save(out); err != nil {
		t.Fatal(err)
	}
	mapStart := f.ctx.Table.MustResolve(offsets.FieldTrackMaps) + 2*MapLength
	if out[mapStart] != 0xAA {
		t.Errorf("saved tile = %X", out[mapStart])
	}

	track.ResetModifiedState()
	if track.Modified() || track.AIModified() {
		t.Error("ResetModifiedState did not clear the flags")
	}
}

func TestSetThemeAndName(t *testing.T) {
	f := newFixture(t, offsets.RegionUS)
	track := f.tracks[0]

	theme, _ := f.ctx.Themes.Get(5)
	if err := track.SetTheme(theme); err != nil {
		t.Fatal(err)
	}
	if err := track.SetTheme(NewTheme(5, nil)); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("foreign theme: expected ErrOutOfRange, got %v", err)
	}
	if err := track.SetNameIndex(text.CourseSelectGroups + 5); err != nil {
		t.Fatal(err)
	}

	out := bytes.Clone(f.data)
	if err := track.Save(out); err != nil {
		t.Fatal(err)
	}
	if got := out[f.ctx.Table.MustResolve(offsets.FieldTrackThemes)]; got != 5<<1 {
		t.Errorf("theme byte = %X", got)
	}
	if got := out[f.ctx.Table.MustResolve(offsets.FieldTrackNames)]; got != byte(text.CourseSelectGroups+5) {
		t.Errorf("name byte = %X", got)
	}
}

func TestImportMKT(t *testing.T) {
	f := newFixture(t, offsets.RegionUS)
	dir := t.TempDir()
	mapData := bytes.Repeat([]byte{0x42}, MapLength)

	t.Run("map only", func(t *testing.T) {
		track := f.tracks[0]
		themeBefore := track.Theme()
		path := filepath.Join(dir, "maponly.mkt")
		if err := os.WriteFile(path, mapData, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := track.Import(path); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(track.Map().Bytes(), mapData) {
			t.Error("map not imported")
		}
		if track.Theme() != themeBefore {
			t.Error("map-only import changed the theme")
		}
	})

	t.Run("with theme", func(t *testing.T) {
		track := f.tracks[1]
		path := filepath.Join(dir, "THEMED.MKT")
		if err := os.WriteFile(path, append(bytes.Clone(mapData), 6<<1), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := track.Import(path); err != nil {
			t.Fatal(err)
		}
		if track.Theme().ID() != 6 {
			t.Errorf("theme = %d, want 6", track.Theme().ID())
		}
	})

	for _, size := range []int{0, MapLength - 1, MapLength + 2} {
		track := f.tracks[2]
		before := track.Map().Bytes()
		path := filepath.Join(dir, "bad.mkt")
		if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
		err := track.Import(path)
		if !errors.Is(err, romerrors.ErrInvalidFormat) {
			t.Errorf("size %d: expected ErrInvalidFormat, got %v", size, err)
		}
		if err != nil && !strings.Contains(err.Error(), "bad.mkt") {
			t.Errorf("error %q does not name the file", err)
		}
		if !bytes.Equal(track.Map().Bytes(), before) || track.Modified() {
			t.Errorf("size %d: failed import changed the track", size)
		}
	}
}

func TestExportMKT(t *testing.T) {
	f := newFixture(t, offsets.RegionJap)
	dir := t.TempDir()
	track := f.tracks[3]

	full := filepath.Join(dir, "full.mkt")
	if err := track.Export(full); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != MKTSize || int(data[MapLength]) != romtest.ThemeOf(3)<<1 {
		t.Errorf("full export: %d bytes, theme byte %X", len(data), data[len(data)-1])
	}

	mapOnly := filepath.Join(dir, "map.mkt")
	if err := track.ExportMapOnly(mapOnly); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(mapOnly)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, track.Map().Bytes()) {
		t.Error("map-only export is not the map")
	}
}

func TestSMKCRoundTrip(t *testing.T) {
	f := newFixture(t, offsets.RegionUS)
	dir := t.TempDir()

	tests := []struct {
		name     string
		from, to int
	}{
		{"gp", 4, 11},
		{"battle", 20, 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := f.tracks[tt.from], f.tracks[tt.to]
			path := filepath.Join(dir, tt.name+".smkc")
			if err := src.Export(path); err != nil {
				t.Fatal(err)
			}
			if err := dst.Import(path); err != nil {
				t.Fatal(err)
			}

			if !bytes.Equal(dst.Map().Bytes(), src.Map().Bytes()) {
				t.Error("map differs")
			}
			if !bytes.Equal(dst.AI().Bytes(), src.AI().Bytes()) {
				t.Error("AI differs")
			}
			if !bytes.Equal(dst.OverlayTiles().Bytes(), src.OverlayTiles().Bytes()) {
				t.Error("overlay differs")
			}
			if dst.Theme() != src.Theme() {
				t.Error("theme differs")
			}

			if srcGP, ok := src.GrandPrix(); ok {
				dstGP, _ := dst.GrandPrix()
				if dstGP.StartPosition() != srcGP.StartPosition() || dstGP.LapLine() != srcGP.LapLine() {
					t.Error("start data differs")
				}
				if dstGP.ItemProbabilityIndex() != srcGP.ItemProbabilityIndex() {
					t.Error("item probability differs")
				}
				if !bytes.Equal(dstGP.Objects().Bytes(), srcGP.Objects().Bytes()) {
					t.Error("objects differ")
				}
				if !bytes.Equal(dstGP.Objects().Areas().Bytes(), srcGP.Objects().Areas().Bytes()) {
					t.Error("object areas differ")
				}
			}
			if srcBattle, ok := src.Battle(); ok {
				dstBattle, _ := dst.Battle()
				if dstBattle.StartPositionP1() != srcBattle.StartPositionP1() || dstBattle.StartPositionP2() != srcBattle.StartPositionP2() {
					t.Error("battle start differs")
				}
			}
		})
	}
}

func TestSMKCImportIsAllOrNothing(t *testing.T) {
	f := newFixture(t, offsets.RegionUS)
	src, dst := f.tracks[0], f.tracks[1]

	mt := src.MakeTrack()
	mt.SetData(KeyAI, []byte{0x01, 0x0B}, 0) // unknown shape
	mapBefore := dst.Map().Bytes()
	if err := dst.LoadFrom(mt); !errors.Is(err, romerrors.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if !bytes.Equal(dst.Map().Bytes(), mapBefore) || dst.Modified() {
		t.Error("failed import changed the track")
	}

	mt = src.MakeTrack()
	mt.SetInt(KeyItemProbability, 12)
	if err := dst.LoadFrom(mt); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if dst.Modified() {
		t.Error("failed import changed the track")
	}

	mt = NewMakeTrack()
	mt.SetInt(KeyTheme, 1)
	if err := dst.LoadFrom(mt); !errors.Is(err, romerrors.ErrInvalidFormat) {
		t.Errorf("missing map: expected ErrInvalidFormat, got %v", err)
	}
}

func TestTrackLogging(t *testing.T) {
	f := newFixture(t, offsets.RegionUS)
	var out bytes.Buffer
	ctx := f.ctx
	ctx.Logger = hclog.New(&hclog.LoggerOptions{Name: "tracks", Level: hclog.Trace, Output: &out})

	table := ctx.Table
	bank := table.MustResolve(offsets.FieldAIData)
	offset := binary.LittleEndian.Uint16(f.data[table.MustResolve(offsets.FieldAIOffsets)+2*2:])
	track, err := Read(f.data, 2, f.data[bank+int(offset):], ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := track.ImportMKT("short.mkt", make([]byte, 3)); err == nil {
		t.Fatal("expected an error for a short MKT")
	}
	mt := track.MakeTrack()
	mt.SetInt(KeyItemProbability, 12)
	if err := track.LoadFrom(mt); err == nil {
		t.Fatal("expected an error for a bad item probability")
	}
	e, err := track.AI().Element(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SetSpeed((e.Speed() + 1) % 4); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"Reading track", "AI decoded", "Objects read", "Track read",
		"MKT file rejected", "Track data rejected", "AI changed", "Track modified",
		"track=2",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("log has no %q:\n%s", want, out.String())
		}
	}
}

func TestMakeTrackParse(t *testing.T) {
	input := strings.Join([]string{
		"#SP_STX 512",
		"#UNKNOWN_KEY some value",
		"not a field line",
		"#OVERLAY",
		"#00010203",
		"#0405",
		"#EE_THEME 0x03",
		"#COMMENT_BLOCK",
		"",
	}, "\r\n")

	mt, err := ParseMakeTrack(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	wantKeys := []string{"SP_STX", "UNKNOWN_KEY", "OVERLAY", "EE_THEME", "COMMENT_BLOCK"}
	if strings.Join(mt.Keys(), ",") != strings.Join(wantKeys, ",") {
		t.Errorf("Keys() = %v", mt.Keys())
	}
	if v, _ := mt.Int(KeyStartX); v != 512 {
		t.Errorf("SP_STX = %d", v)
	}
	if v, _ := mt.Int(KeyTheme); v != 3 {
		t.Errorf("EE_THEME = %d", v)
	}
	data, err := mt.Data(KeyOverlay)
	if err != nil || !bytes.Equal(data, []byte{0, 1, 2, 3, 4, 5}) {
		t.Errorf("OVERLAY = % X, %v", data, err)
	}
	if v, ok := mt.Value("UNKNOWN_KEY"); !ok || v != "some value" {
		t.Errorf("UNKNOWN_KEY = %q", v)
	}
	if _, err := mt.Int("UNKNOWN_KEY"); !errors.Is(err, romerrors.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
	if _, err := mt.Data(KeyMap); !errors.Is(err, romerrors.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}

	var out bytes.Buffer
	if _, err := mt.WriteTo(&out); err != nil {
		t.Fatal(err)
	}
	reparsed, err := ParseMakeTrack(&out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(reparsed.Keys(), ",") != strings.Join(wantKeys, ",") {
		t.Errorf("keys after rewrite = %v", reparsed.Keys())
	}
	if v, _ := reparsed.Value("UNKNOWN_KEY"); v != "some value" {
		t.Errorf("unknown key value lost: %q", v)
	}
}

func TestOverlayTiles(t *testing.T) {
	data := bytes.Repeat([]byte{0xFF}, OverlaySize)
	copy(data, []byte{3, 10, 20, 55, 127, 0})
	data[100] = 0x12 // bytes past the end marker are kept as read

	o, err := NewOverlayTiles(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []OverlayTile{{3, 10, 20}, {55, 127, 0}}
	got := o.Tiles()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Tiles() = %+v", got)
	}
	if !bytes.Equal(o.Bytes(), data) {
		t.Error("unedited overlay changed")
	}

	if err := o.Add(OverlayTile{Pattern: OverlayPatternCount, X: 0, Y: 0}); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := o.Remove(0); err != nil {
		t.Fatal(err)
	}
	encoded := o.Bytes()
	if !bytes.Equal(encoded[:4], []byte{55, 127, 0, 0xFF}) || encoded[100] != 0xFF {
		t.Errorf("Bytes() = % X", encoded[:8])
	}

	o.Clear()
	for i := 0; i < MaxOverlayTiles; i++ {
		if err := o.Add(OverlayTile{Pattern: i % OverlayPatternCount, X: i, Y: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := o.Add(OverlayTile{}); !errors.Is(err, romerrors.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
	reread, err := NewOverlayTiles(o.Bytes())
	if err != nil || reread.Len() != MaxOverlayTiles {
		t.Errorf("reread %d tiles, %v", reread.Len(), err)
	}

	bad := bytes.Repeat([]byte{0xFF}, OverlaySize)
	bad[0] = OverlayPatternCount
	if _, err := NewOverlayTiles(bad); !errors.Is(err, romerrors.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
	if _, err := NewOverlayTiles(make([]byte, 10)); !errors.Is(err, romerrors.ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestStartData(t *testing.T) {
	l := LapLine{X: 0x1234 % MapPixels, Y: 500, Length: 40}
	if got := UnpackLapLine(l.Pack()); got != l {
		t.Errorf("lap line round trip = %+v", got)
	}

	p1, p2 := BattleStartPosition{X: 1, Y: 2}, BattleStartPosition{X: 1000, Y: 1023}
	g1, g2 := UnpackBattleStart(PackBattleStart(p1, p2))
	if g1 != p1 || g2 != p2 {
		t.Errorf("battle start round trip = %+v %+v", g1, g2)
	}

	if err := (GPStartPosition{X: MapPixels, Y: 0}).Validate(); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := (GPStartPosition{X: 0, Y: 0, SecondRowOffset: 200}).Validate(); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := (LapLine{X: 1000, Y: 0, Length: 100}).Validate(); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}
