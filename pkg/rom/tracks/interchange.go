package tracks

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/tracks/ai"
	"github.com/kartedit/kartedit/pkg/rom/tracks/objects"
)

// MKT files hold a map, optionally followed by the theme byte
const (
	MKTMapOnlySize = MapLength
	MKTSize        = MapLength + 1
)

// IsMKT reports whether path has the .mkt extension
func IsMKT(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mkt")
}

// Import replaces the track content with a .mkt or SMKC file. The track
// is left untouched if the file cannot be fully read and validated.
func (t *Track) Import(path string) error {
	logger := t.logger()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read track file: %w", err)
	}
	logger.Debug("📥 Importing track file", "path", path, "size", len(data), "mkt", IsMKT(path))
	if IsMKT(path) {
		return t.ImportMKT(filepath.Base(path), data)
	}
	mt, err := ParseMakeTrack(bytes.NewReader(data))
	if err != nil {
		logger.Debug("❌ SMKC file rejected", "path", path, "error", err)
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	logger.Trace("🔍 Parsed SMKC file", "keys", len(mt.Keys()))
	if err := t.LoadFrom(mt); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// ImportMKT loads MKT content. name only labels errors.
func (t *Track) ImportMKT(name string, data []byte) error {
	logger := t.logger()
	if len(data) != MKTMapOnlySize && len(data) != MKTSize {
		logger.Debug("❌ MKT file rejected", "file", name, "size", len(data))
		return romerrors.NewFormatError(name, len(data), MKTMapOnlySize, MKTSize)
	}

	theme := t.theme
	if len(data) == MKTSize {
		var err error
		if theme, err = t.ctx.Themes.Get(int(data[MapLength] >> 1)); err != nil {
			logger.Debug("❌ MKT theme rejected", "file", name, "themeByte", data[MapLength])
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if err := t.tileMap.SetBytes(data[:MapLength]); err != nil {
		return err
	}
	if err := t.SetTheme(theme); err != nil {
		return err
	}
	logger.Debug("✅ MKT imported", "file", name, "withTheme", len(data) == MKTSize, "theme", theme.ID())
	return nil
}

// Export writes the track to a .mkt or SMKC file
func (t *Track) Export(path string) error {
	var data []byte
	if IsMKT(path) {
		var err error
		if data, err = t.MKT(); err != nil {
			return err
		}
	} else {
		var buf bytes.Buffer
		if _, err := t.MakeTrack().WriteTo(&buf); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	if err := writeFile(path, data); err != nil {
		return err
	}
	t.logger().Debug("📤 Exported track", "path", path, "size", len(data), "mkt", IsMKT(path))
	return nil
}

// ExportMapOnly writes the map alone as a .mkt file
func (t *Track) ExportMapOnly(path string) error {
	if err := writeFile(path, t.tileMap.Bytes()); err != nil {
		return err
	}
	t.logger().Debug("📤 Exported track map", "path", path, "size", MapLength)
	return nil
}

// MKT returns the map followed by the theme byte
func (t *Track) MKT() ([]byte, error) {
	id, err := t.ctx.Themes.IDOf(t.theme)
	if err != nil {
		return nil, err
	}
	return append(t.tileMap.Bytes(), t.themeByte(id)), nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write track file: %w", err)
	}
	return nil
}

// MakeTrack returns the track content as a MakeTrack
func (t *Track) MakeTrack() *MakeTrack {
	mt := NewMakeTrack()
	t.variant.writeTo(mt)
	if id, err := t.ctx.Themes.IDOf(t.theme); err == nil {
		mt.SetInt(KeyTheme, id)
	}
	mt.SetData(KeyMap, t.tileMap.Bytes(), MapSize)
	mt.SetData(KeyOverlay, t.overlay.Bytes(), 0)
	mt.SetData(KeyAI, t.ai.Bytes(), 0)
	return mt
}

// LoadFrom copies MakeTrack content into the track. Every value is
// decoded and validated first; on error the track is unchanged. Absent
// keys leave the matching track data as is, except the map which is required.
func (t *Track) LoadFrom(mt *MakeTrack) error {
	logger := t.logger()
	logger.Trace("🔍 Validating track data", "keys", len(mt.Keys()))

	apply, err := t.stage(mt)
	if err != nil {
		logger.Debug("❌ Track data rejected", "error", err)
		return err
	}
	apply()
	logger.Debug("✅ Track data loaded", "modified", t.modified)
	return nil
}

// stage decodes and validates every value of mt and returns the function
// that stores them
func (t *Track) stage(mt *MakeTrack) (func(), error) {
	mapData, err := mt.Data(KeyMap)
	if err != nil {
		return nil, err
	}
	if err := romerrors.CheckSize("#"+KeyMap, mapData, MapLength); err != nil {
		return nil, err
	}

	theme := t.theme
	if mt.Has(KeyTheme) {
		id, err := mt.Int(KeyTheme)
		if err != nil {
			return nil, err
		}
		if theme, err = t.ctx.Themes.Get(id); err != nil {
			return nil, err
		}
	}

	var overlayData []byte
	if mt.Has(KeyOverlay) {
		if overlayData, err = mt.Data(KeyOverlay); err != nil {
			return nil, err
		}
		if _, err := decodeOverlay(overlayData); err != nil {
			return nil, err
		}
	}

	var aiData []byte
	if mt.Has(KeyAI) {
		if aiData, err = mt.Data(KeyAI); err != nil {
			return nil, err
		}
		if _, _, err := ai.Decode(aiData); err != nil {
			return nil, err
		}
	}

	applyVariant, err := t.variant.readFrom(mt)
	if err != nil {
		return nil, err
	}

	// Nothing below can fail
	return func() {
		_ = t.tileMap.SetBytes(mapData)
		_ = t.SetTheme(theme)
		if overlayData != nil {
			_ = t.overlay.SetBytes(overlayData)
		}
		if aiData != nil {
			_ = t.ai.Load(aiData)
		}
		applyVariant()
	}, nil
}

func (gp *GrandPrix) writeTo(mt *MakeTrack) {
	mt.SetInt(KeyStartX, gp.start.X)
	mt.SetInt(KeyStartY, gp.start.Y)
	mt.SetInt(KeyStartW, gp.start.SecondRowOffset)
	mt.SetInt(KeyLapLineX, gp.lapLine.X)
	mt.SetInt(KeyLapLineY, gp.lapLine.Y)
	mt.SetInt(KeyLapLineW, gp.lapLine.Length)
	mt.SetInt(KeyItemProbability, gp.itemProba)
	mt.SetData(KeyObjects, gp.objects.Bytes(), 0)
	mt.SetData(KeyObjectAreas, gp.objects.Areas().Bytes(), 0)
}

func (gp *GrandPrix) readFrom(mt *MakeTrack) (func(), error) {
	start := gp.start
	lapLine := gp.lapLine
	itemProba := gp.itemProba

	ints := []struct {
		key string
		dst *int
	}{
		{KeyStartX, &start.X},
		{KeyStartY, &start.Y},
		{KeyStartW, &start.SecondRowOffset},
		{KeyLapLineX, &lapLine.X},
		{KeyLapLineY, &lapLine.Y},
		{KeyLapLineW, &lapLine.Length},
		{KeyItemProbability, &itemProba},
	}
	for _, f := range ints {
		if !mt.Has(f.key) {
			continue
		}
		v, err := mt.Int(f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if err := start.Validate(); err != nil {
		return nil, err
	}
	if err := lapLine.Validate(); err != nil {
		return nil, err
	}
	if itemProba < 0 || itemProba >= ItemProbabilityCount {
		return nil, fmt.Errorf("%w: #%s %d", romerrors.ErrOutOfRange, KeyItemProbability, itemProba)
	}

	objectData, err := optionalData(mt, KeyObjects, objects.Size)
	if err != nil {
		return nil, err
	}
	areaData, err := optionalData(mt, KeyObjectAreas, objects.AreasSize)
	if err != nil {
		return nil, err
	}

	return func() {
		_ = gp.SetStartPosition(start)
		_ = gp.SetLapLine(lapLine)
		_ = gp.SetItemProbabilityIndex(itemProba)
		if objectData != nil {
			_ = gp.objects.SetBytes(objectData)
		}
		if areaData != nil {
			_ = gp.objects.Areas().SetBytes(areaData)
		}
	}, nil
}

func optionalData(mt *MakeTrack, key string, size int) ([]byte, error) {
	if !mt.Has(key) {
		return nil, nil
	}
	data, err := mt.Data(key)
	if err != nil {
		return nil, err
	}
	if err := romerrors.CheckSize("#"+key, data, size); err != nil {
		return nil, err
	}
	return data, nil
}

func (b *Battle) writeTo(mt *MakeTrack) {
	mt.SetInt(KeyBattleP1X, b.p1.X)
	mt.SetInt(KeyBattleP1Y, b.p1.Y)
	mt.SetInt(KeyBattleP2X, b.p2.X)
	mt.SetInt(KeyBattleP2Y, b.p2.Y)
}

func (b *Battle) readFrom(mt *MakeTrack) (func(), error) {
	p1, p2 := b.p1, b.p2
	ints := []struct {
		key string
		dst *int
	}{
		{KeyBattleP1X, &p1.X},
		{KeyBattleP1Y, &p1.Y},
		{KeyBattleP2X, &p2.X},
		{KeyBattleP2Y, &p2.Y},
	}
	for _, f := range ints {
		if !mt.Has(f.key) {
			continue
		}
		v, err := mt.Int(f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	if err := p1.Validate(); err != nil {
		return nil, err
	}
	if err := p2.Validate(); err != nil {
		return nil, err
	}

	return func() {
		_ = b.SetStartPositionP1(p1)
		_ = b.SetStartPositionP2(p2)
	}, nil
}
