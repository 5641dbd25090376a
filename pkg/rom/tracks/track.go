// Package tracks holds the track entities of a game: the shared track core,
// its Grand Prix and battle variants, and their file interchange formats.
package tracks

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/kartedit/kartedit/pkg/logging"
	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
	"github.com/kartedit/kartedit/pkg/rom/offsets"
	"github.com/kartedit/kartedit/pkg/rom/text"
	"github.com/kartedit/kartedit/pkg/rom/tracks/ai"
	"github.com/kartedit/kartedit/pkg/rom/tracks/objects"
)

const (
	CupCount     = 4
	TracksPerCup = 5
	GPCount      = CupCount * TracksPerCup
	BattleCount  = 4
	Count        = GPCount + BattleCount

	// GroupCount is the number of track groups: the cups plus the battle group
	GroupCount = CupCount + 1

	themeFlagMask = 0x01
)

// Kind tells the variant of a track
type Kind int

const (
	KindGrandPrix Kind = iota
	KindBattle
)

func (k Kind) String() string {
	if k == KindBattle {
		return "battle"
	}
	return "gp"
}

// Variant is the kind-specific part of a track: *GrandPrix or *Battle
type Variant interface {
	Kind() Kind
	save(data []byte, table *offsets.Table, index int) error
	writeTo(mt *MakeTrack)
	readFrom(mt *MakeTrack) (func(), error)
}

// Context gives a track access to the game data it references
type Context struct {
	Table    *offsets.Table
	Themes   *Themes
	Names    *text.TextCollection // course select texts, track name bases
	Suffixes *text.TextCollection // track name suffixes
	Logger   hclog.Logger         // nil discards
}

// Track is the part shared by every track. Sub-structures notify the track
// of their changes, which marks it modified.
type Track struct {
	index     int
	ctx       Context
	name      *text.SuffixedTextItem
	theme     *Theme
	tileMap   *Map
	overlay   *OverlayTiles
	ai        *ai.TrackAI
	aiVersion uint64
	modified  bool
	feed      event.Feed
	variant   Variant

	// bit 0 of the theme byte, not part of the theme ID
	themeFlags byte
}

func span(table *offsets.Table, field offsets.Field, index, size int) (int, int, error) {
	base, err := table.Resolve(field)
	if err != nil {
		return 0, 0, err
	}
	start := base + index*size
	return start, start + size, nil
}

func read(data []byte, table *offsets.Table, field offsets.Field, index, size int) ([]byte, error) {
	start, end, err := span(table, field, index, size)
	if err != nil {
		return nil, err
	}
	if end > len(data) {
		return nil, fmt.Errorf("%w: %v of track %d ends at 0x%X beyond image of %d bytes", romerrors.ErrInvalidSize, field, index, end, len(data))
	}
	return data[start:end], nil
}

func write(data []byte, table *offsets.Table, field offsets.Field, index int, value []byte) error {
	start, end, err := span(table, field, index, len(value))
	if err != nil {
		return err
	}
	if end > len(data) {
		return fmt.Errorf("%w: %v of track %d ends at 0x%X beyond image of %d bytes", romerrors.ErrInvalidSize, field, index, end, len(data))
	}
	copy(data[start:end], value)
	return nil
}

// Read builds the track at index from the image. The AI block is passed
// in since its position depends on the other tracks.
func Read(data []byte, index int, aiBlock []byte, ctx Context) (*Track, error) {
	if index < 0 || index >= Count {
		return nil, fmt.Errorf("%w: %d", romerrors.ErrInvalidTrackIndex, index)
	}
	t := &Track{index: index, ctx: ctx}
	logger := t.logger()
	logger.Trace("🔍 Reading track", "index", index)

	themeByte, err := read(data, ctx.Table, offsets.FieldTrackThemes, index, 1)
	if err != nil {
		return nil, err
	}
	if t.theme, err = ctx.Themes.Get(int(themeByte[0] >> 1)); err != nil {
		return nil, fmt.Errorf("track %d: %w", index, err)
	}
	t.themeFlags = themeByte[0] & themeFlagMask

	nameByte, err := read(data, ctx.Table, offsets.FieldTrackNames, index, 1)
	if err != nil {
		return nil, err
	}
	base, err := ctx.Names.Item(int(nameByte[0]))
	if err != nil {
		return nil, fmt.Errorf("track %d name: %w", index, err)
	}
	suffix, err := ctx.Suffixes.Item(index)
	if err != nil {
		return nil, fmt.Errorf("track %d suffix: %w", index, err)
	}
	t.name = text.NewSuffixedTextItem(base, suffix)

	mapData, err := read(data, ctx.Table, offsets.FieldTrackMaps, index, MapLength)
	if err != nil {
		return nil, err
	}
	if t.tileMap, err = NewMap(mapData); err != nil {
		return nil, err
	}

	overlayData, err := read(data, ctx.Table, offsets.FieldOverlayTiles, index, OverlaySize)
	if err != nil {
		return nil, err
	}
	if t.overlay, err = NewOverlayTiles(overlayData); err != nil {
		return nil, fmt.Errorf("track %d: %w", index, err)
	}

	if t.ai, _, err = ai.DecodeWithLogger(aiBlock, logger.Named("ai")); err != nil {
		return nil, fmt.Errorf("track %d: %w", index, err)
	}
	t.aiVersion = t.ai.Version()

	if index < GPCount {
		t.variant, err = readGrandPrix(data, t)
	} else {
		t.variant, err = readBattle(data, t)
	}
	if err != nil {
		return nil, err
	}

	t.watch()
	logger.Trace("✅ Track read", "index", index, "kind", t.variant.Kind(), "theme", t.theme.ID(), "aiElements", t.ai.Len())
	return t, nil
}

func (t *Track) logger() hclog.Logger {
	return logging.OrNull(t.ctx.Logger).With("track", t.index)
}

func (t *Track) themeByte(id int) byte {
	return byte(id<<1) | t.themeFlags
}

func (t *Track) watch() {
	t.tileMap.Feed().Subscribe(func(event.Change) { t.MarkModified("Map") })
	t.overlay.Feed().Subscribe(func(event.Change) { t.MarkModified("OverlayTiles") })
	t.ai.Feed().Subscribe(func(event.Change) { t.MarkModified("AI") })
	if gp, ok := t.variant.(*GrandPrix); ok {
		gp.objects.Feed().Subscribe(func(event.Change) { t.MarkModified("Objects") })
	}
}

// Index returns the position of the track in the game, 0..Count-1
func (t *Track) Index() int {
	return t.index
}

// Kind returns the track variant kind
func (t *Track) Kind() Kind {
	return t.variant.Kind()
}

// Variant returns the kind-specific part of the track
func (t *Track) Variant() Variant {
	return t.variant
}

// GrandPrix returns the GP part of the track, if it is a GP track
func (t *Track) GrandPrix() (*GrandPrix, bool) {
	gp, ok := t.variant.(*GrandPrix)
	return gp, ok
}

// Battle returns the battle part of the track, if it is a battle track
func (t *Track) Battle() (*Battle, bool) {
	b, ok := t.variant.(*Battle)
	return b, ok
}

// Name returns the track name
func (t *Track) Name() *text.SuffixedTextItem {
	return t.name
}

// SetNameIndex points the track name at another course select text
func (t *Track) SetNameIndex(i int) error {
	base, err := t.ctx.Names.Item(i)
	if err != nil {
		return err
	}
	if base == t.name.Base() {
		return nil
	}
	if err := t.name.SetBase(base); err != nil {
		return err
	}
	t.MarkModified("Name")
	return nil
}

// Theme returns the theme the track uses
func (t *Track) Theme() *Theme {
	return t.theme
}

// SetTheme changes the track theme, which must belong to the game catalog
func (t *Track) SetTheme(theme *Theme) error {
	if _, err := t.ctx.Themes.IDOf(theme); err != nil {
		return err
	}
	if theme == t.theme {
		return nil
	}
	t.theme = theme
	t.MarkModified("Theme")
	return nil
}

// Map returns the tile map
func (t *Track) Map() *Map {
	return t.tileMap
}

// OverlayTiles returns the overlay placements
func (t *Track) OverlayTiles() *OverlayTiles {
	return t.overlay
}

// AI returns the AI element list
func (t *Track) AI() *ai.TrackAI {
	return t.ai
}

// AIModified reports whether the AI changed since load or the last reset
func (t *Track) AIModified() bool {
	return t.ai.Version() != t.aiVersion
}

// Modified reports whether the track changed since load or the last reset
func (t *Track) Modified() bool {
	return t.modified
}

// MarkModified flags the track as modified and notifies subscribers
func (t *Track) MarkModified(field string) {
	if !t.modified {
		t.logger().Debug("✏️ Track modified", "field", field)
	}
	t.modified = true
	t.feed.Emit(event.Change{Source: fmt.Sprintf("track/%d", t.index), Field: field})
}

// ResetModifiedState clears the modified flag
func (t *Track) ResetModifiedState() {
	t.modified = false
	t.aiVersion = t.ai.Version()
}

// Feed returns the change feed of the track
func (t *Track) Feed() *event.Feed {
	return &t.feed
}

// Save writes the fixed-position data of the track into the image. The
// AI block is not written: it goes to the AI bank packed by the game.
func (t *Track) Save(data []byte) error {
	table := t.ctx.Table
	themeID, err := t.ctx.Themes.IDOf(t.theme)
	if err != nil {
		return err
	}

	writes := []struct {
		field offsets.Field
		value []byte
	}{
		{offsets.FieldTrackThemes, []byte{t.themeByte(themeID)}},
		{offsets.FieldTrackNames, []byte{byte(t.name.Base().Index())}},
		{offsets.FieldTrackMaps, t.tileMap.Bytes()},
		{offsets.FieldOverlayTiles, t.overlay.Bytes()},
	}
	for _, w := range writes {
		if err := write(data, table, w.field, t.index, w.value); err != nil {
			return err
		}
	}
	return t.variant.save(data, table, t.index)
}

// GrandPrix holds the GP-only data of a track
type GrandPrix struct {
	track     *Track
	start     GPStartPosition
	lapLine   LapLine
	itemProba int
	objects   *objects.TrackObjects
}

func readGrandPrix(data []byte, t *Track) (*GrandPrix, error) {
	table := t.ctx.Table
	i := t.index
	gp := &GrandPrix{track: t}

	start, err := read(data, table, offsets.FieldGPStartPositions, i, startPositionSize)
	if err != nil {
		return nil, err
	}
	gp.start.X, gp.start.Y = unpackPosition(start)

	secondRow, err := read(data, table, offsets.FieldGPSecondRowOffsets, i, 1)
	if err != nil {
		return nil, err
	}
	gp.start.SecondRowOffset = int(int8(secondRow[0]))

	lapLine, err := read(data, table, offsets.FieldLapLines, i, lapLineSize)
	if err != nil {
		return nil, err
	}
	gp.lapLine = UnpackLapLine(lapLine)

	proba, err := read(data, table, offsets.FieldItemProbabilityIndexes, i, 1)
	if err != nil {
		return nil, err
	}
	gp.itemProba = int(proba[0])

	objectData, err := read(data, table, offsets.FieldTrackObjects, i, objects.Size)
	if err != nil {
		return nil, err
	}
	areaData, err := read(data, table, offsets.FieldObjectAreas, i, objects.AreasSize)
	if err != nil {
		return nil, err
	}
	if gp.objects, err = objects.NewWithLogger(objectData, areaData, t.ai, t.logger().Named("objects")); err != nil {
		return nil, err
	}

	return gp, nil
}

// Kind returns KindGrandPrix
func (gp *GrandPrix) Kind() Kind {
	return KindGrandPrix
}

// StartPosition returns the starting grid position
func (gp *GrandPrix) StartPosition() GPStartPosition {
	return gp.start
}

// SetStartPosition moves the starting grid
func (gp *GrandPrix) SetStartPosition(p GPStartPosition) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p == gp.start {
		return nil
	}
	gp.start = p
	gp.track.MarkModified("StartPosition")
	return nil
}

// LapLine returns the finish line
func (gp *GrandPrix) LapLine() LapLine {
	return gp.lapLine
}

// SetLapLine moves the finish line
func (gp *GrandPrix) SetLapLine(l LapLine) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if l == gp.lapLine {
		return nil
	}
	gp.lapLine = l
	gp.track.MarkModified("LapLine")
	return nil
}

// ItemProbabilityIndex returns the item probability set of the track
func (gp *GrandPrix) ItemProbabilityIndex() int {
	return gp.itemProba
}

// SetItemProbabilityIndex selects an item probability set, 0..ItemProbabilityCount-1
func (gp *GrandPrix) SetItemProbabilityIndex(i int) error {
	if i < 0 || i >= ItemProbabilityCount {
		return fmt.Errorf("%w: item probability index %d not in 0..%d", romerrors.ErrOutOfRange, i, ItemProbabilityCount-1)
	}
	if i == gp.itemProba {
		return nil
	}
	gp.itemProba = i
	gp.track.MarkModified("ItemProbabilityIndex")
	return nil
}

// Objects returns the object slots of the track
func (gp *GrandPrix) Objects() *objects.TrackObjects {
	return gp.objects
}

func (gp *GrandPrix) save(data []byte, table *offsets.Table, index int) error {
	start := make([]byte, startPositionSize)
	packPosition(start, gp.start.X, gp.start.Y)

	writes := []struct {
		field offsets.Field
		value []byte
	}{
		{offsets.FieldGPStartPositions, start},
		{offsets.FieldGPSecondRowOffsets, []byte{byte(int8(gp.start.SecondRowOffset))}},
		{offsets.FieldLapLines, gp.lapLine.Pack()},
		{offsets.FieldItemProbabilityIndexes, []byte{byte(gp.itemProba)}},
		{offsets.FieldTrackObjects, gp.objects.Bytes()},
		{offsets.FieldObjectAreas, gp.objects.Areas().Bytes()},
	}
	for _, w := range writes {
		if err := write(data, table, w.field, index, w.value); err != nil {
			return err
		}
	}
	return nil
}

// Battle holds the battle-only data of a track
type Battle struct {
	track  *Track
	p1, p2 BattleStartPosition
}

func readBattle(data []byte, t *Track) (*Battle, error) {
	start, err := read(data, t.ctx.Table, offsets.FieldBattleStartPositions, t.index-GPCount, battleStartSize)
	if err != nil {
		return nil, err
	}
	b := &Battle{track: t}
	b.p1, b.p2 = UnpackBattleStart(start)
	return b, nil
}

// Kind returns KindBattle
func (b *Battle) Kind() Kind {
	return KindBattle
}

// StartPositionP1 returns the start point of player 1
func (b *Battle) StartPositionP1() BattleStartPosition {
	return b.p1
}

// StartPositionP2 returns the start point of player 2
func (b *Battle) StartPositionP2() BattleStartPosition {
	return b.p2
}

// SetStartPositionP1 moves the start point of player 1
func (b *Battle) SetStartPositionP1(p BattleStartPosition) error {
	return b.setStart(&b.p1, p, "StartPositionP1")
}

// SetStartPositionP2 moves the start point of player 2
func (b *Battle) SetStartPositionP2(p BattleStartPosition) error {
	return b.setStart(&b.p2, p, "StartPositionP2")
}

func (b *Battle) setStart(dst *BattleStartPosition, p BattleStartPosition, field string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p == *dst {
		return nil
	}
	*dst = p
	b.track.MarkModified(field)
	return nil
}

func (b *Battle) save(data []byte, table *offsets.Table, index int) error {
	return write(data, table, offsets.FieldBattleStartPositions, index-GPCount, PackBattleStart(b.p1, b.p2))
}
