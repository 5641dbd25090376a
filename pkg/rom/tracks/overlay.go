package tracks

import (
	"bytes"
	"fmt"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
)

const (
	// OverlaySize is the byte length of the overlay records of a track
	OverlaySize = 128

	// MaxOverlayTiles is the number of overlay records a track can hold
	MaxOverlayTiles = 41

	// OverlayPatternCount is the number of overlay tile patterns
	OverlayPatternCount = 56

	overlayRecordSize = 3
	overlayEnd        = 0xFF
)

// OverlayTile places an overlay pattern at a tile position
type OverlayTile struct {
	Pattern int
	X, Y    int
}

func (t OverlayTile) validate() error {
	if t.Pattern < 0 || t.Pattern >= OverlayPatternCount {
		return fmt.Errorf("%w: overlay pattern %d not in 0..%d", romerrors.ErrOutOfRange, t.Pattern, OverlayPatternCount-1)
	}
	if t.X < 0 || t.Y < 0 || t.X >= MapSize || t.Y >= MapSize {
		return fmt.Errorf("%w: overlay tile at %d,%d outside the map", romerrors.ErrOutOfRange, t.X, t.Y)
	}
	return nil
}

// OverlayTiles is the ordered list of overlay placements of a track.
// Until the list is edited, Bytes returns the records exactly as read.
type OverlayTiles struct {
	tiles []OverlayTile
	raw   []byte
	feed  event.Feed
}

// NewOverlayTiles reads overlay records
func NewOverlayTiles(data []byte) (*OverlayTiles, error) {
	tiles, err := decodeOverlay(data)
	if err != nil {
		return nil, err
	}
	return &OverlayTiles{tiles: tiles, raw: bytes.Clone(data)}, nil
}

func decodeOverlay(data []byte) ([]OverlayTile, error) {
	if err := romerrors.CheckSize("overlay tiles", data, OverlaySize); err != nil {
		return nil, err
	}

	var tiles []OverlayTile
	for pos := 0; pos+overlayRecordSize <= len(data) && data[pos] != overlayEnd; pos += overlayRecordSize {
		tile := OverlayTile{Pattern: int(data[pos]), X: int(data[pos+1]), Y: int(data[pos+2])}
		if err := tile.validate(); err != nil {
			return nil, fmt.Errorf("%w: overlay record %d: %v", romerrors.ErrInvalidFormat, len(tiles), err)
		}
		if len(tiles) == MaxOverlayTiles {
			return nil, fmt.Errorf("%w: more than %d overlay records", romerrors.ErrInvalidFormat, MaxOverlayTiles)
		}
		tiles = append(tiles, tile)
	}
	return tiles, nil
}

// Len returns the number of placements
func (o *OverlayTiles) Len() int {
	return len(o.tiles)
}

// Tiles returns the placements in order
func (o *OverlayTiles) Tiles() []OverlayTile {
	tiles := make([]OverlayTile, len(o.tiles))
	copy(tiles, o.tiles)
	return tiles
}

// Add appends a placement
func (o *OverlayTiles) Add(tile OverlayTile) error {
	if err := tile.validate(); err != nil {
		return err
	}
	if len(o.tiles) >= MaxOverlayTiles {
		return fmt.Errorf("%w: a track holds at most %d overlay tiles", romerrors.ErrCapacityExceeded, MaxOverlayTiles)
	}
	o.tiles = append(o.tiles, tile)
	o.changed()
	return nil
}

// Remove deletes the placement at index
func (o *OverlayTiles) Remove(index int) error {
	if index < 0 || index >= len(o.tiles) {
		return fmt.Errorf("%w: overlay tile %d of %d", romerrors.ErrOutOfRange, index, len(o.tiles))
	}
	o.tiles = append(o.tiles[:index], o.tiles[index+1:]...)
	o.changed()
	return nil
}

// Clear removes every placement
func (o *OverlayTiles) Clear() {
	if len(o.tiles) == 0 {
		return
	}
	o.tiles = nil
	o.changed()
}

// SetBytes replaces every placement with the content of overlay records
func (o *OverlayTiles) SetBytes(data []byte) error {
	tiles, err := decodeOverlay(data)
	if err != nil {
		return err
	}
	if bytes.Equal(data, o.Bytes()) {
		return nil
	}
	o.tiles = tiles
	o.raw = bytes.Clone(data)
	o.feed.Emit(event.Change{Source: "overlay", Field: "Tiles"})
	return nil
}

// Bytes encodes the placements as OverlaySize bytes of records
func (o *OverlayTiles) Bytes() []byte {
	if o.raw != nil {
		return bytes.Clone(o.raw)
	}
	data := bytes.Repeat([]byte{overlayEnd}, OverlaySize)
	for i, t := range o.tiles {
		pos := i * overlayRecordSize
		data[pos], data[pos+1], data[pos+2] = byte(t.Pattern), byte(t.X), byte(t.Y)
	}
	return data
}

// Feed returns the change feed of the overlay
func (o *OverlayTiles) Feed() *event.Feed {
	return &o.feed
}

func (o *OverlayTiles) changed() {
	o.raw = nil
	o.feed.Emit(event.Change{Source: "overlay", Field: "Tiles"})
}
