package tracks

import (
	"bytes"
	"fmt"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
	"github.com/kartedit/kartedit/pkg/rom/tracks/ai"
)

const (
	// MapSize is the width and height of a track map in tiles
	MapSize = ai.MapSize

	// MapLength is the byte length of a track map, one byte per tile
	MapLength = MapSize * MapSize
)

// Map is the tile grid of a track, stored row by row
type Map struct {
	tiles [MapLength]byte
	feed  event.Feed
}

// NewMap reads a map of exactly MapLength bytes
func NewMap(data []byte) (*Map, error) {
	m := &Map{}
	if err := romerrors.CheckSize("track map", data, MapLength); err != nil {
		return nil, err
	}
	copy(m.tiles[:], data)
	return m, nil
}

// Tile returns the tile at x, y
func (m *Map) Tile(x, y int) (byte, error) {
	if err := checkTile(x, y); err != nil {
		return 0, err
	}
	return m.tiles[y*MapSize+x], nil
}

// SetTile changes the tile at x, y
func (m *Map) SetTile(x, y int, tile byte) error {
	if err := checkTile(x, y); err != nil {
		return err
	}
	if m.tiles[y*MapSize+x] == tile {
		return nil
	}
	m.tiles[y*MapSize+x] = tile
	m.feed.Emit(event.Change{Source: "map", Field: fmt.Sprintf("Tile[%d,%d]", x, y)})
	return nil
}

// Bytes returns a copy of the map
func (m *Map) Bytes() []byte {
	return bytes.Clone(m.tiles[:])
}

// SetBytes replaces the whole map
func (m *Map) SetBytes(data []byte) error {
	if err := romerrors.CheckSize("track map", data, MapLength); err != nil {
		return err
	}
	if bytes.Equal(data, m.tiles[:]) {
		return nil
	}
	copy(m.tiles[:], data)
	m.feed.Emit(event.Change{Source: "map", Field: "Tiles"})
	return nil
}

// Feed returns the change feed of the map
func (m *Map) Feed() *event.Feed {
	return &m.feed
}

func checkTile(x, y int) error {
	if x < 0 || y < 0 || x >= MapSize || y >= MapSize {
		return fmt.Errorf("%w: tile %d,%d outside the %dx%d map", romerrors.ErrOutOfRange, x, y, MapSize, MapSize)
	}
	return nil
}
