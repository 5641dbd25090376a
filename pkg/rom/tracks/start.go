package tracks

import (
	"encoding/binary"
	"fmt"
	"math"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/tracks/ai"
)

const (
	// MapPixels is the width and height of a track map in pixels
	MapPixels = MapSize * ai.TileSize

	startPositionSize = 4
	lapLineSize       = 6
	battleStartSize   = 2 * startPositionSize

	// ItemProbabilityCount is the number of item probability sets
	ItemProbabilityCount = 10
)

// GPStartPosition is where the GP starting grid begins, in pixels.
// SecondRowOffset shifts the second column of drivers.
type GPStartPosition struct {
	X, Y            int
	SecondRowOffset int
}

// Validate checks the position lies on the map
func (p GPStartPosition) Validate() error {
	if err := checkPixel(p.X, p.Y); err != nil {
		return err
	}
	if p.SecondRowOffset < math.MinInt8 || p.SecondRowOffset > math.MaxInt8 {
		return fmt.Errorf("%w: second row offset %d", romerrors.ErrOutOfRange, p.SecondRowOffset)
	}
	return nil
}

// LapLine is the finish line, in pixels
type LapLine struct {
	X, Y   int
	Length int
}

// Validate checks the line lies on the map
func (l LapLine) Validate() error {
	if err := checkPixel(l.X, l.Y); err != nil {
		return err
	}
	if l.Length < 0 || l.X+l.Length > MapPixels {
		return fmt.Errorf("%w: lap line length %d at x=%d", romerrors.ErrOutOfRange, l.Length, l.X)
	}
	return nil
}

// BattleStartPosition is a player start point, in pixels
type BattleStartPosition struct {
	X, Y int
}

// Validate checks the position lies on the map
func (p BattleStartPosition) Validate() error {
	return checkPixel(p.X, p.Y)
}

func checkPixel(x, y int) error {
	if x < 0 || y < 0 || x >= MapPixels || y >= MapPixels {
		return fmt.Errorf("%w: position %d,%d outside the %dx%d map", romerrors.ErrOutOfRange, x, y, MapPixels, MapPixels)
	}
	return nil
}

func unpackPosition(data []byte) (int, int) {
	return int(binary.LittleEndian.Uint16(data[0:2])), int(binary.LittleEndian.Uint16(data[2:4]))
}

func packPosition(data []byte, x, y int) {
	binary.LittleEndian.PutUint16(data[0:2], uint16(x))
	binary.LittleEndian.PutUint16(data[2:4], uint16(y))
}

// UnpackLapLine reads a lap line record
func UnpackLapLine(data []byte) LapLine {
	x, y := unpackPosition(data)
	return LapLine{X: x, Y: y, Length: int(binary.LittleEndian.Uint16(data[4:6]))}
}

// Pack serializes the lap line
func (l LapLine) Pack() []byte {
	data := make([]byte, lapLineSize)
	packPosition(data, l.X, l.Y)
	binary.LittleEndian.PutUint16(data[4:6], uint16(l.Length))
	return data
}

// UnpackBattleStart reads the two player start records of a battle track
func UnpackBattleStart(data []byte) (p1, p2 BattleStartPosition) {
	p1.X, p1.Y = unpackPosition(data[0:startPositionSize])
	p2.X, p2.Y = unpackPosition(data[startPositionSize:battleStartSize])
	return p1, p2
}

// PackBattleStart serializes the two player start records
func PackBattleStart(p1, p2 BattleStartPosition) []byte {
	data := make([]byte, battleStartSize)
	packPosition(data[0:startPositionSize], p1.X, p1.Y)
	packPosition(data[startPositionSize:], p2.X, p2.Y)
	return data
}
