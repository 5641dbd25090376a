// Package objects holds the sprite object slots of a GP track and the
// front/rear area grids that tell which objects sit in their own area.
package objects

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/go-hclog"
	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
	"github.com/kartedit/kartedit/pkg/rom/tracks/ai"
)

const (
	RegularCount   = 16
	MatchRaceCount = 6
	Count          = RegularCount + MatchRaceCount

	bytesPerObject = 2

	// Size is the byte length of the object slots
	Size = Count * bytesPerObject

	positionMask = 0x7F
	flagBit      = 0x80
)

// Direction is the movement axis of a match-race object
type Direction int

const (
	DirectionNone Direction = iota
	DirectionHorizontal
	DirectionVertical
)

func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionHorizontal:
		return "horizontal"
	case DirectionVertical:
		return "vertical"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// TrackObjects is the fixed set of 22 object slots of a GP track. The
// high bit of each coordinate byte is kept as read for every slot; on
// match-race slots it encodes the direction.
type TrackObjects struct {
	data   [Size]byte
	areas  *Areas
	feed   event.Feed
	logger hclog.Logger
}

// New reads the object slots and their areas
func New(data, areaData []byte, trackAI *ai.TrackAI) (*TrackObjects, error) {
	return NewWithLogger(data, areaData, trackAI, hclog.NewNullLogger())
}

// NewWithLogger reads the object slots and their areas and logs to logger
func NewWithLogger(data, areaData []byte, trackAI *ai.TrackAI, logger hclog.Logger) (*TrackObjects, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	areas, err := NewAreas(areaData, trackAI)
	if err != nil {
		logger.Debug("❌ Object areas rejected", "error", err)
		return nil, err
	}
	areas.logger = logger.Named("areas")

	o := &TrackObjects{areas: areas, logger: logger}
	if err := o.SetBytes(data); err != nil {
		logger.Debug("❌ Object slots rejected", "error", err)
		return nil, err
	}
	areas.Feed().Subscribe(func(c event.Change) {
		o.feed.Emit(event.Change{Source: "objects", Field: "Areas." + c.Field})
	})
	logger.Trace("✅ Objects read", "slots", Count, "front", areas.Boundaries(ViewFront), "rear", areas.Boundaries(ViewRear))
	return o, nil
}

// SetBytes replaces every slot. data must be exactly Size bytes.
func (o *TrackObjects) SetBytes(data []byte) error {
	if len(data) != Size {
		return romerrors.NewSizeError("track objects", len(data), Size)
	}
	if bytes.Equal(data, o.data[:]) {
		return nil
	}
	copy(o.data[:], data)
	o.logger.Trace("📥 Object slots replaced", "size", len(data))
	o.feed.Emit(event.Change{Source: "objects", Field: "Objects"})
	return nil
}

// Bytes returns the slot bytes
func (o *TrackObjects) Bytes() []byte {
	return bytes.Clone(o.data[:])
}

// Areas returns the object areas
func (o *TrackObjects) Areas() *Areas {
	return o.areas
}

// Feed returns the change feed of the objects and their areas
func (o *TrackObjects) Feed() *event.Feed {
	return &o.feed
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= Count {
		return fmt.Errorf("%w: object slot %d of %d", romerrors.ErrOutOfRange, slot, Count)
	}
	return nil
}

// IsMatchRace reports whether slot is one of the 6 match-race slots
func IsMatchRace(slot int) bool {
	return slot >= RegularCount && slot < Count
}

// Position returns the tile position of an object
func (o *TrackObjects) Position(slot int) (ai.Point, error) {
	if err := checkSlot(slot); err != nil {
		return ai.Point{}, err
	}
	i := slot * bytesPerObject
	return ai.Point{X: int(o.data[i] & positionMask), Y: int(o.data[i+1] & positionMask)}, nil
}

// SetPosition moves an object, keeping its flag bits
func (o *TrackObjects) SetPosition(slot int, p ai.Point) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if p.X < 0 || p.X > positionMask || p.Y < 0 || p.Y > positionMask {
		return fmt.Errorf("%w: object position %+v", romerrors.ErrOutOfRange, p)
	}

	i := slot * bytesPerObject
	x := o.data[i]&flagBit | byte(p.X)
	y := o.data[i+1]&flagBit | byte(p.Y)
	if x == o.data[i] && y == o.data[i+1] {
		return nil
	}
	o.data[i], o.data[i+1] = x, y
	o.feed.Emit(event.Change{Source: "objects", Field: fmt.Sprintf("Object[%d]", slot)})
	return nil
}

// Direction returns the direction of a match-race object. Regular slots
// always report DirectionNone.
func (o *TrackObjects) Direction(slot int) Direction {
	if !IsMatchRace(slot) {
		return DirectionNone
	}
	i := slot * bytesPerObject
	switch {
	case o.data[i]&flagBit != 0:
		return DirectionHorizontal
	case o.data[i+1]&flagBit != 0:
		return DirectionVertical
	}
	return DirectionNone
}

// SetDirection changes the direction of a match-race object
func (o *TrackObjects) SetDirection(slot int, d Direction) error {
	if !IsMatchRace(slot) {
		return fmt.Errorf("%w: object slot %d has no direction", romerrors.ErrOutOfRange, slot)
	}

	i := slot * bytesPerObject
	x := o.data[i] & positionMask
	y := o.data[i+1] & positionMask
	switch d {
	case DirectionNone:
	case DirectionHorizontal:
		x |= flagBit
	case DirectionVertical:
		y |= flagBit
	default:
		return fmt.Errorf("%w: %v", romerrors.ErrOutOfRange, d)
	}

	if x == o.data[i] && y == o.data[i+1] {
		return nil
	}
	o.data[i], o.data[i+1] = x, y
	o.feed.Emit(event.Change{Source: "objects", Field: fmt.Sprintf("Object[%d]", slot)})
	return nil
}

// IsInArea reports whether a regular object sits in the area of its
// group (slot / 4) for the view. Match-race objects are always in area.
func (o *TrackObjects) IsInArea(slot int, view View) (bool, error) {
	if err := checkSlot(slot); err != nil {
		return false, err
	}
	if IsMatchRace(slot) {
		return true, nil
	}
	p, _ := o.Position(slot)
	area, err := o.areas.AreaIndexFor(p.X, p.Y, view)
	if err != nil {
		return false, err
	}
	return area == slot/4, nil
}
