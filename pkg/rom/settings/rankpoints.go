package settings

import (
	"bytes"
	"encoding/binary"
	"fmt"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
)

const (
	// PlaceCount is the number of ranked places
	PlaceCount = 8

	// RankPointsSize is the byte length of the rank points table
	RankPointsSize = PlaceCount * 2
)

// RankPoints are the points a driver earns for each finishing place
type RankPoints struct {
	points   [PlaceCount]uint16
	modified bool
	feed     event.Feed
}

// NewRankPoints reads the rank points table
func NewRankPoints(data []byte) (*RankPoints, error) {
	if err := romerrors.CheckSize("rank points", data, RankPointsSize); err != nil {
		return nil, err
	}
	r := &RankPoints{}
	for i := range r.points {
		r.points[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return r, nil
}

// Get returns the points of a place, 0 being first
func (r *RankPoints) Get(place int) (int, error) {
	if place < 0 || place >= PlaceCount {
		return 0, fmt.Errorf("%w: place %d of %d", romerrors.ErrOutOfRange, place, PlaceCount)
	}
	return int(r.points[place]), nil
}

// Set changes the points of a place
func (r *RankPoints) Set(place, points int) error {
	if place < 0 || place >= PlaceCount {
		return fmt.Errorf("%w: place %d of %d", romerrors.ErrOutOfRange, place, PlaceCount)
	}
	if points < 0 || points > 0xFFFF {
		return fmt.Errorf("%w: %d points", romerrors.ErrOutOfRange, points)
	}
	if r.points[place] == uint16(points) {
		return nil
	}
	r.points[place] = uint16(points)
	r.modified = true
	r.feed.Emit(event.Change{Source: "settings/RankPoints", Field: fmt.Sprintf("Place[%d]", place)})
	return nil
}

// Values returns the points of every place
func (r *RankPoints) Values() []int {
	values := make([]int, PlaceCount)
	for i, p := range r.points {
		values[i] = int(p)
	}
	return values
}

// Bytes encodes the table
func (r *RankPoints) Bytes() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, r.points)
	return buf.Bytes()
}

// Modified reports whether points changed since load or the last reset
func (r *RankPoints) Modified() bool {
	return r.modified
}

// ResetModifiedState clears the modified flag
func (r *RankPoints) ResetModifiedState() {
	r.modified = false
}

// Feed returns the change feed of the table
func (r *RankPoints) Feed() *event.Feed {
	return &r.feed
}
