package objects

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/go-hclog"
	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
	"github.com/kartedit/kartedit/pkg/rom/tracks/ai"
)

// View selects the front or rear object area set
type View int

const (
	ViewFront View = iota
	ViewRear
)

func (v View) String() string {
	if v == ViewRear {
		return "rear"
	}
	return "front"
}

const (
	// AreaCount is the number of areas per view
	AreaCount = 4

	// AreasSize is the byte length of both views' boundaries
	AreasSize = 2 * AreaCount

	// CellSize is the width and height of a grid cell in tiles
	CellSize = 2

	// GridSize is the width and height of an area grid in cells
	GridSize = ai.MapSize / CellSize
)

// Areas splits the AI elements into 4 ascending index ranges per view
// and projects them onto a grid of the map.
type Areas struct {
	boundaries [2][AreaCount]byte
	ai         *ai.TrackAI
	grids      [2][]byte
	versions   [2]uint64
	feed       event.Feed
	logger     hclog.Logger
}

// NewAreas reads the area boundaries of both views
func NewAreas(data []byte, trackAI *ai.TrackAI) (*Areas, error) {
	a := &Areas{ai: trackAI, logger: hclog.NewNullLogger()}
	if err := a.SetBytes(data); err != nil {
		return nil, err
	}
	return a, nil
}

// SetBytes replaces the boundaries of both views
func (a *Areas) SetBytes(data []byte) error {
	if len(data) != AreasSize {
		return romerrors.NewSizeError("object areas", len(data), AreasSize)
	}
	if bytes.Equal(data, a.Bytes()) {
		return nil
	}
	copy(a.boundaries[ViewFront][:], data[:AreaCount])
	copy(a.boundaries[ViewRear][:], data[AreaCount:])
	a.invalidate()
	a.feed.Emit(event.Change{Source: "areas", Field: "Boundaries"})
	return nil
}

// Bytes returns the boundaries, front view first
func (a *Areas) Bytes() []byte {
	data := make([]byte, 0, AreasSize)
	data = append(data, a.boundaries[ViewFront][:]...)
	return append(data, a.boundaries[ViewRear][:]...)
}

// Boundaries returns the 4 boundaries of a view
func (a *Areas) Boundaries(view View) [AreaCount]int {
	var b [AreaCount]int
	for i, v := range a.boundaries[view] {
		b[i] = int(v)
	}
	return b
}

// SetBoundaries replaces the boundaries of a view. Values must ascend
// and fit the AI element count range.
func (a *Areas) SetBoundaries(view View, b [AreaCount]int) error {
	if view != ViewFront && view != ViewRear {
		return fmt.Errorf("%w: view %d", romerrors.ErrOutOfRange, view)
	}
	var raw [AreaCount]byte
	for i, v := range b {
		if v < 0 || v > ai.MaxElementCount {
			return fmt.Errorf("%w: boundary %d not in 0..%d", romerrors.ErrOutOfRange, v, ai.MaxElementCount)
		}
		if i > 0 && v < b[i-1] {
			return fmt.Errorf("%w: boundaries %v do not ascend", romerrors.ErrOutOfRange, b)
		}
		raw[i] = byte(v)
	}
	if raw == a.boundaries[view] {
		return nil
	}
	a.boundaries[view] = raw
	a.grids[view] = nil
	a.feed.Emit(event.Change{Source: "areas", Field: "Boundaries." + view.String()})
	return nil
}

// Feed returns the change feed of the boundaries
func (a *Areas) Feed() *event.Feed {
	return &a.feed
}

// AreaOf returns the area of the AI element at index for a view
func (a *Areas) AreaOf(index int, view View) int {
	for k, b := range a.boundaries[view] {
		if index < int(b) {
			return k
		}
	}
	return AreaCount - 1
}

// AreaIndexFor returns the area at a tile position for a view
func (a *Areas) AreaIndexFor(x, y int, view View) (int, error) {
	if x < 0 || y < 0 || x >= ai.MapSize || y >= ai.MapSize {
		return 0, fmt.Errorf("%w: position %d,%d outside the map", romerrors.ErrOutOfRange, x, y)
	}
	grid, err := a.grid(view)
	if err != nil {
		return 0, err
	}
	return int(grid[(y/CellSize)*GridSize+x/CellSize]), nil
}

// Grid returns the GridSize x GridSize area grid of a view, row-major.
func (a *Areas) Grid(view View) ([]byte, error) {
	grid, err := a.grid(view)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(grid), nil
}

// grid is rebuilt only when the AI or the boundaries changed
func (a *Areas) grid(view View) ([]byte, error) {
	if view != ViewFront && view != ViewRear {
		return nil, fmt.Errorf("%w: view %d", romerrors.ErrOutOfRange, view)
	}
	if a.grids[view] == nil || a.versions[view] != a.ai.Version() {
		a.grids[view] = a.build(view)
		a.versions[view] = a.ai.Version()
		a.logger.Trace("🗺️ Area grid rebuilt", "view", view, "elements", a.ai.Len(), "aiVersion", a.versions[view])
	}
	return a.grids[view], nil
}

func (a *Areas) invalidate() {
	a.grids[ViewFront] = nil
	a.grids[ViewRear] = nil
}

const unset = 0xFF

func (a *Areas) build(view View) []byte {
	grid := make([]byte, GridSize*GridSize)
	elements := a.ai.Elements()
	if len(elements) == 0 {
		return grid
	}

	for i := range grid {
		grid[i] = unset
	}

	// Earlier elements keep the cells they cover
	for i, e := range elements {
		area := byte(a.AreaOf(i, view))
		fill(grid, e, area)
	}

	for i, v := range grid {
		if v == unset {
			grid[i] = byte(a.AreaOf(nearestTarget(elements, i%GridSize, i/GridSize), view))
		}
	}

	return grid
}

func fill(grid []byte, e *ai.Element, area byte) {
	r := e.Area()
	left, top := r.X/CellSize, r.Y/CellSize
	size := r.Width / CellSize
	for cy := top; cy < (r.Y+r.Height)/CellSize && cy < GridSize; cy++ {
		for cx := left; cx < (r.X+r.Width)/CellSize && cx < GridSize; cx++ {
			i, j := cx-left, cy-top
			if !inShape(e.Shape(), i, j, size) {
				continue
			}
			if cell := cy*GridSize + cx; grid[cell] == unset {
				grid[cell] = area
			}
		}
	}
}

// inShape reports whether cell (i, j) of a size x size box lies in the shape
func inShape(shape ai.Shape, i, j, size int) bool {
	switch shape {
	case ai.TriangleTopLeft:
		return i+j <= size-1
	case ai.TriangleTopRight:
		return j <= i
	case ai.TriangleBottomRight:
		return i+j >= size-1
	case ai.TriangleBottomLeft:
		return i <= j
	}
	return true
}

func nearestTarget(elements []*ai.Element, cx, cy int) int {
	best, bestDistance := 0, -1
	for i, e := range elements {
		t := e.Target()
		d := abs(t.X/CellSize-cx) + abs(t.Y/CellSize-cy)
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = i, d
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
