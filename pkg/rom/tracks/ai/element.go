// Package ai models the computer-controlled driving path of a track: an
// ordered list of elements, each pairing a navigable area with a target point.
package ai

import (
	"fmt"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
)

const (
	// Precision is the size in tiles of one unit of area coordinates
	Precision = 2

	// MapSize is the width and height of a track map in tiles
	MapSize = 128

	// MaxSpeed is the highest speed value of an element
	MaxSpeed = 3
)

// Shape is the form of an element area
type Shape byte

const (
	Rectangle           Shape = 0x00
	TriangleTopLeft     Shape = 0x02
	TriangleTopRight    Shape = 0x04
	TriangleBottomRight Shape = 0x06
	TriangleBottomLeft  Shape = 0x08
)

// String returns the shape name
func (s Shape) String() string {
	switch s {
	case Rectangle:
		return "rectangle"
	case TriangleTopLeft:
		return "triangle-top-left"
	case TriangleTopRight:
		return "triangle-top-right"
	case TriangleBottomRight:
		return "triangle-bottom-right"
	case TriangleBottomLeft:
		return "triangle-bottom-left"
	}
	return fmt.Sprintf("shape(0x%02X)", byte(s))
}

// Valid reports whether s is a known shape
func (s Shape) Valid() bool {
	switch s {
	case Rectangle, TriangleTopLeft, TriangleTopRight, TriangleBottomRight, TriangleBottomLeft:
		return true
	}
	return false
}

// IsTriangle reports whether s is one of the four triangle orientations
func (s Shape) IsTriangle() bool {
	return s != Rectangle && s.Valid()
}

// Point is a grid position in tiles
type Point struct {
	X, Y int
}

// Area is an axis-aligned box in tiles
type Area struct {
	X, Y, Width, Height int
}

// Right returns the first column past the area
func (a Area) Right() int {
	return a.X + a.Width
}

// Bottom returns the first row past the area
func (a Area) Bottom() int {
	return a.Y + a.Height
}

// Contains reports whether the tile at p lies inside the area
func (a Area) Contains(p Point) bool {
	return p.X >= a.X && p.X < a.Right() && p.Y >= a.Y && p.Y < a.Bottom()
}

func (a Area) validate() error {
	if a.Width < 0 || a.Height < 0 {
		return fmt.Errorf("%w: area size %dx%d", romerrors.ErrOutOfRange, a.Width, a.Height)
	}
	if a.X < 0 || a.Y < 0 || a.Right() > MapSize || a.Bottom() > MapSize {
		return fmt.Errorf("%w: area %+v outside the %dx%d map", romerrors.ErrOutOfRange, a, MapSize, MapSize)
	}
	if a.X%Precision != 0 || a.Y%Precision != 0 || a.Width%Precision != 0 || a.Height%Precision != 0 {
		return fmt.Errorf("%w: area %+v not aligned to %d tiles", romerrors.ErrOutOfRange, a, Precision)
	}
	return nil
}

func (p Point) validate() error {
	if p.X < 0 || p.Y < 0 || p.X >= MapSize || p.Y >= MapSize {
		return fmt.Errorf("%w: target %+v outside the %dx%d map", romerrors.ErrOutOfRange, p, MapSize, MapSize)
	}
	return nil
}

// Element is one segment of the AI path. Setters validate their input and
// leave the element unchanged on error.
type Element struct {
	shape        Shape
	area         Area
	target       Point
	speed        int
	intersection bool
	extraFlags   byte // target flag bits 2-6, kept as read
	owner        *TrackAI
}

// NewElement creates an element. Triangle areas must be square.
func NewElement(shape Shape, area Area, target Point) (*Element, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %v", romerrors.ErrOutOfRange, shape)
	}
	if err := area.validate(); err != nil {
		return nil, err
	}
	if shape.IsTriangle() && area.Width != area.Height {
		return nil, fmt.Errorf("%w: %v area must be square, got %dx%d", romerrors.ErrOutOfRange, shape, area.Width, area.Height)
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	return &Element{shape: shape, area: area, target: target}, nil
}

// Clone returns a copy of the element that belongs to no list
func (e *Element) Clone() *Element {
	c := *e
	c.owner = nil
	return &c
}

// Shape returns the area shape
func (e *Element) Shape() Shape {
	return e.shape
}

// Area returns the area bounding box in tiles
func (e *Element) Area() Area {
	return e.area
}

// Target returns the steering target in tiles
func (e *Element) Target() Point {
	return e.target
}

// Speed returns the speed value (0..3)
func (e *Element) Speed() int {
	return e.speed
}

// IsIntersection reports whether the element is an intersection
func (e *Element) IsIntersection() bool {
	return e.intersection
}

// SetShape changes the area shape. Switching to a triangle shrinks the
// area to a square of its smaller side.
func (e *Element) SetShape(shape Shape) error {
	if !shape.Valid() {
		return fmt.Errorf("%w: %v", romerrors.ErrOutOfRange, shape)
	}
	if shape == e.shape {
		return nil
	}
	if shape.IsTriangle() {
		size := min(e.area.Width, e.area.Height)
		e.area.Width, e.area.Height = size, size
	}
	e.shape = shape
	e.changed()
	return nil
}

// SetArea moves or resizes the area
func (e *Element) SetArea(area Area) error {
	if err := area.validate(); err != nil {
		return err
	}
	if e.shape.IsTriangle() && area.Width != area.Height {
		return fmt.Errorf("%w: %v area must be square, got %dx%d", romerrors.ErrOutOfRange, e.shape, area.Width, area.Height)
	}
	if area == e.area {
		return nil
	}
	e.area = area
	e.changed()
	return nil
}

// SetTarget moves the steering target
func (e *Element) SetTarget(target Point) error {
	if err := target.validate(); err != nil {
		return err
	}
	if target == e.target {
		return nil
	}
	e.target = target
	e.changed()
	return nil
}

// SetSpeed changes the speed, which must be in 0..MaxSpeed
func (e *Element) SetSpeed(speed int) error {
	if speed < 0 || speed > MaxSpeed {
		return fmt.Errorf("%w: speed %d not in 0..%d", romerrors.ErrOutOfRange, speed, MaxSpeed)
	}
	if speed == e.speed {
		return nil
	}
	e.speed = speed
	e.changed()
	return nil
}

// SetIntersection marks or unmarks the element as an intersection
func (e *Element) SetIntersection(intersection bool) {
	if intersection == e.intersection {
		return
	}
	e.intersection = intersection
	e.changed()
}

func (e *Element) changed() {
	if e.owner != nil {
		e.owner.changed("Element")
	}
}
