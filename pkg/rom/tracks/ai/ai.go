package ai

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
)

// MaxElementCount is the maximum number of elements of a track AI
const MaxElementCount = 128

// Block layout
const (
	rectangleSize  = 5
	triangleSize   = 4
	targetSize     = 3
	speedMask      = 0x03
	intersectFlag  = 0x80
	extraFlagsMask = 0x7C
)

// TrackAI is the ordered element list of a track. Elements are addressed
// by index; indices shift on Insert, Remove, Move and Clear but never on
// element value changes.
type TrackAI struct {
	elements []*Element
	version  uint64
	feed     event.Feed
	logger   hclog.Logger
}

// New creates an empty track AI
func New() *TrackAI {
	return &TrackAI{logger: hclog.NewNullLogger()}
}

// Decode reads an AI block and returns it with the number of bytes consumed
func Decode(data []byte) (*TrackAI, int, error) {
	return DecodeWithLogger(data, hclog.NewNullLogger())
}

// DecodeWithLogger is Decode with a logger kept by the returned list
func DecodeWithLogger(data []byte, logger hclog.Logger) (*TrackAI, int, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger.Trace("🔍 Decoding AI block", "available", len(data))

	elements, n, err := decodeElements(data)
	if err != nil {
		logger.Debug("❌ AI block rejected", "error", err)
		return nil, 0, err
	}
	ai := &TrackAI{logger: logger}
	ai.adopt(elements)
	logger.Trace("✅ AI decoded", "elements", len(elements), "size", n)
	return ai, n, nil
}

// SetLogger replaces the logger of the list
func (ai *TrackAI) SetLogger(logger hclog.Logger) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	ai.logger = logger
}

func decodeElements(data []byte) ([]*Element, int, error) {
	if len(data) < 1 {
		return nil, 0, fmt.Errorf("%w: empty AI block", romerrors.ErrInvalidFormat)
	}
	count := int(data[0])
	if count > MaxElementCount {
		return nil, 0, fmt.Errorf("%w: %d AI elements, at most %d", romerrors.ErrInvalidFormat, count, MaxElementCount)
	}

	elements := make([]*Element, count)
	pos := 1
	for i := range elements {
		if pos >= len(data) {
			return nil, 0, fmt.Errorf("%w: AI zone %d truncated", romerrors.ErrInvalidFormat, i)
		}
		shape := Shape(data[pos])
		if !shape.Valid() {
			return nil, 0, fmt.Errorf("%w: AI zone %d has unknown %v", romerrors.ErrInvalidFormat, i, shape)
		}

		size := triangleSize
		if shape == Rectangle {
			size = rectangleSize
		}
		if pos+size > len(data) {
			return nil, 0, fmt.Errorf("%w: AI zone %d truncated", romerrors.ErrInvalidFormat, i)
		}

		zone := data[pos : pos+size]
		area := Area{X: int(zone[1]) * Precision, Y: int(zone[2]) * Precision}
		if shape == Rectangle {
			area.Width = int(zone[3]) * Precision
			area.Height = int(zone[4]) * Precision
		} else {
			area.Width = int(zone[3]) * Precision
			area.Height = area.Width
		}
		elements[i] = &Element{shape: shape, area: area}
		pos += size
	}

	if pos+count*targetSize > len(data) {
		return nil, 0, fmt.Errorf("%w: AI targets truncated", romerrors.ErrInvalidFormat)
	}
	for _, e := range elements {
		target := data[pos : pos+targetSize]
		e.target = Point{X: int(target[0]), Y: int(target[1])}
		e.speed = int(target[2] & speedMask)
		e.intersection = target[2]&intersectFlag != 0
		e.extraFlags = target[2] & extraFlagsMask
		pos += targetSize
	}

	return elements, pos, nil
}

// Load replaces every element with the content of an AI block. The list is
// left unchanged on error.
func (ai *TrackAI) Load(data []byte) error {
	elements, n, err := decodeElements(data)
	if err != nil {
		ai.logger.Debug("❌ AI block rejected", "error", err)
		return err
	}
	ai.release()
	ai.adopt(elements)
	ai.logger.Debug("📥 AI loaded", "elements", len(elements), "size", n)
	ai.changed("Elements")
	return nil
}

// Bytes encodes the list as an AI block
func (ai *TrackAI) Bytes() []byte {
	data := make([]byte, 0, ai.EncodedSize())
	data = append(data, byte(len(ai.elements)))

	for _, e := range ai.elements {
		a := e.area
		if e.shape == Rectangle {
			data = append(data, byte(Rectangle), byte(a.X/Precision), byte(a.Y/Precision),
				byte(a.Width/Precision), byte(a.Height/Precision))
		} else {
			data = append(data, byte(e.shape), byte(a.X/Precision), byte(a.Y/Precision),
				byte(a.Width/Precision))
		}
	}

	for _, e := range ai.elements {
		flags := byte(e.speed) | e.extraFlags
		if e.intersection {
			flags |= intersectFlag
		}
		data = append(data, byte(e.target.X), byte(e.target.Y), flags)
	}

	return data
}

// EncodedSize returns the length of the block Bytes produces
func (ai *TrackAI) EncodedSize() int {
	size := 1
	for _, e := range ai.elements {
		if e.shape == Rectangle {
			size += rectangleSize
		} else {
			size += triangleSize
		}
		size += targetSize
	}
	return size
}

// Len returns the number of elements
func (ai *TrackAI) Len() int {
	return len(ai.elements)
}

// Element returns the element at index
func (ai *TrackAI) Element(index int) (*Element, error) {
	if index < 0 || index >= len(ai.elements) {
		return nil, fmt.Errorf("%w: AI element %d of %d", romerrors.ErrOutOfRange, index, len(ai.elements))
	}
	return ai.elements[index], nil
}

// Elements returns the elements in order
func (ai *TrackAI) Elements() []*Element {
	elements := make([]*Element, len(ai.elements))
	copy(elements, ai.elements)
	return elements
}

// IndexOf returns the index of e, or -1 if e is not in the list
func (ai *TrackAI) IndexOf(e *Element) int {
	for i, element := range ai.elements {
		if element == e {
			return i
		}
	}
	return -1
}

// Add appends an element and returns its index
func (ai *TrackAI) Add(e *Element) (int, error) {
	index := len(ai.elements)
	if err := ai.Insert(e, index); err != nil {
		return -1, err
	}
	return index, nil
}

// Insert places an element at index, shifting later elements up
func (ai *TrackAI) Insert(e *Element, index int) error {
	if e == nil {
		return fmt.Errorf("%w: nil AI element", romerrors.ErrOutOfRange)
	}
	if e.owner != nil {
		return fmt.Errorf("%w: AI element already belongs to a list", romerrors.ErrOutOfRange)
	}
	if len(ai.elements) >= MaxElementCount {
		ai.logger.Debug("❌ AI element list full", "max", MaxElementCount)
		return fmt.Errorf("%w: AI holds at most %d elements", romerrors.ErrCapacityExceeded, MaxElementCount)
	}
	if index < 0 || index > len(ai.elements) {
		return fmt.Errorf("%w: insert index %d of %d", romerrors.ErrOutOfRange, index, len(ai.elements))
	}

	ai.elements = append(ai.elements, nil)
	copy(ai.elements[index+1:], ai.elements[index:])
	ai.elements[index] = e
	e.owner = ai
	ai.changed("Elements")
	return nil
}

// Remove deletes the element at index, shifting later elements down
func (ai *TrackAI) Remove(index int) error {
	if index < 0 || index >= len(ai.elements) {
		return fmt.Errorf("%w: AI element %d of %d", romerrors.ErrOutOfRange, index, len(ai.elements))
	}
	ai.elements[index].owner = nil
	ai.elements = append(ai.elements[:index], ai.elements[index+1:]...)
	ai.changed("Elements")
	return nil
}

// Move changes the index of an element, keeping the others in order
func (ai *TrackAI) Move(from, to int) error {
	n := len(ai.elements)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d of %d", romerrors.ErrOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}

	e := ai.elements[from]
	if from < to {
		copy(ai.elements[from:to], ai.elements[from+1:to+1])
	} else {
		copy(ai.elements[to+1:from+1], ai.elements[to:from])
	}
	ai.elements[to] = e
	ai.changed("Elements")
	return nil
}

// Clear removes every element
func (ai *TrackAI) Clear() {
	if len(ai.elements) == 0 {
		return
	}
	ai.release()
	ai.elements = nil
	ai.changed("Elements")
}

// Version increases on every change to the list or its elements
func (ai *TrackAI) Version() uint64 {
	return ai.version
}

// Feed returns the change feed of the list
func (ai *TrackAI) Feed() *event.Feed {
	return &ai.feed
}

func (ai *TrackAI) adopt(elements []*Element) {
	for _, e := range elements {
		e.owner = ai
	}
	ai.elements = elements
}

func (ai *TrackAI) release() {
	for _, e := range ai.elements {
		e.owner = nil
	}
}

func (ai *TrackAI) changed(field string) {
	ai.version++
	ai.logger.Trace("🔄 AI changed", "field", field, "elements", len(ai.elements), "version", ai.version)
	ai.feed.Emit(event.Change{Source: "ai", Field: field})
}
