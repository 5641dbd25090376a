package ai

import (
	"bytes"
	"errors"
	"testing"

	romerrors "github.com/kartedit/kartedit/pkg/rom/errors"
	"github.com/kartedit/kartedit/pkg/rom/event"
)

// Two elements: a rectangle and a bottom-left triangle
var sampleBlock = []byte{
	0x02,
	0x00, 0x02, 0x03, 0x04, 0x05, // rectangle x=4 y=6 w=8 h=10
	0x08, 0x10, 0x11, 0x03, // triangle x=32 y=34 size=6
	0x05, 0x07, 0x82, // target 5,7 speed 2 intersection
	0x22, 0x24, 0x4D, // target 34,36 speed 1 extra bits
}

func TestDecode(t *testing.T) {
	ai, n, err := Decode(append(bytes.Clone(sampleBlock), 0xFF, 0xFF))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(sampleBlock) {
		t.Errorf("consumed %d bytes, want %d", n, len(sampleBlock))
	}
	if ai.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ai.Len())
	}

	first, _ := ai.Element(0)
	if first.Shape() != Rectangle || first.Area() != (Area{4, 6, 8, 10}) {
		t.Errorf("element 0 = %v %+v", first.Shape(), first.Area())
	}
	if first.Target() != (Point{5, 7}) || first.Speed() != 2 || !first.IsIntersection() {
		t.Errorf("element 0 target %+v speed %d intersection %v", first.Target(), first.Speed(), first.IsIntersection())
	}

	second, _ := ai.Element(1)
	if second.Shape() != TriangleBottomLeft || second.Area() != (Area{32, 34, 6, 6}) {
		t.Errorf("element 1 = %v %+v", second.Shape(), second.Area())
	}
	if second.Speed() != 1 || second.IsIntersection() {
		t.Errorf("element 1 speed %d intersection %v", second.Speed(), second.IsIntersection())
	}

	if got := ai.Bytes(); !bytes.Equal(got, sampleBlock) {
		t.Errorf("Bytes() = % X\nwant      % X", got, sampleBlock)
	}
	if ai.EncodedSize() != len(sampleBlock) {
		t.Errorf("EncodedSize() = %d", ai.EncodedSize())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too many elements", []byte{MaxElementCount + 1}},
		{"unknown shape", []byte{0x01, 0x01, 0, 0, 1, 0, 0, 0}},
		{"truncated zone", []byte{0x01, 0x00, 0x01}},
		{"truncated targets", sampleBlock[:len(sampleBlock)-1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(tt.data); !errors.Is(err, romerrors.ErrInvalidFormat) {
				t.Errorf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestEmptyBlock(t *testing.T) {
	ai, n, err := Decode([]byte{0x00})
	if err != nil || n != 1 || ai.Len() != 0 {
		t.Fatalf("Decode(empty) = %d elements, %d bytes, %v", ai.Len(), n, err)
	}
	if !bytes.Equal(ai.Bytes(), []byte{0x00}) {
		t.Errorf("Bytes() = % X", ai.Bytes())
	}
}

func TestElementSpeed(t *testing.T) {
	e := mustElement(t, Rectangle, Area{0, 0, 2, 2}, Point{0, 0})
	if err := e.SetSpeed(3); err != nil {
		t.Fatalf("SetSpeed(3): %v", err)
	}
	if err := e.SetSpeed(4); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("SetSpeed(4): expected ErrOutOfRange, got %v", err)
	}
	if err := e.SetSpeed(-1); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("SetSpeed(-1): expected ErrOutOfRange, got %v", err)
	}
	if e.Speed() != 3 {
		t.Errorf("Speed() = %d, want 3", e.Speed())
	}
}

func TestElementValidation(t *testing.T) {
	if _, err := NewElement(TriangleTopLeft, Area{0, 0, 2, 4}, Point{0, 0}); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("non-square triangle: expected ErrOutOfRange, got %v", err)
	}
	if _, err := NewElement(Rectangle, Area{1, 0, 2, 2}, Point{0, 0}); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("unaligned area: expected ErrOutOfRange, got %v", err)
	}
	if _, err := NewElement(Rectangle, Area{126, 0, 4, 2}, Point{0, 0}); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("area past map: expected ErrOutOfRange, got %v", err)
	}
	if _, err := NewElement(Rectangle, Area{0, 0, 2, 2}, Point{128, 0}); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("target past map: expected ErrOutOfRange, got %v", err)
	}
	if _, err := NewElement(Shape(0x03), Area{0, 0, 2, 2}, Point{0, 0}); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("unknown shape: expected ErrOutOfRange, got %v", err)
	}

	e := mustElement(t, Rectangle, Area{0, 0, 4, 8}, Point{0, 0})
	if err := e.SetShape(TriangleTopRight); err != nil {
		t.Fatal(err)
	}
	if e.Area() != (Area{0, 0, 4, 4}) {
		t.Errorf("triangle area = %+v, want square 4x4", e.Area())
	}
	if err := e.SetArea(Area{0, 0, 4, 6}); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("non-square SetArea on triangle: expected ErrOutOfRange, got %v", err)
	}
}

func TestTrackAIListOperations(t *testing.T) {
	ai := New()
	var elements []*Element
	for i := 0; i < 4; i++ {
		e := mustElement(t, Rectangle, Area{i * 2, 0, 2, 2}, Point{i, 0})
		if _, err := ai.Add(e); err != nil {
			t.Fatal(err)
		}
		elements = append(elements, e)
	}

	order := func() []int {
		var idx []int
		for _, e := range ai.Elements() {
			for i, original := range elements {
				if e == original {
					idx = append(idx, i)
				}
			}
		}
		return idx
	}
	check := func(want ...int) {
		t.Helper()
		got := order()
		if len(got) != len(want) {
			t.Fatalf("order = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order = %v, want %v", got, want)
			}
		}
	}

	if err := ai.Move(0, 3); err != nil {
		t.Fatal(err)
	}
	check(1, 2, 3, 0)

	if err := ai.Move(3, 1); err != nil {
		t.Fatal(err)
	}
	check(1, 0, 2, 3)

	if err := ai.Remove(2); err != nil {
		t.Fatal(err)
	}
	check(1, 0, 3)

	clone := elements[1].Clone()
	if err := ai.Insert(clone, 1); err != nil {
		t.Fatal(err)
	}
	if ai.IndexOf(clone) != 1 || ai.IndexOf(elements[2]) != -1 {
		t.Errorf("IndexOf clone = %d, removed = %d", ai.IndexOf(clone), ai.IndexOf(elements[2]))
	}

	if err := ai.Insert(elements[0], 0); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("inserting an owned element: expected ErrOutOfRange, got %v", err)
	}
	if err := ai.Move(0, 9); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := ai.Remove(-1); !errors.Is(err, romerrors.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}

	ai.Clear()
	if ai.Len() != 0 {
		t.Errorf("Len() after Clear = %d", ai.Len())
	}
}

func TestTrackAICapacity(t *testing.T) {
	ai := New()
	for i := 0; i < MaxElementCount; i++ {
		e := mustElement(t, Rectangle, Area{0, 0, 2, 2}, Point{0, 0})
		if _, err := ai.Add(e); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}
	e := mustElement(t, Rectangle, Area{0, 0, 2, 2}, Point{0, 0})
	if _, err := ai.Add(e); !errors.Is(err, romerrors.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestTrackAIChangeTracking(t *testing.T) {
	ai, _, err := Decode(sampleBlock)
	if err != nil {
		t.Fatal(err)
	}

	var changes []event.Change
	ai.Feed().Subscribe(func(c event.Change) { changes = append(changes, c) })
	start := ai.Version()

	e, _ := ai.Element(0)
	if err := e.SetSpeed(e.Speed()); err != nil {
		t.Fatal(err)
	}
	if ai.Version() != start || len(changes) != 0 {
		t.Error("setting an unchanged value produced a change")
	}

	if err := e.SetTarget(Point{9, 9}); err != nil {
		t.Fatal(err)
	}
	e.SetIntersection(false)
	if ai.Version() != start+2 || len(changes) != 2 {
		t.Errorf("version advanced by %d with %d changes, want 2", ai.Version()-start, len(changes))
	}

	// Removed elements no longer notify the list
	if err := ai.Remove(0); err != nil {
		t.Fatal(err)
	}
	v := ai.Version()
	if err := e.SetSpeed(0); err != nil {
		t.Fatal(err)
	}
	if ai.Version() != v {
		t.Error("a removed element still changes the list version")
	}
}

func TestTrackAILoadKeepsListOnError(t *testing.T) {
	ai, _, err := Decode(sampleBlock)
	if err != nil {
		t.Fatal(err)
	}
	if err := ai.Load([]byte{0x01, 0x0A}); !errors.Is(err, romerrors.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if !bytes.Equal(ai.Bytes(), sampleBlock) {
		t.Error("failed Load changed the list")
	}
	if err := ai.Load([]byte{0x00}); err != nil {
		t.Fatal(err)
	}
	if ai.Len() != 0 {
		t.Errorf("Len() = %d after loading an empty block", ai.Len())
	}
}
