package ai

// TileSize is the width and height of a tile in pixels
const TileSize = 8

// Rect is a pixel rectangle. Width and Height are inclusive spans, so a
// single tile is {0, 0, 7, 7}.
type Rect struct {
	X, Y, Width, Height int
}

// RectangleFor returns the pixel rectangle covered by the element area
func RectangleFor(e *Element) Rect {
	a := e.area
	return Rect{
		X:      a.X * TileSize,
		Y:      a.Y * TileSize,
		Width:  a.Width*TileSize - 1,
		Height: a.Height*TileSize - 1,
	}
}

// Triangle returns the grid vertices of a triangle area as a closed
// polygon of 4 points. The right-angle vertex is at index 2 and the first
// point is repeated last. Rectangle elements return nil.
func (e *Element) Triangle() []Point {
	a := e.area
	tl := Point{a.X, a.Y}
	tr := Point{a.Right(), a.Y}
	br := Point{a.Right(), a.Bottom()}
	bl := Point{a.X, a.Bottom()}

	switch e.shape {
	case TriangleTopLeft:
		return []Point{tr, bl, tl, tr}
	case TriangleTopRight:
		return []Point{br, tl, tr, br}
	case TriangleBottomRight:
		return []Point{tr, bl, br, tr}
	case TriangleBottomLeft:
		return []Point{tl, br, bl, tl}
	}
	return nil
}

// TriangleFor returns the pixel polygon of a triangle area, corrected so
// adjoining areas meet without gaps or overlap when drawn tile by tile.
// Rectangle elements return nil.
func TriangleFor(e *Element) []Point {
	points := e.Triangle()
	if points == nil {
		return nil
	}

	var stepX, stepY int
	switch e.shape {
	case TriangleTopLeft:
		stepX, stepY = 1, 1
	case TriangleTopRight:
		stepX, stepY = 0, 1
	case TriangleBottomRight:
		stepX, stepY = 0, 0
	case TriangleBottomLeft:
		stepX, stepY = 1, 0
	}

	pixels := make([]Point, len(points))
	for i, p := range points {
		x, y := p.X*TileSize, p.Y*TileSize
		if p.X != e.area.X {
			x -= stepX
		}
		if p.Y != e.area.Y {
			y -= stepY
		}
		pixels[i] = Point{x, y}
	}

	switch e.shape {
	case TriangleTopRight:
		pixels[0].X--
		pixels[2].X--
		pixels[3].X--
	case TriangleBottomRight:
		pixels[0].X--
		pixels[1].Y--
		pixels[2].X--
		pixels[2].Y--
		pixels[3].X--
	case TriangleBottomLeft:
		pixels[1].Y--
		pixels[2].Y--
	}

	return pixels
}

// CoveringRectangle returns the smallest area, in tiles, holding both the
// area and the target tile. A target lying inside the area span on an axis,
// including on its starting edge, does not extend that axis.
func CoveringRectangle(area Area, target Point) Area {
	x, width := cover(area.X, area.Width, target.X)
	y, height := cover(area.Y, area.Height, target.Y)
	return Area{X: x, Y: y, Width: width, Height: height}
}

func cover(start, size, target int) (int, int) {
	end := start + size
	if start <= target {
		if target >= end {
			return start, target - start + 1
		}
		return start, size
	}
	return target, end - target
}
