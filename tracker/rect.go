package tracker

import (
	"image"
	"math"
)

// Point represents the x,y coordinates of the center of a tracked bounding
// box
type Point struct {
	X, Y float64
}

// Image returns the point rounded to integer pixel coordinates for drawing
func (p Point) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Box represents an axis aligned bounding box in (x1, y1, x2, y2) format
// where (x1, y1) is the top left corner and (x2, y2) the bottom right
type Box struct {
	X1, Y1, X2, Y2 float64
}

// NewBox creates a new Box with given corner coordinates
func NewBox(x1, y1, x2, y2 float64) Box {
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// BoxFromRect creates a Box from an image rectangle
func BoxFromRect(r image.Rectangle) Box {
	return Box{
		X1: float64(r.Min.X),
		Y1: float64(r.Min.Y),
		X2: float64(r.Max.X),
		Y2: float64(r.Max.Y),
	}
}

// Centroid returns the geometric center of the box
func (b Box) Centroid() Point {
	return Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

// Valid reports whether all coordinates are finite and the box has a
// positive width and height
func (b Box) Valid() bool {

	for _, v := range [4]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Rect converts the box to an image rectangle for rendering
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(math.Round(b.X1)), int(math.Round(b.Y1)),
		int(math.Round(b.X2)), int(math.Round(b.Y2)))
}
