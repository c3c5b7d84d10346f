package render

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// LineStyle defines the parameters used for rendering the counting line
type LineStyle struct {
	Color     color.RGBA
	Thickness int
	// Caption is drawn just above the left end of the line, empty for none
	Caption string
	Font    Font
}

// DefaultLineStyle returns default counting line style settings
func DefaultLineStyle() LineStyle {

	f := DefaultFont()
	f.Scale = 0.6
	f.Color = Yellow

	return LineStyle{
		Color:     Yellow,
		Thickness: 3,
		Caption:   "COUNTING LINE",
		Font:      f,
	}
}

// CountingLine draws the horizontal counting line across the full width of
// the image at lineY
func CountingLine(img *gocv.Mat, lineY float64, style LineStyle) {

	y := int(math.Round(lineY))

	gocv.Line(img, image.Pt(0, y), image.Pt(img.Cols(), y), style.Color, style.Thickness)

	if style.Caption == "" {
		return
	}

	gocv.PutTextWithParams(img, style.Caption, image.Pt(10, y-10),
		style.Font.Face, style.Font.Scale, style.Font.Color, style.Font.Thickness,
		style.Font.LineType, false)
}
