package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-footfall"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the bounding box.  If set to false then each
	// track is given its own color from the track palette, or LineColor if
	// set
	LineSame      bool
	LineColor     *color.RGBA
	LineThickness int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      true,
		LineThickness: 2,
	}
}

// Trails draws the trajectory polyline of each track through its centroid
// history
func Trails(img *gocv.Mat, tracks []footfall.TrackState, style TrailStyle) {

	for _, tr := range tracks {

		if len(tr.History) < 2 {
			continue
		}

		lineClr := trackColor(tr.Counted)

		if !style.LineSame {
			lineClr = idColor(tr.ID)

			if style.LineColor != nil {
				lineClr = *style.LineColor
			}
		}

		pts := trailPoints(tr)

		// draw trail
		for i := 1; i < len(pts); i++ {
			gocv.Line(img, pts[i-1], pts[i], lineClr, style.LineThickness)
		}
	}
}

// trailPoints converts the track history to pixel points
func trailPoints(tr footfall.TrackState) []image.Point {

	pts := make([]image.Point, len(tr.History))

	for i, p := range tr.History {
		pts[i] = p.Image()
	}

	return pts
}
