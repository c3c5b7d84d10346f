package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-footfall"
	"gocv.io/x/gocv"
)

// boxLabel holds the precalculated rendering details of a track label
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// trackLabel returns the "ID: n" label text of a track, followed by the
// detection score when showScore is set
func trackLabel(tr footfall.TrackState, showScore bool) string {

	if showScore {
		return fmt.Sprintf("ID: %d %.2f", tr.ID, tr.Score)
	}

	return fmt.Sprintf("ID: %d", tr.ID)
}

// Tracks renders the bounding box, "ID: n" label and centroid dot of each
// live track.  Counted tracks are drawn in green and uncounted ones in blue
func Tracks(img *gocv.Mat, tracks []footfall.TrackState, font Font,
	lineThickness int, showScore bool) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(tracks))

	for _, tr := range tracks {

		useClr := trackColor(tr.Counted)
		rect := tr.Box.Rect()

		// draw rectangle around tracked person
		gocv.Rectangle(img, rect, useClr, lineThickness)

		// draw centroid of the most recent position
		if len(tr.History) > 0 {
			gocv.Circle(img, tr.History[len(tr.History)-1].Image(), 4, useClr, -1)
		}

		text := trackLabel(tr, showScore)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var textX int

		switch font.Alignment {
		case Center:
			textX = (rect.Min.X+rect.Max.X)/2 - textSize.X/2

		case Right:
			textX = rect.Max.X - textSize.X

		case Left:
			fallthrough
		default:
			textX = rect.Min.X
		}

		boxLabels = append(boxLabels, boxLabel{
			clr:     useClr,
			text:    text,
			textPos: image.Pt(textX, rect.Min.Y-font.BottomPad),
		})
	}

	// draw all labels last so they are the top most layer on the image and
	// don't get overlapped by other tracks boxes
	for _, label := range boxLabels {
		gocv.PutTextWithParams(img, label.text, label.textPos,
			font.Face, font.Scale, label.clr, font.Thickness,
			font.LineType, false)
	}
}
