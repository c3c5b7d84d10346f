package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-footfall/counter"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
)

// CountsStyle defines the parameters used for rendering the counts panel
type CountsStyle struct {
	// Panel is the area of the semi transparent background
	Panel image.Rectangle
	// Opacity of the black panel background in the range [0,1]
	Opacity float64
	Font    Font
	// LineSpacing is the pixel distance between text baselines
	LineSpacing int
	// Colors of the Entries, Exits and Total lines
	EntryColor color.RGBA
	ExitColor  color.RGBA
	TotalColor color.RGBA
	// TTF when set draws the text with the TTF type face instead of the
	// Hershey font
	TTF font.Face
}

// DefaultCountsStyle returns default counts panel style settings
func DefaultCountsStyle() CountsStyle {

	f := DefaultFont()
	f.Scale = 0.8

	return CountsStyle{
		Panel:       image.Rect(10, 10, 300, 120),
		Opacity:     0.6,
		Font:        f,
		LineSpacing: 30,
		EntryColor:  Green,
		ExitColor:   Red,
		TotalColor:  Cyan,
	}
}

// countLine is a single line of text in the counts panel
type countLine struct {
	text string
	clr  color.RGBA
}

// countLines returns the text lines for the counts panel
func countLines(s counter.Snapshot, style CountsStyle) []countLine {
	return []countLine{
		{fmt.Sprintf("Entries: %d", s.Entries), style.EntryColor},
		{fmt.Sprintf("Exits: %d", s.Exits), style.ExitColor},
		{fmt.Sprintf("Total: %d", s.Occupancy), style.TotalColor},
	}
}

// Counts draws the entry, exit and occupancy counts over a semi transparent
// black panel
func Counts(img *gocv.Mat, s counter.Snapshot, style CountsStyle) error {

	panel := style.Panel.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))

	if !panel.Empty() {
		region := img.Region(panel)

		overlay := region.Clone()
		gocv.Rectangle(&overlay, image.Rect(0, 0, panel.Dx(), panel.Dy()), Black, -1)
		gocv.AddWeighted(overlay, style.Opacity, region, 1-style.Opacity, 0, &region)

		overlay.Close()
		region.Close()
	}

	for i, line := range countLines(s, style) {

		pt := image.Pt(style.Panel.Min.X+10, style.Panel.Min.Y+30+i*style.LineSpacing)

		if style.TTF != nil {
			if err := PutTTFText(img, style.TTF, line.text, pt, line.clr); err != nil {
				return err
			}
			continue
		}

		gocv.PutTextWithParams(img, line.text, pt, style.Font.Face,
			style.Font.Scale, line.clr, style.Font.Thickness,
			style.Font.LineType, false)
	}

	return nil
}
