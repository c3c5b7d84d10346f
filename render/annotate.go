package render

import (
	"github.com/swdee/go-footfall"
	"gocv.io/x/gocv"
)

// Style groups the style settings of every overlay
type Style struct {
	Font          Font
	LineThickness int
	Trail         TrailStyle
	Line          LineStyle
	Counts        CountsStyle
	// ShowScore appends the detection score to each track label
	ShowScore bool
	// ShowUnmatched draws tracks that had no detection on the current frame
	// and are waiting to expire
	ShowUnmatched bool
}

// DefaultStyle returns the default overlay style settings
func DefaultStyle() Style {
	return Style{
		Font:          DefaultFont(),
		LineThickness: 2,
		Trail:         DefaultTrailStyle(),
		Line:          DefaultLineStyle(),
		Counts:        DefaultCountsStyle(),
	}
}

// Annotate draws the counting line, track trails, track boxes and the counts
// panel for a processed frame
func Annotate(img *gocv.Mat, res footfall.FrameResult, lineY float64, style Style) error {

	tracks := visibleTracks(res.Tracks, style.ShowUnmatched)

	CountingLine(img, lineY, style.Line)
	Trails(img, tracks, style.Trail)
	Tracks(img, tracks, style.Font, style.LineThickness, style.ShowScore)

	return Counts(img, res.Counts, style.Counts)
}

// visibleTracks returns the tracks to draw on the current frame
func visibleTracks(tracks []footfall.TrackState, showUnmatched bool) []footfall.TrackState {

	if showUnmatched {
		return tracks
	}

	visible := make([]footfall.TrackState, 0, len(tracks))

	for _, tr := range tracks {
		if tr.Updated {
			visible = append(visible, tr)
		}
	}

	return visible
}
