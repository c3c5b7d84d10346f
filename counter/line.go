package counter

import (
	"fmt"
	"strings"

	"github.com/swdee/go-footfall/tracker"
)

// Direction defines which way across the counting line is an entry
type Direction int

const (
	// DownIsEntry counts a track moving down the frame (increasing y) over
	// the line as an entry and moving up as an exit
	DownIsEntry Direction = 0
	// UpIsEntry counts a track moving up the frame over the line as an entry
	// and moving down as an exit
	UpIsEntry Direction = 1
)

// String returns the flag name of the direction
func (d Direction) String() string {
	switch d {
	case DownIsEntry:
		return "down"
	case UpIsEntry:
		return "up"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection converts a flag value of "down" or "up" into a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "down", "":
		return DownIsEntry, nil
	case "up":
		return UpIsEntry, nil
	default:
		return 0, fmt.Errorf("unknown direction %q, use 'down' or 'up'", s)
	}
}

// EventKind is the type of crossing event
type EventKind int

const (
	Entry EventKind = iota
	Exit
)

// String returns the name of the event kind
func (k EventKind) String() string {
	switch k {
	case Entry:
		return "entry"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is emitted when a track crosses the counting line
type Event struct {
	// TrackID is the ID of the track that crossed
	TrackID int
	// Kind is whether the crossing counted as an entry or exit
	Kind EventKind
	// Frame is the frame index the crossing was observed on
	Frame int
	// Position is the track centroid after crossing the line
	Position tracker.Point
}

// CrossingDetector decides whether a track has crossed a horizontal
// counting line between its last two centroid points
type CrossingDetector struct {
	lineY     float64
	direction Direction
}

// NewCrossingDetector returns a CrossingDetector for a horizontal line at
// lineY pixels from the top of the frame
func NewCrossingDetector(lineY float64, dir Direction) *CrossingDetector {
	return &CrossingDetector{
		lineY:     lineY,
		direction: dir,
	}
}

// LineY returns the y coordinate of the counting line
func (c *CrossingDetector) LineY() float64 {
	return c.lineY
}

// Direction returns the entry direction in use
func (c *CrossingDetector) Direction() Direction {
	return c.direction
}

// Check tests the track's two most recent centroids against the counting
// line.  When a crossing occurs the track is marked counted and the event
// returned.  Tracks already counted or with fewer than two history points
// never produce an event
func (c *CrossingDetector) Check(t *tracker.Track, frame int) (Event, bool) {

	if t.Counted() || t.Len() < 2 {
		return Event{}, false
	}

	history := t.History()
	prev := history[len(history)-2]
	curr := history[len(history)-1]

	var down bool

	// a point landing exactly on the line counts as having crossed it, a
	// point starting on the line has not yet crossed
	switch {
	case prev.Y < c.lineY && curr.Y >= c.lineY:
		down = true
	case prev.Y > c.lineY && curr.Y <= c.lineY:
		down = false
	default:
		return Event{}, false
	}

	kind := Exit

	if down == (c.direction == DownIsEntry) {
		kind = Entry
	}

	t.MarkCounted()

	return Event{
		TrackID:  t.ID(),
		Kind:     kind,
		Frame:    frame,
		Position: curr,
	}, true
}
