package footfall

import (
	"errors"
	"fmt"
	"math"

	"github.com/swdee/go-footfall/counter"
	"github.com/swdee/go-footfall/tracker"
)

// ErrInvalidConfig is returned by NewEngine when a Config value is out of
// range
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the parameters of a tracking and counting engine.  It is
// read once when the Engine is created
type Config struct {
	// FrameWidth and FrameHeight are the video frame dimensions in pixels
	FrameWidth  int
	FrameHeight int
	// LinePosition is the counting line position as a fraction of frame
	// height measured from the top, in the range [0,1]
	LinePosition float64
	// MaxMatchDistance is the association gate in pixels.  A detection is
	// only matched to a track if its centroid is closer than this.  When
	// zero the gate is derived from MatchDistanceRatio
	MaxMatchDistance float64
	// MatchDistanceRatio is the association gate as a fraction of the frame
	// diagonal, used when MaxMatchDistance is zero
	MatchDistanceRatio float64
	// TrackHistoryLength is the number of centroid points kept per track
	TrackHistoryLength int
	// ExpiryGraceFrames is the number of frames a track may go unmatched
	// before it is removed
	ExpiryGraceFrames int
	// Direction selects which way across the line counts as an entry
	Direction counter.Direction
	// Association selects the detection to track matching policy
	Association tracker.AssociationMode
}

// DefaultConfig returns the default engine configuration for the given frame
// size.  The counting line is placed across the middle of the frame and
// people moving down the frame are counted as entering
func DefaultConfig(width, height int) Config {
	return Config{
		FrameWidth:         width,
		FrameHeight:        height,
		LinePosition:       0.5,
		MaxMatchDistance:   0,
		MatchDistanceRatio: 0.1,
		TrackHistoryLength: 30,
		ExpiryGraceFrames:  30,
		Direction:          counter.DownIsEntry,
		Association:        tracker.AssociateGreedy,
	}
}

// Validate checks every field of the configuration and returns an error
// wrapping ErrInvalidConfig for the first one out of range
func (c Config) Validate() error {

	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("%w: frame size %dx%d must be positive",
			ErrInvalidConfig, c.FrameWidth, c.FrameHeight)
	}

	if math.IsNaN(c.LinePosition) || c.LinePosition < 0 || c.LinePosition > 1 {
		return fmt.Errorf("%w: line position %v outside [0,1]",
			ErrInvalidConfig, c.LinePosition)
	}

	if !finite(c.MaxMatchDistance) || c.MaxMatchDistance < 0 {
		return fmt.Errorf("%w: max match distance %v must be finite and not negative",
			ErrInvalidConfig, c.MaxMatchDistance)
	}

	if !finite(c.MatchDistanceRatio) || c.MatchDistanceRatio < 0 {
		return fmt.Errorf("%w: match distance ratio %v must be finite and not negative",
			ErrInvalidConfig, c.MatchDistanceRatio)
	}

	if c.MaxMatchDistance == 0 && c.MatchDistanceRatio == 0 {
		return fmt.Errorf("%w: one of max match distance or match distance ratio must be set",
			ErrInvalidConfig)
	}

	if gate := c.MatchDistance(); !finite(gate) {
		return fmt.Errorf("%w: match distance %v overflows", ErrInvalidConfig, gate)
	}

	if c.TrackHistoryLength < 2 {
		return fmt.Errorf("%w: track history length %d must be at least 2",
			ErrInvalidConfig, c.TrackHistoryLength)
	}

	if c.ExpiryGraceFrames < 1 {
		return fmt.Errorf("%w: expiry grace frames %d must be at least 1",
			ErrInvalidConfig, c.ExpiryGraceFrames)
	}

	switch c.Direction {
	case counter.DownIsEntry, counter.UpIsEntry:
	default:
		return fmt.Errorf("%w: unknown direction %v", ErrInvalidConfig, c.Direction)
	}

	switch c.Association {
	case tracker.AssociateGreedy, tracker.AssociateOptimal:
	default:
		return fmt.Errorf("%w: unknown association mode %v", ErrInvalidConfig, c.Association)
	}

	return nil
}

// LineY returns the counting line y coordinate in pixels
func (c Config) LineY() float64 {
	return c.LinePosition * float64(c.FrameHeight)
}

// MatchDistance returns the association gate in pixels, deriving it from the
// frame diagonal when MaxMatchDistance is not set
func (c Config) MatchDistance() float64 {

	if c.MaxMatchDistance > 0 {
		return c.MaxMatchDistance
	}

	diagonal := math.Hypot(float64(c.FrameWidth), float64(c.FrameHeight))

	return c.MatchDistanceRatio * diagonal
}

// finite reports whether v is neither NaN nor infinite
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
