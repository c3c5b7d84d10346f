package footfall

import (
	"errors"
	"fmt"

	"github.com/swdee/go-footfall/counter"
	"github.com/swdee/go-footfall/tracker"
)

// ErrFrameOrder is returned by ProcessFrame when the frame index does not
// increase from the previous call
var ErrFrameOrder = errors.New("frame index not increasing")

// TrackState is a read only view of a live track after a frame was processed
type TrackState struct {
	ID      int
	Box     tracker.Box
	Counted bool
	// Score is the confidence of the track's most recent detection
	Score float64
	// History is a copy of the track's centroid history, oldest first
	History []tracker.Point
	// Updated is true if the track was matched or created on this frame
	Updated bool
}

// FrameResult is the outcome of processing a single frame
type FrameResult struct {
	// Frame is the frame index processed
	Frame int
	// Tracks are all live tracks in ascending ID order
	Tracks []TrackState
	// Events are the crossings observed on this frame in ascending track ID
	// order
	Events []counter.Event
	// Expired are the IDs of tracks removed on this frame
	Expired []int
	// Dropped is the number of malformed detections discarded
	Dropped int
	// Counts are the counts after this frame
	Counts counter.Snapshot
}

// Engine tracks people across frames from their detections and counts them
// as they cross a horizontal line.  An Engine is not safe for concurrent use
type Engine struct {
	cfg        Config
	store      *tracker.Store
	associator *tracker.Associator
	crossing   *counter.CrossingDetector
	counter    *counter.Counter
	// lastFrame is the frame index of the previous call to ProcessFrame
	lastFrame int
	// started is set after the first frame is processed
	started bool
}

// NewEngine validates the configuration and returns a new Engine
func NewEngine(cfg Config) (*Engine, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:        cfg,
		store:      tracker.NewStore(cfg.TrackHistoryLength),
		associator: tracker.NewAssociator(cfg.MatchDistance(), cfg.Association),
		crossing:   counter.NewCrossingDetector(cfg.LineY(), cfg.Direction),
		counter:    counter.New(),
	}, nil
}

// ProcessFrame associates the frame's person detections with the live
// tracks, spawns and expires tracks, and counts any line crossings.  Frame
// indices must strictly increase between calls
func (e *Engine) ProcessFrame(dets []tracker.Detection, frame int) (FrameResult, error) {

	if e.started && frame <= e.lastFrame {
		return FrameResult{}, fmt.Errorf("%w: got %d after %d", ErrFrameOrder, frame, e.lastFrame)
	}

	e.started = true
	e.lastFrame = frame

	dets, dropped := tracker.FilterValid(dets)

	// match against all tracks that survived the previous frame
	assign := e.associator.Associate(e.store.Live(), dets)

	for _, m := range assign.Matches {
		m.Track.Update(dets[m.Detection], frame)
	}

	for _, di := range assign.Unmatched {
		e.store.Spawn(dets[di], frame)
	}

	var expired []int

	for _, t := range e.store.Expire(frame, e.cfg.ExpiryGraceFrames) {
		expired = append(expired, t.ID())
	}

	live := e.store.Live()

	var events []counter.Event

	for _, t := range live {

		// only tracks matched or created on this frame can cross
		if t.LastSeen() != frame {
			continue
		}

		if ev, ok := e.crossing.Check(t, frame); ok {
			e.counter.Record(ev)
			events = append(events, ev)
		}
	}

	states := make([]TrackState, 0, len(live))

	for _, t := range live {
		states = append(states, TrackState{
			ID:      t.ID(),
			Box:     t.Box(),
			Score:   t.Score(),
			Counted: t.Counted(),
			History: t.History(),
			Updated: t.LastSeen() == frame,
		})
	}

	return FrameResult{
		Frame:   frame,
		Tracks:  states,
		Events:  events,
		Expired: expired,
		Dropped: dropped,
		Counts:  e.counter.Snapshot(),
	}, nil
}

// Snapshot returns the current counts
func (e *Engine) Snapshot() counter.Snapshot {
	return e.counter.Snapshot()
}

// ResetCounts sets the entry, exit and occupancy counts back to zero.
// Tracks are kept and any track already counted stays counted
func (e *Engine) ResetCounts() {
	e.counter.Reset()
}

// LineY returns the counting line y coordinate in pixels
func (e *Engine) LineY() float64 {
	return e.crossing.LineY()
}

// Config returns the configuration the engine was created with
func (e *Engine) Config() Config {
	return e.cfg
}

// LiveTracks returns the number of tracks currently live
func (e *Engine) LiveTracks() int {
	return e.store.Len()
}

// TracksSeen returns the number of tracks created since the engine started
func (e *Engine) TracksSeen() int {
	return e.store.Spawned()
}
