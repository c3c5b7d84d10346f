package footfall

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-footfall/counter"
	"github.com/swdee/go-footfall/tracker"
)

// person returns a 40x80 detection with its centroid at x,y
func person(x, y float64) tracker.Detection {
	return tracker.NewDetection(x-20, y-40, x+20, y+40, 0.9)
}

// testEngine returns an engine for an 800x600 frame with the line at y=300
// and a 100 pixel association gate
func testEngine(t *testing.T, mutate func(*Config)) *Engine {

	t.Helper()

	cfg := DefaultConfig(800, 600)

	if mutate != nil {
		mutate(&cfg)
	}

	e, err := NewEngine(cfg)
	require.NoError(t, err)

	return e
}

func TestEngineThreePeopleEnter(t *testing.T) {
	e := testEngine(t, nil)

	require.InDelta(t, 300.0, e.LineY(), 1e-9)
	require.InDelta(t, 100.0, e.Config().MatchDistance(), 1e-9)

	var events []counter.Event

	for f := 1; f <= 11; f++ {
		y := 200 + float64(f-1)*20

		res, err := e.ProcessFrame([]tracker.Detection{
			person(100, y), person(400, y), person(700, y),
		}, f)
		require.NoError(t, err)

		events = append(events, res.Events...)
		require.Len(t, res.Tracks, 3)
	}

	require.Len(t, events, 3)

	for i, ev := range events {
		assert.Equal(t, i+1, ev.TrackID)
		assert.Equal(t, counter.Entry, ev.Kind)
		// y reaches 300 on frame 6
		assert.Equal(t, 6, ev.Frame)
	}

	assert.Equal(t, counter.Snapshot{Entries: 3, Exits: 0, Occupancy: 3}, e.Snapshot())
	assert.Equal(t, 3, e.TracksSeen())
}

func TestEngineCountsOncePerTrack(t *testing.T) {
	e := testEngine(t, nil)

	// walk down over the line then back up again
	ys := []float64{260, 280, 300, 320, 300, 280, 260}

	for i, y := range ys {
		_, err := e.ProcessFrame([]tracker.Detection{person(400, y)}, i+1)
		require.NoError(t, err)
	}

	assert.Equal(t, counter.Snapshot{Entries: 1, Exits: 0, Occupancy: 1}, e.Snapshot())
}

func TestEngineUpIsEntry(t *testing.T) {
	e := testEngine(t, func(c *Config) {
		c.Direction = counter.UpIsEntry
	})

	for i, y := range []float64{340, 320, 300} {
		_, err := e.ProcessFrame([]tracker.Detection{person(400, y)}, i+1)
		require.NoError(t, err)
	}

	assert.Equal(t, counter.Snapshot{Entries: 1, Exits: 0, Occupancy: 1}, e.Snapshot())
}

func TestEngineExpiryAndIDs(t *testing.T) {
	e := testEngine(t, func(c *Config) {
		c.ExpiryGraceFrames = 2
	})

	res, err := e.ProcessFrame([]tracker.Detection{person(100, 100)}, 1)
	require.NoError(t, err)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, 1, res.Tracks[0].ID)

	// still within grace on frames 2 and 3
	for f := 2; f <= 3; f++ {
		res, err = e.ProcessFrame(nil, f)
		require.NoError(t, err)
		assert.Len(t, res.Tracks, 1)
		assert.False(t, res.Tracks[0].Updated)
		assert.Empty(t, res.Expired)
	}

	res, err = e.ProcessFrame(nil, 4)
	require.NoError(t, err)
	assert.Empty(t, res.Tracks)
	assert.Equal(t, []int{1}, res.Expired)

	// the same position later is a new person
	res, err = e.ProcessFrame([]tracker.Detection{person(100, 100)}, 5)
	require.NoError(t, err)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, 2, res.Tracks[0].ID)
	assert.Equal(t, 1, e.LiveTracks())
}

func TestEngineAssociatesBeforeExpiry(t *testing.T) {
	e := testEngine(t, func(c *Config) {
		c.ExpiryGraceFrames = 2
	})

	_, err := e.ProcessFrame([]tracker.Detection{person(100, 100)}, 1)
	require.NoError(t, err)

	// frame 4 is past grace for the track but the detection is matched
	// first which refreshes it
	res, err := e.ProcessFrame([]tracker.Detection{person(110, 100)}, 4)
	require.NoError(t, err)

	require.Len(t, res.Tracks, 1)
	assert.Equal(t, 1, res.Tracks[0].ID)
	assert.True(t, res.Tracks[0].Updated)
	assert.Empty(t, res.Expired)
}

func TestEngineOptimalUnequalCounts(t *testing.T) {
	e := testEngine(t, func(c *Config) {
		c.MaxMatchDistance = 1e6
		c.Association = tracker.AssociateOptimal
	})

	_, err := e.ProcessFrame([]tracker.Detection{person(100, 100)}, 1)
	require.NoError(t, err)

	res, err := e.ProcessFrame([]tracker.Detection{person(700, 500), person(110, 100)}, 2)
	require.NoError(t, err)

	require.Len(t, res.Tracks, 2)
	assert.Equal(t, person(110, 100).Box, res.Tracks[0].Box)
	assert.Equal(t, 2, e.TracksSeen())

	// a track count above the detection count
	res, err = e.ProcessFrame([]tracker.Detection{person(120, 100)}, 3)
	require.NoError(t, err)

	require.Len(t, res.Tracks, 2)
	assert.True(t, res.Tracks[0].Updated)
	assert.False(t, res.Tracks[1].Updated)
}

func TestEngineTrackState(t *testing.T) {
	e := testEngine(t, func(c *Config) {
		c.TrackHistoryLength = 3
	})

	var res FrameResult
	var err error

	for f := 1; f <= 5; f++ {
		res, err = e.ProcessFrame([]tracker.Detection{person(100, float64(f*10))}, f)
		require.NoError(t, err)
	}

	want := []TrackState{{
		ID:      1,
		Box:     person(100, 50).Box,
		Score:   0.9,
		Counted: false,
		History: []tracker.Point{{X: 100, Y: 30}, {X: 100, Y: 40}, {X: 100, Y: 50}},
		Updated: true,
	}}

	if diff := cmp.Diff(want, res.Tracks); diff != "" {
		t.Errorf("track state mismatch (-want +got):\n%s", diff)
	}
}

func TestEngineDropsMalformed(t *testing.T) {
	e := testEngine(t, nil)

	res, err := e.ProcessFrame([]tracker.Detection{
		person(100, 100),
		tracker.NewDetection(50, 50, 40, 60, 0.9),
		tracker.NewDetection(math.NaN(), 0, 10, 10, 0.9),
		tracker.NewDetection(0, 0, 10, 10, 1.5),
		person(500, 100),
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Dropped)
	assert.Len(t, res.Tracks, 2)
}

func TestEngineFrameOrder(t *testing.T) {
	e := testEngine(t, nil)

	_, err := e.ProcessFrame([]tracker.Detection{person(400, 280)}, 5)
	require.NoError(t, err)

	_, err = e.ProcessFrame([]tracker.Detection{person(400, 320)}, 5)
	assert.True(t, errors.Is(err, ErrFrameOrder))

	_, err = e.ProcessFrame([]tracker.Detection{person(400, 320)}, 3)
	assert.ErrorIs(t, err, ErrFrameOrder)

	// the rejected frames left no trace
	assert.Equal(t, 1, e.LiveTracks())
	assert.Equal(t, counter.Snapshot{}, e.Snapshot())

	res, err := e.ProcessFrame([]tracker.Detection{person(400, 320)}, 6)
	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
}

func TestEngineMonotonicCounts(t *testing.T) {
	e := testEngine(t, nil)

	prev := e.Snapshot()

	// people alternate walking down and up through the line
	for f := 1; f <= 40; f++ {
		step := float64(f%10) * 15

		res, err := e.ProcessFrame([]tracker.Detection{
			person(100, 230+step),
			person(500, 370-step),
		}, f)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, res.Counts.Entries, prev.Entries)
		assert.GreaterOrEqual(t, res.Counts.Exits, prev.Exits)
		assert.Equal(t, res.Counts.Entries-res.Counts.Exits, res.Counts.Occupancy)

		prev = res.Counts
	}

	// each track is counted at most once
	assert.LessOrEqual(t, prev.Entries+prev.Exits, e.TracksSeen())
}

func TestEngineResetCounts(t *testing.T) {
	e := testEngine(t, nil)

	for i, y := range []float64{280, 320} {
		_, err := e.ProcessFrame([]tracker.Detection{person(400, y)}, i+1)
		require.NoError(t, err)
	}

	require.Equal(t, 1, e.Snapshot().Entries)

	e.ResetCounts()
	assert.Equal(t, counter.Snapshot{}, e.Snapshot())

	// the counted track does not count again
	_, err := e.ProcessFrame([]tracker.Detection{person(400, 280)}, 3)
	require.NoError(t, err)
	assert.Equal(t, counter.Snapshot{}, e.Snapshot())
}

func TestEngineReport(t *testing.T) {
	e := testEngine(t, nil)

	for i, y := range []float64{280, 320} {
		_, err := e.ProcessFrame([]tracker.Detection{person(400, y), person(100, 600-y)}, i+1)
		require.NoError(t, err)
	}

	r := e.Report(2)

	assert.Equal(t, Report{
		TotalEntries: 1,
		TotalExits:   1,
		Occupancy:    0,
		Frames:       2,
		TracksSeen:   2,
	}, r)

	out := r.String()
	assert.True(t, strings.HasPrefix(out, strings.Repeat("=", 50)))
	assert.Contains(t, out, "FINAL FOOTFALL COUNT")
	assert.Contains(t, out, "Total Entries: 1\n")
	assert.Contains(t, out, "Total Exits: 1\n")
	assert.Contains(t, out, "Current Occupancy: 0\n")
	assert.Contains(t, out, "Total Frames Processed: 2\n")
}
