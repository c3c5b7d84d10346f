package eventlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-footfall"
	"github.com/swdee/go-footfall/counter"
	"github.com/swdee/go-footfall/tracker"
)

func openTestLog(t *testing.T) *Log {

	t.Helper()

	l, err := Open(context.Background(), filepath.Join(t.TempDir(), "footfall.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		l.Close()
	})

	return l
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	cfg := footfall.DefaultConfig(1280, 720)

	runID, err := l.StartRun(ctx, "people.mp4", cfg)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := l.Run(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "people.mp4", run.Source)
	assert.Equal(t, 1280, run.FrameWidth)
	assert.Equal(t, 720, run.FrameHeight)
	assert.Equal(t, 360.0, run.LineY)
	assert.Equal(t, "down", run.Direction)
	assert.Equal(t, "greedy", run.Association)
	assert.True(t, run.Finished.IsZero())
	assert.Nil(t, run.Report)

	report := footfall.Report{TotalEntries: 4, TotalExits: 1, Occupancy: 3, Frames: 900, TracksSeen: 7}
	require.NoError(t, l.FinishRun(ctx, runID, report))

	run, err = l.Run(ctx, runID)
	require.NoError(t, err)
	assert.False(t, run.Finished.IsZero())
	require.NotNil(t, run.Report)
	assert.Equal(t, report, *run.Report)
}

func TestRecordEvents(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	runID, err := l.StartRun(ctx, "0", footfall.DefaultConfig(640, 480))
	require.NoError(t, err)

	require.NoError(t, l.RecordEvents(ctx, runID, nil))

	require.NoError(t, l.RecordEvents(ctx, runID, []counter.Event{
		{TrackID: 3, Kind: counter.Exit, Frame: 12, Position: tracker.Point{X: 50, Y: 239}},
	}))
	require.NoError(t, l.RecordEvents(ctx, runID, []counter.Event{
		{TrackID: 1, Kind: counter.Entry, Frame: 10, Position: tracker.Point{X: 100, Y: 241}},
		{TrackID: 2, Kind: counter.Entry, Frame: 10, Position: tracker.Point{X: 300, Y: 245.5}},
	}))

	crossings, err := l.Crossings(ctx, runID)
	require.NoError(t, err)
	require.Len(t, crossings, 3)

	assert.Equal(t, 1, crossings[0].TrackID)
	assert.Equal(t, "entry", crossings[0].Kind)
	assert.Equal(t, 2, crossings[1].TrackID)
	assert.Equal(t, tracker.Point{X: 300, Y: 245.5}, crossings[1].Position)
	assert.Equal(t, 3, crossings[2].TrackID)
	assert.Equal(t, "exit", crossings[2].Kind)
	assert.Equal(t, 12, crossings[2].Frame)

	// other runs are kept separate
	other, err := l.StartRun(ctx, "1", footfall.DefaultConfig(640, 480))
	require.NoError(t, err)

	crossings, err = l.Crossings(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, crossings)
}

func TestUnknownRun(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	_, err := l.Run(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	err = l.FinishRun(ctx, "missing", footfall.Report{})
	assert.ErrorIs(t, err, ErrRunNotFound)

	// crossings must belong to a known run
	err = l.RecordEvents(ctx, "missing", []counter.Event{
		{TrackID: 1, Kind: counter.Entry, Frame: 1, Position: tracker.Point{X: 1, Y: 1}},
	})
	assert.Error(t, err)
}

func TestConnectionPragmas(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	// hold several connections at once so the pool has to open new ones
	for i := 0; i < 3; i++ {
		conn, err := l.Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()

		var timeout, fk int

		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))

		assert.Equal(t, 5000, timeout, "connection %d", i)
		assert.Equal(t, 1, fk, "connection %d", i)
	}
}
