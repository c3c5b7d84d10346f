package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterRecord(t *testing.T) {
	c := New()

	c.Record(Event{TrackID: 1, Kind: Entry})
	c.Record(Event{TrackID: 2, Kind: Entry})
	c.Record(Event{TrackID: 3, Kind: Exit})

	assert.Equal(t, Snapshot{Entries: 2, Exits: 1, Occupancy: 1}, c.Snapshot())
}

func TestCounterNegativeOccupancy(t *testing.T) {
	c := New()

	c.Record(Event{TrackID: 1, Kind: Exit})
	c.Record(Event{TrackID: 2, Kind: Exit})

	assert.Equal(t, Snapshot{Entries: 0, Exits: 2, Occupancy: -2}, c.Snapshot())
}

func TestCounterSnapshotIdempotent(t *testing.T) {
	c := New()
	c.Record(Event{TrackID: 1, Kind: Entry})

	first := c.Snapshot()
	second := c.Snapshot()

	assert.Equal(t, first, second)
}

func TestCounterReset(t *testing.T) {
	c := New()
	c.Record(Event{TrackID: 1, Kind: Entry})
	c.Record(Event{TrackID: 2, Kind: Exit})

	c.Reset()

	assert.Equal(t, Snapshot{}, c.Snapshot())
}
