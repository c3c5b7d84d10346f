package counter

// Snapshot is a point in time copy of the footfall counts
type Snapshot struct {
	Entries int
	Exits   int
	// Occupancy is Entries minus Exits.  It is not clamped and goes negative
	// when more exits than entries have been observed
	Occupancy int
}

// Counter accumulates entry and exit events
type Counter struct {
	entries int
	exits   int
}

// New returns a Counter with zero counts
func New() *Counter {
	return &Counter{}
}

// Record applies a crossing event to the counts
func (c *Counter) Record(e Event) {
	switch e.Kind {
	case Entry:
		c.entries++
	case Exit:
		c.exits++
	}
}

// Snapshot returns the current counts without changing them
func (c *Counter) Snapshot() Snapshot {
	return Snapshot{
		Entries:   c.entries,
		Exits:     c.exits,
		Occupancy: c.entries - c.exits,
	}
}

// Reset sets all counts back to zero
func (c *Counter) Reset() {
	c.entries = 0
	c.exits = 0
}
