package footfall

import (
	"fmt"
	"strings"
)

// Report is the summary of a counting run
type Report struct {
	TotalEntries int
	TotalExits   int
	Occupancy    int
	// Frames is the number of frames processed
	Frames int
	// TracksSeen is the number of distinct tracks created
	TracksSeen int
}

// Report returns the run summary given the number of frames processed
func (e *Engine) Report(frames int) Report {

	snap := e.counter.Snapshot()

	return Report{
		TotalEntries: snap.Entries,
		TotalExits:   snap.Exits,
		Occupancy:    snap.Occupancy,
		Frames:       frames,
		TracksSeen:   e.store.Spawned(),
	}
}

// String renders the report as the final count banner
func (r Report) String() string {

	rule := strings.Repeat("=", 50)

	var b strings.Builder

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "FINAL FOOTFALL COUNT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total Entries: %d\n", r.TotalEntries)
	fmt.Fprintf(&b, "Total Exits: %d\n", r.TotalExits)
	fmt.Fprintf(&b, "Current Occupancy: %d\n", r.Occupancy)
	fmt.Fprintf(&b, "Total Frames Processed: %d\n", r.Frames)
	fmt.Fprintf(&b, "Total Tracks: %d\n", r.TracksSeen)
	fmt.Fprint(&b, rule)

	return b.String()
}
