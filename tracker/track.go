package tracker

// Track represents a single tracked person across frames with a bounded
// history of centroid points used for line crossing and drawing a trail
type Track struct {
	// id is the unique track identity, never reused
	id int
	// size is the maximum number of most recent points to keep in history
	size int
	// history of centroid points, oldest first
	history []Point
	// box is the most recent bounding box
	box Box
	// score is the confidence of the most recent detection
	score float64
	// lastSeen is the frame index of the most recent association
	lastSeen int
	// counted is set once the track has triggered a crossing event
	counted bool
}

// newTrack creates a track from its first detection
func newTrack(id, size int, det Detection, frame int) *Track {

	t := &Track{
		id:      id,
		size:    size,
		history: make([]Point, 0, size),
	}

	t.Update(det, frame)

	return t
}

// ID returns the unique ID for the track
func (t *Track) ID() int {
	return t.id
}

// Box returns the most recent bounding box of the track
func (t *Track) Box() Box {
	return t.box
}

// Score returns the confidence of the most recent detection
func (t *Track) Score() float64 {
	return t.score
}

// LastSeen returns the frame index of the most recent association
func (t *Track) LastSeen() int {
	return t.lastSeen
}

// Counted returns whether the track has already triggered a crossing event
func (t *Track) Counted() bool {
	return t.counted
}

// MarkCounted permanently flags the track as counted
func (t *Track) MarkCounted() {
	t.counted = true
}

// Len returns the number of points held in history
func (t *Track) Len() int {
	return len(t.history)
}

// Last returns the most recent centroid point
func (t *Track) Last() Point {
	return t.history[len(t.history)-1]
}

// History returns a copy of the centroid history, oldest point first
func (t *Track) History() []Point {

	points := make([]Point, len(t.history))
	copy(points, t.history)

	return points
}

// Update records a matched detection against the track for the given frame
func (t *Track) Update(det Detection, frame int) {

	// check if history is full and drop oldest point, shifting in place so
	// the backing array never grows past size
	if len(t.history) == t.size {
		copy(t.history, t.history[1:])
		t.history = t.history[:len(t.history)-1]
	}

	t.history = append(t.history, det.Box.Centroid())
	t.box = det.Box
	t.score = det.Score
	t.lastSeen = frame
}
