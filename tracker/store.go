package tracker

import "sort"

// Store owns the set of live tracks, assigns track identities and expires
// tracks that have not been seen for too long
type Store struct {
	// historyLength is the centroid history bound given to each new track
	historyLength int
	// trackIDCount is the counter for assigning unique track IDs
	trackIDCount int
	// live tracks keyed by track ID
	live map[int]*Track
}

// NewStore returns a new track store where each track keeps at most
// historyLength centroid points
func NewStore(historyLength int) *Store {
	return &Store{
		historyLength: historyLength,
		live:          make(map[int]*Track),
	}
}

// Spawn creates a new track from an unmatched detection and adds it to the
// live set
func (s *Store) Spawn(det Detection, frame int) *Track {

	s.trackIDCount++
	t := newTrack(s.trackIDCount, s.historyLength, det, frame)
	s.live[t.id] = t

	return t
}

// Len returns the number of live tracks
func (s *Store) Len() int {
	return len(s.live)
}

// Spawned returns the number of track IDs handed out so far
func (s *Store) Spawned() int {
	return s.trackIDCount
}

// Live returns the live tracks ordered by ascending track ID
func (s *Store) Live() []*Track {

	tracks := make([]*Track, 0, len(s.live))

	for _, t := range s.live {
		tracks = append(tracks, t)
	}

	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].id < tracks[j].id
	})

	return tracks
}

// Expire removes every track that has gone more than grace frames without
// an association as of the given frame and returns the removed tracks in
// ascending ID order
func (s *Store) Expire(frame, grace int) []*Track {

	var removed []*Track

	for _, t := range s.Live() {
		if frame-t.lastSeen > grace {
			delete(s.live, t.id)
			removed = append(removed, t)
		}
	}

	return removed
}
