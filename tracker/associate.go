package tracker

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// AssociationMode selects the policy used to match detections to tracks
type AssociationMode int

const (
	// AssociateGreedy commits the closest detection/track pairs first
	AssociateGreedy AssociationMode = 0
	// AssociateOptimal minimises the total centroid distance of all pairs
	AssociateOptimal AssociationMode = 1
)

const (
	// scoreTieWeight and indexTieWeight perturb the optimal assignment cost
	// so equal distances resolve by higher score then lower detection index
	scoreTieWeight = 1e-6
	indexTieWeight = 1e-9
)

// String returns the flag name of the association mode
func (m AssociationMode) String() string {
	switch m {
	case AssociateGreedy:
		return "greedy"
	case AssociateOptimal:
		return "optimal"
	default:
		return fmt.Sprintf("AssociationMode(%d)", int(m))
	}
}

// ParseAssociationMode converts a flag value into an AssociationMode
func ParseAssociationMode(s string) (AssociationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greedy", "":
		return AssociateGreedy, nil
	case "optimal", "hungarian":
		return AssociateOptimal, nil
	default:
		return 0, fmt.Errorf("unknown association mode %q, use 'greedy' or 'optimal'", s)
	}
}

// Match pairs an existing track with the index of the detection assigned
// to it this frame
type Match struct {
	Track     *Track
	Detection int
	Distance  float64
}

// Assignment is the result of associating one frame of detections
type Assignment struct {
	// Matches are the detection/track pairs found
	Matches []Match
	// Unmatched are the indices of detections that matched no track and
	// should spawn new tracks, in ascending order
	Unmatched []int
}

// Associator matches the detections of a frame to the live tracks by
// centroid distance subject to a maximum distance gate
type Associator struct {
	// maxDistance is the exclusive upper bound on the distance between a
	// detection centroid and a track's last centroid for them to match
	maxDistance float64
	// mode is the matching policy
	mode AssociationMode
}

// NewAssociator returns an Associator using the given gate distance in
// pixels and matching policy
func NewAssociator(maxDistance float64, mode AssociationMode) *Associator {
	return &Associator{
		maxDistance: maxDistance,
		mode:        mode,
	}
}

// MaxDistance returns the gate distance
func (a *Associator) MaxDistance() float64 {
	return a.maxDistance
}

// Mode returns the matching policy
func (a *Associator) Mode() AssociationMode {
	return a.mode
}

// pair is an eligible detection/track combination
type pair struct {
	track int
	det   int
	dist  float64
}

// Associate assigns each detection to at most one track and each track to
// at most one detection
func (a *Associator) Associate(tracks []*Track, dets []Detection) Assignment {

	pairs := a.eligiblePairs(tracks, dets)

	var matches []Match

	switch a.mode {
	case AssociateOptimal:
		matches = a.optimal(tracks, dets, pairs)
	default:
		matches = a.greedy(tracks, dets, pairs)
	}

	// collect detections left without a track
	taken := make([]bool, len(dets))

	for _, m := range matches {
		taken[m.Detection] = true
	}

	var unmatched []int

	for i := range dets {
		if !taken[i] {
			unmatched = append(unmatched, i)
		}
	}

	return Assignment{
		Matches:   matches,
		Unmatched: unmatched,
	}
}

// eligiblePairs returns every detection/track pair whose centroid distance
// is below the gate
func (a *Associator) eligiblePairs(tracks []*Track, dets []Detection) []pair {

	var pairs []pair

	for ti, t := range tracks {

		last := t.Last()
		tp := []float64{last.X, last.Y}

		for di, det := range dets {

			c := det.Box.Centroid()
			dist := floats.Distance(tp, []float64{c.X, c.Y}, 2)

			if dist < a.maxDistance {
				pairs = append(pairs, pair{track: ti, det: di, dist: dist})
			}
		}
	}

	return pairs
}

// greedy sorts candidate pairs by distance and commits the non conflicting
// ones first.  Ties resolve by higher detection score, then lower detection
// index, then lower track ID
func (a *Associator) greedy(tracks []*Track, dets []Detection, pairs []pair) []Match {

	sort.SliceStable(pairs, func(i, j int) bool {

		pi, pj := pairs[i], pairs[j]

		if pi.dist != pj.dist {
			return pi.dist < pj.dist
		}

		if dets[pi.det].Score != dets[pj.det].Score {
			return dets[pi.det].Score > dets[pj.det].Score
		}

		if pi.det != pj.det {
			return pi.det < pj.det
		}

		return tracks[pi.track].id < tracks[pj.track].id
	})

	trackUsed := make([]bool, len(tracks))
	detUsed := make([]bool, len(dets))

	var matches []Match

	for _, p := range pairs {

		if trackUsed[p.track] || detUsed[p.det] {
			continue
		}

		trackUsed[p.track] = true
		detUsed[p.det] = true

		matches = append(matches, Match{
			Track:     tracks[p.track],
			Detection: p.det,
			Distance:  p.dist,
		})
	}

	return matches
}

// optimal solves the minimum total distance assignment over a square cost
// matrix where ineligible and padding cells cost more than any eligible pair
func (a *Associator) optimal(tracks []*Track, dets []Detection, pairs []pair) []Match {

	if len(pairs) == 0 {
		return nil
	}

	n := len(tracks)
	if len(dets) > n {
		n = len(dets)
	}

	cost := mat.NewDense(n, n, nil)
	eligible := make(map[[2]int]float64, len(pairs))

	worst := 0.0

	for _, p := range pairs {
		c := p.dist + (1-dets[p.det].Score)*scoreTieWeight + float64(p.det)*indexTieWeight
		cost.Set(p.track, p.det, c)
		eligible[[2]int{p.track, p.det}] = p.dist
		worst = math.Max(worst, c)
	}

	// pad must be finite for the solver to terminate and must exceed every
	// perturbed eligible cost so an eligible pair is never left unmatched
	pad := a.maxDistance + 1
	if math.IsInf(pad, 0) || pad <= worst {
		pad = worst + 1
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if _, ok := eligible[[2]int{i, j}]; !ok {
				cost.Set(i, j, pad)
			}
		}
	}

	rowsol := hungarian(cost)

	var matches []Match

	for ti := range tracks {

		di := rowsol[ti]

		dist, ok := eligible[[2]int{ti, di}]
		if !ok {
			continue
		}

		matches = append(matches, Match{
			Track:     tracks[ti],
			Detection: di,
			Distance:  dist,
		})
	}

	// keep the same ordering as the greedy policy, closest pairs first
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	return matches
}
