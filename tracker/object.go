package tracker

import "math"

// Detection represents a single person detected in a video frame by the
// object detector
type Detection struct {
	// Box is the bounding box of the detected person in frame pixel
	// coordinates
	Box Box
	// Score is the confidence/probability of the detection in the range [0,1]
	Score float64
}

// NewDetection is a constructor function for the Detection struct
func NewDetection(x1, y1, x2, y2, score float64) Detection {
	return Detection{
		Box:   NewBox(x1, y1, x2, y2),
		Score: score,
	}
}

// Valid reports whether the detection can take part in association.  Boxes
// with zero or negative area, non finite coordinates, or a score outside
// of [0,1] are malformed
func (d Detection) Valid() bool {

	if math.IsNaN(d.Score) || d.Score < 0 || d.Score > 1 {
		return false
	}

	return d.Box.Valid()
}

// FilterValid returns the well formed detections and the number dropped.
// The relative order of the kept detections is preserved
func FilterValid(dets []Detection) ([]Detection, int) {

	kept := make([]Detection, 0, len(dets))

	for _, det := range dets {
		if det.Valid() {
			kept = append(kept, det)
		}
	}

	return kept, len(dets) - len(kept)
}
