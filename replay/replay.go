// Package replay reads and writes recorded person detection streams as JSON
// Lines, one frame per line in the form
//
//	{"frame":1,"detections":[{"box":[x1,y1,x2,y2],"score":0.91}]}
//
// so a counting run can be repeated without the video or the model.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/swdee/go-footfall/tracker"
)

// maxLineSize is the longest frame record accepted by the Reader
const maxLineSize = 4 * 1024 * 1024

// Frame is a single recorded frame of detections
type Frame struct {
	Index      int
	Detections []tracker.Detection
}

// record is the JSON form of a Frame
type record struct {
	Frame      int         `json:"frame"`
	Detections []detection `json:"detections"`
}

// detection is the JSON form of a tracker.Detection
type detection struct {
	Box   [4]float64 `json:"box"`
	Score float64    `json:"score"`
}

// Reader reads frames from a JSON Lines stream
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader reading frames from r
func NewReader(r io.Reader) *Reader {

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Reader{
		scanner: scanner,
	}
}

// Next returns the next frame in the stream.  Blank lines are skipped.  It
// returns io.EOF once the stream is exhausted
func (r *Reader) Next() (Frame, error) {

	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())

		if text == "" {
			continue
		}

		var rec record

		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return Frame{}, fmt.Errorf("line %d: error decoding frame: %w", r.line, err)
		}

		frame := Frame{
			Index:      rec.Frame,
			Detections: make([]tracker.Detection, 0, len(rec.Detections)),
		}

		for _, d := range rec.Detections {
			frame.Detections = append(frame.Detections,
				tracker.NewDetection(d.Box[0], d.Box[1], d.Box[2], d.Box[3], d.Score))
		}

		return frame, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("line %d: error reading stream: %w", r.line+1, err)
	}

	return Frame{}, io.EOF
}

// Writer writes frames to a JSON Lines stream
type Writer struct {
	buf *bufio.Writer
	enc *json.Encoder
}

// NewWriter returns a Writer writing frames to w.  Flush must be called once
// writing is finished
func NewWriter(w io.Writer) *Writer {

	buf := bufio.NewWriter(w)

	return &Writer{
		buf: buf,
		enc: json.NewEncoder(buf),
	}
}

// Write appends a frame of detections to the stream
func (w *Writer) Write(frame int, dets []tracker.Detection) error {

	rec := record{
		Frame:      frame,
		Detections: make([]detection, 0, len(dets)),
	}

	for _, d := range dets {
		rec.Detections = append(rec.Detections, detection{
			Box:   [4]float64{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2},
			Score: d.Score,
		})
	}

	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("error encoding frame %d: %w", frame, err)
	}

	return nil
}

// Flush writes any buffered frames to the underlying writer
func (w *Writer) Flush() error {
	return w.buf.Flush()
}
