package detector

import (
	"fmt"
	"image"
	"os"

	"github.com/swdee/go-footfall/tracker"
	"gocv.io/x/gocv"
)

// Params defines the struct containing the YOLOv8 parameters to use for
// person detection
type Params struct {
	// Model is the path to the YOLOv8 ONNX model file
	Model string
	// InputWidth and InputHeight are the Model input tensor dimensions
	InputWidth  int
	InputHeight int
	// ScoreThreshold is the minimum probability score required for a bounding
	// box to be kept
	ScoreThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// ClassID is the object class to detect, 0 is "person" in the COCO labels
	ClassID int
}

// COCOPersonParams returns an instance of Params configured with default
// values for a YOLOv8 Model trained on the COCO dataset featuring:
// - Input Size: 640x640
// - Score Threshold: 0.4
// - NMS Threshold: 0.45
// - Class: 0 (person)
func COCOPersonParams() Params {
	return Params{
		InputWidth:     640,
		InputHeight:    640,
		ScoreThreshold: 0.4,
		NMSThreshold:   0.45,
		ClassID:        0,
	}
}

const (
	// boxAttrs is the number of leading values in each output row describing
	// the box, being center x, center y, width and height
	boxAttrs = 4
	// pixelScale normalises 8 bit pixel values to [0,1]
	pixelScale = 1.0 / 255.0
)

// YOLOv8 runs a YOLOv8 ONNX Model through the OpenCV DNN module to detect
// people in video frames.  A YOLOv8 instance is not safe for concurrent use,
// use a Pool to detect on multiple frames in parallel
type YOLOv8 struct {
	// Params are the Model configuration parameters
	Params Params
	// net is the loaded DNN network
	net gocv.Net
	// outputNames are the names of the unconnected output layers
	outputNames []string
	// blobParams define the letterbox preprocessing of the frame
	blobParams gocv.ImageToBlobParams
}

// NewYOLOv8 loads the ONNX Model once and returns a detector ready for use
func NewYOLOv8(p Params) (*YOLOv8, error) {

	info, err := os.Stat(p.Model)

	if err != nil {
		return nil, fmt.Errorf("error opening model file: %w", err)
	}

	if info.Size() == 0 {
		return nil, fmt.Errorf("model file %s is empty", p.Model)
	}

	if p.InputWidth <= 0 || p.InputHeight <= 0 {
		return nil, fmt.Errorf("invalid model input size %dx%d", p.InputWidth, p.InputHeight)
	}

	net := gocv.ReadNetFromONNX(p.Model)

	if net.Empty() {
		return nil, fmt.Errorf("error reading network model from: %s", p.Model)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	y := &YOLOv8{
		Params: p,
		net:    net,
		blobParams: gocv.NewImageToBlobParams(pixelScale,
			image.Pt(p.InputWidth, p.InputHeight), gocv.NewScalar(0, 0, 0, 0),
			true, gocv.MatTypeCV32F, gocv.DataLayoutNCHW,
			gocv.PaddingModeLetterbox, gocv.NewScalar(114, 114, 114, 0)),
	}

	y.outputNames = outputNames(&y.net)

	if len(y.outputNames) == 0 {
		net.Close()
		return nil, fmt.Errorf("error reading output layer names")
	}

	return y, nil
}

// outputNames returns the names of the network's unconnected output layers
func outputNames(net *gocv.Net) []string {

	var names []string

	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		name := layer.GetName()

		if name != "_input" {
			names = append(names, name)
		}
	}

	return names
}

// Detect runs inference on a BGR video frame and returns the person
// detections in frame pixel coordinates
func (y *YOLOv8) Detect(img gocv.Mat) ([]tracker.Detection, error) {

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	blob := gocv.BlobFromImageWithParams(img, y.blobParams)
	defer blob.Close()

	// feed the blob into the network and run a forward pass
	y.net.SetInput(blob, "")

	outs := y.net.ForwardLayers(y.outputNames)

	defer func() {
		for _, out := range outs {
			out.Close()
		}
	}()

	if len(outs) == 0 || outs[0].Empty() {
		return nil, fmt.Errorf("network returned no output")
	}

	// output is [1, 4+classes, anchors], transpose to one row per anchor
	transposed := gocv.NewMat()
	defer transposed.Close()

	gocv.TransposeND(outs[0], []int{0, 2, 1}, &transposed)

	rows := transposed.Reshape(1, transposed.Size()[1])
	defer rows.Close()

	boxes, scores := decodeRows(rows.Rows(), rows.Cols(), rows.GetFloatAt,
		y.Params.ClassID, y.Params.ScoreThreshold)

	if len(boxes) == 0 {
		return nil, nil
	}

	// map boxes from letterboxed model input back to the frame
	frameBoxes := y.blobParams.BlobRectsToImageRects(boxes, image.Pt(img.Cols(), img.Rows()))
	keep := gocv.NMSBoxes(frameBoxes, scores, y.Params.ScoreThreshold, y.Params.NMSThreshold)

	dets := make([]tracker.Detection, 0, len(keep))

	for _, idx := range keep {
		dets = append(dets, tracker.Detection{
			Box:   tracker.BoxFromRect(frameBoxes[idx]),
			Score: float64(scores[idx]),
		})
	}

	return dets, nil
}

// Close frees the network
func (y *YOLOv8) Close() error {
	return y.net.Close()
}

// decodeRows reads YOLOv8 output rows of [cx, cy, w, h, class scores...]
// and returns the boxes, in model input coordinates, whose highest scoring
// class is classID with a score at or above threshold
func decodeRows(rows, cols int, at func(row, col int) float32,
	classID int, threshold float32) ([]image.Rectangle, []float32) {

	var boxes []image.Rectangle
	var scores []float32

	classes := cols - boxAttrs

	if classID < 0 || classID >= classes {
		return nil, nil
	}

	for i := 0; i < rows; i++ {

		// find the highest class score for this row
		best := 0
		bestScore := at(i, boxAttrs)

		for c := 1; c < classes; c++ {
			if s := at(i, boxAttrs+c); s > bestScore {
				best = c
				bestScore = s
			}
		}

		if best != classID || bestScore < threshold {
			continue
		}

		cx := at(i, 0)
		cy := at(i, 1)
		w := at(i, 2)
		h := at(i, 3)

		boxes = append(boxes, image.Rect(
			int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2),
		))
		scores = append(scores, bestScore)
	}

	return boxes, scores
}
