package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swdee/go-footfall"
	"github.com/swdee/go-footfall/counter"
	"github.com/swdee/go-footfall/detector"
	"github.com/swdee/go-footfall/eventlog"
	"github.com/swdee/go-footfall/metrics"
	"github.com/swdee/go-footfall/render"
	"github.com/swdee/go-footfall/replay"
	"github.com/swdee/go-footfall/tracker"
	"gocv.io/x/gocv"
)

const (
	// keyESC quits processing
	keyESC = 27
	// keySpace pauses and resumes processing
	keySpace = 32
	// keyReset sets the counts back to zero
	keyReset = 'r'
	// progressInterval is the number of frames between progress log lines
	progressInterval = 30
)

// Counter runs person detection on video frames and feeds the detections to
// the tracking and counting engine
type Counter struct {
	// pool of detectors to run inference on frames in parallel
	pool *detector.Pool
	// engine tracks and counts people
	engine *footfall.Engine
	// metrics is optional and nil when not enabled
	metrics *metrics.Metrics
	// events is the optional event log and runID the current run in it
	events *eventlog.Log
	runID  string
	// recorder optionally records detections for later replay
	recorder   *replay.Writer
	recordFile *os.File
	// writer optionally saves the annotated video
	writer *gocv.VideoWriter
	// window optionally shows the annotated video
	window *gocv.Window
	// waitKey waits up to delay milliseconds for a key press on the window
	waitKey func(delay int) int
	// style of the video overlays
	style render.Style
	// frames is the number of frames processed
	frames int
	// paused is toggled by the space key
	paused bool
}

// Options are the command line settings
type Options struct {
	Video     string
	Model     string
	Labels    string
	Class     string
	Output    string
	LinePos   float64
	History   int
	Grace     int
	Match     float64
	Ratio     float64
	Direction string
	Assoc     string
	Conf      float64
	NMS       float64
	PoolSize  int
	Show      bool
	HTTPAddr  string
	Buckets   string
	DB        string
	Record    string
	TTFFont   string
	TTFSize   float64
	ShowScore bool
	ShowStale bool
}

// buildConfig creates the engine configuration from the command line options
// and frame size
func buildConfig(opts Options, width, height int) (footfall.Config, error) {

	cfg := footfall.DefaultConfig(width, height)
	cfg.LinePosition = opts.LinePos
	cfg.TrackHistoryLength = opts.History
	cfg.ExpiryGraceFrames = opts.Grace
	cfg.MaxMatchDistance = opts.Match
	cfg.MatchDistanceRatio = opts.Ratio

	var err error

	cfg.Direction, err = counter.ParseDirection(opts.Direction)

	if err != nil {
		return cfg, err
	}

	cfg.Association, err = tracker.ParseAssociationMode(opts.Assoc)

	if err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// detectorParams creates the detector parameters from the command line
// options, resolving the class to count from the labels file
func detectorParams(opts Options) (detector.Params, error) {

	p := detector.COCOPersonParams()
	p.Model = opts.Model
	p.ScoreThreshold = float32(opts.Conf)
	p.NMSThreshold = float32(opts.NMS)

	if opts.Labels == "" {
		return p, nil
	}

	labels, err := detector.LoadLabels(opts.Labels)

	if err != nil {
		return p, fmt.Errorf("error loading model labels: %w", err)
	}

	p.ClassID, err = detector.LabelIndex(labels, opts.Class)

	if err != nil {
		return p, err
	}

	return p, nil
}

// NewCounter loads the detector model and creates the engine and optional
// outputs for a video of the given frame size
func NewCounter(ctx context.Context, opts Options, width, height int, fps float64) (*Counter, error) {

	cfg, err := buildConfig(opts, width, height)

	if err != nil {
		return nil, err
	}

	params, err := detectorParams(opts)

	if err != nil {
		return nil, err
	}

	c := &Counter{
		style: render.DefaultStyle(),
	}

	c.style.ShowScore = opts.ShowScore
	c.style.ShowUnmatched = opts.ShowStale

	c.engine, err = footfall.NewEngine(cfg)

	if err != nil {
		return nil, err
	}

	c.pool, err = detector.NewPool(opts.PoolSize, params)

	if err != nil {
		return nil, fmt.Errorf("error creating detector pool: %w", err)
	}

	if opts.TTFFont != "" {
		c.style.Counts.TTF, err = render.LoadTTF(opts.TTFFont, opts.TTFSize)

		if err != nil {
			c.Close()
			return nil, fmt.Errorf("error initializing font face: %w", err)
		}
	}

	if opts.HTTPAddr != "" {
		buckets, err := metrics.ParseBuckets(opts.Buckets)

		if err != nil {
			c.Close()
			return nil, err
		}

		c.metrics = metrics.New(buckets)

		mux := http.NewServeMux()
		mux.Handle("/metrics", c.metrics.Handler())

		go func() {
			log.Printf("Serving metrics at http://%s/metrics", opts.HTTPAddr)

			if err := http.ListenAndServe(opts.HTTPAddr, mux); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	if opts.DB != "" {
		c.events, err = eventlog.Open(ctx, opts.DB)

		if err != nil {
			c.Close()
			return nil, err
		}

		c.runID, err = c.events.StartRun(ctx, opts.Video, cfg)

		if err != nil {
			c.Close()
			return nil, err
		}

		log.Printf("Recording crossings to %s under run %s", opts.DB, c.runID)
	}

	if opts.Record != "" {
		f, err := os.Create(opts.Record)

		if err != nil {
			c.Close()
			return nil, fmt.Errorf("error creating replay file: %w", err)
		}

		c.recordFile = f
		c.recorder = replay.NewWriter(f)
	}

	if opts.Output != "" {
		c.writer, err = gocv.VideoWriterFile(opts.Output, "mp4v", fps, width, height, true)

		if err != nil {
			c.Close()
			return nil, fmt.Errorf("error opening output video: %w", err)
		}
	}

	if opts.Show {
		c.window = gocv.NewWindow("Footfall Counter")
		c.waitKey = c.window.WaitKey
	}

	return c, nil
}

// Run reads frames from the video until the end of the stream, ESC is
// pressed or the context is cancelled
func (c *Counter) Run(ctx context.Context, video *gocv.VideoCapture) error {

	// allocate a batch of frames, one per detector in the pool
	batch := make([]gocv.Mat, c.pool.Size())

	for i := range batch {
		batch[i] = gocv.NewMat()
	}

	defer func() {
		for _, m := range batch {
			m.Close()
		}
	}()

	resImg := gocv.NewMat()
	defer resImg.Close()

	for {
		if ctx.Err() != nil {
			log.Println("Interrupted")
			return nil
		}

		if c.waitWhilePaused(ctx) {
			return nil
		}

		// read the next batch of frames
		n := 0

		for n < len(batch) {
			if ok := video.Read(&batch[n]); !ok || batch[n].Empty() {
				break
			}
			n++
		}

		if n == 0 {
			log.Println("End of video reached")
			return nil
		}

		results, errs := c.pool.DetectBatch(batch[:n])

		quit, err := c.processBatch(ctx, batch[:n], results, errs, &resImg)

		if err != nil {
			return err
		}

		if quit {
			return nil
		}

		if n < len(batch) {
			log.Println("End of video reached")
			return nil
		}
	}
}

// processBatch processes the detected frames of a batch in order.  A pause
// requested on one frame holds back the rest of the batch until resumed.  It
// returns true when the user asked to quit
func (c *Counter) processBatch(ctx context.Context, frames []gocv.Mat,
	results [][]tracker.Detection, errs []error, resImg *gocv.Mat) (bool, error) {

	for i := range frames {

		if errs[i] != nil {
			log.Printf("Error detecting people: %v", errs[i])
		}

		quit, err := c.processFrame(ctx, frames[i], results[i], resImg)

		if err != nil {
			return false, err
		}

		if quit || c.waitWhilePaused(ctx) {
			return true, nil
		}
	}

	return false, nil
}

// waitWhilePaused blocks handling key presses until processing is resumed.
// It returns true when the user asked to quit or the context was cancelled
func (c *Counter) waitWhilePaused(ctx context.Context) bool {

	for c.paused {
		if ctx.Err() != nil {
			return true
		}

		if c.handleKey(c.waitKey(30)) {
			return true
		}
	}

	return false
}

// processFrame feeds a frame's detections to the engine and outputs the
// results.  It returns true when the user asked to quit
func (c *Counter) processFrame(ctx context.Context, img gocv.Mat,
	dets []tracker.Detection, resImg *gocv.Mat) (bool, error) {

	start := time.Now()
	c.frames++

	res, err := c.engine.ProcessFrame(dets, c.frames)

	if err != nil {
		return false, err
	}

	if c.metrics != nil {
		c.metrics.Observe(res, c.engine.LiveTracks(), time.Since(start))
	}

	for _, ev := range res.Events {
		log.Printf("Frame %d: track %d %s", ev.Frame, ev.TrackID, ev.Kind)
	}

	if c.events != nil {
		if err := c.events.RecordEvents(ctx, c.runID, res.Events); err != nil {
			log.Printf("Error recording crossings: %v", err)
		}
	}

	if c.recorder != nil {
		if err := c.recorder.Write(c.frames, dets); err != nil {
			log.Printf("Error recording detections: %v", err)
		}
	}

	if c.frames%progressInterval == 0 {
		log.Printf("Frame %d: Entries=%d, Exits=%d, Current=%d",
			c.frames, res.Counts.Entries, res.Counts.Exits, res.Counts.Occupancy)
	}

	if c.writer == nil && c.window == nil {
		return false, nil
	}

	// copy the source image and annotate the copy
	img.CopyTo(resImg)

	if err := render.Annotate(resImg, res, c.engine.LineY(), c.style); err != nil {
		log.Printf("Error annotating frame: %v", err)
	}

	if c.writer != nil {
		if err := c.writer.Write(*resImg); err != nil {
			log.Printf("Error writing output video: %v", err)
		}
	}

	if c.window != nil {
		c.window.IMShow(*resImg)
		return c.handleKey(c.waitKey(1)), nil
	}

	return false, nil
}

// handleKey processes a key press and returns true when ESC was pressed
func (c *Counter) handleKey(key int) bool {

	switch key {
	case keyESC:
		return true

	case keySpace:
		c.paused = !c.paused

		if c.paused {
			log.Println("Paused")
		} else {
			log.Println("Resumed")
		}

	case keyReset:
		c.engine.ResetCounts()

		if c.metrics != nil {
			c.metrics.SetCounts(c.engine.Snapshot())
		}

		log.Println("Counts reset")
	}

	return false
}

// Finish logs the final report and stores it in the event log
func (c *Counter) Finish(ctx context.Context) {

	report := c.engine.Report(c.frames)

	if c.events != nil {
		if err := c.events.FinishRun(ctx, c.runID, report); err != nil {
			log.Printf("Error finishing run: %v", err)
		}
	}

	log.Println()
	log.Println(report.String())
}

// Close releases the detectors and outputs
func (c *Counter) Close() {

	if c.pool != nil {
		c.pool.Close()
	}

	if c.recorder != nil {
		if err := c.recorder.Flush(); err != nil {
			log.Printf("Error flushing replay file: %v", err)
		}

		c.recordFile.Close()
	}

	if c.writer != nil {
		c.writer.Close()
	}

	if c.window != nil {
		c.window.Close()
	}

	if c.events != nil {
		c.events.Close()
	}
}

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	opts := Options{}

	// read in cli flags
	flag.StringVar(&opts.Video, "v", "../data/people.mp4", "Video file to count people in, or a camera index such as 0")
	flag.StringVar(&opts.Model, "m", "../data/yolov8n.onnx", "YOLOv8 ONNX model file")
	flag.StringVar(&opts.Labels, "l", "../data/coco_80_labels_list.txt", "Text file containing model labels, empty to use class 0")
	flag.StringVar(&opts.Class, "c", "person", "Label of the object class to count")
	flag.StringVar(&opts.Output, "o", "", "Save the annotated video to this MP4 file")
	flag.Float64Var(&opts.LinePos, "line", 0.5, "Counting line position as a fraction of frame height")
	flag.IntVar(&opts.History, "history", 30, "Number of centroid points kept per track")
	flag.IntVar(&opts.Grace, "grace", 30, "Frames a track may go unseen before it is removed")
	flag.Float64Var(&opts.Match, "match", 0, "Maximum match distance in pixels, 0 to derive from -ratio")
	flag.Float64Var(&opts.Ratio, "ratio", 0.1, "Maximum match distance as a fraction of the frame diagonal")
	flag.StringVar(&opts.Direction, "direction", "down", "Direction across the line counted as entry [down|up]")
	flag.StringVar(&opts.Assoc, "assoc", "greedy", "Detection to track association [greedy|optimal]")
	flag.Float64Var(&opts.Conf, "conf", 0.4, "Minimum detection confidence")
	flag.Float64Var(&opts.NMS, "nms", 0.45, "Non-Maximum Suppression threshold")
	flag.IntVar(&opts.PoolSize, "s", 1, "Size of detector pool for parallel inference")
	flag.BoolVar(&opts.Show, "show", true, "Show the annotated video in a window")
	flag.StringVar(&opts.HTTPAddr, "a", "", "HTTP address to serve Prometheus metrics on, format address:port")
	flag.StringVar(&opts.Buckets, "buckets", "", "Comma delimited processing time histogram buckets in ms")
	flag.StringVar(&opts.DB, "db", "", "SQLite database file to record crossings to")
	flag.StringVar(&opts.Record, "record", "", "Record detections to this JSON Lines file for replay")
	flag.StringVar(&opts.TTFFont, "font", "", "TTF font to draw the counts with")
	flag.Float64Var(&opts.TTFSize, "fontsize", 24, "TTF font size")
	flag.BoolVar(&opts.ShowScore, "score", false, "Show the detection score in track labels")
	flag.BoolVar(&opts.ShowStale, "stale", false, "Draw tracks not detected on the current frame until they expire")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// open video file or camera
	video, err := gocv.OpenVideoCapture(opts.Video)

	if err != nil {
		log.Fatalf("Error opening video %s: %v", opts.Video, err)
	}

	defer video.Close()

	width := int(video.Get(gocv.VideoCaptureFrameWidth))
	height := int(video.Get(gocv.VideoCaptureFrameHeight))
	fps := video.Get(gocv.VideoCaptureFPS)

	if fps <= 0 {
		fps = 30
	}

	log.Printf("Video loaded: %dx%d @ %.2f FPS", width, height, fps)

	c, err := NewCounter(ctx, opts, width, height, fps)

	if err != nil {
		log.Fatalf("Error creating counter: %v", err)
	}

	defer c.Close()

	if opts.Show {
		log.Println("Processing... Press 'ESC' to quit, 'SPACE' to pause, 'r' to reset counts")
	}

	if err := c.Run(ctx, video); err != nil {
		log.Printf("Error processing video: %v", err)
	}

	// the run is finished even when interrupted so use a fresh context
	c.Finish(context.Background())
}
