package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/swdee/go-footfall"
	"github.com/swdee/go-footfall/counter"
	"github.com/swdee/go-footfall/eventlog"
	"github.com/swdee/go-footfall/replay"
	"github.com/swdee/go-footfall/tracker"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	inFile := flag.String("i", "../data/people-detections.jsonl", "JSON Lines file of recorded detections")
	width := flag.Int("width", 1280, "Width of the recorded video frames")
	height := flag.Int("height", 720, "Height of the recorded video frames")
	linePos := flag.Float64("line", 0.5, "Counting line position as a fraction of frame height")
	history := flag.Int("history", 30, "Number of centroid points kept per track")
	grace := flag.Int("grace", 30, "Frames a track may go unseen before it is removed")
	match := flag.Float64("match", 0, "Maximum match distance in pixels, 0 to derive from -ratio")
	ratio := flag.Float64("ratio", 0.1, "Maximum match distance as a fraction of the frame diagonal")
	direction := flag.String("direction", "down", "Direction across the line counted as entry [down|up]")
	assoc := flag.String("assoc", "greedy", "Detection to track association [greedy|optimal]")
	dbFile := flag.String("db", "", "SQLite database file to record crossings to")
	verbose := flag.Bool("verbose", false, "Log every crossing event")

	flag.Parse()

	cfg := footfall.DefaultConfig(*width, *height)
	cfg.LinePosition = *linePos
	cfg.TrackHistoryLength = *history
	cfg.ExpiryGraceFrames = *grace
	cfg.MaxMatchDistance = *match
	cfg.MatchDistanceRatio = *ratio

	var err error

	cfg.Direction, err = counter.ParseDirection(*direction)

	if err != nil {
		log.Fatalf("Error parsing direction: %v", err)
	}

	cfg.Association, err = tracker.ParseAssociationMode(*assoc)

	if err != nil {
		log.Fatalf("Error parsing association: %v", err)
	}

	engine, err := footfall.NewEngine(cfg)

	if err != nil {
		log.Fatalf("Error creating engine: %v", err)
	}

	f, err := os.Open(*inFile)

	if err != nil {
		log.Fatalf("Error opening replay file: %v", err)
	}

	defer f.Close()

	ctx := context.Background()

	var (
		events *eventlog.Log
		runID  string
	)

	if *dbFile != "" {
		events, err = eventlog.Open(ctx, *dbFile)

		if err != nil {
			log.Fatalf("Error opening event log: %v", err)
		}

		defer events.Close()

		runID, err = events.StartRun(ctx, *inFile, cfg)

		if err != nil {
			log.Fatalf("Error starting run: %v", err)
		}
	}

	r := replay.NewReader(f)
	frames := 0
	dropped := 0
	start := time.Now()

	for {
		frame, err := r.Next()

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			log.Fatalf("Error reading replay: %v", err)
		}

		res, err := engine.ProcessFrame(frame.Detections, frame.Index)

		if err != nil {
			log.Printf("Skipping frame %d: %v", frame.Index, err)
			continue
		}

		frames++
		dropped += res.Dropped

		if *verbose {
			for _, ev := range res.Events {
				log.Printf("Frame %d: track %d %s at (%.0f, %.0f)", ev.Frame,
					ev.TrackID, ev.Kind, ev.Position.X, ev.Position.Y)
			}
		}

		if events != nil {
			if err := events.RecordEvents(ctx, runID, res.Events); err != nil {
				log.Printf("Error recording crossings: %v", err)
			}
		}

		if frames%30 == 0 {
			log.Printf("Frame %d: Entries=%d, Exits=%d, Current=%d",
				frame.Index, res.Counts.Entries, res.Counts.Exits, res.Counts.Occupancy)
		}
	}

	report := engine.Report(frames)

	if events != nil {
		if err := events.FinishRun(ctx, runID, report); err != nil {
			log.Printf("Error finishing run: %v", err)
		}
	}

	if dropped > 0 {
		log.Printf("Dropped %d malformed detections", dropped)
	}

	log.Printf("Replayed %d frames in %s", frames, time.Since(start))
	log.Println()
	log.Println(report.String())
}
