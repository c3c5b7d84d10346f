package detector

import (
	"sync"

	"github.com/swdee/go-footfall/tracker"
	"gocv.io/x/gocv"
)

// Pool is a simple detector pool to run multiple instances of the same Model
// so frames can be detected in parallel
type Pool struct {
	// pool of detectors
	detectors chan *YOLOv8
	// size of pool
	size  int
	close sync.Once
}

// NewPool creates a new detector pool loading the Model size times
func NewPool(size int, p Params) (*Pool, error) {

	if size < 1 {
		size = 1
	}

	pool := &Pool{
		detectors: make(chan *YOLOv8, size),
		size:      size,
	}

	for i := 0; i < size; i++ {
		d, err := NewYOLOv8(p)

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			pool.Close()
			return nil, err
		}

		// attach to pool
		pool.Return(d)
	}

	return pool, nil
}

// Size returns the number of detectors in the pool
func (p *Pool) Size() int {
	return p.size
}

// Get a detector from the pool
func (p *Pool) Get() *YOLOv8 {
	return <-p.detectors
}

// Return a detector to the pool
func (p *Pool) Return(d *YOLOv8) {
	select {
	case p.detectors <- d:
	default:
		// pool is full or closed
	}
}

// DetectBatch runs detection on each frame in parallel across the pool and
// returns the results in the same order as the frames given
func (p *Pool) DetectBatch(frames []gocv.Mat) ([][]tracker.Detection, []error) {

	results := make([][]tracker.Detection, len(frames))
	errs := make([]error, len(frames))

	var wg sync.WaitGroup

	for i := range frames {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			d := p.Get()
			defer p.Return(d)

			results[i], errs[i] = d.Detect(frames[i])
		}(i)
	}

	wg.Wait()

	return results, errs
}

// Close the pool and all detectors in it
func (p *Pool) Close() {
	p.close.Do(func() {
		// close channel
		close(p.detectors)

		// close all detectors
		for next := range p.detectors {
			_ = next.Close()
		}
	})
}
