package detector

import (
	"context"
	"fmt"
	"sync"

	"github.com/edustream/lecture-segmenter/internal/frame"
	"github.com/edustream/lecture-segmenter/internal/ssim"
)

// scoreTask is a pair of consecutive sampled frames queued for scoring.
type scoreTask struct {
	index     int
	timestamp float64
	prev      *frame.Frame
	cur       *frame.Frame
}

// scoreResult is the outcome of one scoring task, consumed exactly once by
// the controller.
type scoreResult struct {
	index     int
	timestamp float64
	score     float64
	err       error
}

// runTask scores one frame pair. A panic in scoring is converted to a task
// error so one bad frame cannot take down the whole pool.
func runTask(t scoreTask) (r scoreResult) {
	r = scoreResult{index: t.index, timestamp: t.timestamp}
	defer func() {
		if p := recover(); p != nil {
			r.err = fmt.Errorf("score frame %d: %v", t.index, p)
		}
	}()
	r.score = ssim.Score(t.prev.Gray, t.cur.Gray)
	return r
}

// detectConcurrent runs scoring on a pool of NumWorkers goroutines. The
// controller goroutine is the only writer of detection state: it submits
// eligible pairs, drains completed scores after every submission, and
// re-checks eligibility at completion time so results that raced past an
// accepted change are discarded.
func (d *Detector) detectConcurrent(ctx context.Context, src frame.Source) ([]float64, error) {
	cooldown := d.opts.MinIntervalSec * src.FPS()

	tasks := make(chan scoreTask, d.opts.NumWorkers)
	results := make(chan scoreResult, d.opts.NumWorkers)

	var wg sync.WaitGroup
	for i := 0; i < d.opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				results <- runTask(t)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var changes []float64
	lastChangeIndex := -1

	handle := func(r scoreResult) {
		if r.err != nil {
			d.logger.Warn("frame scoring failed, treating as no change",
				"index", r.index,
				"error", r.err,
			)
			return
		}
		if r.score >= d.opts.SSIMThreshold {
			return
		}
		// The cooldown may have moved since submission; stale results are
		// dropped here rather than at submit time.
		if !eligible(r.index, lastChangeIndex, cooldown) {
			return
		}
		d.logger.Debug("slide change detected",
			"timestamp", r.timestamp,
			"score", r.score,
		)
		changes = append(changes, r.timestamp)
		if r.index > lastChangeIndex {
			lastChangeIndex = r.index
		}
	}

	var prev *frame.Frame
	var streamErr error

produce:
	for {
		if err := ctx.Err(); err != nil {
			streamErr = err
			break
		}

		f, ok, err := src.Next()
		if err != nil {
			streamErr = err
			break
		}
		if !ok {
			break
		}
		cur := f

		if prev != nil && eligible(cur.Index, lastChangeIndex, cooldown) {
			t := scoreTask{
				index:     cur.Index,
				timestamp: cur.Timestamp,
				prev:      prev,
				cur:       &cur,
			}
			// Submitting and draining in one select keeps workers from
			// deadlocking on a full results channel while the controller
			// waits on a full task channel.
			for submitted := false; !submitted; {
				select {
				case tasks <- t:
					submitted = true
				case r := <-results:
					handle(r)
				case <-ctx.Done():
					streamErr = ctx.Err()
					break produce
				}
			}
		}

		// Opportunistic drain so completed scores advance the cooldown as
		// early as possible.
		for {
			select {
			case r := <-results:
				handle(r)
			default:
				prev = &cur
				continue produce
			}
		}
	}

	close(tasks)
	for r := range results {
		if streamErr == nil {
			handle(r)
		}
	}

	if streamErr != nil {
		return nil, streamErr
	}
	return normalize(changes), nil
}
