package detector

import (
	"context"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustream/lecture-segmenter/internal/frame"
)

// slideSource yields uniform frames whose brightness follows a per-frame
// value script, simulating a deck of slides.
type slideSource struct {
	fps    float64
	values []uint8
	pos    int
}

func (s *slideSource) FPS() float64 { return s.fps }

func (s *slideSource) Next() (frame.Frame, bool, error) {
	if s.pos >= len(s.values) {
		return frame.Frame{}, false, nil
	}
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = s.values[s.pos]
	}
	f := frame.Frame{
		Index:     s.pos,
		Timestamp: float64(s.pos) / s.fps,
		Gray:      img,
	}
	s.pos++
	return f, true, nil
}

// slideScript builds a value sequence from (count, value) runs.
func slideScript(runs ...[2]int) []uint8 {
	var values []uint8
	for _, run := range runs {
		for i := 0; i < run[0]; i++ {
			values = append(values, uint8(run[1]))
		}
	}
	return values
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.ResizeWidth = 64 // matches synthetic frames, no resampling
	opts.NumWorkers = 1
	return opts
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Options)
		expected error
	}{
		{"threshold zero", func(o *Options) { o.SSIMThreshold = 0 }, ErrInvalidThreshold},
		{"threshold one", func(o *Options) { o.SSIMThreshold = 1 }, ErrInvalidThreshold},
		{"negative interval", func(o *Options) { o.MinIntervalSec = -1 }, ErrInvalidInterval},
		{"zero width", func(o *Options) { o.ResizeWidth = 0 }, ErrInvalidWidth},
		{"zero workers", func(o *Options) { o.NumWorkers = 0 }, ErrInvalidWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)

			_, err := New(opts, testLogger())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestDetect_NoChanges(t *testing.T) {
	d, err := New(testOptions(), testLogger())
	require.NoError(t, err)

	src := &slideSource{fps: 10, values: slideScript([2]int{30, 128})}

	changes, err := d.Detect(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDetect_FindsSlideTransitions(t *testing.T) {
	d, err := New(testOptions(), testLogger())
	require.NoError(t, err)

	// Three slides, 10 frames each at 10 fps
	src := &slideSource{fps: 10, values: slideScript(
		[2]int{10, 20}, [2]int{10, 200}, [2]int{10, 80},
	)}

	changes, err := d.Detect(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.InDelta(t, 1.0, changes[0], 1e-9)
	assert.InDelta(t, 2.0, changes[1], 1e-9)
}

func TestDetect_CooldownSuppressesRapidChanges(t *testing.T) {
	d, err := New(testOptions(), testLogger())
	require.NoError(t, err)

	// Transitions at frames 5 and 8; 1s cooldown at 10 fps spans 10 frames,
	// so the second transition lands inside the cooldown.
	src := &slideSource{fps: 10, values: slideScript(
		[2]int{5, 20}, [2]int{3, 200}, [2]int{12, 20},
	)}

	changes, err := d.Detect(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.InDelta(t, 0.5, changes[0], 1e-9)
}

func TestDetect_ZeroCooldownAcceptsAdjacentChanges(t *testing.T) {
	opts := testOptions()
	opts.MinIntervalSec = 0

	d, err := New(opts, testLogger())
	require.NoError(t, err)

	src := &slideSource{fps: 10, values: slideScript(
		[2]int{5, 20}, [2]int{3, 200}, [2]int{12, 20},
	)}

	changes, err := d.Detect(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.InDelta(t, 0.5, changes[0], 1e-9)
	assert.InDelta(t, 0.8, changes[1], 1e-9)
}

func TestDetect_Deterministic(t *testing.T) {
	d, err := New(testOptions(), testLogger())
	require.NoError(t, err)

	values := slideScript([2]int{15, 10}, [2]int{15, 220}, [2]int{15, 90})

	first, err := d.Detect(context.Background(), &slideSource{fps: 10, values: values})
	require.NoError(t, err)

	second, err := d.Detect(context.Background(), &slideSource{fps: 10, values: values})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDetect_SamplingStride(t *testing.T) {
	opts := testOptions()
	opts.SamplingFPS = 2 // step of 5 at 10 fps

	d, err := New(opts, testLogger())
	require.NoError(t, err)

	// Transition at frame 12; first sampled frame at or after it is 15
	src := &slideSource{fps: 10, values: slideScript(
		[2]int{12, 20}, [2]int{18, 200},
	)}

	changes, err := d.Detect(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.InDelta(t, 1.5, changes[0], 1e-9)
}

func TestDetect_ContextCancelled(t *testing.T) {
	d, err := New(testOptions(), testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &slideSource{fps: 10, values: slideScript([2]int{30, 128})}

	_, err = d.Detect(ctx, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectConcurrent_SingleWorkerMatchesSequential(t *testing.T) {
	values := slideScript(
		[2]int{10, 20}, [2]int{10, 200}, [2]int{10, 80}, [2]int{10, 240},
	)

	d, err := New(testOptions(), testLogger())
	require.NoError(t, err)

	sequential, err := d.Detect(context.Background(), &slideSource{fps: 10, values: values})
	require.NoError(t, err)

	sampler, err := frame.NewSampler(&slideSource{fps: 10, values: values}, 0, 64)
	require.NoError(t, err)

	concurrent, err := d.detectConcurrent(context.Background(), sampler)
	require.NoError(t, err)

	assert.Equal(t, sequential, concurrent)
}

func TestDetectConcurrent_SortedOutput(t *testing.T) {
	opts := testOptions()
	opts.NumWorkers = 4

	d, err := New(opts, testLogger())
	require.NoError(t, err)

	src := &slideSource{fps: 10, values: slideScript(
		[2]int{12, 20}, [2]int{12, 200}, [2]int{12, 80}, [2]int{12, 240},
	)}

	changes, err := d.Detect(context.Background(), src)
	require.NoError(t, err)

	// Acceptance order races between workers, so only a subset of the
	// transition timestamps is guaranteed. Output must stay sorted, unique
	// and drawn from the actual transitions.
	require.NotEmpty(t, changes)
	transitions := map[float64]bool{1.2: true, 2.4: true, 3.6: true}
	for i, c := range changes {
		assert.True(t, transitions[c], "unexpected change at %v", c)
		if i > 0 {
			assert.Greater(t, c, changes[i-1])
		}
	}
}

// brokenSource yields frames with no pixel data, which makes scoring panic.
type brokenSource struct {
	fps   float64
	count int
	pos   int
}

func (s *brokenSource) FPS() float64 { return s.fps }

func (s *brokenSource) Next() (frame.Frame, bool, error) {
	if s.pos >= s.count {
		return frame.Frame{}, false, nil
	}
	f := frame.Frame{
		Index:     s.pos,
		Timestamp: float64(s.pos) / s.fps,
	}
	s.pos++
	return f, true, nil
}

func TestRunTask_RecoversScoringPanic(t *testing.T) {
	r := runTask(scoreTask{
		index:     3,
		timestamp: 0.3,
		prev:      &frame.Frame{},
		cur:       &frame.Frame{},
	})

	require.Error(t, r.err)
	assert.Equal(t, 3, r.index)
}

func TestDetectConcurrent_ScoringFailureIsNoChange(t *testing.T) {
	opts := testOptions()
	opts.NumWorkers = 2

	d, err := New(opts, testLogger())
	require.NoError(t, err)

	// Every scoring task fails; the run must still complete with the
	// failures treated as no-change.
	changes, err := d.detectConcurrent(context.Background(), &brokenSource{fps: 10, count: 8})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDetectConcurrent_ContextCancelled(t *testing.T) {
	opts := testOptions()
	opts.NumWorkers = 4

	d, err := New(opts, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &slideSource{fps: 10, values: slideScript([2]int{30, 128})}

	_, err = d.Detect(ctx, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
