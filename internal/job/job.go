// Package job provides the Job aggregate for managing video segmentation
// runs. It includes the Job entity with state machine transitions, a
// repository interface for persistence, and the orchestration service.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/edustream/lecture-segmenter/internal/chunker"
	"github.com/edustream/lecture-segmenter/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusPending indicates the job is waiting to be processed.
	StatusPending Status = "PENDING"
	// StatusRunning indicates the job is being processed.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the job finished successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the job encountered an error during execution.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the job was cancelled before completion.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusRunning, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents one segmentation run aggregate. It records the input
// references, the detected slide changes, and the final chunk list.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// VideoRef is the input video reference (local path or s3://bucket/key).
	VideoRef string
	// TranscriptPath is the optional local path to the ASR transcript.
	TranscriptPath string
	// VideoDuration is the probed video duration in seconds.
	VideoDuration float64
	// SlideChanges holds the detected slide-change timestamps in seconds.
	SlideChanges []float64
	// Chunks is the final fused chunk list.
	Chunks []chunker.Chunk
	// Error contains any error message if the job failed.
	Error string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial PENDING status.
func New(videoRef, transcriptPath string) *Job {
	now := time.Now()
	return &Job{
		ID:             id.Generate(),
		Status:         StatusPending,
		VideoRef:       videoRef,
		TranscriptPath: transcriptPath,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from PENDING to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete transitions the job to COMPLETED state.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// Cancel transitions the job to CANCELLED state.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetResult records the segmentation output on the job.
func (j *Job) SetResult(duration float64, slideChanges []float64, chunks []chunker.Chunk) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.VideoDuration = duration
	j.SlideChanges = slideChanges
	j.Chunks = chunks
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted ||
		j.Status == StatusFailed ||
		j.Status == StatusCancelled
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	slideChanges := make([]float64, len(j.SlideChanges))
	copy(slideChanges, j.SlideChanges)
	chunks := make([]chunker.Chunk, len(j.Chunks))
	copy(chunks, j.Chunks)

	return &Job{
		ID:             j.ID,
		Status:         j.Status,
		VideoRef:       j.VideoRef,
		TranscriptPath: j.TranscriptPath,
		VideoDuration:  j.VideoDuration,
		SlideChanges:   slideChanges,
		Chunks:         chunks,
		Error:          j.Error,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		StartedAt:      j.StartedAt,
		CompletedAt:    j.CompletedAt,
	}
}
