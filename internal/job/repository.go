package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a segmentation job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository defines the persistence port for segmentation jobs. The CLI
// worker runs against the in-memory implementation; a persistent backend
// can be swapped in without touching the service.
type Repository interface {
	// Save persists a segmentation job, overwriting any prior state for
	// the same ID. The service saves on every status transition so a
	// crash leaves the last observed state behind.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a job by its run identifier.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all segmentation jobs.
	List(ctx context.Context) ([]*Job, error)

	// Delete removes a job and its recorded results.
	// Returns ErrJobNotFound if the job does not exist.
	Delete(ctx context.Context, id string) error
}
