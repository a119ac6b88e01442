package domain

import "context"

// JobMutator changes a job in place. Returning an error aborts the update and
// leaves the stored job untouched.
type JobMutator func(job *Job) error

// JobRepository defines persistence for job entities. Every mutating call is
// durable before it returns.
type JobRepository interface {
	Create(ctx context.Context) (*Job, error)
	GetByID(ctx context.Context, jobID string) (*Job, error)
	Update(ctx context.Context, jobID string, mutate JobMutator) (*Job, error)
	List(ctx context.Context) ([]Job, error)
	CountByStatus(ctx context.Context) (map[JobStatus]int, error)
}

// WaitlistRepository stores normalized email signups.
type WaitlistRepository interface {
	// Join adds the email and reports whether it was newly added.
	Join(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int, error)
}
