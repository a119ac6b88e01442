package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"strang/internal/domain"
	"strang/internal/infra"
	"strang/internal/storage"
)

const jobsDocument = "jobs.json"

type jobsFile struct {
	Jobs map[string]domain.Job `json:"jobs"`
}

// FileJobRepository implements domain.JobRepository on top of a single JSON
// document. The whole map is rewritten on every mutation.
type FileJobRepository struct {
	mu     sync.Mutex
	store  *storage.FileStore
	jobs   map[string]*domain.Job
	logger zerolog.Logger
	now    func() time.Time
}

// NewFileJobRepository creates an empty repository. Call Load to pick up jobs
// persisted by a previous run.
func NewFileJobRepository(store *storage.FileStore, logger *infra.Logger) *FileJobRepository {
	return &FileJobRepository{
		store:  store,
		jobs:   make(map[string]*domain.Job),
		logger: infra.LoggerOrNop(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Load replaces the in-memory jobs with the persisted document. A missing or
// unreadable document leaves the repository empty.
func (r *FileJobRepository) Load() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs = make(map[string]*domain.Job)
	var doc jobsFile
	if err := r.store.ReadJSON(jobsDocument, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Info().Str("file", jobsDocument).Msg("no persisted jobs")
			return
		}
		r.logger.Warn().Err(err).Str("file", jobsDocument).Msg("ignoring unreadable job store")
		return
	}
	for id, job := range doc.Jobs {
		if !job.Status.Valid() {
			r.logger.Warn().Str("job_id", id).Str("status", string(job.Status)).Msg("skipping job with unknown status")
			continue
		}
		j := job
		j.ID = id
		r.jobs[id] = &j
	}
	r.logger.Info().Int("jobs", len(r.jobs)).Msg("job store loaded")
}

// Flush writes the current state to disk.
func (r *FileJobRepository) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked(ctx)
}

// Create inserts a new pending job with a fresh id.
func (r *FileJobRepository) Create(ctx context.Context) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := domain.NewJob(uuid.NewString(), r.now())
	r.jobs[job.ID] = job
	if err := r.persistLocked(ctx); err != nil {
		delete(r.jobs, job.ID)
		return nil, err
	}
	return job.Clone(), nil
}

// GetByID fetches a job by its identifier.
func (r *FileJobRepository) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

// Update applies mutate to a copy of the job and stores it once the copy has
// been persisted. A mutator error or a failed write leaves the job unchanged.
func (r *FileJobRepository) Update(ctx context.Context, jobID string, mutate domain.JobMutator) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := prev.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.now()
	r.jobs[jobID] = next
	if err := r.persistLocked(ctx); err != nil {
		r.jobs[jobID] = prev
		return nil, err
	}
	return next.Clone(), nil
}

// List returns every job ordered by creation time.
func (r *FileJobRepository) List(ctx context.Context) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		items = append(items, *job)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// CountByStatus returns the number of jobs per status.
func (r *FileJobRepository) CountByStatus(ctx context.Context) (map[domain.JobStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[domain.JobStatus]int, 3)
	for _, job := range r.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (r *FileJobRepository) persistLocked(ctx context.Context) error {
	doc := jobsFile{Jobs: make(map[string]domain.Job, len(r.jobs))}
	for id, job := range r.jobs {
		doc.Jobs[id] = *job
	}
	if err := r.store.WriteJSON(ctx, jobsDocument, doc); err != nil {
		r.logger.Error().Err(err).Str("file", jobsDocument).Msg("persist jobs failed")
		return fmt.Errorf("persist jobs: %w", err)
	}
	return nil
}

var _ domain.JobRepository = (*FileJobRepository)(nil)
