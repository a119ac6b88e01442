package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"strang/internal/domain"
	"strang/internal/infra"
	"strang/internal/sqlinline"
)

const maxUpdateAttempts = 3

// PGJobRepository implements domain.JobRepository using PostgreSQL.
type PGJobRepository struct {
	db  infra.SQLExecutor
	now func() time.Time
}

// NewPGJobRepository creates a new job repository backed by PostgreSQL.
func NewPGJobRepository(db infra.SQLExecutor) *PGJobRepository {
	return &PGJobRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// EnsureSchema creates the jobs table when it does not exist yet.
func (r *PGJobRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, sqlinline.QCreateVideoJobsTable)
	return err
}

// Create inserts a new pending job record.
func (r *PGJobRepository) Create(ctx context.Context) (*domain.Job, error) {
	job := domain.NewJob(uuid.NewString(), r.now())
	if _, err := r.db.Exec(ctx, sqlinline.QInsertVideoJob, job.ID, string(job.Status), job.CreatedAt); err != nil {
		return nil, err
	}
	return job, nil
}

// GetByID fetches a job by its identifier.
func (r *PGJobRepository) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.db.QueryRow(ctx, sqlinline.QSelectVideoJob, jobID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// Update reads the job, applies mutate and writes it back only if the stored
// status is still the one that was read. A lost race re-reads and retries, so
// a mutator sees a job that reached a terminal state in the meantime.
func (r *PGJobRepository) Update(ctx context.Context, jobID string, mutate domain.JobMutator) (*domain.Job, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		job, err := r.GetByID(ctx, jobID)
		if err != nil {
			return nil, err
		}
		prevStatus := job.Status
		if err := mutate(job); err != nil {
			return nil, err
		}
		job.UpdatedAt = r.now()
		tag, err := r.db.Exec(ctx, sqlinline.QUpdateVideoJob,
			job.ID,
			string(prevStatus),
			string(job.Status),
			job.VideoID,
			job.VideoURL,
			job.Error,
			job.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 1 {
			return job, nil
		}
	}
	return nil, domain.Errorf(domain.ErrTerminalJob, "job %s changed concurrently", jobID)
}

// List returns every job ordered by creation time.
func (r *PGJobRepository) List(ctx context.Context) ([]domain.Job, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListVideoJobs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountByStatus returns the number of jobs per status.
func (r *PGJobRepository) CountByStatus(ctx context.Context) (map[domain.JobStatus]int, error) {
	rows, err := r.db.Query(ctx, sqlinline.QCountVideoJobsByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.JobStatus]int, 3)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.JobStatus(status)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var status string
	if err := row.Scan(
		&job.ID,
		&status,
		&job.VideoID,
		&job.VideoURL,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

var _ domain.JobRepository = (*PGJobRepository)(nil)
