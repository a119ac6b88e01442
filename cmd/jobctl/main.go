package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"strang/internal/adapter/repo"
	"strang/internal/domain"
	"strang/internal/infra"
	"strang/internal/storage"
)

// jobctl prints jobs and waitlist totals from a Strang data directory or the
// postgres job table. It never writes.
func main() {
	var (
		dirFlag      string
		backendFlag  string
		idFlag       string
		statusFlag   string
		waitlistFlag bool
	)

	flag.StringVar(&dirFlag, "dir", envOr("WAITLIST_DIR", "."), "data directory holding jobs.json and waitlist.json")
	flag.StringVar(&backendFlag, "backend", envOr("JOB_STORE_BACKEND", infra.JobStoreFile), "job store to read (file, postgres)")
	flag.StringVar(&idFlag, "id", "", "print a single job")
	flag.StringVar(&statusFlag, "status", "", "only list jobs with this status (pending, completed, failed)")
	flag.BoolVar(&waitlistFlag, "waitlist", false, "print the waitlist count instead of jobs")
	flag.Parse()

	status := domain.JobStatus(strings.ToLower(strings.TrimSpace(statusFlag)))
	if status != "" && !status.Valid() {
		exitWithError(fmt.Errorf("unsupported status %q", statusFlag))
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("cmd", "jobctl").Logger()

	store, err := openStore(dirFlag)
	if err != nil {
		exitWithError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if waitlistFlag {
		count, err := repo.NewFileWaitlistRepository(store, &logger).Count(ctx)
		if err != nil {
			exitWithError(fmt.Errorf("failed to count waitlist: %w", err))
		}
		printJSON(map[string]int{"count": count})
		return
	}

	jobs, closeJobs, err := openJobs(ctx, strings.ToLower(backendFlag), store, logger)
	if err != nil {
		exitWithError(err)
	}
	defer closeJobs()

	if id := strings.TrimSpace(idFlag); id != "" {
		job, err := jobs.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			exitWithError(fmt.Errorf("job %s not found", id))
		}
		if err != nil {
			exitWithError(fmt.Errorf("failed to load job: %w", err))
		}
		printJSON(newJobView(*job))
		return
	}

	items, err := jobs.List(ctx)
	if err != nil {
		exitWithError(fmt.Errorf("failed to list jobs: %w", err))
	}
	filtered := make([]jobView, 0, len(items))
	for _, job := range items {
		if status == "" || job.Status == status {
			filtered = append(filtered, newJobView(job))
		}
	}
	printJSON(filtered)
}

// jobView adds the id, which the stored document keeps as a map key.
type jobView struct {
	ID string `json:"id"`
	domain.Job
}

func newJobView(job domain.Job) jobView {
	return jobView{ID: job.ID, Job: job}
}

// openStore opens an existing data directory. NewFileStore creates missing
// directories, so the path is checked first.
func openStore(dir string) (*storage.FileStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", dir)
	}
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	return store, nil
}

func openJobs(ctx context.Context, backend string, store *storage.FileStore, logger zerolog.Logger) (domain.JobRepository, func(), error) {
	switch backend {
	case infra.JobStoreFile:
		jobs := repo.NewFileJobRepository(store, &logger)
		jobs.Load()
		return jobs, func() {}, nil
	case infra.JobStorePostgres:
		dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
		if dbURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect database: %w", err)
		}
		return repo.NewPGJobRepository(infra.NewSQLRunner(pool, logger)), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", backend)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		exitWithError(err)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
