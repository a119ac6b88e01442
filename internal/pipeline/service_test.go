package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"strang/internal/adapter/repo"
	"strang/internal/domain"
	"strang/internal/providers/video"
	"strang/internal/storage"
)

type fakeSynth struct {
	sp    *domain.Screenplay
	err   error
	calls int
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) (*domain.Screenplay, error) {
	f.calls++
	return f.sp, f.err
}

type fakeVideos struct {
	videoID   string
	submitErr error
	onSubmit  func()
	results   []video.PollResult
	polls     int
}

func (f *fakeVideos) Submit(ctx context.Context, sp *domain.Screenplay) (string, error) {
	if f.onSubmit != nil {
		f.onSubmit()
	}
	return f.videoID, f.submitErr
}

func (f *fakeVideos) Poll(ctx context.Context, videoID string) video.PollResult {
	i := f.polls
	f.polls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i]
}

type fakeLimiter struct {
	err   error
	calls int
}

func (f *fakeLimiter) Check(clientID string) error {
	f.calls++
	return f.err
}

func twoScenes() *domain.Screenplay {
	return &domain.Screenplay{
		ProjectTitle: "What Is VSD?",
		Scenes: []domain.Scene{
			{VisualType: "3D animation", VisualPrompt: "A heart.", Voiceover: "A VSD is a hole."},
			{VisualType: "diagram", VisualPrompt: "Flow chart.", Voiceover: "Blood mixes."},
		},
	}
}

func newTestService(t *testing.T, synth *fakeSynth, videos *fakeVideos, limiter Limiter) (*Service, *repo.FileJobRepository) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	jobs := repo.NewFileJobRepository(store, nil)
	return NewService(jobs, synth, videos, limiter, nil), jobs
}

func TestGenerateThenStatusPending(t *testing.T) {
	videos := &fakeVideos{videoID: "vid-123", results: []video.PollResult{{Status: video.PollPending}}}
	svc, jobs := newTestService(t, &fakeSynth{sp: twoScenes()}, videos, nil)
	ctx := context.Background()

	jobID, err := svc.Generate(ctx, "VSD is a heart defect.", "203.0.113.1")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	job, err := jobs.GetByID(ctx, jobID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if job.VideoID != "vid-123" || job.Status != domain.JobStatusPending {
		t.Fatalf("job = %+v, want pending with vid-123", job)
	}

	res, err := svc.Status(ctx, jobID)
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if res.Status != domain.JobStatusPending || res.VideoURL != "" || res.Error != "" {
		t.Fatalf("Status = %+v, want bare pending", res)
	}
	if videos.polls != 1 {
		t.Fatalf("polls = %d, want 1", videos.polls)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	svc, _ := newTestService(t, &fakeSynth{}, &fakeVideos{}, nil)
	for i := 0; i < 3; i++ {
		if _, err := svc.Status(context.Background(), "nonexistent"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Status = %v, want ErrNotFound", err)
		}
	}
}

func TestTerminalJobsAreNotPolledAgain(t *testing.T) {
	tests := []struct {
		name   string
		result video.PollResult
		want   StatusResult
	}{
		{
			name:   "completed",
			result: video.PollResult{Status: video.PollCompleted, VideoURL: "https://cdn/v.mp4"},
			want:   StatusResult{Status: domain.JobStatusCompleted, VideoURL: "https://cdn/v.mp4"},
		},
		{
			name:   "failed",
			result: video.PollResult{Status: video.PollFailed, Error: "moderation"},
			want:   StatusResult{Status: domain.JobStatusFailed, Error: "moderation"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			videos := &fakeVideos{videoID: "vid-1", results: []video.PollResult{tc.result, {Status: video.PollPending}}}
			svc, _ := newTestService(t, &fakeSynth{sp: twoScenes()}, videos, nil)
			ctx := context.Background()
			jobID, err := svc.Generate(ctx, "text", "c")
			if err != nil {
				t.Fatalf("Generate error: %v", err)
			}
			for i := 0; i < 3; i++ {
				res, err := svc.Status(ctx, jobID)
				if err != nil {
					t.Fatalf("Status error: %v", err)
				}
				if *res != tc.want {
					t.Fatalf("Status #%d = %+v, want %+v", i+1, *res, tc.want)
				}
			}
			if videos.polls != 1 {
				t.Fatalf("polls = %d, want 1", videos.polls)
			}
		})
	}
}

func TestStatusPollOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		result video.PollResult
		want   StatusResult
	}{
		{
			name:   "transient keeps pending",
			result: video.PollResult{Status: video.PollError, Error: "timeout", Transient: true},
			want:   StatusResult{Status: domain.JobStatusPending},
		},
		{
			name:   "provider error fails job",
			result: video.PollResult{Status: video.PollError, Error: "video not found"},
			want:   StatusResult{Status: domain.JobStatusFailed, Error: "video not found"},
		},
		{
			name:   "failure without message",
			result: video.PollResult{Status: video.PollFailed},
			want:   StatusResult{Status: domain.JobStatusFailed, Error: "HeyGen reported failure"},
		},
		{
			name:   "completed without url stays pending",
			result: video.PollResult{Status: video.PollCompleted},
			want:   StatusResult{Status: domain.JobStatusPending},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			videos := &fakeVideos{videoID: "vid-1", results: []video.PollResult{tc.result}}
			svc, jobs := newTestService(t, &fakeSynth{sp: twoScenes()}, videos, nil)
			ctx := context.Background()
			jobID, err := svc.Generate(ctx, "text", "c")
			if err != nil {
				t.Fatalf("Generate error: %v", err)
			}
			res, err := svc.Status(ctx, jobID)
			if err != nil {
				t.Fatalf("Status error: %v", err)
			}
			if *res != tc.want {
				t.Fatalf("Status = %+v, want %+v", *res, tc.want)
			}
			stored, _ := jobs.GetByID(ctx, jobID)
			if stored.Status != tc.want.Status {
				t.Fatalf("stored status = %s, want %s", stored.Status, tc.want.Status)
			}
		})
	}
}

func TestGenerateFailureMarksJobFailed(t *testing.T) {
	tests := []struct {
		name   string
		synth  *fakeSynth
		videos *fakeVideos
		kind   error
	}{
		{
			name:   "synthesis",
			synth:  &fakeSynth{err: domain.Errorf(domain.ErrUpstream, "OpenAI error: boom")},
			videos: &fakeVideos{},
			kind:   domain.ErrUpstream,
		},
		{
			name:   "submission",
			synth:  &fakeSynth{sp: twoScenes()},
			videos: &fakeVideos{submitErr: domain.Errorf(domain.ErrConfiguration, "HEYGEN_API_KEY is not set.")},
			kind:   domain.ErrConfiguration,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, jobs := newTestService(t, tc.synth, tc.videos, nil)
			ctx := context.Background()
			_, err := svc.Generate(ctx, "text", "c")
			if !errors.Is(err, tc.kind) {
				t.Fatalf("Generate = %v, want %v", err, tc.kind)
			}
			items, _ := jobs.List(ctx)
			if len(items) != 1 {
				t.Fatalf("jobs = %d, want 1", len(items))
			}
			if items[0].Status != domain.JobStatusFailed || items[0].Error != err.Error() {
				t.Fatalf("job = %+v, want failed with %q", items[0], err.Error())
			}
		})
	}
}

func TestGenerateRateLimitedCreatesNoJob(t *testing.T) {
	limiter := &fakeLimiter{err: domain.ErrRateLimited}
	synth := &fakeSynth{sp: twoScenes()}
	svc, jobs := newTestService(t, synth, &fakeVideos{videoID: "v"}, limiter)
	_, err := svc.Generate(context.Background(), "text", "c")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("Generate = %v, want ErrRateLimited", err)
	}
	items, _ := jobs.List(context.Background())
	if len(items) != 0 {
		t.Fatalf("jobs = %d, want 0", len(items))
	}
	if synth.calls != 0 {
		t.Fatalf("synth calls = %d, want 0", synth.calls)
	}
}

func TestStatusWithoutVideoIDDoesNotPoll(t *testing.T) {
	videos := &fakeVideos{}
	svc, jobs := newTestService(t, &fakeSynth{}, videos, nil)
	job, err := jobs.Create(context.Background())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	res, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if res.Status != domain.JobStatusPending {
		t.Fatalf("Status = %+v, want pending", res)
	}
	if videos.polls != 0 {
		t.Fatalf("polls = %d, want 0", videos.polls)
	}
}

func TestGenerateRecordsVideoAfterCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	videos := &fakeVideos{
		videoID:  "vid-paid",
		onSubmit: cancel,
		results:  []video.PollResult{{Status: video.PollCompleted, VideoURL: "https://cdn/paid.mp4"}},
	}
	svc, jobs := newTestService(t, &fakeSynth{sp: twoScenes()}, videos, nil)

	jobID, err := svc.Generate(ctx, "text", "c")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	stored, err := jobs.GetByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if stored.VideoID != "vid-paid" || stored.Status != domain.JobStatusPending {
		t.Fatalf("job = %+v, want pending with vid-paid", stored)
	}

	res, err := svc.Status(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if res.Status != domain.JobStatusCompleted || res.VideoURL != "https://cdn/paid.mp4" {
		t.Fatalf("Status = %+v, want completed", *res)
	}
}

// attachFailingJobs fails the first n Update calls and passes the rest through.
type attachFailingJobs struct {
	domain.JobRepository
	failures int
}

func (r *attachFailingJobs) Update(ctx context.Context, jobID string, mutate domain.JobMutator) (*domain.Job, error) {
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("disk full")
	}
	return r.JobRepository.Update(ctx, jobID, mutate)
}

func TestGenerateFailsJobWhenVideoCannotBeRecorded(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	jobs := &attachFailingJobs{JobRepository: repo.NewFileJobRepository(store, nil), failures: 1}
	svc := NewService(jobs, &fakeSynth{sp: twoScenes()}, &fakeVideos{videoID: "vid-paid"}, nil, nil)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, "text", "c"); err == nil || !strings.Contains(err.Error(), "vid-paid") {
		t.Fatalf("Generate = %v, want an error naming vid-paid", err)
	}
	items, _ := jobs.List(ctx)
	if len(items) != 1 {
		t.Fatalf("jobs = %d, want 1", len(items))
	}
	if items[0].Status != domain.JobStatusFailed || !strings.Contains(items[0].Error, "vid-paid") {
		t.Fatalf("job = %+v, want failed naming vid-paid", items[0])
	}
}
