package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"strang/internal/domain"
	"strang/internal/infra"
	"strang/internal/providers/video"
)

const defaultFailureMessage = "HeyGen reported failure"

// Synthesizer turns text into a screenplay.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*domain.Screenplay, error)
}

// VideoClient submits screenplays and polls rendering status.
type VideoClient interface {
	Submit(ctx context.Context, sp *domain.Screenplay) (string, error)
	Poll(ctx context.Context, videoID string) video.PollResult
}

// Limiter admits or rejects a request for a client.
type Limiter interface {
	Check(clientID string) error
}

// StatusResult is what a client sees when polling a job.
type StatusResult struct {
	Status   domain.JobStatus `json:"status"`
	VideoURL string           `json:"video_url,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Service runs the text to screenplay to video pipeline and advances jobs
// when clients poll them.
type Service struct {
	jobs    domain.JobRepository
	synth   Synthesizer
	videos  VideoClient
	limiter Limiter
	logger  zerolog.Logger
}

// NewService wires the pipeline. limiter may be nil to disable rate limiting.
func NewService(jobs domain.JobRepository, synth Synthesizer, videos VideoClient, limiter Limiter, logger *infra.Logger) *Service {
	return &Service{
		jobs:    jobs,
		synth:   synth,
		videos:  videos,
		limiter: limiter,
		logger:  infra.LoggerOrNop(logger),
	}
}

// Generate creates a job for text, synthesizes a screenplay and submits it.
// It returns once the provider accepted the video; rendering continues
// remotely. When synthesis or submission fails the job is marked failed and
// the error is returned.
func (s *Service) Generate(ctx context.Context, text, clientID string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Check(clientID); err != nil {
			s.logger.Info().Str("client", clientID).Msg("generate rate limited")
			return "", err
		}
	}

	job, err := s.jobs.Create(ctx)
	if err != nil {
		return "", err
	}
	log := s.logger.With().Str("job_id", job.ID).Logger()
	log.Info().Str("client", clientID).Int("text_len", len(text)).Msg("job created")

	sp, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		s.failJob(ctx, log, job.ID, err)
		return "", err
	}
	log.Debug().Str("title", sp.ProjectTitle).Int("scenes", len(sp.Scenes)).Msg("screenplay ready")

	videoID, err := s.videos.Submit(ctx, sp)
	if err != nil {
		s.failJob(ctx, log, job.ID, err)
		return "", err
	}

	// The provider already accepted the video, so the id is recorded even if
	// the caller went away during submission.
	if _, err := s.jobs.Update(context.WithoutCancel(ctx), job.ID, func(j *domain.Job) error {
		return j.AttachVideo(videoID)
	}); err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("attach video failed")
		lost := fmt.Errorf("HeyGen video %s was submitted but could not be recorded: %w", videoID, err)
		s.failJob(ctx, log, job.ID, lost)
		return "", lost
	}
	log.Info().Str("video_id", videoID).Msg("video submitted")
	return job.ID, nil
}

// failJob records cause on the job. The write outlives a canceled request
// so the failure stays visible to later status calls.
func (s *Service) failJob(ctx context.Context, log zerolog.Logger, jobID string, cause error) {
	_, err := s.jobs.Update(context.WithoutCancel(ctx), jobID, func(j *domain.Job) error {
		return j.Fail(cause.Error())
	})
	if err != nil {
		log.Error().Err(err).Msg("mark job failed")
		return
	}
	log.Warn().Err(cause).Msg("job failed")
}

// Status returns the current state of a job, polling the provider when the
// job is still pending and has a video id. Terminal jobs are answered from
// the store.
func (s *Service) Status(ctx context.Context, jobID string) (*StatusResult, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() || job.VideoID == "" {
		return resultFromJob(job), nil
	}

	log := s.logger.With().Str("job_id", job.ID).Str("video_id", job.VideoID).Logger()
	res := s.videos.Poll(ctx, job.VideoID)

	switch {
	case res.Status == video.PollCompleted && res.VideoURL != "":
		return s.settle(ctx, log, job, func(j *domain.Job) error {
			return j.Complete(res.VideoURL)
		})
	case res.Status == video.PollCompleted:
		log.Warn().Msg("provider reported completed without a url")
	case res.Status == video.PollFailed, res.Status == video.PollError && !res.Transient:
		message := res.Error
		if message == "" {
			message = defaultFailureMessage
		}
		return s.settle(ctx, log, job, func(j *domain.Job) error {
			return j.Fail(message)
		})
	case res.Transient:
		log.Debug().Str("error", res.Error).Msg("status check inconclusive")
	}
	return &StatusResult{Status: domain.JobStatusPending}, nil
}

// settle persists a terminal transition. If another request settled the job
// first, the stored state is returned instead.
func (s *Service) settle(ctx context.Context, log zerolog.Logger, job *domain.Job, mutate domain.JobMutator) (*StatusResult, error) {
	updated, err := s.jobs.Update(ctx, job.ID, mutate)
	if errors.Is(err, domain.ErrTerminalJob) {
		current, getErr := s.jobs.GetByID(ctx, job.ID)
		if getErr != nil {
			return nil, getErr
		}
		return resultFromJob(current), nil
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("status", string(updated.Status)).Str("error", updated.Error).Msg("job settled")
	return resultFromJob(updated), nil
}

func resultFromJob(job *domain.Job) *StatusResult {
	out := &StatusResult{Status: job.Status}
	switch job.Status {
	case domain.JobStatusCompleted:
		out.VideoURL = job.VideoURL
	case domain.JobStatusFailed:
		out.Error = job.Error
	}
	return out
}
