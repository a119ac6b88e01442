package domain

import (
	"strings"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Job tracks one text-to-video pipeline run. VideoID is the handle returned by the
// video provider; it is stored as "video_id" to stay compatible with existing job files.
type Job struct {
	ID        string    `json:"-"`
	Status    JobStatus `json:"status"`
	VideoID   string    `json:"video_id,omitempty"`
	VideoURL  string    `json:"video_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// NewJob returns a pending job with no provider handle.
func NewJob(id string, now time.Time) *Job {
	return &Job{
		ID:        id,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AttachVideo records the provider handle once submission succeeded.
func (j *Job) AttachVideo(videoID string) error {
	if j.Status.Terminal() {
		return ErrTerminalJob
	}
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return Errorf(ErrInvalidInput, "video id is required")
	}
	j.VideoID = videoID
	return nil
}

// Complete moves the job to completed. A completed job always has a url.
func (j *Job) Complete(videoURL string) error {
	if j.Status.Terminal() {
		return ErrTerminalJob
	}
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return Errorf(ErrInvalidInput, "video url is required")
	}
	j.Status = JobStatusCompleted
	j.VideoURL = videoURL
	j.Error = ""
	return nil
}

// Fail moves the job to failed with the given message.
func (j *Job) Fail(message string) error {
	if j.Status.Terminal() {
		return ErrTerminalJob
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown error"
	}
	j.Status = JobStatusFailed
	j.Error = message
	j.VideoURL = ""
	return nil
}

// Clone returns a copy safe to hand out of a store.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	return &c
}
