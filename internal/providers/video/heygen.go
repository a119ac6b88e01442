package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"strang/internal/domain"
	"strang/internal/infra"
)

const (
	defaultBaseURL       = "https://api.heygen.com"
	defaultOrientation   = "landscape"
	defaultSubmitTimeout = 60 * time.Second
	defaultStatusTimeout = 15 * time.Second

	generatePath = "/v1/video_agent/generate"
	statusPath   = "/v1/video_status.get"

	maxBodyBytes = 1 << 20
)

// PollStatus is the canonical status of a provider video.
type PollStatus string

const (
	PollPending   PollStatus = "pending"
	PollCompleted PollStatus = "completed"
	PollFailed    PollStatus = "failed"
	PollError     PollStatus = "error"
)

// PollResult is the outcome of one status check. Transient marks a check that
// got no usable answer; callers should keep the job pending.
type PollResult struct {
	Status    PollStatus
	VideoURL  string
	Error     string
	Transient bool
	Raw       json.RawMessage
}

// Options configures the HeyGen client.
type Options struct {
	APIKey        string
	BaseURL       string
	Orientation   string
	SubmitTimeout time.Duration
	StatusTimeout time.Duration
	HTTPClient    *http.Client
	Logger        *infra.Logger
}

// HeyGenClient submits scripts to the Video Agent endpoint and polls status.
type HeyGenClient struct {
	apiKey        string
	baseURL       string
	orientation   string
	submitTimeout time.Duration
	statusTimeout time.Duration
	client        *http.Client
	logger        zerolog.Logger
}

type generateRequest struct {
	Prompt string         `json:"prompt"`
	Config generateConfig `json:"config"`
}

type generateConfig struct {
	Orientation string `json:"orientation"`
	DurationSec int    `json:"duration_sec"`
}

// NewHeyGenClient builds a client. A blank API key is accepted; Submit then
// fails with a configuration error.
func NewHeyGenClient(opts Options) *HeyGenClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	orientation := strings.TrimSpace(opts.Orientation)
	if orientation == "" {
		orientation = defaultOrientation
	}
	submitTimeout := opts.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = defaultSubmitTimeout
	}
	statusTimeout := opts.StatusTimeout
	if statusTimeout <= 0 {
		statusTimeout = defaultStatusTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &HeyGenClient{
		apiKey:        strings.TrimSpace(opts.APIKey),
		baseURL:       baseURL,
		orientation:   orientation,
		submitTimeout: submitTimeout,
		statusTimeout: statusTimeout,
		client:        client,
		logger:        infra.LoggerOrNop(opts.Logger),
	}
}

// Configured reports whether an API key was supplied.
func (c *HeyGenClient) Configured() bool {
	return c.apiKey != ""
}

// Submit starts rendering sp and returns the provider's video id.
func (c *HeyGenClient) Submit(ctx context.Context, sp *domain.Screenplay) (string, error) {
	if !c.Configured() {
		return "", domain.Errorf(domain.ErrConfiguration, "HEYGEN_API_KEY is not set.")
	}
	payload := generateRequest{
		Prompt: BuildPrompt(sp),
		Config: generateConfig{
			Orientation: c.orientation,
			DurationSec: EstimateDuration(sp),
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", domain.Wrap(domain.ErrUpstream, err, "HeyGen Video Agent error: encode request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, &buf)
	if err != nil {
		return "", domain.Wrap(domain.ErrUpstream, err, "HeyGen Video Agent error: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("heygen submit request failed")
		return "", domain.Wrap(domain.ErrUpstream, err, "HeyGen Video Agent error: "+err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", domain.Wrap(domain.ErrUpstream, err, "HeyGen Video Agent error: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parseErrorMessage(body)
		if msg == "" {
			msg = resp.Status
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("error", msg).Msg("heygen submit rejected")
		return "", domain.Errorf(domain.ErrUpstream, "HeyGen Video Agent error: %s", msg)
	}
	videoID := parseVideoID(body)
	if videoID == "" {
		return "", domain.Errorf(domain.ErrUpstream, "HeyGen did not return video_id")
	}
	c.logger.Info().Str("video_id", videoID).Int("duration_sec", payload.Config.DurationSec).Msg("heygen video submitted")
	return videoID, nil
}

// Poll checks the status of videoID. It never returns an error; failures are
// folded into the result.
func (c *HeyGenClient) Poll(ctx context.Context, videoID string) PollResult {
	if !c.Configured() {
		return PollResult{Status: PollError, Error: "HEYGEN_API_KEY is not set.", Transient: true}
	}

	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()
	endpoint := c.baseURL + statusPath + "?" + url.Values{"video_id": {videoID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return PollResult{Status: PollError, Error: err.Error(), Transient: true}
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("video_id", videoID).Msg("heygen status request failed")
		return PollResult{Status: PollError, Error: err.Error(), Transient: true}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return PollResult{Status: PollError, Error: err.Error(), Transient: true}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return PollResult{Status: PollError, Error: msg, Raw: rawJSON(body)}
	}

	rawStatus, videoURL, message := parseStatus(body)
	result := PollResult{
		Status:   normalizeStatus(rawStatus),
		VideoURL: videoURL,
		Raw:      rawJSON(body),
	}
	if result.Status == PollFailed {
		result.Error = message
	}
	return result
}

func rawJSON(body []byte) json.RawMessage {
	if !json.Valid(body) {
		return nil
	}
	return json.RawMessage(body)
}
