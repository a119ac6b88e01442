package screenplay

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"strang/internal/domain"
	"strang/internal/infra"
)

const (
	defaultModel   = "gpt-4o"
	defaultTimeout = 60 * time.Second
	temperature    = 0.3
)

// Options configures the OpenAI synthesizer.
type Options struct {
	APIKey           string
	Model            string
	BaseURL          string
	Organization     string
	HTTPClient       *http.Client
	Timeout          time.Duration
	StructuredOutput bool
	Logger           *infra.Logger
}

// OpenAISynthesizer turns free text into a screenplay with one chat
// completion call.
type OpenAISynthesizer struct {
	client     openai.Client
	configured bool
	model      string
	structured bool
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewOpenAISynthesizer builds a synthesizer. A blank API key is accepted so the
// server can start; every Synthesize call then fails with a configuration error.
func NewOpenAISynthesizer(opts Options) *OpenAISynthesizer {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &OpenAISynthesizer{
		model:      model,
		structured: opts.StructuredOutput,
		timeout:    timeout,
		logger:     infra.LoggerOrNop(opts.Logger),
	}
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return s
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	if org := strings.TrimSpace(opts.Organization); org != "" {
		clientOpts = append(clientOpts, option.WithOrganization(org))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	s.client = openai.NewClient(clientOpts...)
	s.configured = true
	return s
}

// Configured reports whether an API key was supplied.
func (s *OpenAISynthesizer) Configured() bool {
	return s.configured
}

// Synthesize asks the model for a screenplay of text and validates the result.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (*domain.Screenplay, error) {
	if !s.configured {
		return nil, domain.Errorf(domain.ErrConfiguration, "OPENAI_API_KEY is not set. Add it to your environment.")
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(DirectorSystemPrompt),
			openai.UserMessage(text),
		},
		Temperature:    openai.Float(temperature),
		ResponseFormat: s.responseFormat(),
	}

	start := time.Now()
	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		s.logger.Warn().Err(err).Str("model", s.model).Dur("elapsed", time.Since(start)).Msg("openai request failed")
		return nil, domain.Wrap(domain.ErrUpstream, err, "OpenAI error: "+providerMessage(err))
	}
	if len(completion.Choices) == 0 {
		return nil, malformedOutput(nil, "OpenAI error: no choices returned")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return nil, malformedOutput(nil, "OpenAI error: empty response")
	}

	sp, err := parseScreenplay(content)
	if err != nil {
		s.logger.Warn().Err(err).Str("model", s.model).Msg("screenplay rejected")
		return nil, err
	}
	s.logger.Debug().
		Str("model", s.model).
		Str("title", sp.ProjectTitle).
		Int("scenes", len(sp.Scenes)).
		Dur("elapsed", time.Since(start)).
		Msg("screenplay synthesized")
	return sp, nil
}

func (s *OpenAISynthesizer) responseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	if !s.structured {
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "screenplay",
				Description: openai.String("Scene-by-scene screenplay for an explainer video"),
				Schema:      screenplaySchema,
				Strict:      openai.Bool(true),
			},
		},
	}
}

// providerMessage prefers the message from an API error body over the SDK's
// formatted error, which repeats the request line.
func providerMessage(err error) string {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
		return http.StatusText(apiErr.StatusCode)
	}
	return err.Error()
}
