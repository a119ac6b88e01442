package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"strang/internal/domain"
	"strang/internal/infra"
	"strang/internal/pipeline"
	"strang/internal/ratelimit"
)

const maxRequestBody = 1 << 20

// Pipeline is the part of pipeline.Service the handlers call.
type Pipeline interface {
	Generate(ctx context.Context, text, clientID string) (string, error)
	Status(ctx context.Context, jobID string) (*pipeline.StatusResult, error)
}

// App holds the dependencies shared by every handler.
type App struct {
	Config   *infra.Config
	Pipeline Pipeline
	Jobs     domain.JobRepository
	Waitlist domain.WaitlistRepository
	Logger   zerolog.Logger

	validate *validator.Validate
}

func NewApp(cfg *infra.Config, p Pipeline, jobs domain.JobRepository, waitlist domain.WaitlistRepository, logger *infra.Logger) *App {
	return &App{
		Config:   cfg,
		Pipeline: p,
		Jobs:     jobs,
		Waitlist: waitlist,
		Logger:   infra.LoggerOrNop(logger),
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) detail(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"detail": msg})
}

type normalizer interface {
	normalize()
}

// decode reads a JSON body into dst and runs struct validation. The returned
// message is meant for the client.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) (string, bool) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return "request body is required", false
		}
		return "invalid JSON body: " + err.Error(), false
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if err := a.validate.Struct(dst); err != nil {
		return validationMessage(err), false
	}
	return "", true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s: field required", fe.Field()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s: must contain at least %s character", fe.Field(), fe.Param()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s: value is not a valid email address", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// fail maps an error from the pipeline or a repository to a status code.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		code = http.StatusTooManyRequests
		var rl *ratelimit.RateLimitError
		if errors.As(err, &rl) {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
		}
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrValidation):
		code = http.StatusInternalServerError
	case errors.Is(err, domain.ErrUpstream):
		code = http.StatusBadGateway
	}
	if code >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Int("status", code).Msg("request failed")
	}
	a.detail(w, code, err.Error())
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.detail(w, http.StatusNotFound, "Not Found")
}

func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.detail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
