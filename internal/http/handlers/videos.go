package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"strang/internal/domain"
	"strang/internal/middleware"
)

type generateRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

type generateResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if msg, ok := a.decode(w, r, &req); !ok {
		a.detail(w, http.StatusUnprocessableEntity, msg)
		return
	}
	jobID, err := a.Pipeline.Generate(r.Context(), req.Text, middleware.ClientIP(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, generateResponse{
		JobID:   jobID,
		Message: "Video generation started. Poll /generate/status/" + jobID + " for result.",
	})
}

func (a *App) GenerateStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	res, err := a.Pipeline.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.detail(w, http.StatusNotFound, "Job not found")
			return
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
