package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"openai_configured": a.Config.OpenAIConfigured(),
		"heygen_configured": a.Config.HeyGenConfigured(),
	})
}
