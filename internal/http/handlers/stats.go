package handlers

import (
	"net/http"

	"strang/internal/domain"
)

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Jobs.CountByStatus(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	waitlist, err := a.Waitlist.Count(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	a.json(w, http.StatusOK, map[string]any{
		"jobs_total":     total,
		"jobs_pending":   counts[domain.JobStatusPending],
		"jobs_completed": counts[domain.JobStatusCompleted],
		"jobs_failed":    counts[domain.JobStatusFailed],
		"waitlist_count": waitlist,
	})
}
