package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"sladeshAPI/internal/repository"
)

// StatsHandler serves the persisted statistics snapshots the scoreboard and
// charts views render, keyed by period label ("overall" or "YYYY-MM").
type StatsHandler struct {
	stats repository.StatsRepository
}

func NewStatsHandler(stats repository.StatsRepository) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	metric := mux.Vars(r)["metric"]

	var payload interface{}
	var err error
	switch metric {
	case "totalDrinks":
		payload, _, err = h.stats.DrinkTotals(ctx)
	case "mostSladeshedUser":
		payload, err = h.stats.MostSladeshed(ctx)
	case "mostCheckedInUser":
		payload, err = h.stats.MostCheckedIn(ctx)
	case "topUsers":
		payload, err = h.stats.TopDrinkers(ctx)
	default:
		respondWithError(w, http.StatusNotFound, "Unknown statistics metric")
		return
	}

	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to read statistics")
		return
	}
	respondWithJSON(w, http.StatusOK, payload)
}
