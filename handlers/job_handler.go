package handlers

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"sladeshAPI/internal/jobs"
)

// JobHandler lets operators trigger a scheduled job outside its schedule,
// e.g. to re-run an aggregation after fixing a configuration problem. Routes
// using it sit behind basic auth.
type JobHandler struct {
	runner *jobs.Runner
	jobs   map[string]jobs.Job
}

func NewJobHandler(runner *jobs.Runner, jobList []jobs.Job) *JobHandler {
	byName := make(map[string]jobs.Job, len(jobList))
	for _, j := range jobList {
		byName[j.Name()] = j
	}
	return &JobHandler{runner: runner, jobs: byName}
}

func (h *JobHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	job, ok := h.jobs[name]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Unknown job")
		return
	}

	if err := h.runner.Run(r.Context(), job); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"job": name, "status": "ok"})
}

// ListJobs returns the runnable job names.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	respondWithJSON(w, http.StatusOK, names)
}
