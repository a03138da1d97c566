package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sladeshAPI/internal/repository"
	"sladeshAPI/internal/types/user"
)

type UserHandler struct {
	users repository.UserRepository
}

func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers returns every user with id and all fields; the client uses it to
// populate user pickers.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	if users == nil {
		users = []*user.User{}
	}

	respondWithJSON(w, http.StatusOK, users)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
