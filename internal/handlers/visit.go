package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/handlers/render"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/models"
)

// Visit counter is called by a plain fetch from the landing page, so its 400 is plain text
func handleLogVisit(visitService visitService, l logger.Logger) http.Handler {
	type request struct {
		City    string `json:"city"`
		Country string `json:"country"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Decode[request](w, r)
		if err != nil {
			render.Text(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		visit, err := visitService.Log(r.Context(), data.City, data.Country)

		switch {
		case err == nil:
			render.JSON(w, visit)
		case errors.Is(err, apperrors.ErrInvalidLocation):
			render.Text(w, "City and country are required", http.StatusBadRequest)
		default:
			l.Error("Failed to log visit", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleTopVisits(visitService visitService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var limit int
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				render.ServiceErrorDetails(w, "Invalid limit", "limit must be an integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		visits, err := visitService.Top(r.Context(), limit)
		if err != nil {
			l.Error("Failed to list visits", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if visits == nil {
			visits = []models.Visit{}
		}
		render.JSON(w, visits)
	})
}
