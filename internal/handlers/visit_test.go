package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/models"
)

func TestHandleLogVisit(t *testing.T) {
	visitID := uuid.MustParse("0b0e3a50-7d8e-4c7c-9c0a-1f1d2a3b4c5d")
	createdAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("ok", func(t *testing.T) {
		deps := newTestDeps()
		var gotCity, gotCountry string
		deps.visits.log = func(_ context.Context, city, country string) (models.Visit, error) {
			gotCity, gotCountry = city, country
			return models.Visit{ID: visitID, City: "Paris", Country: "France", Count: 2, CreatedAt: createdAt, UpdatedAt: createdAt}, nil
		}
		srv := deps.serve(t)

		resp := doRequest(t, http.MethodPost, srv.URL+"/api/visits", `{"city": "Paris", "country": "France"}`, nil)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "body: %s", resp.body)
		require.JSONEq(t, `{
			"id": "0b0e3a50-7d8e-4c7c-9c0a-1f1d2a3b4c5d",
			"city": "Paris",
			"country": "France",
			"count": 2,
			"created_at": "2026-05-01T10:00:00Z",
			"updated_at": "2026-05-01T10:00:00Z"
		}`, resp.body)
		require.Equal(t, "Paris", gotCity)
		require.Equal(t, "France", gotCountry)
	})

	t.Run("invalid location is plain text", func(t *testing.T) {
		deps := newTestDeps()
		deps.visits.log = func(context.Context, string, string) (models.Visit, error) {
			return models.Visit{}, apperrors.ErrInvalidLocation
		}
		srv := deps.serve(t)

		resp := doRequest(t, http.MethodPost, srv.URL+"/api/visits", `{"city": "", "country": "France"}`, nil)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
		require.Equal(t, "City and country are required\n", resp.body)
	})

	t.Run("malformed body is plain text", func(t *testing.T) {
		srv := newTestDeps().serve(t)

		resp := doRequest(t, http.MethodPost, srv.URL+"/api/visits", `{"city": `, nil)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
		require.Equal(t, "Invalid request body\n", resp.body)
	})

	t.Run("storage failure", func(t *testing.T) {
		deps := newTestDeps()
		deps.visits.log = func(context.Context, string, string) (models.Visit, error) {
			return models.Visit{}, errors.New("db error: connection refused")
		}
		srv := deps.serve(t)

		resp := doRequest(t, http.MethodPost, srv.URL+"/api/visits", `{"city": "Paris", "country": "France"}`, nil)

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.JSONEq(t, `{"error": "Internal server error"}`, resp.body)
	})
}

func TestHandleTopVisits(t *testing.T) {
	t.Run("limit passed to service", func(t *testing.T) {
		tests := []struct {
			query     string
			wantLimit int
		}{
			{"", 0},
			{"?limit=5", 5},
			{"?limit=-1", -1},
		}

		for _, tt := range tests {
			t.Run(tt.query, func(t *testing.T) {
				deps := newTestDeps()
				gotLimit := 42
				deps.visits.top = func(_ context.Context, limit int) ([]models.Visit, error) {
					gotLimit = limit
					return []models.Visit{{City: "Paris", Country: "France", Count: 3}}, nil
				}
				srv := deps.serve(t)

				resp := doRequest(t, http.MethodGet, srv.URL+"/api/visits"+tt.query, "", nil)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "body: %s", resp.body)
				require.Equal(t, tt.wantLimit, gotLimit)
				require.Contains(t, resp.body, `"city":"Paris"`)
			})
		}
	})

	t.Run("empty list", func(t *testing.T) {
		deps := newTestDeps()
		deps.visits.top = func(context.Context, int) ([]models.Visit, error) { return nil, nil }
		srv := deps.serve(t)

		resp := doRequest(t, http.MethodGet, srv.URL+"/api/visits", "", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.JSONEq(t, `[]`, resp.body)
	})

	t.Run("invalid limit", func(t *testing.T) {
		srv := newTestDeps().serve(t)

		resp := doRequest(t, http.MethodGet, srv.URL+"/api/visits?limit=ten", "", nil)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"error": "Invalid limit", "details": "limit must be an integer"}`, resp.body)
	})
}
