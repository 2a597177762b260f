package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/handlers/middleware"
	"github.com/nkiryanov/trippit/internal/handlers/render"
	"github.com/nkiryanov/trippit/internal/handlers/sessionctx"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/models"
	"github.com/nkiryanov/trippit/internal/service/oauth"
	"github.com/nkiryanov/trippit/internal/service/reddit"
)

const (
	stateCookieName = "reddit_oauth_state"
	stateCookiePath = "/api/reddit"

	ErrorAuthenticationFailed = "authentication_failed"
	ErrorPublishFailed        = "publish_failed"
)

type publishRequest struct {
	Title     string           `json:"title" validate:"notblank,max=300"`
	Itinerary models.Itinerary `json:"itinerary"`
}

func handlePublish(publisher publisher, l logger.Logger) http.Handler {
	type response struct {
		Success bool   `json:"success"`
		PostURL string `json:"postUrl"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[publishRequest](w, r)
		if err != nil {
			return
		}

		result, err := publisher.Publish(r.Context(), data.Itinerary, data.Title)

		var pubErr *apperrors.PublishError
		switch {
		case err == nil:
			render.JSON(w, response{Success: true, PostURL: result.PostURL})
		case errors.Is(err, apperrors.ErrAuthentication):
			l.Error("Failed to authenticate with Reddit", "error", err)
			render.ServiceErrorDetails(w, ErrorAuthenticationFailed, "Could not authenticate with Reddit", http.StatusInternalServerError)
		case errors.As(err, &pubErr):
			l.Error("Reddit rejected post", "error", err, "status_code", pubErr.StatusCode)
			render.ServiceErrorDetails(w, ErrorPublishFailed, pubErr.Reason, http.StatusInternalServerError)
		default:
			l.Error("Failed to publish post", "error", err)
			render.ServiceErrorDetails(w, ErrorPublishFailed, "Failed to publish to Reddit", http.StatusInternalServerError)
		}
	})
}

func handlePreview(l logger.Logger) http.Handler {
	type response struct {
		Title    string `json:"title"`
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
		Warning  string `json:"warning,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[publishRequest](w, r)
		if err != nil {
			return
		}

		p, err := reddit.NewPreview(data.Title, data.Itinerary)
		if err != nil {
			l.Error("Failed to render preview", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res := response{Title: p.Title, Markdown: p.Markdown, HTML: p.HTML}
		if p.FormatErr != nil {
			res.Warning = p.FormatErr.Error()
		}
		render.JSON(w, res)
	})
}

func handleAuthorize(oauthService oauthService, l logger.Logger) http.Handler {
	type response struct {
		URL   string `json:"url"`
		State string `json:"state"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := oauthService.Authorize()
		if err != nil {
			l.Error("Failed to start authorization", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    req.State,
			Path:     stateCookiePath,
			MaxAge:   int(time.Until(req.ExpiresAt).Seconds()),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
		render.JSON(w, response{URL: req.URL, State: req.State})
	})
}

func handleCallback(oauthService oauthService, l logger.Logger) http.Handler {
	type request struct {
		Code  string `json:"code"`
		State string `json:"state"`
	}
	type response struct {
		Success      bool      `json:"success"`
		SessionToken string    `json:"sessionToken"`
		Username     string    `json:"username"`
		ExpiresAt    time.Time `json:"expiresAt"`
	}
	type errorResponse struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Decode[request](w, r)
		if err != nil {
			render.JSONWithStatus(w, errorResponse{Error: render.DecodeErrorDetails(err)}, http.StatusBadRequest)
			return
		}

		var expectedState string
		if c, err := r.Cookie(stateCookieName); err == nil {
			expectedState = c.Value
		}

		// State is single use whatever the outcome
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Path:     stateCookiePath,
			MaxAge:   -1,
			HttpOnly: true,
		})

		s, err := oauthService.Complete(r.Context(), data.Code, data.State, expectedState)

		var cbErr *apperrors.CallbackError
		switch {
		case err == nil:
			render.JSON(w, response{Success: true, SessionToken: s.Token, Username: s.Username, ExpiresAt: s.ExpiresAt})
		case errors.As(err, &cbErr) && cbErr.Step == oauth.StepValidate:
			l.Warn("Rejected oauth callback", "error", err)
			render.JSONWithStatus(w, errorResponse{Error: cbErr.Reason}, http.StatusBadRequest)
		case errors.As(err, &cbErr):
			l.Error("Oauth callback failed", "error", err, "step", cbErr.Step)
			render.JSONWithStatus(w, errorResponse{Error: cbErr.Reason}, http.StatusInternalServerError)
		default:
			l.Error("Oauth callback failed", "error", err)
			render.JSONWithStatus(w, errorResponse{Error: "Internal server error"}, http.StatusInternalServerError)
		}
	})
}

func handleSession() http.Handler {
	type response struct {
		Username  string    `json:"username"`
		ExpiresAt time.Time `json:"expiresAt"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Username: s.Username, ExpiresAt: s.ExpiresAt})
	})
}

func handleLogout(sessions sessionStore, l logger.Logger) http.Handler {
	type response struct {
		Success bool `json:"success"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := middleware.BearerToken(r)
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if err := sessions.Invalidate(r.Context(), token); err != nil {
			l.Error("Failed to invalidate session", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Success: true})
	})
}
