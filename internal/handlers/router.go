package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/trippit/internal/handlers/middleware"
	"github.com/nkiryanov/trippit/internal/handlers/render"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/models"
	"github.com/nkiryanov/trippit/internal/service/oauth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	// Origin allowed to call the API from browser, "*" if empty
	AllowedOrigin string
}

func NewRouter(
	cfg RouterConfig,
	publisher publisher,
	oauthService oauthService,
	sessions sessionStore,
	visitService visitService,
	logger logger.Logger,
) http.Handler {
	withSession := middleware.SessionMiddleware(sessions)

	api := http.NewServeMux()

	api.Handle("POST /reddit/publish", handlePublish(publisher, logger))
	api.Handle("POST /reddit/preview", handlePreview(logger))
	api.Handle("GET /reddit/authorize", handleAuthorize(oauthService, logger))
	api.Handle("POST /reddit/callback", handleCallback(oauthService, logger))
	api.Handle("GET /reddit/session", withSession(handleSession()))
	api.Handle("POST /reddit/logout", withSession(handleLogout(sessions, logger)))

	api.Handle("POST /visits", handleLogVisit(visitService, logger))
	api.Handle("GET /visits", handleTopVisits(visitService, logger))

	// Method-specific patterns win; everything else on known paths is 405
	for path, allow := range map[string]string{
		"/reddit/publish":   "POST",
		"/reddit/preview":   "POST",
		"/reddit/authorize": "GET",
		"/reddit/callback":  "POST",
		"/reddit/session":   "GET",
		"/reddit/logout":    "POST",
		"/visits":           "GET, POST",
	} {
		api.Handle(path, methodNotAllowed(allow))
	}

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
		middleware.CORSMiddleware(cfg.AllowedOrigin),
	)

	return handler
}

func methodNotAllowed(allow string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		render.ServiceErrorDetails(w, "Method not allowed", r.Method+" is not supported", http.StatusMethodNotAllowed)
	})
}

type publisher interface {
	// Publish itinerary to the subreddit
	// Has to wrap apperrors.ErrAuthentication if no token could be acquired
	// Has to return *apperrors.PublishError if Reddit rejected the post
	Publish(ctx context.Context, it models.Itinerary, title string) (models.PublishResult, error)
}

type oauthService interface {
	// Start interactive login: authorization url and state to send back on callback
	Authorize() (oauth.AuthorizeRequest, error)

	// Finish interactive login
	// Has to return *apperrors.CallbackError for handshake failures
	Complete(ctx context.Context, code string, state string, expectedState string) (models.Session, error)
}

type sessionStore interface {
	// Has to return apperrors.ErrSessionNotFound or apperrors.ErrSessionExpired
	Get(ctx context.Context, token string) (models.Session, error)
	Invalidate(ctx context.Context, token string) error
}

type visitService interface {
	// Has to return apperrors.ErrInvalidLocation if city or country is empty
	Log(ctx context.Context, city string, country string) (models.Visit, error)
	Top(ctx context.Context, limit int) ([]models.Visit, error)
}
