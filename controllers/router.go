package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"user_server_go/jsonconv"
	"user_server_go/middleware"
	"user_server_go/models"
	"user_server_go/services"
)

// Deps are what the handlers need from the rest of the application.
type Deps struct {
	Users  services.UserService
	Log    *slog.Logger
	JSON   jsonconv.Converter
	Prefix string
	// CORSOrigins enables the CORS handler when non-empty.
	CORSOrigins []string
}

// API holds the route handlers.
type API struct {
	users    services.UserService
	log      *slog.Logger
	json     jsonconv.Converter
	validate *validator.Validate
}

// NewRouter registers every route under deps.Prefix and wraps the router
// with request logging and CORS.
func NewRouter(deps Deps) http.Handler {
	api := &API{
		users:    deps.Users,
		log:      deps.Log,
		json:     deps.JSON,
		validate: validator.New(),
	}
	if api.log == nil {
		api.log = slog.Default()
	}
	if api.json == nil {
		api.json = jsonconv.Default
	}

	router := mux.NewRouter()
	r := router
	if prefix := strings.TrimSuffix(deps.Prefix, "/"); prefix != "" {
		r = router.PathPrefix(prefix).Subrouter()
	}

	r.HandleFunc("/health", api.HealthCheck).Methods(http.MethodGet)

	// test routes
	r.HandleFunc("/test", api.TestResponse).Methods(http.MethodGet)
	r.HandleFunc("/test/get", api.TestGet).Methods(http.MethodGet)
	r.HandleFunc("/test/post", api.TestPost).Methods(http.MethodPost)

	// public user routes
	r.HandleFunc("/user/register", api.Register).Methods(http.MethodPost)
	r.HandleFunc("/user/login", api.Login).Methods(http.MethodPost)

	// private user routes
	private := r.NewRoute().Subrouter()
	private.Use(middleware.Authorize(deps.Users, api.log))
	private.HandleFunc("/user/get", api.GetUser).Methods(http.MethodGet)

	var h http.Handler = router
	if len(deps.CORSOrigins) > 0 {
		h = middleware.CORS(deps.CORSOrigins)(h)
	}
	return middleware.RequestLogger(api.log)(h)
}

func (a *API) respond(w http.ResponseWriter, resp models.Response) {
	if err := resp.Write(w); err != nil {
		a.log.Error("failed to write response", "err", err)
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	a.respond(w, models.NewResponse(models.CodeFailure))
}
