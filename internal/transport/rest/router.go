package rest

import (
	"hugoquiz/internal/service"
	"hugoquiz/internal/transport/rest/handler"
	"hugoquiz/internal/transport/rest/middleware"
	"hugoquiz/internal/transport/ws"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	WSHub          *ws.Hub
	Logger         *zap.Logger

	SecureCookies      bool
	MaxRequestsPerMin  int
	TrustProxyHeaders  bool
	CORSAllowedOrigins string
}

// NewRouter creates the router for the participant page, the session API and the operator feed
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	pageHandler := handler.NewPageHandler(c.SessionService, c.AuthService, c.SecureCookies, c.Logger)
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.Logger)
	authHandler := handler.NewAuthHandler(c.AuthService, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)
	limiter := middleware.NewRateLimiter(c.MaxRequestsPerMin, c.TrustProxyHeaders, c.Logger)

	r.Use(middleware.Recover(c.Logger))
	r.Use(middleware.Logging(c.Logger))
	r.Use(limiter.Middleware)

	// Participant page
	r.HandleFunc("/", pageHandler.Show).Methods("GET")
	r.HandleFunc("/participant", pageHandler.SubmitParticipant).Methods("POST")
	r.HandleFunc("/next", pageHandler.Next).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(corsMiddleware(c.CORSAllowedOrigins))

	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/ws/progress", wsHandler.ProgressWS).Methods("GET")

	// Session routes (require session token)
	sessionRoutes := v1.PathPrefix("/sessions/current").Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("", sessionHandler.Current).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/participant", sessionHandler.SubmitParticipant).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/answers", sessionHandler.SubmitAnswer).Methods("POST", "OPTIONS")

	// Operator routes
	operatorRoutes := v1.PathPrefix("/operator").Subrouter()
	operatorRoutes.Use(authMW.RequireOperator)

	operatorRoutes.HandleFunc("/sessions/{id}", sessionHandler.Inspect).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
