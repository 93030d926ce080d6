package rest

import (
	"net/http"

	"adaptivequiz/internal/service"
	"adaptivequiz/internal/transport/rest/handler"
	"adaptivequiz/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	QuestionService  *service.QuestionService
	SelectionService *service.SelectionService
	ResultService    *service.ResultService
	Metrics          http.Handler
	Logger           *zap.Logger
	AllowedOrigins   string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	questionHandler := handler.NewQuestionHandler(c.QuestionService)
	selectionHandler := handler.NewSelectionHandler(c.SelectionService)
	resultHandler := handler.NewResultHandler(c.ResultService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))
	if c.Logger != nil {
		r.Use(middleware.RequestLogger(c.Logger))
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	if c.Metrics != nil {
		r.Handle("/metrics", c.Metrics).Methods("GET")
	}

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/respondent", authHandler.IssueRespondentToken).Methods("POST", "OPTIONS")
	v1.HandleFunc("/questions", questionHandler.List).Methods("GET", "OPTIONS")

	// Selection works anonymously; a token adds the respondent's history
	adaptiveRoutes := v1.NewRoute().Subrouter()
	adaptiveRoutes.Use(authMW.OptionalRespondent)
	adaptiveRoutes.HandleFunc("/adaptive/next-questions", selectionHandler.NextQuestions).Methods("POST", "OPTIONS")

	// Respondent routes (require respondent auth)
	respondentRoutes := v1.NewRoute().Subrouter()
	respondentRoutes.Use(authMW.RequireRespondent)
	respondentRoutes.HandleFunc("/results", resultHandler.Complete).Methods("POST", "OPTIONS")
	respondentRoutes.HandleFunc("/results/recent", resultHandler.Recent).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/results/{id}", resultHandler.Get).Methods("GET", "OPTIONS")

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
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
