package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"sellerdesk-automation-api/internal/api/common"
	"sellerdesk-automation-api/internal/api/evaluation"
	"sellerdesk-automation-api/internal/api/health"
	"sellerdesk-automation-api/internal/api/rule"
	"sellerdesk-automation-api/internal/api/template"
	"sellerdesk-automation-api/internal/automation"
	"sellerdesk-automation-api/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Server struct {
	Router *chi.Mux
	store  store.Storer
	engine *automation.Orchestrator
	log    *zap.Logger
}

func NewServer(s store.Storer, engine *automation.Orchestrator, log *zap.Logger) *Server {
	server := &Server{
		Router: chi.NewRouter(),
		store:  s,
		engine: engine,
		log:    log,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	allowedOrigins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.Router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.HandleHealth(s.log))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Rule authoring and statistics
			r.Get("/rules", rule.HandleListRules(s.store, s.log))
			r.Post("/rules", rule.HandleCreateRule(s.store, s.log))
			r.Get("/rules/{ruleId}", rule.HandleGetRule(s.store, s.log))
			r.Put("/rules/{ruleId}", rule.HandleUpdateRule(s.store, s.log))
			r.Post("/rules/{ruleId}/toggle", rule.HandleToggleRule(s.store, s.log))
			r.Get("/rules/{ruleId}/stats", rule.HandleRuleStats(s.store, s.log))

			// Engine entry points
			r.Post("/rules/test", evaluation.HandleTestRule(s.engine, s.log))
			r.Post("/messages/evaluate", evaluation.HandleEvaluateMessage(s.engine, s.log))

			// Templates
			r.Get("/templates", template.HandleListTemplates(s.store, s.log))
			r.Post("/templates", template.HandleCreateTemplate(s.store, s.log))
			r.Get("/templates/{templateId}", template.HandleGetTemplate(s.store, s.log))
			r.Put("/templates/{templateId}", template.HandleUpdateTemplate(s.store, s.log))

			// Execution history
			r.Get("/executions", rule.HandleListExecutions(s.store, s.log))
		})
	})
}

// authMiddleware validates the JWT and puts the user ID in the context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			common.WriteJSONError(w, http.StatusUnauthorized, "missing authorization header", s.log)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		jwtKey := []byte(os.Getenv("JWT_SECRET_KEY"))

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return jwtKey, nil
		})

		if err != nil || !token.Valid {
			common.WriteJSONError(w, http.StatusUnauthorized, "invalid token", s.log)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			common.WriteJSONError(w, http.StatusUnauthorized, "invalid claims", s.log)
			return
		}

		userIDStr, ok := claims["user_id"].(string)
		if !ok {
			common.WriteJSONError(w, http.StatusUnauthorized, "no user ID in token", s.log)
			return
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			common.WriteJSONError(w, http.StatusUnauthorized, "invalid user ID", s.log)
			return
		}

		ctx := context.WithValue(r.Context(), common.UserContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
