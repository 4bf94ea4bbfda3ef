package common

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// contextKey for user ID
type contextKey string

var UserContextKey contextKey = "user_id"

// GetUserIDFromContext returns the user ID placed in the context by the auth
// middleware.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(UserContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing or invalid user ID in context")
	}
	return userID, nil
}

// WriteJSON writes a standard JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error(
			"failed to write JSON response",
			zap.Error(err),
			zap.Int("status", status),
			zap.String("component", "api"),
		)
	}
}

// WriteJSONError writes a standard JSON error response.
func WriteJSONError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	WriteJSON(w, status, map[string]string{"error": message}, logger)
}
