// Package evaluation exposes the engine entry points: evaluate a message
// against the rule set, and dry-run a single rule.
package evaluation

import (
	"encoding/json"
	"net/http"

	"sellerdesk-automation-api/internal/api/common"
	"sellerdesk-automation-api/internal/automation"
	"sellerdesk-automation-api/internal/domain"

	"go.uber.org/zap"
)

// EvaluateRequest carries the message to evaluate plus the evaluation mode.
type EvaluateRequest struct {
	Message domain.Message        `json:"message"`
	Mode    domain.EvaluationMode `json:"mode,omitempty"`
}

// TestRequest carries a rule draft and a sample message for a dry run.
type TestRequest struct {
	Rule    testRule       `json:"rule"`
	Message domain.Message `json:"message"`
}

// testRule mirrors the authoring payload; a dry run works on unsaved drafts,
// so it carries no id or counters.
type testRule struct {
	Name       string             `json:"name"`
	Priority   int                `json:"priority"`
	Trigger    domain.Trigger     `json:"trigger"`
	Conditions []domain.Condition `json:"conditions"`
	Action     domain.Action      `json:"action"`
}

// HandleEvaluateMessage runs the enabled rules against the posted message
// and returns the execution records produced.
func HandleEvaluateMessage(orch *automation.Orchestrator, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EvaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), log)
			return
		}
		if req.Message.ID == "" {
			common.WriteJSONError(w, http.StatusBadRequest, "message id is required", log)
			return
		}
		if !req.Message.Type.IsValid() {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid message type", log)
			return
		}
		if req.Mode != "" && !req.Mode.IsValid() {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid evaluation mode", log)
			return
		}

		records, err := orch.EvaluateMessage(r.Context(), req.Message, req.Mode)
		if err != nil {
			log.Error("message evaluation failed", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not evaluate message", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, records, log)
	}
}

// HandleTestRule dry-runs a rule draft against a sample message. No reply is
// sent and no counter moves.
func HandleTestRule(orch *automation.Orchestrator, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), log)
			return
		}
		if err := req.Rule.Trigger.Validate(); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
			return
		}
		if err := req.Rule.Action.Validate(); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
			return
		}

		rule := domain.AutomationRule{
			Name:       req.Rule.Name,
			Enabled:    true,
			Priority:   req.Rule.Priority,
			Trigger:    req.Rule.Trigger,
			Conditions: req.Rule.Conditions,
			Action:     req.Rule.Action,
		}

		preview := orch.TestRule(r.Context(), rule, req.Message)
		common.WriteJSON(w, http.StatusOK, preview, log)
	}
}
