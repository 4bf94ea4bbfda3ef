// Package rule exposes the authoring and statistics endpoints for
// automation rules.
package rule

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sellerdesk-automation-api/internal/api/common"
	"sellerdesk-automation-api/internal/automation"
	"sellerdesk-automation-api/internal/domain"
	"sellerdesk-automation-api/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RuleRequest is the authoring payload for create and update.
type RuleRequest struct {
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	Priority    int                `json:"priority"`
	Trigger     domain.Trigger     `json:"trigger"`
	Conditions  []domain.Condition `json:"conditions"`
	Action      domain.Action      `json:"action"`
}

func (r RuleRequest) validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if err := r.Trigger.Validate(); err != nil {
		return err
	}
	return r.Action.Validate()
}

// HandleListRules returns every rule in evaluation order.
func HandleListRules(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := storer.ListRules(r.Context())
		if err != nil {
			log.Error("could not list rules", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not list rules", log)
			return
		}
		if rules == nil {
			rules = []domain.AutomationRule{}
		}

		common.WriteJSON(w, http.StatusOK, rules, log)
	}
}

// HandleCreateRule creates a new automation rule.
func HandleCreateRule(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), log)
			return
		}
		if err := req.validate(); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
			return
		}

		rule, err := storer.CreateRule(r.Context(), store.CreateRuleParams{
			Name:        req.Name,
			Description: req.Description,
			Priority:    req.Priority,
			Trigger:     req.Trigger,
			Conditions:  req.Conditions,
			Action:      req.Action,
		})
		if err != nil {
			log.Error("could not create rule", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not create rule", log)
			return
		}

		common.WriteJSON(w, http.StatusCreated, rule, log)
	}
}

// HandleGetRule fetches one rule.
func HandleGetRule(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID, err := uuid.Parse(chi.URLParam(r, "ruleId"))
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid rule ID", log)
			return
		}

		rule, err := storer.GetRuleByID(r.Context(), ruleID)
		if err != nil {
			if errors.Is(err, store.ErrRuleNotFound) {
				common.WriteJSONError(w, http.StatusNotFound, "rule not found", log)
				return
			}
			log.Error("could not fetch rule", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not fetch rule", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, rule, log)
	}
}

// HandleUpdateRule updates a rule's authoring fields. Execution counters are
// owned by the tracker and survive updates untouched.
func HandleUpdateRule(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID, err := uuid.Parse(chi.URLParam(r, "ruleId"))
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid rule ID", log)
			return
		}

		var req RuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), log)
			return
		}
		if err := req.validate(); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
			return
		}

		updated, err := storer.UpdateRule(r.Context(), store.UpdateRuleParams{
			RuleID:      ruleID,
			Name:        req.Name,
			Description: req.Description,
			Priority:    req.Priority,
			Trigger:     req.Trigger,
			Conditions:  req.Conditions,
			Action:      req.Action,
		})
		if err != nil {
			if errors.Is(err, store.ErrRuleNotFound) {
				common.WriteJSONError(w, http.StatusNotFound, "rule not found", log)
				return
			}
			log.Error("could not update rule", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not update rule", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, updated, log)
	}
}

// HandleToggleRule sets a rule's enabled flag.
func HandleToggleRule(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID, err := uuid.Parse(chi.URLParam(r, "ruleId"))
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid rule ID", log)
			return
		}

		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid request body", log)
			return
		}

		updated, err := storer.SetRuleEnabled(r.Context(), ruleID, req.Enabled)
		if err != nil {
			if errors.Is(err, store.ErrRuleNotFound) {
				common.WriteJSONError(w, http.StatusNotFound, "rule not found", log)
				return
			}
			log.Error("could not toggle rule", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not toggle rule", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, updated, log)
	}
}

// HandleRuleStats returns the execution statistics for one rule.
func HandleRuleStats(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID, err := uuid.Parse(chi.URLParam(r, "ruleId"))
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid rule ID", log)
			return
		}

		rule, err := storer.GetRuleByID(r.Context(), ruleID)
		if err != nil {
			if errors.Is(err, store.ErrRuleNotFound) {
				common.WriteJSONError(w, http.StatusNotFound, "rule not found", log)
				return
			}
			log.Error("could not fetch rule", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not fetch rule", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, automation.StatsFor(rule), log)
	}
}

// HandleListExecutions returns recent execution records, optionally filtered
// by ruleId.
func HandleListExecutions(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ruleID *uuid.UUID
		if raw := r.URL.Query().Get("ruleId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				common.WriteJSONError(w, http.StatusBadRequest, "invalid rule ID", log)
				return
			}
			ruleID = &id
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				common.WriteJSONError(w, http.StatusBadRequest, "invalid limit", log)
				return
			}
			limit = parsed
		}

		records, err := storer.ListExecutions(r.Context(), ruleID, limit)
		if err != nil {
			log.Error("could not list executions", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not list executions", log)
			return
		}
		if records == nil {
			records = []domain.ExecutionRecord{}
		}

		common.WriteJSON(w, http.StatusOK, records, log)
	}
}
