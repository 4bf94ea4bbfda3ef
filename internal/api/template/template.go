// Package template exposes the reply-template endpoints. The placeholder
// variable set is derived from the content server-side at save time.
package template

import (
	"encoding/json"
	"errors"
	"net/http"

	"sellerdesk-automation-api/internal/api/common"
	"sellerdesk-automation-api/internal/automation"
	"sellerdesk-automation-api/internal/domain"
	"sellerdesk-automation-api/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateRequest is the authoring payload for create and update. Variables
// are not accepted from the client; they are recomputed from Content.
type TemplateRequest struct {
	Name    string  `json:"name"`
	Subject *string `json:"subject,omitempty"`
	Content string  `json:"content"`
}

func (r TemplateRequest) validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Content == "" {
		return errors.New("content is required")
	}
	return nil
}

// HandleListTemplates returns all templates.
func HandleListTemplates(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := storer.ListTemplates(r.Context())
		if err != nil {
			log.Error("could not list templates", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not list templates", log)
			return
		}
		if templates == nil {
			templates = []domain.Template{}
		}

		common.WriteJSON(w, http.StatusOK, templates, log)
	}
}

// HandleCreateTemplate creates a template, deriving its variable set.
func HandleCreateTemplate(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), log)
			return
		}
		if err := req.validate(); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
			return
		}

		tmpl, err := storer.CreateTemplate(r.Context(), store.CreateTemplateParams{
			Name:      req.Name,
			Subject:   req.Subject,
			Content:   req.Content,
			Variables: automation.ExtractVariables(req.Content),
		})
		if err != nil {
			log.Error("could not create template", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not create template", log)
			return
		}

		common.WriteJSON(w, http.StatusCreated, tmpl, log)
	}
}

// HandleGetTemplate fetches one template.
func HandleGetTemplate(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID, err := uuid.Parse(chi.URLParam(r, "templateId"))
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid template ID", log)
			return
		}

		tmpl, err := storer.GetTemplateByID(r.Context(), templateID)
		if err != nil {
			if errors.Is(err, store.ErrTemplateNotFound) {
				common.WriteJSONError(w, http.StatusNotFound, "template not found", log)
				return
			}
			log.Error("could not fetch template", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not fetch template", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, tmpl, log)
	}
}

// HandleUpdateTemplate updates a template and re-derives its variable set.
func HandleUpdateTemplate(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateID, err := uuid.Parse(chi.URLParam(r, "templateId"))
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid template ID", log)
			return
		}

		var req TemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), log)
			return
		}
		if err := req.validate(); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
			return
		}

		tmpl, err := storer.UpdateTemplate(r.Context(), store.UpdateTemplateParams{
			TemplateID: templateID,
			Name:       req.Name,
			Subject:    req.Subject,
			Content:    req.Content,
			Variables:  automation.ExtractVariables(req.Content),
		})
		if err != nil {
			if errors.Is(err, store.ErrTemplateNotFound) {
				common.WriteJSONError(w, http.StatusNotFound, "template not found", log)
				return
			}
			log.Error("could not update template", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "could not update template", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, tmpl, log)
	}
}
