package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/apperr"
	"github.com/lumehq/lume-backend/internal/requestdata"
	"github.com/lumehq/lume-backend/internal/services"
)

type InterventionHandler struct {
	policy     services.PolicyService
	history    services.InterventionService
	preference services.PreferenceService
}

func NewInterventionHandler(policy services.PolicyService, history services.InterventionService, preference services.PreferenceService) *InterventionHandler {
	return &InterventionHandler{policy: policy, history: history, preference: preference}
}

// POST /api/interventions/evaluate
func (h *InterventionHandler) Evaluate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", apperr.ErrUnauthorized)
		return
	}
	decision, err := h.policy.Evaluate(c.Request.Context(), rd.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "user_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "evaluate_failed", err)
		return
	}
	RespondOK(c, gin.H{"decision": decision})
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

// POST /api/interventions/:id/feedback
func (h *InterventionHandler) Feedback(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", apperr.ErrUnauthorized)
		return
	}
	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_intervention_id", err)
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	err = h.history.RecordFeedback(c.Request.Context(), rd.UserID, logID, req.Feedback)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "invalid_feedback", err)
		return
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "intervention_not_found", err)
		return
	case errors.Is(err, apperr.ErrAlreadySet):
		RespondError(c, http.StatusConflict, "feedback_already_set", err)
		return
	default:
		RespondError(c, http.StatusInternalServerError, "feedback_failed", err)
		return
	}

	log, err := h.history.GetByID(c.Request.Context(), logID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "feedback_failed", err)
		return
	}
	RespondOK(c, gin.H{"intervention": log})
}

// GET /api/interventions/preferences
func (h *InterventionHandler) Preferences(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", apperr.ErrUnauthorized)
		return
	}
	pref, err := h.preference.GetPreferences(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "preferences_failed", err)
		return
	}
	if pref == nil {
		RespondOK(c, gin.H{"preferences": (*types.SuggestionPreference)(nil)})
		return
	}
	RespondOK(c, gin.H{"preferences": pref})
}
