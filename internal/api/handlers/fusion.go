package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/api"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/db"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// FusionHandler handles reconciliation-related HTTP requests
type FusionHandler struct {
	fusionService *service.FusionService
}

// NewFusionHandler creates a new fusion handler
func NewFusionHandler(fusionService *service.FusionService) *FusionHandler {
	return &FusionHandler{fusionService: fusionService}
}

// TriggerRun executes a reconciliation run for a fusion source and returns
// its summary.
func (h *FusionHandler) TriggerRun(c *gin.Context) {
	sourceID := c.Param("sourceId")
	if sourceID == "" {
		api.SendError(c, http.StatusBadRequest, api.ErrCodeValidation, "fusion source ID is required", "")
		return
	}

	summary, err := h.fusionService.Reconcile(c.Request.Context(), sourceID)
	if err != nil {
		h.sendRunError(c, err)
		return
	}

	api.SendSuccess(c, http.StatusOK, summary)
}

// ListAccounts executes a reconciliation run and returns the emitted fusion
// accounts, mirroring the connector's account listing operation.
func (h *FusionHandler) ListAccounts(c *gin.Context) {
	sourceID := c.Param("sourceId")
	if sourceID == "" {
		api.SendError(c, http.StatusBadRequest, api.ErrCodeValidation, "fusion source ID is required", "")
		return
	}

	summary, err := h.fusionService.ListAccounts(c.Request.Context(), sourceID)
	if err != nil {
		h.sendRunError(c, err)
		return
	}

	api.SendSuccess(c, http.StatusOK, summary.Accounts)
}

// GetStatus returns the latest run record for a fusion source.
func (h *FusionHandler) GetStatus(c *gin.Context) {
	sourceID := c.Param("sourceId")

	run, err := h.fusionService.Status(c.Request.Context(), sourceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			api.SendError(c, http.StatusNotFound, api.ErrCodeNotFound, "no runs recorded for fusion source", "")
			return
		}
		api.SendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "failed to read run status", err.Error())
		return
	}

	api.SendSuccess(c, http.StatusOK, run)
}

// ListRuns returns the run log for a fusion source, newest first.
func (h *FusionHandler) ListRuns(c *gin.Context) {
	sourceID := c.Param("sourceId")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.fusionService.Runs(c.Request.Context(), sourceID, limit)
	if err != nil {
		api.SendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "failed to list runs", err.Error())
		return
	}

	api.SendSuccess(c, http.StatusOK, runs)
}

// RequestReset arms the reset flag for a fusion source.
func (h *FusionHandler) RequestReset(c *gin.Context) {
	sourceID := c.Param("sourceId")
	if sourceID == "" {
		api.SendError(c, http.StatusBadRequest, api.ErrCodeValidation, "fusion source ID is required", "")
		return
	}

	if err := h.fusionService.RequestReset(c.Request.Context(), sourceID); err != nil {
		api.SendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "failed to request reset", err.Error())
		return
	}

	api.SendSuccess(c, http.StatusAccepted, gin.H{"reset": "requested"})
}

// TriggerAggregation asks the platform to refresh the managed sources'
// accounts ahead of the next run.
func (h *FusionHandler) TriggerAggregation(c *gin.Context) {
	sourceID := c.Param("sourceId")
	if sourceID == "" {
		api.SendError(c, http.StatusBadRequest, api.ErrCodeValidation, "fusion source ID is required", "")
		return
	}

	if err := h.fusionService.TriggerAggregation(c.Request.Context(), sourceID); err != nil {
		api.SendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "failed to trigger aggregation", err.Error())
		return
	}

	api.SendSuccess(c, http.StatusAccepted, gin.H{"aggregation": "triggered"})
}

// ListPendingReviews returns the outstanding review forms.
func (h *FusionHandler) ListPendingReviews(c *gin.Context) {
	reviews, err := h.fusionService.ListPendingReviews(c.Request.Context())
	if err != nil {
		api.SendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "failed to list pending reviews", err.Error())
		return
	}

	api.SendSuccess(c, http.StatusOK, reviews)
}

// sendRunError maps run failures to status codes: configuration problems
// are the caller's to fix, a held lock is a conflict, the rest are internal.
func (h *FusionHandler) sendRunError(c *gin.Context, err error) {
	var cfgErr *fusion.ConfigError
	switch {
	case errors.Is(err, fusion.ErrLockHeld):
		api.SendError(c, http.StatusConflict, api.ErrCodeConflict, "a reconciliation run is already in progress", err.Error())
	case errors.As(err, &cfgErr):
		api.SendError(c, http.StatusBadRequest, api.ErrCodeValidation, "invalid fusion configuration", err.Error())
	default:
		api.SendError(c, http.StatusInternalServerError, api.ErrCodeInternal, "reconciliation run failed", err.Error())
	}
}
