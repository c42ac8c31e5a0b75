package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/service"
)

// AdminHandlers contains handlers for internal admin API endpoints
type AdminHandlers struct {
	presentations *service.PresentationService
	logger        *zap.Logger
}

// NewAdminHandlers creates a new AdminHandlers instance
func NewAdminHandlers(presentations *service.PresentationService, logger *zap.Logger) *AdminHandlers {
	return &AdminHandlers{
		presentations: presentations,
		logger:        logger,
	}
}

// AdminStatus handles the admin health endpoint
func (h *AdminHandlers) AdminStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "vc-authn-admin",
	})
}

// PresentationConfigRequest is the request body for creating or updating a
// presentation configuration
type PresentationConfigRequest struct {
	ID                string              `json:"id" binding:"required"`
	SubjectIdentifier string              `json:"subject_identifier" binding:"required"`
	Configuration     domain.ProofRequest `json:"configuration" binding:"required"`
}

// ListPresentationConfigs returns all presentation configurations
// GET /admin/presentation-configs
func (h *AdminHandlers) ListPresentationConfigs(c *gin.Context) {
	configs, err := h.presentations.GetAllConfigs(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list presentation configs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list presentation configs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"presentation_configs": configs})
}

// GetPresentationConfig returns a specific presentation configuration
// GET /admin/presentation-configs/:id
func (h *AdminHandlers) GetPresentationConfig(c *gin.Context) {
	id := c.Param("id")

	cfg, err := h.presentations.GetConfig(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Presentation config not found"})
			return
		}
		h.logger.Error("Failed to get presentation config", zap.Error(err), zap.String("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get presentation config"})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// PutPresentationConfig creates or replaces a presentation configuration
// PUT /admin/presentation-configs/:id
func (h *AdminHandlers) PutPresentationConfig(c *gin.Context) {
	var req PresentationConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if id := c.Param("id"); id != "" && id != req.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body id does not match path"})
		return
	}

	cfg := &domain.PresentationConfig{
		ID:                req.ID,
		SubjectIdentifier: req.SubjectIdentifier,
		Configuration:     req.Configuration,
	}
	if err := h.presentations.PutConfig(c.Request.Context(), cfg); err != nil {
		h.logger.Error("Failed to store presentation config", zap.Error(err), zap.String("id", req.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store presentation config"})
		return
	}

	h.logger.Info("Presentation config stored", zap.String("id", req.ID))
	c.JSON(http.StatusOK, cfg)
}

// CreatePresentationConfig creates a presentation configuration
// POST /admin/presentation-configs
func (h *AdminHandlers) CreatePresentationConfig(c *gin.Context) {
	h.PutPresentationConfig(c)
}

// DeletePresentationConfig removes a presentation configuration
// DELETE /admin/presentation-configs/:id
func (h *AdminHandlers) DeletePresentationConfig(c *gin.Context) {
	id := c.Param("id")

	if err := h.presentations.DeleteConfig(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Presentation config not found"})
			return
		}
		h.logger.Error("Failed to delete presentation config", zap.Error(err), zap.String("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete presentation config"})
		return
	}

	h.logger.Info("Presentation config deleted", zap.String("id", id))
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
