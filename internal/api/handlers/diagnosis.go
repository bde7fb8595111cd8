package handlers

import (
	"net/http"

	"cropdoc/internal/auth"
	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/gin-gonic/gin"
)

// DiagnosisHandler handles HTTP requests for crop diagnosis history
type DiagnosisHandler struct {
	diagnosisRepo repository.DiagnosisRepository
}

// NewDiagnosisHandler creates a new diagnosis handler
func NewDiagnosisHandler(diagnosisRepo repository.DiagnosisRepository) *DiagnosisHandler {
	return &DiagnosisHandler{diagnosisRepo: diagnosisRepo}
}

// Create godoc
// @Summary Record a diagnosis
// @Description Store a diagnosis entry for the authenticated user
// @Tags diagnoses
// @Accept json
// @Produce json
// @Param request body models.CreateDiagnosisRequest true "Diagnosis details"
// @Success 201 {object} models.Diagnosis
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 429 {object} models.ErrorResponse "Too many diagnosis requests"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /diagnoses [post]
func (h *DiagnosisHandler) Create(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "not authenticated"})
		return
	}

	var req models.CreateDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	diagnosis := &models.Diagnosis{
		UserID:   user.ID,
		Crop:     req.Crop,
		ImageURL: req.ImageURL,
		Result:   req.Result,
		Advice:   req.Advice,
	}
	if err := h.diagnosisRepo.Create(c.Request.Context(), diagnosis); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to record diagnosis"})
		return
	}

	c.JSON(http.StatusCreated, diagnosis)
}

// List godoc
// @Summary List diagnoses
// @Description List the authenticated user's diagnosis history, newest first
// @Tags diagnoses
// @Produce json
// @Success 200 {array} models.Diagnosis
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /diagnoses [get]
func (h *DiagnosisHandler) List(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "not authenticated"})
		return
	}

	diagnoses, err := h.diagnosisRepo.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list diagnoses"})
		return
	}
	if diagnoses == nil {
		diagnoses = []models.Diagnosis{}
	}

	c.JSON(http.StatusOK, diagnoses)
}
