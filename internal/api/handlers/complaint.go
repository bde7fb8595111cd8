package handlers

import (
	"net/http"

	"cropdoc/internal/auth"
	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/gin-gonic/gin"
)

// ComplaintHandler handles HTTP requests for help tickets
type ComplaintHandler struct {
	complaintRepo repository.ComplaintRepository
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(complaintRepo repository.ComplaintRepository) *ComplaintHandler {
	return &ComplaintHandler{complaintRepo: complaintRepo}
}

// Create godoc
// @Summary File a complaint
// @Description Open a help ticket for the authenticated user
// @Tags complaints
// @Accept json
// @Produce json
// @Param request body models.CreateComplaintRequest true "Complaint details"
// @Success 201 {object} models.Complaint
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 429 {object} models.ErrorResponse "Too many complaints filed"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /complaints [post]
func (h *ComplaintHandler) Create(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "not authenticated"})
		return
	}

	var req models.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	complaint := &models.Complaint{
		UserID:  user.ID,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.complaintRepo.Create(c.Request.Context(), complaint); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create complaint"})
		return
	}

	c.JSON(http.StatusCreated, complaint)
}

// List godoc
// @Summary List complaints
// @Description List the authenticated user's help tickets, newest first
// @Tags complaints
// @Produce json
// @Success 200 {array} models.Complaint
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /complaints [get]
func (h *ComplaintHandler) List(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "not authenticated"})
		return
	}

	complaints, err := h.complaintRepo.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list complaints"})
		return
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}

	c.JSON(http.StatusOK, complaints)
}
