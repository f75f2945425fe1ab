package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mlodi/backend/internal/services/engagement"
)

// MilestoneHandler handles milestone requests
type MilestoneHandler struct {
	engine *engagement.Service
}

// NewMilestoneHandler creates a new milestone handler
func NewMilestoneHandler(engine *engagement.Service) *MilestoneHandler {
	return &MilestoneHandler{engine: engine}
}

// GetMilestones lists active milestone definitions
func (h *MilestoneHandler) GetMilestones(c *gin.Context) {
	defs, err := h.engine.Milestones().GetDefinitions()
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, defs)
}

// GetUserProgress lists the authenticated user's milestone progress for an artist
func (h *MilestoneHandler) GetUserProgress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}

	progress, err := h.engine.Milestones().GetUserProgress(userID, artistID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ClaimMilestone claims a completed milestone's reward
func (h *MilestoneHandler) ClaimMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}
	milestoneID, ok := pathUUID(c, "milestoneId")
	if !ok {
		return
	}

	milestone, err := h.engine.ClaimMilestone(userID, milestoneID, artistID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"milestone":      milestone,
		"points_awarded": milestone.PointsAwarded,
	})
}
