package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/services/engagement"
)

// ChallengeHandler handles challenge lifecycle requests
type ChallengeHandler struct {
	engine *engagement.Service
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(engine *engagement.Service) *ChallengeHandler {
	return &ChallengeHandler{engine: engine}
}

// GetAvailableChallenges lists challenges that can be started now
func (h *ChallengeHandler) GetAvailableChallenges(c *gin.Context) {
	challengeType := models.ChallengeType(c.Query("type"))

	challenges, err := h.engine.Challenges().GetAvailableChallenges(challengeType)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, challenges)
}

// GetUserProgress lists the authenticated user's challenge progress for
// an artist, optionally filtered by completion state.
func (h *ChallengeHandler) GetUserProgress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}

	var completed *bool
	if v := c.Query("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid completed filter"})
			return
		}
		completed = &b
	}

	progress, err := h.engine.Challenges().GetUserProgress(userID, artistID, completed)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// StartChallenge starts a challenge for the authenticated user
func (h *ChallengeHandler) StartChallenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}
	challengeID, ok := pathUUID(c, "challengeId")
	if !ok {
		return
	}

	progress, err := h.engine.StartChallenge(userID, challengeID, artistID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, progress)
}

// AdvanceChallenge adds progress to a started challenge
func (h *ChallengeHandler) AdvanceChallenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}
	challengeID, ok := pathUUID(c, "challengeId")
	if !ok {
		return
	}

	var input struct {
		Delta int64 `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	progress, err := h.engine.AdvanceChallenge(userID, challengeID, artistID, input.Delta)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
