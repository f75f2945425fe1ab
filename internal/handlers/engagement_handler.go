package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/jobs"
	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/queue"
	"github.com/mlodi/backend/internal/services/engagement"
	"github.com/mlodi/backend/internal/services/wallet"
)

// EngagementHandler handles fan engagement requests
type EngagementHandler struct {
	engine   *engagement.Service
	jobQueue *queue.RedisQueue
}

// NewEngagementHandler creates a new engagement handler. jobQueue may be
// nil, which disables asynchronous ingestion.
func NewEngagementHandler(engine *engagement.Service, jobQueue *queue.RedisQueue) *EngagementHandler {
	return &EngagementHandler{engine: engine, jobQueue: jobQueue}
}

// currentUserID extracts the authenticated user's ID from the request
// context. The auth middleware guarantees it is present on protected
// routes; a missing or malformed ID means the request never went
// through it.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user ID"})
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a UUID path parameter, responding 400 on failure
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// respondEngineError maps engine sentinel errors to HTTP responses
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engagement.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engagement.ErrAlreadyStarted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engagement.ErrNotStarted),
		errors.Is(err, engagement.ErrChallengeNotLive),
		errors.Is(err, engagement.ErrNotClaimable),
		errors.Is(err, engagement.ErrInvalidActivity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, wallet.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// RecordActivity records one activity event for the authenticated user
func (h *EngagementHandler) RecordActivity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		ArtistID     uuid.UUID           `json:"artist_id" binding:"required"`
		ActivityType models.ActivityType `json:"activity_type" binding:"required"`
		Value        int64               `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.RecordActivity(userID, input.ArtistID, input.ActivityType, input.Value)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecordActivityAsync accepts an activity event and hands it to the
// background queue. Playback tick batching uses this path so request
// latency stays flat under load.
func (h *EngagementHandler) RecordActivityAsync(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if h.jobQueue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "async ingestion unavailable"})
		return
	}

	var input struct {
		ArtistID     uuid.UUID           `json:"artist_id" binding:"required"`
		ActivityType models.ActivityType `json:"activity_type" binding:"required"`
		Value        int64               `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := engagement.PointsFor(input.ActivityType, input.Value); err != nil {
		respondEngineError(c, err)
		return
	}

	jobID, err := jobs.EnqueueActivityEvent(c.Request.Context(), h.jobQueue, jobs.ActivityEventPayload{
		UserID:       userID,
		ArtistID:     input.ArtistID,
		ActivityType: input.ActivityType,
		Value:        input.Value,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue activity"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// GetFanTier returns the fan tier record for the authenticated user and artist
func (h *EngagementHandler) GetFanTier(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}

	record, err := h.engine.Ledger().GetFanTier(userID, artistID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetTierProgress returns progress within the current tier
func (h *EngagementHandler) GetTierProgress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}

	progress, err := h.engine.GetTierProgress(userID, artistID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetTransactions returns the fan-ledger history for an artist
func (h *EngagementHandler) GetTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txs, err := h.engine.Ledger().GetTransactions(userID, artistID, limit)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, txs)
}

// GetTotalPoints sums the authenticated user's lifetime fan points
// across every artist.
func (h *EngagementHandler) GetTotalPoints(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	total, err := h.engine.Ledger().TotalUserPoints(userID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"total_points": total})
}

// GetStats returns the per-artist engagement summary
func (h *EngagementHandler) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}

	stats, err := h.engine.GetStats(userID, artistID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetAchievements lists active achievement definitions
func (h *EngagementHandler) GetAchievements(c *gin.Context) {
	category := models.AchievementCategory(c.Query("category"))

	defs, err := h.engine.Achievements().GetDefinitions(category)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, defs)
}

// GetUserAchievements lists the authenticated user's unlocks for an artist
func (h *EngagementHandler) GetUserAchievements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	artistID, ok := pathUUID(c, "artistId")
	if !ok {
		return
	}

	unlocks, err := h.engine.Achievements().GetUserAchievements(userID, &artistID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, unlocks)
}
