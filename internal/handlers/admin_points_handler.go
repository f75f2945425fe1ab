package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/services/engagement"
	"github.com/mlodi/backend/internal/services/wallet"
)

// AdminPointsHandler handles manual point adjustments by support staff.
// Adjustments are ordinary tagged ledger transactions, so they show up
// in the same audit trail as everything else.
type AdminPointsHandler struct {
	engine        *engagement.Service
	walletService *wallet.WalletService
}

// NewAdminPointsHandler creates a new admin points handler
func NewAdminPointsHandler(engine *engagement.Service, walletService *wallet.WalletService) *AdminPointsHandler {
	return &AdminPointsHandler{engine: engine, walletService: walletService}
}

// AdjustPoints applies a signed adjustment to a user's fan ledger (when
// artist_id is given) or wallet (when omitted).
func (h *AdminPointsHandler) AdjustPoints(c *gin.Context) {
	var input struct {
		UserID   uuid.UUID  `json:"user_id" binding:"required"`
		ArtistID *uuid.UUID `json:"artist_id"`
		Amount   int64      `json:"amount" binding:"required"`
		Reason   string     `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.ArtistID != nil {
		record, _, err := h.engine.Ledger().ApplyDelta(input.UserID, *input.ArtistID,
			input.Amount, models.KindAdminAdjustment, "", 0, input.Reason)
		if err != nil {
			respondEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
		return
	}

	var entry *models.PointTransaction
	var err error
	if input.Amount >= 0 {
		entry, err = h.walletService.Credit(input.UserID, input.Amount,
			models.KindAdminAdjustment, input.Reason, nil)
	} else {
		entry, err = h.walletService.Deduct(input.UserID, -input.Amount,
			models.KindAdminAdjustment, input.Reason, nil)
	}
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
