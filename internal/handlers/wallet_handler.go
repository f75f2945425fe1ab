package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/services/wallet"
)

// WalletHandler handles points wallet requests
type WalletHandler struct {
	walletService *wallet.WalletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService *wallet.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// GetWallet returns the authenticated user's wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	w, err := h.walletService.GetOrCreateWallet(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get wallet"})
		return
	}

	c.JSON(http.StatusOK, w)
}

// GetTransactionHistory returns wallet transaction history
func (h *WalletHandler) GetTransactionHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	transactions, total, err := h.walletService.GetTransactionHistory(userID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get transaction history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"pagination": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// GetPointStats returns the earned/spent breakdown for the wallet
func (h *WalletHandler) GetPointStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.walletService.GetPointStats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get point stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Deduct spends points from the authenticated user's wallet. Fails
// closed when the balance is too small.
func (h *WalletHandler) Deduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Amount      int64                  `json:"amount" binding:"required,gt=0"`
		Kind        models.TransactionKind `json:"kind"`
		Description string                 `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Kind == "" {
		input.Kind = models.KindPurchase
	}

	entry, err := h.walletService.Deduct(userID, input.Amount, input.Kind, input.Description, nil)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
