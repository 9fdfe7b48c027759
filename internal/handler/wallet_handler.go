package handler

import (
	"net/http"
	"strconv"

	"solifin/internal/middleware"
	"solifin/internal/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	wallet *service.WalletService
}

func NewWalletHandler(wallet *service.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

// GetBalance returns the current user's wallet, creating it lazily.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.wallet.Balance(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance_cents":         w.BalanceCents,
		"total_earned_cents":    w.TotalEarnedCents,
		"total_withdrawn_cents": w.TotalWithdrawnCents,
		"currency":              w.Currency,
	})
}

// ListTransactions returns the user's ledger history, newest first.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.wallet.Transactions(userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}
