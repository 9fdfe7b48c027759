package handler

import (
	"net/http"
	"strconv"
	"time"

	"solifin/internal/middleware"
	"solifin/internal/repository"
	"solifin/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminWithdrawalHandler struct {
	withdrawals *service.WithdrawalService
	treasury    *repository.SystemWalletRepository
}

func NewAdminWithdrawalHandler(withdrawals *service.WithdrawalService, treasury *repository.SystemWalletRepository) *AdminWithdrawalHandler {
	return &AdminWithdrawalHandler{withdrawals: withdrawals, treasury: treasury}
}

// List filters withdrawal requests by status, method, user and date range.
func (h *AdminWithdrawalHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	f := repository.WithdrawalFilter{
		UserID:        uint(userID),
		Status:        c.Query("status"),
		PaymentMethod: c.Query("payment_method"),
		Limit:         limit,
		Offset:        offset,
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.To = &t
		}
	}
	list, total, err := h.withdrawals.List(f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list, "total": total})
}

type adminNoteReq struct {
	AdminNote string `json:"admin_note"`
}

func (h *AdminWithdrawalHandler) Approve(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req adminNoteReq
	_ = c.ShouldBindJSON(&req)
	wr, err := h.withdrawals.Approve(c.Request.Context(), adminID, uint(id), req.AdminNote)
	if err != nil {
		// The ledger may already be settled when only the payout failed;
		// surface the request alongside the error so operators can retry.
		if wr != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "withdrawal": wr})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": wr})
}

func (h *AdminWithdrawalHandler) Reject(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req adminNoteReq
	_ = c.ShouldBindJSON(&req)
	wr, err := h.withdrawals.Reject(adminID, uint(id), req.AdminNote)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": wr})
}

func (h *AdminWithdrawalHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.withdrawals.Delete(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminWithdrawalHandler) RetryPayout(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.withdrawals.RetryPayout(c.Request.Context(), uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"retried": true})
}

func (h *AdminWithdrawalHandler) Stats(c *gin.Context) {
	stats, err := h.withdrawals.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Treasury returns the system wallet and its recent transactions.
func (h *AdminWithdrawalHandler) Treasury(c *gin.Context) {
	w, err := h.treasury.Get()
	if err != nil {
		respondError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	txs, err := h.treasury.ListTransactions(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": w, "transactions": txs})
}
