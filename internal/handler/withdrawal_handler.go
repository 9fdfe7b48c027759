package handler

import (
	"net/http"
	"strconv"

	"solifin/internal/middleware"
	"solifin/internal/repository"
	"solifin/internal/service"
	"solifin/pkg/money"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
}

func NewWithdrawalHandler(withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// Create submits a withdrawal request. The password re-check defends
// money movement against hijacked sessions.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Amount        float64 `json:"amount" binding:"required,gt=0"`
		Currency      string  `json:"currency"`
		PaymentMethod string  `json:"payment_method" binding:"required"`
		PhoneNumber   string  `json:"phone_number" binding:"required"`
		Carrier       string  `json:"carrier"`
		Password      string  `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	wr, err := h.withdrawals.Submit(userID, service.SubmitInput{
		PayoutAmountCents: money.FromMajor(req.Amount),
		Currency:          currency,
		PaymentMethod:     req.PaymentMethod,
		PhoneNumber:       req.PhoneNumber,
		Carrier:           req.Carrier,
		Password:          req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":              wr.ID,
		"order_id":        wr.OrderID,
		"status":          wr.Status,
		"amount_cents":    wr.AmountCents,
		"payment_details": wr.PaymentDetails,
		"message":         "Withdrawal request submitted and awaiting review.",
	})
}

// ListMine returns the authenticated user's withdrawal requests.
func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, total, err := h.withdrawals.List(repository.WithdrawalFilter{
		UserID: userID,
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list, "total": total})
}

// Cancel lets the owning user withdraw a still-pending request.
func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	wr, err := h.withdrawals.Cancel(userID, uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": wr.ID, "status": wr.Status, "refund_at": wr.RefundAt})
}
