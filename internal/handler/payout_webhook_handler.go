package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"solifin/internal/domain"
	"solifin/internal/service"

	"github.com/gin-gonic/gin"
)

// PayoutCallback is the webhook payload the gateway posts when a payout
// reaches a final state.
type PayoutCallback struct {
	OrderID           string `json:"order_id"`
	MerchantOrderID   string `json:"merchant_order_id"`
	ReferenceOrderID  string `json:"reference_order_id"`
	SessionID         string `json:"session_id"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
	StatusCode        string `json:"status_code"`
	StatusDescription string `json:"status_description"`
	TransactionDate   string `json:"transaction_date"`
}

type PayoutWebhookHandler struct {
	withdrawals *service.WithdrawalService
}

func NewPayoutWebhookHandler(withdrawals *service.WithdrawalService) *PayoutWebhookHandler {
	return &PayoutWebhookHandler{withdrawals: withdrawals}
}

// Handle records the asynchronous payout outcome. The gateway retries
// until it sees 200, so unknown orders and replays are acknowledged
// rather than erred.
func (h *PayoutWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var payload PayoutCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Payout callback] bad json: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	orderID := payload.MerchantOrderID
	if orderID == "" {
		orderID = payload.OrderID
	}
	if orderID == "" {
		orderID = payload.ReferenceOrderID
	}
	if orderID == "" {
		log.Printf("[Payout callback] no order id in payload")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err := h.withdrawals.HandleGatewayCallback(orderID, payload.Status, payload.SessionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Printf("[Payout callback] no withdrawal for order_id=%s", orderID)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		log.Printf("[Payout callback] order_id=%s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "callback processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
