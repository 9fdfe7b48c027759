package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// SerdiPayProvider talks to the SerdiPay mobile-money aggregator
// (M-Pesa, Orange Money, Airtel Money). Tokens are fetched per call as
// the aggregator recommends.
type SerdiPayProvider struct {
	BaseURL     string
	Email       string
	Password    string
	WebhookBase string
	client      *http.Client
}

func NewSerdiPayProvider(baseURL, email, password, webhookBase string) *SerdiPayProvider {
	if baseURL == "" {
		baseURL = "https://api.serdipay.com"
	}
	return &SerdiPayProvider{
		BaseURL:     baseURL,
		Email:       email,
		Password:    password,
		WebhookBase: webhookBase,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type serdiLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type serdiLoginResp struct {
	Token string `json:"token"`
}

func (p *SerdiPayProvider) getToken(ctx context.Context) (string, error) {
	body, _ := json.Marshal(serdiLoginReq{Email: p.Email, Password: p.Password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1/merchants/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %d", resp.StatusCode)
	}
	var out serdiLoginResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

type serdiPayoutResp struct {
	SessionID           string `json:"session_id"`
	OrderID             string `json:"order_id"`
	Status              string `json:"status"`
	ResponseCode        string `json:"response_code"`
	ResponseDescription string `json:"response_description"`
	CreatedAt           string `json:"created_at"`
}

// InitiatePayout asks the gateway to send amountCents to the phone. The
// final outcome arrives later on the payout webhook.
func (p *SerdiPayProvider) InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("serdipay login: %w", err)
	}
	callbackURL := ""
	if p.WebhookBase != "" {
		base := p.WebhookBase
		if len(base) > 0 && base[0] != 'h' {
			base = "https://" + base
		}
		callbackURL = base + "/api/v1/webhooks/payout"
	}
	body := map[string]string{
		"amount":       strconv.FormatInt(req.AmountCents/100, 10),
		"currency":     req.Currency,
		"phone_number": req.PhoneNumber,
		"carrier":      req.Carrier,
		"order_id":     req.Reference,
		"callback_url": callbackURL,
	}
	bodyBytes, _ := json.Marshal(body)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1/transactions/payout", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+token)
	log.Printf("[SerdiPay] POST /transactions/payout order_id=%s amount=%d %s phone=%s", req.Reference, req.AmountCents, req.Currency, req.PhoneNumber)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("serdipay payout: %d %s", resp.StatusCode, string(respBody))
	}
	var out serdiPayoutResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &PayoutResponse{
		Success:    true,
		SessionID:  out.SessionID,
		Status:     out.Status,
		StatusCode: out.ResponseCode,
	}, nil
}

func (p *SerdiPayProvider) CheckStatus(ctx context.Context, sessionID string) (*PayoutStatus, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("serdipay login: %w", err)
	}
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/api/v1/transactions/payout/"+sessionID, nil)
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Authorization", "Bearer "+token)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serdipay status: %d", resp.StatusCode)
	}
	var out serdiPayoutResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &PayoutStatus{Status: out.Status, StatusCode: out.ResponseCode}, nil
}
