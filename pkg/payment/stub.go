package payment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StubProvider is a no-op provider for development and tests. It records
// the requests it receives and acknowledges every payout.
type StubProvider struct {
	mu       sync.Mutex
	Requests []PayoutRequest
	Fail     bool
}

func (s *StubProvider) InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	if s.Fail {
		return nil, fmt.Errorf("stub gateway down")
	}
	return &PayoutResponse{
		Success:    true,
		SessionID:  fmt.Sprintf("stub_%d", time.Now().UnixNano()),
		Status:     "PENDING",
		StatusCode: "0",
	}, nil
}

func (s *StubProvider) CheckStatus(ctx context.Context, sessionID string) (*PayoutStatus, error) {
	if s.Fail {
		return nil, fmt.Errorf("stub gateway down")
	}
	return &PayoutStatus{Status: "COMPLETED", StatusCode: "0"}, nil
}
