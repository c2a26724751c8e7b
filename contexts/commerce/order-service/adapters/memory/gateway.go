package memory

import (
	"context"
	"fmt"
	"sync"

	domainerrors "digitalhippo/contexts/commerce/order-service/domain/errors"
	"digitalhippo/contexts/commerce/order-service/ports"
)

// Gateway fakes the payment processor. Tests flip FailNext to exercise
// the keep-order-on-gateway-failure path and CompleteSession to drive the
// poll-side reconciliation.
type Gateway struct {
	mu       sync.Mutex
	sessions []ports.SessionRequest
	statuses map[string]ports.SessionStatus
	sequence int
	failNext bool
}

func NewGateway() *Gateway {
	return &Gateway{statuses: make(map[string]ports.SessionStatus)}
}

func (g *Gateway) FailNext() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext = true
}

func (g *Gateway) CreateCheckoutSession(_ context.Context, request ports.SessionRequest) (ports.SessionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failNext {
		g.failNext = false
		return ports.SessionResult{}, domainerrors.ErrPaymentSessionFailed
	}
	g.sequence++
	g.sessions = append(g.sessions, request)
	sessionID := fmt.Sprintf("cs_test_%d", g.sequence)
	g.statuses[sessionID] = ports.SessionStatus{
		SessionID: sessionID,
		OrderID:   request.OrderID,
		UserID:    request.UserID,
	}
	return ports.SessionResult{
		SessionID: sessionID,
		URL:       "https://checkout.stripe.test/pay/" + sessionID,
	}, nil
}

// CompleteSession marks a hosted session as paid on the fake processor.
func (g *Gateway) CompleteSession(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.statuses[sessionID]
	if !ok {
		return
	}
	status.Completed = true
	g.statuses[sessionID] = status
}

func (g *Gateway) GetSessionStatus(_ context.Context, sessionID string) (ports.SessionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.statuses[sessionID]
	if !ok {
		return ports.SessionStatus{}, domainerrors.ErrSessionNotFound
	}
	return status, nil
}

// Sessions exposes captured session requests to tests.
func (g *Gateway) Sessions() []ports.SessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ports.SessionRequest(nil), g.sessions...)
}
