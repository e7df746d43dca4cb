package wani

import (
	"context"
	"fmt"
)

// WalletService handles wallet endpoints.
type WalletService struct {
	client *Client
}

type walletResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    Wallet `json:"data"`
}

type balanceResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Data    Balance `json:"data"`
}

type transactionResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    Transaction `json:"data"`
}

// Get returns the user's wallet.
func (s *WalletService) Get(ctx context.Context) (*Wallet, error) {
	var resp walletResponse
	if err := s.client.get(ctx, "/wallet", &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Balance returns the wallet balance breakdown.
func (s *WalletService) Balance(ctx context.Context) (*Balance, error) {
	var resp balanceResponse
	if err := s.client.get(ctx, "/wallet/balance", &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Send initiates a transfer and returns the resulting transaction,
// typically in the pending state. The request must carry an
// idempotency key (see NewSendRequest); the server deduplicates
// resubmissions on it.
func (s *WalletService) Send(ctx context.Context, req SendRequest) (*Transaction, error) {
	if err := validateSend(req); err != nil {
		return nil, err
	}

	var resp transactionResponse
	if err := s.client.post(ctx, "/wallet/send", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// validateSend rejects malformed transfers before any network call.
func validateSend(req SendRequest) error {
	if req.Recipient == "" {
		return fmt.Errorf("recipient is required")
	}
	if req.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if req.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if req.IdempotencyKey == "" {
		return fmt.Errorf("idempotency key is required (use NewSendRequest)")
	}
	return nil
}
