package wani

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// TransactionsService handles transaction history endpoints.
type TransactionsService struct {
	client *Client
}

type transactionsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Transactions []Transaction `json:"transactions"`
		Total        int           `json:"total"`
	} `json:"data"`
}

// List returns the user's transactions, newest first.
func (s *TransactionsService) List(ctx context.Context, opts ListTransactionsOptions) ([]Transaction, int, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Type != "" {
		query.Set("type", string(opts.Type))
	}
	if opts.Status != "" {
		query.Set("status", string(opts.Status))
	}

	path := "/transactions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp transactionsResponse
	if err := s.client.get(ctx, path, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Data.Transactions, resp.Data.Total, nil
}

// Get returns a single transaction by ID.
func (s *TransactionsService) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	var resp transactionResponse
	if err := s.client.get(ctx, fmt.Sprintf("/transactions/%s", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
