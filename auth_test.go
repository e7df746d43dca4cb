package wani

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_ParsesUserAndTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "x", req.Password)

		_, _ = w.Write(envelope(map[string]interface{}{
			"user": map[string]interface{}{
				"id":        "u1",
				"email":     "a@b.com",
				"full_name": "Ada B",
				"is_active": true,
				"kyc_level": 1,
			},
			"tokens": Tokens{
				AccessToken:  "AT1",
				RefreshToken: "RT1",
				TokenType:    "bearer",
				ExpiresIn:    86400,
			},
		}))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubSession{})

	user, tokens, err := client.Auth.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, "AT1", tokens.AccessToken)
	assert.Equal(t, "RT1", tokens.RefreshToken)
	assert.Equal(t, int64(86400), tokens.ExpiresIn)
}

func TestRegister_TokensOptional(t *testing.T) {
	// Web-style deployment: register returns the user only, tokens
	// arrive after email verification + login.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(map[string]interface{}{
			"user": map[string]interface{}{"id": "u2", "email": "new@b.com"},
		}))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubSession{})

	user, tokens, err := client.Auth.Register(context.Background(), RegisterRequest{
		Email:    "new@b.com",
		Password: "x",
		FullName: "New User",
	})
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
	assert.Nil(t, tokens)
}

func TestRegister_WithTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(map[string]interface{}{
			"user":   map[string]interface{}{"id": "u3", "email": "m@b.com"},
			"tokens": Tokens{AccessToken: "AT1", RefreshToken: "RT1", TokenType: "bearer", ExpiresIn: 86400},
		}))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubSession{})

	_, tokens, err := client.Auth.Register(context.Background(), RegisterRequest{
		Email: "m@b.com", Password: "x", FullName: "M",
	})
	require.NoError(t, err)
	require.NotNil(t, tokens)
	assert.Equal(t, "AT1", tokens.AccessToken)
}

func TestValidateSend(t *testing.T) {
	valid := NewSendRequest("maria@example.com", 25.50, "USD")
	require.NoError(t, validateSend(valid))
	assert.NotEmpty(t, valid.IdempotencyKey)

	tests := []struct {
		name string
		req  SendRequest
	}{
		{"missing recipient", SendRequest{Amount: 1, Currency: "USD", IdempotencyKey: "k"}},
		{"zero amount", SendRequest{Recipient: "r", Currency: "USD", IdempotencyKey: "k"}},
		{"negative amount", SendRequest{Recipient: "r", Amount: -5, Currency: "USD", IdempotencyKey: "k"}},
		{"missing currency", SendRequest{Recipient: "r", Amount: 1, IdempotencyKey: "k"}},
		{"missing idempotency key", SendRequest{Recipient: "r", Amount: 1, Currency: "USD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, validateSend(tt.req))
		})
	}
}

func TestSend_ValidationFailureNeverReachesNetwork(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubSession{accessToken: "AT1"})

	_, err := client.Wallet.Send(context.Background(), SendRequest{Recipient: "", Amount: 10, Currency: "USD"})
	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestTransactionsList_BuildsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/transactions", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("offset"))
		assert.Equal(t, "sent", r.URL.Query().Get("type"))
		assert.Equal(t, "pending", r.URL.Query().Get("status"))

		_, _ = w.Write(envelope(map[string]interface{}{
			"transactions": []map[string]interface{}{},
			"total":        0,
		}))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubSession{accessToken: "AT1"})

	txs, total, err := client.Transactions.List(context.Background(), ListTransactionsOptions{
		Limit:  10,
		Offset: 20,
		Type:   TransactionSent,
		Status: TransactionPending,
	})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Zero(t, total)
}
