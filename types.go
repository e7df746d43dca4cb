package wani

import (
	"time"

	"github.com/google/uuid"
)

// User is the authenticated principal as returned by the API.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Phone      string    `json:"phone,omitempty"`
	IsVerified bool      `json:"is_verified"`
	IsActive   bool      `json:"is_active"`
	KYCLevel   int       `json:"kyc_level"`
	CreatedAt  time.Time `json:"created_at"`
}

// Tokens is the JWT pair authorizing API calls. The access token is
// attached as a bearer credential; the refresh token exchanges for a
// new pair when the access token expires.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
}

// TransactionType distinguishes money movement direction.
type TransactionType string

const (
	TransactionSent     TransactionType = "sent"
	TransactionReceived TransactionType = "received"
)

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Balance is the wallet balance breakdown.
type Balance struct {
	Available float64 `json:"available"`
	Pending   float64 `json:"pending"`
	Total     float64 `json:"total"`
	Currency  string  `json:"currency"`
}

// Wallet is the user's payment wallet.
type Wallet struct {
	ID          uuid.UUID `json:"id"`
	PublicKey   string    `json:"public_key"`
	Balance     Balance   `json:"balance"`
	IsActivated bool      `json:"is_activated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transaction is a single ledger entry from the user's point of view.
type Transaction struct {
	ID           uuid.UUID         `json:"id"`
	Type         TransactionType   `json:"type"`
	Counterparty string            `json:"counterparty"`
	Amount       float64           `json:"amount"`
	Currency     string            `json:"currency"`
	Status       TransactionStatus `json:"status"`
	Note         string            `json:"note,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// SendRequest is the payload for initiating a transfer. The
// idempotency key is generated client-side so a retried submission
// can never double-spend; NewSendRequest fills it in.
type SendRequest struct {
	Recipient      string  `json:"recipient"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Note           string  `json:"note,omitempty"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// NewSendRequest builds a SendRequest with a fresh idempotency key.
func NewSendRequest(recipient string, amount float64, currency string) SendRequest {
	return SendRequest{
		Recipient:      recipient,
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: uuid.NewString(),
	}
}

// ListTransactionsOptions filters GET /transactions.
type ListTransactionsOptions struct {
	Limit  int
	Offset int
	Type   TransactionType
	Status TransactionStatus
}
