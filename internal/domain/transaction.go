package domain

import (
	"time"
)

// Transaction represents a single merchant transaction in the analysis window.
// Transactions are immutable once fetched; the risk engine never mutates them.
type Transaction struct {
	// Core identifiers
	ID         string `json:"id"`
	MerchantID string `json:"merchantId"`
	CustomerID string `json:"customerId"`

	// Financial details
	Amount float64 `json:"amount"`

	// Payment context
	PaymentMethod string `json:"paymentMethod"`
	Status        string `json:"status"`
	Platform      string `json:"platform"`

	// Temporal (always UTC)
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`

	// Screening flags computed at ingest
	AmountFlag   bool `json:"amountFlag"`
	TimeFlag     bool `json:"timeFlag"`
	VelocityFlag bool `json:"velocityFlag"`
}

// TransactionRequest is the API request payload for transaction ingestion.
type TransactionRequest struct {
	CustomerID    string    `json:"customerId"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Status        string    `json:"status"`
	Platform      string    `json:"platform"`
	Timestamp     time.Time `json:"timestamp"`
}

// ToTransaction converts a request to a Transaction for the given merchant.
func (r *TransactionRequest) ToTransaction(merchantID string) *Transaction {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &Transaction{
		MerchantID:    merchantID,
		CustomerID:    r.CustomerID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Status:        r.Status,
		Platform:      r.Platform,
		Timestamp:     ts.UTC(),
		CreatedAt:     time.Now().UTC(),
	}
}
