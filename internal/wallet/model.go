package wallet

import (
	"encoding/json"
	"time"
)

const (
	TxCredit     = "credit"
	TxWithdrawal = "withdrawal"

	TxStatusCompleted = "completed"
	TxStatusPending   = "pending"
)

// Wallet is the creator's running balance with its full history.
type Wallet struct {
	Balance      float64       `json:"balance"`
	Earnings     []Earning     `json:"earnings"`
	Transactions []Transaction `json:"transactions"`
}

// Earning records money earned, usually by completing a task.
type Earning struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"taskId,omitempty"`
	Source      string    `json:"source"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// Transaction is a single movement of the balance.
type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Method      string    `json:"method,omitempty"`
	Status      string    `json:"status"`
	Date        time.Time `json:"date"`
}

// Zero is the wallet used when nothing has been stored yet.
func Zero() Wallet {
	return Wallet{Balance: 0, Earnings: []Earning{}, Transactions: []Transaction{}}
}

// MarshalJSON writes empty histories as [] rather than null.
func (w Wallet) MarshalJSON() ([]byte, error) {
	type plain Wallet
	if w.Earnings == nil {
		w.Earnings = []Earning{}
	}
	if w.Transactions == nil {
		w.Transactions = []Transaction{}
	}
	return json.Marshal(plain(w))
}
