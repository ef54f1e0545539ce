package wallet

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientFunds occurs when a withdrawal exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount rejects zero, negative and non-finite amounts.
	ErrInvalidAmount = errors.New("amount must be a positive number")
)

// Credit returns the next wallet value after adding earning: the earning
// is appended, a completed credit transaction is recorded and the balance
// grows. w itself is not modified.
func Credit(w Wallet, earning Earning, now time.Time) (Wallet, error) {
	if !validAmount(earning.Amount) {
		return w, ErrInvalidAmount
	}
	if earning.ID == "" {
		earning.ID = uuid.NewString()
	}
	if earning.Date.IsZero() {
		earning.Date = now.UTC()
	}

	next := clone(w)
	next.Earnings = append(next.Earnings, earning)
	next.Transactions = append(next.Transactions, Transaction{
		ID:          uuid.NewString(),
		Type:        TxCredit,
		Amount:      earning.Amount,
		Description: earning.Description,
		Status:      TxStatusCompleted,
		Date:        earning.Date,
	})
	next.Balance = round(next.Balance + earning.Amount)
	return next, nil
}

// WithdrawInput describes a payout request.
type WithdrawInput struct {
	Amount float64
	Method string
	Note   string
}

// Withdraw returns the next wallet value with amount deducted and a pending
// withdrawal recorded.
func Withdraw(w Wallet, input WithdrawInput, now time.Time) (Wallet, Transaction, error) {
	if !validAmount(input.Amount) {
		return w, Transaction{}, ErrInvalidAmount
	}
	if input.Amount > w.Balance {
		return w, Transaction{}, ErrInsufficientFunds
	}

	method := strings.TrimSpace(input.Method)
	if method == "" {
		method = "bank_transfer"
	}
	desc := strings.TrimSpace(input.Note)
	if desc == "" {
		desc = fmt.Sprintf("Withdrawal via %s", method)
	}
	tx := Transaction{
		ID:          uuid.NewString(),
		Type:        TxWithdrawal,
		Amount:      input.Amount,
		Description: desc,
		Method:      method,
		Status:      TxStatusPending,
		Date:        now.UTC(),
	}

	next := clone(w)
	next.Transactions = append(next.Transactions, tx)
	next.Balance = round(next.Balance - input.Amount)
	return next, tx, nil
}

// TotalEarnings sums every recorded earning.
func TotalEarnings(w Wallet) float64 {
	var total float64
	for _, e := range w.Earnings {
		total += e.Amount
	}
	return round(total)
}

// Recent returns up to n transactions, newest first.
func Recent(w Wallet, n int) []Transaction {
	out := append([]Transaction{}, w.Transactions...)
	slices.Reverse(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func clone(w Wallet) Wallet {
	return Wallet{
		Balance:      w.Balance,
		Earnings:     append(make([]Earning, 0, len(w.Earnings)+1), w.Earnings...),
		Transactions: append(make([]Transaction, 0, len(w.Transactions)+1), w.Transactions...),
	}
}

func validAmount(a float64) bool {
	return a > 0 && !math.IsInf(a, 0) && !math.IsNaN(a)
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
