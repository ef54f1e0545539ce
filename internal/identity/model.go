package identity

import "time"

// User is a creator account. Field names follow the stored JSON records.
type User struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Password          string         `json:"password,omitempty"`
	Phone             string         `json:"phone"`
	City              string         `json:"city"`
	State             string         `json:"state"`
	Country           string         `json:"country"`
	Gender            string         `json:"gender"`
	ContentCategories []string       `json:"contentCategories"`
	Photo             string         `json:"photo"`
	Wallet            WalletSnapshot `json:"wallet"`
	JoinedDate        time.Time      `json:"joinedDate"`
	ReferralCode      string         `json:"referralCode"`
}

// WalletSnapshot is the balance copied onto the user record at sign-up.
type WalletSnapshot struct {
	Balance float64 `json:"balance"`
}

// Public returns the user without the password, for responses and the
// session record.
func (u User) Public() User {
	u.Password = ""
	return u
}

// Registration is the sign-up form.
type Registration struct {
	Name              string
	Email             string
	Password          string
	Phone             string
	City              string
	State             string
	Country           string
	Gender            string
	ContentCategories []string
}

// Credentials request structure.
type Credentials struct {
	Email    string
	Password string
}
