package identity

import "time"

// DemoUser is the account used by the "Try Demo Account" button. It is
// never written to the directory.
func DemoUser(now time.Time) User {
	return User{
		ID:                "demo-user",
		Name:              "Demo Creator",
		Email:             "demo@creator.com",
		Phone:             "+91 9876543210",
		City:              "Mumbai",
		State:             "Maharashtra",
		Country:           "India",
		Gender:            "Other",
		ContentCategories: []string{"Lifestyle", "Technology"},
		Photo:             "",
		Wallet:            WalletSnapshot{Balance: 5000},
		JoinedDate:        now.UTC(),
		ReferralCode:      "DEMO123",
	}
}
