// Package referrals tracks the people a creator has invited.
package referrals

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusInvited  = "invited"
	StatusJoined   = "joined"
	StatusRewarded = "rewarded"

	// DefaultReward is what an invite pays out once the invitee joins.
	DefaultReward = 100
)

var (
	// ErrAlreadyInvited rejects a second invite to the same address.
	ErrAlreadyInvited = errors.New("this email has already been invited")
	// ErrInvalidInvite covers a missing name or malformed email.
	ErrInvalidInvite = errors.New("invalid invite")
)

// Referral is one invited person.
type Referral struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	Reward    float64   `json:"reward"`
	InvitedAt time.Time `json:"invitedAt"`
}

// Stats summarises a referral list.
type Stats struct {
	Invited int     `json:"invited"`
	Joined  int     `json:"joined"`
	Earned  float64 `json:"earned"`
}

// Summarize counts joined invitees (rewarded ones included) and sums the
// rewards already paid.
func Summarize(list []Referral) Stats {
	s := Stats{Invited: len(list)}
	for _, r := range list {
		switch r.Status {
		case StatusJoined:
			s.Joined++
		case StatusRewarded:
			s.Joined++
			s.Earned += r.Reward
		}
	}
	return s
}

// Invite returns list with a new invited referral appended.
func Invite(list []Referral, name, email string, now time.Time) ([]Referral, Referral, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return list, Referral{}, fmt.Errorf("%w: name is required", ErrInvalidInvite)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return list, Referral{}, fmt.Errorf("%w: email is not valid", ErrInvalidInvite)
	}
	normalized := strings.ToLower(addr.Address)
	if slices.ContainsFunc(list, func(r Referral) bool { return strings.EqualFold(r.Email, normalized) }) {
		return list, Referral{}, ErrAlreadyInvited
	}

	r := Referral{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     normalized,
		Status:    StatusInvited,
		Reward:    DefaultReward,
		InvitedAt: now.UTC(),
	}
	return append(slices.Clone(list), r), r, nil
}

// ValidateAll checks a full replacement list.
func ValidateAll(list []Referral) error {
	seen := make(map[string]struct{}, len(list))
	for i, r := range list {
		if r.ID == "" {
			return fmt.Errorf("referral %d: id is required", i)
		}
		switch r.Status {
		case StatusInvited, StatusJoined, StatusRewarded:
		default:
			return fmt.Errorf("referral %d: unknown status %q", i, r.Status)
		}
		key := strings.ToLower(r.Email)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("referral %d: duplicate email %q", i, r.Email)
		}
		seen[key] = struct{}{}
	}
	return nil
}
