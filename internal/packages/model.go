// Package packages manages the service packages a creator sells to brands.
package packages

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive = "active"
	StatusPaused = "paused"
)

// ErrNotFound is returned when no package has the requested id.
var ErrNotFound = errors.New("package not found")

// Package is one sellable offer, e.g. "3 Instagram stories".
type Package struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Platform     string    `json:"platform"`
	Price        float64   `json:"price"`
	DeliveryDays int       `json:"deliveryDays"`
	Features     []string  `json:"features"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateInput carries the editable fields of a package.
type CreateInput struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Platform     string   `json:"platform"`
	Price        float64  `json:"price"`
	DeliveryDays int      `json:"deliveryDays"`
	Features     []string `json:"features"`
	Status       string   `json:"status"`
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return errors.New("price must be zero or more")
	}
	if in.DeliveryDays < 0 {
		return errors.New("deliveryDays must be zero or more")
	}
	if in.Status != "" && in.Status != StatusActive && in.Status != StatusPaused {
		return fmt.Errorf("unknown status %q", in.Status)
	}
	return nil
}

// Add returns list with a new package appended. Status defaults to active.
func Add(list []Package, in CreateInput, now time.Time) ([]Package, Package, error) {
	if err := in.validate(); err != nil {
		return list, Package{}, err
	}
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	p := Package{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		Platform:     strings.TrimSpace(in.Platform),
		Price:        in.Price,
		DeliveryDays: in.DeliveryDays,
		Features:     cleanFeatures(in.Features),
		Status:       status,
		CreatedAt:    now.UTC(),
	}
	return append(slices.Clone(list), p), p, nil
}

// Remove returns list without the package with id.
func Remove(list []Package, id string) ([]Package, error) {
	idx := slices.IndexFunc(list, func(p Package) bool { return p.ID == id })
	if idx < 0 {
		return list, ErrNotFound
	}
	return slices.Delete(slices.Clone(list), idx, idx+1), nil
}

// ValidateAll checks a full replacement list.
func ValidateAll(list []Package) error {
	seen := make(map[string]struct{}, len(list))
	for i, p := range list {
		if p.ID == "" {
			return fmt.Errorf("package %d: id is required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("package %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Status != StatusActive && p.Status != StatusPaused {
			return fmt.Errorf("package %d: unknown status %q", i, p.Status)
		}
		if p.Price < 0 {
			return fmt.Errorf("package %d: negative price", i)
		}
	}
	return nil
}

func cleanFeatures(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
