package tasks

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
	// ErrNotFound is returned when no task has the requested id.
	ErrNotFound = errors.New("task not found")
	// ErrAlreadyCompleted rejects completing a task twice.
	ErrAlreadyCompleted = errors.New("task already completed")
)

// CreateInput carries the fields a creator fills in for a new task.
type CreateInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Platform    string     `json:"platform"`
	Category    string     `json:"category"`
	Reward      float64    `json:"reward"`
	DueDate     *time.Time `json:"dueDate"`
}

// Validate checks the required fields.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	if in.Reward < 0 || math.IsNaN(in.Reward) || math.IsInf(in.Reward, 0) {
		return errors.New("reward must be zero or more")
	}
	return nil
}

// Add returns list with a new pending task appended.
func Add(list []Task, in CreateInput, now time.Time) ([]Task, Task, error) {
	if err := in.Validate(); err != nil {
		return list, Task{}, err
	}
	t := Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Platform:    strings.TrimSpace(in.Platform),
		Category:    strings.TrimSpace(in.Category),
		Reward:      in.Reward,
		Status:      StatusPending,
		DueDate:     in.DueDate,
		CreatedAt:   now.UTC(),
	}
	next := append(slices.Clone(list), t)
	return next, t, nil
}

// Remove returns list without the task with id.
func Remove(list []Task, id string) ([]Task, error) {
	idx := slices.IndexFunc(list, func(t Task) bool { return t.ID == id })
	if idx < 0 {
		return list, ErrNotFound
	}
	return slices.Delete(slices.Clone(list), idx, idx+1), nil
}

// Complete returns list with the task marked completed.
func Complete(list []Task, id string, now time.Time) ([]Task, Task, error) {
	idx := slices.IndexFunc(list, func(t Task) bool { return t.ID == id })
	if idx < 0 {
		return list, Task{}, ErrNotFound
	}
	if list[idx].Status == StatusCompleted {
		return list, list[idx], ErrAlreadyCompleted
	}
	next := slices.Clone(list)
	done := now.UTC()
	next[idx].Status = StatusCompleted
	next[idx].CompletedAt = &done
	return next, next[idx], nil
}

// ValidateAll checks a full replacement list.
func ValidateAll(list []Task) error {
	seen := make(map[string]struct{}, len(list))
	for i, t := range list {
		if t.ID == "" {
			return fmt.Errorf("task %d: id is required", i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("task %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = struct{}{}
		if !validStatus(t.Status) {
			return fmt.Errorf("task %d: unknown status %q", i, t.Status)
		}
	}
	return nil
}
