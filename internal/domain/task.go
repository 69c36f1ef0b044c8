package domain

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// Priority is ordinal: higher values outrank lower ones.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// ParsePriority maps a priority name to its ordinal. Unknown names fall
// back to medium.
func ParsePriority(s string) Priority {
	switch s {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "urgent":
		return PriorityUrgent
	default:
		return PriorityMedium
	}
}

// Task is the stored work item the matcher scores against. IDs are stable
// and unique for the lifetime of the task.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func NewTask(title, description string) *Task {
	now := time.Now()
	return &Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Status:      StatusPending,
		Priority:    PriorityMedium,
		Tags:        make([]string, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type TaskFilter struct {
	Status   *TaskStatus
	Priority *Priority
	Tag      *string
}

// TaskRepository is the storage contract. The matcher itself only reads
// via List; the rest exists for the task service and command surface.
type TaskRepository interface {
	Create(task *Task) error
	Update(id string, updates map[string]interface{}) (*Task, error)
	Get(id string) (*Task, error)
	List(filter TaskFilter) ([]*Task, error)
	Delete(id string) error
}
