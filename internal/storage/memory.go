package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkwan/tasklens/internal/domain"
)

// MemoryStorage is an in-process task repository. Mutations copy the task
// before writing so callers never see partial updates.
type MemoryStorage struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks: make(map[string]*domain.Task),
	}
}

func (ms *MemoryStorage) Create(task *domain.Task) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}

	ms.tasks[task.ID] = task
	return nil
}

func (ms *MemoryStorage) Update(id string, updates map[string]interface{}) (*domain.Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, exists := ms.tasks[id]
	if !exists {
		return nil, fmt.Errorf("task with ID %s not found", id)
	}

	updated := *task
	applyUpdates(&updated, updates)
	updated.UpdatedAt = time.Now()

	ms.tasks[id] = &updated
	return &updated, nil
}

func (ms *MemoryStorage) Get(id string) (*domain.Task, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	task, exists := ms.tasks[id]
	if !exists {
		return nil, fmt.Errorf("task with ID %s not found", id)
	}

	return task, nil
}

func (ms *MemoryStorage) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var result []*domain.Task
	for _, task := range ms.tasks {
		if matchesFilter(task, filter) {
			result = append(result, task)
		}
	}

	return result, nil
}

func (ms *MemoryStorage) Delete(id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.tasks[id]; !exists {
		return fmt.Errorf("task with ID %s not found", id)
	}

	delete(ms.tasks, id)
	return nil
}

func matchesFilter(task *domain.Task, filter domain.TaskFilter) bool {
	if filter.Status != nil && task.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && task.Priority != *filter.Priority {
		return false
	}
	if filter.Tag != nil {
		found := false
		for _, tag := range task.Tags {
			if tag == *filter.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func applyUpdates(task *domain.Task, updates map[string]interface{}) {
	if title, ok := updates["title"].(string); ok {
		task.Title = title
	}
	if description, ok := updates["description"].(string); ok {
		task.Description = description
	}
	if status, ok := updates["status"].(domain.TaskStatus); ok {
		task.Status = status
	}
	if priority, ok := updates["priority"].(domain.Priority); ok {
		task.Priority = priority
	}
	if tags, ok := updates["tags"].([]string); ok {
		task.Tags = tags
	}
}
