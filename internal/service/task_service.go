package service

import (
	"github.com/dkwan/tasklens/internal/domain"
)

// TaskService is the thin CRUD facade the command surface talks to.
type TaskService struct {
	storage domain.TaskRepository
}

func NewTaskService(storage domain.TaskRepository) *TaskService {
	return &TaskService{
		storage: storage,
	}
}

func (s *TaskService) Create(task *domain.Task) error {
	return s.storage.Create(task)
}

func (s *TaskService) Update(id string, updates map[string]interface{}) (*domain.Task, error) {
	return s.storage.Update(id, updates)
}

func (s *TaskService) Get(id string) (*domain.Task, error) {
	return s.storage.Get(id)
}

func (s *TaskService) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.storage.List(filter)
}

func (s *TaskService) Delete(id string) error {
	return s.storage.Delete(id)
}
