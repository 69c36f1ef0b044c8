package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dkwan/tasklens/internal/domain"
)

// FileStorage keeps the whole task collection in a single JSON file under
// a .tasklens directory, rewritten atomically on every mutation. Suited to
// the small collections a personal task list holds.
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
	tasks    map[string]*domain.Task
}

func NewFileStorage(basePath string) (*FileStorage, error) {
	fs := &FileStorage{
		basePath: basePath,
		tasks:    make(map[string]*domain.Task),
	}

	if err := fs.initialize(); err != nil {
		return nil, fmt.Errorf("initializing file storage: %w", err)
	}
	if err := fs.load(); err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	return fs, nil
}

func (fs *FileStorage) initialize() error {
	return os.MkdirAll(filepath.Join(fs.basePath, ".tasklens"), 0755)
}

func (fs *FileStorage) tasksPath() string {
	return filepath.Join(fs.basePath, ".tasklens", "tasks.json")
}

func (fs *FileStorage) load() error {
	data, err := os.ReadFile(fs.tasksPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var tasks []*domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("parsing %s: %w", fs.tasksPath(), err)
	}
	for _, task := range tasks {
		fs.tasks[task.ID] = task
	}
	return nil
}

// save writes the collection through a temp file and renames it into
// place. Callers hold the write lock.
func (fs *FileStorage) save() error {
	tasks := make([]*domain.Task, 0, len(fs.tasks))
	for _, task := range fs.tasks {
		tasks = append(tasks, task)
	}

	path := fs.tasksPath()
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(tasks); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	return os.Rename(tempPath, path)
}

func (fs *FileStorage) Create(task *domain.Task) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}

	fs.tasks[task.ID] = task
	return fs.save()
}

func (fs *FileStorage) Update(id string, updates map[string]interface{}) (*domain.Task, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	task, exists := fs.tasks[id]
	if !exists {
		return nil, fmt.Errorf("task with ID %s not found", id)
	}

	updated := *task
	applyUpdates(&updated, updates)
	updated.UpdatedAt = time.Now()

	fs.tasks[id] = &updated
	if err := fs.save(); err != nil {
		fs.tasks[id] = task
		return nil, err
	}
	return &updated, nil
}

func (fs *FileStorage) Get(id string) (*domain.Task, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	task, exists := fs.tasks[id]
	if !exists {
		return nil, fmt.Errorf("task with ID %s not found", id)
	}
	return task, nil
}

func (fs *FileStorage) List(filter domain.TaskFilter) ([]*domain.Task, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var result []*domain.Task
	for _, task := range fs.tasks {
		if matchesFilter(task, filter) {
			result = append(result, task)
		}
	}
	return result, nil
}

func (fs *FileStorage) Delete(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	task, exists := fs.tasks[id]
	if !exists {
		return fmt.Errorf("task with ID %s not found", id)
	}

	delete(fs.tasks, id)
	if err := fs.save(); err != nil {
		fs.tasks[id] = task
		return err
	}
	return nil
}
