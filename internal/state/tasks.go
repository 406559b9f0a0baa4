package state

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-librarian/internal/logging"
)

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

const (
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Task is one background operation, typically an online import. Result is
// populated on success, Error on failure.
type Task struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	Status     TaskStatus  `json:"status"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
	Result     interface{} `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// maxFinishedTasks bounds how many completed tasks are retained.
const maxFinishedTasks = 50

// TaskRegistry runs operations in the background and retains their results
// for polling.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]*Task)}
}

// Run starts fn in a goroutine and returns the task handle immediately.
// The context passed to fn is detached from the caller's request; a
// background import must survive the HTTP request that started it.
func (r *TaskRegistry) Run(kind string, fn func(ctx context.Context) (interface{}, error)) *Task {
	task := &Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    TaskRunning,
		StartedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.tasks[task.ID] = task
	r.pruneLocked()
	r.mu.Unlock()

	go func() {
		result, err := fn(context.Background())
		now := time.Now().UTC()

		r.mu.Lock()
		defer r.mu.Unlock()
		task.FinishedAt = &now
		if err != nil {
			task.Status = TaskFailed
			task.Error = err.Error()
			logging.Warn("task %s (%s) failed: %v", task.ID, kind, err)
			return
		}
		task.Status = TaskSucceeded
		task.Result = result
	}()

	return task
}

// Get returns a copy of the task with the given id.
func (r *TaskRegistry) Get(id string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// List returns all tasks, newest first.
func (r *TaskRegistry) List() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		out = append(out, *task)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// pruneLocked drops the oldest finished tasks beyond the retention cap.
// Caller holds r.mu.
func (r *TaskRegistry) pruneLocked() {
	var finished []*Task
	for _, task := range r.tasks {
		if task.Status != TaskRunning {
			finished = append(finished, task)
		}
	}
	if len(finished) <= maxFinishedTasks {
		return
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].StartedAt.Before(finished[j].StartedAt)
	})
	for _, task := range finished[:len(finished)-maxFinishedTasks] {
		delete(r.tasks, task.ID)
	}
}
