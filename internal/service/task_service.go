package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// ChangeNotifier avisa a los clientes conectados de un usuario que su
// lista de tareas cambió. La señal no lleva payload.
type ChangeNotifier interface {
	NotifyUser(userID string)
}

// TaskService coordina el CRUD de tareas con verificación de dueño.
type TaskService struct {
	logger   *zap.Logger
	tasks    repository.TaskRepository
	notifier ChangeNotifier
}

func NewTaskService(logger *zap.Logger, tasks repository.TaskRepository, notifier ChangeNotifier) *TaskService {
	return &TaskService{
		logger:   logger,
		tasks:    tasks,
		notifier: notifier,
	}
}

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrNotTaskOwner  = errors.New("not task owner")
	ErrTitleRequired = errors.New("title required")
	ErrInvalidStatus = errors.New("invalid status")
)

func (s *TaskService) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if s.tasks == nil {
		return nil, errors.New("task service not configured")
	}
	return s.tasks.ListByOwner(ctx, ownerID)
}

func (s *TaskService) Create(ctx context.Context, ownerID, title string) (domain.Task, error) {
	if s.tasks == nil {
		return domain.Task{}, errors.New("task service not configured")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, ErrTitleRequired
	}

	now := time.Now().UTC()
	task := domain.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    domain.StatusTodo,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return domain.Task{}, err
	}

	s.notifyChanged(ownerID)
	return task, nil
}

type UpdateTaskInput struct {
	Title  *string
	Status *string
}

// Update aplica solo los campos presentes; el dueño es inmutable.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, input UpdateTaskInput) (domain.Task, error) {
	if s.tasks == nil {
		return domain.Task{}, errors.New("task service not configured")
	}

	task, err := s.getOwned(ctx, ownerID, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return domain.Task{}, ErrTitleRequired
		}
		task.Title = title
	}
	if input.Status != nil {
		status := domain.TaskStatus(strings.TrimSpace(*input.Status))
		if !status.IsValid() {
			return domain.Task{}, ErrInvalidStatus
		}
		task.Status = status
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.tasks.Update(ctx, task); err != nil {
		return domain.Task{}, err
	}

	s.notifyChanged(ownerID)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	if s.tasks == nil {
		return errors.New("task service not configured")
	}

	task, err := s.getOwned(ctx, ownerID, taskID)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}

	s.notifyChanged(ownerID)
	return nil
}

func (s *TaskService) getOwned(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	if task.OwnerID != ownerID {
		return domain.Task{}, ErrNotTaskOwner
	}
	return task, nil
}

func (s *TaskService) notifyChanged(ownerID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyUser(ownerID)
}
