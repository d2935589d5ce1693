// Package resource implements owner-scoped CRUD shared by references,
// contacts, templates and communication logs.
package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rentcard_service/internal/lib/logger/sl"
	"rentcard_service/internal/models"
	"rentcard_service/internal/storage"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrUsageNotTracked = errors.New("resource has no usage counter")
)

type Repository[T models.Resource] interface {
	List(ctx context.Context, ownerID int64) ([]T, error)
	Get(ctx context.Context, ownerID, id int64) (T, error)
	Create(ctx context.Context, ownerID int64, rec T) (T, error)
	Update(ctx context.Context, ownerID, id int64, rec T) (T, error)
	Delete(ctx context.Context, ownerID, id int64) error
	IncrementUsage(ctx context.Context, ownerID, id int64) (T, error)
}

type Service[T models.Resource] struct {
	log     *slog.Logger
	repo    Repository[T]
	name    string
	tracked bool
}

func New[T models.Resource](log *slog.Logger, repo Repository[T]) *Service[T] {
	var zero T

	_, tracked := any(zero).(models.UsageTracked)

	return &Service[T]{
		log:     log,
		repo:    repo,
		name:    zero.TableName(),
		tracked: tracked,
	}
}

func (s *Service[T]) List(ctx context.Context, ownerID int64) ([]T, error) {
	const op = "resource.Service.List"

	items, err := s.repo.List(ctx, ownerID)
	if err != nil {
		s.logger(op, ownerID).Error("failed to list", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func (s *Service[T]) Get(ctx context.Context, ownerID, id int64) (T, error) {
	const op = "resource.Service.Get"

	item, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return item, s.fail(op, ownerID, "failed to get", err)
	}

	return item, nil
}

func (s *Service[T]) Create(ctx context.Context, ownerID int64, rec T) (T, error) {
	const op = "resource.Service.Create"

	item, err := s.repo.Create(ctx, ownerID, rec)
	if err != nil {
		return item, s.fail(op, ownerID, "failed to create", err)
	}

	s.logger(op, ownerID).Info("created")

	return item, nil
}

func (s *Service[T]) Update(ctx context.Context, ownerID, id int64, rec T) (T, error) {
	const op = "resource.Service.Update"

	item, err := s.repo.Update(ctx, ownerID, id, rec)
	if err != nil {
		return item, s.fail(op, ownerID, "failed to update", err)
	}

	return item, nil
}

func (s *Service[T]) Delete(ctx context.Context, ownerID, id int64) error {
	const op = "resource.Service.Delete"

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return s.fail(op, ownerID, "failed to delete", err)
	}

	s.logger(op, ownerID).Info("deleted", slog.Int64("id", id))

	return nil
}

// Use increments the usage counter of a tracked resource.
func (s *Service[T]) Use(ctx context.Context, ownerID, id int64) (T, error) {
	const op = "resource.Service.Use"

	if !s.tracked {
		var zero T
		return zero, ErrUsageNotTracked
	}

	item, err := s.repo.IncrementUsage(ctx, ownerID, id)
	if err != nil {
		return item, s.fail(op, ownerID, "failed to increment usage", err)
	}

	return item, nil
}

func (s *Service[T]) logger(op string, ownerID int64) *slog.Logger {
	return s.log.With(
		slog.String("op", op),
		slog.String("resource", s.name),
		slog.Int64("owner_id", ownerID),
	)
}

func (s *Service[T]) fail(op string, ownerID int64, msg string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrAlreadyExists
	}

	s.logger(op, ownerID).Error(msg, sl.Err(err))

	return fmt.Errorf("%s: %w", op, err)
}
