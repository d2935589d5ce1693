// Package store keeps an in-memory list of one resource kind in sync with
// the API. Mutations are applied locally only after the server confirms them.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

var ErrPending = errors.New("another operation is pending")

type Identifiable interface {
	GetID() int64
}

// Backend is satisfied by *client.Resource[T].
type Backend[T Identifiable] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id int64, item T) (T, error)
	Delete(ctx context.Context, id int64) error
}

type Notifier interface {
	Notify(msg string)
}

type Store[T Identifiable] struct {
	log      *slog.Logger
	backend  Backend[T]
	notifier Notifier
	name     string

	mu      sync.Mutex
	items   []T
	pending bool
}

func New[T Identifiable](log *slog.Logger, name string, backend Backend[T], notifier Notifier) *Store[T] {
	return &Store[T]{
		log:      log.With(slog.String("store", name)),
		backend:  backend,
		notifier: notifier,
		name:     name,
		items:    []T{},
	}
}

// Items returns a copy of the current list.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.items)
}

func (s *Store[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending
}

func (s *Store[T]) Fetch(ctx context.Context) error {
	const op = "store.Fetch"

	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	items, err := s.backend.List(ctx)
	if err != nil {
		return s.fail(op, "failed to load "+s.name, err)
	}

	s.mu.Lock()
	s.items = slices.Clone(items)
	if s.items == nil {
		s.items = []T{}
	}
	s.mu.Unlock()

	return nil
}

func (s *Store[T]) Add(ctx context.Context, item T) (T, error) {
	const op = "store.Add"

	var zero T

	if err := s.begin(); err != nil {
		return zero, err
	}
	defer s.end()

	created, err := s.backend.Create(ctx, item)
	if err != nil {
		return zero, s.fail(op, "failed to create "+s.name, err)
	}

	s.mu.Lock()
	s.items = append(s.items, created)
	s.mu.Unlock()

	return created, nil
}

func (s *Store[T]) Update(ctx context.Context, id int64, item T) (T, error) {
	const op = "store.Update"

	var zero T

	if err := s.begin(); err != nil {
		return zero, err
	}
	defer s.end()

	updated, err := s.backend.Update(ctx, id, item)
	if err != nil {
		return zero, s.fail(op, "failed to update "+s.name, err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i] = updated
	} else {
		s.items = append(s.items, updated)
	}
	s.mu.Unlock()

	return updated, nil
}

// Delete removes the item locally only once the server has deleted it.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	const op = "store.Delete"

	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.backend.Delete(ctx, id); err != nil {
		return s.fail(op, "failed to delete "+s.name, err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.mu.Unlock()

	return nil
}

func (s *Store[T]) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return ErrPending
	}
	s.pending = true

	return nil
}

func (s *Store[T]) end() {
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
}

// indexOf must be called with s.mu held.
func (s *Store[T]) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(it T) bool { return it.GetID() == id })
}

func (s *Store[T]) fail(op, msg string, err error) error {
	s.log.Error(msg, slog.String("op", op), slog.String("error", err.Error()))

	if s.notifier != nil {
		s.notifier.Notify(msg + ": " + err.Error())
	}

	return fmt.Errorf("%s: %w", op, err)
}
