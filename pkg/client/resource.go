package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Resource is the CRUD transport for one collection, e.g. /api/contacts.
type Resource[T any] struct {
	c    *Client
	path string
}

func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{
		c:    c,
		path: "/" + strings.Trim(path, "/"),
	}
}

type listBody[T any] struct {
	Items []T `json:"items"`
}

type itemBody[T any] struct {
	Item T `json:"item"`
}

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	const op = "client.Resource.List"

	var body listBody[T]

	if err := r.c.do(ctx, http.MethodGet, r.path, nil, &body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if body.Items == nil {
		return []T{}, nil
	}

	return body.Items, nil
}

func (r *Resource[T]) Create(ctx context.Context, item T) (T, error) {
	const op = "client.Resource.Create"

	var body itemBody[T]

	if err := r.c.do(ctx, http.MethodPost, r.path, item, &body); err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	return body.Item, nil
}

func (r *Resource[T]) Update(ctx context.Context, id int64, item T) (T, error) {
	const op = "client.Resource.Update"

	var body itemBody[T]

	if err := r.c.do(ctx, http.MethodPut, r.itemPath(id), item, &body); err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	return body.Item, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	const op = "client.Resource.Delete"

	if err := r.c.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Use bumps the usage counter of a contact or template.
func (r *Resource[T]) Use(ctx context.Context, id int64) (T, error) {
	const op = "client.Resource.Use"

	var body itemBody[T]

	if err := r.c.do(ctx, http.MethodPost, r.itemPath(id)+"/use", nil, &body); err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	return body.Item, nil
}

func (r *Resource[T]) itemPath(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}
