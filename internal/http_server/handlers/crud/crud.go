// Package crud serves owner-scoped list/create/update/delete endpoints for
// any stored resource. The owner is always the authenticated principal.
package crud

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "rentcard_service/internal/lib/api/response"
	"rentcard_service/internal/lib/api/urlparam"
	"rentcard_service/internal/lib/logger/sl"
	"rentcard_service/internal/middleware/auth"
	"rentcard_service/internal/models"
	"rentcard_service/internal/resource"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Service[T models.Resource] interface {
	List(ctx context.Context, ownerID int64) ([]T, error)
	Create(ctx context.Context, ownerID int64, rec T) (T, error)
	Update(ctx context.Context, ownerID, id int64, rec T) (T, error)
	Delete(ctx context.Context, ownerID, id int64) error
	Use(ctx context.Context, ownerID, id int64) (T, error)
}

type ListResponse[T any] struct {
	resp.Response
	Items []T `json:"items"`
}

type ItemResponse[T any] struct {
	resp.Response
	Item T `json:"item"`
}

func List[T models.Resource](log *slog.Logger, svc Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log, ownerID, ok := begin(w, r, log, "handlers.crud.List")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, err := svc.List(ctx, ownerID)
		if err != nil {
			renderError(w, r, log, err)
			return
		}

		render.JSON(w, r, ListResponse[T]{Response: resp.OK(), Items: items})
	}
}

func Create[T models.Resource](log *slog.Logger, validate *validator.Validate, svc Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log, ownerID, ok := begin(w, r, log, "handlers.crud.Create")
		if !ok {
			return
		}

		rec, ok := decode[T](w, r, log, validate)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		item, err := svc.Create(ctx, ownerID, rec)
		if err != nil {
			renderError(w, r, log, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, ItemResponse[T]{Response: resp.OK(), Item: item})
	}
}

func Update[T models.Resource](log *slog.Logger, validate *validator.Validate, svc Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log, ownerID, ok := begin(w, r, log, "handlers.crud.Update")
		if !ok {
			return
		}

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		rec, ok := decode[T](w, r, log, validate)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		item, err := svc.Update(ctx, ownerID, id, rec)
		if err != nil {
			renderError(w, r, log, err)
			return
		}

		render.JSON(w, r, ItemResponse[T]{Response: resp.OK(), Item: item})
	}
}

func Delete[T models.Resource](log *slog.Logger, svc Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log, ownerID, ok := begin(w, r, log, "handlers.crud.Delete")
		if !ok {
			return
		}

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := svc.Delete(ctx, ownerID, id); err != nil {
			renderError(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OK())
	}
}

// Use records one use of a template or contact.
func Use[T models.Resource](log *slog.Logger, svc Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log, ownerID, ok := begin(w, r, log, "handlers.crud.Use")
		if !ok {
			return
		}

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		item, err := svc.Use(ctx, ownerID, id)
		if err != nil {
			renderError(w, r, log, err)
			return
		}

		render.JSON(w, r, ItemResponse[T]{Response: resp.OK(), Item: item})
	}
}

func begin(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string) (*slog.Logger, int64, bool) {
	log = log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("missing access token"))

		return log, 0, false
	}

	return log, principal.UserID, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := urlparam.ID(r, "id")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("invalid id"))

		return 0, false
	}

	return id, true
}

func decode[T models.Resource](w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate) (T, bool) {
	var rec T

	if err := render.DecodeJSON(r.Body, &rec); err != nil {
		log.Error("Failed to decode request body", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Failed to decode request"))

		return rec, false
	}

	if err := validate.Struct(rec); err != nil {
		var validateErr validator.ValidationErrors
		if !errors.As(err, &validateErr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Invalid request"))

			return rec, false
		}

		log.Info("Invalid request", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ValidationError(validateErr))

		return rec, false
	}

	return rec, true
}

func renderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, resource.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("not found"))
	case errors.Is(err, resource.ErrAlreadyExists):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, resp.Error("already exists"))
	case errors.Is(err, resource.ErrUsageNotTracked):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("usage is not tracked for this resource"))
	default:
		log.Error("request failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal error"))
	}
}
