package request

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
	"rentcard_service/internal/references"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	ExpiresAt time.Time `json:"expiresAt"`
}

type VerificationRequester interface {
	RequestVerification(ctx context.Context, tenantID, referenceID int64) (time.Time, error)
}

func New(log *slog.Logger, requester VerificationRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.request.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		principal, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("missing access token"))

			return
		}

		referenceID, err := urlparam.ID(r, "id")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid id"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		expiresAt, err := requester.RequestVerification(ctx, principal.UserID, referenceID)
		if err != nil {
			switch {
			case errors.Is(err, references.ErrReferenceNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("reference not found"))
			case errors.Is(err, references.ErrReferenceVerified):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.ErrorWithCode(references.CodeAlreadyVerified, references.ErrAlreadyVerified.Message))
			default:
				log.Error("failed to request verification", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		ResponseOK(w, r, expiresAt)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, expiresAt time.Time) {
	render.JSON(w, r, Response{
		Response:  resp.OK(),
		ExpiresAt: expiresAt,
	})
}
