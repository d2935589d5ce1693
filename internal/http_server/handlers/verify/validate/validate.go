package validate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"rentcard_service/internal/http_server/handlers/verify"
	resp "rentcard_service/internal/lib/api/response"
	"rentcard_service/internal/models"
	"rentcard_service/internal/references"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	models.ReferenceVerificationInfo
}

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (models.ReferenceVerificationInfo, error)
}

func New(log *slog.Logger, validator TokenValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.validate.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := chi.URLParam(r, "token")
		if token == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ErrorWithCode(references.CodeInvalidToken, references.ErrInvalidToken.Message))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		info, err := validator.ValidateToken(ctx, token)
		if err != nil {
			verify.RenderError(w, r, log, err)

			return
		}

		log.Info("token validated", slog.Int64("reference_id", info.ID))

		ResponseOK(w, r, info)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, info models.ReferenceVerificationInfo) {
	render.JSON(w, r, Response{
		Response:                  resp.OK(),
		ReferenceVerificationInfo: info,
	})
}
