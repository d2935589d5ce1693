package submit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"rentcard_service/internal/http_server/handlers/verify"
	resp "rentcard_service/internal/lib/api/response"
	"rentcard_service/internal/lib/logger/sl"
	"rentcard_service/internal/models"
	"rentcard_service/internal/references"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	ReferenceID int64  `json:"referenceId" validate:"required,gt=0"`
	Rating      string `json:"rating" validate:"required,oneof=excellent good fair poor"`
	Comments    string `json:"comments" validate:"required,min=1,max=500"`
}

type Response struct {
	resp.Response
	TenantName string `json:"tenantName,omitempty"`
}

type VerificationSubmitter interface {
	SubmitVerification(ctx context.Context, token string, sub models.VerificationSubmission) (string, error)
}

func New(log *slog.Logger, validate *validator.Validate, submitter VerificationSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.submit.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if !errors.As(err, &validateErr) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid request"))

				return
			}

			log.Info("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		tenantName, err := submitter.SubmitVerification(ctx, token, models.VerificationSubmission{
			ReferenceID: req.ReferenceID,
			Rating:      req.Rating,
			Comments:    req.Comments,
		})
		if err != nil {
			verify.RenderError(w, r, log, err)

			return
		}

		log.Info("verification submitted", slog.Int64("reference_id", req.ReferenceID))

		ResponseOK(w, r, tenantName)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, tenantName string) {
	render.JSON(w, r, Response{
		Response:   resp.OK(),
		TenantName: tenantName,
	})
}
