package send

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"rentcard_service/internal/communications"
	resp "rentcard_service/internal/lib/api/response"
	"rentcard_service/internal/lib/logger/sl"
	"rentcard_service/internal/middleware/auth"
	"rentcard_service/internal/models"
	"rentcard_service/internal/resource"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	ContactID  int64  `json:"contactId" validate:"required,gt=0"`
	TemplateID *int64 `json:"templateId,omitempty" validate:"omitempty,gt=0"`
	Channel    string `json:"channel" validate:"required,oneof=email sms"`
	Subject    string `json:"subject" validate:"max=300"`
	Body       string `json:"body" validate:"max=10000"`
}

type Response struct {
	resp.Response
	Log models.CommunicationLog `json:"log"`
}

type Sender interface {
	Send(ctx context.Context, landlordID int64, req communications.SendRequest) (models.CommunicationLog, error)
}

func New(log *slog.Logger, validate *validator.Validate, sender Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.communication.send.New"

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

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		entry, err := sender.Send(ctx, principal.UserID, communications.SendRequest{
			ContactID:  req.ContactID,
			TemplateID: req.TemplateID,
			Channel:    req.Channel,
			Subject:    req.Subject,
			Body:       req.Body,
		})
		if err != nil {
			switch {
			case errors.Is(err, resource.ErrNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("contact or template not found"))
			case errors.Is(err, communications.ErrChannelNotAllowed):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, resp.ErrorWithCode("CHANNEL_NOT_ALLOWED", err.Error()))
			case errors.Is(err, communications.ErrMissingAddress):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, resp.ErrorWithCode("MISSING_ADDRESS", err.Error()))
			case errors.Is(err, communications.ErrEmptyMessage):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.ErrorWithCode("EMPTY_MESSAGE", err.Error()))
			case errors.Is(err, communications.ErrDeliveryFailed):
				render.Status(r, http.StatusBadGateway)
				render.JSON(w, r, resp.ErrorWithCode("DELIVERY_FAILED", communications.ErrDeliveryFailed.Error()))
			default:
				log.Error("failed to send communication", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		ResponseOK(w, r, entry)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, entry models.CommunicationLog) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Log:      entry,
	})
}
