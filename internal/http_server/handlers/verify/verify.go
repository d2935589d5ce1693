package verify

import (
	"errors"
	"log/slog"
	"net/http"

	resp "rentcard_service/internal/lib/api/response"
	"rentcard_service/internal/lib/logger/sl"
	"rentcard_service/internal/references"

	"github.com/go-chi/render"
)

// StatusFor maps a verification error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case references.CodeExpiredToken:
		return http.StatusGone
	case references.CodeAlreadyVerified:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// RenderError writes a verification failure with its machine-readable code.
func RenderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *references.Error
	if errors.As(err, &verr) {
		log.Info("verification rejected", slog.String("code", verr.Code))

		render.Status(r, StatusFor(verr.Code))
		render.JSON(w, r, resp.ErrorWithCode(verr.Code, verr.Message))

		return
	}

	log.Error("verification failed", sl.Err(err))

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, resp.Error("Internal error"))
}
