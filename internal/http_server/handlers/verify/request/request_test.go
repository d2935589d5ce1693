package request

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rentcard_service/internal/lib/logger/handlers/slogdiscard"
	"rentcard_service/internal/middleware/auth"
	"rentcard_service/internal/references"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type requesterMock struct{ mock.Mock }

func (m *requesterMock) RequestVerification(ctx context.Context, tenantID, referenceID int64) (time.Time, error) {
	args := m.Called(ctx, tenantID, referenceID)
	return args.Get(0).(time.Time), args.Error(1)
}

func TestRequestHandler(t *testing.T) {
	expiresAt := time.Date(2026, 10, 25, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "issued", wantCode: http.StatusOK},
		{name: "not owned", err: references.ErrReferenceNotFound, wantCode: http.StatusNotFound},
		{name: "verified", err: references.ErrReferenceVerified, wantCode: http.StatusConflict},
		{name: "queue down", err: errors.New("channel closed"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &requesterMock{}
			m.On("RequestVerification", mock.Anything, int64(1), int64(5)).Return(expiresAt, tt.err)

			r := chi.NewRouter()
			r.Post("/api/tenant-references/{id}/request-verification", New(slogdiscard.NewDiscardLogger(), m))

			req := httptest.NewRequest(http.MethodPost, "/api/tenant-references/5/request-verification", nil)
			req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: 1, Role: "tenant"}))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.err == nil {
				assert.JSONEq(t, `{"status":"OK","expiresAt":"2026-10-25T12:00:00Z"}`, rec.Body.String())
			}
		})
	}
}
