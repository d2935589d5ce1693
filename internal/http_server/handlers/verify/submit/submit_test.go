package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rentcard_service/internal/lib/logger/handlers/slogdiscard"
	"rentcard_service/internal/models"
	"rentcard_service/internal/references"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type submitterMock struct{ mock.Mock }

func (m *submitterMock) SubmitVerification(ctx context.Context, token string, sub models.VerificationSubmission) (string, error) {
	args := m.Called(ctx, token, sub)
	return args.String(0), args.Error(1)
}

func serve(t *testing.T, s VerificationSubmitter, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Post("/api/tenant-references/verify/submit/{token}", New(slogdiscard.NewDiscardLogger(), validator.New(), s))

	req := httptest.NewRequest(http.MethodPost, "/api/tenant-references/verify/submit/abc123", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestSubmitHandler_Success(t *testing.T) {
	s := &submitterMock{}
	s.On("SubmitVerification", mock.Anything, "abc123", models.VerificationSubmission{
		ReferenceID: 5,
		Rating:      "excellent",
		Comments:    "Great tenant",
	}).Return("John Smith", nil)

	rec := serve(t, s, `{"referenceId":5,"rating":"excellent","comments":"Great tenant"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, "John Smith", body.TenantName)

	s.AssertExpectations(t)
}

func TestSubmitHandler_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty comments", body: `{"referenceId":5,"rating":"good","comments":""}`},
		{name: "comments too long", body: `{"referenceId":5,"rating":"good","comments":"` + strings.Repeat("a", 501) + `"}`},
		{name: "unknown rating", body: `{"referenceId":5,"rating":"amazing","comments":"ok"}`},
		{name: "missing reference", body: `{"rating":"good","comments":"ok"}`},
		{name: "malformed json", body: `{"referenceId":`},
		{name: "empty body", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &submitterMock{}

			rec := serve(t, s, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			s.AssertNotCalled(t, "SubmitVerification", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitHandler_MaxLengthAccepted(t *testing.T) {
	comments := strings.Repeat("a", 500)

	s := &submitterMock{}
	s.On("SubmitVerification", mock.Anything, "abc123", models.VerificationSubmission{
		ReferenceID: 5,
		Rating:      "fair",
		Comments:    comments,
	}).Return("John Smith", nil)

	rec := serve(t, s, `{"referenceId":5,"rating":"fair","comments":"`+comments+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitHandler_AlreadyVerified(t *testing.T) {
	s := &submitterMock{}
	s.On("SubmitVerification", mock.Anything, "abc123", mock.Anything).Return("", references.ErrAlreadyVerified)

	rec := serve(t, s, `{"referenceId":5,"rating":"good","comments":"again"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, references.CodeAlreadyVerified, body.Code)
	assert.Contains(t, body.Error, "already verified")
}
