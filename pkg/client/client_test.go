package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contact struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestClient_ValidateToken(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tenant-references/verify/validate/abc123", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","id":5,"name":"Jane Doe","relationship":"previous_landlord","tenantName":"John Smith","isVerified":false}`))
	}))
	defer srv.Close()

	info, err := New(srv.URL).ValidateToken(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, ReferenceInfo{ID: 5, Name: "Jane Doe", Relationship: "previous_landlord", TenantName: "John Smith"}, info)
}

func TestClient_ValidateTokenErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "structured code",
			status:   http.StatusGone,
			body:     `{"status":"Error","error":"verification link has expired","code":"EXPIRED_TOKEN"}`,
			wantCode: CodeExpiredToken,
			wantMsg:  "verification link has expired",
		},
		{
			name:    "message field",
			status:  http.StatusBadRequest,
			body:    `{"message":"Reference already verified"}`,
			wantMsg: "Reference already verified",
		},
		{
			name:    "error wins over message",
			status:  http.StatusBadRequest,
			body:    `{"error":"first","message":"second"}`,
			wantMsg: "first",
		},
		{
			name:    "not json",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantMsg: "request failed with status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).ValidateToken(context.Background(), "tok")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL).ValidateToken(context.Background(), "tok")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_SubmitVerification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tenant-references/verify/submit/abc123", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var sub Submission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		assert.Equal(t, Submission{ReferenceID: 5, Rating: "excellent", Comments: "Great tenant"}, sub)

		_, _ = w.Write([]byte(`{"status":"OK","tenantName":"John Smith"}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).SubmitVerification(context.Background(), "abc123", Submission{
		ReferenceID: 5,
		Rating:      "excellent",
		Comments:    "Great tenant",
	})
	require.NoError(t, err)
	assert.Equal(t, "John Smith", res.TenantName)
}

func TestResource_CRUD(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/contacts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"OK","items":[{"id":1,"name":"Ann"}]}`))
	})
	mux.HandleFunc("POST /api/contacts", func(w http.ResponseWriter, r *http.Request) {
		var c contact
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		c.ID = 2
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "item": c})
	})
	mux.HandleFunc("PUT /api/contacts/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","item":{"id":2,"name":"Bea"}}`))
	})
	mux.HandleFunc("DELETE /api/contacts/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	})
	mux.HandleFunc("DELETE /api/contacts/3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":"Error","error":"not found"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := NewResource[contact](New(srv.URL, WithBearerToken("access")), "/api/contacts/")
	ctx := context.Background()

	items, err := res.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contact{{ID: 1, Name: "Ann"}}, items)

	created, err := res.Create(ctx, contact{Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, contact{ID: 2, Name: "Bob"}, created)

	updated, err := res.Update(ctx, 2, contact{Name: "Bea"})
	require.NoError(t, err)
	assert.Equal(t, "Bea", updated.Name)

	require.NoError(t, res.Delete(ctx, 2))

	err = res.Delete(ctx, 3)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
