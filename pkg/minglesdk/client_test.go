package minglesdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/mingle/pkg/minglesdk"
	"github.com/stretchr/testify/require"
)

func TestClientSendsGuestEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "guest@x.com", r.Header.Get(minglesdk.GuestEmailHeader))
		require.Equal(t, "/v1/events/abc", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"abc","address":"Irvine","city":"Irvine"}`))
	}))
	defer srv.Close()

	c := minglesdk.NewClient(srv.URL + "/")
	c.GuestEmail = "guest@x.com"

	e, err := c.GetEvent(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "Irvine", e.Address)
}

func TestClientListEventsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "irvine", q.Get("q"))
		require.Equal(t, "25", q.Get("max_miles"))
		require.Equal(t, "33.5", q.Get("lat"))
		require.Equal(t, "-117.5", q.Get("lon"))
		_, _ = w.Write([]byte(`{"events":[]}`))
	}))
	defer srv.Close()

	miles, lat, lon := 25.0, 33.5, -117.5
	_, err := minglesdk.NewClient(srv.URL).ListEvents(context.Background(), minglesdk.EventQuery{
		Text: "irvine", MaxMiles: &miles, Lat: &lat, Lon: &lon,
	})
	require.NoError(t, err)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   string
		wantDetail string
	}{
		{"api error", http.StatusConflict, `{"error":"conflict","error_description":"username already taken"}`, minglesdk.ErrorCodeConflict, ""},
		{"validation", http.StatusBadRequest, `{"code":"validation_error","message":"request validation failed","details":{"email":"required"}}`, minglesdk.ErrorCodeValidation, "email"},
		{"opaque", http.StatusBadGateway, `<html>bad gateway</html>`, minglesdk.ErrorCodeServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := minglesdk.NewClient(srv.URL).Register(context.Background(), minglesdk.RegisterRequest{})

			var apiErr *minglesdk.APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.wantCode, apiErr.Code)
			if tt.wantDetail != "" {
				require.Contains(t, apiErr.Details, tt.wantDetail)
			}
		})
	}
}

func TestAPIErrorWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	minglesdk.NewAPIError(http.StatusForbidden, minglesdk.ErrorCodeForbidden, "only the host may do that").WriteError(rec)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"forbidden","error_description":"only the host may do that"}`, rec.Body.String())
}
