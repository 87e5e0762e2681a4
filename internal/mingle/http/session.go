package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/service"
	"github.com/aussiebroadwan/mingle/pkg/httpx"
	"github.com/aussiebroadwan/mingle/pkg/minglesdk"
	"github.com/aussiebroadwan/mingle/pkg/slogx"
)

// SessionMiddleware attaches the logged-in user's id to the request context so
// per-user rate limits and handlers can see it.
func SessionMiddleware(ds *service.DomainStore) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := ds.CurrentUser(); ok {
				ctx := httpx.WithUserID(r.Context(), u.ID)
				ctx = slogx.With(ctx, "user_id", u.ID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// viewerFor resolves who is looking: the session user if any, else whoever
// the guest email header names.
func viewerFor(ds *service.DomainStore, r *http.Request) domain.Viewer {
	if u, ok := ds.CurrentUser(); ok {
		return u.Viewer()
	}
	return domain.Viewer{Email: strings.TrimSpace(r.Header.Get(minglesdk.GuestEmailHeader))}
}

// requireUser writes a 401 and returns false when nobody is logged in.
func requireUser(ds *service.DomainStore, w http.ResponseWriter) (domain.User, bool) {
	u, ok := ds.CurrentUser()
	if !ok {
		minglesdk.NewAPIError(http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized, "Not logged in").WriteError(w)
		return domain.User{}, false
	}
	return u, true
}

// decodeBody decodes and validates a JSON body, writing the error response
// itself when either step fails.
func decodeBody[T interface{ Validate() map[string]string }](w http.ResponseWriter, r *http.Request, v *T) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		minglesdk.NewAPIError(http.StatusBadRequest, minglesdk.ErrorCodeInvalidRequest, "Invalid JSON in request body").WriteError(w)
		return false
	}
	if errs := (*v).Validate(); errs != nil {
		minglesdk.WriteValidationError(w, errs)
		return false
	}
	return true
}

func writeNotFound(w http.ResponseWriter, what string) {
	minglesdk.NewAPIError(http.StatusNotFound, minglesdk.ErrorCodeNotFound, what+" not found").WriteError(w)
}

func writeForbidden(w http.ResponseWriter, desc string) {
	minglesdk.NewAPIError(http.StatusForbidden, minglesdk.ErrorCodeForbidden, desc).WriteError(w)
}

func writeServerError(w http.ResponseWriter, desc string) {
	minglesdk.NewAPIError(http.StatusInternalServerError, minglesdk.ErrorCodeServerError, desc).WriteError(w)
}
