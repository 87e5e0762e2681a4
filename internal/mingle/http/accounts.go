package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/service"
	"github.com/aussiebroadwan/mingle/pkg/httpx"
	"github.com/aussiebroadwan/mingle/pkg/minglesdk"
	"github.com/aussiebroadwan/mingle/pkg/slogx"
)

// AccountsHandler serves registration, the session and the logged-in user's
// own resources.
type AccountsHandler struct {
	Store      *service.DomainStore
	OTP        *service.OTPService
	Geolocator *service.Geolocator
}

// HandleIssueCode handles POST /v1/otp
//
//	@Summary		Send a verification code
//	@Description	Mails a six digit code to the address. Fails when the email or optional username is already registered.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		minglesdk.IssueCodeRequest			true	"Email to verify"
//	@Success		202		{object}	minglesdk.IssueCodeResponse			"handle, expires_at, resend_after"
//	@Failure		400		{object}	minglesdk.ValidationErrorResponse	"invalid email"
//	@Failure		409		{object}	minglesdk.ErrorResponse				"already registered"
//	@Failure		429		{object}	minglesdk.ErrorResponse				"resend cooldown"
//	@Failure		502		{object}	minglesdk.ErrorResponse				"mail delivery failed"
//	@Router			/v1/otp [post].
func (h *AccountsHandler) HandleIssueCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req minglesdk.IssueCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	usernameTaken, emailTaken := h.Store.IsRegistered(req.Username, req.Email)
	if usernameTaken || emailTaken {
		writeConflict(w, usernameTaken)
		return
	}

	issued, err := h.OTP.Issue(ctx, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			minglesdk.WriteValidationError(w, map[string]string{"email": "must be a valid email address"})
		case errors.Is(err, service.ErrResendTooSoon):
			minglesdk.NewAPIError(http.StatusTooManyRequests, minglesdk.ErrorCodeTooManyRequests, "A code was sent recently, try again shortly").WriteError(w)
		default:
			log.Error("failed to issue code", "error", err)
			minglesdk.NewAPIError(http.StatusBadGateway, minglesdk.ErrorCodeServerError, "Failed to send verification code").WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, minglesdk.IssueCodeResponse{
		Handle:      issued.Handle.String(),
		ExpiresAt:   issued.ExpiresAt,
		ResendAfter: issued.ResendAfter,
	})
}

// HandleRegister handles POST /v1/register
//
//	@Summary		Register
//	@Description	Checks the emailed code, creates the account and logs it in.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		minglesdk.RegisterRequest			true	"Account details and code"
//	@Success		201		{object}	minglesdk.UserResponse				"the new user"
//	@Failure		400		{object}	minglesdk.ErrorResponse				"invalid or expired code"
//	@Failure		409		{object}	minglesdk.ErrorResponse				"username or email taken"
//	@Router			/v1/register [post].
func (h *AccountsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req minglesdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	// Checked up front so a taken name does not burn the code.
	if usernameTaken, emailTaken := h.Store.IsRegistered(req.Username, req.Email); usernameTaken || emailTaken {
		writeConflict(w, usernameTaken)
		return
	}

	if err := h.OTP.Verify(ctx, req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode),
			errors.Is(err, service.ErrCodeExpired),
			errors.Is(err, service.ErrTooManyAttempts):
			minglesdk.NewAPIError(http.StatusBadRequest, minglesdk.ErrorCodeInvalidCode, err.Error()).WriteError(w)
		default:
			log.Error("failed to verify code", "error", err)
			writeServerError(w, "Failed to verify code")
		}
		return
	}

	u, err := h.Store.Register(ctx, service.RegisterParams{
		Name:     strings.TrimSpace(req.Name),
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			writeConflict(w, true)
		case errors.Is(err, service.ErrEmailTaken):
			writeConflict(w, false)
		default:
			log.Error("failed to register", "error", err)
			writeServerError(w, "Failed to register")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

// HandleLogin handles POST /v1/session
//
//	@Summary		Log in
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		minglesdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	minglesdk.UserResponse	"the logged-in user"
//	@Failure		401		{object}	minglesdk.ErrorResponse	"invalid credentials"
//	@Router			/v1/session [post].
func (h *AccountsHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req minglesdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.Store.Login(ctx, req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			slogx.FromContext(ctx).Error("failed to log in", "error", err)
		}
		minglesdk.NewAPIError(http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized, "Invalid username or password").WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleLogout handles DELETE /v1/session
//
//	@Summary	Log out
//	@Tags		Accounts
//	@Success	204
//	@Router		/v1/session [delete].
func (h *AccountsHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Store.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// HandleCurrentUser handles GET /v1/session
//
//	@Summary	Current user
//	@Tags		Accounts
//	@Produce	json
//	@Success	200	{object}	minglesdk.UserResponse
//	@Failure	401	{object}	minglesdk.ErrorResponse	"not logged in"
//	@Router		/v1/session [get].
func (h *AccountsHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(h.Store, w)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleLocation handles PUT /v1/me/location
//
//	@Summary		Report device location
//	@Description	Used for distance search. Also saved on the account when logged in.
//	@Tags			Accounts
//	@Accept			json
//	@Param			request	body	minglesdk.LocationRequest	true	"Coordinate"
//	@Success		204
//	@Failure		400	{object}	minglesdk.ValidationErrorResponse
//	@Router			/v1/me/location [put].
func (h *AccountsHandler) HandleLocation(w http.ResponseWriter, r *http.Request) {
	var req minglesdk.LocationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.Store.CaptureUserLocation(r.Context(), domain.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude})
	w.WriteHeader(http.StatusNoContent)
}

// HandleProfile handles PATCH /v1/me
//
//	@Summary	Update profile
//	@Tags		Accounts
//	@Accept		json
//	@Produce	json
//	@Param		request	body		minglesdk.ProfileRequest	true	"Fields to change"
//	@Success	200		{object}	minglesdk.UserResponse
//	@Failure	401		{object}	minglesdk.ErrorResponse	"not logged in"
//	@Failure	409		{object}	minglesdk.ErrorResponse	"email taken"
//	@Router		/v1/me [patch].
func (h *AccountsHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := requireUser(h.Store, w); !ok {
		return
	}

	var req minglesdk.ProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.Store.UpdateProfile(ctx, service.ProfileParams{Name: req.Name, Email: req.Email, Age: req.Age})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			writeConflict(w, false)
		case errors.Is(err, service.ErrNoSession):
			minglesdk.NewAPIError(http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized, "Not logged in").WriteError(w)
		default:
			slogx.FromContext(ctx).Error("failed to update profile", "error", err)
			writeServerError(w, "Failed to update profile")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleDeleteAccount handles DELETE /v1/me
//
//	@Summary		Delete account
//	@Description	Removes the logged-in user and every event they host.
//	@Tags			Accounts
//	@Success		204
//	@Failure		401	{object}	minglesdk.ErrorResponse	"not logged in"
//	@Router			/v1/me [delete].
func (h *AccountsHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(h.Store, w); !ok {
		return
	}

	hosted := h.Store.EventsForCurrentUser()
	if !h.Store.DeleteCurrentUser(r.Context()) {
		minglesdk.NewAPIError(http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized, "Not logged in").WriteError(w)
		return
	}
	if h.Geolocator != nil {
		for _, e := range hosted {
			h.Geolocator.Forget(e.ID)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMyEvents handles GET /v1/me/events
//
//	@Summary	Events I host
//	@Tags		Accounts
//	@Produce	json
//	@Success	200	{object}	minglesdk.EventListResponse	"with guest lists and RSVP totals"
//	@Failure	401	{object}	minglesdk.ErrorResponse		"not logged in"
//	@Router		/v1/me/events [get].
func (h *AccountsHandler) HandleMyEvents(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(h.Store, w)
	if !ok {
		return
	}

	events := h.Store.EventsForCurrentUser()
	resp := minglesdk.EventListResponse{Events: make([]minglesdk.EventResponse, len(events))}
	for i, e := range events {
		resp.Events[i] = toEventResponse(e, u.Viewer(), u.Name, u.LastLocation)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func writeConflict(w http.ResponseWriter, username bool) {
	desc := "Email is already registered"
	if username {
		desc = "Username is already taken"
	}
	minglesdk.NewAPIError(http.StatusConflict, minglesdk.ErrorCodeConflict, desc).WriteError(w)
}
