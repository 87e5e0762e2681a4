package minglesdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a Mingle server. The server keeps one session for everyone,
// so there is no token to carry: Login and Logout change what every client
// sees. GuestEmail, when set, is sent with each request so anonymous viewers
// are recognised as approved guests.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	GuestEmail string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ============================================================================
// Health
// ============================================================================

func (c *Client) Livez(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.call(ctx, http.MethodGet, "/livez", nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) Readyz(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.call(ctx, http.MethodGet, "/readyz", nil, http.StatusOK, &out)
	return out, err
}

// ============================================================================
// Accounts
// ============================================================================

func (c *Client) IssueCode(ctx context.Context, req IssueCodeRequest) (IssueCodeResponse, error) {
	var out IssueCodeResponse
	err := c.call(ctx, http.MethodPost, "/v1/otp", req, http.StatusAccepted, &out)
	return out, err
}

// Register creates the account and logs it in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (UserResponse, error) {
	var out UserResponse
	err := c.call(ctx, http.MethodPost, "/v1/register", req, http.StatusCreated, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (UserResponse, error) {
	var out UserResponse
	err := c.call(ctx, http.MethodPost, "/v1/session", req, http.StatusOK, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/v1/session", nil, http.StatusNoContent, nil)
}

func (c *Client) CurrentUser(ctx context.Context) (UserResponse, error) {
	var out UserResponse
	err := c.call(ctx, http.MethodGet, "/v1/session", nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) UpdateLocation(ctx context.Context, req LocationRequest) error {
	return c.call(ctx, http.MethodPut, "/v1/me/location", req, http.StatusNoContent, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, req ProfileRequest) (UserResponse, error) {
	var out UserResponse
	err := c.call(ctx, http.MethodPatch, "/v1/me", req, http.StatusOK, &out)
	return out, err
}

// DeleteAccount removes the logged-in user and every event they host.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/v1/me", nil, http.StatusNoContent, nil)
}

func (c *Client) MyEvents(ctx context.Context) (EventListResponse, error) {
	var out EventListResponse
	err := c.call(ctx, http.MethodGet, "/v1/me/events", nil, http.StatusOK, &out)
	return out, err
}

// ============================================================================
// Events
// ============================================================================

func (c *Client) CreateEvent(ctx context.Context, req EventRequest) (EventResponse, error) {
	var out EventResponse
	err := c.call(ctx, http.MethodPost, "/v1/events", req, http.StatusCreated, &out)
	return out, err
}

func (c *Client) ListEvents(ctx context.Context, q EventQuery) (EventListResponse, error) {
	v := url.Values{}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if q.MaxMiles != nil {
		v.Set("max_miles", strconv.FormatFloat(*q.MaxMiles, 'f', -1, 64))
	}
	if q.Lat != nil && q.Lon != nil {
		v.Set("lat", strconv.FormatFloat(*q.Lat, 'f', -1, 64))
		v.Set("lon", strconv.FormatFloat(*q.Lon, 'f', -1, 64))
	}

	path := "/v1/events"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var out EventListResponse
	err := c.call(ctx, http.MethodGet, path, nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) GetEvent(ctx context.Context, id string) (EventResponse, error) {
	var out EventResponse
	err := c.call(ctx, http.MethodGet, "/v1/events/"+url.PathEscape(id), nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) UpdateEvent(ctx context.Context, id string, req EventRequest) (EventResponse, error) {
	var out EventResponse
	err := c.call(ctx, http.MethodPut, "/v1/events/"+url.PathEscape(id), req, http.StatusOK, &out)
	return out, err
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/v1/events/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

func (c *Client) ShareEvent(ctx context.Context, id string) (ShareResponse, error) {
	var out ShareResponse
	err := c.call(ctx, http.MethodGet, "/v1/events/"+url.PathEscape(id)+"/share", nil, http.StatusOK, &out)
	return out, err
}

// ============================================================================
// Guests
// ============================================================================

func (c *Client) SubmitRSVP(ctx context.Context, eventID string, req RSVPRequest) (EventResponse, error) {
	var out EventResponse
	err := c.call(ctx, http.MethodPost, "/v1/events/"+url.PathEscape(eventID)+"/rsvps", req, http.StatusOK, &out)
	return out, err
}

func (c *Client) RequestAccess(ctx context.Context, eventID string, req AccessRequestRequest) error {
	return c.call(ctx, http.MethodPost, "/v1/events/"+url.PathEscape(eventID)+"/access-requests", req, http.StatusAccepted, nil)
}

func (c *Client) ApproveRequest(ctx context.Context, eventID, requestID string) (EventResponse, error) {
	return c.decide(ctx, eventID, requestID, "approve")
}

func (c *Client) DenyRequest(ctx context.Context, eventID, requestID string) (EventResponse, error) {
	return c.decide(ctx, eventID, requestID, "deny")
}

func (c *Client) decide(ctx context.Context, eventID, requestID, verb string) (EventResponse, error) {
	var out EventResponse
	path := "/v1/events/" + url.PathEscape(eventID) + "/access-requests/" + url.PathEscape(requestID) + "/" + verb
	err := c.call(ctx, http.MethodPost, path, nil, http.StatusOK, &out)
	return out, err
}

// ============================================================================
// Admin
// ============================================================================

// Reset wipes every user and event. token must match the server's admin token.
func (c *Client) Reset(ctx context.Context, token string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/admin/reset", nil, map[string]string{AdminTokenHeader: token})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
