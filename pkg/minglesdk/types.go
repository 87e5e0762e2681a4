package minglesdk

import "time"

const (
	// GuestEmailHeader carries the email of a viewer who is not logged in.
	GuestEmailHeader = "X-Guest-Email"
	AdminTokenHeader = "X-Admin-Token"
)

// ============================================================================
// Errors and health
// ============================================================================

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse lists per-field problems with a request body.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Storage string `json:"storage"`
}

// ============================================================================
// Accounts
// ============================================================================

// IssueCodeRequest asks for a verification code ahead of registration. The
// username is optional and only checked for availability.
type IssueCodeRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

type IssueCodeResponse struct {
	Handle      string    `json:"handle"`
	ExpiresAt   time.Time `json:"expires_at"`
	ResendAfter time.Time `json:"resend_after"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      *int   `json:"age,omitempty"`
	Code     string `json:"code"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	Age          *int        `json:"age,omitempty"`
	LastLocation *Coordinate `json:"last_location,omitempty"`
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ProfileRequest changes only the fields that are present.
type ProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Age   *int    `json:"age,omitempty"`
}

// ============================================================================
// Events
// ============================================================================

type EventRequest struct {
	Title       string      `json:"title"`
	Date        time.Time   `json:"date"`
	City        string      `json:"city"`
	FullAddress *string     `json:"full_address,omitempty"`
	Description *string     `json:"description,omitempty"`
	IsPublic    bool        `json:"is_public"`
	Location    *Coordinate `json:"location,omitempty"`
}

// EventResponse is an event as seen by one viewer. Address is the full
// address only for the host and approved guests, otherwise just the city, and
// Location is withheld on the same terms. RSVPs, AccessRequests and Summary
// are only filled in for the host.
type EventResponse struct {
	ID          string    `json:"id"`
	HostID      string    `json:"host_id"`
	HostName    string    `json:"host_name,omitempty"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	City        string    `json:"city"`
	Address     string    `json:"address"`
	Description *string   `json:"description,omitempty"`
	IsPublic    bool      `json:"is_public"`

	// Only set for approved viewers.
	Location      *Coordinate `json:"location,omitempty"`
	DistanceMiles *float64    `json:"distance_miles,omitempty"`

	IsHost           bool `json:"is_host"`
	IsApproved       bool `json:"is_approved"`
	CanRSVP          bool `json:"can_rsvp"`
	CanRequestAccess bool `json:"can_request_access"`

	Forecast *ForecastResponse `json:"forecast,omitempty"`

	RSVPs          []RSVPResponse          `json:"rsvps,omitempty"`
	AccessRequests []AccessRequestResponse `json:"access_requests,omitempty"`
	Summary        *RSVPSummaryResponse    `json:"summary,omitempty"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
}

// EventQuery filters GET /v1/events. MaxMiles only applies when a location is
// known, either Lat/Lon here or one captured earlier. A nil MaxMiles sets no
// radius.
type EventQuery struct {
	Text     string
	MaxMiles *float64
	Lat      *float64
	Lon      *float64
}

type ForecastResponse struct {
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Summary string  `json:"summary"`
}

type ShareResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Guests
// ============================================================================

// RSVPRequest is always made as the logged-in user, under their email.
type RSVPRequest struct {
	Name      *string `json:"name,omitempty"`
	Age       *int    `json:"age,omitempty"`
	PartySize int     `json:"party_size"`
	Status    string  `json:"status"`
}

type RSVPResponse struct {
	Email     string  `json:"email"`
	Name      *string `json:"name,omitempty"`
	Age       *int    `json:"age,omitempty"`
	PartySize int     `json:"party_size"`
	Status    string  `json:"status"`
}

type RSVPSummaryResponse struct {
	Total    int `json:"total"`
	Going    int `json:"going"`
	Maybe    int `json:"maybe"`
	NotGoing int `json:"not_going"`
}

// AccessRequestRequest defaults Email to the viewer's own when empty.
type AccessRequestRequest struct {
	Email string `json:"email,omitempty"`
}

type AccessRequestResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}
