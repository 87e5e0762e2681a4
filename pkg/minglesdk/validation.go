package minglesdk

import (
	"regexp"
	"strings"
)

const (
	MaxPartySize = 10

	requiredReason = "required"
)

var (
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// finish turns an empty error map into nil.
func finish(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateEmail(errs map[string]string, field, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		errs[field] = requiredReason
	case !reEmail.MatchString(email):
		errs[field] = "must be a valid email address"
	}
}

func validateAge(errs map[string]string, age *int) {
	if age != nil && (*age < 0 || *age > 130) {
		errs["age"] = "must be between 0 and 130"
	}
}

func (r IssueCodeRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateEmail(errs, "email", r.Email)
	if r.Username != "" && !reUsername.MatchString(r.Username) {
		errs["username"] = "must only contain a-z, A-Z, 0-9, _, . or -"
	}
	return finish(errs)
}

func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = requiredReason
	}

	username := strings.TrimSpace(r.Username)
	switch {
	case username == "":
		errs["username"] = requiredReason
	case len(username) < 3 || len(username) > 32:
		errs["username"] = "must be 3-32 characters"
	case !reUsername.MatchString(username):
		errs["username"] = "must only contain a-z, A-Z, 0-9, _, . or -"
	}

	validateEmail(errs, "email", r.Email)

	switch {
	case r.Password == "":
		errs["password"] = requiredReason
	case len(r.Password) < 8:
		errs["password"] = "must be at least 8 characters"
	}

	validateAge(errs, r.Age)

	if strings.TrimSpace(r.Code) == "" {
		errs["code"] = requiredReason
	}
	return finish(errs)
}

func (r LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Username == "" {
		errs["username"] = requiredReason
	}
	if r.Password == "" {
		errs["password"] = requiredReason
	}
	return finish(errs)
}

func (r LocationRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Latitude < -90 || r.Latitude > 90 {
		errs["latitude"] = "must be between -90 and 90"
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		errs["longitude"] = "must be between -180 and 180"
	}
	return finish(errs)
}

func (r ProfileRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errs["name"] = "must not be blank"
	}
	if r.Email != nil {
		validateEmail(errs, "email", *r.Email)
	}
	validateAge(errs, r.Age)
	return finish(errs)
}

func (r EventRequest) Validate() map[string]string {
	errs := make(map[string]string)

	switch title := strings.TrimSpace(r.Title); {
	case title == "":
		errs["title"] = requiredReason
	case len(title) > 120:
		errs["title"] = "too long (max 120)"
	}
	if strings.TrimSpace(r.City) == "" {
		errs["city"] = requiredReason
	}
	if r.Date.IsZero() {
		errs["date"] = requiredReason
	}
	if r.Location != nil {
		if loc := (LocationRequest{Latitude: r.Location.Latitude, Longitude: r.Location.Longitude}).Validate(); loc != nil {
			errs["location"] = "must be a valid coordinate"
		}
	}
	return finish(errs)
}

func (r RSVPRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.PartySize < 1 || r.PartySize > MaxPartySize {
		errs["party_size"] = "must be between 1 and 10"
	}
	switch r.Status {
	case "going", "maybe", "not_going":
	case "":
		errs["status"] = requiredReason
	default:
		errs["status"] = "must be one of going, maybe, not_going"
	}
	validateAge(errs, r.Age)
	return finish(errs)
}

func (r AccessRequestRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Email != "" && !reEmail.MatchString(r.Email) {
		errs["email"] = "must be a valid email address"
	}
	return finish(errs)
}
