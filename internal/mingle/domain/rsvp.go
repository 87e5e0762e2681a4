package domain

type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "going"
	RSVPMaybe    RSVPStatus = "maybe"
	RSVPNotGoing RSVPStatus = "not_going"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPGoing, RSVPMaybe, RSVPNotGoing:
		return true
	}
	return false
}

// GuestRSVP is keyed by Email within its event.
type GuestRSVP struct {
	Email     string     `json:"email"`
	Name      *string    `json:"name,omitempty"`
	Age       *int       `json:"age,omitempty"`
	PartySize int        `json:"partySize"`
	Status    RSVPStatus `json:"status"`
}

func (r GuestRSVP) Clone() GuestRSVP {
	out := r
	out.Name = clonePtr(r.Name)
	out.Age = clonePtr(r.Age)
	return out
}

// RSVPSummary totals party sizes, overall and per status.
type RSVPSummary struct {
	Total    int `json:"total"`
	Going    int `json:"going"`
	Maybe    int `json:"maybe"`
	NotGoing int `json:"notGoing"`
}
