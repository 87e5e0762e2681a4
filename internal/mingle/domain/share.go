package domain

import (
	"strings"
)

const shareDateLayout = "Jan 2, 2006 at 3:04 PM"

// ShareMessage is the plain-text invitation a host sends around. It always
// carries the full address when one is set, since only hosts share.
func (e Event) ShareMessage() string {
	var b strings.Builder
	b.WriteString("Event: " + e.Title + "\n")
	b.WriteString("Date: " + e.Date.Format(shareDateLayout) + "\n")

	if addr := e.Address(); addr != "" {
		b.WriteString("Where: " + addr + ", " + e.City + "\n")
	} else {
		b.WriteString("Where: " + e.City + "\n")
	}

	if e.Description != nil && *e.Description != "" {
		b.WriteString("About: " + *e.Description)
	}
	return b.String()
}
