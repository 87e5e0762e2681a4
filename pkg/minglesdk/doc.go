// Package minglesdk holds the wire types of the Mingle HTTP API and a small
// typed client for it. The server renders these same types, so a change here
// is a change to the API.
//
// Basic usage:
//
//	c := minglesdk.NewClient("http://localhost:8080")
//	user, err := c.Login(ctx, minglesdk.LoginRequest{Username: "alice", Password: "..."})
//	events, err := c.ListEvents(ctx, minglesdk.EventQuery{Text: "irvine"})
//
// Guests without an account identify themselves by email:
//
//	c.GuestEmail = "guest@example.com"
//	event, err := c.GetEvent(ctx, id)
package minglesdk
