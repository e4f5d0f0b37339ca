package models

// Identity is the caller proven by a bearer token. Every collection is keyed
// by Email.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
