package models

// UserInfo holds the account details returned by the user endpoint.
// All fields are optional; an empty string means the API did not report it.
type UserInfo struct {
	Email string
	Name  string
	Plan  string
}
