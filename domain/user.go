package domain

import "time"

// User represents an account able to own tasks. PasswordHash is empty for
// accounts created through federated sign-in only.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// HasCredential reports whether at least one way to authenticate is attached.
func (u *User) HasCredential() bool {
	return u != nil && (u.PasswordHash != "" || u.GoogleID != "")
}

// Summary returns the minimal public view returned after registration.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email}
}

// UserSummary is what registration hands back to the client.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// FederatedProfile is the identity reported by an external sign-in provider.
type FederatedProfile struct {
	ProviderID    string
	Username      string
	Email         string
	EmailVerified bool
}
