// Package models defines the core data structures for users, sessions and forms.
package models

import "time"

// User represents an application account. Invited users exist before they
// have a password; they become regular users once the invitation is accepted.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// FirstName is the user's given name.
	FirstName string
	// LastName is the user's family name.
	LastName string
	// Email is the login identifier of the user.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
	// InvitationDigest is the SHA-256 digest of a pending invitation token.
	// Empty when the user was not invited or already accepted.
	InvitationDigest string
	// InvitationCreatedAt is when the pending invitation was issued.
	InvitationCreatedAt *time.Time
	// InvitationAcceptedAt is when the invitation was accepted.
	InvitationAcceptedAt *time.Time
	// InvitedBy is the ID of the inviting user.
	InvitedBy string
}

// InvitationPending reports whether the user still has an open invitation.
func (u *User) InvitationPending() bool {
	return u.InvitationDigest != "" && u.InvitationAcceptedAt == nil
}

// UserView is the public representation of a user returned by the API.
type UserView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// View converts u into its public representation.
func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
