package models

// AuthSession is the set of credentials a client keeps after login.
type AuthSession struct {
	// AuthToken is the opaque access token.
	AuthToken string `json:"auth_token"`
	// Email identifies the logged-in user.
	Email string `json:"email"`
	// UserID is the server-side identifier of the user.
	UserID string `json:"user_id"`
	// Client is the per-device session key the token is bound to.
	Client string `json:"client"`
}

// SignUpForm holds the fields a user enters to create an account.
type SignUpForm struct {
	FirstName            string `json:"first_name" validate:"required"`
	LastName             string `json:"last_name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
}

// AcceptInvitationForm completes the registration of an invited user.
// The email is already known from the invitation.
type AcceptInvitationForm struct {
	InvitationToken      string `json:"invitation_token"`
	FirstName            string `json:"first_name" validate:"required"`
	LastName             string `json:"last_name" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
}

// LoginRequest carries email/password credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// InviteRequest asks the server to invite a new user by email.
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}
