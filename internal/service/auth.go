// Package service provides account business logic: sign-up, login and the
// invitation flow, delegating persistence to a UserRepository.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/GophAuth/internal/models"
	"github.com/atinyakov/GophAuth/internal/repository"
	"github.com/atinyakov/GophAuth/internal/validator"
)

var (
	// ErrEmailTaken is returned when an account with the email already exists.
	ErrEmailTaken = errors.New("email has already been taken")
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidInvitationToken is returned when a token is missing, unknown,
	// expired or already used.
	ErrInvalidInvitationToken = errors.New("invalid invitation token")
	// ErrUserNotFound is returned when the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError carries per-field validation messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the field messages ordered by field name.
func (e *ValidationError) Messages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return msgs
}

// UserRepository defines the persistence operations required by the service.
type UserRepository interface {
	// UserExists returns true if a user with the given email exists.
	UserExists(ctx context.Context, email string) (bool, error)
	// CreateUser inserts a new user; repository.ErrDuplicate on a taken email.
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByInvitationDigest(ctx context.Context, digest string) (*models.User, error)
	// AcceptInvitation closes an open invitation; repository.ErrNotFound if
	// it is no longer open.
	AcceptInvitation(ctx context.Context, u *models.User) error
}

// TokenIssuer signs access tokens for logged-in clients.
type TokenIssuer interface {
	Issue(userID, email, client string) (string, error)
}

// Service implements account operations.
type Service struct {
	repo          UserRepository
	tokens        TokenIssuer
	invitationTTL time.Duration
	bcryptCost    int
	now           func() time.Time
	newID         func() string
}

// Option configures a Service.
type Option func(*Service)

// WithInvitationTTL limits how long an invitation stays valid. Zero means
// invitations never expire.
func WithInvitationTTL(ttl time.Duration) Option {
	return func(s *Service) { s.invitationTTL = ttl }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewAuthService constructs a Service using the provided repository and token issuer.
func NewAuthService(repo UserRepository, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DigestToken returns the value stored in place of a raw invitation token.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validate(form any) error {
	if fields, err := validator.ValidateStruct(form); err != nil {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// SignUp validates form and creates a new account.
func (s *Service) SignUp(ctx context.Context, form models.SignUpForm) (*models.User, error) {
	if err := validate(form); err != nil {
		return nil, err
	}
	email := normalizeEmail(form.Email)

	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           s.newID(),
		FirstName:    strings.TrimSpace(form.FirstName),
		LastName:     strings.TrimSpace(form.LastName),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login checks credentials and returns a fresh session bound to a new client key.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.AuthSession, error) {
	if err := validate(req); err != nil {
		return models.AuthSession{}, ErrInvalidCredentials
	}
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.AuthSession{}, ErrInvalidCredentials
		}
		return models.AuthSession{}, err
	}
	if len(u.PasswordHash) == 0 {
		return models.AuthSession{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)); err != nil {
		return models.AuthSession{}, ErrInvalidCredentials
	}

	client := s.newID()
	token, err := s.tokens.Issue(u.ID, u.Email, client)
	if err != nil {
		return models.AuthSession{}, err
	}
	return models.AuthSession{
		AuthToken: token,
		Email:     u.Email,
		UserID:    u.ID,
		Client:    client,
	}, nil
}

// CurrentUser returns the user with the given ID.
func (s *Service) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Invite creates a pending account for email and returns the raw invitation
// token. Only its digest is stored.
func (s *Service) Invite(ctx context.Context, inviterID string, req models.InviteRequest) (string, *models.User, error) {
	if err := validate(req); err != nil {
		return "", nil, err
	}
	email := normalizeEmail(req.Email)

	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return "", nil, ErrEmailTaken
	}

	token := s.newID()
	created := s.now().UTC()
	u := &models.User{
		ID:                  s.newID(),
		Email:               email,
		InvitationDigest:    DigestToken(token),
		InvitationCreatedAt: &created,
		InvitedBy:           inviterID,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", nil, ErrEmailTaken
		}
		return "", nil, err
	}
	return token, u, nil
}

// ResolveInvitation returns the invited user holding token while the
// invitation is still open and unexpired.
func (s *Service) ResolveInvitation(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidInvitationToken
	}
	u, err := s.repo.GetUserByInvitationDigest(ctx, DigestToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInvitationToken
		}
		return nil, err
	}
	if !u.InvitationPending() {
		return nil, ErrInvalidInvitationToken
	}
	if s.invitationTTL > 0 && u.InvitationCreatedAt != nil &&
		!s.now().Before(u.InvitationCreatedAt.Add(s.invitationTTL)) {
		return nil, ErrInvalidInvitationToken
	}
	return u, nil
}

// AcceptInvitation completes the registration of invited user u.
func (s *Service) AcceptInvitation(ctx context.Context, u *models.User, form models.AcceptInvitationForm) (*models.User, error) {
	if err := validate(form); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	accepted := s.now().UTC()
	updated := *u
	updated.FirstName = strings.TrimSpace(form.FirstName)
	updated.LastName = strings.TrimSpace(form.LastName)
	updated.PasswordHash = hash
	updated.InvitationDigest = ""
	updated.InvitationAcceptedAt = &accepted

	if err := s.repo.AcceptInvitation(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInvitationToken
		}
		return nil, err
	}
	return &updated, nil
}
