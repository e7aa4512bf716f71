// Package signup drives the account sign-up form: field edits, validation,
// a single submission to the account API and the outcome notifications.
package signup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/GophAuth/internal/client/api"
	"github.com/atinyakov/GophAuth/internal/models"
	"github.com/atinyakov/GophAuth/internal/validator"
)

// Form field names, matching the JSON names sent to the server.
const (
	FieldFirstName            = "first_name"
	FieldLastName             = "last_name"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
)

// Fields lists the form fields in display order.
var Fields = []string{
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldPassword,
	FieldPasswordConfirmation,
}

const (
	// SuccessMessage is shown once the account has been created.
	SuccessMessage = "Signed up successfully! Redirecting..."
	// RedirectPath is where the user is sent after signing up.
	RedirectPath = "/"
	// RedirectDelay leaves the success message on screen before navigating.
	RedirectDelay = 2 * time.Second
)

var (
	// ErrSubmitInProgress is returned by Submit and Set while a submission
	// is outstanding.
	ErrSubmitInProgress = errors.New("sign-up already in progress")
	// ErrValidation is matched by the *ValidationError Submit returns.
	ErrValidation = errors.New("sign-up form is invalid")
	// ErrCompleted is returned once the account has been created.
	ErrCompleted = errors.New("sign-up already completed")
	// ErrUnknownField is returned by Set and Touch for a name not in Fields.
	ErrUnknownField = errors.New("unknown field")
)

// State is a stage of the sign-up flow.
type State int

const (
	Editing State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ValidationError holds the per-field messages that blocked a submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UsersAPI creates accounts.
type UsersAPI interface {
	CreateUser(ctx context.Context, form models.SignUpForm) (models.UserView, error)
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Navigator moves the user to another location.
type Navigator interface {
	Navigate(path string)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the logger that receives raw submission errors.
func WithLogger(log *zap.Logger) Option {
	return func(w *Workflow) {
		if log != nil {
			w.log = log
		}
	}
}

// WithAfterFunc replaces time.AfterFunc for scheduling the redirect.
func WithAfterFunc(f func(d time.Duration, fn func())) Option {
	return func(w *Workflow) {
		w.afterFunc = f
	}
}

// Workflow is the state of one sign-up form. It is safe for concurrent use.
type Workflow struct {
	users     UsersAPI
	notifier  Notifier
	navigator Navigator
	log       *zap.Logger
	afterFunc func(d time.Duration, fn func())

	mu      sync.Mutex
	state   State
	form    models.SignUpForm
	touched map[string]bool
}

// New returns a Workflow in the Editing state with empty fields.
func New(users UsersAPI, notifier Notifier, navigator Navigator, opts ...Option) *Workflow {
	w := &Workflow{
		users:     users,
		notifier:  notifier,
		navigator: navigator,
		log:       zap.NewNop(),
		afterFunc: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		touched:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current stage.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Form returns a copy of the current field values.
func (w *Workflow) Form() models.SignUpForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Set updates a field and marks it touched. Editing a failed form returns
// it to Editing.
func (w *Workflow) Set(field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.editableLocked(); err != nil {
		return err
	}
	ptr := w.fieldLocked(field)
	if ptr == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	*ptr = value
	w.touched[field] = true
	w.state = Editing
	return nil
}

// Touch marks a field as visited so its errors are reported.
func (w *Workflow) Touch(field string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fieldLocked(field) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	w.touched[field] = true
	return nil
}

// Errors returns the validation messages of touched fields.
func (w *Workflow) Errors() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	all := validateForm(w.form)
	out := make(map[string]string)
	for field, msg := range all {
		if w.touched[field] {
			out[field] = msg
		}
	}
	return out
}

// Submit validates every field and, when the form is valid, creates the
// account with a single API call.
//
// An invalid form returns a *ValidationError and sends nothing. A rejected
// or failed call moves the flow to Failed, logs the raw error, shows the
// server's message and returns the error. On success the success message is
// shown and navigation to RedirectPath is scheduled after RedirectDelay.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if err := w.editableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	for _, f := range Fields {
		w.touched[f] = true
	}
	if fields := validateForm(w.form); len(fields) > 0 {
		w.mu.Unlock()
		return &ValidationError{Fields: fields}
	}
	w.state = Submitting
	form := w.form
	w.mu.Unlock()

	_, err := w.users.CreateUser(ctx, form)

	w.mu.Lock()
	if err != nil {
		w.state = Failed
	} else {
		w.state = Succeeded
	}
	w.mu.Unlock()

	if err != nil {
		w.log.Error("sign up failed", zap.String("email", form.Email), zap.Error(err))
		w.notifier.Error(api.ErrorMessage(err))
		return err
	}

	w.notifier.Success(SuccessMessage)
	w.afterFunc(RedirectDelay, func() {
		w.navigator.Navigate(RedirectPath)
	})
	return nil
}

func (w *Workflow) editableLocked() error {
	switch w.state {
	case Submitting:
		return ErrSubmitInProgress
	case Succeeded:
		return ErrCompleted
	}
	return nil
}

func (w *Workflow) fieldLocked(field string) *string {
	switch field {
	case FieldFirstName:
		return &w.form.FirstName
	case FieldLastName:
		return &w.form.LastName
	case FieldEmail:
		return &w.form.Email
	case FieldPassword:
		return &w.form.Password
	case FieldPasswordConfirmation:
		return &w.form.PasswordConfirmation
	}
	return nil
}

func validateForm(form models.SignUpForm) map[string]string {
	fields, _ := validator.ValidateStruct(form)
	return fields
}
