package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/atinyakov/GophAuth/internal/client/api"
	"github.com/atinyakov/GophAuth/internal/client/prompt"
	"github.com/atinyakov/GophAuth/internal/client/signup"
	"github.com/atinyakov/GophAuth/internal/client/storage"
	"github.com/atinyakov/GophAuth/internal/config"
	"github.com/atinyakov/GophAuth/internal/logger"
	"github.com/atinyakov/GophAuth/internal/models"
)

var (
	version   string
	buildDate string
)

const usage = "usage: client [flags] signup | login | whoami | logout"

var fieldLabels = map[string]string{
	signup.FieldFirstName:            "First name",
	signup.FieldLastName:             "Last name",
	signup.FieldEmail:                "Email",
	signup.FieldPassword:             "Password",
	signup.FieldPasswordConfirmation: "Password confirmation",
}

// consoleNotifier prints notifications to the terminal.
type consoleNotifier struct {
	out io.Writer
}

func (n consoleNotifier) Success(msg string) { fmt.Fprintln(n.out, "✅ "+msg) }
func (n consoleNotifier) Error(msg string)   { fmt.Fprintln(n.out, "❌ "+msg) }

// doneNavigator ends the command once the redirect fires.
type doneNavigator struct {
	done chan string
}

func (n doneNavigator) Navigate(path string) { n.done <- path }

// main parses flags and dispatches to a command.
func main() {
	options, err := config.ParseClient(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if options.Version {
		fmt.Printf("GophAuth Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, options)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeStore()

	sessions := storage.NewSessionStorage(store, log.Log)
	client := api.New(options.URL, nil)
	p := prompt.NewTerminal()

	switch options.Command {
	case "signup":
		err = runSignUp(ctx, client, p, log.Log)
	case "login":
		err = runLogin(ctx, client, sessions, p)
	case "whoami":
		err = runWhoAmI(ctx, client, sessions)
	case "logout":
		err = sessions.Clear(ctx)
		if err == nil {
			fmt.Println("Signed out")
		}
	default:
		err = errors.New(usage)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		closeStore()
		os.Exit(1)
	}
}

func openStore(ctx context.Context, options *config.ClientOptions) (storage.KeyValueStore, func(), error) {
	if options.StoreDriver == config.StoreDriverSQLite {
		s, err := storage.OpenSQLite(ctx, options.Store)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return storage.NewFileStore(options.Store), func() {}, nil
}

// runSignUp fills the sign-up form, asking again for fields that fail
// validation, and waits for the post-signup redirect.
func runSignUp(ctx context.Context, client *api.Client, p *prompt.Prompter, log *zap.Logger) error {
	nav := doneNavigator{done: make(chan string, 1)}
	wf := signup.New(client, consoleNotifier{out: os.Stdout}, nav, signup.WithLogger(log))

	pending := signup.Fields
	for {
		for _, field := range pending {
			if err := askField(wf, p, field); err != nil {
				return err
			}
		}

		err := wf.Submit(ctx)
		var ve *signup.ValidationError
		if errors.As(err, &ve) {
			var invalid []string
			for _, field := range signup.Fields {
				if msg, ok := ve.Fields[field]; ok {
					fmt.Printf("%s: %s\n", fieldLabels[field], msg)
					invalid = append(invalid, field)
				}
			}
			pending = invalid
			continue
		}
		if err != nil {
			return errors.New(api.ErrorMessage(err))
		}
		break
	}

	fmt.Println("Redirecting to", <-nav.done)
	return nil
}

func askField(wf *signup.Workflow, p *prompt.Prompter, field string) error {
	var (
		value string
		err   error
	)
	if field == signup.FieldPassword || field == signup.FieldPasswordConfirmation {
		value, err = p.Password(fieldLabels[field])
	} else {
		value, err = p.Line(fieldLabels[field])
	}
	if err != nil {
		return err
	}
	return wf.Set(field, value)
}

func runLogin(ctx context.Context, client *api.Client, sessions *storage.SessionStorage, p *prompt.Prompter) error {
	email, err := p.Line("Email")
	if err != nil {
		return err
	}
	password, err := p.Password("Password")
	if err != nil {
		return err
	}

	session, err := client.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return errors.New(api.ErrorMessage(err))
	}
	if err := sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	fmt.Println("Signed in as", session.Email)
	return nil
}

func runWhoAmI(ctx context.Context, client *api.Client, sessions *storage.SessionStorage) error {
	session, ok := sessions.Session(ctx)
	if !ok {
		return errors.New("not signed in")
	}
	view, err := client.Me(ctx, session)
	if err != nil {
		return errors.New(api.ErrorMessage(err))
	}

	fmt.Printf("id:    %s\nemail: %s\nname:  %s %s\n", view.ID, view.Email, view.FirstName, view.LastName)
	return nil
}
