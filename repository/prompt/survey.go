package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"

	"github.com/kbukum/repoauth/logger"
	"github.com/kbukum/repoauth/repository"
	"github.com/kbukum/repoauth/security"
)

type askFunc func(qs []*survey.Question, response any) error

// SurveyRequester collects credentials with interactive terminal prompts.
type SurveyRequester struct {
	interactive bool
	ask         askFunc
	log         *logger.Logger
}

var _ repository.CredentialsRequester = (*SurveyRequester)(nil)

// Option configures a SurveyRequester.
type Option func(*SurveyRequester)

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) Option {
	return func(r *SurveyRequester) { r.interactive = interactive }
}

// WithStdio prompts on the given streams instead of the process stdio.
func WithStdio(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) Option {
	return func(r *SurveyRequester) {
		r.ask = func(qs []*survey.Question, response any) error {
			return survey.Ask(qs, response, survey.WithStdio(in, out, errOut))
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *SurveyRequester) { r.log = log }
}

// NewSurveyRequester creates a requester that is interactive when stdin is a terminal.
func NewSurveyRequester(opts ...Option) *SurveyRequester {
	r := &SurveyRequester{
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
		ask: func(qs []*survey.Question, response any) error {
			return survey.Ask(qs, response)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.WithComponent("prompt")
	}
	return r
}

// IsInteractive reports whether the requester can prompt.
func (r *SurveyRequester) IsInteractive() bool {
	return r.interactive
}

type userAnswers struct {
	Username string `survey:"username"`
	Password string `survey:"password"`
	Domain   string `survey:"domain"`
	Save     bool   `survey:"save"`
}

type certificateAnswers struct {
	Path     string `survey:"path"`
	Password string `survey:"password"`
	Format   string `survey:"format"`
}

type openIDAnswers struct {
	Token       string `survey:"token"`
	ResponseURL string `survey:"response_url"`
}

// RequestCredentials prompts for the credential shape of req.Type. An empty
// answer or Ctrl-C declines. Cancelling ctx returns at once; the prompt
// itself cannot be interrupted and its answer is dropped.
func (r *SurveyRequester) RequestCredentials(ctx context.Context, req repository.AuthenticationRequest) (repository.Credentials, error) {
	if !r.interactive {
		r.log.Debug("not a terminal, declining credentials request",
			logger.Fields(logger.FieldAuthType, req.Type.Key()))
		return nil, repository.ErrCredentialsDeclined
	}

	header := title(req)
	var (
		qs      []*survey.Question
		answers any
		build   func() repository.Credentials
	)
	switch req.Type.Kind() {
	case repository.KindUser:
		a := &userAnswers{}
		qs, answers = userQuestions(header, req.Type.Key() == repository.Proxy.Key()), a
		build = func() repository.Credentials {
			if strings.TrimSpace(a.Username) == "" {
				return nil
			}
			return repository.UserCredentials{
				Username:     strings.TrimSpace(a.Username),
				Password:     a.Password,
				Domain:       strings.TrimSpace(a.Domain),
				SavePassword: a.Save,
			}
		}
	case repository.KindCertificate:
		a := &certificateAnswers{}
		qs, answers = certificateQuestions(header), a
		build = func() repository.Credentials {
			if strings.TrimSpace(a.Path) == "" {
				return nil
			}
			return repository.CertificateCredentials{
				KeyStorePath:   strings.TrimSpace(a.Path),
				Password:       a.Password,
				KeyStoreFormat: a.Format,
			}
		}
	case repository.KindOpenID:
		a := &openIDAnswers{}
		qs, answers = openIDQuestions(header), a
		build = func() repository.Credentials {
			if strings.TrimSpace(a.Token) == "" {
				return nil
			}
			return repository.OpenIDCredentials{
				Token:       strings.TrimSpace(a.Token),
				ResponseURL: strings.TrimSpace(a.ResponseURL),
			}
		}
	default:
		return nil, fmt.Errorf("prompt: unsupported credentials kind %q", req.Type.Kind())
	}

	done := make(chan error, 1)
	go func() { done <- r.ask(qs, answers) }()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if errors.Is(err, terminal.InterruptErr) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("prompt: %w", err)
		}
	}
	return build(), nil
}

func title(req repository.AuthenticationRequest) string {
	where := ""
	if req.Location != nil {
		where = " for " + req.Location.URL()
	}
	msg := fmt.Sprintf("%s credentials%s", label(req.Type), where)
	if req.Reason != "" {
		msg += " (" + req.Reason + ")"
	}
	return msg
}

func label(typ repository.Type) string {
	switch typ.Key() {
	case repository.HTTP.Key():
		return "HTTP"
	case repository.Proxy.Key():
		return "Proxy"
	case repository.Repository.Key():
		return "Repository"
	case repository.Certificate.Key():
		return "Client certificate"
	case repository.OpenID.Key():
		return "OpenID"
	default:
		return typ.Key()
	}
}

func userQuestions(header string, withDomain bool) []*survey.Question {
	qs := []*survey.Question{
		{Name: "username", Prompt: &survey.Input{Message: header + "\n  Username:"}},
		{Name: "password", Prompt: &survey.Password{Message: "Password:"}},
	}
	if withDomain {
		qs = append(qs, &survey.Question{
			Name:   "domain",
			Prompt: &survey.Input{Message: "Domain:", Help: "NTLM domain, leave empty for none"},
		})
	}
	return append(qs, &survey.Question{
		Name:   "save",
		Prompt: &survey.Confirm{Message: "Save password?", Default: false},
	})
}

func certificateQuestions(header string) []*survey.Question {
	return []*survey.Question{
		{Name: "path", Prompt: &survey.Input{Message: header + "\n  Keystore file:"}},
		{Name: "password", Prompt: &survey.Password{Message: "Keystore password:"}},
		{Name: "format", Prompt: &survey.Select{
			Message: "Keystore format:",
			Options: []string{security.FormatPKCS12, security.FormatPEM},
			Default: security.FormatPKCS12,
		}},
	}
}

func openIDQuestions(header string) []*survey.Question {
	return []*survey.Question{
		{Name: "token", Prompt: &survey.Password{Message: header + "\n  Token:"}},
		{Name: "response_url", Prompt: &survey.Input{Message: "Response URL:"}},
	}
}
