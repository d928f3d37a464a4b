// Package mail renders and delivers the account emails: password reset and
// email verification.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Each file defines its own "subject" and "body" blocks, so files are parsed
// into separate sets.
var templates = map[string]*template.Template{
	tmplResetPassword: template.Must(template.ParseFS(templateFS, "templates/"+tmplResetPassword)),
	tmplVerifyEmail:   template.Must(template.ParseFS(templateFS, "templates/"+tmplVerifyEmail)),
}

// Recipient is who an account email is addressed to.
type Recipient struct {
	FirstName string
	LastName  string
	Email     string
}

// Mailer delivers account emails. link is the absolute URL the recipient
// follows to complete the flow.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, to Recipient, link string) error
	SendVerificationEmail(ctx context.Context, to Recipient, link string) error
}

// Message is a rendered plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type templateData struct {
	Recipient
	Link string
}

const (
	tmplResetPassword = "reset_password.tmpl"
	tmplVerifyEmail   = "verify_email.tmpl"
)

// render executes the "subject" and "body" blocks of the named template file.
func render(name string, to Recipient, link string) (Message, error) {
	t, ok := templates[name]
	if !ok {
		return Message{}, fmt.Errorf("mail: unknown template %q", name)
	}

	data := templateData{Recipient: to, Link: link}
	var subject, body bytes.Buffer
	if err := t.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Message{}, fmt.Errorf("mail: render subject: %w", err)
	}
	if err := t.ExecuteTemplate(&body, "body", data); err != nil {
		return Message{}, fmt.Errorf("mail: render body: %w", err)
	}
	return Message{To: to.Email, Subject: subject.String(), Body: body.String()}, nil
}
