// Package mailer sends the transactional emails of the auth flows.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	"techsparks/internal/observability"
)

// ErrNotConfigured is returned when SMTP credentials are missing.
var ErrNotConfigured = errors.New("mailer: smtp is not configured")

// Template names, also used as metric labels.
const (
	TemplateWelcome = "welcome"
	TemplateVerify  = "verify_otp"
	TemplateReset   = "reset_otp"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type disabledSender struct{}

func (disabledSender) Send(context.Context, Message) error { return ErrNotConfigured }

// Disabled returns a Sender that always fails with ErrNotConfigured.
func Disabled() Sender { return disabledSender{} }

type email struct {
	subject string
	html    *template.Template
	text    *template.Template
}

var templates = map[string]email{
	TemplateWelcome: {
		subject: "Welcome to techSparks",
		html: template.Must(template.New("welcome").Parse(
			`<p>Welcome to techSparks website. Your account has been created with email id: <b>{{.Email}}</b></p>`)),
		text: template.Must(template.New("welcome_text").Parse(
			`Welcome to techSparks website. Your account has been created with email id: {{.Email}}`)),
	},
	TemplateVerify: {
		subject: "Account verification OTP!",
		html: template.Must(template.New("verify").Parse(
			`<p>You are just one step away from verifying your account for <b>{{.Email}}</b>.</p>` +
				`<p>Use the OTP below to verify your account:</p><h2>{{.OTP}}</h2>` +
				`<p>This OTP is valid for 24 hours.</p>`)),
		text: template.Must(template.New("verify_text").Parse(
			`Your account verification OTP for {{.Email}} is {{.OTP}}. It is valid for 24 hours.`)),
	},
	TemplateReset: {
		subject: "Password Reset OTP!",
		html: template.Must(template.New("reset").Parse(
			`<p>We received a password reset request for your account <b>{{.Email}}</b>.</p>` +
				`<p>Use the OTP below to reset the password:</p><h2>{{.OTP}}</h2>` +
				`<p>The password reset OTP is only valid for the next 15 minutes.</p>`)),
		text: template.Must(template.New("reset_text").Parse(
			`Your password reset OTP for {{.Email}} is {{.OTP}}. It is valid for 15 minutes.`)),
	},
}

type templateData struct {
	Email string
	OTP   string
}

// Mailer renders the named templates and hands them to a Sender.
type Mailer struct {
	sender Sender
}

// New creates a Mailer over sender.
func New(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

// SendWelcome sends the post-registration greeting.
func (m *Mailer) SendWelcome(ctx context.Context, to string) error {
	return m.send(ctx, TemplateWelcome, to, templateData{Email: to})
}

// SendVerifyOTP sends the account verification code.
func (m *Mailer) SendVerifyOTP(ctx context.Context, to, code string) error {
	return m.send(ctx, TemplateVerify, to, templateData{Email: to, OTP: code})
}

// SendResetOTP sends the password reset code.
func (m *Mailer) SendResetOTP(ctx context.Context, to, code string) error {
	return m.send(ctx, TemplateReset, to, templateData{Email: to, OTP: code})
}

func (m *Mailer) send(ctx context.Context, name, to string, data templateData) error {
	tpl := templates[name]

	var html, text bytes.Buffer
	if err := tpl.html.Execute(&html, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	if err := tpl.text.Execute(&text, data); err != nil {
		return fmt.Errorf("render %s text: %w", name, err)
	}

	err := m.sender.Send(ctx, Message{To: to, Subject: tpl.subject, HTML: html.String(), Text: text.String()})
	if err != nil {
		observability.MailSent.WithLabelValues(name, "failure").Inc()
		observability.Logger.WarnContext(ctx, "email delivery failed",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("send %s email: %w", name, err)
	}
	observability.MailSent.WithLabelValues(name, "success").Inc()
	return nil
}
