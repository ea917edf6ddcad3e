package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

const appName = "Money Management App"

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #4f46e5; color: #fff; padding: 20px; border-radius: 8px 8px 0 0; text-align: center;">
    <h1 style="margin: 0;">{{.Title}}</h1>
  </div>
  <div style="background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px;">
    <p>Hello {{.Username}},</p>
    {{range .Paragraphs}}<p>{{.}}</p>
    {{end}}
    {{- if .ActionURL}}
    <p style="text-align: center; margin: 28px 0;">
      <a href="{{.ActionURL}}" style="background: #4f46e5; color: #fff; padding: 12px 28px; text-decoration: none; border-radius: 6px; display: inline-block;">{{.ActionLabel}}</a>
    </p>
    <p>If the button does not work, copy and paste this link into your browser:</p>
    <p style="word-break: break-all; color: #4f46e5;">{{.ActionURL}}</p>
    {{- end}}
    {{- if .Tips}}
    <ul>
    {{range .Tips}}<li>{{.}}</li>
    {{end}}</ul>
    {{- end}}
    {{- if .Note}}
    <p style="color: #6b7280; font-size: 14px;"><strong>Note:</strong> {{.Note}}</p>
    {{- end}}
  </div>
  <p style="text-align: center; color: #9ca3af; font-size: 12px;">This is an automated message from {{.App}}. Please do not reply.</p>
</body>
</html>`))

type page struct {
	App         string
	Title       string
	Username    string
	Paragraphs  []string
	ActionURL   string
	ActionLabel string
	Tips        []string
	Note        string
}

func render(p page) (string, error) {
	p.App = appName
	var buf bytes.Buffer
	if err := layout.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render mail template: %w", err)
	}
	return buf.String(), nil
}

func actionLink(frontendURL, path, token string) string {
	return strings.TrimRight(frontendURL, "/") + path + "?token=" + url.QueryEscape(token)
}

// VerificationMessage builds the mail that carries the email verification link.
func VerificationMessage(frontendURL, to, username, token string, ttl time.Duration) (Message, error) {
	body, err := render(page{
		Title:    "Verify your email",
		Username: username,
		Paragraphs: []string{
			"Thank you for signing up for " + appName + ".",
			"Please confirm your email address by clicking the button below.",
		},
		ActionURL:   actionLink(frontendURL, "/verify-email", token),
		ActionLabel: "Verify email",
		Note:        "This link expires in " + humanize(ttl) + ". If you did not create an account, you can ignore this email.",
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Verify your email - " + appName, HTMLBody: body}, nil
}

// PasswordResetMessage builds the single-use reset link mail.
func PasswordResetMessage(frontendURL, to, username, token string, ttl time.Duration) (Message, error) {
	body, err := render(page{
		Title:    "Reset your password",
		Username: username,
		Paragraphs: []string{
			"We received a request to reset the password for your account.",
			"Click the button below to choose a new password.",
		},
		ActionURL:   actionLink(frontendURL, "/reset-password", token),
		ActionLabel: "Reset password",
		Note:        "This link expires in " + humanize(ttl) + " and can only be used once. If you did not request a reset, you can ignore this email.",
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Reset your password - " + appName, HTMLBody: body}, nil
}

// PasswordChangedMessage notifies the owner after a successful change or reset.
func PasswordChangedMessage(to, username string, at time.Time) (Message, error) {
	body, err := render(page{
		Title:    "Password changed",
		Username: username,
		Paragraphs: []string{
			"The password for your account was changed on " + at.UTC().Format("2006-01-02 15:04:05 UTC") + ".",
			"If you made this change, no further action is needed.",
			"If you did not change your password, reset it immediately and contact support.",
		},
		Tips: []string{
			"Use a unique password you do not use on other sites.",
			"Never share your password with anyone.",
			"Consider using a password manager.",
		},
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Your password was changed - " + appName, HTMLBody: body}, nil
}

func humanize(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
