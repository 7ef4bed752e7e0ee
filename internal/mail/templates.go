package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
	"time"
)

var resetLinkText = template.Must(template.New("reset_link").Parse(`Hello {{.Name}},

To reset your password, visit the following link:
{{.Link}}

This link is valid for {{.Minutes}} minutes.

If you did not make this request then simply ignore this email and no changes will be made.
`))

var resetLinkHTML = htmltemplate.Must(htmltemplate.New("reset_link").Parse(`<p>Hello {{.Name}},</p>
<p>To reset your password, <a href="{{.Link}}">click here</a>.</p>
<p>This link is valid for {{.Minutes}} minutes.</p>
<p>If you did not make this request then simply ignore this email and no changes will be made.</p>
`))

var otpText = template.Must(template.New("otp").Parse(`Hello {{.Name}},

Your password reset code is: {{.Code}}

The code expires in {{.Minutes}} minutes and can be used once.

If you did not make this request then simply ignore this email.
`))

type templateData struct {
	Name    string
	Link    string
	Code    string
	Minutes int
}

func minutes(ttl time.Duration) int {
	m := int(ttl / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

// PasswordResetMessage builds the reset-link mail.
func PasswordResetMessage(to, name, link string, ttl time.Duration) (Message, error) {
	data := templateData{Name: name, Link: link, Minutes: minutes(ttl)}

	var text, html bytes.Buffer
	if err := resetLinkText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reset mail: %w", err)
	}
	if err := resetLinkHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reset mail: %w", err)
	}

	return Message{
		To:      to,
		Subject: "Password Reset Request",
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// ResetOTPMessage builds the one-time code mail.
func ResetOTPMessage(to, name, code string, ttl time.Duration) (Message, error) {
	var text bytes.Buffer
	if err := otpText.Execute(&text, templateData{Name: name, Code: code, Minutes: minutes(ttl)}); err != nil {
		return Message{}, fmt.Errorf("failed to render otp mail: %w", err)
	}

	return Message{
		To:      to,
		Subject: "Your password reset code",
		Text:    text.String(),
	}, nil
}
