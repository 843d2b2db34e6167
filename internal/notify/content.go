package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

type variantCopy struct {
	Subject     string
	Headline    string
	Description string
}

var copyByVariant = map[string]variantCopy{
	"timezone-freedom": {
		Subject:     "Verify your email - Join the LocalSphere Timezone Freedom Beta",
		Headline:    "Ready to work your own hours?",
		Description: "You're one step away from joining teams who've reclaimed their schedules with LocalSphere.",
	},
	"information-findability": {
		Subject:     "Verify your email - Get instant access to any information",
		Headline:    "Never search through Slack again",
		Description: "You're about to join teams who find any decision, update, or file in seconds with LocalSphere.",
	},
	"unified-productivity": {
		Subject:     "Verify your email - Unify your team's workflow",
		Headline:    "One inbox for everything",
		Description: "You're joining teams who've eliminated app chaos and streamlined their workflow with LocalSphere.",
	},
}

var fallbackCopy = variantCopy{
	Subject:     "Verify your email - LocalSphere",
	Headline:    "Confirm your email address",
	Description: "You're one step away from joining the LocalSphere beta.",
}

// Message is a rendered verification email.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

type messageData struct {
	variantCopy
	VerificationURL string
	ValidFor        string
}

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Verify Your Email - LocalSphere</title></head>
<body>
  <h1>LocalSphere</h1>
  <h2>{{.Headline}}</h2>
  <p>{{.Description}}</p>
  <p>Please click the link below to verify your email address and complete your registration:</p>
  <p><a href="{{.VerificationURL}}">Verify My Email Address</a></p>
  <p>If the link doesn't work, copy and paste this address into your browser:<br>{{.VerificationURL}}</p>
  <p>This verification link will expire in {{.ValidFor}}. If you didn't request this email, you can safely ignore it.</p>
</body>
</html>
`))

var textTmpl = texttemplate.Must(texttemplate.New("text").Parse(`{{.Headline}}

{{.Description}}

Please verify your email address by visiting this link:
{{.VerificationURL}}

This link will expire in {{.ValidFor}}. If you didn't request this email, you can safely ignore it.
`))

// Render builds the variant-specific verification email. validFor is the
// human readable token lifetime, e.g. "24 hours".
func Render(variant, verificationURL, validFor string) (Message, error) {
	c, ok := copyByVariant[variant]
	if !ok {
		c = fallbackCopy
	}
	data := messageData{variantCopy: c, VerificationURL: verificationURL, ValidFor: validFor}

	var html, text bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	return Message{Subject: c.Subject, HTML: html.String(), Text: text.String()}, nil
}
