package mail

import (
	"bytes"
	"html/template"
)

const verificationSubject = "Verify your email"

var verificationTmpl = template.Must(template.New("verify").Parse(`
<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
	<h2 style="color: #333;">Hi {{.FullName}},</h2>
	<p>Thanks for signing up. Confirm your email address to finish setting up your account:</p>
	<a href="{{.Link}}" style="display: inline-block; background: #6366f1; color: white; padding: 12px 24px; border-radius: 8px; text-decoration: none; font-weight: 600;">
		Verify email
	</a>
	<p style="color: #aaa; font-size: 12px; margin-top: 16px;">
		If you didn't create an account, you can safely ignore this email.
	</p>
</div>
`))

func renderVerification(fullName, link string) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct {
		FullName string
		Link     string
	}{fullName, link})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
