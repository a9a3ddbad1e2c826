package verification

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"html/template"
	"math/big"
	"time"
)

// Code is a short-lived numeric secret proving email ownership.
type Code struct {
	Value     string
	ExpiresAt time.Time
}

// NewCode draws a uniform 6-digit code and stamps it with an expiry of
// now + ttl.
func NewCode(ttl time.Duration) (Code, error) {
	const op = "lib.verification.NewCode"

	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return Code{}, fmt.Errorf("%s: %w", op, err)
	}

	return Code{
		Value:     fmt.Sprintf("%06d", n.Int64()+100000),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

var htmlTmpl = template.Must(template.New("verification_email").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h2>Hi {{.Name}},</h2>
      <p>Thank you for registering with Student Connect!</p>
      <p>To complete your registration, please use the verification code below:</p>
      <div style="border: 2px dashed #667eea; padding: 20px; text-align: center; margin: 20px 0;">
        <span style="font-size: 32px; font-weight: bold; letter-spacing: 5px;">{{.Code}}</span>
      </div>
      <p><strong>This code will expire in 10 minutes.</strong></p>
      <p>If you didn't create an account with us, please ignore this email.</p>
      <p>Best regards,<br><strong>The Student Connect Team</strong></p>
    </div>
  </body>
</html>`))

// RenderEmail produces the plain-text and HTML bodies for a verification
// email. Pure; delivery is the dispatcher's job.
func RenderEmail(name, code string) (text, html string) {
	text = fmt.Sprintf(`Hi %s,

Thank you for registering with Student Connect!

Your verification code is: %s

This code will expire in 10 minutes.

If you didn't create an account, please ignore this email.

Best regards,
The Student Connect Team
`, name, code)

	var buf bytes.Buffer
	// The template is static and the data is two strings; Execute cannot fail.
	_ = htmlTmpl.Execute(&buf, struct{ Name, Code string }{Name: name, Code: code})

	return text, buf.String()
}
