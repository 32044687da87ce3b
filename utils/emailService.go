package utils

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional email through SendGrid.
type Mailer struct {
	apiKey     string
	host       string // empty means the public SendGrid API
	senderMail string
	senderName string
	siteURL    string
}

func NewMailer(apiKey, senderMail, senderName, siteURL string) *Mailer {
	return &Mailer{apiKey: apiKey, senderMail: senderMail, senderName: senderName, siteURL: siteURL}
}

// WithHost points the mailer at another SendGrid-compatible endpoint.
func (m *Mailer) WithHost(host string) *Mailer {
	m.host = host
	return m
}

// Generic Send Email
func (m *Mailer) SendEmail(ctx context.Context, toMail, toName, subject, htmlBody string) error {
	from := mail.NewEmail(m.senderName, m.senderMail)
	to := mail.NewEmail(toName, toMail)
	message := mail.NewSingleEmail(from, subject, to, subject, htmlBody)

	request := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	log.Printf("[NOTIFY] Email %q sent to %s", subject, toMail)
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1E3A8A; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; }
			.content { padding: 40px 30px; color: #1F2937; line-height: 1.6; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #2563EB; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #EFF6FF; padding: 15px; border-radius: 4px; border-left: 4px solid #2563EB; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>LEARNING CENTER</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// SendCertificateEmail tells a learner their course certificate is ready.
func (m *Mailer) SendCertificateEmail(ctx context.Context, email, name, courseTitle, certificateNumber string) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations! You have completed <strong>%s</strong>.</p>
		<div class="info-box">Certificate number: <strong>%s</strong></div>
		<a class="btn" href="%s/certificates">View certificate</a>
	`, html.EscapeString(name), html.EscapeString(courseTitle), certificateNumber, m.siteURL)

	return m.SendEmail(ctx, email, name, "Your certificate for "+courseTitle, getEmailTemplate("Course Completed", body))
}

// SendEnrollmentEmail confirms a new enrollment.
func (m *Mailer) SendEnrollmentEmail(ctx context.Context, email, name, courseTitle string) error {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have successfully enrolled in:</p>
		<div class="info-box"><strong>%s</strong></div>
		<p>Complete every lesson to earn your certificate.</p>
		<a class="btn" href="%s/dashboard">Start learning</a>
	`, html.EscapeString(name), html.EscapeString(courseTitle), m.siteURL)

	return m.SendEmail(ctx, email, name, "Enrollment confirmed: "+courseTitle, getEmailTemplate("Enrollment Successful", body))
}
