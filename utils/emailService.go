package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"lms/config"
)

// SendEmail sends an HTML mail through the configured SMTP relay.
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := config.AppConfig.SMTPHost
	smtpPort := config.AppConfig.SMTPPort

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Learning Platform <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	if err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg)); err != nil {
		log.Printf("[EMAIL] failed to send %q to %v: %v", subject, to, err)
		return err
	}
	return nil
}

func emailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A237E; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A237E; line-height: 1.6; }
			.content h2 { color: #1A237E; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #43A047; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #43A047; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>LEARNING PLATFORM</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 Learning Platform. All rights reserved.
			</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}

// SendWelcomeEmail greets a freshly registered user.
func SendWelcomeEmail(email, firstName string) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your account is ready. Browse the catalog, enroll in a course, and start learning.</p>`, firstName)
	return SendEmail([]string{email}, "Welcome aboard!", emailTemplate("Welcome", body))
}

// SendPasswordResetEmail delivers a reset token.
func SendPasswordResetEmail(email, firstName, token string) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received a request to reset your password. Use the token below within the next hour:</p>
		<div class="info-box"><strong>%s</strong></div>
		<p>If you didn't ask for this, you can safely ignore this email.</p>`, firstName, token)
	return SendEmail([]string{email}, "Password reset request", emailTemplate("Password Reset", body))
}

// SendDueDateReminder nudges a learner about an assignment or quiz due
// soon.
func SendDueDateReminder(email, firstName, itemTitle, courseTitle string, dueDate time.Time) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p><strong>%s</strong> in <strong>%s</strong> is due on %s.</p>
		<p>Log in and finish it before the deadline.</p>`,
		firstName, itemTitle, courseTitle, dueDate.Format("Monday, Jan 2 2006"))
	return SendEmail([]string{email}, "Upcoming deadline: "+itemTitle, emailTemplate("Deadline Reminder", body))
}
