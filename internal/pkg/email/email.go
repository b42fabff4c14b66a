package email

import (
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alumnisphere/api/internal/pkg/metrics"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

const breakerName = "smtp"

// EmailService defines the interface for email operations
type EmailService interface {
	SendAccountVerifiedEmail(toEmail, toName string) error
	SendFacultyCredentialsEmail(toEmail, toName, username, password string, deadline time.Time) error
	SendAccountRejectedEmail(toEmail, toName, reason string) error
	SendEventNotification(recipients []string, event EventNotice) error
}

// EventNotice carries the event fields rendered into the announcement email.
type EventNotice struct {
	Title       string
	Description string
	Location    string
	EventDate   time.Time
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string // Base URL for the application
}

// sendFunc delivers an already rendered message to the recipients.
type sendFunc func(recipients []string, message []byte) error

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config  SMTPConfig
	logger  zerolog.Logger
	breaker *gobreaker.CircuitBreaker[struct{}]
	send    sendFunc
}

// NewEmailService creates a new EmailService. Deliveries go through a circuit
// breaker so a dead SMTP relay fails fast instead of stalling requests.
func NewEmailService(config SMTPConfig, logger zerolog.Logger) *EmailServiceImpl {
	s := &EmailServiceImpl{
		config: config,
		logger: logger,
	}
	s.send = s.deliver
	s.breaker = newBreaker(logger)
	return s
}

func newBreaker(logger zerolog.Logger) *gobreaker.CircuitBreaker[struct{}] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("SMTP circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (s *EmailServiceImpl) credentialsMissing() bool {
	return s.config.Username == "" || s.config.Password == ""
}

// SendAccountVerifiedEmail tells a user their account was approved.
func (s *EmailServiceImpl) SendAccountVerifiedEmail(toEmail, toName string) error {
	subject := "Your AlumniSphere account has been verified"
	body := wrapHTML(fmt.Sprintf(`
				<h2 style="color: #333;">Account verified</h2>
				<p>Hello %s,</p>
				<p>Your account has been reviewed and verified by an administrator. You can now sign in and use every feature of AlumniSphere.</p>
				<p>Sign in at <a href="%s">%s</a>.</p>`,
		html.EscapeString(toName), s.config.BaseURL, s.config.BaseURL))

	return s.dispatch("account_verified", []string{toEmail}, subject, body)
}

// SendFacultyCredentialsEmail sends the temporary password issued to a
// verified faculty account together with the change deadline.
func (s *EmailServiceImpl) SendFacultyCredentialsEmail(toEmail, toName, username, password string, deadline time.Time) error {
	subject := "Your AlumniSphere faculty account"
	body := wrapHTML(fmt.Sprintf(`
				<h2 style="color: #333;">Faculty account activated</h2>
				<p>Hello %s,</p>
				<p>Your faculty account has been verified. Use the credentials below to sign in:</p>
				<ul>
					<li>Username: <strong>%s</strong></li>
					<li>Temporary password: <strong>%s</strong></li>
				</ul>
				<p>You must change this password before <strong>%s</strong>. After that time the account is locked and an administrator has to reactivate it.</p>`,
		html.EscapeString(toName), html.EscapeString(username), html.EscapeString(password), deadline.UTC().Format(time.RFC1123)))

	return s.dispatch("faculty_credentials", []string{toEmail}, subject, body)
}

// SendAccountRejectedEmail informs a user their registration was rejected.
func (s *EmailServiceImpl) SendAccountRejectedEmail(toEmail, toName, reason string) error {
	subject := "Your AlumniSphere registration"
	body := wrapHTML(fmt.Sprintf(`
				<h2 style="color: #333;">Registration not approved</h2>
				<p>Hello %s,</p>
				<p>After review, your account request could not be approved.</p>
				<p>Reason: <strong>%s</strong></p>
				<p>If you believe this is a mistake, please contact the alumni office.</p>`,
		html.EscapeString(toName), html.EscapeString(reason)))

	return s.dispatch("account_rejected", []string{toEmail}, subject, body)
}

// SendEventNotification announces a new event to every recipient in a single
// delivery.
func (s *EmailServiceImpl) SendEventNotification(recipients []string, event EventNotice) error {
	if len(recipients) == 0 {
		return nil
	}

	subject := "New event: " + event.Title
	body := wrapHTML(fmt.Sprintf(`
				<h2 style="color: #333;">%s</h2>
				<p>%s</p>
				<p><strong>When:</strong> %s<br><strong>Where:</strong> %s</p>`,
		html.EscapeString(event.Title), html.EscapeString(event.Description),
		event.EventDate.UTC().Format(time.RFC1123), html.EscapeString(event.Location)))

	return s.dispatch("event_notification", recipients, subject, body)
}

func wrapHTML(inner string) string {
	return `
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">` + inner + `
				<p>Best regards,<br>The AlumniSphere Team</p>
			</div>
		</body>
		</html>
	`
}

// dispatch renders and sends a message through the circuit breaker.
func (s *EmailServiceImpl) dispatch(kind string, recipients []string, subject, htmlBody string) error {
	if s.credentialsMissing() {
		// Development mode: nothing is sent.
		s.logger.Warn().
			Str("kind", kind).
			Strs("recipients", recipients).
			Str("subject", subject).
			Msg("SMTP credentials not configured - email not sent")
		metrics.EmailDeliveries.WithLabelValues(kind, "skipped").Inc()
		return nil
	}

	message := s.buildMessage(recipients, subject, htmlBody)

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.send(recipients, message)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.EmailDeliveries.WithLabelValues(kind, "rejected").Inc()
		} else {
			metrics.EmailDeliveries.WithLabelValues(kind, "failed").Inc()
		}
		s.logger.Error().Err(err).Str("kind", kind).Int("recipients", len(recipients)).Msg("Failed to send email")
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	metrics.EmailDeliveries.WithLabelValues(kind, "sent").Inc()
	s.logger.Info().Str("kind", kind).Int("recipients", len(recipients)).Msg("Email sent")
	return nil
}

func (s *EmailServiceImpl) buildMessage(recipients []string, subject, htmlBody string) []byte {
	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}
	// Bulk announcements keep the recipient list out of the headers.
	if len(recipients) == 1 {
		headers["To"] = recipients[0]
	} else {
		headers["To"] = s.config.FromEmail
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", key, headers[key])
	}
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// deliver talks to the configured SMTP relay.
func (s *EmailServiceImpl) deliver(recipients []string, message []byte) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, recipients, message); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range recipients {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}
