// Package smtp delivers mail over SMTP with STARTTLS.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// Ensure Mailer implements the interface.
var _ driven.Mailer = (*Mailer)(nil)

// DefaultTimeout bounds the whole SMTP conversation.
const DefaultTimeout = 30 * time.Second

// Config holds SMTP configuration. The password comes from the
// environment (SMTP_PASSWORD); it is never read from the settings store.
type Config struct {
	// Host is the SMTP server host. Required.
	Host string

	// Port is the SMTP server port (STARTTLS, default: 587).
	Port int

	// Username authenticates against the server. Required.
	Username string

	// Password authenticates against the server. Required.
	Password string

	// FromAddress is the sender address (default: Username).
	FromAddress string

	// FromName is the sender display name.
	FromName string

	// Timeout bounds the SMTP conversation (default: 30s).
	Timeout time.Duration
}

// Mailer sends multipart/alternative mail through one SMTP relay.
// Credentials only travel after STARTTLS upgrades the connection.
type Mailer struct {
	host        string
	port        int
	username    string
	password    string
	fromAddress string
	fromName    string
	timeout     time.Duration
}

// NewMailer creates an SMTP mailer.
func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp: host is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("smtp: credentials are not configured, set SMTP_USERNAME and SMTP_PASSWORD")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromAddress == "" {
		cfg.FromAddress = cfg.Username
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Mailer{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.Username,
		password:    cfg.Password,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		timeout:     cfg.Timeout,
	}, nil
}

// Send delivers the mail as one multipart/alternative message.
func (m *Mailer) Send(ctx context.Context, msg domain.Mail) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp: connect %s: %w", addr, err)
	}

	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("smtp: set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp: handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return fmt.Errorf("smtp: server %s does not offer STARTTLS", m.host)
	}
	if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
		return fmt.Errorf("smtp: starttls: %w", err)
	}

	if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
		return fmt.Errorf("smtp: auth: %w", err)
	}

	if err := client.Mail(m.fromAddress); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp: rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}

	boundary := uuid.NewString()
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), m.host)
	message, err := m.buildMessage(msg, boundary, messageID)
	if err != nil {
		w.Close()
		return fmt.Errorf("smtp: build message: %w", err)
	}

	if _, err := w.Write(message); err != nil {
		w.Close()
		return fmt.Errorf("smtp: write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: finish message: %w", err)
	}

	logger.Debug("Mail sent to %s (%s)", msg.To, msg.Subject)
	return client.Quit()
}

// buildMessage renders the RFC 5322 message: headers, then the plain
// and HTML bodies as quoted-printable multipart/alternative parts.
func (m *Mailer) buildMessage(msg domain.Mail, boundary, messageID string) ([]byte, error) {
	from := netmail.Address{Name: m.fromName, Address: m.fromAddress}
	to := netmail.Address{Name: msg.ToName, Address: msg.To}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: %s\r\n", messageID)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	buf.WriteString("\r\n")

	if err := writePart(&buf, boundary, "text/plain", msg.TextBody); err != nil {
		return nil, err
	}
	if err := writePart(&buf, boundary, "text/html", msg.HTMLBody); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes(), nil
}

// writePart writes one body part. Quoted-printable keeps lines inside
// the SMTP limit and survives non-ASCII text.
func writePart(buf *bytes.Buffer, boundary, contentType, body string) error {
	fmt.Fprintf(buf, "--%s\r\n", boundary)
	fmt.Fprintf(buf, "Content-Type: %s; charset=\"utf-8\"\r\n", contentType)
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	if err := qp.Close(); err != nil {
		return err
	}

	buf.WriteString("\r\n")
	return nil
}
