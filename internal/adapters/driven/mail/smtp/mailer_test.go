package smtp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// --- Test fixtures ---

func testMail() domain.Mail {
	return domain.Mail{
		To:       "victim@example.org",
		ToName:   "A. Citizen",
		Subject:  "FIR Draft - Theft - Nyay Sahayak",
		TextBody: "FIR DRAFT\n\nThis is a draft. Verify before filing.\n",
		HTMLBody: "<html><body><p>© 2025 Nyay Sahayak. All rights reserved.</p></body></html>",
	}
}

func testConfig() Config {
	return Config{
		Host:        "smtp.example.org",
		Port:        587,
		Username:    "sender@example.org",
		Password:    "app-password",
		FromAddress: "sender@example.org",
		FromName:    "Nyay Sahayak",
	}
}

// fakeSMTPServer runs handler on the first accepted connection and
// returns the listen address.
func fakeSMTPServer(t *testing.T, handler func(net.Conn)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()

	return ln.Addr().String()
}

// plainESMTPHandler speaks just enough ESMTP to greet and answer EHLO,
// without advertising STARTTLS.
func plainESMTPHandler(conn net.Conn) {
	fmt.Fprintf(conn, "220 test.local ESMTP\r\n")
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			fmt.Fprintf(conn, "250-test.local\r\n250 AUTH PLAIN\r\n")
		case strings.HasPrefix(cmd, "QUIT"):
			fmt.Fprintf(conn, "221 bye\r\n")
			return
		default:
			fmt.Fprintf(conn, "502 not implemented\r\n")
		}
	}
}

// --- Tests ---

func TestNewMailer(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:        "missing host",
			mutate:      func(c *Config) { c.Host = "" },
			wantErr:     true,
			errContains: "host",
		},
		{
			name:        "missing username",
			mutate:      func(c *Config) { c.Username = "" },
			wantErr:     true,
			errContains: "credentials",
		},
		{
			name:        "missing password",
			mutate:      func(c *Config) { c.Password = "" },
			wantErr:     true,
			errContains: "SMTP_PASSWORD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			m, err := NewMailer(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, m)
		})
	}
}

func TestNewMailer_Defaults(t *testing.T) {
	m, err := NewMailer(Config{
		Host:     "smtp.example.org",
		Username: "sender@example.org",
		Password: "app-password",
	})
	require.NoError(t, err)

	assert.Equal(t, 587, m.port)
	assert.Equal(t, "sender@example.org", m.fromAddress)
	assert.Equal(t, DefaultTimeout, m.timeout)
}

func TestBuildMessage(t *testing.T) {
	m, err := NewMailer(testConfig())
	require.NoError(t, err)

	raw, err := m.buildMessage(testMail(), "BOUNDARY", "<id-123@smtp.example.org>")
	require.NoError(t, err)
	msg := string(raw)

	assert.Contains(t, msg, "From: \"Nyay Sahayak\" <sender@example.org>\r\n")
	assert.Contains(t, msg, "To: \"A. Citizen\" <victim@example.org>\r\n")
	assert.Contains(t, msg, "Subject: FIR Draft - Theft - Nyay Sahayak\r\n")
	assert.Contains(t, msg, "Message-ID: <id-123@smtp.example.org>\r\n")
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.Contains(t, msg, "Content-Type: multipart/alternative; boundary=\"BOUNDARY\"\r\n")

	// The plain part comes before the HTML part so clients that stop at
	// the first alternative still get readable text.
	textAt := strings.Index(msg, "Content-Type: text/plain; charset=\"utf-8\"")
	htmlAt := strings.Index(msg, "Content-Type: text/html; charset=\"utf-8\"")
	require.NotEqual(t, -1, textAt)
	require.NotEqual(t, -1, htmlAt)
	assert.Less(t, textAt, htmlAt)

	assert.Contains(t, msg, "Content-Transfer-Encoding: quoted-printable\r\n")
	assert.Contains(t, msg, "Verify before filing.")
	// The copyright sign survives as a quoted-printable escape.
	assert.Contains(t, msg, "=C2=A9 2025 Nyay Sahayak")

	assert.True(t, strings.HasSuffix(msg, "--BOUNDARY--\r\n"))
	assert.NotContains(t, strings.ReplaceAll(msg, "\r\n", ""), "\n",
		"message must use CRLF line endings throughout")
}

func TestBuildMessage_EncodesSubject(t *testing.T) {
	m, err := NewMailer(testConfig())
	require.NoError(t, err)

	mail := testMail()
	mail.Subject = "FIR Draft - چोरी"

	raw, err := m.buildMessage(mail, "BOUNDARY", "<id@host>")
	require.NoError(t, err)

	assert.Contains(t, string(raw), "Subject: =?utf-8?q?")
}

func TestBuildMessage_EmptyToName(t *testing.T) {
	m, err := NewMailer(testConfig())
	require.NoError(t, err)

	mail := testMail()
	mail.ToName = ""

	raw, err := m.buildMessage(mail, "BOUNDARY", "<id@host>")
	require.NoError(t, err)

	assert.Contains(t, string(raw), "To: <victim@example.org>\r\n")
}

func TestSend_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	ln.Close()

	cfg := testConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.Timeout = 2 * time.Second
	m, err := NewMailer(cfg)
	require.NoError(t, err)

	err = m.Send(context.Background(), testMail())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect")
}

func TestSend_RequiresSTARTTLS(t *testing.T) {
	addr := fakeSMTPServer(t, plainESMTPHandler)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.Timeout = 2 * time.Second
	m, err := NewMailer(cfg)
	require.NoError(t, err)

	err = m.Send(context.Background(), testMail())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTTLS")
}

func TestSend_CancelledContext(t *testing.T) {
	m, err := NewMailer(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = m.Send(ctx, testMail())
	require.Error(t, err)
}
