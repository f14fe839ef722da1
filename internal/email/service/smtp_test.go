package service

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/rentmail/internal/config"
	edomain "github.com/corvusHold/rentmail/internal/email/domain"
)

// fakeRelay is a minimal SMTP server that records one transaction per connection.
// With tlsCfg set it advertises AUTH PLAIN, and either wraps every connection in
// TLS (implicit) or offers STARTTLS.
type fakeRelay struct {
	ln       net.Listener
	tlsCfg   *tls.Config
	implicit bool

	mu     sync.Mutex
	from   []string
	rcpt   []string
	data   []string
	auth   []string
	secure []bool
}

func startFakeRelay(t *testing.T) *fakeRelay {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	r := &fakeRelay{ln: ln}
	go r.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return r
}

// startTLSRelay returns a relay serving the httptest certificate and a client
// config that trusts it.
func startTLSRelay(t *testing.T, implicit bool) (*fakeRelay, *tls.Config) {
	t.Helper()
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	r := &fakeRelay{ln: ln, tlsCfg: &tls.Config{Certificates: srv.TLS.Certificates}, implicit: implicit}
	go r.serve()
	t.Cleanup(func() { _ = ln.Close() })

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return r, &tls.Config{RootCAs: pool, ServerName: "127.0.0.1", MinVersion: tls.VersionTLS12}
}

func (r *fakeRelay) port() int { return r.ln.Addr().(*net.TCPAddr).Port }

func (r *fakeRelay) serve() {
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			return
		}
		if r.tlsCfg != nil && r.implicit {
			conn = tls.Server(conn, r.tlsCfg)
		}
		go r.handle(conn)
	}
}

func (r *fakeRelay) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	rd := bufio.NewReader(conn)
	reply := func(s string) { _, _ = io.WriteString(conn, s+"\r\n") }
	reply("220 fake ESMTP")
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(cmd)
		_, isTLS := conn.(*tls.Conn)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			exts := []string{"fake"}
			if r.tlsCfg != nil {
				if !isTLS {
					exts = append(exts, "STARTTLS")
				}
				exts = append(exts, "AUTH PLAIN")
			}
			for i, ext := range exts {
				sep := "-"
				if i == len(exts)-1 {
					sep = " "
				}
				reply("250" + sep + ext)
			}
		case upper == "STARTTLS":
			reply("220 ready")
			conn = tls.Server(conn, r.tlsCfg)
			rd = bufio.NewReader(conn)
		case strings.HasPrefix(upper, "AUTH PLAIN "):
			creds, err := base64.StdEncoding.DecodeString(cmd[len("AUTH PLAIN "):])
			if err != nil {
				reply("501 bad encoding")
				continue
			}
			r.mu.Lock()
			r.auth = append(r.auth, string(creds))
			r.mu.Unlock()
			reply("235 accepted")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			r.mu.Lock()
			r.from = append(r.from, strings.Trim(cmd[len("MAIL FROM:"):], "<> "))
			r.secure = append(r.secure, isTLS)
			r.mu.Unlock()
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			r.mu.Lock()
			r.rcpt = append(r.rcpt, strings.Trim(cmd[len("RCPT TO:"):], "<> "))
			r.mu.Unlock()
			reply("250 OK")
		case upper == "DATA":
			reply("354 go ahead")
			var sb strings.Builder
			for {
				l, err := rd.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				sb.WriteString(strings.TrimPrefix(l, "."))
			}
			r.mu.Lock()
			r.data = append(r.data, sb.String())
			r.mu.Unlock()
			reply("250 queued")
		case upper == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestSMTP_SendsMultipartWithAttachment(t *testing.T) {
	relay := startFakeRelay(t)
	s := NewSMTP(config.Config{SMTPHost: "127.0.0.1", SMTPPort: relay.port(), SMTPFrom: "fleet@example.com", SMTPSecure: false})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Send(ctx, edomain.Message{
		To:          "jane@example.com",
		Subject:     "✅ Your Rental Contract",
		HTML:        "<p>Hello Jane</p>",
		Text:        "Hello Jane",
		Attachments: []edomain.Attachment{{Filename: "contract.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4 test")}},
	})
	require.NoError(t, err)

	relay.mu.Lock()
	defer relay.mu.Unlock()
	require.Len(t, relay.data, 1)
	assert.Equal(t, []string{"fleet@example.com"}, relay.from)
	assert.Equal(t, []string{"jane@example.com"}, relay.rcpt)

	m, err := mail.ReadMessage(strings.NewReader(relay.data[0]))
	require.NoError(t, err)
	subject, err := new(mime.WordDecoder).DecodeHeader(m.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "✅ Your Rental Contract", subject)

	mt, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mt)

	mr := multipart.NewReader(m.Body, params["boundary"])
	body, err := mr.NextPart()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body.Header.Get("Content-Type"), "multipart/alternative"))

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", att.FileName())
	assert.Equal(t, "base64", att.Header.Get("Content-Transfer-Encoding"))
}

func TestSMTP_RequiresRecipientAndSender(t *testing.T) {
	s := NewSMTP(config.Config{SMTPHost: "127.0.0.1", SMTPPort: 1})
	assert.ErrorIs(t, s.Send(context.Background(), edomain.Message{}), edomain.ErrNoRecipient)
	assert.ErrorIs(t, s.Send(context.Background(), edomain.Message{To: "a@b.com"}), edomain.ErrNoSender)
}

func TestSMTP_InvalidRecipient(t *testing.T) {
	s := NewSMTP(config.Config{SMTPHost: "127.0.0.1", SMTPPort: 1, SMTPFrom: "fleet@example.com"})
	err := s.Send(context.Background(), edomain.Message{To: "not an address"})
	require.Error(t, err)
}

func TestSMTP_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	s := NewSMTP(config.Config{SMTPHost: "127.0.0.1", SMTPPort: port, SMTPFrom: "fleet@example.com"})
	err = s.Send(context.Background(), edomain.Message{To: "a@b.com", HTML: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial 127.0.0.1:"+strconv.Itoa(port))
}

func TestSMTP_TLSAndPlainAuth(t *testing.T) {
	cases := []struct {
		name     string
		implicit bool
	}{
		{"implicit tls", true},
		{"starttls upgrade", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			relay, clientTLS := startTLSRelay(t, tc.implicit)
			s := NewSMTP(config.Config{
				SMTPHost:     "127.0.0.1",
				SMTPPort:     relay.port(),
				SMTPFrom:     "fleet@example.com",
				SMTPUsername: "fleet@example.com",
				SMTPPassword: "s3cret",
				SMTPSecure:   tc.implicit,
			})
			s.tlsConfig = clientTLS

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			require.NoError(t, s.Send(ctx, edomain.Message{To: "jane@example.com", Subject: "Contract", Text: "Hello Jane"}))

			relay.mu.Lock()
			defer relay.mu.Unlock()
			assert.Equal(t, []string{"\x00fleet@example.com\x00s3cret"}, relay.auth)
			assert.Equal(t, []bool{true}, relay.secure)
			assert.Equal(t, []string{"jane@example.com"}, relay.rcpt)
			require.Len(t, relay.data, 1)
		})
	}
}

func TestSMTP_RejectsUntrustedCertificate(t *testing.T) {
	relay, _ := startTLSRelay(t, true)
	s := NewSMTP(config.Config{SMTPHost: "127.0.0.1", SMTPPort: relay.port(), SMTPFrom: "fleet@example.com", SMTPSecure: true})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Send(ctx, edomain.Message{To: "jane@example.com", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp: dial")

	relay.mu.Lock()
	defer relay.mu.Unlock()
	assert.Empty(t, relay.from)
}
