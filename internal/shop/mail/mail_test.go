package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var alice = Recipient{FirstName: "Alice", LastName: "Liddell", Email: "alice@example.com"}

func TestRender(t *testing.T) {
	msg, err := render(tmplResetPassword, alice, "https://shop.example.com/reset-password?token=abc")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", msg.To)
	require.Equal(t, "Reset your password", msg.Subject)
	require.Contains(t, msg.Body, "Hello Alice,")
	require.Contains(t, msg.Body, "https://shop.example.com/reset-password?token=abc")

	msg, err = render(tmplVerifyEmail, alice, "https://shop.example.com/verify-email?token=xyz")
	require.NoError(t, err)
	require.Equal(t, "Verify your email address", msg.Subject)
	require.Contains(t, msg.Body, "An account was created for alice@example.com.")

	_, err = render("missing.tmpl", alice, "")
	require.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := &LogMailer{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, m.SendPasswordResetEmail(context.Background(), alice, "https://x/reset-password?token=t"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "alice@example.com", entry["to"])
	require.Equal(t, "Reset your password", entry["subject"])
	require.Equal(t, "https://x/reset-password?token=t", entry["link"])
}

// fakeSMTP accepts a single session and returns what it received.
func fakeSMTP(t *testing.T) (host string, port int, received <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)

		var transcript strings.Builder
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.Fields(line + " ")[0])
			switch verb {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250-localhost")
				_ = tp.PrintfLine("250 8BITMIME")
			case "MAIL", "RCPT":
				transcript.WriteString(line + "\n")
				_ = tp.PrintfLine("250 OK")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				transcript.WriteString(strings.Join(lines, "\n"))
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("221 bye")
				out <- transcript.String()
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, out
}

func TestSMTPMailer_Send(t *testing.T) {
	host, port, received := fakeSMTP(t)

	m := NewSMTPMailer(SMTPConfig{Host: host, Port: port, From: "shop@example.com"})
	m.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.SendVerificationEmail(ctx, alice, "https://shop/verify-email?token=v"))

	select {
	case got := <-received:
		require.Contains(t, got, "MAIL FROM:<shop@example.com>")
		require.Contains(t, got, "RCPT TO:<alice@example.com>")
		require.Contains(t, got, "Subject: Verify your email address")
		require.Contains(t, got, "Date: Wed, 01 May 2024 12:00:00 +0000")
		require.Contains(t, got, "https://shop/verify-email?token=v")
	case <-ctx.Done():
		t.Fatal("smtp session not completed")
	}
}

func TestSMTPMailer_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: port, From: "shop@example.com"})
	err = m.SendPasswordResetEmail(context.Background(), alice, "x")
	require.ErrorContains(t, err, "smtp dial")
}
