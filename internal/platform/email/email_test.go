package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"solarops/internal/platform/config"
)

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	m := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.example.com"})
	if _, ok := m.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", m)
	}
	if err := m.Send(context.Background(), "a@example.com", "b@example.com", "s", "b"); err != nil {
		t.Fatalf("noop send: %v", err)
	}
	if _, ok := New(config.Config{EmailEnabled: true}).(noopMailer); !ok {
		t.Fatal("expected noop mailer without a host")
	}
}

func TestBuildMessage(t *testing.T) {
	at := time.Date(2025, time.January, 17, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("payroll@solar.example", "rep@example.com", "Commission paid: $1,000.00 ✓", "line one\nline two", at))

	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Fatalf("expected encoded subject, got %q", msg)
	}
	if !strings.Contains(msg, "@solar.example>") {
		t.Fatal("expected message id on the sender domain")
	}
	if !strings.Contains(msg, "Date: Fri, 17 Jan 2025 09:00:00 +0000") {
		t.Fatal("expected RFC 1123 date header")
	}
	if !strings.HasSuffix(msg, "line one\r\nline two") {
		t.Fatalf("expected CRLF body, got %q", msg)
	}
}
