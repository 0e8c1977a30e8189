package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func TestOTPMessage(t *testing.T) {
	msg, err := OTPMessage("jane@example.com", "123456", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Contains(t, msg.Body, "Enter this code: 123456")
	assert.Contains(t, msg.Body, "10 minutes")
	assert.NotContains(t, msg.Body, "{{")
}

func TestResetMessage(t *testing.T) {
	msg, err := ResetMessage("jane@example.com", "https://app/reset-password?token=abc", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "https://app/reset-password?token=abc")
	assert.Contains(t, msg.Body, "60 minutes")
}

func TestSMTPMailer(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "ToNote <no-reply@example.com>"})
	require.NoError(t, err)

	var raw bytes.Buffer
	m.deliver = func(_ context.Context, msg *gomail.Msg) error {
		_, err := msg.WriteTo(&raw)
		return err
	}

	require.NoError(t, m.Send(context.Background(), Message{To: "jane@example.com", Subject: "Código de acesso", Body: "line1\nline2"}))
	out := raw.String()
	assert.Contains(t, out, "no-reply@example.com")
	assert.Contains(t, out, "jane@example.com")
	assert.Contains(t, out, "Message-ID:")
	assert.Contains(t, out, "=?UTF-8?", "non-ASCII subject is encoded")
	assert.NotContains(t, out, "Código")
	assert.Contains(t, out, "line1")

	m.deliver = func(context.Context, *gomail.Msg) error { return errors.New("refused") }
	assert.ErrorContains(t, m.Send(context.Background(), Message{To: "x@example.com"}), "refused")

	assert.Error(t, m.Send(context.Background(), Message{To: "not an address"}))
}

func TestSMTPMailerTLSModes(t *testing.T) {
	for _, mode := range []string{"", TLSMandatory, TLSOpportunistic, TLSNone, TLSImplicit} {
		_, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "a@example.com", TLS: mode})
		assert.NoError(t, err, mode)
	}
	_, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, TLS: "starttls-ish"})
	assert.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(zerolog.New(&buf))
	require.NoError(t, m.Send(context.Background(), Message{To: "jane@example.com", Subject: "s", Body: "code 42"}))
	assert.Contains(t, buf.String(), "code 42")
	assert.Contains(t, buf.String(), `"component":"mail"`)
}
