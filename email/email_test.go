package email

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pine/common"
)

func TestSendOTPEmail_Disabled(t *testing.T) {
	svc := NewEmailService(common.SMTPConfig{})
	called := false
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	assert.False(t, svc.Enabled())
	require.NoError(t, svc.SendOTPEmail("alice@example.com", "123456"))
	assert.False(t, called)
}

func TestSendOTPEmail(t *testing.T) {
	svc := NewEmailService(common.SMTPConfig{
		Host: "smtp.example.com",
		Port: "587",
		User: "pine",
		From: "no-reply@example.com",
	})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	require.NoError(t, svc.SendOTPEmail("alice@example.com", "654321"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "To: alice@example.com\r\n")
	assert.Contains(t, gotMsg, "654321")
}

func TestSendOTPEmail_Error(t *testing.T) {
	svc := NewEmailService(common.SMTPConfig{Host: "smtp.example.com", Port: "25"})
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := svc.SendOTPEmail("alice@example.com", "111111")
	assert.ErrorContains(t, err, "connection refused")
}
