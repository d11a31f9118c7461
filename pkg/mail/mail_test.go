package mail

import (
	"context"
	"errors"
	"learnhub_backend/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingMailer struct {
	sent chan string
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, html string) error {
	m.sent <- to
	return m.err
}

func TestNewFallsBackToLogMailer(t *testing.T) {
	_, ok := New(&config.MailConfig{Provider: "sendgrid"}).(LogMailer)
	assert.True(t, ok, "missing api key must not build a sendgrid client")

	_, ok = New(&config.MailConfig{Provider: "sendgrid", APIKey: "k", FromEmail: "a@b.c"}).(*SendGridMailer)
	assert.True(t, ok)
}

func TestSendAsyncSwallowsErrors(t *testing.T) {
	m := &recordingMailer{sent: make(chan string, 1), err: errors.New("smtp down")}
	SendAsync(m, "ada@example.com", "hi", "<p>hi</p>")

	select {
	case to := <-m.sent:
		assert.Equal(t, "ada@example.com", to)
	case <-time.After(time.Second):
		t.Fatal("mail was not sent")
	}
}
