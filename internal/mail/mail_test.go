package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/anoixa/photo-album/config"
)

func TestPasswordResetMessage(t *testing.T) {
	msg, err := PasswordResetMessage("ann@example.com", "Ann", "http://localhost:8080/reset_password/abc", 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", msg.To)
	assert.Equal(t, "Password Reset Request", msg.Subject)
	assert.Contains(t, msg.Text, "http://localhost:8080/reset_password/abc")
	assert.Contains(t, msg.Text, "valid for 10 minutes")
	assert.Contains(t, msg.HTML, `href="http://localhost:8080/reset_password/abc"`)
}

func TestPasswordResetMessage_EscapesHTML(t *testing.T) {
	msg, err := PasswordResetMessage("x@example.com", "<b>x</b>", "http://h/r/t", time.Minute)
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<b>x</b>")
	assert.Contains(t, msg.Text, "<b>x</b>")
}

func TestResetOTPMessage(t *testing.T) {
	msg, err := ResetOTPMessage("bob@example.com", "Bob", "042517", 30*time.Second)
	require.NoError(t, err)

	assert.Contains(t, msg.Text, "042517")
	assert.Contains(t, msg.Text, "1 minutes")
	assert.Empty(t, msg.HTML)
}

func TestNewMailer_DisabledFallsBackToLog(t *testing.T) {
	m := NewMailer(&config.Config{})
	_, ok := m.(LogMailer)
	require.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@b.c", Subject: "s"}))
}

func TestSMTPMailer_BuildMessage(t *testing.T) {
	m := &SMTPMailer{from: "album@example.com", senderName: "Photo Album"}

	out, err := m.buildMessage(Message{To: "ann@example.com", Subject: "hi", Text: "body", HTML: "<p>body</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ann@example.com"}, out.GetToString())
	assert.Equal(t, []string{"hi"}, out.GetGenHeader(gomail.HeaderSubject))

	_, err = m.buildMessage(Message{To: "not an address"})
	assert.Error(t, err)
}
