package email

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/pkg/logger"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
)

type sentMail struct {
	addr string
	to   []string
	msg  string
}

func newTestService(failures uint32, fn func() error) (*Service, *[]sentMail) {
	cfg := &config.EmailConfig{
		Enabled:               true,
		SMTPHost:              "smtp.test",
		SMTPPort:              2525,
		From:                  "Academia <no-reply@test>",
		BreakerFailures:       failures,
		BreakerTimeoutSeconds: 60,
	}
	s := NewService(cfg, logger.Discard())
	var sent []sentMail
	s.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		if err := fn(); err != nil {
			return err
		}
		sent = append(sent, sentMail{addr: addr, to: to, msg: string(msg)})
		return nil
	}
	return s, &sent
}

func TestSendJob_Overdue(t *testing.T) {
	s, sent := newTestService(3, func() error { return nil })

	err := s.SendJob(&queue.MailJob{
		Kind: queue.MailOverdue,
		To:   "aluno@example.com",
		Name: "Maria",
		Data: map[string]string{"plan": "Mensal", "amount": "R$ 120,00", "due_date": "2024-02-15"},
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.Equal(t, "smtp.test:2525", mail.addr)
	assert.Equal(t, []string{"aluno@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, mail.msg, "Mensal")
	assert.Contains(t, mail.msg, "R$ 120,00")
	assert.Contains(t, mail.msg, "Maria")
}

func TestSendJob_Disabled(t *testing.T) {
	s, sent := newTestService(3, func() error { return nil })
	s.cfg.Enabled = false

	err := s.SendJob(&queue.MailJob{Kind: queue.MailWelcome, To: "a@example.com"})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Empty(t, *sent)
}

func TestSendJob_Validation(t *testing.T) {
	s, _ := newTestService(3, func() error { return nil })

	assert.ErrorIs(t, s.SendJob(&queue.MailJob{Kind: queue.MailWelcome}), ErrNoRecipient)
	assert.ErrorIs(t, s.SendJob(&queue.MailJob{Kind: "sms", To: "a@example.com"}), ErrUnknownKind)
}

func TestSendJob_BreakerOpensAfterFailures(t *testing.T) {
	smtpDown := errors.New("connection refused")
	calls := 0
	s, _ := newTestService(2, func() error {
		calls++
		return smtpDown
	})

	job := &queue.MailJob{Kind: queue.MailWelcome, To: "a@example.com"}

	assert.ErrorIs(t, s.SendJob(job), smtpDown)
	assert.ErrorIs(t, s.SendJob(job), smtpDown)
	assert.Equal(t, gobreaker.StateOpen, s.State())

	// 熔断后不再调用 SMTP
	assert.ErrorIs(t, s.SendJob(job), ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestRender_EscapesHTML(t *testing.T) {
	_, body, err := Render(&queue.MailJob{
		Kind: queue.MailPaymentRequest,
		Name: "<b>x</b>",
		Data: map[string]string{"amount": "R$ 10,00", "due_date": "2024-03-01", "description": "<script>"},
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;b&gt;x&lt;/b&gt;")
}

func TestRender_SubjectOverride(t *testing.T) {
	subject, _, err := Render(&queue.MailJob{Kind: queue.MailRenewal, Subject: "Renovação"})
	require.NoError(t, err)
	assert.Equal(t, "Renovação", subject)
}
