package email

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
)

var (
	ErrDisabled    = errors.New("email disabled")
	ErrUnknownKind = errors.New("unknown mail kind")
	ErrNoRecipient = errors.New("mail job has no recipient")
	ErrCircuitOpen = gobreaker.ErrOpenState
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service SMTP 发信，连续失败达到阈值后熔断
type Service struct {
	cfg      *config.EmailConfig
	sendMail sendMailFunc
	breaker  *gobreaker.CircuitBreaker[any]
	logger   *slog.Logger
}

func NewService(cfg *config.EmailConfig, logger *slog.Logger) *Service {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := time.Duration(cfg.BreakerTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}

	s := &Service{
		cfg:      cfg,
		sendMail: smtp.SendMail,
		logger:   logger,
	}
	s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("smtp circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return s
}

// State 熔断器当前状态
func (s *Service) State() gobreaker.State {
	return s.breaker.State()
}

// SendJob 渲染并发送队列中的邮件任务
func (s *Service) SendJob(job *queue.MailJob) error {
	if !s.cfg.Enabled {
		return ErrDisabled
	}
	if job.To == "" {
		return ErrNoRecipient
	}

	subject, body, err := Render(job)
	if err != nil {
		return err
	}

	return s.sendHTML(job.To, subject, body)
}

// sendHTML 发送 HTML 邮件（经过熔断器）
func (s *Service) sendHTML(to, subject, body string) error {
	headers := map[string]string{
		"From":         s.cfg.From,
		"To":           to,
		"Subject":      mime.QEncoding.Encode("UTF-8", subject),
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg strings.Builder
	for _, k := range keys {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, headers[k]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.sendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
	})
	return err
}

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #16a34a;">{{.Heading}}</h2>
        <p>{{.Name}}，您好：</p>
        {{range .Lines}}<p>{{.}}</p>
        {{end}}<hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`

var page = template.Must(template.New("mail").Parse(layout))

type pageData struct {
	Heading string
	Name    string
	Lines   []string
}

// Render 按邮件类型生成标题和正文
func Render(job *queue.MailJob) (string, string, error) {
	d := job.Data
	var subject string
	data := pageData{Name: job.Name}

	switch job.Kind {
	case queue.MailPaymentRequest:
		subject = "新的缴费账单"
		data.Heading = "缴费提醒"
		data.Lines = []string{
			fmt.Sprintf("您有一笔 %s 的待缴账单，到期日 %s。", d["amount"], d["due_date"]),
		}
		if d["description"] != "" {
			data.Lines = append(data.Lines, "说明："+d["description"])
		}
	case queue.MailOverdue:
		subject = "会费已逾期"
		data.Heading = "逾期提醒"
		data.Lines = []string{
			fmt.Sprintf("您的套餐「%s」会费 %s 已于 %s 到期，请尽快缴费。", d["plan"], d["amount"], d["due_date"]),
		}
	case queue.MailRenewal:
		subject = "套餐续费账单"
		data.Heading = "续费提醒"
		data.Lines = []string{
			fmt.Sprintf("您的套餐「%s」已进入新周期，续费金额 %s，到期日 %s。", d["plan"], d["amount"], d["due_date"]),
		}
	case queue.MailWelcome:
		subject = "欢迎加入"
		data.Heading = "欢迎加入！"
		data.Lines = []string{"您的会员账号已创建，现在可以登录查看训练计划与缴费记录。"}
	case queue.MailGeneric:
		subject = job.Subject
		data.Heading = job.Subject
		data.Lines = []string{d["message"]}
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnknownKind, job.Kind)
	}

	if job.Subject != "" {
		subject = job.Subject
	}

	var body strings.Builder
	if err := page.Execute(&body, data); err != nil {
		return "", "", err
	}
	return subject, body.String(), nil
}
