package mail

import (
	"context"
	"fmt"
	"learnhub_backend/internal/config"
	"learnhub_backend/pkg/logger"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer 发送一封 HTML 邮件
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// New 根据配置选择 SendGrid，未配置密钥时只记录日志
func New(cfg *config.MailConfig) Mailer {
	if cfg.Provider == "sendgrid" && cfg.APIKey != "" {
		return &SendGridMailer{
			client: sendgrid.NewSendClient(cfg.APIKey),
			from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		}
	}
	return LogMailer{}
}

type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, html string) error {
	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail("", to), "", html)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer 开发环境使用，邮件内容只写日志
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, html string) error {
	logger.Log.Info("Mail not sent (log provider)",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

// SendAsync 后台发送，失败只记日志，不影响触发它的操作
func SendAsync(m Mailer, to, subject, html string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.Send(ctx, to, subject, html); err != nil {
			logger.Log.Error("Failed to send mail",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.Error(err))
		}
	}()
}
