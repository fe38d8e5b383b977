package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/core"
	"go.uber.org/zap"
)

const (
	dialTimeout  = 10 * time.Second
	sessionLimit = 30 * time.Second
	subject      = "新しいお問い合わせがあります"
)

// SMTPNotifier relays a short summary of each accepted submission to the site owner
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
	nowFn  func() time.Time
}

// NewSMTPNotifier creates a new SMTP notifier
func NewSMTPNotifier(cfg config.SMTPConfig, logger *zap.Logger) (*SMTPNotifier, error) {
	if len(cfg.To) == 0 {
		return nil, errors.New("smtp.to must list at least one recipient")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPNotifier{cfg: cfg, logger: logger, nowFn: time.Now}, nil
}

// Notify sends the notification mail
func (n *SMTPNotifier) Notify(ctx context.Context, submission *core.Submission, result *core.SaveResult) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", n.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	deadline := time.Now().Add(sessionLimit)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if n.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.cfg.Username, n.cfg.Password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(n.cfg.From, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range n.cfg.To {
		if err := c.Rcpt(recipient, nil); err != nil {
			n.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(n.buildMessage(submission, result)); err != nil {
		wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finish DATA: %w", err)
	}

	if err := c.Quit(); err != nil {
		n.logger.Debug("QUIT failed", zap.Error(err))
	}

	n.logger.Info("Owner notification sent",
		zap.Int("recipients", len(n.cfg.To)),
		zap.String("submission_id", result.ID))
	return nil
}

func (n *SMTPNotifier) buildMessage(submission *core.Submission, result *core.SaveResult) []byte {
	var b bytes.Buffer
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	header("From", n.cfg.From)
	header("To", strings.Join(n.cfg.To, ", "))
	header("Subject", mime.BEncoding.Encode("utf-8", subject))
	header("Date", n.nowFn().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "名前: %s\r\n", singleLine(submission.Name))
	fmt.Fprintf(&b, "メールアドレス: %s\r\n", singleLine(submission.Email))
	if result != nil && result.ID != "" {
		fmt.Fprintf(&b, "ID: %s\r\n", result.ID)
	}
	b.WriteString("\r\n")
	b.WriteString(normalizeNewlines(submission.Message))
	b.WriteString("\r\n")
	return b.Bytes()
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// Noop discards notifications
type Noop struct{}

// Notify does nothing
func (Noop) Notify(context.Context, *core.Submission, *core.SaveResult) error {
	return nil
}
