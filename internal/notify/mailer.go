// Package notify mails household members when their expenses are settled.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/report"
	"github.com/mmynk/kakeibo/internal/storage"
)

// Config holds the SMTP settings.
type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string // Display name of the sender
}

// Sender delivers messages. *gomail.Dialer is the production implementation.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer implements ledger.Notifier over SMTP. Messages are delivered in the
// background so a slow SMTP host never holds up the settling request.
type Mailer struct {
	cfg    Config
	users  storage.UserStore
	sender Sender

	inflight sync.WaitGroup
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSender replaces the SMTP dialer.
func WithSender(s Sender) Option {
	return func(m *Mailer) { m.sender = s }
}

// NewMailer creates a mailer that resolves member addresses through users.
func NewMailer(cfg Config, users storage.UserStore, opts ...Option) *Mailer {
	m := &Mailer{cfg: cfg, users: users}
	for _, opt := range opts {
		opt(m)
	}
	if m.sender == nil {
		m.sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// SettlementCompleted queues a mail to every member of the group that has an
// account and returns without waiting for delivery; delivery errors are logged.
// Nothing is sent when the mailer is disabled or nothing was settled.
func (m *Mailer) SettlementCompleted(ctx context.Context, group *models.Group, result ledger.SettleResult) error {
	if !m.cfg.Enabled || result.Count == 0 {
		return nil
	}

	var recipients []string
	for _, member := range group.Members {
		if member.UserID == "" {
			continue
		}
		user, err := m.users.GetUserByID(ctx, member.UserID)
		if err != nil {
			return fmt.Errorf("failed to look up member %s: %w", member.UserID, err)
		}
		if user == nil || user.Email == "" {
			continue
		}
		recipients = append(recipients, user.Email)
	}
	if len(recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("【家計簿】%s の精算が完了しました", group.Name)
	body := settlementBody(group, result)

	msgs := make([]*gomail.Message, 0, len(recipients))
	for _, to := range recipients {
		msg := gomail.NewMessage()
		msg.SetHeader("From", msg.FormatAddress(m.cfg.Username, m.cfg.From))
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/plain", body)
		msgs = append(msgs, msg)
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		if err := m.send(group.ID, msgs); err != nil {
			slog.Warn("Settlement mail failed", "group_id", group.ID, "error", err)
		}
	}()
	return nil
}

// send delivers each message on its own so one bad address does not stop the rest.
func (m *Mailer) send(groupID string, msgs []*gomail.Message) error {
	var errs []error
	for _, msg := range msgs {
		to := msg.GetHeader("To")
		if err := m.sender.DialAndSend(msg); err != nil {
			errs = append(errs, fmt.Errorf("failed to send settlement mail to %s: %w", strings.Join(to, ","), err))
			continue
		}
		slog.Info("Sent settlement mail", "group_id", groupID, "to", to)
	}
	return errors.Join(errs...)
}

// Wait blocks until queued mail has been handed to the SMTP host or ctx ends.
func (m *Mailer) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func settlementBody(group *models.Group, result ledger.SettleResult) string {
	s := result.Settlement
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", group.Name)
	fmt.Fprintf(&b, "精算日時: %s\n", time.Unix(result.SettledAt, 0).Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "精算件数: %d\n", result.Count)
	fmt.Fprintf(&b, "合計: %s\n", report.Yen(s.TotalAmount))
	fmt.Fprintf(&b, "1人あたり: %s\n\n", report.Yen(s.PerPerson))
	for _, member := range s.Members {
		fmt.Fprintf(&b, "%s: %s 支払い\n", member.MemberName, report.Yen(member.TotalPaid))
	}
	if t, ok := s.Transfer(); ok && t.Amount > 0 {
		fmt.Fprintf(&b, "\n%s → %s: %s\n", t.From, t.To, report.Yen(t.Amount))
	} else {
		b.WriteString("\nお互いの支払いは均等です\n")
	}
	return b.String()
}
