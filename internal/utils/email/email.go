package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/finsight/finance-service/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// NotifyNewAlerts tells the finance team a detection run created new alerts
func (s *Sender) NotifyNewAlerts(count int) error {
	e := email.NewEmail()
	e.From = s.cfg.AlertEmailFrom
	e.To = []string{s.cfg.AlertEmailTo}
	e.Subject = "New Fraud Alerts Detected"

	body := fmt.Sprintf(
		"The spending anomaly check run at %s flagged %d new alert(s).\n"+
			"Please review them in the fraud detection queue.\n"+
			"\nBest regards,\nFinance Service",
		time.Now().Format("2006-01-02 15:04:05"), count,
	)
	e.Text = []byte(body)

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send alert notification to %s: %v", s.cfg.AlertEmailTo, err)
		return fmt.Errorf("failed to send alert notification: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.AlertEmailTo, e.Subject)
	return nil
}
