package services

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/gomail.v2"

	"printflow/internal/config"
	"printflow/internal/lib/sl"
	"printflow/internal/lib/util"
)

// MailService sends invoice emails with the PDF attached over SMTP.

type MailService struct {
	dialer *gomail.Dialer
	from   string
	log    *slog.Logger
}

func NewMailService(conf *config.Config, log *slog.Logger) (*MailService, error) {
	if conf.Mail.Host == "" || conf.Mail.From == "" {
		return nil, fmt.Errorf("mail host and from address are not configured")
	}
	return &MailService{
		dialer: gomail.NewDialer(conf.Mail.Host, conf.Mail.Port, conf.Mail.User, conf.Mail.Password),
		from:   conf.Mail.From,
		log:    log.With(sl.Module("mail")),
	}, nil
}

// SendInvoice delivers the invoice PDF to the customer.
func (s *MailService) SendInvoice(to, subject, body, fileName string, pdf []byte) error {
	if to == "" {
		return fmt.Errorf("recipient address is empty")
	}
	if _, err := util.ValidateEmail(to); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	m.Attach(fileName, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	s.log.Info("invoice mail sent",
		sl.Secret("to", to),
		slog.String("file", fileName))
	return nil
}
