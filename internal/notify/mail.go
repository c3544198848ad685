package notify

import (
	"context"
	"fmt"

	"github.com/openmart/storecore/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// MailSink delivers notifications over SMTP. Recipients are user ids, which
// are email addresses in this system.
type MailSink struct {
	cfg config.SmtpConfig
}

func NewMailSink(cfg config.SmtpConfig) *MailSink {
	return &MailSink{cfg: cfg}
}

func (s *MailSink) Notify(ctx context.Context, ev Event) error {
	if !s.cfg.Enable {
		zap.L().Debug("smtp disabled, skipping notification",
			zap.String("kind", string(ev.Kind)),
			zap.String("recipient", ev.Recipient))
		return nil
	}

	subject, body := renderMail(ev)

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", ev.Recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return errors.Wrap(err, "send notification mail")
	}
	return nil
}

func renderMail(ev Event) (subject, body string) {
	switch ev.Kind {
	case KindPaymentSuccess:
		subject = "Your order has been placed"
		body = fmt.Sprintf("Your payment of %.2f was received and order %v has been placed successfully.",
			ev.Payload["amount"], ev.Payload["transid"])
	case KindShipped:
		subject = "Your order has been shipped"
		body = fmt.Sprintf("Order %v (%v) has been shipped and is on its way.",
			ev.Payload["orderid"], ev.Payload["prodid"])
	case KindBackInStock:
		subject = "Product back in stock"
		body = fmt.Sprintf("%v is available in the store again. You asked for %v of it, order now before it runs out!",
			ev.Payload["pname"], ev.Payload["quantity"])
	default:
		subject = "Notification"
		body = fmt.Sprintf("%v", ev.Payload)
	}
	return subject, body
}
