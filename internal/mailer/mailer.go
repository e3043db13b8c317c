package mailer

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mail "gopkg.in/mail.v2"

	"github.com/hmtran/clothes-shop/internal/models"
)

// Mailer sends transactional mail over SMTP. A nil *Mailer is valid and
// drops everything, so order placement works without an SMTP backend.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	log      *slog.Logger
}

func New(host string, port int, username, password, from string, log *slog.Logger) *Mailer {
	if host == "" {
		return nil
	}
	if from == "" {
		from = username
	}
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		log:      log,
	}
}

// SendOrderConfirmation mails the order summary in the background. Failures
// are logged, never surfaced to the request that placed the order.
func (m *Mailer) SendOrderConfirmation(order *models.Order) {
	if m == nil || order.Email == "" {
		return
	}
	subject := fmt.Sprintf("Order #%d confirmed", order.ID)
	body := orderBody(order)
	go func() {
		if err := m.send(order.Email, subject, body); err != nil {
			m.log.Error("order confirmation mail failed", "order_id", order.ID, "error", err)
		}
	}()
}

func (m *Mailer) send(to, subject, body string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := mail.NewDialer(m.host, m.port, m.username, m.password)
	d.TLSConfig = &tls.Config{ServerName: m.host}
	d.Timeout = 10 * time.Second

	return d.DialAndSend(msg)
}

func orderBody(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nwe received your order #%d.\n\n", order.FullName, order.ID)
	for _, it := range order.Items {
		fmt.Fprintf(&b, "  %d x product %d (%s/%s) @ %.2f\n", it.Quantity, it.ProductID, it.Color, it.Size, it.Price)
	}
	fmt.Fprintf(&b, "\nTotal: %.2f\nShipping to: %s, %s\n", order.TotalAmount, order.Address, order.City)
	return b.String()
}
